// Package inventory implements the inventory lifecycle commands: init,
// status, commit, history, sync and check. Commit, history and sync need the
// git-backed store; the filesystem store degrades with a validation error.
package inventory

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	configdomain "github.com/fiesolecouk/declansx/config"
	"github.com/fiesolecouk/declansx/internal/cli/common"
	"github.com/fiesolecouk/declansx/inventory"
	"github.com/spf13/cobra"
)

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	command := &cobra.Command{
		Use:   "inventory",
		Short: "Manage local inventory state",
		Args:  cobra.NoArgs,
	}

	command.AddCommand(
		newInitCommand(deps),
		newStatusCommand(deps, globalFlags),
		newCommitCommand(deps, globalFlags),
		newHistoryCommand(deps, globalFlags),
		newSyncCommand(deps, globalFlags),
		newCheckCommand(deps),
	)

	return command
}

func newInitCommand(deps common.CommandDependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the inventory",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			syncService, err := common.RequireInventorySync(deps)
			if err != nil {
				return err
			}
			return syncService.Init(command.Context())
		},
	}
}

func newStatusCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show inventory sync status",
		Example: strings.Join([]string{
			"  declansx inventory status",
			"  declansx inventory status --output json",
		}, "\n"),
		Args: cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			syncService, err := common.RequireInventorySync(deps)
			if err != nil {
				return err
			}

			report, err := syncService.SyncStatus(command.Context())
			if err != nil {
				return err
			}
			inventoryContext, err := resolveInventoryContext(command.Context(), deps, globalFlags)
			if err != nil {
				return err
			}

			format := resolveInventoryOutputFormat(globalFlags)
			return common.WriteOutput(command, format, report, func(w io.Writer, value inventory.SyncReport) error {
				return renderSyncReportText(w, value, inventoryContext)
			})
		},
	}
}

func newCommitCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var message string

	command := &cobra.Command{
		Use:   "commit",
		Short: "Commit inventory changes (git inventories only)",
		Example: strings.Join([]string{
			`  declansx inventory commit -m "add web-servers group"`,
			`  declansx --context prod inventory commit --message "tier-1 rollout"`,
		}, "\n"),
		Args: cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			inventoryContext, err := resolveInventoryContext(command.Context(), deps, globalFlags)
			if err != nil {
				return err
			}
			if inventoryContext.Kind != inventoryContextGit {
				return common.ValidationError("inventory commit is only available for git inventories", nil)
			}

			trimmedMessage := strings.TrimSpace(message)
			if trimmedMessage == "" {
				return common.ValidationError("flag --message is required", nil)
			}

			syncService, err := common.RequireInventorySync(deps)
			if err != nil {
				return err
			}
			record, err := syncService.Commit(command.Context(), trimmedMessage)
			if err != nil {
				return err
			}

			format := resolveInventoryOutputFormat(globalFlags)
			return common.WriteOutput(command, format, record, renderCommitRecordText)
		},
	}

	command.Flags().StringVarP(&message, "message", "m", "", "commit message")
	return command
}

func newHistoryCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var maxCount int
	var oneline bool

	command := &cobra.Command{
		Use:   "history",
		Short: "Show inventory history (git inventories only)",
		Example: strings.Join([]string{
			"  declansx inventory history",
			"  declansx inventory history --max-count 10 --oneline",
		}, "\n"),
		Args: cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			inventoryContext, err := resolveInventoryContext(command.Context(), deps, globalFlags)
			if err != nil {
				return err
			}
			if inventoryContext.Kind != inventoryContextGit {
				return common.ValidationError("inventory history is only available for git inventories", nil)
			}

			syncService, err := common.RequireInventorySync(deps)
			if err != nil {
				return err
			}
			records, err := syncService.History(command.Context(), inventory.HistoryPolicy{Limit: maxCount})
			if err != nil {
				return err
			}

			format := resolveInventoryOutputFormat(globalFlags)
			return common.WriteOutput(command, format, records, func(w io.Writer, value []inventory.CommitRecord) error {
				return renderHistoryText(w, value, oneline)
			})
		},
	}

	command.Flags().IntVar(&maxCount, "max-count", 0, "limit the number of history entries")
	command.Flags().BoolVar(&oneline, "oneline", false, "compact one-line output")
	return command
}

func newSyncCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var forcePush bool

	command := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize the inventory with its remote (git inventories only)",
		Long: strings.Join([]string{
			"Sync fetches the remote copy, then pushes local commits.",
			"It requires a git inventory with inventory.git.remote configured.",
		}, " "),
		Example: strings.Join([]string{
			"  declansx inventory sync",
			"  declansx inventory sync --force-push",
		}, "\n"),
		Args: cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			inventoryContext, err := resolveInventoryContext(command.Context(), deps, globalFlags)
			if err != nil {
				return err
			}
			if inventoryContext.Kind != inventoryContextGit {
				return common.ValidationError("inventory sync is only available for git inventories", nil)
			}
			if !inventoryContext.HasRemote {
				return common.ValidationError("inventory sync requires inventory.git.remote configuration", nil)
			}

			syncService, err := common.RequireInventorySync(deps)
			if err != nil {
				return err
			}
			if err := syncService.Refresh(command.Context()); err != nil {
				return err
			}
			if err := syncService.Push(command.Context(), inventory.PushPolicy{Force: forcePush}); err != nil {
				return err
			}

			report, err := syncService.SyncStatus(command.Context())
			if err != nil {
				return err
			}

			format := resolveInventoryOutputFormat(globalFlags)
			return common.WriteOutput(command, format, report, func(w io.Writer, value inventory.SyncReport) error {
				return renderSyncReportText(w, value, inventoryContext)
			})
		},
	}

	command.Flags().BoolVar(&forcePush, "force-push", false, "force push local commits")
	return command
}

func newCheckCommand(deps common.CommandDependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check inventory health",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			syncService, err := common.RequireInventorySync(deps)
			if err != nil {
				return err
			}
			return syncService.Check(command.Context())
		},
	}
}

type inventoryContextKind string

const (
	inventoryContextUnknown    inventoryContextKind = "unknown"
	inventoryContextFilesystem inventoryContextKind = "filesystem"
	inventoryContextGit        inventoryContextKind = "git"
)

type inventoryContextInfo struct {
	Kind      inventoryContextKind
	HasRemote bool
	BaseDir   string
}

func resolveInventoryContext(
	ctx context.Context,
	deps common.CommandDependencies,
	globalFlags *common.GlobalFlags,
) (inventoryContextInfo, error) {
	contexts, err := common.RequireContextService(deps)
	if err != nil {
		return inventoryContextInfo{}, err
	}

	resolvedContext, err := contexts.ResolveContext(ctx, configdomain.ContextSelection{
		Name: requestedContextName(globalFlags, ctx),
	})
	if err != nil {
		return inventoryContextInfo{}, err
	}

	switch {
	case resolvedContext.Inventory.Filesystem != nil:
		return inventoryContextInfo{
			Kind:    inventoryContextFilesystem,
			BaseDir: resolvedContext.Inventory.Filesystem.BaseDir,
		}, nil
	case resolvedContext.Inventory.Git != nil:
		return inventoryContextInfo{
			Kind:      inventoryContextGit,
			HasRemote: resolvedContext.Inventory.Git.Remote != nil,
			BaseDir:   resolvedContext.Inventory.Git.Local.BaseDir,
		}, nil
	default:
		return inventoryContextInfo{Kind: inventoryContextUnknown}, nil
	}
}

func requestedContextName(globalFlags *common.GlobalFlags, ctx context.Context) string {
	if globalFlags != nil && strings.TrimSpace(globalFlags.Context) != "" {
		return strings.TrimSpace(globalFlags.Context)
	}
	return strings.TrimSpace(common.ContextName(ctx))
}

func resolveInventoryOutputFormat(globalFlags *common.GlobalFlags) string {
	if globalFlags == nil {
		return common.OutputText
	}
	switch globalFlags.Output {
	case "", common.OutputAuto:
		return common.OutputText
	default:
		return globalFlags.Output
	}
}

func renderSyncReportText(w io.Writer, value inventory.SyncReport, inventoryContext inventoryContextInfo) error {
	var err error
	switch inventoryContext.Kind {
	case inventoryContextFilesystem:
		_, err = fmt.Fprintf(
			w,
			"type=filesystem sync=not_applicable hasUncommitted=%t\n",
			value.HasUncommitted,
		)
	case inventoryContextGit:
		if !inventoryContext.HasRemote {
			_, err = fmt.Fprintf(
				w,
				"type=git state=%s remote=not_configured hasUncommitted=%t\n",
				value.State,
				value.HasUncommitted,
			)
			break
		}
		_, err = fmt.Fprintf(
			w,
			"type=git state=%s ahead=%d behind=%d hasUncommitted=%t\n",
			value.State,
			value.Ahead,
			value.Behind,
			value.HasUncommitted,
		)
	default:
		_, err = fmt.Fprintf(
			w,
			"state=%s ahead=%d behind=%d hasUncommitted=%t\n",
			value.State,
			value.Ahead,
			value.Behind,
			value.HasUncommitted,
		)
	}
	return err
}

func renderCommitRecordText(w io.Writer, record inventory.CommitRecord) error {
	if strings.TrimSpace(record.Hash) == "" {
		_, err := fmt.Fprintln(w, "committed=false reason=no_changes")
		return err
	}
	_, err := fmt.Fprintf(w, "committed=true hash=%s\n", shortCommitHash(record.Hash))
	return err
}

func renderHistoryText(w io.Writer, records []inventory.CommitRecord, oneline bool) error {
	for idx, record := range records {
		if oneline {
			if _, err := fmt.Fprintf(w, "%s %s\n", shortCommitHash(record.Hash), strings.TrimSpace(record.Message)); err != nil {
				return err
			}
			continue
		}

		if idx > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "commit %s\n", strings.TrimSpace(record.Hash)); err != nil {
			return err
		}
		if strings.TrimSpace(record.Author) != "" {
			if _, err := fmt.Fprintf(w, "Author: %s\n", strings.TrimSpace(record.Author)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "Date:   %s\n", record.When.Format(time.RFC3339)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "\n    %s\n", strings.TrimSpace(record.Message)); err != nil {
			return err
		}
	}
	return nil
}

func shortCommitHash(hash string) string {
	trimmed := strings.TrimSpace(hash)
	if len(trimmed) > 12 {
		return trimmed[:12]
	}
	return trimmed
}
