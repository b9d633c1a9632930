// Package apply implements the batch apply command: every spec document in
// the inventory, or the documents of one file or directory, reconciled
// sequentially against the manager.
package apply

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	debugctx "github.com/fiesolecouk/declansx/debugctx"
	"github.com/fiesolecouk/declansx/faults"
	"github.com/fiesolecouk/declansx/internal/cli/common"
	"github.com/fiesolecouk/declansx/inventory"
	"github.com/fiesolecouk/declansx/orchestrator"
	"github.com/fiesolecouk/declansx/reconcile"
	"github.com/fiesolecouk/declansx/resource"
	"github.com/spf13/cobra"
)

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var filePath string
	var all bool
	var force bool
	var dryRun bool

	command := &cobra.Command{
		Use:   "apply",
		Short: "Apply a batch of spec documents",
		Long: strings.Join([]string{
			"Apply reconciles spec documents against the manager in input order.",
			"Use --file to apply one file or every document file under a directory,",
			"or --all to apply the whole inventory. Documents that fail do not stop",
			"the batch; the report carries one outcome per document and the exit",
			"code reflects the worst one.",
		}, " "),
		Example: strings.Join([]string{
			"  declansx apply --all",
			"  declansx apply -f specs/",
			"  declansx apply -f group.yaml --dry-run",
			"  cat specs.yaml | declansx apply -f - --force",
		}, "\n"),
		Args: cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			orchestratorService, err := common.RequireOrchestrator(deps)
			if err != nil {
				return err
			}

			documents, err := resolveBatchDocuments(command, deps, filePath, all)
			if err != nil {
				return err
			}

			outputFormat := common.ResolveContextOutputFormat(command.Context(), deps, globalFlags)
			if len(documents) == 0 {
				return common.WriteText(command, outputFormat, "inventory holds no spec documents")
			}

			debugctx.Printf(command.Context(), "batch apply starting documents=%d force=%t dry-run=%t",
				len(documents), force, dryRun)

			report := orchestratorService.ApplyAll(command.Context(), documents, reconcile.Options{
				Force:  force,
				DryRun: dryRun,
			})
			if err := common.WriteOutput(command, outputFormat, report, renderBatchReportText); err != nil {
				return err
			}
			return batchReportError(report)
		},
	}

	command.Flags().StringVarP(&filePath, "file", "f", "", "spec file or directory (use '-' to read from stdin)")
	command.Flags().BoolVar(&all, "all", false, "apply every spec document in the inventory")
	command.Flags().BoolVar(&force, "force", false, "overwrite existing objects whose parameters differ")
	command.Flags().BoolVar(&dryRun, "dry-run", false, "report actions without mutating the manager")
	return command
}

func resolveBatchDocuments(
	command *cobra.Command,
	deps common.CommandDependencies,
	filePath string,
	all bool,
) ([]resource.Document, error) {
	trimmedPath := strings.TrimSpace(filePath)
	switch {
	case all && trimmedPath != "":
		return nil, common.ValidationError("flags --all and --file are mutually exclusive", nil)
	case !all && trimmedPath == "":
		return nil, common.ValidationError("one of --all or --file is required", nil)
	}

	if all {
		store, err := common.RequireInventory(deps)
		if err != nil {
			return nil, err
		}
		documents, err := store.List(command.Context(), inventory.ListPolicy{})
		if err != nil {
			return nil, err
		}
		debugctx.Printf(command.Context(), "batch apply loaded %d inventory documents", len(documents))
		return documents, nil
	}

	documents, err := loadDocumentsFromPath(command, trimmedPath)
	if err != nil {
		return nil, err
	}
	debugctx.Printf(command.Context(), "batch apply loaded %d documents from %q", len(documents), trimmedPath)
	return documents, nil
}

func loadDocumentsFromPath(command *cobra.Command, path string) ([]resource.Document, error) {
	if path == "-" {
		data, err := common.ReadInput(command, common.InputFlags{Payload: "-"})
		if err != nil {
			return nil, err
		}
		return resource.ParseDocuments(data)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, faults.NewTypedError(faults.NotFoundError, fmt.Sprintf("spec path %q does not exist", path), nil)
		}
		return nil, faults.NewTypedError(faults.InternalError, fmt.Sprintf("failed to inspect spec path %q", path), err)
	}

	if !info.IsDir() {
		return loadDocumentFile(path)
	}

	files, err := listDocumentFiles(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, common.ValidationError(fmt.Sprintf("directory %q holds no spec document files", path), nil)
	}

	documents := make([]resource.Document, 0, len(files))
	for _, file := range files {
		parsed, err := loadDocumentFile(file)
		if err != nil {
			return nil, err
		}
		documents = append(documents, parsed...)
	}
	return documents, nil
}

func loadDocumentFile(path string) ([]resource.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, faults.NewTypedError(faults.InternalError, fmt.Sprintf("failed to read spec file %q", path), err)
	}
	documents, err := resource.ParseDocuments(data)
	if err != nil {
		return nil, faults.NewTypedError(faults.ValidationError, fmt.Sprintf("spec file %q is invalid", path), err)
	}
	return documents, nil
}

// listDocumentFiles returns every document file under dir, walked depth-first
// with dot and underscore entries skipped, in lexical path order.
func listDocumentFiles(dir string) ([]string, error) {
	files := make([]string, 0, 16)
	walkErr := filepath.WalkDir(dir, func(current string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		name := entry.Name()
		if entry.IsDir() {
			if current == dir {
				return nil
			}
			if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}

		switch strings.ToLower(filepath.Ext(name)) {
		case ".yaml", ".yml", ".json":
			files = append(files, current)
		}
		return nil
	})
	if walkErr != nil {
		return nil, faults.NewTypedError(faults.InternalError, fmt.Sprintf("failed to walk spec directory %q", dir), walkErr)
	}

	sort.Strings(files)
	return files, nil
}

func renderBatchReportText(w io.Writer, report orchestrator.BatchReport) error {
	for _, result := range report.Results {
		line := fmt.Sprintf("%s/%s: %s", result.Kind, result.Name, result.Outcome.Action)
		if message := strings.TrimSpace(result.Outcome.Message); message != "" {
			line += fmt.Sprintf(" (%s)", message)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(w, formatBatchSummaryLine(report.Summary))
	return err
}

func formatBatchSummaryLine(summary orchestrator.BatchSummary) string {
	parts := []string{fmt.Sprintf("total=%d", summary.Total)}
	for _, bucket := range []struct {
		label string
		count int
	}{
		{"found", summary.Found},
		{"created", summary.Created},
		{"updated", summary.Updated},
		{"conflicts", summary.Conflicts},
		{"dry-runs", summary.DryRuns},
		{"errors", summary.Errors},
	} {
		if bucket.count > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", bucket.label, bucket.count))
		}
	}
	return strings.Join(parts, " ")
}

// batchReportError maps a finished batch to the error the process exit code
// derives from. Errors outrank conflicts; a clean batch returns nil.
func batchReportError(report orchestrator.BatchReport) error {
	if err := report.FirstError(); err != nil {
		return err
	}
	if report.Summary.Conflicts > 0 {
		return faults.NewTypedError(
			faults.ConflictError,
			fmt.Sprintf("%d of %d objects exist with different parameters; use --force to overwrite", report.Summary.Conflicts, report.Summary.Total),
			nil,
		)
	}
	return nil
}
