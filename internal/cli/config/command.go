package config

import (
	"fmt"
	"io"
	"strings"

	configdomain "github.com/fiesolecouk/declansx/config"
	"github.com/fiesolecouk/declansx/internal/cli/common"
	"github.com/spf13/cobra"
)

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return buildCommand(deps, globalFlags, tuiPrompter{})
}

func buildCommand(
	deps common.CommandDependencies,
	globalFlags *common.GlobalFlags,
	prompter contextPrompter,
) *cobra.Command {
	command := &cobra.Command{
		Use:   "config",
		Short: "Manage named manager and inventory contexts",
		Args:  cobra.NoArgs,
	}

	command.AddCommand(
		newPrintTemplateCommand(),
		newSetupCommand(deps, globalFlags, prompter),
		newSetContextCommand(deps),
		newEditCommand(deps, globalFlags),
		newDeleteContextCommand(deps, prompter),
		newRenameContextCommand(deps, prompter),
		newGetContextsCommand(deps, globalFlags),
		newUseContextCommand(deps, prompter),
		newCurrentContextCommand(deps),
		newViewCommand(deps, globalFlags),
		newCheckCommand(deps, globalFlags),
	)

	return command
}

func newPrintTemplateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "print-template",
		Short: "Print an annotated context YAML template",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			_, err := command.OutOrStdout().Write([]byte(contextTemplateYAML))
			return err
		},
	}
}

func newDeleteContextCommand(deps common.CommandDependencies, prompter contextPrompter) *cobra.Command {
	command := &cobra.Command{
		Use:   "delete-context [name]",
		Short: "Delete a context, prompting for the name when omitted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			contexts, err := common.RequireContextService(deps)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				return contexts.Delete(command.Context(), args[0])
			}

			name, err := selectContextForAction(command, contexts, prompter, "delete-context")
			if err != nil {
				return err
			}
			confirmed, err := prompter.Confirm(command, fmt.Sprintf("Delete context %q?", name), false)
			if err != nil {
				return err
			}
			if !confirmed {
				return common.WriteText(command, common.OutputText, "delete canceled")
			}
			return contexts.Delete(command.Context(), name)
		},
	}
	registerContextNameCompletion(command, deps)
	return command
}

func newRenameContextCommand(deps common.CommandDependencies, prompter contextPrompter) *cobra.Command {
	command := &cobra.Command{
		Use:   "rename-context [from] [to]",
		Short: "Rename a context, prompting for missing arguments",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(command *cobra.Command, args []string) error {
			contexts, err := common.RequireContextService(deps)
			if err != nil {
				return err
			}

			from, to, err := resolveRenamePair(command, contexts, prompter, args)
			if err != nil {
				return err
			}
			return contexts.Rename(command.Context(), from, to)
		},
	}
	registerContextNameCompletion(command, deps)
	return command
}

// resolveRenamePair fills in whichever of the two rename arguments were
// omitted, prompting for them when the terminal allows it.
func resolveRenamePair(
	command *cobra.Command,
	contexts configdomain.ContextService,
	prompter contextPrompter,
	args []string,
) (string, string, error) {
	if len(args) == 2 {
		return args[0], args[1], nil
	}

	var from string
	var err error
	if len(args) == 1 {
		from = args[0]
		if !prompter.IsInteractive(command) {
			return "", "", common.ValidationError("new context name is required", nil)
		}
	} else {
		from, err = selectContextForAction(command, contexts, prompter, "rename-context")
		if err != nil {
			return "", "", err
		}
	}

	to, err := prompter.Input(command, "New context name: ", true)
	if err != nil {
		return "", "", err
	}
	return from, to, nil
}

func newGetContextsCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get-contexts",
		Short: "List contexts, marking the current one",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			contexts, err := common.RequireContextService(deps)
			if err != nil {
				return err
			}
			listed, err := contexts.List(command.Context())
			if err != nil {
				return err
			}

			var currentName string
			if current, currentErr := contexts.GetCurrent(command.Context()); currentErr == nil {
				currentName = current.Name
			}

			return common.WriteOutput(command, requestedOutput(globalFlags), listed, renderContextListing(currentName))
		},
	}
}

// renderContextListing prints one context name per line, marking the current
// one with a leading asterisk the way kubectl does.
func renderContextListing(currentName string) func(io.Writer, []configdomain.Context) error {
	return func(w io.Writer, listed []configdomain.Context) error {
		for _, c := range listed {
			marker := "  "
			if c.Name == currentName {
				marker = "* "
			}
			if _, err := fmt.Fprintln(w, marker+c.Name); err != nil {
				return err
			}
		}
		return nil
	}
}

func newUseContextCommand(deps common.CommandDependencies, prompter contextPrompter) *cobra.Command {
	command := &cobra.Command{
		Use:   "use-context [name]",
		Short: "Switch the current context, prompting when the name is omitted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			contexts, err := common.RequireContextService(deps)
			if err != nil {
				return err
			}

			if len(args) > 0 {
				return contexts.SetCurrent(command.Context(), args[0])
			}

			name, err := selectContextForAction(command, contexts, prompter, "use-context")
			if err != nil {
				return err
			}
			return contexts.SetCurrent(command.Context(), name)
		},
	}
	registerContextNameCompletion(command, deps)
	return command
}

func newCurrentContextCommand(deps common.CommandDependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "current-context",
		Short: "Print the current context name",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			contexts, err := common.RequireContextService(deps)
			if err != nil {
				return err
			}
			current, err := contexts.GetCurrent(command.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(command.OutOrStdout(), current.Name)
			return err
		},
	}
}

func newViewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var setPairs []string

	command := &cobra.Command{
		Use:   "view [name]",
		Short: "Show a resolved context with overrides applied",
		Example: strings.Join([]string{
			"  declansx config view",
			"  declansx config view prod",
			"  declansx config view --set manager.base-url=https://nsx.example.com",
		}, "\n"),
		Args: cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			contexts, err := common.RequireContextService(deps)
			if err != nil {
				return err
			}

			name, err := resolveNameArg(args, requestedContextName(globalFlags))
			if err != nil {
				return err
			}
			parsed, err := parseOverrides(setPairs)
			if err != nil {
				return err
			}

			selection := configdomain.ContextSelection{Name: name, Overrides: parsed}
			resolved, err := contexts.ResolveContext(command.Context(), selection)
			if err != nil {
				return err
			}

			return common.WriteOutput(command, common.OutputYAML, resolved, nil)
		},
	}

	command.Flags().StringArrayVarP(&setPairs, "set", "e", nil, "override a context field (key=value, repeatable)")
	registerContextNameCompletion(command, deps)
	return command
}

// resolveNameArg reconciles a positional context name with the global
// --context flag. The two may coexist only when they agree.
func resolveNameArg(args []string, flagValue string) (string, error) {
	fromFlag := strings.TrimSpace(flagValue)
	if len(args) == 0 {
		return fromFlag, nil
	}

	positionalName := strings.TrimSpace(args[0])
	if positionalName == "" {
		return fromFlag, nil
	}
	if fromFlag != "" && positionalName != fromFlag {
		return "", common.ValidationError(fmt.Sprintf(
			"context name conflict: positional %q differs from --context %q", positionalName, fromFlag), nil)
	}
	return positionalName, nil
}

func parseOverrides(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if key = strings.TrimSpace(key); !found || key == "" {
			return nil, common.ValidationError(fmt.Sprintf("invalid override %q: use key=value", pair), nil)
		}
		values[key] = value
	}
	return values, nil
}

func requestedContextName(globalFlags *common.GlobalFlags) string {
	if globalFlags != nil {
		return strings.TrimSpace(globalFlags.Context)
	}
	return ""
}

func requestedOutput(globalFlags *common.GlobalFlags) string {
	if globalFlags != nil && strings.TrimSpace(globalFlags.Output) != "" {
		return globalFlags.Output
	}
	return common.OutputAuto
}

// selectContextForAction asks the user to pick an existing context. Outside
// a terminal the command fails with a hint naming the positional form.
func selectContextForAction(
	command *cobra.Command,
	contexts configdomain.ContextService,
	prompter contextPrompter,
	actionLabel string,
) (string, error) {
	listed, err := contexts.List(command.Context())
	if err != nil {
		return "", err
	}
	if len(listed) == 0 {
		return "", common.ValidationError("no contexts available", nil)
	}
	if !prompter.IsInteractive(command) {
		return "", common.ValidationError(fmt.Sprintf("context name is required: declansx config %s <name>", actionLabel), nil)
	}

	options := make([]string, 0, len(listed))
	for _, c := range listed {
		options = append(options, c.Name)
	}
	return prompter.Select(command, "Choose context", options)
}
