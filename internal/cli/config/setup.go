package config

import (
	"fmt"
	"strings"

	configdomain "github.com/fiesolecouk/declansx/config"
	"github.com/fiesolecouk/declansx/internal/cli/common"
	"github.com/spf13/cobra"
)

// importSelection is the outcome of narrowing decoded setup input down to
// the contexts that will actually be created.
type importSelection struct {
	Contexts   []configdomain.Context
	CurrentCtx string
}

func newSetupCommand(
	deps common.CommandDependencies,
	globalFlags *common.GlobalFlags,
	prompter contextPrompter,
) *cobra.Command {
	var input common.InputFlags
	var contextName string
	var setCurrent bool

	command := &cobra.Command{
		Use:   "setup [new-context-name]",
		Short: "Add contexts from input or create one interactively",
		Example: strings.Join([]string{
			"  declansx config setup --file context.yaml",
			"  declansx config setup --file contexts.yaml --context-name prod",
			"  cat contexts.yaml | declansx config setup --set-current",
			"  declansx config setup dev",
		}, "\n"),
		Args: cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			contexts, err := common.RequireContextService(deps)
			if err != nil {
				return err
			}
			name, err := importTargetName(args, requestedContextName(globalFlags), contextName)
			if err != nil {
				return err
			}

			if shouldUseInteractiveSetup(command, input, prompter) {
				return runSetupInteractive(command, contexts, prompter, name, setCurrent)
			}
			return runSetupImport(command, contexts, input, name, setCurrent)
		},
	}

	command.Flags().StringVarP(&input.Payload, "file", "f", "", "context file path (use '-' to read from stdin)")
	command.Flags().StringVarP(&input.Format, "format", "i", common.OutputYAML, "input format: json|yaml")
	command.Flags().StringVar(&contextName, "context-name", "", "context name to import (catalog) or assign (single context)")
	command.Flags().BoolVar(&setCurrent, "set-current", false, "set imported context as current")
	common.RegisterInputFormatFlagCompletion(command)
	return command
}

// importTargetName folds the positional argument, the global --context flag,
// and --context-name into one name. Sources that disagree are an error.
func importTargetName(args []string, contextFlagName, contextNameFlag string) (string, error) {
	name, err := resolveNameArg(args, contextFlagName)
	if err != nil {
		return "", err
	}

	importName := strings.TrimSpace(contextNameFlag)
	switch {
	case importName == "":
		return name, nil
	case name != "" && name != importName:
		return "", common.ValidationError(
			fmt.Sprintf("context name conflict: positional/--context %q differs from --context-name %q", name, importName),
			nil,
		)
	default:
		return importName, nil
	}
}

func runSetupInteractive(
	command *cobra.Command,
	contexts configdomain.ContextService,
	prompter contextPrompter,
	name string,
	setCurrent bool,
) error {
	cfg, err := promptSetupContext(command, prompter, name)
	if err != nil {
		return err
	}
	if err := contexts.Create(command.Context(), cfg); err != nil {
		return err
	}
	if !setCurrent {
		return nil
	}
	return contexts.SetCurrent(command.Context(), cfg.Name)
}

func runSetupImport(
	command *cobra.Command,
	contexts configdomain.ContextService,
	input common.InputFlags,
	name string,
	setCurrent bool,
) error {
	decoded, err := decodeContextImportInputStrict(command, input)
	if err != nil {
		return err
	}
	selection, err := selectImportedContexts(decoded, name)
	if err != nil {
		return err
	}

	currentName := ""
	if setCurrent {
		if currentName, err = importCurrentContext(selection); err != nil {
			return err
		}
	}

	if err := checkImportTargets(command, contexts, selection.Contexts); err != nil {
		return err
	}
	for _, cfg := range selection.Contexts {
		if err := contexts.Create(command.Context(), cfg); err != nil {
			return err
		}
	}

	if !setCurrent {
		return nil
	}
	return contexts.SetCurrent(command.Context(), currentName)
}

func selectImportedContexts(input contextImportInput, contextName string) (importSelection, error) {
	name := strings.TrimSpace(contextName)
	switch input.Kind {
	case contextImportInputContext:
		return singleContextImport(input.Context, name), nil
	case contextImportInputCatalog:
		return catalogContextImport(input.Catalog, name)
	default:
		return importSelection{}, common.ValidationError("unsupported config input shape", nil)
	}
}

func singleContextImport(cfg configdomain.Context, name string) importSelection {
	if name != "" {
		cfg.Name = name
	}
	return importSelection{Contexts: []configdomain.Context{cfg}}
}

// catalogContextImport narrows a full catalog to the named context, or takes
// every context (plus the catalog's current pointer) when no name is given.
func catalogContextImport(catalog configdomain.ContextCatalog, name string) (importSelection, error) {
	if len(catalog.Contexts) == 0 {
		return importSelection{}, common.ValidationError("input context catalog has no contexts", nil)
	}

	if name == "" {
		contexts := make([]configdomain.Context, len(catalog.Contexts))
		copy(contexts, catalog.Contexts)
		return importSelection{
			Contexts:   contexts,
			CurrentCtx: strings.TrimSpace(catalog.CurrentCtx),
		}, nil
	}

	for _, item := range catalog.Contexts {
		if item.Name == name {
			return importSelection{Contexts: []configdomain.Context{item}}, nil
		}
	}
	return importSelection{}, common.ValidationError(
		fmt.Sprintf("context %q not found in input catalog", name),
		nil,
	)
}

// importCurrentContext decides which imported context --set-current points
// at. Ambiguity is rejected rather than guessed through.
func importCurrentContext(selection importSelection) (string, error) {
	if len(selection.Contexts) == 1 {
		return selection.Contexts[0].Name, nil
	}
	if selection.CurrentCtx == "" {
		return "", common.ValidationError(
			"set-current requires a single imported context or a catalog current-ctx value",
			nil,
		)
	}

	for _, item := range selection.Contexts {
		if item.Name == selection.CurrentCtx {
			return selection.CurrentCtx, nil
		}
	}
	return "", common.ValidationError(
		fmt.Sprintf("input current-ctx %q is not present in imported contexts", selection.CurrentCtx),
		nil,
	)
}

// checkImportTargets rejects the whole import before the first create so a
// failing batch never lands half of its contexts.
func checkImportTargets(command *cobra.Command, contexts configdomain.ContextService, items []configdomain.Context) error {
	if len(items) == 0 {
		return common.ValidationError("no contexts found in input", nil)
	}

	existing, err := contexts.List(command.Context())
	if err != nil {
		return err
	}
	existingNames := make(map[string]struct{}, len(existing))
	for _, item := range existing {
		existingNames[item.Name] = struct{}{}
	}

	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return common.ValidationError("context name is required", nil)
		}
		if _, duplicated := seen[name]; duplicated {
			return common.ValidationError(fmt.Sprintf("input contains duplicate context %q", name), nil)
		}
		if _, exists := existingNames[name]; exists {
			return common.ValidationError(fmt.Sprintf("context %q already exists", name), nil)
		}
		seen[name] = struct{}{}
	}
	return nil
}
