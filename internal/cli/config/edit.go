package config

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	configdomain "github.com/fiesolecouk/declansx/config"
	"github.com/fiesolecouk/declansx/faults"
	"github.com/fiesolecouk/declansx/internal/cli/common"
	"github.com/fiesolecouk/declansx/yamlutil"
	"github.com/spf13/cobra"
)

func newEditCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var editor string

	command := &cobra.Command{
		Use:   "edit [name]",
		Short: "Open the context catalog, or a single context, in your editor",
		Long: "Edit the full contexts catalog by default. " +
			"With a context name (or the global --context flag) only that context object is opened. " +
			"The edited document is validated before it replaces the stored catalog.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			return runCatalogEdit(command, deps, globalFlags, editor, args)
		},
	}

	common.BindEditorFlag(command, &editor)
	registerContextNameCompletion(command, deps)
	return command
}

// runCatalogEdit opens either the whole catalog or one context in the user's
// editor and replaces the catalog with the validated result.
func runCatalogEdit(
	command *cobra.Command, deps common.CommandDependencies,
	globalFlags *common.GlobalFlags, editor string, args []string,
) error {
	contexts, err := common.RequireContextService(deps)
	if err != nil {
		return err
	}

	catalogEditor, ok := contexts.(configdomain.ContextCatalogEditor)
	if !ok {
		return common.ValidationError("config edit requires a file-backed context catalog editor service", nil)
	}

	targetName, err := resolveNameArg(args, requestedContextName(globalFlags))
	if err != nil {
		return err
	}

	catalog, err := catalogEditor.GetCatalog(command.Context())
	if err != nil {
		return err
	}

	resolvedEditor := common.ResolveEditorCommand(command.Context(), deps, editor)
	if strings.TrimSpace(targetName) == "" {
		return editFullCatalog(command, catalogEditor, resolvedEditor, catalog)
	}
	return editContextEntry(command, catalogEditor, resolvedEditor, catalog, targetName)
}

// editYAMLDocument round-trips value through the user's editor and hands
// back the edited bytes. Blank results are rejected so an aborted edit
// cannot wipe the document.
func editYAMLDocument(command *cobra.Command, editor, filename string, value any, label string) ([]byte, error) {
	encoded, err := yamlutil.Marshal(value)
	if err != nil {
		return nil, common.ValidationError("failed to encode "+label+" for editing", err)
	}

	edited, err := common.EditTempFile(command, editor, filename, encoded)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(edited)) == 0 {
		return nil, common.ValidationError(label+" edit is empty", nil)
	}
	return edited, nil
}

func editFullCatalog(
	command *cobra.Command, catalogEditor configdomain.ContextCatalogEditor,
	editor string, catalog configdomain.ContextCatalog,
) error {
	edited, err := editYAMLDocument(command, editor, "contexts.yaml", catalog, "context catalog")
	if err != nil {
		return err
	}

	parsed, err := decodeStrict[configdomain.ContextCatalog](edited, common.OutputYAML)
	if err != nil {
		return err
	}
	return catalogEditor.ReplaceCatalog(command.Context(), parsed)
}

func editContextEntry(
	command *cobra.Command, catalogEditor configdomain.ContextCatalogEditor,
	editor string, catalog configdomain.ContextCatalog, name string,
) error {
	pos := slices.IndexFunc(catalog.Contexts, func(c configdomain.Context) bool {
		return c.Name == name
	})
	if pos < 0 {
		return faults.NewTypedError(faults.NotFoundError,
			fmt.Sprintf("context %q not found", name), nil)
	}

	edited, err := editYAMLDocument(command, editor, name+".yaml", catalog.Contexts[pos], "context")
	if err != nil {
		return err
	}
	parsed, err := decodeStrict[configdomain.Context](edited, common.OutputYAML)
	if err != nil {
		return err
	}

	// Renaming the current context through the editor moves the current
	// pointer with it.
	previous := catalog.Contexts[pos]
	catalog.Contexts[pos] = parsed
	if renamed := parsed.Name; renamed != "" && catalog.CurrentCtx == previous.Name {
		catalog.CurrentCtx = renamed
	}
	return catalogEditor.ReplaceCatalog(command.Context(), catalog)
}
