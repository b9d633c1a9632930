package common

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	configdomain "github.com/fiesolecouk/declansx/config"
	"github.com/spf13/cobra"
)

// EditorEnvVar overrides the editor for declansx only, leaving EDITOR/VISUAL
// for other tools.
const EditorEnvVar = "DECLANSX_EDITOR"

const fallbackEditor = "vi"

func BindEditorFlag(command *cobra.Command, editor *string) {
	command.Flags().StringVar(editor, "editor", "", "editor command override (default: DECLANSX_EDITOR, catalog default-editor, VISUAL, EDITOR, vi)")
}

// ResolveEditorCommand picks the editor command line. Precedence: the
// --editor flag, DECLANSX_EDITOR, the catalog's default-editor, VISUAL,
// EDITOR, then vi.
func ResolveEditorCommand(ctx context.Context, deps CommandDependencies, explicit string) string {
	if value := strings.TrimSpace(explicit); value != "" {
		return value
	}
	if value := strings.TrimSpace(os.Getenv(EditorEnvVar)); value != "" {
		return value
	}

	if contexts, err := RequireContextService(deps); err == nil {
		if editorService, ok := contexts.(configdomain.ContextCatalogEditor); ok {
			if catalog, catalogErr := editorService.GetCatalog(ctx); catalogErr == nil {
				if value := strings.TrimSpace(catalog.DefaultEditor); value != "" {
					return value
				}
			}
		}
	}

	for _, envVar := range []string{"VISUAL", "EDITOR"} {
		if value := strings.TrimSpace(os.Getenv(envVar)); value != "" {
			return value
		}
	}
	return fallbackEditor
}

// EditTempFile round-trips content through the user's editor: seed a temp
// file, launch the editor on it, read the result back. The temp file keeps
// the suggested filename's extension so editors pick the right mode, and is
// removed on every path out.
func EditTempFile(command *cobra.Command, editorCommand string, filename string, initial []byte) ([]byte, error) {
	if !IsInteractiveTerminal(command) {
		return nil, ValidationError("interactive editor requires a terminal", nil)
	}

	pattern := "declansx-edit-*"
	if ext := filepath.Ext(strings.TrimSpace(filename)); ext != "" {
		pattern += ext
	}
	tmpFile, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(initial); err != nil {
		_ = tmpFile.Close()
		return nil, err
	}
	if err := tmpFile.Close(); err != nil {
		return nil, err
	}

	if err := launchEditor(command, editorCommand, tmpPath); err != nil {
		return nil, err
	}
	return os.ReadFile(tmpPath)
}

func launchEditor(command *cobra.Command, editorCommand string, filePath string) error {
	parts := strings.Fields(strings.TrimSpace(editorCommand))
	if len(parts) == 0 {
		parts = []string{fallbackEditor}
	}

	editor := exec.CommandContext(command.Context(), parts[0], append(parts[1:], filePath)...)
	editor.Stdin = command.InOrStdin()
	editor.Stdout = command.OutOrStdout()
	editor.Stderr = command.ErrOrStderr()
	return editor.Run()
}
