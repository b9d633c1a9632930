package config

import (
	"github.com/fiesolecouk/declansx/internal/cli/common"
	"github.com/spf13/cobra"
)

// contextPrompter is the seam between config commands and the interactive
// terminal. Tests swap in a scripted implementation so wizard flows run
// without a tty.
type contextPrompter interface {
	IsInteractive(command *cobra.Command) bool
	Input(command *cobra.Command, prompt string, required bool) (string, error)
	Secret(command *cobra.Command, prompt string) (string, error)
	Select(command *cobra.Command, prompt string, options []string) (string, error)
	Confirm(command *cobra.Command, prompt string, defaultYes bool) (bool, error)
}

type tuiPrompter struct{}

func (tuiPrompter) IsInteractive(command *cobra.Command) bool {
	return common.IsInteractiveTerminal(command)
}

func (tuiPrompter) Input(command *cobra.Command, prompt string, required bool) (string, error) {
	return common.PromptInput(command, prompt, required)
}

func (tuiPrompter) Secret(command *cobra.Command, prompt string) (string, error) {
	return common.PromptSecret(command, prompt)
}

func (tuiPrompter) Select(command *cobra.Command, prompt string, options []string) (string, error) {
	return common.PromptSelect(command, prompt, options)
}

func (tuiPrompter) Confirm(command *cobra.Command, prompt string, defaultYes bool) (bool, error) {
	return common.PromptConfirm(command, prompt, defaultYes)
}
