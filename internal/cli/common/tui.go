package common

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// PromptInput asks for a single line of text. With required set, blank
// answers are rejected after trimming.
func PromptInput(command *cobra.Command, prompt string, required bool) (string, error) {
	if err := requireTerminal(command); err != nil {
		return "", err
	}

	var answer string
	field := huh.NewInput().Title(promptTitle(prompt)).Value(&answer)
	if required {
		field.Validate(huh.ValidateNotEmpty())
	}
	if err := askField(command, field); err != nil {
		return "", err
	}

	answer = strings.TrimSpace(answer)
	if required && answer == "" {
		return "", ValidationError("value is required", nil)
	}
	return answer, nil
}

// PromptSecret reads a value without echoing it back to the terminal.
func PromptSecret(command *cobra.Command, prompt string) (string, error) {
	if err := requireTerminal(command); err != nil {
		return "", err
	}

	var answer string
	field := huh.NewInput().
		Title(promptTitle(prompt)).
		EchoMode(huh.EchoModePassword).
		Value(&answer)
	field.Validate(huh.ValidateNotEmpty())

	if err := askField(command, field); err != nil {
		return "", err
	}
	if answer == "" {
		return "", ValidationError("value is required", nil)
	}
	return answer, nil
}

// PromptSelect asks the user to pick one of options. The first option is
// preselected.
func PromptSelect(command *cobra.Command, prompt string, options []string) (string, error) {
	if len(options) == 0 {
		return "", ValidationError("nothing to select from", nil)
	}
	if err := requireTerminal(command); err != nil {
		return "", err
	}

	choice := options[0]
	field := huh.NewSelect[string]().
		Title(promptTitle(prompt)).
		Options(huh.NewOptions(options...)...).
		Value(&choice)

	if err := askField(command, field); err != nil {
		return "", err
	}
	return choice, nil
}

func PromptConfirm(command *cobra.Command, prompt string, defaultYes bool) (bool, error) {
	if err := requireTerminal(command); err != nil {
		return false, err
	}

	answer := defaultYes
	field := huh.NewConfirm().Title(promptTitle(prompt)).Value(&answer)
	if err := askField(command, field); err != nil {
		return false, err
	}
	return answer, nil
}

func requireTerminal(command *cobra.Command) error {
	if IsInteractiveTerminal(command) {
		return nil
	}
	return ValidationError("interactive terminal is required", nil)
}

// askField runs a single-field form on the command's streams so prompts
// honor redirected stdio in tests.
func askField(command *cobra.Command, field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).
		WithInput(command.InOrStdin()).
		WithOutput(command.OutOrStdout()).
		WithShowHelp(false)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ValidationError("interactive prompt interrupted", nil)
		}
		return err
	}
	return nil
}

func promptTitle(prompt string) string {
	label := strings.TrimSuffix(strings.TrimSpace(prompt), ":")
	if label == "" {
		return "Input"
	}
	return label
}
