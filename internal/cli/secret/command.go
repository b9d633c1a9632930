// Package secret implements the credential store commands. Stored values are
// referenced from context configuration as "secret:<name>".
package secret

import (
	"fmt"
	"io"
	"strings"

	"github.com/fiesolecouk/declansx/internal/cli/common"
	"github.com/spf13/cobra"
)

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	command := &cobra.Command{
		Use:   "secret",
		Short: "Manage stored credentials",
		Args:  cobra.NoArgs,
	}

	command.AddCommand(
		newInitCommand(deps),
		newSetCommand(deps),
		newUnsetCommand(deps),
		newListCommand(deps, globalFlags),
		newCheckCommand(deps, globalFlags),
	)

	return command
}

func newInitCommand(deps common.CommandDependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the secret store",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			credentialStore, err := common.RequireSecrets(deps)
			if err != nil {
				return err
			}
			return credentialStore.Init(command.Context())
		},
	}
}

func newSetCommand(deps common.CommandDependencies) *cobra.Command {
	command := &cobra.Command{
		Use:   "set <name> [value]",
		Short: "Store a credential",
		Long: strings.Join([]string{
			"Set stores one named credential. The value comes from the second",
			"argument, from piped stdin, or from a hidden interactive prompt when",
			"neither is given. Reference it from context configuration as",
			"\"secret:<name>\".",
		}, " "),
		Example: strings.Join([]string{
			"  declansx secret set nsx-password",
			"  declansx secret set nsx-password 'S3cret!'",
			"  printf '%s' \"$NSX_PASSWORD\" | declansx secret set nsx-password",
		}, "\n"),
		Args: cobra.RangeArgs(1, 2),
		RunE: func(command *cobra.Command, args []string) error {
			credentialStore, err := common.RequireSecrets(deps)
			if err != nil {
				return err
			}

			name := strings.TrimSpace(args[0])
			if name == "" {
				return common.ValidationError("credential name must not be empty", nil)
			}

			value, err := resolveSetValue(command, args)
			if err != nil {
				return err
			}

			return credentialStore.Store(command.Context(), name, value)
		},
	}

	return command
}

// resolveSetValue prefers the positional value, then piped stdin with the
// trailing newline stripped, then a hidden prompt.
func resolveSetValue(command *cobra.Command, args []string) (string, error) {
	switch {
	case len(args) > 1:
		return args[1], nil
	case common.HasPipedInput(command):
		data, err := common.ReadInput(command, common.InputFlags{})
		if err != nil {
			return "", err
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	default:
		value, err := common.PromptSecret(command, "Credential value")
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(value) == "" {
			return "", common.ValidationError("credential value must not be empty", nil)
		}
		return value, nil
	}
}

func newUnsetCommand(deps common.CommandDependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "unset <name>",
		Short: "Delete a credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			credentialStore, err := common.RequireSecrets(deps)
			if err != nil {
				return err
			}
			return credentialStore.Delete(command.Context(), args[0])
		},
	}
}

func newListCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List credential names",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			credentialStore, err := common.RequireSecrets(deps)
			if err != nil {
				return err
			}

			outputFormat := common.ResolveContextOutputFormat(command.Context(), deps, globalFlags)

			names, err := credentialStore.List(command.Context())
			if err != nil {
				return err
			}

			return common.WriteOutput(command, outputFormat, names, renderNameList)
		},
	}
}

func renderNameList(w io.Writer, values []string) error {
	for _, name := range values {
		if _, err := fmt.Fprintln(w, name); err != nil {
			return err
		}
	}
	return nil
}

// newCheckCommand verifies the store opens and decrypts with the configured
// key material. Listing exercises the full read path.
func newCheckCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check secret store health",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			credentialStore, err := common.RequireSecrets(deps)
			if err != nil {
				return err
			}

			names, err := credentialStore.List(command.Context())
			if err != nil {
				return err
			}

			outputFormat := common.ResolveContextOutputFormat(command.Context(), deps, globalFlags)
			return common.WriteText(command, outputFormat, fmt.Sprintf("secret store ok credentials=%d", len(names)))
		},
	}
}
