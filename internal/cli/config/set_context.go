package config

import (
	"fmt"
	"strings"

	configdomain "github.com/fiesolecouk/declansx/config"
	"github.com/fiesolecouk/declansx/internal/cli/common"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	managerAuthModeSession = "session"
	managerAuthModeBasic   = "basic"
)

type setContextFlags struct {
	managerURL           string
	minVersion           string
	authMode             string
	username             string
	password             string
	bearerToken          string
	inventoryDir         string
	gitDir               string
	gitURL               string
	gitBranch            string
	format               string
	domain               string
	output               string
	secretFile           string
	secretPassphraseFile string
	setCurrent           bool
}

func newSetContextCommand(deps common.CommandDependencies) *cobra.Command {
	var flags setContextFlags

	command := &cobra.Command{
		Use:   "set-context [name]",
		Short: "Create or update a context from flags",
		Example: strings.Join([]string{
			"  declansx config set-context lab --manager-url https://nsx.lab.example.com --username admin --password secret",
			"  declansx config set-context lab --inventory-dir ~/nsx/lab --set-current",
			"  declansx config set-context prod --git-dir ~/nsx/prod --git-url https://git.example.com/nsx/prod.git",
		}, "\n"),
		Args: cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			contexts, err := common.RequireContextService(deps)
			if err != nil {
				return err
			}

			name := ""
			if len(args) > 0 {
				name = strings.TrimSpace(args[0])
			}
			if name == "" {
				return common.ValidationError("context name is required", nil)
			}

			cfg, exists, err := findContextByName(command, contexts, name)
			if err != nil {
				return err
			}
			if !exists {
				cfg = configdomain.Context{Name: name}
			}

			if err := applyContextFlags(&cfg, flags, command.Flags()); err != nil {
				return err
			}

			if exists {
				err = contexts.Update(command.Context(), cfg)
			} else {
				err = contexts.Create(command.Context(), cfg)
			}
			if err != nil {
				return err
			}

			if flags.setCurrent {
				return contexts.SetCurrent(command.Context(), name)
			}
			return nil
		},
	}

	command.Flags().StringVar(&flags.managerURL, "manager-url", "", "NSX manager base URL")
	command.Flags().StringVar(&flags.minVersion, "min-version", "", "minimum NSX product version required by config check")
	command.Flags().StringVar(&flags.authMode, "auth-mode", "", "manager credential auth mode: session|basic")
	command.Flags().StringVar(&flags.username, "username", "", "manager username")
	command.Flags().StringVar(&flags.password, "password", "", "manager password (accepts secret:<name> references)")
	command.Flags().StringVar(&flags.bearerToken, "bearer-token", "", "manager bearer token (replaces credential auth)")
	command.Flags().StringVar(&flags.inventoryDir, "inventory-dir", "", "filesystem inventory base directory (replaces a git inventory)")
	command.Flags().StringVar(&flags.gitDir, "git-dir", "", "git inventory local base directory")
	command.Flags().StringVar(&flags.gitURL, "git-url", "", "git inventory remote URL")
	command.Flags().StringVar(&flags.gitBranch, "git-branch", "", "git inventory remote branch")
	command.Flags().StringVar(&flags.format, "format", "", "inventory document format: yaml|json")
	command.Flags().StringVar(&flags.domain, "domain", "", "default policy domain for domain-scoped commands")
	command.Flags().StringVar(&flags.output, "output", "", "default output format: table|yaml|json")
	command.Flags().StringVar(&flags.secretFile, "secret-file", "", "file secret store path")
	command.Flags().StringVar(&flags.secretPassphraseFile, "secret-passphrase-file", "", "file secret store passphrase file")
	command.Flags().BoolVar(&flags.setCurrent, "set-current", false, "set this context as current after saving")
	registerContextNameCompletion(command, deps)
	return command
}

func findContextByName(
	command *cobra.Command,
	contexts configdomain.ContextService,
	name string,
) (configdomain.Context, bool, error) {
	items, err := contexts.List(command.Context())
	if err != nil {
		return configdomain.Context{}, false, err
	}
	for _, item := range items {
		if item.Name == name {
			return item, true, nil
		}
	}
	return configdomain.Context{}, false, nil
}

func applyContextFlags(cfg *configdomain.Context, flags setContextFlags, flagSet *pflag.FlagSet) error {
	if flagSet.Changed("manager-url") {
		cfg.Manager.BaseURL = strings.TrimSpace(flags.managerURL)
	}
	if flagSet.Changed("min-version") {
		cfg.Manager.MinVersion = strings.TrimSpace(flags.minVersion)
	}

	if err := applyManagerAuthFlags(cfg, flags, flagSet); err != nil {
		return err
	}
	if err := applyInventoryFlags(cfg, flags, flagSet); err != nil {
		return err
	}

	if flagSet.Changed("secret-file") || flagSet.Changed("secret-passphrase-file") {
		store := cfg.SecretStore
		if store == nil || store.File == nil {
			store = &configdomain.SecretStore{File: &configdomain.FileSecretStore{}}
		}
		if flagSet.Changed("secret-file") {
			store.File.Path = strings.TrimSpace(flags.secretFile)
		}
		if flagSet.Changed("secret-passphrase-file") {
			store.File.PassphraseFile = strings.TrimSpace(flags.secretPassphraseFile)
		}
		cfg.SecretStore = store
	}

	if flagSet.Changed("domain") {
		cfg.Defaults.Domain = strings.TrimSpace(flags.domain)
	}
	if flagSet.Changed("output") {
		cfg.Defaults.Output = strings.TrimSpace(flags.output)
	}

	return nil
}

func applyManagerAuthFlags(cfg *configdomain.Context, flags setContextFlags, flagSet *pflag.FlagSet) error {
	bearerChanged := flagSet.Changed("bearer-token")
	credentialChanged := flagSet.Changed("username") || flagSet.Changed("password")
	modeChanged := flagSet.Changed("auth-mode")

	if !bearerChanged && !credentialChanged && !modeChanged {
		return nil
	}

	if bearerChanged {
		if credentialChanged || modeChanged {
			return common.ValidationError("flag --bearer-token conflicts with --username, --password and --auth-mode", nil)
		}
		cfg.Manager.Auth = &configdomain.ManagerAuth{
			BearerToken: &configdomain.BearerTokenAuth{Token: strings.TrimSpace(flags.bearerToken)},
		}
		return nil
	}

	username, password := existingManagerCredentials(cfg.Manager.Auth)
	if flagSet.Changed("username") {
		username = strings.TrimSpace(flags.username)
	}
	if flagSet.Changed("password") {
		password = flags.password
	}
	if username == "" {
		return common.ValidationError("flag --username is required to configure manager credentials", nil)
	}

	mode := existingManagerAuthMode(cfg.Manager.Auth)
	if modeChanged {
		mode = strings.TrimSpace(flags.authMode)
	}

	switch mode {
	case "", managerAuthModeSession:
		cfg.Manager.Auth = &configdomain.ManagerAuth{
			SessionToken: &configdomain.SessionTokenAuth{Username: username, Password: password},
		}
	case managerAuthModeBasic:
		cfg.Manager.Auth = &configdomain.ManagerAuth{
			BasicAuth: &configdomain.BasicAuth{Username: username, Password: password},
		}
	default:
		return common.ValidationError(fmt.Sprintf("invalid auth mode %q: use session or basic", mode), nil)
	}
	return nil
}

func existingManagerCredentials(auth *configdomain.ManagerAuth) (string, string) {
	switch {
	case auth == nil:
		return "", ""
	case auth.SessionToken != nil:
		return auth.SessionToken.Username, auth.SessionToken.Password
	case auth.BasicAuth != nil:
		return auth.BasicAuth.Username, auth.BasicAuth.Password
	default:
		return "", ""
	}
}

func existingManagerAuthMode(auth *configdomain.ManagerAuth) string {
	switch {
	case auth == nil:
		return ""
	case auth.BasicAuth != nil:
		return managerAuthModeBasic
	case auth.SessionToken != nil:
		return managerAuthModeSession
	default:
		return ""
	}
}

func applyInventoryFlags(cfg *configdomain.Context, flags setContextFlags, flagSet *pflag.FlagSet) error {
	fsChanged := flagSet.Changed("inventory-dir")
	gitChanged := flagSet.Changed("git-dir") || flagSet.Changed("git-url") || flagSet.Changed("git-branch")

	if fsChanged && gitChanged {
		return common.ValidationError("flag --inventory-dir conflicts with the git inventory flags", nil)
	}

	if fsChanged {
		cfg.Inventory.Filesystem = &configdomain.FilesystemInventory{BaseDir: strings.TrimSpace(flags.inventoryDir)}
		cfg.Inventory.Git = nil
	}

	if gitChanged {
		git := cfg.Inventory.Git
		if git == nil {
			git = &configdomain.GitInventory{}
		}
		if flagSet.Changed("git-dir") {
			git.Local.BaseDir = strings.TrimSpace(flags.gitDir)
		}
		if flagSet.Changed("git-url") || flagSet.Changed("git-branch") {
			if git.Remote == nil {
				git.Remote = &configdomain.GitRemote{}
			}
			if flagSet.Changed("git-url") {
				git.Remote.URL = strings.TrimSpace(flags.gitURL)
			}
			if flagSet.Changed("git-branch") {
				git.Remote.Branch = strings.TrimSpace(flags.gitBranch)
			}
		}
		cfg.Inventory.Git = git
		cfg.Inventory.Filesystem = nil
	}

	if flagSet.Changed("format") {
		cfg.Inventory.Format = strings.TrimSpace(flags.format)
	}

	return nil
}
