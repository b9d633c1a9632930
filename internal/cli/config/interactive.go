package config

import (
	"fmt"
	"strconv"
	"strings"

	configdomain "github.com/fiesolecouk/declansx/config"
	"github.com/fiesolecouk/declansx/internal/cli/common"
	"github.com/spf13/cobra"
)

const inventoryFormatDefaultOption = "default"

func shouldUseInteractiveSetup(command *cobra.Command, input common.InputFlags, prompter contextPrompter) bool {
	if input.Payload != "" || common.HasPipedInput(command) {
		return false
	}
	return prompter.IsInteractive(command)
}

// setupWizard walks the user through a new context section by section.
// Every answer is read through the prompter so tests can script the flow.
type setupWizard struct {
	command  *cobra.Command
	prompter contextPrompter
}

func promptSetupContext(command *cobra.Command, prompter contextPrompter, contextName string) (configdomain.Context, error) {
	wizard := setupWizard{command: command, prompter: prompter}
	return wizard.run(contextName)
}

func (w setupWizard) run(contextName string) (configdomain.Context, error) {
	name, err := w.contextName(contextName)
	if err != nil {
		return configdomain.Context{}, err
	}

	documentFormat, err := w.documentFormat()
	if err != nil {
		return configdomain.Context{}, err
	}

	entry := configdomain.Context{
		Name: name,
		Inventory: configdomain.Inventory{
			Format: documentFormat,
		},
	}

	inventoryType, err := w.prompter.Select(w.command, "Select inventory type", []string{"filesystem", "git"})
	if err != nil {
		return configdomain.Context{}, err
	}
	if err := w.inventorySection(&entry, inventoryType); err != nil {
		return configdomain.Context{}, err
	}

	if entry.Manager, err = w.managerSection(); err != nil {
		return configdomain.Context{}, err
	}

	addSecretStore, err := w.prompter.Confirm(w.command, "Configure secret-store?", false)
	if err != nil {
		return configdomain.Context{}, err
	}
	if addSecretStore {
		if entry.SecretStore, err = w.secretStoreSection(); err != nil {
			return configdomain.Context{}, err
		}
	}

	addDefaults, err := w.prompter.Confirm(w.command, "Configure defaults?", false)
	if err != nil {
		return configdomain.Context{}, err
	}
	if addDefaults {
		if entry.Defaults, err = w.defaultsSection(); err != nil {
			return configdomain.Context{}, err
		}
	}

	return entry, nil
}

// contextName keeps a name given on the command line and prompts for one
// otherwise.
func (w setupWizard) contextName(preset string) (string, error) {
	if trimmed := strings.TrimSpace(preset); trimmed != "" {
		return trimmed, nil
	}
	return w.requiredInput("Context name: ", "context name")
}

func (w setupWizard) documentFormat() (string, error) {
	selection, err := w.prompter.Select(
		w.command,
		"Select inventory document format (default keeps yaml)",
		[]string{inventoryFormatDefaultOption, configdomain.DocumentFormatYAML, configdomain.DocumentFormatJSON},
	)
	if err != nil {
		return "", err
	}

	format := strings.TrimSpace(selection)
	if format == inventoryFormatDefaultOption {
		format = ""
	}
	return format, nil
}

func (w setupWizard) inventorySection(entry *configdomain.Context, inventoryType string) error {
	switch strings.TrimSpace(inventoryType) {
	case "filesystem":
		baseDir, err := w.requiredInput("Inventory base-dir: ", "inventory base-dir")
		if err != nil {
			return err
		}
		entry.Inventory.Filesystem = &configdomain.FilesystemInventory{BaseDir: baseDir}
		return nil
	case "git":
		git, err := w.gitSection()
		if err != nil {
			return err
		}
		entry.Inventory.Git = git
		return nil
	default:
		return common.ValidationError("invalid inventory type selected", nil)
	}
}

func (w setupWizard) gitSection() (*configdomain.GitInventory, error) {
	baseDir, err := w.requiredInput("Git local base-dir: ", "git local base-dir")
	if err != nil {
		return nil, err
	}
	autoInit, err := w.prompter.Confirm(w.command, "Enable git local auto-init?", true)
	if err != nil {
		return nil, err
	}

	git := &configdomain.GitInventory{
		Local: configdomain.GitLocal{BaseDir: baseDir},
	}
	if !autoInit {
		disabled := false
		git.Local.AutoInit = &disabled
	}

	addRemote, err := w.prompter.Confirm(w.command, "Configure git remote?", false)
	if err != nil {
		return nil, err
	}
	if addRemote {
		if git.Remote, err = w.gitRemote(); err != nil {
			return nil, err
		}
	}
	return git, nil
}

func (w setupWizard) gitRemote() (*configdomain.GitRemote, error) {
	url, err := w.requiredInput("Git remote URL: ", "git remote url")
	if err != nil {
		return nil, err
	}
	branch, err := w.optionalInput("Git remote branch (optional): ")
	if err != nil {
		return nil, err
	}
	autoSync, err := w.prompter.Confirm(w.command, "Enable git remote auto-sync?", false)
	if err != nil {
		return nil, err
	}

	remote := &configdomain.GitRemote{URL: url, Branch: branch, AutoSync: autoSync}

	addAuth, err := w.prompter.Confirm(w.command, "Configure git remote auth?", false)
	if err != nil {
		return nil, err
	}
	if addAuth {
		if remote.Auth, err = w.gitAuth(); err != nil {
			return nil, err
		}
	}
	return remote, nil
}

func (w setupWizard) gitAuth() (*configdomain.GitAuth, error) {
	method, err := w.prompter.Select(w.command, "Select git auth method", []string{"basic-auth", "ssh", "access-key"})
	if err != nil {
		return nil, err
	}

	switch strings.TrimSpace(method) {
	case "basic-auth":
		basicAuth, err := w.basicCredentials("Git basic-auth username: ", "git basic-auth username", "Git basic-auth password: ")
		if err != nil {
			return nil, err
		}
		return &configdomain.GitAuth{BasicAuth: basicAuth}, nil
	case "ssh":
		ssh, err := w.gitSSHAuth()
		if err != nil {
			return nil, err
		}
		return &configdomain.GitAuth{SSH: ssh}, nil
	case "access-key":
		token, err := w.prompter.Secret(w.command, "Git access-key token: ")
		if err != nil {
			return nil, err
		}
		return &configdomain.GitAuth{AccessKey: &configdomain.AccessKeyAuth{Token: token}}, nil
	default:
		return nil, common.ValidationError("invalid git auth method selected", nil)
	}
}

func (w setupWizard) gitSSHAuth() (*configdomain.SSHAuth, error) {
	user, err := w.requiredInput("Git SSH user: ", "git ssh user")
	if err != nil {
		return nil, err
	}
	privateKeyFile, err := w.requiredInput("Git SSH private-key-file: ", "git ssh private-key-file")
	if err != nil {
		return nil, err
	}

	passphrase := ""
	hasPassphrase, err := w.prompter.Confirm(w.command, "Is the SSH key passphrase protected?", false)
	if err != nil {
		return nil, err
	}
	if hasPassphrase {
		if passphrase, err = w.prompter.Secret(w.command, "Git SSH passphrase: "); err != nil {
			return nil, err
		}
	}

	knownHostsFile, err := w.optionalInput("Git SSH known-hosts-file (optional): ")
	if err != nil {
		return nil, err
	}
	insecureIgnoreHostKey, err := w.prompter.Confirm(w.command, "Git SSH insecure-ignore-host-key?", false)
	if err != nil {
		return nil, err
	}

	return &configdomain.SSHAuth{
		User:                  user,
		PrivateKeyFile:        privateKeyFile,
		Passphrase:            passphrase,
		KnownHostsFile:        knownHostsFile,
		InsecureIgnoreHostKey: insecureIgnoreHostKey,
	}, nil
}

func (w setupWizard) managerSection() (configdomain.Manager, error) {
	baseURL, err := w.requiredInput("Manager base-url: ", "manager base-url")
	if err != nil {
		return configdomain.Manager{}, err
	}

	manager := configdomain.Manager{BaseURL: baseURL}
	if manager.Auth, err = w.managerAuth(); err != nil {
		return configdomain.Manager{}, err
	}
	if manager.MinVersion, err = w.optionalInput("Minimum NSX product version (optional): "); err != nil {
		return configdomain.Manager{}, err
	}

	timeoutSeconds, hasTimeout, err := w.optionalSeconds(
		"Manager request timeout-seconds (optional): ",
		"manager timeout-seconds",
	)
	if err != nil {
		return configdomain.Manager{}, err
	}
	if hasTimeout {
		manager.TimeoutSeconds = timeoutSeconds
	}

	addHeaders, err := w.prompter.Confirm(w.command, "Configure manager default headers?", false)
	if err != nil {
		return configdomain.Manager{}, err
	}
	if addHeaders {
		if manager.DefaultHeaders, err = w.stringMap("Manager default header"); err != nil {
			return configdomain.Manager{}, err
		}
	}

	addTLS, err := w.prompter.Confirm(w.command, "Configure manager TLS?", false)
	if err != nil {
		return configdomain.Manager{}, err
	}
	if addTLS {
		if manager.TLS, err = w.tlsSection(); err != nil {
			return configdomain.Manager{}, err
		}
	}

	return manager, nil
}

func (w setupWizard) managerAuth() (*configdomain.ManagerAuth, error) {
	method, err := w.prompter.Select(
		w.command,
		"Select manager auth method",
		[]string{"session-token", "basic-auth", "bearer-token"},
	)
	if err != nil {
		return nil, err
	}

	switch strings.TrimSpace(method) {
	case "session-token":
		credentials, err := w.basicCredentials("Manager username: ", "manager username", "Manager password: ")
		if err != nil {
			return nil, err
		}
		return &configdomain.ManagerAuth{
			SessionToken: &configdomain.SessionTokenAuth{
				Username: credentials.Username,
				Password: credentials.Password,
			},
		}, nil
	case "basic-auth":
		credentials, err := w.basicCredentials("Manager username: ", "manager username", "Manager password: ")
		if err != nil {
			return nil, err
		}
		return &configdomain.ManagerAuth{BasicAuth: credentials}, nil
	case "bearer-token":
		token, err := w.prompter.Secret(w.command, "Manager bearer token: ")
		if err != nil {
			return nil, err
		}
		return &configdomain.ManagerAuth{BearerToken: &configdomain.BearerTokenAuth{Token: token}}, nil
	default:
		return nil, common.ValidationError("invalid manager auth method selected", nil)
	}
}

// basicCredentials asks for a username in the clear and a password without
// echo.
func (w setupWizard) basicCredentials(userPrompt, userField, passwordPrompt string) (*configdomain.BasicAuth, error) {
	username, err := w.requiredInput(userPrompt, userField)
	if err != nil {
		return nil, err
	}
	password, err := w.prompter.Secret(w.command, passwordPrompt)
	if err != nil {
		return nil, err
	}
	return &configdomain.BasicAuth{Username: username, Password: password}, nil
}

func (w setupWizard) secretStoreSection() (*configdomain.SecretStore, error) {
	path, err := w.requiredInput("Secret store file path: ", "secret store file path")
	if err != nil {
		return nil, err
	}

	file := &configdomain.FileSecretStore{Path: path}

	keySource, err := w.prompter.Select(
		w.command,
		"Select secret store key source",
		[]string{"passphrase", "passphrase-file", "key-file"},
	)
	if err != nil {
		return nil, err
	}

	switch strings.TrimSpace(keySource) {
	case "passphrase":
		if file.Passphrase, err = w.prompter.Secret(w.command, "Secret store passphrase: "); err != nil {
			return nil, err
		}
	case "passphrase-file":
		if file.PassphraseFile, err = w.requiredInput("Secret store passphrase-file: ", "secret store passphrase-file"); err != nil {
			return nil, err
		}
	case "key-file":
		if file.KeyFile, err = w.requiredInput("Secret store key-file: ", "secret store key-file"); err != nil {
			return nil, err
		}
	default:
		return nil, common.ValidationError("invalid secret store key source selected", nil)
	}

	return &configdomain.SecretStore{File: file}, nil
}

func (w setupWizard) defaultsSection() (configdomain.Defaults, error) {
	domain, err := w.optionalInput("Default policy domain (optional): ")
	if err != nil {
		return configdomain.Defaults{}, err
	}

	outputSelection, err := w.prompter.Select(
		w.command,
		"Select default output format",
		[]string{inventoryFormatDefaultOption, "table", "yaml", "json"},
	)
	if err != nil {
		return configdomain.Defaults{}, err
	}
	output := strings.TrimSpace(outputSelection)
	if output == inventoryFormatDefaultOption {
		output = ""
	}

	return configdomain.Defaults{
		Domain: domain,
		Output: output,
	}, nil
}

// tlsSection returns nil when every answer is left at its zero value so an
// untouched section never serializes an empty tls block.
func (w setupWizard) tlsSection() (*configdomain.TLS, error) {
	caCertFile, err := w.optionalInput("TLS ca-cert-file (optional): ")
	if err != nil {
		return nil, err
	}
	clientCertFile, err := w.optionalInput("TLS client-cert-file (optional): ")
	if err != nil {
		return nil, err
	}
	clientKeyFile, err := w.optionalInput("TLS client-key-file (optional): ")
	if err != nil {
		return nil, err
	}
	insecureSkipVerify, err := w.prompter.Confirm(w.command, "TLS insecure-skip-verify?", false)
	if err != nil {
		return nil, err
	}

	tls := configdomain.TLS{
		CACertFile:         caCertFile,
		ClientCertFile:     clientCertFile,
		ClientKeyFile:      clientKeyFile,
		InsecureSkipVerify: insecureSkipVerify,
	}
	if tls == (configdomain.TLS{}) {
		return nil, nil
	}
	return &tls, nil
}

// stringMap collects key/value pairs until the user leaves a key blank. An
// empty collection comes back as a nil map so it never serializes.
func (w setupWizard) stringMap(label string) (map[string]string, error) {
	var values map[string]string
	for {
		key, err := w.optionalInput(fmt.Sprintf("%s key (leave blank to finish): ", label))
		if err != nil {
			return nil, err
		}
		if key == "" {
			return values, nil
		}

		value, err := w.requiredInput(label+" value: ", strings.ToLower(label)+" value")
		if err != nil {
			return nil, err
		}
		if values == nil {
			values = map[string]string{}
		}
		values[key] = value
	}
}

func (w setupWizard) requiredInput(prompt, field string) (string, error) {
	value, err := w.prompter.Input(w.command, prompt, true)
	if err != nil {
		return "", err
	}
	if value = strings.TrimSpace(value); value == "" {
		return "", common.ValidationError(field+" is required", nil)
	}
	return value, nil
}

func (w setupWizard) optionalInput(prompt string) (string, error) {
	value, err := w.prompter.Input(w.command, prompt, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

func (w setupWizard) optionalSeconds(prompt, field string) (int, bool, error) {
	value, err := w.optionalInput(prompt)
	if err != nil || value == "" {
		return 0, false, err
	}

	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, common.ValidationError("invalid integer value for "+field, err)
	}
	return seconds, true, nil
}
