package file

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/fiesolecouk/declansx/config"
)

func validateCatalog(catalog config.ContextCatalog) error {
	if len(catalog.Contexts) == 0 {
		if catalog.CurrentCtx != "" {
			return validationError("current-ctx must be empty when no contexts are defined", nil)
		}
		return nil
	}

	names := make(map[string]struct{}, len(catalog.Contexts))
	for _, entry := range catalog.Contexts {
		if entry.Name == "" {
			return validationError("context name is required", nil)
		}
		if _, exists := names[entry.Name]; exists {
			return validationError(fmt.Sprintf("duplicate context name %q", entry.Name), nil)
		}
		names[entry.Name] = struct{}{}

		if err := validateContext(entry); err != nil {
			return err
		}
	}

	return validateCurrentPointer(catalog.CurrentCtx, names)
}

func validateCurrentPointer(currentCtx string, names map[string]struct{}) error {
	if currentCtx == "" {
		return validationError("current-ctx is required when contexts are defined", nil)
	}
	if _, exists := names[currentCtx]; !exists {
		return validationError(fmt.Sprintf("current-ctx %q does not match any context", currentCtx), nil)
	}
	return nil
}

func validateContext(entry config.Context) error {
	entry = normalizeContext(entry)

	if entry.Name == "" {
		return validationError("context name is required", nil)
	}
	if err := validateManager(entry.Manager); err != nil {
		return err
	}
	if err := validateInventory(entry.Inventory); err != nil {
		return err
	}
	if err := validateSecretStore(entry.SecretStore); err != nil {
		return err
	}
	return validateDefaults(entry.Defaults)
}

func normalizeContext(entry config.Context) config.Context {
	if entry.Inventory.Format == "" {
		entry.Inventory.Format = config.DocumentFormatYAML
	}
	return entry
}

func validateManager(manager config.Manager) error {
	if manager.BaseURL == "" {
		return validationError("manager.base-url is required", nil)
	}
	if err := validateManagerAuth(manager.Auth); err != nil {
		return err
	}

	if manager.RateLimit < 0 {
		return validationError("manager.rate-limit must not be negative", nil)
	}
	if manager.TimeoutSeconds < 0 {
		return validationError("manager.timeout-seconds must not be negative", nil)
	}

	if manager.MinVersion != "" {
		if _, err := semver.NewVersion(manager.MinVersion); err != nil {
			return validationError(fmt.Sprintf("manager.min-version %q is not a valid version", manager.MinVersion), err)
		}
	}
	return nil
}

func validateManagerAuth(auth *config.ManagerAuth) error {
	if auth == nil {
		return validationError("manager.auth is required", nil)
	}
	if !exactlyOne(auth.BasicAuth != nil, auth.BearerToken != nil, auth.SessionToken != nil) {
		return validationError("manager.auth must define exactly one of basic-auth, bearer-token, session-token", nil)
	}

	switch {
	case auth.BasicAuth != nil:
		if auth.BasicAuth.Username == "" || auth.BasicAuth.Password == "" {
			return validationError("manager.auth.basic-auth requires username and password", nil)
		}
	case auth.BearerToken != nil:
		if auth.BearerToken.Token == "" {
			return validationError("manager.auth.bearer-token.token is required", nil)
		}
	case auth.SessionToken != nil:
		if auth.SessionToken.Username == "" || auth.SessionToken.Password == "" {
			return validationError("manager.auth.session-token requires username and password", nil)
		}
	}
	return nil
}

func validateInventory(inventory config.Inventory) error {
	switch inventory.Format {
	case "", config.DocumentFormatYAML, config.DocumentFormatJSON:
	default:
		return validationError("inventory.format must be yaml or json", nil)
	}

	if inventory.Git == nil && inventory.Filesystem == nil {
		return nil
	}
	if !exactlyOne(inventory.Git != nil, inventory.Filesystem != nil) {
		return validationError("inventory must define exactly one of git or filesystem", nil)
	}

	if inventory.Filesystem != nil {
		if inventory.Filesystem.BaseDir == "" {
			return validationError("inventory.filesystem.base-dir is required", nil)
		}
		return nil
	}
	return validateGitInventory(inventory.Git)
}

func validateGitInventory(git *config.GitInventory) error {
	if git.Local.BaseDir == "" {
		return validationError("inventory.git.local.base-dir is required", nil)
	}

	remote := git.Remote
	if remote == nil {
		return nil
	}
	if remote.URL == "" {
		return validationError("inventory.git.remote.url is required", nil)
	}

	auth := remote.Auth
	if auth == nil {
		return nil
	}
	if !exactlyOne(auth.BasicAuth != nil, auth.SSH != nil, auth.AccessKey != nil) {
		return validationError("inventory.git.remote.auth must define exactly one of basic-auth, ssh, access-key", nil)
	}
	if auth.SSH != nil && auth.SSH.PrivateKeyFile == "" {
		return validationError("inventory.git.remote.auth.ssh.private-key-file is required", nil)
	}
	return nil
}

func validateSecretStore(store *config.SecretStore) error {
	if store == nil {
		return nil
	}
	if store.File == nil {
		return validationError("secret-store must define file", nil)
	}

	file := store.File
	if file.Path == "" {
		return validationError("secret-store.file.path is required", nil)
	}
	if !exactlyOne(file.Key != "", file.KeyFile != "", file.Passphrase != "", file.PassphraseFile != "") {
		return validationError("secret-store.file must define exactly one of key, key-file, passphrase, passphrase-file", nil)
	}

	if kdf := file.KDF; kdf != nil {
		if kdf.Time < 0 || kdf.Memory < 0 || kdf.Threads < 0 {
			return validationError("secret-store.file.kdf values must not be negative", nil)
		}
	}
	return nil
}

func validateDefaults(defaults config.Defaults) error {
	switch strings.ToLower(defaults.Output) {
	case "", "table", config.DocumentFormatYAML, config.DocumentFormatJSON:
		return nil
	default:
		return validationError("defaults.output must be table, yaml or json", nil)
	}
}

// applyOverrides walks keys in sorted order so conflicting overrides resolve
// deterministically.
func applyOverrides(entry config.Context, overrides map[string]string) (config.Context, error) {
	for _, key := range slices.Sorted(maps.Keys(overrides)) {
		if err := applyOverride(&entry, key, overrides[key]); err != nil {
			return config.Context{}, err
		}
	}
	return entry, nil
}

func applyOverride(entry *config.Context, key, value string) error {
	switch key {
	case "manager.base-url":
		entry.Manager.BaseURL = value
	case "manager.min-version":
		entry.Manager.MinVersion = value
	case "inventory.format":
		entry.Inventory.Format = value
	case "inventory.git.local.base-dir":
		if entry.Inventory.Git == nil {
			return validationError("override inventory.git.local.base-dir requires inventory.git to be configured", nil)
		}
		entry.Inventory.Git.Local.BaseDir = value
	case "inventory.filesystem.base-dir":
		if entry.Inventory.Filesystem == nil {
			return validationError("override inventory.filesystem.base-dir requires inventory.filesystem to be configured", nil)
		}
		entry.Inventory.Filesystem.BaseDir = value
	case "defaults.domain":
		entry.Defaults.Domain = value
	case "defaults.output":
		entry.Defaults.Output = value
	default:
		return unknownOverrideError(key)
	}
	return nil
}

func exactlyOne(conditions ...bool) bool {
	n := 0
	for _, on := range conditions {
		if on {
			n++
		}
	}
	return n == 1
}
