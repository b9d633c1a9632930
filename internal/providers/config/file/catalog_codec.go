package file

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fiesolecouk/declansx/config"
	"github.com/fiesolecouk/declansx/yamlutil"
	"go.yaml.in/yaml/v3"
)

func readCatalogFile(path string) (config.ContextCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return config.ContextCatalog{}, err
	}
	return parseCatalog(raw)
}

// parseCatalog refuses unknown fields so a typo in a hand-edited catalog
// surfaces instead of silently dropping the setting.
func parseCatalog(raw []byte) (config.ContextCatalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var catalog config.ContextCatalog
	if err := dec.Decode(&catalog); err != nil {
		return config.ContextCatalog{}, validationError("malformed context catalog yaml", err)
	}
	return catalog, nil
}

func marshalCatalog(catalog config.ContextCatalog) ([]byte, error) {
	return yamlutil.Marshal(catalog)
}

// resolveCatalogPath picks the catalog location from the explicit setting,
// the environment, or the built-in default, expanding ~ against the user's
// home directory. Relative paths are anchored there as well.
func resolveCatalogPath(explicitPath string) (string, error) {
	located := firstNonEmpty(explicitPath, os.Getenv(config.ConfigFileEnvVar), config.DefaultContextCatalogPath)

	home, err := os.UserHomeDir()
	if err != nil {
		return "", internalError("cannot resolve user home directory", err)
	}
	located = expandHome(located, home)
	if located == "" {
		return "", validationError("empty context catalog path", nil)
	}

	cleaned := filepath.Clean(located)
	switch {
	case cleaned == ".":
		return "", validationError("invalid context catalog path", errors.New("resolved to current directory"))
	case !filepath.IsAbs(cleaned):
		return filepath.Join(home, cleaned), nil
	default:
		return cleaned, nil
	}
}

func expandHome(value, home string) string {
	if value == "~" {
		return home
	}
	if rest, ok := strings.CutPrefix(value, "~/"); ok {
		return filepath.Join(home, rest)
	}
	return value
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

func unknownOverrideError(key string) error {
	return validationError(fmt.Sprintf("unknown override key %q", key), nil)
}
