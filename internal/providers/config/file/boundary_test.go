package file

import (
	"go/parser"
	"go/token"
	"os"
	"strings"
	"testing"
)

// The file-backed context catalog stands alone: it must not depend on the
// inventory, manager, or secret providers.
func TestConfigFileProviderDoesNotImportSiblingProviders(t *testing.T) {
	t.Parallel()

	const providersPrefix = "github.com/fiesolecouk/declansx/internal/providers/"

	entries, err := os.ReadDir(".")
	if err != nil {
		t.Fatalf("read package directory: %v", err)
	}

	fileSet := token.NewFileSet()
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}

		parsed, err := parser.ParseFile(fileSet, name, nil, parser.ImportsOnly)
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		for _, spec := range parsed.Imports {
			importPath := strings.Trim(spec.Path.Value, `"`)
			if strings.HasPrefix(importPath, providersPrefix) {
				t.Errorf("%s imports sibling provider package %q", name, importPath)
			}
		}
	}
}
