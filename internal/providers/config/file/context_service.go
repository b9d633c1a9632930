package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/fiesolecouk/declansx/config"
	"github.com/fiesolecouk/declansx/faults"
)

var _ config.ContextService = (*CatalogService)(nil)
var _ config.ContextCatalogEditor = (*CatalogService)(nil)

// CatalogService keeps the whole context catalog in one YAML file and
// rewrites it atomically on every change. Catalog files may embed manager
// credentials, so the file is pinned to mode 0600 on both read and write.
type CatalogService struct {
	catalogPath string
}

func NewCatalogService(path string) *CatalogService {
	return &CatalogService{catalogPath: path}
}

// mutateCatalog is the shared read-modify-write cycle behind every mutation:
// load and validate the current catalog, apply the change, validate and
// persist the result.
func (s *CatalogService) mutateCatalog(mutate func(catalog *config.ContextCatalog) error) error {
	catalog, err := s.loadCatalog()
	if err != nil {
		return err
	}
	if err := mutate(&catalog); err != nil {
		return err
	}
	return s.saveCatalog(catalog)
}

func (s *CatalogService) Create(_ context.Context, entry config.Context) error {
	entry = normalizeContext(entry)
	if err := validateContext(entry); err != nil {
		return err
	}

	return s.mutateCatalog(func(catalog *config.ContextCatalog) error {
		if _, exists := lookupContext(catalog.Contexts, entry.Name); exists {
			return validationError(fmt.Sprintf("context %q already exists", entry.Name), nil)
		}
		catalog.Contexts = append(catalog.Contexts, entry)
		if catalog.CurrentCtx == "" {
			catalog.CurrentCtx = entry.Name
		}
		return nil
	})
}

func (s *CatalogService) Update(_ context.Context, entry config.Context) error {
	entry = normalizeContext(entry)
	if err := validateContext(entry); err != nil {
		return err
	}

	return s.mutateCatalog(func(catalog *config.ContextCatalog) error {
		idx, exists := lookupContext(catalog.Contexts, entry.Name)
		if !exists {
			return notFoundError(fmt.Sprintf("context %q not found", entry.Name))
		}
		catalog.Contexts[idx] = entry
		return nil
	})
}

func (s *CatalogService) Delete(_ context.Context, name string) error {
	return s.mutateCatalog(func(catalog *config.ContextCatalog) error {
		idx, exists := lookupContext(catalog.Contexts, name)
		if !exists {
			return notFoundError(fmt.Sprintf("context %q not found", name))
		}
		catalog.Contexts = slices.Delete(catalog.Contexts, idx, idx+1)

		// The current pointer never dangles: repoint it at the first
		// remaining context, or clear it with the last one.
		if catalog.CurrentCtx == name {
			catalog.CurrentCtx = ""
			if len(catalog.Contexts) > 0 {
				catalog.CurrentCtx = catalog.Contexts[0].Name
			}
		}
		return nil
	})
}

func (s *CatalogService) Rename(_ context.Context, fromName string, toName string) error {
	if toName == "" {
		return validationError("new context name must not be empty", nil)
	}

	return s.mutateCatalog(func(catalog *config.ContextCatalog) error {
		idx, exists := lookupContext(catalog.Contexts, fromName)
		if !exists {
			return notFoundError(fmt.Sprintf("context %q not found", fromName))
		}
		if _, taken := lookupContext(catalog.Contexts, toName); taken {
			return validationError(fmt.Sprintf("context %q already exists", toName), nil)
		}

		catalog.Contexts[idx].Name = toName
		if catalog.CurrentCtx == fromName {
			catalog.CurrentCtx = toName
		}
		return nil
	})
}

func (s *CatalogService) List(_ context.Context) ([]config.Context, error) {
	catalog, err := s.loadCatalog()
	if err != nil {
		return nil, err
	}

	// Non-nil even when empty: an empty catalog still renders as an empty
	// listing rather than being skipped by output writers.
	contexts := make([]config.Context, len(catalog.Contexts))
	copy(contexts, catalog.Contexts)
	return contexts, nil
}

func (s *CatalogService) SetCurrent(_ context.Context, name string) error {
	return s.mutateCatalog(func(catalog *config.ContextCatalog) error {
		if _, exists := lookupContext(catalog.Contexts, name); !exists {
			return notFoundError(fmt.Sprintf("context %q not found", name))
		}
		catalog.CurrentCtx = name
		return nil
	})
}

func (s *CatalogService) GetCurrent(_ context.Context) (config.Context, error) {
	catalog, err := s.loadCatalog()
	if err != nil {
		return config.Context{}, err
	}
	if catalog.CurrentCtx == "" {
		return config.Context{}, notFoundError("no current context set")
	}

	idx, exists := lookupContext(catalog.Contexts, catalog.CurrentCtx)
	if !exists {
		return config.Context{}, notFoundError(fmt.Sprintf("current context %q not found", catalog.CurrentCtx))
	}
	return catalog.Contexts[idx], nil
}

// ResolveContext returns the fully effective context for one invocation: the
// selected (or current) catalog entry, normalized, with any key=value
// overrides applied, validated as a whole.
func (s *CatalogService) ResolveContext(_ context.Context, selection config.ContextSelection) (config.Context, error) {
	catalog, err := s.loadCatalog()
	if err != nil {
		return config.Context{}, err
	}

	name := selection.Name
	if name == "" {
		name = catalog.CurrentCtx
	}
	if name == "" {
		return config.Context{}, notFoundError("no current context set")
	}

	idx, exists := lookupContext(catalog.Contexts, name)
	if !exists {
		return config.Context{}, notFoundError(fmt.Sprintf("context %q not found", name))
	}

	resolved, err := applyOverrides(normalizeContext(catalog.Contexts[idx]), selection.Overrides)
	if err != nil {
		return config.Context{}, err
	}
	if err := validateContext(resolved); err != nil {
		return config.Context{}, err
	}
	return resolved, nil
}

func (s *CatalogService) Validate(_ context.Context, entry config.Context) error {
	return validateContext(normalizeContext(entry))
}

func (s *CatalogService) GetCatalog(_ context.Context) (config.ContextCatalog, error) {
	return s.loadCatalog()
}

func (s *CatalogService) ReplaceCatalog(_ context.Context, catalog config.ContextCatalog) error {
	return s.saveCatalog(catalog)
}

func (s *CatalogService) loadCatalog() (config.ContextCatalog, error) {
	path, err := resolveCatalogPath(s.catalogPath)
	if err != nil {
		return config.ContextCatalog{}, err
	}

	catalog, err := readCatalogFile(path)
	if err != nil {
		// A missing catalog file is an empty catalog, so first use needs
		// no init step.
		if errors.Is(err, os.ErrNotExist) {
			return config.ContextCatalog{}, nil
		}
		return config.ContextCatalog{}, err
	}

	if err := clampCatalogFileMode(path); err != nil {
		return config.ContextCatalog{}, err
	}
	if err := validateCatalog(catalog); err != nil {
		return config.ContextCatalog{}, err
	}
	return catalog, nil
}

func (s *CatalogService) saveCatalog(catalog config.ContextCatalog) error {
	if err := validateCatalog(catalog); err != nil {
		return err
	}

	path, err := resolveCatalogPath(s.catalogPath)
	if err != nil {
		return err
	}
	encoded, err := marshalCatalog(catalog)
	if err != nil {
		return internalError("cannot encode context catalog", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return internalError("cannot create config directory", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".declansx-config-*")
	if err != nil {
		return internalError("cannot stage context catalog write", err)
	}
	tmpPath := tmpFile.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(encoded); err != nil {
		_ = tmpFile.Close()
		return internalError("cannot write context catalog", err)
	}
	if err := tmpFile.Chmod(0o600); err != nil {
		_ = tmpFile.Close()
		return internalError("cannot set context catalog permissions", err)
	}
	if err := tmpFile.Close(); err != nil {
		return internalError("cannot finalize context catalog", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return internalError("cannot replace context catalog", err)
	}
	committed = true

	return clampCatalogFileMode(path)
}

// clampCatalogFileMode tightens a pre-existing catalog file to 0600; files
// this service writes are already created that way.
func clampCatalogFileMode(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return internalError("cannot inspect context catalog permissions", err)
	}
	if info.Mode().Perm() != 0o600 {
		if err := os.Chmod(path, 0o600); err != nil {
			return internalError("cannot update context catalog permissions", err)
		}
	}
	return nil
}

func lookupContext(contexts []config.Context, name string) (int, bool) {
	idx := slices.IndexFunc(contexts, func(c config.Context) bool { return c.Name == name })
	return idx, idx >= 0
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}

func notFoundError(message string) error {
	return faults.NewTypedError(faults.NotFoundError, message, nil)
}

func internalError(message string, cause error) error {
	return faults.NewTypedError(faults.InternalError, message, cause)
}
