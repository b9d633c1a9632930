package config

import "context"

// ContextCatalogWriter mutates the persisted context catalog. Every write
// re-validates the whole catalog before touching disk, so a bad entry can
// never be saved alongside good ones.
type ContextCatalogWriter interface {
	Create(ctx context.Context, cfg Context) error
	Update(ctx context.Context, cfg Context) error
	Delete(ctx context.Context, name string) error
	Rename(ctx context.Context, fromName string, toName string) error
	SetCurrent(ctx context.Context, name string) error
}

// ContextCatalogReader reads the catalog without resolving credential
// references or applying defaults.
type ContextCatalogReader interface {
	List(ctx context.Context) ([]Context, error)
	GetCurrent(ctx context.Context) (Context, error)
}

// ContextCatalogEditor is an optional capability for commands that need to
// edit the full persisted catalog while preserving strict validation.
type ContextCatalogEditor interface {
	GetCatalog(ctx context.Context) (ContextCatalog, error)
	ReplaceCatalog(ctx context.Context, catalog ContextCatalog) error
}

// ContextResolver selects one context and returns it ready for use: defaults
// filled in, selection overrides applied. An empty selection name resolves
// the catalog's current context.
type ContextResolver interface {
	ResolveContext(ctx context.Context, selection ContextSelection) (Context, error)
}

// ContextValidator checks a single context against the same rules the
// catalog writers enforce, without persisting anything.
type ContextValidator interface {
	Validate(ctx context.Context, cfg Context) error
}

// ContextService is the full catalog surface the CLI wires in. Providers
// may additionally implement ContextCatalogEditor.
type ContextService interface {
	ContextCatalogWriter
	ContextCatalogReader
	ContextResolver
	ContextValidator
}
