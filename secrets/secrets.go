package secrets

import "context"

// CredentialStore persists named credentials referenced from context
// configuration. Names are opaque; values are write-once-read-many strings.
type CredentialStore interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, name string, value string) error
	Get(ctx context.Context, name string) (string, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]string, error)
}
