package inventory

import (
	"context"

	"github.com/fiesolecouk/declansx/resource"
)

// Store persists desired-state documents, keyed by kind and display name.
type Store interface {
	Save(ctx context.Context, document resource.Document) error
	Get(ctx context.Context, kind resource.Kind, name string) (resource.Document, error)
	Delete(ctx context.Context, kind resource.Kind, name string) error
	List(ctx context.Context, policy ListPolicy) ([]resource.Document, error)
	Exists(ctx context.Context, kind resource.Kind, name string) (bool, error)
}

// Sync manages inventory lifecycle and synchronization with a remote copy.
// Stores without version control degrade: mutating sync operations fail with
// a ValidationError and SyncStatus reports SyncStateNoRemote.
type Sync interface {
	Init(ctx context.Context) error
	Commit(ctx context.Context, message string) (CommitRecord, error)
	History(ctx context.Context, policy HistoryPolicy) ([]CommitRecord, error)
	Refresh(ctx context.Context) error
	Push(ctx context.Context, policy PushPolicy) error
	SyncStatus(ctx context.Context) (SyncReport, error)
	Check(ctx context.Context) error
}
