// Package orchestrator coordinates multi-object operations over the
// inventory and the manager: batch apply, remote reads by display name,
// drift reports, and exporting remote objects back into the inventory.
package orchestrator

import (
	"context"

	"github.com/fiesolecouk/declansx/reconcile"
	"github.com/fiesolecouk/declansx/resource"
)

// DocumentApplier reconciles desired-state documents against the manager.
type DocumentApplier interface {
	// ApplyDocument reconciles one document. Failures never escape as
	// errors; they come back inside the result's outcome so batch callers
	// see one uniform shape.
	ApplyDocument(ctx context.Context, document resource.Document, opts reconcile.Options) DocumentResult
	// ApplyAll reconciles documents sequentially in the order given and
	// never stops early: every document gets a result even when earlier
	// ones fail.
	ApplyAll(ctx context.Context, documents []resource.Document, opts reconcile.Options) BatchReport
}

// RemoteReader resolves current remote state by display name.
type RemoteReader interface {
	GetRemote(ctx context.Context, kind resource.Kind, domain string, name string) (resource.RemoteObject, error)
	ListRemote(ctx context.Context, kind resource.Kind, domain string) ([]resource.RemoteObject, error)
}

// DiffReader reports drift between one stored document and the manager.
type DiffReader interface {
	Diff(ctx context.Context, kind resource.Kind, name string) ([]resource.DiffEntry, error)
}

// RemoteExporter captures remote objects into the inventory as documents.
type RemoteExporter interface {
	SaveRemote(ctx context.Context, kind resource.Kind, domain string, name string) (resource.Document, error)
}

type Orchestrator interface {
	DocumentApplier
	RemoteReader
	DiffReader
	RemoteExporter
}
