package manager

import (
	"context"

	"github.com/fiesolecouk/declansx/resource"
)

// Session is an authenticated handle to one NSX manager. Sessions are plain
// values wired in by the caller; nothing in this module keeps a process-wide
// default connection.
type Session interface {
	// GetCollection binds a collection capability to one resource kind and
	// one policy domain. It fails with a not-found category error when the
	// connected manager does not serve that kind/domain pair.
	GetCollection(ctx context.Context, kind resource.Kind, domain string) (Collection, error)
	Version(ctx context.Context) (VersionInfo, error)
	CheckReachable(ctx context.Context) error
}

// Collection is the name/id-addressable CRUD surface for one resource kind
// within one domain scope. Implementations own transport policy (timeouts,
// rate limiting, pagination); callers never retry through this interface.
type Collection interface {
	List(ctx context.Context) ([]resource.RemoteObject, error)
	Get(ctx context.Context, id string) (resource.RemoteObject, error)
	Create(ctx context.Context, spec resource.Spec) (resource.RemoteObject, error)
	Update(ctx context.Context, id string, spec resource.Spec, revision int64) (resource.RemoteObject, error)
}

// VersionInfo is the manager's reported software version.
type VersionInfo struct {
	ProductVersion string `yaml:"product-version" json:"product-version"`
	NodeVersion    string `yaml:"node-version,omitempty" json:"node-version,omitempty"`
}
