package reconcile

import (
	"context"

	"github.com/fiesolecouk/declansx/manager"
	"github.com/fiesolecouk/declansx/resource"
)

// Action names the terminal state of one Apply invocation.
type Action string

const (
	// ActionFound means the object already exists and matches the desired
	// spec field for field. Nothing was mutated.
	ActionFound Action = "Found"
	// ActionCreated means no object carried the desired name and one was
	// created.
	ActionCreated Action = "Created"
	// ActionUpdated means the object existed with different parameters and
	// was replaced with the desired field set.
	ActionUpdated Action = "Updated"
	// ActionConflict means the object exists with different parameters and
	// force was not set. Nothing was mutated; this is a normal outcome, not
	// an error.
	ActionConflict Action = "Conflict"
	// ActionDryRun means a create or update was required and suppressed.
	ActionDryRun Action = "DryRun"
	// ActionError means the invocation failed; Err carries the cause.
	ActionError Action = "Error"
)

func (a Action) String() string {
	return string(a)
}

// Mutated reports whether the action changed remote state.
func (a Action) Mutated() bool {
	return a == ActionCreated || a == ActionUpdated
}

// Options tune one Apply invocation. The zero value is the safe default:
// no overwrite of divergent objects, real mutations.
type Options struct {
	// Force permits updating an existing object whose parameters differ from
	// the desired spec. Without it such an object yields ActionConflict.
	Force bool
	// DryRun reports what Apply would do without issuing any mutating call.
	DryRun bool
}

// Outcome is the result of one Apply invocation. Err is non-nil exactly when
// Action is ActionError; every other action resolves the invocation normally.
type Outcome struct {
	Action      Action `yaml:"action" json:"action"`
	RemoteID    string `yaml:"remote-id,omitempty" json:"remote-id,omitempty"`
	ResourceURL string `yaml:"resource-url,omitempty" json:"resource-url,omitempty"`
	Message     string `yaml:"message,omitempty" json:"message,omitempty"`
	Err         error  `yaml:"-" json:"-"`
}

// Reconciler drives one named object toward its desired state through a
// bound collection. Implementations keep no state between calls: every Apply
// re-reads the collection, and concurrent calls for the same name race at the
// store with last-writer-wins.
type Reconciler interface {
	// Apply upserts the desired object by display name. It never panics and
	// never returns an error across this boundary; failures come back as
	// Outcome{Action: ActionError}.
	Apply(ctx context.Context, desired resource.Spec, collection manager.Collection, opts Options) Outcome
	// FindByName scans one listing for an exact, case-sensitive display-name
	// match. A missing name is (zero, false, nil), not an error.
	FindByName(ctx context.Context, name string, collection manager.Collection) (resource.RemoteObject, bool, error)
}
