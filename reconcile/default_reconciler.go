package reconcile

import (
	"context"
	"fmt"
	"sort"
	"strings"

	debugctx "github.com/fiesolecouk/declansx/debugctx"
	"github.com/fiesolecouk/declansx/faults"
	"github.com/fiesolecouk/declansx/manager"
	"github.com/fiesolecouk/declansx/resource"
	"github.com/google/uuid"
)

// DuplicatePolicy decides what a name lookup does when several remote objects
// share one display name. NSX does not enforce display-name uniqueness.
type DuplicatePolicy string

const (
	// DuplicateFirstMatch takes the first match in listing order.
	DuplicateFirstMatch DuplicatePolicy = "first-match"
	// DuplicateStrict fails the lookup with a ConflictError-category
	// ambiguity error when more than one object carries the name.
	DuplicateStrict DuplicatePolicy = "strict"
)

var _ Reconciler = (*DefaultReconciler)(nil)

// DefaultReconciler is the stateless Reconciler implementation. It holds only
// configuration, so a single value is safe for concurrent use.
type DefaultReconciler struct {
	duplicatePolicy DuplicatePolicy
}

type ReconcilerOption func(*DefaultReconciler)

func WithDuplicatePolicy(policy DuplicatePolicy) ReconcilerOption {
	return func(r *DefaultReconciler) {
		if r == nil {
			return
		}
		r.duplicatePolicy = policy
	}
}

func NewDefaultReconciler(opts ...ReconcilerOption) *DefaultReconciler {
	reconciler := &DefaultReconciler{
		duplicatePolicy: DuplicateFirstMatch,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(reconciler)
		}
	}
	return reconciler
}

func (r *DefaultReconciler) Apply(ctx context.Context, desired resource.Spec, collection manager.Collection, opts Options) Outcome {
	if desired == nil {
		return errorOutcome(validationError("desired spec is required", nil))
	}

	name := desired.DisplayName()
	if strings.TrimSpace(name) == "" {
		return errorOutcome(validationError("desired spec carries an empty display name", nil))
	}
	if err := desired.Validate(); err != nil {
		return errorOutcome(err)
	}
	if collection == nil {
		return errorOutcome(validationError("collection is not configured", nil))
	}

	existing, found, err := r.findByName(ctx, name, collection)
	if err != nil {
		debugctx.Printf(ctx, "reconcile apply list failed kind=%q name=%q error=%v", desired.Kind(), name, err)
		return errorOutcome(err)
	}

	if !found {
		return r.applyCreate(ctx, desired, collection, opts, name)
	}
	return r.applyExisting(ctx, desired, collection, opts, name, existing)
}

func (r *DefaultReconciler) applyCreate(ctx context.Context, desired resource.Spec, collection manager.Collection, opts Options, name string) Outcome {
	if opts.DryRun {
		placeholder := dryRunPlaceholderID()
		debugctx.Printf(ctx, "reconcile apply dry-run create kind=%q name=%q placeholder=%q", desired.Kind(), name, placeholder)
		return Outcome{
			Action:   ActionDryRun,
			RemoteID: placeholder,
			Message:  fmt.Sprintf("would create %q", name),
		}
	}

	created, err := collection.Create(ctx, desired)
	if err != nil {
		debugctx.Printf(ctx, "reconcile apply create failed kind=%q name=%q error=%v", desired.Kind(), name, err)
		return errorOutcome(err)
	}

	debugctx.Printf(ctx, "reconcile apply created kind=%q name=%q id=%q", desired.Kind(), name, created.ID)
	return Outcome{
		Action:      ActionCreated,
		RemoteID:    created.ID,
		ResourceURL: created.Path,
		Message:     fmt.Sprintf("created %q", name),
	}
}

func (r *DefaultReconciler) applyExisting(ctx context.Context, desired resource.Spec, collection manager.Collection, opts Options, name string, existing resource.RemoteObject) Outcome {
	comparison, err := resource.Compare(desired, existing)
	if err != nil {
		return errorOutcome(err)
	}

	if comparison.Matches {
		debugctx.Printf(ctx, "reconcile apply identical kind=%q name=%q id=%q", desired.Kind(), name, existing.ID)
		return Outcome{
			Action:      ActionFound,
			RemoteID:    existing.ID,
			ResourceURL: existing.Path,
			Message:     fmt.Sprintf("%q already exists, identical", name),
		}
	}

	if !opts.Force {
		debugctx.Printf(ctx, "reconcile apply conflict kind=%q name=%q id=%q fields=%q", desired.Kind(), name, existing.ID, differingFields(comparison))
		return Outcome{
			Action:      ActionConflict,
			RemoteID:    existing.ID,
			ResourceURL: existing.Path,
			Message:     fmt.Sprintf("%q exists with different parameters: %s", name, differingFields(comparison)),
		}
	}

	if opts.DryRun {
		debugctx.Printf(ctx, "reconcile apply dry-run update kind=%q name=%q id=%q", desired.Kind(), name, existing.ID)
		return Outcome{
			Action:      ActionDryRun,
			RemoteID:    existing.ID,
			ResourceURL: existing.Path,
			Message:     fmt.Sprintf("would update %q", name),
		}
	}

	updated, err := collection.Update(ctx, existing.ID, desired, existing.Revision)
	if err != nil {
		debugctx.Printf(ctx, "reconcile apply update failed kind=%q name=%q id=%q error=%v", desired.Kind(), name, existing.ID, err)
		return errorOutcome(err)
	}

	debugctx.Printf(ctx, "reconcile apply updated kind=%q name=%q id=%q", desired.Kind(), name, updated.ID)
	return Outcome{
		Action:      ActionUpdated,
		RemoteID:    updated.ID,
		ResourceURL: updated.Path,
		Message:     fmt.Sprintf("updated %q", name),
	}
}

func (r *DefaultReconciler) FindByName(ctx context.Context, name string, collection manager.Collection) (resource.RemoteObject, bool, error) {
	if strings.TrimSpace(name) == "" {
		return resource.RemoteObject{}, false, validationError("display name is required", nil)
	}
	if collection == nil {
		return resource.RemoteObject{}, false, validationError("collection is not configured", nil)
	}
	return r.findByName(ctx, name, collection)
}

func (r *DefaultReconciler) findByName(ctx context.Context, name string, collection manager.Collection) (resource.RemoteObject, bool, error) {
	objects, err := collection.List(ctx)
	if err != nil {
		return resource.RemoteObject{}, false, err
	}

	var match resource.RemoteObject
	found := false
	for _, object := range objects {
		if object.DisplayName != name {
			continue
		}
		if !found {
			match = object
			found = true
			if r.effectiveDuplicatePolicy() == DuplicateFirstMatch {
				break
			}
			continue
		}
		return resource.RemoteObject{}, false, conflictError(
			fmt.Sprintf("display name %q is ambiguous: multiple objects carry it (first two ids %q, %q)", name, match.ID, object.ID),
			nil,
		)
	}

	if !found {
		debugctx.Printf(ctx, "reconcile lookup miss name=%q listed=%d", name, len(objects))
		return resource.RemoteObject{}, false, nil
	}

	debugctx.Printf(ctx, "reconcile lookup hit name=%q id=%q", name, match.ID)
	return match, true, nil
}

func (r *DefaultReconciler) effectiveDuplicatePolicy() DuplicatePolicy {
	if r == nil || r.duplicatePolicy == "" {
		return DuplicateFirstMatch
	}
	return r.duplicatePolicy
}

// dryRunPlaceholderID builds a synthetic id for objects a dry run would
// create. The prefix keeps it from ever colliding with a store-assigned id.
func dryRunPlaceholderID() string {
	return "dry-run-" + uuid.New().String()
}

func differingFields(comparison resource.ComparisonResult) string {
	fields := make([]string, 0, len(comparison.Diffs))
	seen := map[string]bool{}
	for _, diff := range comparison.Diffs {
		if seen[diff.Field] {
			continue
		}
		seen[diff.Field] = true
		fields = append(fields, diff.Field)
	}
	sort.Strings(fields)
	return strings.Join(fields, ", ")
}

func errorOutcome(err error) Outcome {
	return Outcome{
		Action:  ActionError,
		Message: err.Error(),
		Err:     err,
	}
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}

func conflictError(message string, cause error) error {
	return faults.NewTypedError(faults.ConflictError, message, cause)
}
