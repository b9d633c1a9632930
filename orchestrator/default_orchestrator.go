package orchestrator

import (
	"context"

	"github.com/fiesolecouk/declansx/faults"
	"github.com/fiesolecouk/declansx/inventory"
	"github.com/fiesolecouk/declansx/manager"
	"github.com/fiesolecouk/declansx/reconcile"
	"github.com/fiesolecouk/declansx/resource"
)

var _ Orchestrator = (*DefaultOrchestrator)(nil)

// DefaultOrchestrator composes the manager session, the inventory store, and
// the reconciler. Fields are plain services assembled by the caller; an
// operation whose service is missing fails with a ValidationError. A nil
// Reconciler falls back to the default one.
type DefaultOrchestrator struct {
	Inventory  inventory.Store
	Session    manager.Session
	Reconciler reconcile.Reconciler
}

func (o *DefaultOrchestrator) requireInventory() (inventory.Store, error) {
	if o == nil || o.Inventory == nil {
		return nil, validationError("inventory store is not configured", nil)
	}
	return o.Inventory, nil
}

func (o *DefaultOrchestrator) requireSession() (manager.Session, error) {
	if o == nil || o.Session == nil {
		return nil, validationError("manager session is not configured", nil)
	}
	return o.Session, nil
}

func (o *DefaultOrchestrator) effectiveReconciler() reconcile.Reconciler {
	if o == nil || o.Reconciler == nil {
		return reconcile.NewDefaultReconciler()
	}
	return o.Reconciler
}

func (o *DefaultOrchestrator) bindCollection(ctx context.Context, kind resource.Kind, domain string) (manager.Collection, error) {
	session, err := o.requireSession()
	if err != nil {
		return nil, err
	}
	return session.GetCollection(ctx, kind, domain)
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}

func notFoundError(message string, cause error) error {
	return faults.NewTypedError(faults.NotFoundError, message, cause)
}
