package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	debugctx "github.com/fiesolecouk/declansx/debugctx"
	"github.com/fiesolecouk/declansx/resource"
)

func (o *DefaultOrchestrator) GetRemote(ctx context.Context, kind resource.Kind, domain string, name string) (resource.RemoteObject, error) {
	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" {
		return resource.RemoteObject{}, validationError("display name is required", nil)
	}

	collection, err := o.bindCollection(ctx, kind, domain)
	if err != nil {
		return resource.RemoteObject{}, err
	}

	object, found, err := o.effectiveReconciler().FindByName(ctx, trimmedName, collection)
	if err != nil {
		return resource.RemoteObject{}, err
	}
	if !found {
		return resource.RemoteObject{}, notFoundError(fmt.Sprintf("%s %q not found on the manager", kind, trimmedName), nil)
	}
	return object, nil
}

func (o *DefaultOrchestrator) ListRemote(ctx context.Context, kind resource.Kind, domain string) ([]resource.RemoteObject, error) {
	collection, err := o.bindCollection(ctx, kind, domain)
	if err != nil {
		return nil, err
	}

	objects, err := collection.List(ctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(objects, func(i int, j int) bool {
		if objects[i].DisplayName == objects[j].DisplayName {
			return objects[i].ID < objects[j].ID
		}
		return objects[i].DisplayName < objects[j].DisplayName
	})
	return objects, nil
}

// SaveRemote exports one remote object into the inventory as a desired-state
// document. Server bookkeeping fields are dropped on the way, so the saved
// document carries only the fields the spec owns.
func (o *DefaultOrchestrator) SaveRemote(ctx context.Context, kind resource.Kind, domain string, name string) (resource.Document, error) {
	store, err := o.requireInventory()
	if err != nil {
		return resource.Document{}, err
	}

	object, err := o.GetRemote(ctx, kind, domain, name)
	if err != nil {
		return resource.Document{}, err
	}

	spec, err := resource.SpecFromRemote(kind, object)
	if err != nil {
		return resource.Document{}, err
	}

	document := resource.Document{Kind: kind, Spec: spec}
	if kind.DomainScoped() {
		document.Domain = strings.TrimSpace(domain)
	}

	if err := store.Save(ctx, document); err != nil {
		return resource.Document{}, err
	}

	debugctx.Printf(ctx, "orchestrator saved remote kind=%q name=%q id=%q", kind, object.DisplayName, object.ID)
	return document, nil
}
