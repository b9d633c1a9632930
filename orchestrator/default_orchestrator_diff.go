package orchestrator

import (
	"context"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"

	debugctx "github.com/fiesolecouk/declansx/debugctx"
	"github.com/fiesolecouk/declansx/resource"
)

// Diff loads the stored document for kind/name and reports pointer-path
// differences against the object's current remote state. Fields that compare
// equal under set semantics produce no entries; a missing remote object
// yields one root replace entry covering the whole desired payload.
func (o *DefaultOrchestrator) Diff(ctx context.Context, kind resource.Kind, name string) ([]resource.DiffEntry, error) {
	store, err := o.requireInventory()
	if err != nil {
		return nil, err
	}

	document, err := store.Get(ctx, kind, name)
	if err != nil {
		return nil, err
	}

	collection, err := o.bindCollection(ctx, document.Kind, document.Domain)
	if err != nil {
		return nil, err
	}

	displayName := document.Spec.DisplayName()
	objectLabel := kind.String() + "/" + displayName

	object, found, err := o.effectiveReconciler().FindByName(ctx, displayName, collection)
	if err != nil {
		return nil, err
	}

	if !found {
		desiredPayload, normalizeErr := resource.Normalize(document.Spec.Payload())
		if normalizeErr != nil {
			return nil, normalizeErr
		}
		debugctx.Printf(ctx, "orchestrator diff remote miss kind=%q name=%q", kind, displayName)
		return []resource.DiffEntry{{
			Object:    objectLabel,
			Path:      "",
			Operation: "replace",
			Desired:   desiredPayload,
		}}, nil
	}

	comparison, err := resource.Compare(document.Spec, object)
	if err != nil {
		return nil, err
	}
	if comparison.Matches {
		debugctx.Printf(ctx, "orchestrator diff identical kind=%q name=%q id=%q", kind, displayName, object.ID)
		return []resource.DiffEntry{}, nil
	}

	entries := buildDiffEntries(objectLabel, comparison.Diffs)
	slices.SortFunc(entries, func(a, b resource.DiffEntry) int {
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		return strings.Compare(a.Operation, b.Operation)
	})

	debugctx.Printf(ctx, "orchestrator diff kind=%q name=%q entries=%d", kind, displayName, len(entries))
	return entries, nil
}

// buildDiffEntries expands field-level differences into JSON-pointer entries.
func buildDiffEntries(objectLabel string, diffs []resource.FieldDiff) []resource.DiffEntry {
	entries := make([]resource.DiffEntry, 0, len(diffs))
	for _, diff := range diffs {
		entries = collectDiffEntries(entries, objectLabel, "/"+escapePointerToken(diff.Field), diff.Desired, diff.Remote)
	}
	return entries
}

func collectDiffEntries(entries []resource.DiffEntry, objectLabel, pointer string, desired, remote any) []resource.DiffEntry {
	if reflect.DeepEqual(desired, remote) {
		return entries
	}

	if desiredObject, ok := desired.(map[string]any); ok {
		if remoteObject, ok := remote.(map[string]any); ok {
			return collectObjectDiff(entries, objectLabel, pointer, desiredObject, remoteObject)
		}
	}
	if desiredArray, ok := desired.([]any); ok {
		if remoteArray, ok := remote.([]any); ok {
			return collectArrayDiff(entries, objectLabel, pointer, desiredArray, remoteArray)
		}
	}

	return append(entries, resource.DiffEntry{
		Object:    objectLabel,
		Path:      pointer,
		Operation: "replace",
		Desired:   desired,
		Remote:    remote,
	})
}

func collectObjectDiff(
	entries []resource.DiffEntry,
	objectLabel string,
	pointer string,
	desired map[string]any,
	remote map[string]any,
) []resource.DiffEntry {
	keySet := make(map[string]struct{}, len(desired)+len(remote))
	for key := range desired {
		keySet[key] = struct{}{}
	}
	for key := range remote {
		keySet[key] = struct{}{}
	}

	for _, key := range slices.Sorted(maps.Keys(keySet)) {
		nextPointer := pointer + "/" + escapePointerToken(key)
		desiredValue, desiredFound := desired[key]
		remoteValue, remoteFound := remote[key]

		switch {
		case !desiredFound:
			entries = append(entries, resource.DiffEntry{
				Object:    objectLabel,
				Path:      nextPointer,
				Operation: "add",
				Remote:    remoteValue,
			})
		case !remoteFound:
			entries = append(entries, resource.DiffEntry{
				Object:    objectLabel,
				Path:      nextPointer,
				Operation: "remove",
				Desired:   desiredValue,
			})
		default:
			entries = collectDiffEntries(entries, objectLabel, nextPointer, desiredValue, remoteValue)
		}
	}
	return entries
}

func collectArrayDiff(
	entries []resource.DiffEntry,
	objectLabel string,
	pointer string,
	desired []any,
	remote []any,
) []resource.DiffEntry {
	for idx := range max(len(desired), len(remote)) {
		nextPointer := pointer + "/" + strconv.Itoa(idx)

		switch {
		case idx >= len(desired):
			entries = append(entries, resource.DiffEntry{
				Object:    objectLabel,
				Path:      nextPointer,
				Operation: "add",
				Remote:    remote[idx],
			})
		case idx >= len(remote):
			entries = append(entries, resource.DiffEntry{
				Object:    objectLabel,
				Path:      nextPointer,
				Operation: "remove",
				Desired:   desired[idx],
			})
		default:
			entries = collectDiffEntries(entries, objectLabel, nextPointer, desired[idx], remote[idx])
		}
	}
	return entries
}

// escapePointerToken applies the JSON pointer escaping rules from RFC 6901.
func escapePointerToken(value string) string {
	escaped := strings.ReplaceAll(value, "~", "~0")
	return strings.ReplaceAll(escaped, "/", "~1")
}
