package secrets

import (
	"context"
	"fmt"
	"strings"

	"github.com/fiesolecouk/declansx/faults"
)

// ReferencePrefix marks a configuration value as an indirection into the
// context's credential store: "secret:<name>".
const ReferencePrefix = "secret:"

func IsReference(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), ReferencePrefix)
}

// ReferenceName extracts the credential name from a secret reference. The
// second return is false for plain values and for references with an empty
// name.
func ReferenceName(value string) (string, bool) {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, ReferencePrefix) {
		return "", false
	}
	name := strings.TrimSpace(strings.TrimPrefix(trimmed, ReferencePrefix))
	return name, name != ""
}

// ResolveValue resolves one configuration field. Plain values pass through
// unchanged; secret references are looked up in the store. A reference with
// no usable name or no configured store is a validation failure, a missing
// credential surfaces the store's NotFoundError.
func ResolveValue(ctx context.Context, store CredentialStore, value string) (string, error) {
	if !IsReference(value) {
		return value, nil
	}

	name, ok := ReferenceName(value)
	if !ok {
		return "", validationError("secret reference carries an empty name", nil)
	}
	if store == nil {
		return "", validationError(fmt.Sprintf("secret reference %q requires a configured secret store", strings.TrimSpace(value)), nil)
	}

	resolved, err := store.Get(ctx, name)
	if err != nil {
		return "", err
	}
	return resolved, nil
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}
