package resource

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fiesolecouk/declansx/faults"
)

// RemoteObject is the store's current representation of one named object,
// fetched fresh per call and never cached. Raw keeps the decoded wire payload
// so comparison and diff can see every remote field.
type RemoteObject struct {
	ID          string         `yaml:"id" json:"id"`
	Path        string         `yaml:"path,omitempty" json:"path,omitempty"`
	DisplayName string         `yaml:"display-name" json:"display-name"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Revision    int64          `yaml:"revision" json:"revision"`
	Raw         map[string]any `yaml:"-" json:"-"`
}

// RemoteObjectFromPayload decodes a list/get item into a RemoteObject. The
// item must at least carry an id and a display name.
func RemoteObjectFromPayload(payload map[string]any) (RemoteObject, error) {
	id, _ := LookupScalarAttribute(payload, "id")
	displayName, _ := LookupScalarAttribute(payload, "display_name")
	if strings.TrimSpace(id) == "" && strings.TrimSpace(displayName) == "" {
		return RemoteObject{}, faults.NewTypedError(
			faults.ValidationError,
			"remote object carries neither id nor display_name",
			nil,
		)
	}
	if strings.TrimSpace(displayName) == "" {
		displayName = id
	}
	if strings.TrimSpace(id) == "" {
		id = displayName
	}

	object := RemoteObject{
		ID:          strings.TrimSpace(id),
		DisplayName: strings.TrimSpace(displayName),
		Raw:         payload,
	}
	if path, ok := LookupScalarAttribute(payload, "path"); ok {
		object.Path = strings.TrimSpace(path)
	}
	if description, ok := LookupScalarAttribute(payload, "description"); ok {
		object.Description = description
	}
	if revision, ok := LookupScalarAttribute(payload, "_revision"); ok {
		if parsed, err := strconv.ParseInt(strings.TrimSpace(revision), 10, 64); err == nil {
			object.Revision = parsed
		}
	}
	return object, nil
}

// LookupScalarAttribute walks a dotted attribute path through nested string
// maps and renders the leaf as a string when it is scalar.
func LookupScalarAttribute(payload map[string]any, attribute string) (string, bool) {
	trimmed := strings.TrimSpace(attribute)
	if trimmed == "" {
		return "", false
	}

	current := any(payload)
	for _, segment := range strings.Split(trimmed, ".") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			return "", false
		}

		mapValue, ok := current.(map[string]any)
		if !ok {
			return "", false
		}

		next, exists := mapValue[segment]
		if !exists {
			return "", false
		}
		current = next
	}

	return scalarString(current)
}

func scalarString(value any) (string, bool) {
	switch typed := value.(type) {
	case string:
		return typed, typed != ""
	case fmt.Stringer:
		text := strings.TrimSpace(typed.String())
		return text, text != ""
	case int:
		return strconv.Itoa(typed), true
	case int32:
		return strconv.FormatInt(int64(typed), 10), true
	case int64:
		return strconv.FormatInt(typed, 10), true
	case uint64:
		return strconv.FormatUint(typed, 10), true
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(typed), true
	default:
		return "", false
	}
}
