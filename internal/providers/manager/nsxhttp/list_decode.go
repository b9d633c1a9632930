package nsxhttp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fiesolecouk/declansx/resource"
)

// decodeListPage decodes one page of an NSX list response. The Policy API
// wraps pages in {"results": [...], "result_count": N, "cursor": "..."}; bare
// arrays and an "items" key are accepted as fallbacks for older endpoints.
func decodeListPage(body []byte) ([]resource.RemoteObject, string, error) {
	payload, err := decodeJSONResponse(body)
	if err != nil {
		return nil, "", err
	}

	items, cursor, err := extractListItems(payload)
	if err != nil {
		return nil, "", err
	}

	objects := make([]resource.RemoteObject, 0, len(items))
	for _, item := range items {
		itemMap, ok := item.(map[string]any)
		if !ok {
			return nil, "", transportError("list payload entries must be JSON objects", nil)
		}

		object, err := resource.RemoteObjectFromPayload(itemMap)
		if err != nil {
			return nil, "", err
		}
		objects = append(objects, object)
	}

	return objects, cursor, nil
}

func extractListItems(payload any) ([]any, string, error) {
	switch typed := payload.(type) {
	case nil:
		return nil, "", nil
	case []any:
		return typed, "", nil
	case map[string]any:
		cursor := listCursor(typed)

		if results, ok := typed["results"]; ok {
			values, valuesOK := results.([]any)
			if !valuesOK {
				return nil, "", transportError("list response \"results\" must be an array", nil)
			}
			return values, cursor, nil
		}

		if items, ok := typed["items"]; ok {
			values, valuesOK := items.([]any)
			if !valuesOK {
				return nil, "", transportError("list response \"items\" must be an array", nil)
			}
			return values, cursor, nil
		}

		arrayFieldKeys := make([]string, 0, len(typed))
		for key, field := range typed {
			if _, fieldIsArray := field.([]any); fieldIsArray {
				arrayFieldKeys = append(arrayFieldKeys, key)
			}
		}
		sort.Strings(arrayFieldKeys)

		if len(arrayFieldKeys) == 1 {
			values, _ := typed[arrayFieldKeys[0]].([]any)
			return values, cursor, nil
		}

		if len(arrayFieldKeys) > 1 {
			return nil, "", transportError(
				fmt.Sprintf(
					"list response object is ambiguous: expected a \"results\" array or a single array field, found array fields [%s]",
					strings.Join(arrayFieldKeys, ", "),
				),
				nil,
			)
		}

		return nil, "", transportError("list response object must include a \"results\" array", nil)
	default:
		return nil, "", transportError("list response must be an array or an object with a \"results\" array", nil)
	}
}

func listCursor(envelope map[string]any) string {
	raw, ok := envelope["cursor"]
	if !ok {
		return ""
	}
	cursor, ok := raw.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(cursor)
}
