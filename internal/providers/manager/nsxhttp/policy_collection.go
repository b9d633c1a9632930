package nsxhttp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	debugctx "github.com/fiesolecouk/declansx/debugctx"
	"github.com/fiesolecouk/declansx/manager"
	"github.com/fiesolecouk/declansx/resource"
	"github.com/google/uuid"
)

var _ manager.Collection = (*policyCollection)(nil)

// policyCollection binds the gateway to one collection endpoint. It is a
// plain value handle; all transport state lives on the gateway.
type policyCollection struct {
	gateway *NSXPolicyGateway
	kind    resource.Kind
	path    string
}

func (c *policyCollection) List(ctx context.Context) ([]resource.RemoteObject, error) {
	objects := make([]resource.RemoteObject, 0)
	cursor := ""
	pages := 0

	for {
		spec := requestSpec{
			method: http.MethodGet,
			path:   c.path,
			accept: defaultMediaType,
		}
		if cursor != "" {
			spec.query = map[string]string{"cursor": cursor}
		}

		body, _, err := c.gateway.execute(ctx, spec)
		if err != nil {
			return nil, err
		}

		page, nextCursor, err := decodeListPage(body)
		if err != nil {
			return nil, err
		}
		objects = append(objects, page...)
		pages++

		if nextCursor == "" || nextCursor == cursor {
			break
		}
		cursor = nextCursor
	}

	debugctx.Printf(ctx, "nsx list kind=%q path=%q objects=%d pages=%d", c.kind, c.path, len(objects), pages)
	return objects, nil
}

func (c *policyCollection) Get(ctx context.Context, id string) (resource.RemoteObject, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return resource.RemoteObject{}, validationError("object id is required", nil)
	}

	body, _, err := c.gateway.execute(ctx, requestSpec{
		method: http.MethodGet,
		path:   c.objectPath(trimmed),
		accept: defaultMediaType,
	})
	if err != nil {
		return resource.RemoteObject{}, err
	}

	payload, err := decodeObjectPayload(body)
	if err != nil {
		return resource.RemoteObject{}, err
	}
	return resource.RemoteObjectFromPayload(payload)
}

func (c *policyCollection) Create(ctx context.Context, spec resource.Spec) (resource.RemoteObject, error) {
	if spec == nil {
		return resource.RemoteObject{}, validationError("spec is required", nil)
	}

	id := policyIDForDisplayName(spec.DisplayName())
	debugctx.Printf(ctx, "nsx create kind=%q name=%q id=%q", c.kind, spec.DisplayName(), id)

	return c.putObject(ctx, id, spec.Payload())
}

func (c *policyCollection) Update(ctx context.Context, id string, spec resource.Spec, revision int64) (resource.RemoteObject, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return resource.RemoteObject{}, validationError("object id is required", nil)
	}
	if spec == nil {
		return resource.RemoteObject{}, validationError("spec is required", nil)
	}

	payload := spec.Payload()
	payload["_revision"] = revision
	debugctx.Printf(ctx, "nsx update kind=%q name=%q id=%q revision=%d", c.kind, spec.DisplayName(), trimmed, revision)

	return c.putObject(ctx, trimmed, payload)
}

func (c *policyCollection) putObject(ctx context.Context, id string, payload map[string]any) (resource.RemoteObject, error) {
	body, _, err := c.gateway.execute(ctx, requestSpec{
		method:      http.MethodPut,
		path:        c.objectPath(id),
		accept:      defaultMediaType,
		contentType: defaultMediaType,
		body:        payload,
	})
	if err != nil {
		return resource.RemoteObject{}, err
	}

	responsePayload, err := decodeObjectPayload(body)
	if err != nil {
		return resource.RemoteObject{}, err
	}
	return resource.RemoteObjectFromPayload(responsePayload)
}

func (c *policyCollection) objectPath(id string) string {
	return c.path + "/" + url.PathEscape(id)
}

var policyIDSanitizer = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// policyIDForDisplayName derives the policy id a created object is written
// under. NSX policy PUTs to a caller-chosen id; deriving it from the display
// name keeps ids readable and stable across re-creates. The store still owns
// the id echoed back in the response.
func policyIDForDisplayName(displayName string) string {
	sanitized := policyIDSanitizer.ReplaceAllString(strings.TrimSpace(displayName), "-")
	sanitized = strings.Trim(sanitized, "-_.")
	if sanitized == "" {
		return uuid.New().String()
	}
	return sanitized
}

func decodeObjectPayload(body []byte) (map[string]any, error) {
	value, err := decodeJSONResponse(body)
	if err != nil {
		return nil, err
	}

	payload, ok := value.(map[string]any)
	if !ok {
		return nil, transportError(fmt.Sprintf("remote object payload must be a JSON object, got %T", value), nil)
	}
	return payload, nil
}
