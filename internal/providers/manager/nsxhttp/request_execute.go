package nsxhttp

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// requestSpec describes a single Policy API call before it is turned into an
// *http.Request. Paths are relative to manager.base-url.
type requestSpec struct {
	method      string
	path        string
	accept      string
	contentType string
	query       map[string]string
	headers     map[string]string
	body        any
}

func (g *NSXPolicyGateway) execute(ctx context.Context, spec requestSpec) ([]byte, http.Header, error) {
	request, err := g.newRequest(ctx, spec)
	if err != nil {
		return nil, nil, err
	}

	response, err := g.doRequest(ctx, "policy", request)
	if err != nil {
		return nil, nil, transportError("manager request failed", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return nil, nil, transportError("failed to read manager response body", err)
	}

	if response.StatusCode >= http.StatusBadRequest {
		return nil, nil, classifyStatusError(response.StatusCode, body)
	}

	return body, response.Header.Clone(), nil
}

func (g *NSXPolicyGateway) newRequest(ctx context.Context, spec requestSpec) (*http.Request, error) {
	targetURL, err := g.resolveRequestURL(spec.path, spec.query)
	if err != nil {
		return nil, err
	}

	requestBody, err := encodeRequestBody(spec.contentType, spec.body)
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if len(requestBody) > 0 {
		bodyReader = bytes.NewReader(requestBody)
	}

	request, err := http.NewRequestWithContext(ctx, spec.method, targetURL, bodyReader)
	if err != nil {
		return nil, internalError("failed to create manager request", err)
	}

	if strings.TrimSpace(spec.accept) != "" {
		request.Header.Set("Accept", spec.accept)
	}
	if len(requestBody) > 0 && strings.TrimSpace(spec.contentType) != "" {
		request.Header.Set("Content-Type", spec.contentType)
	}

	if len(g.defaultHeaders) > 0 {
		keys := make([]string, 0, len(g.defaultHeaders))
		for key := range g.defaultHeaders {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			request.Header.Set(key, g.defaultHeaders[key])
		}
	}

	if len(spec.headers) > 0 {
		keys := make([]string, 0, len(spec.headers))
		for key := range spec.headers {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			request.Header.Set(key, spec.headers[key])
		}
	}

	if strings.TrimSpace(g.userAgent) != "" {
		request.Header.Set("User-Agent", g.userAgent)
	}
	request.Header.Set("X-Request-Id", uuid.New().String())

	if err := g.applyAuth(ctx, request); err != nil {
		return nil, err
	}

	return request, nil
}

func (g *NSXPolicyGateway) resolveRequestURL(requestPath string, query map[string]string) (string, error) {
	if parsed, err := url.Parse(requestPath); err == nil && parsed.Scheme != "" {
		return "", validationError("request path must be relative to manager.base-url", nil)
	}

	target := *g.baseURL
	target.Path = joinBaseAndRequestPath(g.baseURL.Path, requestPath)

	values := target.Query()
	if len(query) > 0 {
		keys := make([]string, 0, len(query))
		for key := range query {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			values.Set(key, query[key])
		}
	}
	target.RawQuery = values.Encode()

	return target.String(), nil
}
