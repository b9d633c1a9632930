package nsxhttp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/fiesolecouk/declansx/config"
	debugctx "github.com/fiesolecouk/declansx/debugctx"
	"github.com/fiesolecouk/declansx/faults"
	"github.com/fiesolecouk/declansx/resource"
)

func mustGateway(t *testing.T, cfg config.Manager, opts ...GatewayOption) *NSXPolicyGateway {
	t.Helper()

	gateway, err := NewNSXPolicyGateway(cfg, opts...)
	if err != nil {
		t.Fatalf("NewNSXPolicyGateway returned error: %v", err)
	}
	return gateway
}

func bearerManagerConfig(baseURL string) config.Manager {
	return config.Manager{
		BaseURL: baseURL,
		Auth: &config.ManagerAuth{
			BearerToken: &config.BearerTokenAuth{Token: "token"},
		},
	}
}

func assertTypedCategory(t *testing.T, err error, category faults.ErrorCategory) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %q error, got nil", category)
	}

	var typedErr *faults.TypedError
	if !errors.As(err, &typedErr) {
		t.Fatalf("expected typed error, got %T: %v", err, err)
	}
	if typedErr.Category != category {
		t.Fatalf("expected %q error, got %q: %v", category, typedErr.Category, err)
	}
}

func TestNewNSXPolicyGatewayValidation(t *testing.T) {
	t.Parallel()

	t.Run("missing_base_url", func(t *testing.T) {
		t.Parallel()

		_, err := NewNSXPolicyGateway(config.Manager{
			Auth: &config.ManagerAuth{
				BearerToken: &config.BearerTokenAuth{Token: "token"},
			},
		})
		assertTypedCategory(t, err, faults.ValidationError)
	})

	t.Run("base_url_must_use_http_scheme", func(t *testing.T) {
		t.Parallel()

		_, err := NewNSXPolicyGateway(config.Manager{
			BaseURL: "ftp://nsx.example.com",
			Auth: &config.ManagerAuth{
				BearerToken: &config.BearerTokenAuth{Token: "token"},
			},
		})
		assertTypedCategory(t, err, faults.ValidationError)
	})

	t.Run("missing_auth", func(t *testing.T) {
		t.Parallel()

		_, err := NewNSXPolicyGateway(config.Manager{BaseURL: "https://nsx.example.com"})
		assertTypedCategory(t, err, faults.ValidationError)
	})

	t.Run("multiple_auth_modes", func(t *testing.T) {
		t.Parallel()

		_, err := NewNSXPolicyGateway(config.Manager{
			BaseURL: "https://nsx.example.com",
			Auth: &config.ManagerAuth{
				BasicAuth:   &config.BasicAuth{Username: "admin", Password: "secret"},
				BearerToken: &config.BearerTokenAuth{Token: "token"},
			},
		})
		assertTypedCategory(t, err, faults.ValidationError)
	})

	t.Run("session_token_requires_credentials", func(t *testing.T) {
		t.Parallel()

		_, err := NewNSXPolicyGateway(config.Manager{
			BaseURL: "https://nsx.example.com",
			Auth: &config.ManagerAuth{
				SessionToken: &config.SessionTokenAuth{Username: "admin"},
			},
		})
		assertTypedCategory(t, err, faults.ValidationError)
	})

	t.Run("tls_client_pair_must_be_complete", func(t *testing.T) {
		t.Parallel()

		_, err := NewNSXPolicyGateway(config.Manager{
			BaseURL: "https://nsx.example.com",
			Auth: &config.ManagerAuth{
				BearerToken: &config.BearerTokenAuth{Token: "token"},
			},
			TLS: &config.TLS{
				ClientCertFile: "/tmp/only-cert.pem",
			},
		})
		assertTypedCategory(t, err, faults.ValidationError)
	})
}

func TestCollectionEndpointPath(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		kind   resource.Kind
		domain string
		want   string
	}{
		{name: "group_default_domain", kind: resource.KindGroup, domain: "", want: "/policy/api/v1/infra/domains/default/groups"},
		{name: "group_custom_domain", kind: resource.KindGroup, domain: "tenant-a", want: "/policy/api/v1/infra/domains/tenant-a/groups"},
		{name: "tier0_infra_scope", kind: resource.KindTier0, domain: "", want: "/policy/api/v1/infra/tier-0s"},
		{name: "tier1_infra_scope", kind: resource.KindTier1, domain: "default", want: "/policy/api/v1/infra/tier-1s"},
	}

	for _, test := range testCases {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			got, err := collectionEndpointPath(test.kind, test.domain)
			if err != nil {
				t.Fatalf("collectionEndpointPath returned error: %v", err)
			}
			if got != test.want {
				t.Fatalf("expected path %q, got %q", test.want, got)
			}
		})
	}

	t.Run("tier0_rejects_custom_domain", func(t *testing.T) {
		t.Parallel()

		_, err := collectionEndpointPath(resource.KindTier0, "tenant-a")
		assertTypedCategory(t, err, faults.NotFoundError)
	})

	t.Run("unknown_kind", func(t *testing.T) {
		t.Parallel()

		_, err := collectionEndpointPath(resource.Kind("segment"), "")
		assertTypedCategory(t, err, faults.NotFoundError)
	})
}

func TestAuthModes(t *testing.T) {
	t.Parallel()

	t.Run("basic_auth", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			expected := "Basic " + base64.StdEncoding.EncodeToString([]byte("admin:secret"))
			if got := r.Header.Get("Authorization"); got != expected {
				t.Fatalf("expected basic auth header %q, got %q", expected, got)
			}
			_, _ = fmt.Fprint(w, `{"product_version":"4.1.2"}`)
		}))
		t.Cleanup(server.Close)

		gateway := mustGateway(t, config.Manager{
			BaseURL: server.URL,
			Auth: &config.ManagerAuth{
				BasicAuth: &config.BasicAuth{Username: "admin", Password: "secret"},
			},
		})

		if _, err := gateway.Version(context.Background()); err != nil {
			t.Fatalf("Version returned error: %v", err)
		}
	})

	t.Run("bearer_auth", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer token-123" {
				t.Fatalf("expected bearer header, got %q", got)
			}
			_, _ = fmt.Fprint(w, `{"product_version":"4.1.2"}`)
		}))
		t.Cleanup(server.Close)

		gateway := mustGateway(t, config.Manager{
			BaseURL: server.URL,
			Auth: &config.ManagerAuth{
				BearerToken: &config.BearerTokenAuth{Token: "token-123"},
			},
		})

		if _, err := gateway.Version(context.Background()); err != nil {
			t.Fatalf("Version returned error: %v", err)
		}
	})

	t.Run("session_token_cached", func(t *testing.T) {
		t.Parallel()

		var sessionRequests int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/session/create":
				atomic.AddInt32(&sessionRequests, 1)
				if r.Method != http.MethodPost {
					t.Fatalf("expected POST session create, got %s", r.Method)
				}
				if err := r.ParseForm(); err != nil {
					t.Fatalf("failed to parse session create form: %v", err)
				}
				if r.PostFormValue("j_username") != "admin" || r.PostFormValue("j_password") != "secret" {
					t.Fatalf("unexpected session create form values %v", r.PostForm)
				}
				http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "session-abc"})
				w.Header().Set("X-XSRF-TOKEN", "xsrf-abc")
				w.WriteHeader(http.StatusOK)
			case "/api/v1/node/version":
				if got := r.Header.Get("Cookie"); got != "JSESSIONID=session-abc" {
					t.Fatalf("expected session cookie header, got %q", got)
				}
				if got := r.Header.Get("X-XSRF-TOKEN"); got != "xsrf-abc" {
					t.Fatalf("expected xsrf token header, got %q", got)
				}
				_, _ = fmt.Fprint(w, `{"product_version":"4.1.2"}`)
			default:
				http.NotFound(w, r)
			}
		}))
		t.Cleanup(server.Close)

		gateway := mustGateway(t, config.Manager{
			BaseURL: server.URL,
			Auth: &config.ManagerAuth{
				SessionToken: &config.SessionTokenAuth{Username: "admin", Password: "secret"},
			},
		})

		if _, err := gateway.Version(context.Background()); err != nil {
			t.Fatalf("first Version returned error: %v", err)
		}
		if _, err := gateway.Version(context.Background()); err != nil {
			t.Fatalf("second Version returned error: %v", err)
		}
		if got := atomic.LoadInt32(&sessionRequests); got != 1 {
			t.Fatalf("expected one session create request, got %d", got)
		}
	})

	t.Run("session_create_failure_maps_auth", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/session/create" {
				t.Fatalf("expected session create request, got %q", r.URL.Path)
			}
			http.Error(w, "bad credentials", http.StatusUnauthorized)
		}))
		t.Cleanup(server.Close)

		gateway := mustGateway(t, config.Manager{
			BaseURL: server.URL,
			Auth: &config.ManagerAuth{
				SessionToken: &config.SessionTokenAuth{Username: "admin", Password: "wrong"},
			},
		})

		_, err := gateway.Version(context.Background())
		assertTypedCategory(t, err, faults.AuthError)
		if !strings.Contains(err.Error(), "bad credentials") {
			t.Fatalf("expected session create body context in error, got %q", err.Error())
		}
	})

	t.Run("session_create_without_cookie_fails", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-XSRF-TOKEN", "xsrf-abc")
			w.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(server.Close)

		gateway := mustGateway(t, config.Manager{
			BaseURL: server.URL,
			Auth: &config.ManagerAuth{
				SessionToken: &config.SessionTokenAuth{Username: "admin", Password: "secret"},
			},
		})

		_, err := gateway.Version(context.Background())
		assertTypedCategory(t, err, faults.AuthError)
	})
}

func TestVersion(t *testing.T) {
	t.Parallel()

	t.Run("product_and_node_version", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/v1/node/version" {
				t.Fatalf("expected version path, got %q", r.URL.Path)
			}
			_, _ = fmt.Fprint(w, `{"product_version":"4.1.2.1","node_version":"4.1.2.1.0.22224312"}`)
		}))
		t.Cleanup(server.Close)

		gateway := mustGateway(t, bearerManagerConfig(server.URL))

		info, err := gateway.Version(context.Background())
		if err != nil {
			t.Fatalf("Version returned error: %v", err)
		}
		if info.ProductVersion != "4.1.2.1" {
			t.Fatalf("expected product version 4.1.2.1, got %q", info.ProductVersion)
		}
		if info.NodeVersion != "4.1.2.1.0.22224312" {
			t.Fatalf("expected node version, got %q", info.NodeVersion)
		}
	})

	t.Run("falls_back_to_node_version", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = fmt.Fprint(w, `{"node_version":"4.1.2.1.0.22224312"}`)
		}))
		t.Cleanup(server.Close)

		gateway := mustGateway(t, bearerManagerConfig(server.URL))

		info, err := gateway.Version(context.Background())
		if err != nil {
			t.Fatalf("Version returned error: %v", err)
		}
		if info.ProductVersion != "4.1.2.1.0.22224312" {
			t.Fatalf("expected node version fallback, got %q", info.ProductVersion)
		}
	})

	t.Run("missing_version_attributes", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = fmt.Fprint(w, `{"hostname":"nsx-mgr-01"}`)
		}))
		t.Cleanup(server.Close)

		gateway := mustGateway(t, bearerManagerConfig(server.URL))

		_, err := gateway.Version(context.Background())
		assertTypedCategory(t, err, faults.TransportError)
	})

	t.Run("check_reachable_propagates_failure", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
		}))
		t.Cleanup(server.Close)

		gateway := mustGateway(t, bearerManagerConfig(server.URL))

		assertTypedCategory(t, gateway.CheckReachable(context.Background()), faults.TransportError)
	})
}

func TestListFollowsCursor(t *testing.T) {
	t.Parallel()

	var listRequests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/policy/api/v1/infra/domains/default/groups" {
			t.Fatalf("expected group collection path, got %q", r.URL.Path)
		}
		call := atomic.AddInt32(&listRequests, 1)
		switch call {
		case 1:
			if r.URL.Query().Get("cursor") != "" {
				t.Fatalf("expected no cursor on first page, got %q", r.URL.RawQuery)
			}
			_, _ = fmt.Fprint(w, `{"results":[{"id":"web","display_name":"web"},{"id":"db","display_name":"db"}],"result_count":3,"cursor":"page-2"}`)
		case 2:
			if got := r.URL.Query().Get("cursor"); got != "page-2" {
				t.Fatalf("expected cursor page-2 on second page, got %q", got)
			}
			_, _ = fmt.Fprint(w, `{"results":[{"id":"app","display_name":"app"}],"result_count":3}`)
		default:
			t.Fatalf("unexpected extra list request %d", call)
		}
	}))
	t.Cleanup(server.Close)

	gateway := mustGateway(t, bearerManagerConfig(server.URL))

	collection, err := gateway.GetCollection(context.Background(), resource.KindGroup, "")
	if err != nil {
		t.Fatalf("GetCollection returned error: %v", err)
	}

	objects, err := collection.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(objects) != 3 {
		t.Fatalf("expected 3 objects across pages, got %d", len(objects))
	}
	if objects[0].ID != "web" || objects[2].ID != "app" {
		t.Fatalf("unexpected page merge order %#v", objects)
	}
	if got := atomic.LoadInt32(&listRequests); got != 2 {
		t.Fatalf("expected 2 list requests, got %d", got)
	}
}

func TestListResponseShapes(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		payload string
		want    int
	}{
		{name: "results_envelope", payload: `{"results":[{"id":"a"},{"id":"b"}],"result_count":2}`, want: 2},
		{name: "bare_array", payload: `[{"id":"a"}]`, want: 1},
		{name: "items_fallback", payload: `{"items":[{"id":"a"}]}`, want: 1},
		{name: "single_array_field", payload: `{"groups":[{"id":"a"}]}`, want: 1},
		{name: "empty_results", payload: `{"results":[],"result_count":0}`, want: 0},
	}

	for _, test := range testCases {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = fmt.Fprint(w, test.payload)
			}))
			t.Cleanup(server.Close)

			gateway := mustGateway(t, bearerManagerConfig(server.URL))

			collection, err := gateway.GetCollection(context.Background(), resource.KindTier1, "")
			if err != nil {
				t.Fatalf("GetCollection returned error: %v", err)
			}

			objects, err := collection.List(context.Background())
			if err != nil {
				t.Fatalf("List returned error: %v", err)
			}
			if len(objects) != test.want {
				t.Fatalf("expected %d objects, got %d", test.want, len(objects))
			}
		})
	}

	t.Run("ambiguous_array_fields", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = fmt.Fprint(w, `{"groups":[],"errors":[]}`)
		}))
		t.Cleanup(server.Close)

		gateway := mustGateway(t, bearerManagerConfig(server.URL))

		collection, err := gateway.GetCollection(context.Background(), resource.KindTier1, "")
		if err != nil {
			t.Fatalf("GetCollection returned error: %v", err)
		}

		_, err = collection.List(context.Background())
		assertTypedCategory(t, err, faults.TransportError)
	})
}

func TestCreateDerivesIDFromDisplayName(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Fatalf("expected PUT create, got %s", r.Method)
		}
		if r.URL.Path != "/policy/api/v1/infra/domains/default/groups/web-tier" {
			t.Fatalf("expected sanitized id path, got %q", r.URL.Path)
		}

		data, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("failed to read create body: %v", err)
		}
		var payload map[string]any
		if err := json.Unmarshal(data, &payload); err != nil {
			t.Fatalf("create body is not valid JSON: %v", err)
		}
		if payload["display_name"] != "web tier" {
			t.Fatalf("expected display_name to be preserved, got %#v", payload)
		}
		if _, exists := payload["_revision"]; exists {
			t.Fatalf("create body must not carry a revision, got %#v", payload)
		}

		_, _ = fmt.Fprint(w, `{"id":"web-tier","display_name":"web tier","path":"/infra/domains/default/groups/web-tier","_revision":0}`)
	}))
	t.Cleanup(server.Close)

	gateway := mustGateway(t, bearerManagerConfig(server.URL))

	collection, err := gateway.GetCollection(context.Background(), resource.KindGroup, "")
	if err != nil {
		t.Fatalf("GetCollection returned error: %v", err)
	}

	created, err := collection.Create(context.Background(), resource.GroupSpec{Name: "web tier"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID != "web-tier" {
		t.Fatalf("expected id from response, got %q", created.ID)
	}
	if created.Path != "/infra/domains/default/groups/web-tier" {
		t.Fatalf("expected policy path from response, got %q", created.Path)
	}
}

func TestUpdateCarriesRevision(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Fatalf("expected PUT update, got %s", r.Method)
		}
		if r.URL.Path != "/policy/api/v1/infra/tier-1s/edge-t1" {
			t.Fatalf("expected id path, got %q", r.URL.Path)
		}

		data, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("failed to read update body: %v", err)
		}
		var payload map[string]any
		if err := json.Unmarshal(data, &payload); err != nil {
			t.Fatalf("update body is not valid JSON: %v", err)
		}
		if payload["_revision"] != float64(7) {
			t.Fatalf("expected _revision=7 in update body, got %#v", payload["_revision"])
		}

		_, _ = fmt.Fprint(w, `{"id":"edge-t1","display_name":"edge-t1","_revision":8}`)
	}))
	t.Cleanup(server.Close)

	gateway := mustGateway(t, bearerManagerConfig(server.URL))

	collection, err := gateway.GetCollection(context.Background(), resource.KindTier1, "")
	if err != nil {
		t.Fatalf("GetCollection returned error: %v", err)
	}

	updated, err := collection.Update(context.Background(), "edge-t1", resource.Tier1GatewaySpec{Name: "edge-t1"}, 7)
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Revision != 8 {
		t.Fatalf("expected revision 8 from response, got %d", updated.Revision)
	}
}

func TestGetObject(t *testing.T) {
	t.Parallel()

	t.Run("fetches_by_id", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				t.Fatalf("expected GET, got %s", r.Method)
			}
			if r.URL.Path != "/policy/api/v1/infra/tier-0s/core-t0" {
				t.Fatalf("expected id path, got %q", r.URL.Path)
			}
			_, _ = fmt.Fprint(w, `{"id":"core-t0","display_name":"core-t0","ha_mode":"ACTIVE_ACTIVE","_revision":3}`)
		}))
		t.Cleanup(server.Close)

		gateway := mustGateway(t, bearerManagerConfig(server.URL))

		collection, err := gateway.GetCollection(context.Background(), resource.KindTier0, "")
		if err != nil {
			t.Fatalf("GetCollection returned error: %v", err)
		}

		object, err := collection.Get(context.Background(), "core-t0")
		if err != nil {
			t.Fatalf("Get returned error: %v", err)
		}
		if object.ID != "core-t0" || object.Revision != 3 {
			t.Fatalf("unexpected object %#v", object)
		}
	})

	t.Run("empty_id_fails_before_request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("expected no request for empty id")
		}))
		t.Cleanup(server.Close)

		gateway := mustGateway(t, bearerManagerConfig(server.URL))

		collection, err := gateway.GetCollection(context.Background(), resource.KindTier0, "")
		if err != nil {
			t.Fatalf("GetCollection returned error: %v", err)
		}

		_, err = collection.Get(context.Background(), "  ")
		assertTypedCategory(t, err, faults.ValidationError)
	})
}

func TestStatusMapping(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		status   int
		category faults.ErrorCategory
	}{
		{name: "unauthorized_maps_auth", status: http.StatusUnauthorized, category: faults.AuthError},
		{name: "forbidden_maps_auth", status: http.StatusForbidden, category: faults.AuthError},
		{name: "not_found_maps_not_found", status: http.StatusNotFound, category: faults.NotFoundError},
		{name: "conflict_maps_conflict", status: http.StatusConflict, category: faults.ConflictError},
		{name: "stale_revision_maps_conflict", status: http.StatusPreconditionFailed, category: faults.ConflictError},
		{name: "bad_request_maps_validation", status: http.StatusBadRequest, category: faults.ValidationError},
		{name: "internal_maps_transport", status: http.StatusInternalServerError, category: faults.TransportError},
	}

	for _, test := range testCases {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(test.status)
				_, _ = fmt.Fprint(w, "test-body")
			}))
			t.Cleanup(server.Close)

			gateway := mustGateway(t, bearerManagerConfig(server.URL))

			collection, err := gateway.GetCollection(context.Background(), resource.KindGroup, "")
			if err != nil {
				t.Fatalf("GetCollection returned error: %v", err)
			}

			_, err = collection.Get(context.Background(), "web")
			assertTypedCategory(t, err, test.category)
			if !strings.Contains(err.Error(), "test-body") {
				t.Fatalf("expected response body context in error, got %q", err.Error())
			}
		})
	}
}

func TestPolicyIDForDisplayName(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "web-tier", want: "web-tier"},
		{name: "spaces_become_dashes", in: "web tier servers", want: "web-tier-servers"},
		{name: "slashes_and_symbols", in: "prod/web: tier#1", want: "prod-web-tier-1"},
		{name: "surrounding_noise_trimmed", in: "  --web--  ", want: "web"},
		{name: "dots_and_underscores_kept", in: "web_tier.v2", want: "web_tier.v2"},
	}

	for _, test := range testCases {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			if got := policyIDForDisplayName(test.in); got != test.want {
				t.Fatalf("expected id %q, got %q", test.want, got)
			}
		})
	}

	t.Run("unusable_name_falls_back_to_uuid", func(t *testing.T) {
		t.Parallel()

		got := policyIDForDisplayName("///")
		if got == "" {
			t.Fatal("expected generated id for unusable display name")
		}
		if policyIDSanitizer.MatchString(got) {
			t.Fatalf("generated id contains invalid characters: %q", got)
		}
	})
}

func TestRequestHeaders(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Default"); got != "base" {
			t.Fatalf("expected default header, got %q", got)
		}
		if got := r.Header.Get("X-Extra"); got != "extra" {
			t.Fatalf("expected extra header from option, got %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "declansx-test" {
			t.Fatalf("expected custom user agent, got %q", got)
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Fatal("expected request id header")
		}
		_, _ = fmt.Fprint(w, `{"product_version":"4.1.2"}`)
	}))
	t.Cleanup(server.Close)

	cfg := bearerManagerConfig(server.URL)
	cfg.DefaultHeaders = map[string]string{"X-Default": "base"}

	gateway := mustGateway(
		t,
		cfg,
		WithUserAgent("declansx-test"),
		WithExtraHeader("X-Extra", "extra"),
	)

	if _, err := gateway.Version(context.Background()); err != nil {
		t.Fatalf("Version returned error: %v", err)
	}
}

func TestDebugLogging(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/session/create":
			http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "session-abc"})
			w.Header().Set("X-XSRF-TOKEN", "xsrf-abc")
			w.WriteHeader(http.StatusOK)
		default:
			_, _ = fmt.Fprint(w, `{"product_version":"4.1.2"}`)
		}
	}))
	t.Cleanup(server.Close)

	gateway := mustGateway(t, config.Manager{
		BaseURL: server.URL,
		Auth: &config.ManagerAuth{
			SessionToken: &config.SessionTokenAuth{Username: "admin", Password: "secret-value"},
		},
	})

	var debugOutput bytes.Buffer
	ctx := debugctx.WithEnabled(context.Background(), true)
	ctx = debugctx.WithWriter(ctx, &debugOutput)

	if _, err := gateway.Version(ctx); err != nil {
		t.Fatalf("Version returned error: %v", err)
	}

	contents := debugOutput.String()
	if !strings.Contains(contents, `purpose="session-create"`) {
		t.Fatalf("expected session create request in debug output, got %q", contents)
	}
	if !strings.Contains(contents, `purpose="policy"`) {
		t.Fatalf("expected policy request in debug output, got %q", contents)
	}
	if !strings.Contains(contents, `tls_enabled=false`) {
		t.Fatalf("expected tls debug flag in debug output, got %q", contents)
	}
	if strings.Contains(contents, "secret-value") {
		t.Fatalf("debug output leaked session password: %q", contents)
	}
}

func TestRateLimiterWaitHonorsCancellation(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = fmt.Fprint(w, `{"product_version":"4.1.2"}`)
	}))
	t.Cleanup(server.Close)

	gateway := mustGateway(t, bearerManagerConfig(server.URL), WithRateLimit(1))

	if _, err := gateway.Version(context.Background()); err != nil {
		t.Fatalf("Version returned error: %v", err)
	}

	// The burst token is spent; the next request has to wait, and a
	// canceled context must surface before the call goes out.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := gateway.Version(ctx); err == nil {
		t.Fatal("expected error from canceled context")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 request to reach the server, got %d", got)
	}
}

func TestWithHTTPClientReplacesTransport(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `{"product_version":"4.1.2"}`)
	}))
	t.Cleanup(server.Close)

	var intercepted atomic.Int64
	client := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			intercepted.Add(1)
			return http.DefaultTransport.RoundTrip(req)
		}),
	}

	gateway := mustGateway(t, bearerManagerConfig(server.URL), WithHTTPClient(client))

	if _, err := gateway.Version(context.Background()); err != nil {
		t.Fatalf("Version returned error: %v", err)
	}
	if intercepted.Load() == 0 {
		t.Fatal("expected the injected client to carry the request")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
