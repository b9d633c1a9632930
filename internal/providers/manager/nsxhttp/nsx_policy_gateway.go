package nsxhttp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fiesolecouk/declansx/config"
	debugctx "github.com/fiesolecouk/declansx/debugctx"
	"github.com/fiesolecouk/declansx/internal/providers/shared/tlsconfig"
	"github.com/fiesolecouk/declansx/manager"
	"github.com/fiesolecouk/declansx/resource"
	"golang.org/x/time/rate"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	defaultMediaType   = "application/json"

	policyAPIRoot   = "/policy/api/v1"
	nodeVersionPath = "/api/v1/node/version"
)

var _ manager.Session = (*NSXPolicyGateway)(nil)

// NSXPolicyGateway talks to one NSX manager's policy API. Credentials in the
// config must already be resolved; the gateway never sees secret references.
type NSXPolicyGateway struct {
	baseURL        *url.URL
	defaultHeaders map[string]string
	userAgent      string
	auth           authConfig
	client         *http.Client
	limiter        *rate.Limiter
	tlsDebug       tlsDebugInfo

	sessionMu        sync.Mutex
	sessionCookie    string
	sessionXSRFToken string
	sessionExpiresAt time.Time
}

type GatewayOption func(*NSXPolicyGateway)

func WithHTTPClient(client *http.Client) GatewayOption {
	return func(g *NSXPolicyGateway) {
		if g == nil || client == nil {
			return
		}
		g.client = client
	}
}

// WithRateLimit caps outbound request rate. Zero or negative removes the cap.
func WithRateLimit(requestsPerSecond float64) GatewayOption {
	return func(g *NSXPolicyGateway) {
		if g == nil {
			return
		}
		if requestsPerSecond <= 0 {
			g.limiter = nil
			return
		}
		g.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), rateBurst(requestsPerSecond))
	}
}

func WithUserAgent(userAgent string) GatewayOption {
	return func(g *NSXPolicyGateway) {
		if g == nil {
			return
		}
		g.userAgent = strings.TrimSpace(userAgent)
	}
}

func WithExtraHeader(name string, value string) GatewayOption {
	return func(g *NSXPolicyGateway) {
		if g == nil || strings.TrimSpace(name) == "" {
			return
		}
		if g.defaultHeaders == nil {
			g.defaultHeaders = map[string]string{}
		}
		g.defaultHeaders[name] = value
	}
}

func NewNSXPolicyGateway(cfg config.Manager, opts ...GatewayOption) (*NSXPolicyGateway, error) {
	baseURL, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	auth, err := buildAuthConfig(cfg.Auth)
	if err != nil {
		return nil, err
	}

	tlsConfig, err := tlsconfig.BuildTLSConfig(cfg.TLS, "manager")
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig

	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	gateway := &NSXPolicyGateway{
		baseURL:        baseURL,
		defaultHeaders: cloneStringMap(cfg.DefaultHeaders),
		auth:           auth,
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		tlsDebug: newTLSDebugInfo(cfg.TLS),
	}
	if cfg.RateLimit > 0 {
		gateway.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), rateBurst(cfg.RateLimit))
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(gateway)
	}
	return gateway, nil
}

func (g *NSXPolicyGateway) GetCollection(ctx context.Context, kind resource.Kind, domain string) (manager.Collection, error) {
	collectionPath, err := collectionEndpointPath(kind, domain)
	if err != nil {
		return nil, err
	}

	debugctx.Printf(ctx, "nsx collection bound kind=%q domain=%q path=%q", kind, strings.TrimSpace(domain), collectionPath)
	return &policyCollection{gateway: g, kind: kind, path: collectionPath}, nil
}

func (g *NSXPolicyGateway) Version(ctx context.Context) (manager.VersionInfo, error) {
	body, _, err := g.execute(ctx, requestSpec{
		method: http.MethodGet,
		path:   nodeVersionPath,
		accept: defaultMediaType,
	})
	if err != nil {
		return manager.VersionInfo{}, err
	}

	payload, err := decodeObjectPayload(body)
	if err != nil {
		return manager.VersionInfo{}, err
	}

	info := manager.VersionInfo{}
	if value, ok := resource.LookupScalarAttribute(payload, "product_version"); ok {
		info.ProductVersion = strings.TrimSpace(value)
	}
	if value, ok := resource.LookupScalarAttribute(payload, "node_version"); ok {
		info.NodeVersion = strings.TrimSpace(value)
	}
	if info.ProductVersion == "" && info.NodeVersion == "" {
		return manager.VersionInfo{}, transportError("version response does not include product_version or node_version", nil)
	}
	if info.ProductVersion == "" {
		info.ProductVersion = info.NodeVersion
	}

	debugctx.Printf(ctx, "nsx version product=%q node=%q", info.ProductVersion, info.NodeVersion)
	return info, nil
}

func (g *NSXPolicyGateway) CheckReachable(ctx context.Context) error {
	_, err := g.Version(ctx)
	return err
}

// collectionEndpointPath maps a kind/domain pair onto its policy collection.
// Groups live under a policy domain; gateways are infra-scoped, so any
// explicit non-default domain for them is a capability miss.
func collectionEndpointPath(kind resource.Kind, domain string) (string, error) {
	switch kind {
	case resource.KindGroup:
		resolved := strings.TrimSpace(domain)
		if resolved == "" {
			resolved = resource.DefaultDomain
		}
		return policyAPIRoot + "/infra/domains/" + url.PathEscape(resolved) + "/groups", nil
	case resource.KindTier0:
		if err := requireInfraScope(kind, domain); err != nil {
			return "", err
		}
		return policyAPIRoot + "/infra/tier-0s", nil
	case resource.KindTier1:
		if err := requireInfraScope(kind, domain); err != nil {
			return "", err
		}
		return policyAPIRoot + "/infra/tier-1s", nil
	}
	return "", notFoundError(fmt.Sprintf("resource kind %q is not available on this manager", kind), nil)
}

func requireInfraScope(kind resource.Kind, domain string) error {
	resolved := strings.TrimSpace(domain)
	if resolved == "" || resolved == resource.DefaultDomain {
		return nil
	}
	return notFoundError(fmt.Sprintf("%s objects are not domain-scoped: domain %q is not available", kind, resolved), nil)
}

func parseBaseURL(raw string) (*url.URL, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, validationError("manager.base-url is required", nil)
	}

	parsed, err := url.Parse(value)
	if err != nil {
		return nil, validationError("manager.base-url is invalid", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, validationError("manager.base-url must use http or https", nil)
	}
	if parsed.Host == "" {
		return nil, validationError("manager.base-url host is required", nil)
	}

	if parsed.Path == "" {
		parsed.Path = "/"
	}

	return parsed, nil
}

func rateBurst(requestsPerSecond float64) int {
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return burst
}

func cloneStringMap(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}

	cloned := make(map[string]string, len(values))
	for key, value := range values {
		cloned[key] = value
	}
	return cloned
}
