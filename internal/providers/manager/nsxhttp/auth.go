package nsxhttp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fiesolecouk/declansx/config"
)

type authMode int

const (
	authModeUnknown authMode = iota
	authModeBasic
	authModeBearer
	authModeSessionToken
)

const (
	sessionCreatePath = "/api/session/create"
	// NSX session cookies expire server-side after an idle window; the cache
	// re-acquires well inside the default 30-minute limit.
	sessionLifetime = 25 * time.Minute
)

type authConfig struct {
	mode         authMode
	basicAuth    config.BasicAuth
	bearerToken  config.BearerTokenAuth
	sessionToken config.SessionTokenAuth
}

func buildAuthConfig(cfg *config.ManagerAuth) (authConfig, error) {
	if cfg == nil {
		return authConfig{}, validationError("manager.auth is required", nil)
	}

	setCount := 0
	if cfg.BasicAuth != nil {
		setCount++
	}
	if cfg.BearerToken != nil {
		setCount++
	}
	if cfg.SessionToken != nil {
		setCount++
	}
	if setCount != 1 {
		return authConfig{}, validationError("manager.auth must define exactly one auth mode", nil)
	}

	switch {
	case cfg.BasicAuth != nil:
		basic := *cfg.BasicAuth
		if basic.Username == "" || basic.Password == "" {
			return authConfig{}, validationError("manager.auth.basic-auth requires username and password", nil)
		}
		return authConfig{mode: authModeBasic, basicAuth: basic}, nil
	case cfg.BearerToken != nil:
		bearer := *cfg.BearerToken
		if bearer.Token == "" {
			return authConfig{}, validationError("manager.auth.bearer-token.token is required", nil)
		}
		return authConfig{mode: authModeBearer, bearerToken: bearer}, nil
	case cfg.SessionToken != nil:
		session := *cfg.SessionToken
		if session.Username == "" || session.Password == "" {
			return authConfig{}, validationError("manager.auth.session-token requires username and password", nil)
		}
		return authConfig{mode: authModeSessionToken, sessionToken: session}, nil
	default:
		return authConfig{}, validationError("manager.auth is invalid", nil)
	}
}

func (g *NSXPolicyGateway) applyAuth(ctx context.Context, request *http.Request) error {
	switch g.auth.mode {
	case authModeBasic:
		request.SetBasicAuth(g.auth.basicAuth.Username, g.auth.basicAuth.Password)
	case authModeBearer:
		request.Header.Set("Authorization", "Bearer "+g.auth.bearerToken.Token)
	case authModeSessionToken:
		cookie, xsrfToken, err := g.sessionCredentials(ctx)
		if err != nil {
			return err
		}
		request.Header.Set("Cookie", cookie)
		request.Header.Set("X-XSRF-TOKEN", xsrfToken)
	default:
		return validationError("manager.auth mode is not configured", nil)
	}
	return nil
}

// sessionCredentials exchanges the configured credentials for an NSX session
// cookie and XSRF token, caching the pair until it goes stale.
func (g *NSXPolicyGateway) sessionCredentials(ctx context.Context) (string, string, error) {
	g.sessionMu.Lock()
	if g.sessionCookie != "" && time.Now().Before(g.sessionExpiresAt.Add(-30*time.Second)) {
		cookie, xsrfToken := g.sessionCookie, g.sessionXSRFToken
		g.sessionMu.Unlock()
		return cookie, xsrfToken, nil
	}
	g.sessionMu.Unlock()

	formValues := url.Values{}
	formValues.Set("j_username", g.auth.sessionToken.Username)
	formValues.Set("j_password", g.auth.sessionToken.Password)

	target := *g.baseURL
	target.Path = joinBaseAndRequestPath(g.baseURL.Path, sessionCreatePath)

	request, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		target.String(),
		strings.NewReader(formValues.Encode()),
	)
	if err != nil {
		return "", "", internalError("failed to create session request", err)
	}
	request.Header.Set("Accept", defaultMediaType)
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := g.doRequest(ctx, "session-create", request)
	if err != nil {
		return "", "", transportError("session create request failed", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return "", "", transportError("failed to read session create response", err)
	}

	if response.StatusCode >= http.StatusBadRequest {
		return "", "", authError(
			fmt.Sprintf("session create failed with status %d: %s", response.StatusCode, summarizeBody(body)),
			nil,
		)
	}

	xsrfToken := strings.TrimSpace(response.Header.Get("X-XSRF-TOKEN"))
	if xsrfToken == "" {
		return "", "", authError("session create response does not include an X-XSRF-TOKEN header", nil)
	}

	sessionCookie := ""
	for _, cookie := range response.Cookies() {
		if cookie.Name == "JSESSIONID" {
			sessionCookie = cookie.Name + "=" + cookie.Value
			break
		}
	}
	if sessionCookie == "" {
		return "", "", authError("session create response does not include a JSESSIONID cookie", nil)
	}

	g.sessionMu.Lock()
	g.sessionCookie = sessionCookie
	g.sessionXSRFToken = xsrfToken
	g.sessionExpiresAt = time.Now().Add(sessionLifetime)
	g.sessionMu.Unlock()

	return sessionCookie, xsrfToken, nil
}
