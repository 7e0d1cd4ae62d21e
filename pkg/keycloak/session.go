package keycloak

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/oauth2"

	kcerrors "github.com/tendant/kcbootstrap/pkg/errors"
)

// SessionConfig holds what is needed to obtain an admin token.
type SessionConfig struct {
	BaseURL  string
	Realm    string // realm holding the admin account, usually "master"
	ClientID string // usually "admin-cli"
	Username string
	Password string
	Timeout  time.Duration
}

// Session is an acquired admin credential. It is read-only after Acquire.
type Session struct {
	baseURL string
	token   *oauth2.Token
	client  *http.Client

	// Issuer and ExpiresAt are read from the access token without verifying it.
	Issuer    string
	ExpiresAt time.Time
}

// TokenURL returns the token endpoint of realm.
func TokenURL(baseURL, realm string) string {
	return fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", strings.TrimSuffix(baseURL, "/"), url.PathEscape(realm))
}

// Acquire performs the password grant and returns a session whose HTTP client
// injects the bearer token. Any failure is an AUTH_FAILED error.
func Acquire(ctx context.Context, cfg SessionConfig) (*Session, error) {
	base := cleanhttp.DefaultClient()
	base.Timeout = cfg.Timeout

	oauthCfg := &oauth2.Config{
		ClientID: cfg.ClientID,
		Endpoint: oauth2.Endpoint{
			TokenURL:  TokenURL(cfg.BaseURL, cfg.Realm),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	tokenClient := cleanhttp.DefaultClient()
	tokenClient.Timeout = cfg.Timeout
	tokenClient.Transport = tokenStatusCheck{next: tokenClient.Transport}

	token, err := oauthCfg.PasswordCredentialsToken(context.WithValue(ctx, oauth2.HTTPClient, tokenClient), cfg.Username, cfg.Password)
	if err != nil {
		return nil, kcerrors.AuthFailed(err, "failed to obtain admin access token").
			WithDetail("realm", cfg.Realm).
			WithDetail("username", cfg.Username)
	}

	client := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, base), oauth2.StaticTokenSource(token))
	client.Timeout = cfg.Timeout

	s := &Session{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		token:   token,
		client:  client,
	}
	s.readClaims()

	slog.Info("Admin token acquired",
		"realm", cfg.Realm,
		"issuer", s.Issuer,
		"expires_at", s.ExpiresAt)

	return s, nil
}

// tokenStatusCheck turns any token endpoint answer other than 200 into an *APIError.
// The oauth2 package accepts every 2xx.
type tokenStatusCheck struct {
	next http.RoundTripper
}

func (t tokenStatusCheck) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusOK {
		return resp, nil
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return nil, &APIError{Op: "token", StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

// readClaims fills Issuer and ExpiresAt from the token when it is a JWT.
func (s *Session) readClaims() {
	s.ExpiresAt = s.token.Expiry

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(s.token.AccessToken, &claims); err != nil {
		slog.Debug("Admin token is not a parseable JWT", "error", err)
		return
	}
	s.Issuer = claims.Issuer
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
}

// Admin returns an AdminClient bound to this session.
func (s *Session) Admin() *AdminClient {
	return NewAdminClient(s.baseURL, s.client)
}
