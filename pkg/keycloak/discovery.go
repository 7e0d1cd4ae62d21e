package keycloak

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// Discovery is the subset of the OpenID configuration logged after a run.
type Discovery struct {
	Issuer                string
	AuthorizationEndpoint string
	TokenEndpoint         string
	UserInfoEndpoint      string
	JWKSURI               string
}

// IssuerURL returns the issuer of realm as served from baseURL.
func IssuerURL(baseURL, realm string) string {
	return fmt.Sprintf("%s/realms/%s", strings.TrimSuffix(baseURL, "/"), url.PathEscape(realm))
}

// DiscoveryURL returns the well-known OpenID configuration URL of realm.
func DiscoveryURL(baseURL, realm string) string {
	return IssuerURL(baseURL, realm) + "/.well-known/openid-configuration"
}

// Discover fetches and parses the realm's discovery document. No admin credential is needed.
// The document's issuer may differ from the URL it was fetched from when the realm has a
// frontend URL, so the issuer check is relaxed.
func Discover(ctx context.Context, httpClient *http.Client, baseURL, realm string) (*Discovery, error) {
	issuer := IssuerURL(baseURL, realm)
	if httpClient != nil {
		ctx = oidc.ClientContext(ctx, httpClient)
	}
	ctx = oidc.InsecureIssuerURLContext(ctx, issuer)

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, err
	}

	var claims struct {
		Issuer   string `json:"issuer"`
		UserInfo string `json:"userinfo_endpoint"`
		JWKSURI  string `json:"jwks_uri"`
	}
	if err := provider.Claims(&claims); err != nil {
		return nil, fmt.Errorf("parse discovery document: %w", err)
	}

	endpoint := provider.Endpoint()
	return &Discovery{
		Issuer:                claims.Issuer,
		AuthorizationEndpoint: endpoint.AuthURL,
		TokenEndpoint:         endpoint.TokenURL,
		UserInfoEndpoint:      claims.UserInfo,
		JWKSURI:               claims.JWKSURI,
	}, nil
}
