package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/tendant/kcbootstrap/pkg/config"
	kcerrors "github.com/tendant/kcbootstrap/pkg/errors"
	"github.com/tendant/kcbootstrap/pkg/keycloak"
)

// Probe checks that the realm's discovery document is served.
type Probe struct {
	BaseURL     string
	Realm       string
	SettleDelay time.Duration
	Attempts    int
	// Interval is the first wait between attempts; it grows exponentially
	Interval   time.Duration
	HTTPClient *http.Client
}

// NewProbe builds a probe from cfg. It needs no admin credential.
func NewProbe(cfg config.Config) *Probe {
	client := cleanhttp.DefaultClient()
	client.Timeout = cfg.HTTPTimeout

	return &Probe{
		BaseURL:     cfg.BaseURL,
		Realm:       cfg.Realm,
		SettleDelay: cfg.SettleDelay,
		Attempts:    cfg.ProbeAttempts,
		Interval:    time.Second,
		HTTPClient:  client,
	}
}

// Run waits the settle delay, then fetches the discovery document up to Attempts times.
// Any parseable 200 response is a pass.
func (p *Probe) Run(ctx context.Context) (*keycloak.Discovery, error) {
	url := keycloak.DiscoveryURL(p.BaseURL, p.Realm)

	if p.SettleDelay > 0 {
		slog.Info("Waiting for realm changes to settle", "delay", p.SettleDelay)
		timer := time.NewTimer(p.SettleDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, kcerrors.ProbeFailed(ctx.Err(), url)
		case <-timer.C:
		}
	}

	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = p.Interval
	policy.MaxElapsedTime = 0

	var doc *keycloak.Discovery
	operation := func() error {
		var err error
		doc, err = keycloak.Discover(ctx, p.HTTPClient, p.BaseURL, p.Realm)
		return err
	}
	notify := func(err error, wait time.Duration) {
		slog.Debug("Discovery document not ready", "url", url, "retry_in", wait, "error", err)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(attempts-1)), ctx)
	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		return nil, kcerrors.ProbeFailed(err, url)
	}

	slog.Info("Discovery document accessible",
		"issuer", doc.Issuer,
		"authorization_endpoint", doc.AuthorizationEndpoint,
		"token_endpoint", doc.TokenEndpoint,
		"userinfo_endpoint", doc.UserInfoEndpoint,
		"jwks_uri", doc.JWKSURI)
	return doc, nil
}
