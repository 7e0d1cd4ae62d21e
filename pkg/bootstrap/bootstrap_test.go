package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tendant/kcbootstrap/pkg/config"
	"github.com/tendant/kcbootstrap/pkg/keycloak"
	"github.com/tendant/kcbootstrap/pkg/keycloak/keycloaktest"
	"github.com/tendant/kcbootstrap/pkg/usersource"
)

const testRealm = "spending-monitor"

func testConfig(baseURL string) config.Config {
	return config.Config{
		BaseURL:             baseURL,
		AdminUsername:       keycloaktest.AdminUsername,
		AdminPassword:       keycloaktest.AdminPassword,
		AdminRealm:          "master",
		AdminClientID:       keycloaktest.AdminClientID,
		Realm:               testRealm,
		RealmDisplayName:    "Spending Monitor",
		FrontendURL:         baseURL,
		ClientID:            "spending-monitor",
		RedirectURIs:        "http://localhost:3000/*,http://localhost:5173/*",
		WebOrigins:          "http://localhost:3000",
		DefaultUserPassword: config.DefaultPassword,
		HTTPTimeout:         5 * time.Second,
		SettleDelay:         0,
		ProbeAttempts:       2,
		Environment:         "test",
	}
}

// unavailableSource simulates an unreachable application database.
type unavailableSource struct{}

func (unavailableSource) Name() string { return "database" }

func (unavailableSource) Users(context.Context) ([]usersource.DesiredUser, error) {
	return nil, errors.New("connection refused")
}

type listSource []usersource.DesiredUser

func (listSource) Name() string { return "database" }

func (l listSource) Users(context.Context) ([]usersource.DesiredUser, error) { return l, nil }

func newTestOrchestrator(t *testing.T, srv *keycloaktest.Server, primary usersource.Source) *Orchestrator {
	t.Helper()
	cfg := testConfig(srv.URL)
	probe := NewProbe(cfg)
	probe.Interval = 10 * time.Millisecond
	return New(cfg,
		WithRunID("test-run"),
		WithUserSources(primary, usersource.NewStaticSource(cfg.DefaultUserPassword)),
		WithProbe(probe),
	)
}

func newTestAdmin(t *testing.T, srv *keycloaktest.Server) *keycloak.AdminClient {
	t.Helper()
	session, err := keycloak.Acquire(context.Background(), SessionConfig(testConfig(srv.URL)))
	require.NoError(t, err)
	return session.Admin()
}
