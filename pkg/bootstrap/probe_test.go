package bootstrap

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kcerrors "github.com/tendant/kcbootstrap/pkg/errors"
	"github.com/tendant/kcbootstrap/pkg/keycloak/keycloaktest"
)

func TestVerify(t *testing.T) {
	srv := keycloaktest.NewServer()
	defer srv.Close()
	srv.SeedRealm(testRealm)

	cfg := testConfig(srv.URL)
	cfg.SettleDelay = time.Hour

	doc, err := Verify(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/realms/"+testRealm+"/protocol/openid-connect/certs", doc.JWKSURI)
}

func TestProbeRecoversWithinAttempts(t *testing.T) {
	srv := keycloaktest.NewServer()
	defer srv.Close()

	probe := NewProbe(testConfig(srv.URL))
	probe.Attempts = 5
	probe.Interval = 20 * time.Millisecond

	go func() {
		time.Sleep(30 * time.Millisecond)
		srv.SeedRealm(testRealm)
	}()

	doc, err := probe.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, doc.Issuer)
}

func TestProbeGivesUp(t *testing.T) {
	srv := keycloaktest.NewServer()
	defer srv.Close()

	probe := NewProbe(testConfig(srv.URL))
	probe.Attempts = 3
	probe.Interval = time.Millisecond

	_, err := probe.Run(context.Background())
	require.Error(t, err)
	assert.True(t, kcerrors.IsCode(err, kcerrors.ErrCodeProbeFailed))

	attempts := 0
	for _, r := range srv.Requests() {
		if r.Method == http.MethodGet && r.Status == http.StatusNotFound {
			attempts++
		}
	}
	assert.Equal(t, 3, attempts)
}

func TestProbeSettleDelayHonorsContext(t *testing.T) {
	probe := NewProbe(testConfig("http://127.0.0.1:1"))
	probe.SettleDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := probe.Run(ctx)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
