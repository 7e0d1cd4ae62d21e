package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, "http://localhost:8080", cfg.FrontendURL)
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.Equal(t, "master", cfg.AdminRealm)
	assert.Equal(t, "admin-cli", cfg.AdminClientID)
	assert.Equal(t, "spending-monitor", cfg.Realm)
	assert.Equal(t, "spending-monitor", cfg.ClientID)
	assert.Equal(t, []string{"http://localhost:3000/*"}, cfg.RedirectURIList())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.WebOriginList())
	assert.Equal(t, DefaultPassword, cfg.DefaultUserPassword)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 3*time.Second, cfg.SettleDelay)
	assert.Equal(t, 3, cfg.ProbeAttempts)
	assert.Equal(t, Development, cfg.Env())
	assert.False(t, cfg.HasDatabase())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("KEYCLOAK_URL", "https://sso.example.com/")
	t.Setenv("KEYCLOAK_REALM", "acme")
	t.Setenv("KEYCLOAK_REDIRECT_URIS", " https://app.example.com/* , https://admin.example.com/*,")
	t.Setenv("KEYCLOAK_WEB_ORIGINS", "https://app.example.com")
	t.Setenv("KEYCLOAK_HTTP_TIMEOUT", "2s")
	t.Setenv("KEYCLOAK_SETTLE_DELAY", "0s")
	t.Setenv("DATABASE_URL", "postgresql+asyncpg://user:password@db:5432/spending-monitor")

	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "https://sso.example.com", cfg.BaseURL)
	assert.Equal(t, "https://sso.example.com", cfg.FrontendURL)
	assert.Equal(t, "acme", cfg.Realm)
	assert.Equal(t, []string{"https://app.example.com/*", "https://admin.example.com/*"}, cfg.RedirectURIList())
	assert.Equal(t, 2*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, time.Duration(0), cfg.SettleDelay)
	assert.Equal(t, "postgres://user:password@db:5432/spending-monitor", cfg.DatabaseURL)
	assert.True(t, cfg.HasDatabase())
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("KEYCLOAK_CLIENT_ID=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("KEYCLOAK_CLIENT_ID") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.ClientID)
}

func TestLoadValidation(t *testing.T) {
	t.Setenv("KEYCLOAK_URL", "localhost:8080")
	t.Setenv("KEYCLOAK_REDIRECT_URIS", " , ")
	t.Setenv("KEYCLOAK_PROBE_ATTEMPTS", "0")

	_, err := Load(noEnvFile(t))
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := make([]string, 0, len(verrs))
	for _, v := range verrs {
		fields = append(fields, v.Field)
	}
	assert.ElementsMatch(t, []string{"KEYCLOAK_URL", "KEYCLOAK_REDIRECT_URIS", "KEYCLOAK_PROBE_ATTEMPTS"}, fields)
}

func TestProductionWarnings(t *testing.T) {
	cfg := Config{
		Environment:         "production",
		BaseURL:             "http://localhost:8080",
		RedirectURIs:        "http://localhost:3000/*",
		WebOrigins:          "https://app.example.com",
		DefaultUserPassword: DefaultPassword,
	}
	warnings := cfg.ProductionWarnings()
	assert.Len(t, warnings, 3)
	assert.Contains(t, warnings[0], "KEYCLOAK_DEFAULT_PASSWORD")
	assert.Contains(t, warnings[1], "KEYCLOAK_URL")
	assert.Contains(t, warnings[2], "KEYCLOAK_REDIRECT_URIS")

	cfg.Environment = "development"
	assert.Nil(t, cfg.ProductionWarnings())
}

func TestNormalizeDatabaseURL(t *testing.T) {
	tests := map[string]string{
		"":                                       "",
		"postgres://u:p@h:5432/db":               "postgres://u:p@h:5432/db",
		"postgresql+asyncpg://u:p@h:5432/db":     "postgres://u:p@h:5432/db",
		"  postgresql+psycopg2://u:p@h/db  ":     "postgres://u:p@h/db",
		"postgresql://u:p@h/db?sslmode=disable":  "postgresql://u:p@h/db?sslmode=disable",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeDatabaseURL(in), in)
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList(""))
	assert.Equal(t, []string{"a", "b"}, SplitList(" a ,, b ,"))
}
