package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// DefaultPassword is the development password handed to every provisioned user
// when KEYCLOAK_DEFAULT_PASSWORD is not set.
const DefaultPassword = "password123"

// Config is the immutable run configuration. It is built once by Load and
// passed explicitly into every reconciler.
type Config struct {
	// Identity provider
	BaseURL          string `env:"KEYCLOAK_URL" env-default:"http://localhost:8080"`
	AdminUsername    string `env:"KEYCLOAK_ADMIN_USER" env-default:"admin"`
	AdminPassword    string `env:"KEYCLOAK_ADMIN_PASSWORD" env-default:"admin"`
	AdminRealm       string `env:"KEYCLOAK_ADMIN_REALM" env-default:"master"`
	AdminClientID    string `env:"KEYCLOAK_ADMIN_CLIENT_ID" env-default:"admin-cli"`
	Realm            string `env:"KEYCLOAK_REALM" env-default:"spending-monitor"`
	RealmDisplayName string `env:"KEYCLOAK_REALM_DISPLAY_NAME" env-default:"Spending Monitor"`
	FrontendURL      string `env:"KEYCLOAK_FRONTEND_URL" env-default:""`

	// Application client
	ClientID     string `env:"KEYCLOAK_CLIENT_ID" env-default:"spending-monitor"`
	RedirectURIs string `env:"KEYCLOAK_REDIRECT_URIS" env-default:"http://localhost:3000/*"`
	WebOrigins   string `env:"KEYCLOAK_WEB_ORIGINS" env-default:"http://localhost:3000"`

	// Provisioned users
	DefaultUserPassword string `env:"KEYCLOAK_DEFAULT_PASSWORD" env-default:"password123"`

	// Timing
	HTTPTimeout   time.Duration `env:"KEYCLOAK_HTTP_TIMEOUT" env-default:"10s"`
	SettleDelay   time.Duration `env:"KEYCLOAK_SETTLE_DELAY" env-default:"3s"`
	ProbeAttempts int           `env:"KEYCLOAK_PROBE_ATTEMPTS" env-default:"3"`

	Environment string `env:"ENVIRONMENT" env-default:"development"`

	// Optional application database; empty means the static user list is used
	DatabaseURL string `env:"DATABASE_URL" env-default:""`

	LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `env:"LOG_FORMAT" env-default:"text"`
}

// Load reads an optional .env file, then builds and validates Config from the environment.
// envFile may be empty, in which case ".env" in the working directory is tried.
// Variables already present in the environment win over the file.
func Load(envFile string) (Config, error) {
	loadEnvFile(envFile)

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, err
	}

	cfg.BaseURL = strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.FrontendURL == "" {
		cfg.FrontendURL = cfg.BaseURL
	}
	cfg.DatabaseURL = NormalizeDatabaseURL(cfg.DatabaseURL)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadEnvFile(path string) {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Debug("No .env file found (using environment variables or defaults)", "path", path)
		return
	}

	slog.Info("Loading configuration from .env file", "path", path)
	if err := godotenv.Load(path); err != nil {
		slog.Warn("Failed to load .env file", "error", err)
	}
}

// Validate checks the fields every stage depends on.
func (c Config) Validate() error {
	return Validate(func() ValidationErrors {
		var errs ValidationErrors
		errs.add(RequireValidURL("KEYCLOAK_URL", c.BaseURL))
		errs.add(RequireNonEmpty("KEYCLOAK_ADMIN_USER", c.AdminUsername))
		errs.add(RequireNonEmpty("KEYCLOAK_ADMIN_PASSWORD", c.AdminPassword))
		errs.add(RequireNonEmpty("KEYCLOAK_ADMIN_REALM", c.AdminRealm))
		errs.add(RequireNonEmpty("KEYCLOAK_REALM", c.Realm))
		errs.add(RequireNonEmpty("KEYCLOAK_CLIENT_ID", c.ClientID))
		errs.add(RequireNonEmpty("KEYCLOAK_DEFAULT_PASSWORD", c.DefaultUserPassword))
		errs.add(RequirePositiveDuration("KEYCLOAK_HTTP_TIMEOUT", c.HTTPTimeout))
		errs.add(RequireNonNegativeDuration("KEYCLOAK_SETTLE_DELAY", c.SettleDelay))
		errs.add(RequirePositive("KEYCLOAK_PROBE_ATTEMPTS", c.ProbeAttempts))
		if len(c.RedirectURIList()) == 0 {
			errs.add(&ValidationError{Field: "KEYCLOAK_REDIRECT_URIS", Message: "at least one redirect URI is required"})
		}
		return errs
	})
}

// RedirectURIList returns the configured redirect URIs, trimmed, empties dropped.
func (c Config) RedirectURIList() []string {
	return SplitList(c.RedirectURIs)
}

// WebOriginList returns the configured web origins, trimmed, empties dropped.
func (c Config) WebOriginList() []string {
	return SplitList(c.WebOrigins)
}

// Env returns the parsed deployment environment.
func (c Config) Env() Environment {
	return ParseEnvironment(c.Environment)
}

// HasDatabase reports whether an application database is configured.
func (c Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// ProductionWarnings lists insecure defaults that should not reach production.
// It returns nil outside the production environment.
func (c Config) ProductionWarnings() []string {
	if c.Env() != Production {
		return nil
	}

	var warnings []string
	if c.DefaultUserPassword == DefaultPassword {
		warnings = append(warnings, "Using default password! Set KEYCLOAK_DEFAULT_PASSWORD to a strong password")
	}
	if strings.Contains(c.BaseURL, "localhost") {
		warnings = append(warnings, "Using localhost URL! Set KEYCLOAK_URL to production URL")
	}
	if anyContains(c.RedirectURIList(), "localhost") {
		warnings = append(warnings, "Using localhost redirect URIs! Set KEYCLOAK_REDIRECT_URIS")
	}
	if anyContains(c.WebOriginList(), "localhost") {
		warnings = append(warnings, "Using localhost web origins! Set KEYCLOAK_WEB_ORIGINS")
	}
	return warnings
}

// LogValue keeps secrets out of structured logs.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("environment", c.Environment),
		slog.String("keycloak_url", c.BaseURL),
		slog.String("admin_realm", c.AdminRealm),
		slog.String("realm", c.Realm),
		slog.String("client_id", c.ClientID),
		slog.Bool("database", c.HasDatabase()),
	)
}

func anyContains(values []string, substr string) bool {
	for _, v := range values {
		if strings.Contains(v, substr) {
			return true
		}
	}
	return false
}
