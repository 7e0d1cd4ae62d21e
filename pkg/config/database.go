package config

import "strings"

// driverSchemes are SQLAlchemy-style URL schemes that pgx does not understand.
var driverSchemes = []string{
	"postgresql+asyncpg://",
	"postgresql+psycopg2://",
	"postgresql+psycopg://",
	"postgres+asyncpg://",
}

// NormalizeDatabaseURL rewrites driver-qualified schemes, as written for the
// application's Python tooling, into a plain postgres:// URL.
func NormalizeDatabaseURL(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	for _, scheme := range driverSchemes {
		if strings.HasPrefix(dsn, scheme) {
			return "postgres://" + strings.TrimPrefix(dsn, scheme)
		}
	}
	return dsn
}
