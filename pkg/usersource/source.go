// Package usersource produces the users a bootstrap run provisions.
//
// The application database is the primary source. When it is not configured,
// cannot be read, or has no active users, Select falls back to a fixed list of
// development identities.
package usersource

import (
	"context"
	"log/slog"
	"strings"
)

// DefaultRole is granted to every provisioned user.
const DefaultRole = "user"

// DesiredUser is one user that should exist in the identity provider.
type DesiredUser struct {
	Username  string
	Email     string
	Password  string
	Roles     []string
	FirstName string
	LastName  string
	// SourceID is the application database key, empty for static users
	SourceID string
}

// Source yields desired users.
type Source interface {
	Name() string
	Users(ctx context.Context) ([]DesiredUser, error)
}

// Select returns the primary source's users, or the fallback's when the primary
// is nil, fails or yields nothing. The name of the source actually used is returned
// alongside.
func Select(ctx context.Context, primary, fallback Source) ([]DesiredUser, string) {
	if primary != nil {
		users, err := primary.Users(ctx)
		switch {
		case err != nil:
			slog.Warn("Could not read users, using fallback list",
				"source", primary.Name(),
				"fallback", fallback.Name(),
				"error", err)
		case len(users) == 0:
			slog.Warn("No users found, using fallback list",
				"source", primary.Name(),
				"fallback", fallback.Name())
		default:
			slog.Info("Loaded users", "source", primary.Name(), "count", len(users))
			return users, primary.Name()
		}
	}

	users, err := fallback.Users(ctx)
	if err != nil {
		slog.Error("Fallback user source failed", "source", fallback.Name(), "error", err)
		return nil, fallback.Name()
	}
	slog.Info("Loaded users", "source", fallback.Name(), "count", len(users))
	return users, fallback.Name()
}

// UsernameFor derives a login name: the local part of email, or "user<id>" without one.
func UsernameFor(id, email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return "user" + id
	}
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}
