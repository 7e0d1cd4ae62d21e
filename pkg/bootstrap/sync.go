package bootstrap

import (
	"context"
	"log/slog"

	"github.com/tendant/kcbootstrap/pkg/config"
	kcerrors "github.com/tendant/kcbootstrap/pkg/errors"
	"github.com/tendant/kcbootstrap/pkg/keycloak"
	"github.com/tendant/kcbootstrap/pkg/usersource"
)

// SyncUsers copies active database users into an already bootstrapped realm.
// Unlike Run it has no fallback list and does not touch the admin identity.
// It fails when the database yields nothing or when no user could be ensured.
func SyncUsers(ctx context.Context, cfg config.Config, source usersource.Source) (*UsersResult, error) {
	if source == nil {
		if !cfg.HasDatabase() {
			return nil, kcerrors.InvalidInput("DATABASE_URL", "required for user sync")
		}
		source = usersource.NewDatabaseSource(cfg.DatabaseURL, cfg.DefaultUserPassword, cfg.HTTPTimeout)
	}

	session, err := keycloak.Acquire(ctx, SessionConfig(cfg))
	if err != nil {
		return nil, err
	}

	users, err := source.Users(ctx)
	if err != nil {
		return nil, kcerrors.Wrap(err, kcerrors.ErrCodeSourceUnavailable, "read users")
	}
	if len(users) == 0 {
		return nil, kcerrors.New(kcerrors.ErrCodeSourceUnavailable, "no active users found")
	}

	slog.Info("Syncing users", "realm", cfg.Realm, "source", source.Name(), "count", len(users))

	reconciler := NewUserReconciler(session.Admin(), cfg.Realm)
	result := &UsersResult{Source: source.Name(), Attempted: len(users)}
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		res := reconciler.EnsureUser(ctx, u)
		if res.OK() {
			result.Succeeded++
		}
		result.Users = append(result.Users, res)
	}

	slog.Info("User sync finished", "succeeded", result.Succeeded, "attempted", result.Attempted)
	if result.Succeeded == 0 {
		return result, kcerrors.New(kcerrors.ErrCodeUserProvisioning, "no users were synced")
	}
	return result, nil
}

// Verify runs only the discovery probe, without a settle delay.
func Verify(ctx context.Context, cfg config.Config) (*keycloak.Discovery, error) {
	probe := NewProbe(cfg)
	probe.SettleDelay = 0
	return probe.Run(ctx)
}
