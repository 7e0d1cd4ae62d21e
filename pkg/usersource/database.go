package usersource

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	kcerrors "github.com/tendant/kcbootstrap/pkg/errors"
	"github.com/tendant/kcbootstrap/pkg/usersource/usersdb"
)

// DatabaseSource reads active users from the application database.
// Each call opens its own pool and closes it before returning.
type DatabaseSource struct {
	DSN      string
	Password string
	// Timeout bounds connect plus query; zero means no bound beyond ctx
	Timeout time.Duration
}

// NewDatabaseSource returns a source for dsn, handing password to every user.
func NewDatabaseSource(dsn, password string, timeout time.Duration) *DatabaseSource {
	return &DatabaseSource{DSN: dsn, Password: password, Timeout: timeout}
}

func (s *DatabaseSource) Name() string { return "database" }

// Users runs ListActiveUsers inside a read-only transaction that is always rolled back.
func (s *DatabaseSource) Users(ctx context.Context) ([]DesiredUser, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	poolConfig, err := pgxpool.ParseConfig(s.DSN)
	if err != nil {
		return nil, kcerrors.Wrap(err, kcerrors.ErrCodeSourceUnavailable, "parse database url")
	}
	poolConfig.MaxConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, kcerrors.Wrap(err, kcerrors.ErrCodeSourceUnavailable, "create database pool")
	}
	defer pool.Close()

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, kcerrors.Wrap(err, kcerrors.ErrCodeSourceUnavailable, "begin read-only transaction")
	}
	// Read-only; nothing to commit
	defer tx.Rollback(context.Background())

	rows, err := usersdb.New(pool).WithTx(tx).ListActiveUsers(ctx)
	if err != nil {
		return nil, kcerrors.Wrap(err, kcerrors.ErrCodeSourceUnavailable, "list active users")
	}

	users := make([]DesiredUser, 0, len(rows))
	for _, row := range rows {
		users = append(users, DesiredUser{
			Username:  UsernameFor(row.ID, row.Email.String),
			Email:     row.Email.String,
			Password:  s.Password,
			Roles:     []string{DefaultRole},
			FirstName: row.FirstName.String,
			LastName:  row.LastName.String,
			SourceID:  row.ID,
		})
	}

	slog.Debug("Read active users from database", "count", len(users))
	return users, nil
}
