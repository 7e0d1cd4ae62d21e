package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/kcbootstrap/pkg/config"
	kcerrors "github.com/tendant/kcbootstrap/pkg/errors"
	"github.com/tendant/kcbootstrap/pkg/keycloak"
	"github.com/tendant/kcbootstrap/pkg/usersource"
)

// State is how far a run has converged the provider.
type State int

const (
	StateUnauthenticated State = iota
	StateRealmReady
	StateClientReady
	StateRolesReady
	StateUsersReady
	StateVerified
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "Unauthenticated"
	case StateRealmReady:
		return "RealmReady"
	case StateClientReady:
		return "ClientReady"
	case StateRolesReady:
		return "RolesReady"
	case StateUsersReady:
		return "UsersReady"
	case StateVerified:
		return "Verified"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Category decides what a stage failure does to the run.
type Category int

const (
	// Structural stages abort the run on failure.
	Structural Category = iota
	// BestEffort stages log their failure and the run continues.
	BestEffort
)

func (c Category) String() string {
	if c == BestEffort {
		return "best-effort"
	}
	return "structural"
}

// Stage names as they appear in outcomes and logs.
const (
	StageAuthenticate = "authenticate"
	StageRealm        = "realm"
	StageClient       = "client"
	StageRoles        = "roles"
	StageUsers        = "users"
	StageVerify       = "verify"
)

type stage struct {
	name     string
	category Category
	reaches  State
	run      func(ctx context.Context) (Outcome, error)
}

// Report is the result of Run.
type Report struct {
	RunID     string
	State     State
	Outcomes  []Outcome
	Users     UsersResult
	Discovery *keycloak.Discovery
	Success   bool
	Err       error
	Duration  time.Duration
}

// Outcome returns the outcome recorded for stage.
func (r *Report) Outcome(stage string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Stage == stage {
			return o, true
		}
	}
	return Outcome{}, false
}

// Orchestrator runs the stages in order under the structural/best-effort policy.
type Orchestrator struct {
	cfg      config.Config
	runID    string
	primary  usersource.Source
	fallback usersource.Source
	probe    *Probe
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithRunID tags the run with id instead of a generated one.
func WithRunID(id string) Option {
	return func(o *Orchestrator) { o.runID = id }
}

// WithUserSources replaces the database and static sources. primary may be nil.
func WithUserSources(primary, fallback usersource.Source) Option {
	return func(o *Orchestrator) {
		o.primary = primary
		o.fallback = fallback
	}
}

// WithProbe replaces the verification probe.
func WithProbe(p *Probe) Option {
	return func(o *Orchestrator) { o.probe = p }
}

// New returns an orchestrator for cfg. The database source is used only when DATABASE_URL is set.
func New(cfg config.Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:      cfg,
		runID:    uuid.NewString(),
		fallback: usersource.NewStaticSource(cfg.DefaultUserPassword),
		probe:    NewProbe(cfg),
	}
	if cfg.HasDatabase() {
		o.primary = usersource.NewDatabaseSource(cfg.DatabaseURL, cfg.DefaultUserPassword, cfg.HTTPTimeout)
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SessionConfig returns the admin credential settings of cfg.
func SessionConfig(cfg config.Config) keycloak.SessionConfig {
	return keycloak.SessionConfig{
		BaseURL:  cfg.BaseURL,
		Realm:    cfg.AdminRealm,
		ClientID: cfg.AdminClientID,
		Username: cfg.AdminUsername,
		Password: cfg.AdminPassword,
		Timeout:  cfg.HTTPTimeout,
	}
}

// Run converges the provider. The returned error is the structural failure that
// stopped the run, if any; the report is always non-nil.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: o.runID, State: StateUnauthenticated}

	slog.Info("Starting identity provider bootstrap", "run_id", o.runID, "config", o.cfg)

	finish := func(err error) (*Report, error) {
		report.Duration = time.Since(start)
		report.Err = err
		report.Success = err == nil
		if err != nil {
			slog.Error("Bootstrap failed",
				"run_id", o.runID,
				"state", report.State.String(),
				"code", kcerrors.GetCode(err),
				"error", err)
		} else {
			slog.Info("Bootstrap completed", "run_id", o.runID, "state", report.State.String(), "duration", report.Duration)
		}
		return report, err
	}

	session, err := keycloak.Acquire(ctx, SessionConfig(o.cfg))
	if err != nil {
		report.Outcomes = append(report.Outcomes, failed(StageAuthenticate, err))
		return finish(err)
	}
	report.Outcomes = append(report.Outcomes, succeeded(StageAuthenticate, ActionCreated, "token expires at %s", session.ExpiresAt.Format(time.RFC3339)))

	for _, st := range o.stages(session.Admin(), report) {
		out, err := st.run(ctx)
		if err == nil {
			report.Outcomes = append(report.Outcomes, out)
			report.State = st.reaches
			continue
		}

		report.Outcomes = append(report.Outcomes, failed(st.name, err))
		if st.category == Structural {
			return finish(err)
		}
		slog.Warn("Stage failed, continuing",
			"stage", st.name,
			"category", st.category.String(),
			"code", kcerrors.GetCode(err),
			"error", err)
	}

	return finish(nil)
}

func (o *Orchestrator) stages(admin *keycloak.AdminClient, report *Report) []stage {
	realm := o.cfg.Realm
	return []stage{
		{
			name:     StageRealm,
			category: Structural,
			reaches:  StateRealmReady,
			run: func(ctx context.Context) (Outcome, error) {
				return NewRealmReconciler(admin).Ensure(ctx, RealmSpecFromConfig(o.cfg))
			},
		},
		{
			name:     StageClient,
			category: Structural,
			reaches:  StateClientReady,
			run: func(ctx context.Context) (Outcome, error) {
				return NewClientReconciler(admin, realm).Ensure(ctx, ClientSpecFromConfig(o.cfg))
			},
		},
		{
			name:     StageRoles,
			category: Structural,
			reaches:  StateRolesReady,
			run: func(ctx context.Context) (Outcome, error) {
				return NewRoleReconciler(admin, realm).Ensure(ctx, DefaultRoles(realm))
			},
		},
		{
			// Per-user failures are recorded in the result; only an interrupted batch fails the stage.
			name:     StageUsers,
			category: Structural,
			reaches:  StateUsersReady,
			run: func(ctx context.Context) (Outcome, error) {
				users, source := usersource.Select(ctx, o.primary, o.fallback)
				result, err := NewUserReconciler(admin, realm).Ensure(ctx, users, AdminIdentity(o.cfg.DefaultUserPassword))
				result.Source = source
				report.Users = result
				if err != nil {
					return Outcome{}, kcerrors.Wrap(err, kcerrors.ErrCodeInternal, "user stage interrupted")
				}

				ok, total := result.Total()
				action := ActionUnchanged
				if result.Changed() {
					action = ActionCreated
				}
				out := succeeded(StageUsers, action, "%d/%d users ensured from %s source", ok, total, source)
				out.Succeeded, out.Attempted = ok, total
				return out, nil
			},
		},
		{
			name:     StageVerify,
			category: BestEffort,
			reaches:  StateVerified,
			run: func(ctx context.Context) (Outcome, error) {
				doc, err := o.probe.Run(ctx)
				if err != nil {
					return Outcome{}, err
				}
				report.Discovery = doc
				return succeeded(StageVerify, ActionUnchanged, "issuer %s", doc.Issuer), nil
			},
		},
	}
}
