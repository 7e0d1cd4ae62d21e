package bootstrap

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"github.com/tendant/kcbootstrap/pkg/config"
	kcerrors "github.com/tendant/kcbootstrap/pkg/errors"
	"github.com/tendant/kcbootstrap/pkg/keycloak"
)

// RealmSpec is the desired realm.
type RealmSpec struct {
	Name            string
	DisplayName     string
	DisplayNameHTML string
	FrontendURL     string
	Enabled         bool
}

// RealmSpecFromConfig builds the realm spec for a run.
func RealmSpecFromConfig(cfg config.Config) RealmSpec {
	return RealmSpec{
		Name:            cfg.Realm,
		DisplayName:     cfg.RealmDisplayName,
		DisplayNameHTML: fmt.Sprintf(`<div class="kc-logo-text"><span>%s</span></div>`, html.EscapeString(cfg.RealmDisplayName)),
		FrontendURL:     cfg.FrontendURL,
		Enabled:         true,
	}
}

func (s RealmSpec) representation() keycloak.RealmRepresentation {
	rep := keycloak.RealmRepresentation{
		Realm:           s.Name,
		Enabled:         s.Enabled,
		DisplayName:     s.DisplayName,
		DisplayNameHTML: s.DisplayNameHTML,
	}
	if s.FrontendURL != "" {
		rep.Attributes = map[string]string{"frontendUrl": s.FrontendURL}
	}
	return rep
}

// RealmReconciler creates the realm when it does not exist. An existing realm is left as is.
type RealmReconciler struct {
	admin *keycloak.AdminClient
}

func NewRealmReconciler(admin *keycloak.AdminClient) *RealmReconciler {
	return &RealmReconciler{admin: admin}
}

// Ensure creates the realm. A conflict means it already exists and counts as success.
func (r *RealmReconciler) Ensure(ctx context.Context, spec RealmSpec) (Outcome, error) {
	err := r.admin.CreateRealm(ctx, spec.representation())
	switch {
	case err == nil:
		slog.Info("Realm created", "realm", spec.Name)
		return succeeded(StageRealm, ActionCreated, "realm %q created", spec.Name), nil
	case keycloak.IsConflict(err):
		slog.Info("Realm already exists", "realm", spec.Name)
		return succeeded(StageRealm, ActionUnchanged, "realm %q already exists", spec.Name), nil
	default:
		return Outcome{}, kcerrors.ResourceFailed(err, "realm", spec.Name)
	}
}
