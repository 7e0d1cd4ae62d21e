package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	kcerrors "github.com/tendant/kcbootstrap/pkg/errors"
	"github.com/tendant/kcbootstrap/pkg/keycloak"
)

// Realm roles every run ensures.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// RoleSpec is a desired realm role.
type RoleSpec struct {
	Name        string
	Description string
}

// DefaultRoles returns the user and admin roles for realm.
func DefaultRoles(realm string) []RoleSpec {
	return []RoleSpec{
		{Name: RoleUser, Description: fmt.Sprintf("User role for %s", realm)},
		{Name: RoleAdmin, Description: fmt.Sprintf("Admin role for %s", realm)},
	}
}

// RoleReconciler creates missing realm roles.
type RoleReconciler struct {
	admin *keycloak.AdminClient
	realm string
}

func NewRoleReconciler(admin *keycloak.AdminClient, realm string) *RoleReconciler {
	return &RoleReconciler{admin: admin, realm: realm}
}

// Ensure creates each role in order. A conflict means the role exists. The first
// other failure aborts; later roles are not attempted.
func (r *RoleReconciler) Ensure(ctx context.Context, roles []RoleSpec) (Outcome, error) {
	created := 0
	for _, role := range roles {
		err := r.admin.CreateRealmRole(ctx, r.realm, keycloak.RoleRepresentation{
			Name:        role.Name,
			Description: role.Description,
		})
		switch {
		case err == nil:
			created++
			slog.Info("Role created", "realm", r.realm, "role", role.Name)
		case keycloak.IsConflict(err):
			slog.Info("Role already exists", "realm", r.realm, "role", role.Name)
		default:
			return Outcome{}, kcerrors.ResourceFailed(err, "role", role.Name)
		}
	}

	action := ActionUnchanged
	if created > 0 {
		action = ActionCreated
	}
	out := succeeded(StageRoles, action, "%d created, %d already existed", created, len(roles)-created)
	out.Succeeded, out.Attempted = len(roles), len(roles)
	return out, nil
}
