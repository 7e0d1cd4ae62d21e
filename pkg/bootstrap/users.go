package bootstrap

import (
	"context"
	"log/slog"
	"slices"

	kcerrors "github.com/tendant/kcbootstrap/pkg/errors"
	"github.com/tendant/kcbootstrap/pkg/keycloak"
	"github.com/tendant/kcbootstrap/pkg/usersource"
)

// Fixed operator identity ensured on every run.
const (
	AdminUsername = "admin"
	AdminEmail    = "admin@example.com"

	sourceIDAttribute = "db_user_id"
)

// AdminIdentity returns the operator account with the user and admin roles.
func AdminIdentity(password string) usersource.DesiredUser {
	return usersource.DesiredUser{
		Username: AdminUsername,
		Email:    AdminEmail,
		Password: password,
		Roles:    []string{RoleUser, RoleAdmin},
	}
}

// UserResult is what happened to one desired user.
type UserResult struct {
	Username string
	UserID   string
	Created  bool
	// RolesAssigned lists roles mapped by this run; already-mapped roles are not repeated
	RolesAssigned []string
	// RoleErrors holds role-mapping failures, which do not fail the user
	RoleErrors []error
	Err        error
}

// OK reports whether the user exists on the provider after the run.
func (r UserResult) OK() bool {
	return r.Err == nil && r.UserID != ""
}

// UsersResult summarizes the user stage.
type UsersResult struct {
	Source    string
	Users     []UserResult
	Admin     *UserResult
	Succeeded int
	Attempted int
}

// Total returns successes and attempts including the admin identity.
func (r UsersResult) Total() (succeeded, attempted int) {
	succeeded, attempted = r.Succeeded, r.Attempted
	if r.Admin != nil {
		attempted++
		if r.Admin.OK() {
			succeeded++
		}
	}
	return succeeded, attempted
}

// Changed reports whether any user was created or had a role mapped.
func (r UsersResult) Changed() bool {
	all := r.Users
	if r.Admin != nil {
		all = append(slices.Clone(all), *r.Admin)
	}
	for _, u := range all {
		if u.Created || len(u.RolesAssigned) > 0 {
			return true
		}
	}
	return false
}

// UserReconciler ensures users exist and carry their realm roles. Every failure
// here is per user: it is logged, recorded and the batch continues.
type UserReconciler struct {
	admin *keycloak.AdminClient
	realm string
}

func NewUserReconciler(admin *keycloak.AdminClient, realm string) *UserReconciler {
	return &UserReconciler{admin: admin, realm: realm}
}

// Ensure processes users in order and then the admin identity. The returned error
// is non-nil only when ctx ends, which is an orchestration failure rather than a
// per-user one.
func (r *UserReconciler) Ensure(ctx context.Context, users []usersource.DesiredUser, admin usersource.DesiredUser) (UsersResult, error) {
	result := UsersResult{Attempted: len(users)}

	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		res := r.EnsureUser(ctx, u)
		if res.OK() {
			result.Succeeded++
		}
		result.Users = append(result.Users, res)
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	adminRes := r.EnsureUser(ctx, admin)
	result.Admin = &adminRes

	slog.Info("Users ensured",
		"realm", r.realm,
		"succeeded", result.Succeeded,
		"attempted", result.Attempted,
		"admin_ok", adminRes.OK())

	return result, ctx.Err()
}

// EnsureUser resolves or creates one user and maps its roles.
func (r *UserReconciler) EnsureUser(ctx context.Context, u usersource.DesiredUser) UserResult {
	res := UserResult{Username: u.Username}

	id, created, err := r.resolveUser(ctx, u)
	if err != nil {
		res.Err = err
		slog.Warn("Skipping user", "username", u.Username, "error", err)
		return res
	}
	res.UserID, res.Created = id, created

	for _, role := range u.Roles {
		assigned, err := r.assignRole(ctx, id, role)
		if err != nil {
			res.RoleErrors = append(res.RoleErrors, err)
			slog.Warn("Role assignment failed", "username", u.Username, "role", role, "error", err)
			continue
		}
		if assigned {
			res.RolesAssigned = append(res.RolesAssigned, role)
		}
	}

	slog.Info("User ensured",
		"username", u.Username,
		"id", id,
		"created", created,
		"roles_assigned", res.RolesAssigned)
	return res
}

// resolveUser returns the id of u, creating the user when the lookup finds nothing.
func (r *UserReconciler) resolveUser(ctx context.Context, u usersource.DesiredUser) (string, bool, error) {
	existing, err := r.admin.FindUserByUsername(ctx, r.realm, u.Username)
	if err != nil {
		return "", false, kcerrors.UserFailed(err, u.Username, "lookup")
	}
	if existing != nil {
		return existing.ID, false, nil
	}

	rep := keycloak.UserRepresentation{
		Username:      u.Username,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Enabled:       true,
		EmailVerified: true,
		Credentials:   []keycloak.CredentialRepresentation{keycloak.PasswordCredential(u.Password)},
	}
	if u.SourceID != "" {
		rep.Attributes = map[string][]string{sourceIDAttribute: {u.SourceID}}
	}

	id, err := r.admin.CreateUser(ctx, r.realm, rep)
	switch {
	case err == nil && id != "":
		return id, true, nil
	case err == nil, keycloak.IsConflict(err):
		// Created concurrently or no Location header; look the id up again
		again, lookupErr := r.admin.FindUserByUsername(ctx, r.realm, u.Username)
		if lookupErr != nil {
			return "", false, kcerrors.UserFailed(lookupErr, u.Username, "re-fetch after create")
		}
		if again == nil {
			return "", false, kcerrors.UserFailed(nil, u.Username, "not found after create")
		}
		return again.ID, err == nil, nil
	default:
		return "", false, kcerrors.UserFailed(err, u.Username, "create")
	}
}

// assignRole maps role to the user unless it is already mapped. It reports whether a mapping was added.
func (r *UserReconciler) assignRole(ctx context.Context, userID, roleName string) (bool, error) {
	role, err := r.admin.GetRealmRole(ctx, r.realm, roleName)
	if err != nil {
		return false, err
	}

	current, err := r.admin.GetUserRealmRoles(ctx, r.realm, userID)
	if err != nil {
		return false, err
	}
	if slices.ContainsFunc(current, func(m keycloak.RoleRepresentation) bool { return m.Name == roleName }) {
		return false, nil
	}

	if err := r.admin.AddUserRealmRoles(ctx, r.realm, userID, []keycloak.RoleRepresentation{*role}); err != nil {
		return false, err
	}
	return true, nil
}
