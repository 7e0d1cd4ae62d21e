package keycloak

import (
	"context"
	"net/http"
)

// CreateRealmRole creates a realm role. An existing role yields an *APIError with status 409.
func (c *AdminClient) CreateRealmRole(ctx context.Context, realm string, role RoleRepresentation) error {
	_, err := c.do(ctx, "create role", http.MethodPost, realmPath(realm, "roles"), nil, role, nil, http.StatusCreated)
	return err
}

// GetRealmRole fetches a realm role by name.
func (c *AdminClient) GetRealmRole(ctx context.Context, realm, name string) (*RoleRepresentation, error) {
	var role RoleRepresentation
	if _, err := c.do(ctx, "get role", http.MethodGet, realmPath(realm, "roles", name), nil, nil, &role, http.StatusOK); err != nil {
		return nil, err
	}
	return &role, nil
}

// GetUserRealmRoles lists the realm roles directly mapped to a user.
func (c *AdminClient) GetUserRealmRoles(ctx context.Context, realm, userID string) ([]RoleRepresentation, error) {
	var roles []RoleRepresentation
	if _, err := c.do(ctx, "get role mappings", http.MethodGet, realmPath(realm, "users", userID, "role-mappings", "realm"), nil, nil, &roles, http.StatusOK); err != nil {
		return nil, err
	}
	return roles, nil
}

// AddUserRealmRoles maps realm roles to a user. Mapping a role twice is a no-op on the provider.
func (c *AdminClient) AddUserRealmRoles(ctx context.Context, realm, userID string, roles []RoleRepresentation) error {
	_, err := c.do(ctx, "add role mappings", http.MethodPost, realmPath(realm, "users", userID, "role-mappings", "realm"), nil, roles, nil, http.StatusNoContent)
	return err
}
