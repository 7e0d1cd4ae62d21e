package keycloak

import (
	"context"
	"net/http"
)

// CreateRealm posts a new realm. An existing realm yields an *APIError with status 409.
func (c *AdminClient) CreateRealm(ctx context.Context, realm RealmRepresentation) error {
	_, err := c.do(ctx, "create realm", http.MethodPost, "/admin/realms", nil, realm, nil, http.StatusCreated)
	return err
}
