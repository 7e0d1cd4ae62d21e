package keycloak

import (
	"context"
	"net/http"
)

// ListClients returns every client registered in realm.
func (c *AdminClient) ListClients(ctx context.Context, realm string) ([]ClientRepresentation, error) {
	var clients []ClientRepresentation
	if _, err := c.do(ctx, "list clients", http.MethodGet, realmPath(realm, "clients"), nil, nil, &clients, http.StatusOK); err != nil {
		return nil, err
	}
	return clients, nil
}

// FindClient returns the client whose clientId equals clientID, or nil when none exists.
func (c *AdminClient) FindClient(ctx context.Context, realm, clientID string) (*ClientRepresentation, error) {
	clients, err := c.ListClients(ctx, realm)
	if err != nil {
		return nil, err
	}
	for i := range clients {
		if clients[i].GetClientID() == clientID {
			return &clients[i], nil
		}
	}
	return nil, nil
}

// CreateClient registers a client and returns its provider id when the Location header carries one.
func (c *AdminClient) CreateClient(ctx context.Context, realm string, client ClientRepresentation) (string, error) {
	header, err := c.do(ctx, "create client", http.MethodPost, realmPath(realm, "clients"), nil, client, nil, http.StatusCreated)
	if err != nil {
		return "", err
	}
	return idFromLocation(header), nil
}

// UpdateClient replaces the client identified by client.ID.
func (c *AdminClient) UpdateClient(ctx context.Context, realm string, client ClientRepresentation) error {
	_, err := c.do(ctx, "update client", http.MethodPut, realmPath(realm, "clients", client.GetID()), nil, client, nil, http.StatusNoContent)
	return err
}
