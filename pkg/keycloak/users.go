package keycloak

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// FindUserByUsername returns the user with exactly this username, or nil when none exists.
// Usernames are stored lower-case by the provider, so the match ignores case.
func (c *AdminClient) FindUserByUsername(ctx context.Context, realm, username string) (*UserRepresentation, error) {
	query := url.Values{}
	query.Set("username", username)
	query.Set("exact", "true")

	var users []UserRepresentation
	if _, err := c.do(ctx, "find user", http.MethodGet, realmPath(realm, "users"), query, nil, &users, http.StatusOK); err != nil {
		return nil, err
	}
	for i := range users {
		if strings.EqualFold(users[i].Username, username) {
			return &users[i], nil
		}
	}
	return nil, nil
}

// CreateUser creates a user and returns the id taken from the Location header.
// An existing username yields an *APIError with status 409.
func (c *AdminClient) CreateUser(ctx context.Context, realm string, user UserRepresentation) (string, error) {
	header, err := c.do(ctx, "create user", http.MethodPost, realmPath(realm, "users"), nil, user, nil, http.StatusCreated)
	if err != nil {
		return "", err
	}
	return idFromLocation(header), nil
}
