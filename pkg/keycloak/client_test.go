package keycloak_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/kcbootstrap/pkg/keycloak"
	"github.com/tendant/kcbootstrap/pkg/keycloak/keycloaktest"
)

func newAdmin(t *testing.T) (*keycloaktest.Server, *keycloak.AdminClient) {
	t.Helper()
	srv := keycloaktest.NewServer()
	t.Cleanup(srv.Close)

	session, err := keycloak.Acquire(context.Background(), sessionConfig(srv.URL))
	require.NoError(t, err)
	return srv, session.Admin()
}

func TestCreateRealmConflict(t *testing.T) {
	srv, admin := newAdmin(t)
	ctx := context.Background()

	rep := keycloak.RealmRepresentation{Realm: "acme", Enabled: true}
	require.NoError(t, admin.CreateRealm(ctx, rep))
	assert.True(t, srv.HasRealm("acme"))

	err := admin.CreateRealm(ctx, rep)
	require.Error(t, err)
	assert.True(t, keycloak.IsConflict(err))

	var apiErr *keycloak.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "create realm", apiErr.Op)
	assert.Contains(t, apiErr.Body, "Conflict")
}

func TestCreateClientAndFind(t *testing.T) {
	srv, admin := newAdmin(t)
	ctx := context.Background()
	srv.SeedRealm("acme")

	missing, err := admin.FindClient(ctx, "acme", "web")
	require.NoError(t, err)
	assert.Nil(t, missing)

	id, err := admin.CreateClient(ctx, "acme", keycloak.ClientRepresentation{
		ClientID: keycloak.StringP("web"),
		Enabled:  keycloak.BoolP(true),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	found, err := admin.FindClient(ctx, "acme", "web")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, id, found.GetID())
}

func TestUpdateClientMissing(t *testing.T) {
	_, admin := newAdmin(t)

	err := admin.UpdateClient(context.Background(), "master", keycloak.ClientRepresentation{ID: keycloak.StringP("nope")})
	require.Error(t, err)
	assert.True(t, keycloak.IsNotFound(err))
}

func TestCreateUserReturnsLocationID(t *testing.T) {
	srv, admin := newAdmin(t)
	ctx := context.Background()

	id, err := admin.CreateUser(ctx, "master", keycloak.UserRepresentation{
		Username:    "alice",
		Enabled:     true,
		Credentials: []keycloak.CredentialRepresentation{keycloak.PasswordCredential("secret")},
	})
	require.NoError(t, err)

	stored, ok := srv.User("master", "alice")
	require.True(t, ok)
	assert.Equal(t, stored.ID, id)

	_, err = admin.CreateUser(ctx, "master", keycloak.UserRepresentation{Username: "alice"})
	assert.True(t, keycloak.IsConflict(err))
}

func TestFindUserByUsernameExact(t *testing.T) {
	srv, admin := newAdmin(t)
	ctx := context.Background()
	srv.SeedUser("master", "user10")
	srv.SeedUser("master", "user1")

	u, err := admin.FindUserByUsername(ctx, "master", "user1")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "user1", u.Username)

	none, err := admin.FindUserByUsername(ctx, "master", "user")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestRoleMappings(t *testing.T) {
	srv, admin := newAdmin(t)
	ctx := context.Background()
	srv.SeedUser("master", "bob")

	require.NoError(t, admin.CreateRealmRole(ctx, "master", keycloak.RoleRepresentation{Name: "user"}))
	assert.True(t, keycloak.IsConflict(admin.CreateRealmRole(ctx, "master", keycloak.RoleRepresentation{Name: "user"})))

	role, err := admin.GetRealmRole(ctx, "master", "user")
	require.NoError(t, err)
	assert.NotEmpty(t, role.ID)

	_, err = admin.GetRealmRole(ctx, "master", "missing")
	assert.True(t, keycloak.IsNotFound(err))

	bob, err := admin.FindUserByUsername(ctx, "master", "bob")
	require.NoError(t, err)

	require.NoError(t, admin.AddUserRealmRoles(ctx, "master", bob.ID, []keycloak.RoleRepresentation{*role}))
	mapped, err := admin.GetUserRealmRoles(ctx, "master", bob.ID)
	require.NoError(t, err)
	require.Len(t, mapped, 1)
	assert.Equal(t, "user", mapped[0].Name)
}

func TestUnexpectedStatus(t *testing.T) {
	srv, admin := newAdmin(t)
	srv.FailOn(http.MethodGet, "/admin/realms/master/clients", http.StatusInternalServerError)

	_, err := admin.ListClients(context.Background(), "master")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, keycloak.StatusCode(err))
	assert.Contains(t, err.Error(), "list clients: unexpected status 500")
}
