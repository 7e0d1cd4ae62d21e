package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kcerrors "github.com/tendant/kcbootstrap/pkg/errors"
	"github.com/tendant/kcbootstrap/pkg/keycloak"
	"github.com/tendant/kcbootstrap/pkg/keycloak/keycloaktest"
)

func keycloakClientWithExtras(t *testing.T) keycloak.ClientRepresentation {
	t.Helper()
	var c keycloak.ClientRepresentation
	require.NoError(t, json.Unmarshal([]byte(`{
		"clientId": "spending-monitor",
		"protocol": "openid-connect",
		"consentRequired": true,
		"fullScopeAllowed": false,
		"attributes": {"post.logout.redirect.uris": "+"}
	}`), &c))
	return c
}

func TestMergeClientKeepsUnmanagedFields(t *testing.T) {
	spec := ClientSpecFromConfig(testConfig("http://kc"))
	merged := MergeClient(keycloakClientWithExtras(t), spec)

	out, err := json.Marshal(merged)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "openid-connect", got["protocol"])
	assert.Equal(t, true, got["consentRequired"])
	assert.Equal(t, false, got["fullScopeAllowed"])
	assert.Equal(t, map[string]any{
		"post.logout.redirect.uris": "+",
		PKCEMethodAttribute:         "S256",
	}, got["attributes"])
	assert.Equal(t, "Spending Monitor Frontend", got["name"])
	assert.Equal(t, false, got["implicitFlowEnabled"])
	assert.Equal(t, false, got["serviceAccountsEnabled"])
}

func TestMergeClientPKCEDisabled(t *testing.T) {
	spec := ClientSpecFromConfig(testConfig("http://kc"))
	spec.PKCE = false

	merged := MergeClient(keycloak.ClientRepresentation{Attributes: map[string]string{PKCEMethodAttribute: "S256"}}, spec)
	assert.Equal(t, "", merged.Attributes[PKCEMethodAttribute])

	fresh := MergeClient(keycloak.ClientRepresentation{}, spec)
	assert.Nil(t, fresh.Attributes)
}

func TestMergeClientDoesNotAliasExisting(t *testing.T) {
	existing := keycloakClientWithExtras(t)
	MergeClient(existing, ClientSpecFromConfig(testConfig("http://kc")))
	assert.NotContains(t, existing.Attributes, PKCEMethodAttribute)
	assert.Nil(t, existing.RedirectURIs)
}

func TestClientEnsureNonDestructiveUpdate(t *testing.T) {
	srv := keycloaktest.NewServer()
	defer srv.Close()
	srv.SeedRealm(testRealm)
	srv.SeedClient(testRealm, map[string]any{
		"clientId":         "spending-monitor",
		"protocol":         "openid-connect",
		"consentRequired":  true,
		"fullScopeAllowed": false,
		"redirectUris":     []any{"http://old.example.com/*"},
		"attributes": map[string]any{
			"post.logout.redirect.uris": "+",
			PKCEMethodAttribute:         "plain",
		},
	})

	reconciler := NewClientReconciler(newTestAdmin(t, srv), testRealm)
	spec := ClientSpecFromConfig(testConfig(srv.URL))

	out, err := reconciler.Ensure(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, ActionUpdated, out.Action)

	clients := srv.Clients(testRealm, "spending-monitor")
	require.Len(t, clients, 1)
	stored := clients[0]
	assert.Equal(t, "openid-connect", stored["protocol"])
	assert.Equal(t, true, stored["consentRequired"])
	assert.Equal(t, false, stored["fullScopeAllowed"])
	assert.Equal(t, []any{"http://localhost:3000/*", "http://localhost:5173/*"}, stored["redirectUris"])
	assert.Equal(t, map[string]any{
		"post.logout.redirect.uris": "+",
		PKCEMethodAttribute:         "S256",
	}, stored["attributes"])

	srv.ResetRequests()
	out, err = reconciler.Ensure(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, ActionUnchanged, out.Action)
	assert.Empty(t, srv.Mutations())
}

func TestClientEnsureListFailure(t *testing.T) {
	srv := keycloaktest.NewServer()
	defer srv.Close()
	srv.SeedRealm(testRealm)
	srv.FailOn(http.MethodGet, "/admin/realms/"+testRealm+"/clients", http.StatusBadGateway)

	_, err := NewClientReconciler(newTestAdmin(t, srv), testRealm).Ensure(context.Background(), ClientSpecFromConfig(testConfig(srv.URL)))
	require.Error(t, err)
	assert.True(t, kcerrors.IsCode(err, kcerrors.ErrCodeResourceError))
	assert.Equal(t, http.StatusBadGateway, keycloak.StatusCode(err))
}

func TestClientEnsureUpdateFailure(t *testing.T) {
	srv := keycloaktest.NewServer()
	defer srv.Close()
	srv.SeedRealm(testRealm)
	srv.SeedClient(testRealm, map[string]any{"id": "c-1", "clientId": "spending-monitor"})
	srv.FailOn(http.MethodPut, "/admin/realms/"+testRealm+"/clients/c-1", http.StatusInternalServerError)

	_, err := NewClientReconciler(newTestAdmin(t, srv), testRealm).Ensure(context.Background(), ClientSpecFromConfig(testConfig(srv.URL)))
	require.Error(t, err)
	assert.True(t, kcerrors.IsCode(err, kcerrors.ErrCodeResourceError))
	assert.Equal(t, http.StatusInternalServerError, keycloak.StatusCode(err))
}

func TestClientEnsureFlagsFollowClientSpec(t *testing.T) {
	srv := keycloaktest.NewServer()
	defer srv.Close()
	srv.SeedRealm(testRealm)
	srv.SeedClient(testRealm, map[string]any{
		"clientId":               "spending-monitor",
		"enabled":                false,
		"standardFlowEnabled":    false,
		"serviceAccountsEnabled": true,
		"frontchannelLogout":     true,
		"bearerOnly":             false,
	})

	spec := ClientSpecFromConfig(testConfig(srv.URL))
	spec.ServiceAccounts = true
	spec.StandardFlow = false
	spec.Enabled = false

	_, err := NewClientReconciler(newTestAdmin(t, srv), testRealm).Ensure(context.Background(), spec)
	require.NoError(t, err)

	clients := srv.Clients(testRealm, "spending-monitor")
	require.Len(t, clients, 1)
	stored := clients[0]
	assert.Equal(t, false, stored["enabled"])
	assert.Equal(t, false, stored["standardFlowEnabled"])
	assert.Equal(t, true, stored["serviceAccountsEnabled"])
	assert.Equal(t, false, stored["implicitFlowEnabled"])
	assert.Equal(t, true, stored["frontchannelLogout"])
	assert.Equal(t, false, stored["bearerOnly"])
}

func TestClientSpecFromConfigFlags(t *testing.T) {
	spec := ClientSpecFromConfig(testConfig("http://kc"))
	assert.True(t, spec.Enabled)
	assert.True(t, spec.Public)
	assert.True(t, spec.StandardFlow)
	assert.True(t, spec.DirectAccessGrants)
	assert.False(t, spec.ServiceAccounts)
	assert.False(t, spec.ImplicitFlow)
}
