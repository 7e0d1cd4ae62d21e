// Package keycloak is a small client for the Keycloak admin REST API.
//
// A run starts with Acquire, which performs a password grant against the admin
// realm and returns a Session. The Session hands out an *http.Client that adds
// the bearer header to every request; AdminClient wraps that client with typed
// calls for realms, clients, roles, users and realm-role mappings.
//
// Non-2xx answers are returned as *APIError so callers can tell a conflict
// (the resource already exists) from a hard failure:
//
//	if err := admin.CreateRealm(ctx, rep); err != nil && !keycloak.IsConflict(err) {
//		return err
//	}
//
// The bearer token is never refreshed. Runs are expected to finish well within
// the token lifetime, which is logged when the session is acquired.
package keycloak
