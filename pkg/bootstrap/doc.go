// Package bootstrap converges a Keycloak realm onto the state the application expects.
//
// A run acquires an admin token and then walks the stages in order:
//
//	realm -> client -> roles -> users -> verify
//
// Realm, client and roles are structural: the first failure stops the run and
// leaves whatever already exists in place. Users are best effort per record;
// the fixed admin identity is always ensured last. Verification only logs.
// Every stage reads before it writes, so re-running is the recovery path.
package bootstrap
