// Package keycloaktest runs an in-memory stand-in for the Keycloak admin API.
//
// It implements the token endpoint, realm creation, client registration and
// update, realm roles, users and realm-role mappings, and the OpenID discovery
// document. Every request is recorded so tests can assert which writes a run
// performed.
package keycloaktest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tendant/kcbootstrap/pkg/keycloak"
)

const (
	AdminUsername = "admin"
	AdminPassword = "admin"
	AdminClientID = "admin-cli"
)

// Request is one recorded call.
type Request struct {
	Method string
	Path   string
	Status int
}

type user struct {
	rep   keycloak.UserRepresentation
	roles []string
}

type realm struct {
	rep     keycloak.RealmRepresentation
	clients []map[string]any
	roles   map[string]keycloak.RoleRepresentation
	users   []*user
}

// Server is a fake provider. The zero value is not usable; call NewServer.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	token    string
	realms   map[string]*realm
	requests []Request
	failures map[string]int
	misses   map[string]int
	nextID   int
}

// NewServer starts a fake provider with an empty master realm. Close it when done.
func NewServer() *Server {
	s := &Server{
		realms:   make(map[string]*realm),
		failures: make(map[string]int),
		misses:   make(map[string]int),
	}
	s.realms["master"] = newRealm("master")

	r := chi.NewRouter()
	r.Use(s.record)
	r.Post("/realms/{realm}/protocol/openid-connect/token", s.handleToken)
	r.Get("/realms/{realm}/.well-known/openid-configuration", s.handleDiscovery)
	r.Route("/admin/realms", func(r chi.Router) {
		r.Post("/", s.admin(s.handleCreateRealm))
		r.Route("/{realm}", func(r chi.Router) {
			r.Get("/clients", s.admin(s.handleListClients))
			r.Post("/clients", s.admin(s.handleCreateClient))
			r.Put("/clients/{id}", s.admin(s.handleUpdateClient))
			r.Post("/roles", s.admin(s.handleCreateRole))
			r.Get("/roles/{name}", s.admin(s.handleGetRole))
			r.Get("/users", s.admin(s.handleFindUsers))
			r.Post("/users", s.admin(s.handleCreateUser))
			r.Get("/users/{id}/role-mappings/realm", s.admin(s.handleGetMappings))
			r.Post("/users/{id}/role-mappings/realm", s.admin(s.handleAddMappings))
		})
	})

	s.Server = httptest.NewServer(r)
	return s
}

func newRealm(name string) *realm {
	return &realm{
		rep:   keycloak.RealmRepresentation{Realm: name, Enabled: true},
		roles: make(map[string]keycloak.RoleRepresentation),
	}
}

// FailOn makes every request matching method and path answer with status.
func (s *Server) FailOn(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
}

// MissLookups makes the next n user searches for username return no match,
// as if the user was created by someone else in between.
func (s *Server) MissLookups(username string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.misses[strings.ToLower(username)] = n
}

// Requests returns a copy of every recorded call.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// Mutations returns the successful POST and PUT calls against the admin API.
func (s *Server) Mutations() []Request {
	var out []Request
	for _, r := range s.Requests() {
		if !strings.HasPrefix(r.Path, "/admin/") {
			continue
		}
		if (r.Method == http.MethodPost || r.Method == http.MethodPut) && r.Status >= 200 && r.Status < 300 {
			out = append(out, r)
		}
	}
	return out
}

// ResetRequests clears the request log.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// SeedRealm creates a realm directly.
func (s *Server) SeedRealm(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.realms[name]; !ok {
		s.realms[name] = newRealm(name)
	}
}

// SeedClient stores a raw client representation in an existing realm. An id is assigned when missing.
func (s *Server) SeedClient(realmName string, client map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.realms[realmName]
	if _, ok := client["id"]; !ok {
		client["id"] = s.newID("client")
	}
	r.clients = append(r.clients, client)
}

// SeedRole creates a realm role directly.
func (s *Server) SeedRole(realmName, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.realms[realmName]
	r.roles[name] = keycloak.RoleRepresentation{ID: s.newID("role"), Name: name, ContainerID: realmName}
}

// SeedUser creates a user with the given realm roles mapped.
func (s *Server) SeedUser(realmName, username string, roles ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.realms[realmName]
	r.users = append(r.users, &user{
		rep:   keycloak.UserRepresentation{ID: s.newID("user"), Username: username, Enabled: true},
		roles: slices.Clone(roles),
	})
}

// HasRealm reports whether the realm exists.
func (s *Server) HasRealm(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.realms[name]
	return ok
}

// Realm returns the stored realm representation.
func (s *Server) Realm(name string) (keycloak.RealmRepresentation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.realms[name]
	if !ok {
		return keycloak.RealmRepresentation{}, false
	}
	return r.rep, true
}

// Clients returns the raw stored clients whose clientId equals clientID.
func (s *Server) Clients(realmName, clientID string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []map[string]any
	if r, ok := s.realms[realmName]; ok {
		for _, c := range r.clients {
			if c["clientId"] == clientID {
				out = append(out, c)
			}
		}
	}
	return out
}

// RoleNames returns the sorted realm role names.
func (s *Server) RoleNames(realmName string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	if r, ok := s.realms[realmName]; ok {
		for name := range r.roles {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// User returns the stored user by username.
func (s *Server) User(realmName, username string) (keycloak.UserRepresentation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.findUser(realmName, username); u != nil {
		return u.rep, true
	}
	return keycloak.UserRepresentation{}, false
}

// UserCount returns how many users the realm holds.
func (s *Server) UserCount(realmName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.realms[realmName]; ok {
		return len(r.users)
	}
	return 0
}

// UserRoles returns the sorted realm roles mapped to username.
func (s *Server) UserRoles(realmName, username string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.findUser(realmName, username)
	if u == nil {
		return nil
	}
	roles := slices.Clone(u.roles)
	sort.Strings(roles)
	return roles
}

func (s *Server) findUser(realmName, username string) *user {
	r, ok := s.realms[realmName]
	if !ok {
		return nil
	}
	for _, u := range r.users {
		if strings.EqualFold(u.rep.Username, username) {
			return u
		}
	}
	return nil
}

func (s *Server) newID(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%04d", prefix, s.nextID)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		status, fail := s.failures[r.Method+" "+r.URL.Path]
		s.mu.Unlock()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		if fail {
			respond(rec, r, status, map[string]string{"error": "injected failure"})
		} else {
			next.ServeHTTP(rec, r)
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Status: rec.status})
		s.mu.Unlock()
	})
}

// admin rejects calls without the issued bearer token and resolves the realm path value.
func (s *Server) admin(next func(http.ResponseWriter, *http.Request, *realm)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.token == "" || r.Header.Get("Authorization") != "Bearer "+s.token {
			respond(w, r, http.StatusUnauthorized, map[string]string{"error": "HTTP 401 Unauthorized"})
			return
		}

		name := chi.URLParam(r, "realm")
		if name == "" {
			next(w, r, nil)
			return
		}
		rm, ok := s.realms[name]
		if !ok {
			respond(w, r, http.StatusNotFound, map[string]string{"error": "Realm not found."})
			return
		}
		next(w, r, rm)
	}
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respond(w, r, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}
	if chi.URLParam(r, "realm") != "master" ||
		r.PostForm.Get("grant_type") != "password" ||
		r.PostForm.Get("client_id") != AdminClientID ||
		r.PostForm.Get("username") != AdminUsername ||
		r.PostForm.Get("password") != AdminPassword {
		respond(w, r, http.StatusUnauthorized, map[string]string{
			"error":             "invalid_grant",
			"error_description": "Invalid user credentials",
		})
		return
	}

	claims := jwt.RegisteredClaims{
		Issuer:    s.URL + "/realms/master",
		Subject:   AdminUsername,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("keycloaktest"))
	if err != nil {
		respond(w, r, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	respond(w, r, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   60,
	})
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "realm")
	if !s.HasRealm(name) {
		respond(w, r, http.StatusNotFound, map[string]string{"error": "Realm does not exist"})
		return
	}
	issuer := s.URL + "/realms/" + name
	respond(w, r, http.StatusOK, map[string]any{
		"issuer":                                issuer,
		"authorization_endpoint":                issuer + "/protocol/openid-connect/auth",
		"token_endpoint":                        issuer + "/protocol/openid-connect/token",
		"userinfo_endpoint":                     issuer + "/protocol/openid-connect/userinfo",
		"jwks_uri":                              issuer + "/protocol/openid-connect/certs",
		"id_token_signing_alg_values_supported": []string{"RS256"},
	})
}

func (s *Server) handleCreateRealm(w http.ResponseWriter, r *http.Request, _ *realm) {
	var rep keycloak.RealmRepresentation
	if !decode(w, r, &rep) {
		return
	}
	if _, ok := s.realms[rep.Realm]; ok {
		respond(w, r, http.StatusConflict, map[string]string{"errorMessage": "Conflict detected. See logs for details"})
		return
	}
	rm := newRealm(rep.Realm)
	rm.rep = rep
	s.realms[rep.Realm] = rm
	w.Header().Set("Location", s.URL+"/admin/realms/"+rep.Realm)
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request, rm *realm) {
	clients := rm.clients
	if clients == nil {
		clients = []map[string]any{}
	}
	respond(w, r, http.StatusOK, clients)
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request, rm *realm) {
	var client map[string]any
	if !decode(w, r, &client) {
		return
	}
	for _, c := range rm.clients {
		if c["clientId"] == client["clientId"] {
			respond(w, r, http.StatusConflict, map[string]string{"errorMessage": "Client already exists"})
			return
		}
	}
	id := s.newID("client")
	client["id"] = id
	rm.clients = append(rm.clients, client)
	w.Header().Set("Location", s.URL+"/admin/realms/"+rm.rep.Realm+"/clients/"+id)
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request, rm *realm) {
	var client map[string]any
	if !decode(w, r, &client) {
		return
	}
	id := chi.URLParam(r, "id")
	for i, c := range rm.clients {
		if c["id"] == id {
			client["id"] = id
			rm.clients[i] = client
			render.NoContent(w, r)
			return
		}
	}
	respond(w, r, http.StatusNotFound, map[string]string{"error": "Could not find client"})
}

func (s *Server) handleCreateRole(w http.ResponseWriter, r *http.Request, rm *realm) {
	var role keycloak.RoleRepresentation
	if !decode(w, r, &role) {
		return
	}
	if _, ok := rm.roles[role.Name]; ok {
		respond(w, r, http.StatusConflict, map[string]string{"errorMessage": "Role with name " + role.Name + " already exists"})
		return
	}
	role.ID = s.newID("role")
	role.ContainerID = rm.rep.Realm
	rm.roles[role.Name] = role
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleGetRole(w http.ResponseWriter, r *http.Request, rm *realm) {
	role, ok := rm.roles[chi.URLParam(r, "name")]
	if !ok {
		respond(w, r, http.StatusNotFound, map[string]string{"error": "Could not find role"})
		return
	}
	respond(w, r, http.StatusOK, role)
}

func (s *Server) handleFindUsers(w http.ResponseWriter, r *http.Request, rm *realm) {
	username := r.URL.Query().Get("username")
	exact := r.URL.Query().Get("exact") == "true"

	users := []keycloak.UserRepresentation{}
	if n := s.misses[strings.ToLower(username)]; n > 0 {
		s.misses[strings.ToLower(username)] = n - 1
		respond(w, r, http.StatusOK, users)
		return
	}
	for _, u := range rm.users {
		match := strings.Contains(strings.ToLower(u.rep.Username), strings.ToLower(username))
		if exact {
			match = strings.EqualFold(u.rep.Username, username)
		}
		if match {
			rep := u.rep
			rep.Credentials = nil
			users = append(users, rep)
		}
	}
	respond(w, r, http.StatusOK, users)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request, rm *realm) {
	var rep keycloak.UserRepresentation
	if !decode(w, r, &rep) {
		return
	}
	if s.findUser(rm.rep.Realm, rep.Username) != nil {
		respond(w, r, http.StatusConflict, map[string]string{"errorMessage": "User exists with same username"})
		return
	}
	rep.ID = s.newID("user")
	rep.Username = strings.ToLower(rep.Username)
	rm.users = append(rm.users, &user{rep: rep})
	w.Header().Set("Location", s.URL+"/admin/realms/"+rm.rep.Realm+"/users/"+rep.ID)
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) userByID(rm *realm, id string) *user {
	for _, u := range rm.users {
		if u.rep.ID == id {
			return u
		}
	}
	return nil
}

func (s *Server) handleGetMappings(w http.ResponseWriter, r *http.Request, rm *realm) {
	u := s.userByID(rm, chi.URLParam(r, "id"))
	if u == nil {
		respond(w, r, http.StatusNotFound, map[string]string{"error": "User not found"})
		return
	}
	roles := []keycloak.RoleRepresentation{}
	for _, name := range u.roles {
		if role, ok := rm.roles[name]; ok {
			roles = append(roles, role)
		} else {
			roles = append(roles, keycloak.RoleRepresentation{Name: name})
		}
	}
	respond(w, r, http.StatusOK, roles)
}

func (s *Server) handleAddMappings(w http.ResponseWriter, r *http.Request, rm *realm) {
	u := s.userByID(rm, chi.URLParam(r, "id"))
	if u == nil {
		respond(w, r, http.StatusNotFound, map[string]string{"error": "User not found"})
		return
	}
	var roles []keycloak.RoleRepresentation
	if !decode(w, r, &roles) {
		return
	}
	for _, role := range roles {
		if _, ok := rm.roles[role.Name]; !ok {
			respond(w, r, http.StatusNotFound, map[string]string{"error": "Role not found"})
			return
		}
		if !slices.Contains(u.roles, role.Name) {
			u.roles = append(u.roles, role.Name)
		}
	}
	render.NoContent(w, r)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		respond(w, r, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}
