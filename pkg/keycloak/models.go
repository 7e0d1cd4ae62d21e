package keycloak

import (
	"encoding/json"
	"maps"
	"slices"
)

// RealmRepresentation is the subset of a realm written on creation.
type RealmRepresentation struct {
	ID              string            `json:"id,omitempty"`
	Realm           string            `json:"realm"`
	Enabled         bool              `json:"enabled"`
	DisplayName     string            `json:"displayName,omitempty"`
	DisplayNameHTML string            `json:"displayNameHtml,omitempty"`
	Attributes      map[string]string `json:"attributes,omitempty"`
}

// clientKnownFields are the JSON keys ClientRepresentation decodes into typed fields.
// Every other key is kept verbatim in Extra.
var clientKnownFields = []string{
	"id",
	"clientId",
	"name",
	"description",
	"enabled",
	"publicClient",
	"standardFlowEnabled",
	"directAccessGrantsEnabled",
	"serviceAccountsEnabled",
	"implicitFlowEnabled",
	"redirectUris",
	"webOrigins",
	"attributes",
}

// ClientRepresentation is a client registration. Fields the provider returns
// that are not modelled here survive a decode/encode round trip through Extra,
// so an update never drops provider-side settings.
type ClientRepresentation struct {
	ID                        *string           `json:"id,omitempty"`
	ClientID                  *string           `json:"clientId,omitempty"`
	Name                      *string           `json:"name,omitempty"`
	Description               *string           `json:"description,omitempty"`
	Enabled                   *bool             `json:"enabled,omitempty"`
	PublicClient              *bool             `json:"publicClient,omitempty"`
	StandardFlowEnabled       *bool             `json:"standardFlowEnabled,omitempty"`
	DirectAccessGrantsEnabled *bool             `json:"directAccessGrantsEnabled,omitempty"`
	ServiceAccountsEnabled    *bool             `json:"serviceAccountsEnabled,omitempty"`
	ImplicitFlowEnabled       *bool             `json:"implicitFlowEnabled,omitempty"`
	RedirectURIs              []string          `json:"redirectUris,omitempty"`
	WebOrigins                []string          `json:"webOrigins,omitempty"`
	Attributes                map[string]string `json:"attributes,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (c *ClientRepresentation) UnmarshalJSON(data []byte) error {
	type plain ClientRepresentation
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, key := range clientKnownFields {
		delete(raw, key)
	}
	if len(raw) == 0 {
		raw = nil
	}

	*c = ClientRepresentation(p)
	c.Extra = raw
	return nil
}

func (c ClientRepresentation) MarshalJSON() ([]byte, error) {
	type plain ClientRepresentation
	known, err := json.Marshal(plain(c))
	if err != nil || len(c.Extra) == 0 {
		return known, err
	}

	merged := make(map[string]json.RawMessage, len(c.Extra)+len(clientKnownFields))
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	for key, value := range c.Extra {
		if _, ok := merged[key]; !ok {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}

// Clone returns a copy that shares no maps or slices with c.
func (c ClientRepresentation) Clone() ClientRepresentation {
	out := c
	out.RedirectURIs = slices.Clone(c.RedirectURIs)
	out.WebOrigins = slices.Clone(c.WebOrigins)
	out.Attributes = maps.Clone(c.Attributes)
	out.Extra = maps.Clone(c.Extra)
	return out
}

// GetID returns the provider-assigned id or "".
func (c ClientRepresentation) GetID() string {
	if c.ID == nil {
		return ""
	}
	return *c.ID
}

// GetClientID returns the client identifier or "".
func (c ClientRepresentation) GetClientID() string {
	if c.ClientID == nil {
		return ""
	}
	return *c.ClientID
}

// RoleRepresentation is a realm role.
type RoleRepresentation struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Composite   bool   `json:"composite,omitempty"`
	ClientRole  bool   `json:"clientRole,omitempty"`
	ContainerID string `json:"containerId,omitempty"`
}

// CredentialRepresentation is a user credential sent on creation.
type CredentialRepresentation struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Temporary bool   `json:"temporary"`
}

// UserRepresentation is a realm user.
type UserRepresentation struct {
	ID            string                     `json:"id,omitempty"`
	Username      string                     `json:"username"`
	Email         string                     `json:"email,omitempty"`
	FirstName     string                     `json:"firstName,omitempty"`
	LastName      string                     `json:"lastName,omitempty"`
	Enabled       bool                       `json:"enabled"`
	EmailVerified bool                       `json:"emailVerified"`
	Credentials   []CredentialRepresentation `json:"credentials,omitempty"`
	Attributes    map[string][]string        `json:"attributes,omitempty"`
}

// PasswordCredential returns a non-temporary password credential.
func PasswordCredential(password string) CredentialRepresentation {
	return CredentialRepresentation{Type: "password", Value: password, Temporary: false}
}

// StringP returns a pointer to v.
func StringP(v string) *string { return &v }

// BoolP returns a pointer to v.
func BoolP(v bool) *bool { return &v }
