package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	"github.com/tendant/kcbootstrap/pkg/config"
	kcerrors "github.com/tendant/kcbootstrap/pkg/errors"
	"github.com/tendant/kcbootstrap/pkg/keycloak"
)

const (
	// PKCEMethodAttribute is the client attribute that enforces PKCE.
	PKCEMethodAttribute = "pkce.code.challenge.method"
	pkceMethodS256      = "S256"

	clientDescription = "Frontend application for spending transaction monitoring"
)

// ClientSpec is the desired application client. Only these fields are managed;
// everything else on an existing client is preserved.
type ClientSpec struct {
	ClientID           string
	Name               string
	Description        string
	RedirectURIs       []string
	WebOrigins         []string
	PKCE               bool
	Enabled            bool
	Public             bool
	StandardFlow       bool
	DirectAccessGrants bool
	ServiceAccounts    bool
	ImplicitFlow       bool
}

// ClientSpecFromConfig builds the public SPA client used by the frontend.
func ClientSpecFromConfig(cfg config.Config) ClientSpec {
	return ClientSpec{
		ClientID:           cfg.ClientID,
		Name:               cfg.RealmDisplayName + " Frontend",
		Description:        clientDescription,
		RedirectURIs:       cfg.RedirectURIList(),
		WebOrigins:         cfg.WebOriginList(),
		PKCE:               true,
		Enabled:            true,
		Public:             true,
		StandardFlow:       true,
		DirectAccessGrants: true,
		ServiceAccounts:    false,
		ImplicitFlow:       false,
	}
}

// MergeClient overlays spec onto existing. Fields spec does not manage, including
// attribute keys other than the PKCE method, are carried over untouched.
func MergeClient(existing keycloak.ClientRepresentation, spec ClientSpec) keycloak.ClientRepresentation {
	merged := existing.Clone()

	merged.ClientID = keycloak.StringP(spec.ClientID)
	merged.Name = keycloak.StringP(spec.Name)
	merged.Description = keycloak.StringP(spec.Description)
	merged.Enabled = keycloak.BoolP(spec.Enabled)
	merged.PublicClient = keycloak.BoolP(spec.Public)
	merged.StandardFlowEnabled = keycloak.BoolP(spec.StandardFlow)
	merged.DirectAccessGrantsEnabled = keycloak.BoolP(spec.DirectAccessGrants)
	merged.ServiceAccountsEnabled = keycloak.BoolP(spec.ServiceAccounts)
	merged.ImplicitFlowEnabled = keycloak.BoolP(spec.ImplicitFlow)
	merged.RedirectURIs = append([]string(nil), spec.RedirectURIs...)
	merged.WebOrigins = append([]string(nil), spec.WebOrigins...)

	if merged.Attributes == nil {
		merged.Attributes = make(map[string]string)
	}
	if spec.PKCE {
		merged.Attributes[PKCEMethodAttribute] = pkceMethodS256
	} else if _, ok := merged.Attributes[PKCEMethodAttribute]; ok {
		merged.Attributes[PKCEMethodAttribute] = ""
	}
	if len(merged.Attributes) == 0 {
		merged.Attributes = nil
	}

	return merged
}

// sameClient compares the wire form of two representations.
func sameClient(a, b keycloak.ClientRepresentation) bool {
	aj, errA := json.Marshal(a)
	bj, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(aj, bj)
}

// ClientReconciler creates or non-destructively updates the application client.
type ClientReconciler struct {
	admin *keycloak.AdminClient
	realm string
}

func NewClientReconciler(admin *keycloak.AdminClient, realm string) *ClientReconciler {
	return &ClientReconciler{admin: admin, realm: realm}
}

// Ensure creates the client when absent and otherwise PUTs the merged representation.
// The PUT is skipped when the merge changes nothing.
func (r *ClientReconciler) Ensure(ctx context.Context, spec ClientSpec) (Outcome, error) {
	existing, err := r.admin.FindClient(ctx, r.realm, spec.ClientID)
	if err != nil {
		return Outcome{}, kcerrors.ResourceFailed(err, "client", spec.ClientID)
	}

	if existing == nil {
		id, err := r.admin.CreateClient(ctx, r.realm, MergeClient(keycloak.ClientRepresentation{}, spec))
		if err != nil {
			return Outcome{}, kcerrors.ResourceFailed(err, "client", spec.ClientID)
		}
		slog.Info("Client created",
			"realm", r.realm,
			"client_id", spec.ClientID,
			"id", id,
			"redirect_uris", spec.RedirectURIs)
		return succeeded(StageClient, ActionCreated, "client %q created", spec.ClientID), nil
	}

	merged := MergeClient(*existing, spec)
	if sameClient(*existing, merged) {
		slog.Info("Client already up to date", "realm", r.realm, "client_id", spec.ClientID)
		return succeeded(StageClient, ActionUnchanged, "client %q up to date", spec.ClientID), nil
	}

	if err := r.admin.UpdateClient(ctx, r.realm, merged); err != nil {
		return Outcome{}, kcerrors.ResourceFailed(err, "client", spec.ClientID)
	}
	slog.Info("Client updated",
		"realm", r.realm,
		"client_id", spec.ClientID,
		"id", existing.GetID(),
		"redirect_uris", spec.RedirectURIs)
	return succeeded(StageClient, ActionUpdated, "client %q updated", spec.ClientID), nil
}
