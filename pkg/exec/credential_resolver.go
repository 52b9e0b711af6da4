package exec

import (
	"context"
	"time"

	"github.com/aionixone/openact/pkg/apperrors"
	"github.com/aionixone/openact/pkg/cred"
	"github.com/aionixone/openact/pkg/store"
)

// CredentialResolver bridges pkg/connector/httpconn's oauth2 auth-injection
// kind to the credential store. It only reads the currently stored token —
// renewing an expired token is the AuthFlow engine's job (oauth2.refresh_token,
// driven by re-running the owning flow), not something this thin resolver
// attempts on the caller's behalf.
type CredentialResolver struct {
	Store store.AuthConnectionStore
	Now   func() time.Time
}

func (r *CredentialResolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}

// ResolveAccessToken implements httpconn.CredentialResolver.
func (r *CredentialResolver) ResolveAccessToken(ctx context.Context, connectionRef string) (string, error) {
	name, err := cred.ParseConnectionRef(connectionRef)
	if err != nil {
		return "", err
	}
	a, err := r.Store.GetAuthConnection(ctx, name.Tenant, name.Connector, name.Name)
	if err != nil {
		return "", err
	}
	if a == nil {
		return "", apperrors.NewNotFoundError("exec: no auth connection for ref "+connectionRef, nil)
	}
	if a.ExpiresAt != nil && !a.ExpiresAt.After(r.now()) {
		return "", apperrors.NewForbiddenError("exec: access token for "+connectionRef+" has expired; re-run its AuthFlow to refresh", nil)
	}
	if a.AccessToken == "" {
		return "", apperrors.NewNotFoundError("exec: auth connection "+connectionRef+" has no access token", nil)
	}
	return a.AccessToken, nil
}
