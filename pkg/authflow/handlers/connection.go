package handlers

import (
	"context"
	"time"

	"github.com/aionixone/openact/pkg/apperrors"
	"github.com/aionixone/openact/pkg/authflow"
	"github.com/aionixone/openact/pkg/cred"
	"github.com/aionixone/openact/pkg/store"
)

// ConnectionStore binds a store.AuthConnectionStore to the
// connection.read/connection.update task handlers.
type ConnectionStore struct {
	Store store.AuthConnectionStore
	Now   func() time.Time
}

func (c *ConnectionStore) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now().UTC()
}

// Read implements connection.read: loads the AuthConnection named by the
// task's "connection_ref" parameter (§4.3 lossy ref resolution) and returns
// its fields, still bearing the plaintext token in the run context — the
// envelope-encryption boundary is the store, not the engine.
func (c *ConnectionStore) Read(ctx context.Context, params map[string]any, _ *authflow.RunContext) authflow.HandlerOutcome {
	ref, _ := params["connection_ref"].(string)
	name, err := cred.ParseConnectionRef(ref)
	if err != nil {
		return authflow.Fail(err)
	}
	a, err := c.Store.GetAuthConnection(ctx, name.Tenant, name.Connector, name.Name)
	if err != nil {
		return authflow.Fail(err)
	}
	if a == nil {
		return authflow.Fail(apperrors.NewNotFoundError("no auth connection for ref "+ref, nil))
	}
	return authflow.Ok(connectionToValue(a))
}

// Update implements connection.update: applies a patch (access_token,
// refresh_token, expires_in/expires_at, scope, token_type) onto the named
// AuthConnection, creating it if absent — a fresh-authorization run has no
// prior row to update.
func (c *ConnectionStore) Update(ctx context.Context, params map[string]any, rc *authflow.RunContext) authflow.HandlerOutcome {
	ref, _ := params["connection_ref"].(string)
	name, err := cred.ParseConnectionRef(ref)
	if err != nil {
		return authflow.Fail(err)
	}

	existing, err := c.Store.GetAuthConnection(ctx, name.Tenant, name.Connector, name.Name)
	if err != nil {
		return authflow.Fail(err)
	}
	a := existing
	if a == nil {
		a = &store.AuthConnection{Tenant: name.Tenant, Provider: name.Connector, UserID: name.Name}
	}

	applyConnectionPatch(a, params, rc, c.now())

	updated, err := c.Store.UpsertAuthConnection(ctx, a)
	if err != nil {
		return authflow.Fail(err)
	}
	return authflow.Ok(connectionToValue(updated))
}

func applyConnectionPatch(a *store.AuthConnection, params map[string]any, rc *authflow.RunContext, now time.Time) {
	if token, ok := stringParam(params, "access_token", rc); ok {
		cred.UpdateAccessToken(a, token, now)
	}
	if token, ok := params["refresh_token"]; ok {
		if s, isStr := token.(string); isStr {
			cred.UpdateRefreshToken(a, &s, now)
		} else {
			cred.UpdateRefreshToken(a, nil, now)
		}
	}
	if tokenType, ok := params["token_type"].(string); ok {
		a.TokenType = tokenType
	}
	if scope, ok := params["scope"].(string); ok {
		a.Scope = scope
	}
	if expiresIn, ok := numericParam(params["expires_in"]); ok {
		cred.SetExpiresIn(a, int64(expiresIn), now)
	} else if expiresAt, ok := params["expires_at"].(string); ok && expiresAt != "" {
		_ = cred.SetExpiresAtRFC3339(a, expiresAt)
	}
}

func stringParam(params map[string]any, key string, rc *authflow.RunContext) (string, bool) {
	if v, ok := params[key].(string); ok && v != "" {
		return v, true
	}
	if v, ok := rc.Vars["_last"].(map[string]any); ok {
		if s, ok := v[key].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

func numericParam(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func connectionToValue(a *store.AuthConnection) map[string]any {
	out := map[string]any{
		"tenant":       a.Tenant,
		"provider":     a.Provider,
		"user_id":      a.UserID,
		"access_token": a.AccessToken,
		"token_type":   a.TokenType,
	}
	if a.RefreshToken != "" {
		out["refresh_token"] = a.RefreshToken
	}
	if a.ExpiresAt != nil {
		out["expires_at"] = a.ExpiresAt.Format(time.RFC3339)
	}
	if a.Scope != "" {
		out["scope"] = a.Scope
	}
	return out
}
