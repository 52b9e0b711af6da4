// Package cred implements the Credential Model (§4.3): AuthConnection
// mutation helpers and the lossy connection_ref parsing policy.
package cred

import (
	"strings"
	"time"

	"github.com/aionixone/openact/pkg/store"
	"github.com/aionixone/openact/pkg/trn"
)

// System is the TRN system component OpenAct uses for all resource names.
const System = "openact"

// DefaultRefTenant, DefaultRefProvider, DefaultRefUserID are the documented
// lossy defaults for a bare connection_ref missing a component (§4.3, §9).
const (
	DefaultRefTenant   = "default"
	DefaultRefProvider = "unknown"
	DefaultRefUserID   = "unknown"
)

// ParseConnectionRef accepts either a bare "tenant:provider:user_id" triple
// or a full auth ResourceName, and canonicalises it to a ResourceName.
// Missing parts of a bare triple default to DefaultRefTenant/Provider/UserID
// — this is documented lossy behaviour (§4.3, §9) and must not change
// without updating the pinned tests.
func ParseConnectionRef(ref string) (trn.ResourceName, error) {
	if strings.HasPrefix(ref, "trn:") {
		return trn.Parse(ref)
	}

	parts := strings.SplitN(ref, ":", 3)
	tenant, provider, userID := DefaultRefTenant, DefaultRefProvider, DefaultRefUserID
	switch len(parts) {
	case 3:
		tenant, provider, userID = nonEmpty(parts[0], tenant), nonEmpty(parts[1], provider), nonEmpty(parts[2], userID)
	case 2:
		tenant, provider = nonEmpty(parts[0], tenant), nonEmpty(parts[1], provider)
	case 1:
		tenant = nonEmpty(parts[0], tenant)
	}

	return trn.ResourceName{
		System:    System,
		Tenant:    tenant,
		Kind:      trn.KindAuth,
		Connector: provider,
		Name:      userID,
	}, nil
}

func nonEmpty(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// UpdateAccessToken sets the plaintext access token and refreshes
// UpdatedAt. Version bumping is the Store's responsibility on Upsert.
func UpdateAccessToken(a *store.AuthConnection, token string, now time.Time) {
	a.AccessToken = token
	a.UpdatedAt = now
}

// UpdateRefreshToken sets (non-nil) or clears (nil) the refresh token.
func UpdateRefreshToken(a *store.AuthConnection, token *string, now time.Time) {
	if token == nil {
		a.RefreshToken = ""
	} else {
		a.RefreshToken = *token
	}
	a.UpdatedAt = now
}

// SetExpiresAtRFC3339 parses an absolute RFC3339 expiry and applies it.
func SetExpiresAtRFC3339(a *store.AuthConnection, value string) error {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return err
	}
	a.ExpiresAt = &t
	return nil
}

// SetExpiresIn applies a relative expiry (seconds from now).
func SetExpiresIn(a *store.AuthConnection, seconds int64, now time.Time) {
	t := now.Add(time.Duration(seconds) * time.Second)
	a.ExpiresAt = &t
}

// IsExpired reports whether the credential's expiry, minus a clock-skew
// allowance, is in the past. A nil ExpiresAt never expires.
func IsExpired(a *store.AuthConnection, now time.Time, skew time.Duration) bool {
	if a.ExpiresAt == nil {
		return false
	}
	return now.After(a.ExpiresAt.Add(-skew))
}
