// Package store defines OpenAct's durable record types and the Store
// substrate interface (§4.2), with pluggable backends (sqlite, in-memory)
// and envelope encryption of sensitive fields.
package store

import (
	"encoding/json"
	"time"

	"github.com/aionixone/openact/pkg/trn"
)

// EncryptedField is the stored triple for an envelope-encrypted value.
type EncryptedField struct {
	CiphertextB64 string `json:"ciphertext"`
	NonceB64      string `json:"nonce"`
	KeyVersion    int    `json:"key_version"`
}

// ConnectionRecord is a persisted, reusable API endpoint + auth config.
type ConnectionRecord struct {
	Name         trn.ResourceName `json:"name"`
	ConnectorKnd string           `json:"connector_kind"`
	ConfigJSON   json.RawMessage  `json:"config_json"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	Version      int              `json:"version"`
}

// ActionRecord is a persisted, parameterised call against a Connection.
type ActionRecord struct {
	Name          trn.ResourceName `json:"name"`
	ConnectorKnd  string           `json:"connector_kind"`
	ConnectionTRN trn.ResourceName `json:"connection_trn"`
	ConfigJSON    json.RawMessage  `json:"config_json"`
	MCPEnabled    bool             `json:"mcp_enabled"`
	MCPOverrides  json.RawMessage  `json:"mcp_overrides,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	Version       int              `json:"version"`
}

// AuthConnection is a stored OAuth2/credential record for
// (tenant, provider, user_id). Sensitive fields are stored encrypted; the
// in-memory representation here always holds plaintext — encryption is an
// encode/decode-time concern handled by the backend.
type AuthConnection struct {
	Tenant       string          `json:"tenant"`
	Provider     string          `json:"provider"`
	UserID       string          `json:"user_id"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	ExpiresAt    *time.Time      `json:"expires_at,omitempty"`
	TokenType    string          `json:"token_type"`
	Scope        string          `json:"scope,omitempty"`
	Extra        json.RawMessage `json:"extra,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Version      int             `json:"version"`
}

// TRN derives this AuthConnection's resource name: trn:openact:<tenant>:auth/<provider>/<user_id>.
func (a *AuthConnection) TRN(system string) trn.ResourceName {
	return trn.ResourceName{
		System:    system,
		Tenant:    a.Tenant,
		Kind:      trn.KindAuth,
		Connector: a.Provider,
		Name:      a.UserID,
	}
}

// UpdateAccessToken sets the plaintext access token. It does not touch
// Version or UpdatedAt: the Store bumps Version and refreshes UpdatedAt on
// Upsert; this just stages the mutation.
func (a *AuthConnection) UpdateAccessToken(token string) {
	a.AccessToken = token
}

// UpdateRefreshToken sets or clears the refresh token. Passing "" clears it.
func (a *AuthConnection) UpdateRefreshToken(token *string) {
	if token == nil {
		a.RefreshToken = ""
		return
	}
	a.RefreshToken = *token
}

// SetExpiresAt sets an absolute expiry.
func (a *AuthConnection) SetExpiresAt(t time.Time) {
	a.ExpiresAt = &t
}

// SetExpiresIn sets expiry relative to now.
func (a *AuthConnection) SetExpiresIn(seconds int64, now time.Time) {
	t := now.Add(time.Duration(seconds) * time.Second)
	a.ExpiresAt = &t
}

// Checkpoint is a persisted, suspended AuthFlow run.
type Checkpoint struct {
	RunID        string          `json:"run_id"`
	PausedState  string          `json:"paused_state"`
	ContextJSON  json.RawMessage `json:"context_json"`
	AwaitMetaRaw json.RawMessage `json:"await_meta_json,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
