package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/aionixone/openact/pkg/apperrors"
	"github.com/aionixone/openact/pkg/store"
)

// UpsertAuthConnection implements store.AuthConnectionStore. Sensitive
// fields pass through the KeyRing before hitting disk (§4.2 envelope
// encryption). With a disabled KeyRing (no key configured) they are stored
// base64-encoded at key-version 0, not encrypted.
func (s *Store) UpsertAuthConnection(ctx context.Context, rec *store.AuthConnection) (*store.AuthConnection, error) {
	accessField, err := s.keys.Encrypt(rec.AccessToken)
	if err != nil {
		return nil, err
	}
	var refreshCipher, refreshNonce sql.NullString
	var refreshVersion sql.NullInt64
	if rec.RefreshToken != "" {
		f, err := s.keys.Encrypt(rec.RefreshToken)
		if err != nil {
			return nil, err
		}
		refreshCipher = sql.NullString{String: f.CiphertextB64, Valid: true}
		refreshNonce = sql.NullString{String: f.NonceB64, Valid: true}
		refreshVersion = sql.NullInt64{Int64: int64(f.KeyVersion), Valid: true}
	}

	existing, err := s.GetAuthConnection(ctx, rec.Tenant, rec.Provider, rec.UserID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	version := 1
	createdAt := now
	if existing != nil {
		version = existing.Version + 1
		createdAt = existing.CreatedAt
	}

	var expiresAt any
	if rec.ExpiresAt != nil {
		expiresAt = rec.ExpiresAt.UTC().Format(time.RFC3339Nano)
	}
	var extra any
	if len(rec.Extra) > 0 {
		extra = string(rec.Extra)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO auth_connections (
			tenant, provider, user_id,
			access_token_encrypted, access_token_nonce, access_token_key_version,
			refresh_token_encrypted, refresh_token_nonce, refresh_token_key_version,
			expires_at, token_type, scope, extra_json,
			created_at, updated_at, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant, provider, user_id) DO UPDATE SET
			access_token_encrypted=excluded.access_token_encrypted,
			access_token_nonce=excluded.access_token_nonce,
			access_token_key_version=excluded.access_token_key_version,
			refresh_token_encrypted=excluded.refresh_token_encrypted,
			refresh_token_nonce=excluded.refresh_token_nonce,
			refresh_token_key_version=excluded.refresh_token_key_version,
			expires_at=excluded.expires_at,
			token_type=excluded.token_type,
			scope=excluded.scope,
			extra_json=excluded.extra_json,
			updated_at=excluded.updated_at,
			version=excluded.version
	`, rec.Tenant, rec.Provider, rec.UserID,
		accessField.CiphertextB64, accessField.NonceB64, accessField.KeyVersion,
		refreshCipher, refreshNonce, refreshVersion,
		expiresAt, rec.TokenType, rec.Scope, extra,
		createdAt.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano), version)
	if err != nil {
		return nil, apperrors.NewConflictError("sqlite: upsert auth connection failed", err)
	}

	out := *rec
	out.CreatedAt = createdAt
	out.UpdatedAt = now
	out.Version = version
	return &out, nil
}

// GetAuthConnection implements store.AuthConnectionStore, decrypting
// sensitive fields using the version recorded alongside each ciphertext.
func (s *Store) GetAuthConnection(ctx context.Context, tenant, provider, userID string) (*store.AuthConnection, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT access_token_encrypted, access_token_nonce, access_token_key_version,
			refresh_token_encrypted, refresh_token_nonce, refresh_token_key_version,
			expires_at, token_type, scope, extra_json, created_at, updated_at, version
		FROM auth_connections WHERE tenant = ? AND provider = ? AND user_id = ?
	`, tenant, provider, userID)

	var accessCipher, accessNonce string
	var accessVersion int
	var refreshCipher, refreshNonce, expiresAt, scope, extraJSON sql.NullString
	var refreshVersion sql.NullInt64
	var tokenType, createdAt, updatedAt string
	var version int

	if err := row.Scan(&accessCipher, &accessNonce, &accessVersion,
		&refreshCipher, &refreshNonce, &refreshVersion,
		&expiresAt, &tokenType, &scope, &extraJSON, &createdAt, &updatedAt, &version); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, apperrors.NewInternalError("sqlite: get auth connection", err)
	}

	access, err := s.keys.Decrypt(store.EncryptedField{CiphertextB64: accessCipher, NonceB64: accessNonce, KeyVersion: accessVersion})
	if err != nil {
		return nil, err
	}

	out := &store.AuthConnection{
		Tenant: tenant, Provider: provider, UserID: userID,
		AccessToken: access, TokenType: tokenType, Version: version,
	}
	if refreshCipher.Valid {
		refresh, err := s.keys.Decrypt(store.EncryptedField{CiphertextB64: refreshCipher.String, NonceB64: refreshNonce.String, KeyVersion: int(refreshVersion.Int64)})
		if err != nil {
			return nil, err
		}
		out.RefreshToken = refresh
	}
	if expiresAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, expiresAt.String)
		if err == nil {
			out.ExpiresAt = &t
		}
	}
	if scope.Valid {
		out.Scope = scope.String
	}
	if extraJSON.Valid {
		out.Extra = json.RawMessage(extraJSON.String)
	}
	out.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	out.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return out, nil
}

// DeleteAuthConnection implements store.AuthConnectionStore.
func (s *Store) DeleteAuthConnection(ctx context.Context, tenant, provider, userID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM auth_connections WHERE tenant = ? AND provider = ? AND user_id = ?`, tenant, provider, userID)
	if err != nil {
		return false, apperrors.NewInternalError("sqlite: delete auth connection", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
