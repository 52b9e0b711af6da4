package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aionixone/openact/pkg/store"
	"github.com/aionixone/openact/pkg/trn"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "file::memory:?cache=shared", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func connTRN(name string) trn.ResourceName {
	return trn.ResourceName{System: "openact", Tenant: "acme", Kind: trn.KindConnection, Connector: "http", Name: name}
}

func TestMigrations_IdempotentOnReopen(t *testing.T) {
	ctx := context.Background()
	s1, err := Open(ctx, "file:migtest?mode=memory&cache=shared", nil)
	require.NoError(t, err)
	defer s1.Close()

	s2, err := Open(ctx, "file:migtest?mode=memory&cache=shared", nil)
	require.NoError(t, err)
	defer s2.Close()
}

func TestUpsertGetConnection_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	rec := &store.ConnectionRecord{Name: connTRN("github"), ConnectorKnd: "http", ConfigJSON: []byte(`{"base_url":"https://api.github.com"}`)}
	created, err := s.UpsertConnection(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, 1, created.Version)

	got, err := s.GetConnection(ctx, connTRN("github"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.JSONEq(t, string(rec.ConfigJSON), string(got.ConfigJSON))

	updated, err := s.UpsertConnection(ctx, &store.ConnectionRecord{Name: connTRN("github"), ConnectorKnd: "http", ConfigJSON: []byte(`{"base_url":"https://api.github.com/v2"}`)})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
}

func TestDeleteConnection_ReportsExistence(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	_, err := s.UpsertConnection(ctx, &store.ConnectionRecord{Name: connTRN("x"), ConnectorKnd: "http"})
	require.NoError(t, err)

	existed, err := s.DeleteConnection(ctx, connTRN("x"))
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = s.DeleteConnection(ctx, connTRN("x"))
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestAuthConnection_EncryptedAtRestScenario(t *testing.T) {
	ctx := context.Background()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i + 1)
	}
	kr, err := store.NewKeyRing(key)
	require.NoError(t, err)
	s, err := Open(ctx, "file::memory:?cache=shared", kr)
	require.NoError(t, err)
	defer s.Close()

	expires := time.Now().Add(time.Hour).UTC()
	_, err = s.UpsertAuthConnection(ctx, &store.AuthConnection{
		Tenant: "acme", Provider: "github", UserID: "u1",
		AccessToken: "tok_abc", TokenType: "Bearer", ExpiresAt: &expires,
	})
	require.NoError(t, err)

	var cipher string
	row := s.db.QueryRowContext(ctx, `SELECT access_token_encrypted FROM auth_connections WHERE tenant='acme' AND provider='github' AND user_id='u1'`)
	require.NoError(t, row.Scan(&cipher))
	assert.NotEqual(t, "tok_abc", cipher)

	got, err := s.GetAuthConnection(ctx, "acme", "github", "u1")
	require.NoError(t, err)
	assert.Equal(t, "tok_abc", got.AccessToken)
}

func TestCheckpoint_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.UpsertCheckpoint(ctx, &store.Checkpoint{RunID: "r1", PausedState: "AwaitCallback", ContextJSON: []byte(`{"vars":{}}`)})
	require.NoError(t, err)

	got, err := s.GetCheckpoint(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "AwaitCallback", got.PausedState)

	existed, err := s.DeleteCheckpoint(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, existed)
}
