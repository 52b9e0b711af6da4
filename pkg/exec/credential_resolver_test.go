package exec

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aionixone/openact/pkg/store"
	"github.com/aionixone/openact/pkg/store/memstore"
)

func TestCredentialResolver_ReturnsStoredToken(t *testing.T) {
	s := memstore.New(nil)
	ctx := context.Background()
	future := time.Now().Add(time.Hour)
	_, err := s.UpsertAuthConnection(ctx, &store.AuthConnection{
		Tenant: "acme", Provider: "github", UserID: "u1",
		AccessToken: "tok-123", ExpiresAt: &future,
	})
	require.NoError(t, err)

	r := &CredentialResolver{Store: s}
	tok, err := r.ResolveAccessToken(ctx, "acme:github:u1")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", tok)
}

func TestCredentialResolver_ExpiredTokenForbidden(t *testing.T) {
	s := memstore.New(nil)
	ctx := context.Background()
	past := time.Now().Add(-time.Hour)
	_, err := s.UpsertAuthConnection(ctx, &store.AuthConnection{
		Tenant: "acme", Provider: "github", UserID: "u1",
		AccessToken: "tok-123", ExpiresAt: &past,
	})
	require.NoError(t, err)

	r := &CredentialResolver{Store: s}
	_, err = r.ResolveAccessToken(ctx, "acme:github:u1")
	assert.Error(t, err)
}

func TestCredentialResolver_UnknownRef(t *testing.T) {
	s := memstore.New(nil)
	r := &CredentialResolver{Store: s}
	_, err := r.ResolveAccessToken(context.Background(), "acme:github:missing")
	assert.Error(t, err)
}
