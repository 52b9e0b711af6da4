package cred

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aionixone/openact/pkg/store"
	"github.com/aionixone/openact/pkg/trn"
)

func TestParseConnectionRef_FullTriple(t *testing.T) {
	n, err := ParseConnectionRef("acme:github:u1")
	require.NoError(t, err)
	assert.Equal(t, trn.ResourceName{System: System, Tenant: "acme", Kind: trn.KindAuth, Connector: "github", Name: "u1"}, n)
}

func TestParseConnectionRef_LossyDefaults(t *testing.T) {
	// Pinned per §4.3/§9: missing parts default to default:unknown:unknown.
	n, err := ParseConnectionRef("acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", n.Tenant)
	assert.Equal(t, DefaultRefProvider, n.Connector)
	assert.Equal(t, DefaultRefUserID, n.Name)

	n2, err := ParseConnectionRef("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRefTenant, n2.Tenant)
	assert.Equal(t, DefaultRefProvider, n2.Connector)
	assert.Equal(t, DefaultRefUserID, n2.Name)
}

func TestParseConnectionRef_FullTRN(t *testing.T) {
	n, err := ParseConnectionRef("trn:openact:acme:auth/github/u1")
	require.NoError(t, err)
	assert.Equal(t, "acme", n.Tenant)
	assert.Equal(t, "github", n.Connector)
}

func TestIsExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	a := &store.AuthConnection{}
	assert.False(t, IsExpired(a, now, 30*time.Second))

	future := now.Add(time.Minute)
	a.ExpiresAt = &future
	assert.False(t, IsExpired(a, now, 30*time.Second))

	justPast := now.Add(-10 * time.Second)
	a.ExpiresAt = &justPast
	assert.True(t, IsExpired(a, now, 30*time.Second))

	withinSkew := now.Add(20 * time.Second)
	a.ExpiresAt = &withinSkew
	assert.True(t, IsExpired(a, now, 30*time.Second))
}

func TestSetExpiresIn(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	a := &store.AuthConnection{}
	SetExpiresIn(a, 3600, now)
	require.NotNil(t, a.ExpiresAt)
	assert.Equal(t, now.Add(time.Hour), *a.ExpiresAt)
}
