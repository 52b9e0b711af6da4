package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aionixone/openact/pkg/authflow"
	"github.com/aionixone/openact/pkg/store/memstore"
)

func fixedNow() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

func TestConnectionUpdate_CreatesWhenAbsent(t *testing.T) {
	s := memstore.New(nil)
	cs := &ConnectionStore{Store: s, Now: fixedNow}
	rc := &authflow.RunContext{Vars: map[string]any{}, Input: map[string]any{}}

	out := cs.Update(context.Background(), map[string]any{
		"connection_ref": "acme:github:u1",
		"access_token":   "tok-1",
		"refresh_token":  "refresh-1",
		"expires_in":     3600.0,
	}, rc)

	require.Equal(t, authflow.OutcomeOk, out.Kind)
	v := out.Value.(map[string]any)
	assert.Equal(t, "tok-1", v["access_token"])
	assert.Equal(t, "refresh-1", v["refresh_token"])
}

func TestConnectionRead_RoundTrip(t *testing.T) {
	s := memstore.New(nil)
	cs := &ConnectionStore{Store: s, Now: fixedNow}
	ctx := context.Background()

	cs.Update(ctx, map[string]any{
		"connection_ref": "acme:github:u1",
		"access_token":   "tok-1",
	}, &authflow.RunContext{Vars: map[string]any{}, Input: map[string]any{}})

	out := cs.Read(ctx, map[string]any{"connection_ref": "acme:github:u1"}, nil)
	require.Equal(t, authflow.OutcomeOk, out.Kind)
	v := out.Value.(map[string]any)
	assert.Equal(t, "tok-1", v["access_token"])
}

func TestConnectionRead_NotFound(t *testing.T) {
	s := memstore.New(nil)
	cs := &ConnectionStore{Store: s}
	out := cs.Read(context.Background(), map[string]any{"connection_ref": "acme:github:missing"}, nil)
	assert.Equal(t, authflow.OutcomeError, out.Kind)
}
