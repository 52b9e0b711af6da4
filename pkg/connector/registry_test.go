package connector

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aionixone/openact/pkg/store"
	"github.com/aionixone/openact/pkg/store/memstore"
	"github.com/aionixone/openact/pkg/trn"
)

type stubConnection struct{ kind string }

func (s *stubConnection) Kind() string { return s.kind }

type stubConnFactory struct{}

func (stubConnFactory) CreateConnection(rec *store.ConnectionRecord) (Connection, error) {
	return &stubConnection{kind: rec.ConnectorKnd}, nil
}

type stubAction struct{}

func (stubAction) ValidateInput(_ map[string]any) error { return nil }
func (stubAction) Execute(_ context.Context, input map[string]any) (any, error) {
	return map[string]any{"echo": input["msg"]}, nil
}

type stubActionFactory struct{}

func (stubActionFactory) CreateAction(_ *store.ActionRecord, _ Connection) (Action, error) {
	return stubAction{}, nil
}

func setup(t *testing.T) (*Registry, *memstore.Store) {
	t.Helper()
	s := memstore.New(nil)
	r := NewRegistry(s, s)
	r.RegisterConnectionFactory("stub", stubConnFactory{})
	r.RegisterActionFactory("stub", stubActionFactory{})
	r.RegisterMetadata("stub", Metadata{DisplayName: "Stub", Category: "test"})
	return r, s
}

func mustTRN(t *testing.T, s string) trn.ResourceName {
	t.Helper()
	n, err := trn.Parse(s)
	require.NoError(t, err)
	return n
}

func TestExecute_HappyPath(t *testing.T) {
	r, s := setup(t)
	ctx := context.Background()

	connName := mustTRN(t, "trn:openact:acme:connection/stub/conn1")
	_, err := s.UpsertConnection(ctx, &store.ConnectionRecord{Name: connName, ConnectorKnd: "stub", ConfigJSON: json.RawMessage(`{}`)})
	require.NoError(t, err)

	actionName := mustTRN(t, "trn:openact:acme:action/stub/act1")
	_, err = s.UpsertAction(ctx, &store.ActionRecord{Name: actionName, ConnectorKnd: "stub", ConnectionTRN: connName, ConfigJSON: json.RawMessage(`{}`)})
	require.NoError(t, err)

	env, err := r.Execute(ctx, actionName, map[string]any{"msg": "hi"})
	require.NoError(t, err)
	out := env.Output.(map[string]any)
	assert.Equal(t, "hi", out["echo"])
	assert.False(t, env.Metadata.DryRun)
	assert.WithinDuration(t, time.Now(), env.Metadata.Timestamp, time.Minute)
}

func TestExecute_ActionNotFound(t *testing.T) {
	r, _ := setup(t)
	_, err := r.Execute(context.Background(), mustTRN(t, "trn:openact:acme:action/stub/missing"), nil)
	assert.Error(t, err)
}

func TestExecute_ConnectorNotRegistered(t *testing.T) {
	r, s := setup(t)
	ctx := context.Background()
	connName := mustTRN(t, "trn:openact:acme:connection/unknownkind/conn1")
	_, _ = s.UpsertConnection(ctx, &store.ConnectionRecord{Name: connName, ConnectorKnd: "unknownkind", ConfigJSON: json.RawMessage(`{}`)})
	actionName := mustTRN(t, "trn:openact:acme:action/unknownkind/act1")
	_, _ = s.UpsertAction(ctx, &store.ActionRecord{Name: actionName, ConnectorKnd: "unknownkind", ConnectionTRN: connName, ConfigJSON: json.RawMessage(`{}`)})

	_, err := r.Execute(ctx, actionName, nil)
	assert.Error(t, err)
}

func TestRegisteredConnectors_AndMetadata(t *testing.T) {
	r, _ := setup(t)
	assert.Contains(t, r.RegisteredConnectors(), "stub")
	meta := r.ConnectorMetadata()
	require.Len(t, meta, 1)
	assert.Equal(t, "stub", meta[0].Kind)
}
