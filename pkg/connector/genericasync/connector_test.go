package genericasync

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aionixone/openact/pkg/connector"
	"github.com/aionixone/openact/pkg/store"
	"github.com/aionixone/openact/pkg/store/memstore"
	"github.com/aionixone/openact/pkg/trn"
)

func TestParseActionConfig_DefaultsToAsync(t *testing.T) {
	c, err := parseActionConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, ModeAsync, c.resolvedMode())
}

func TestParseActionConfig_FireForgetOverridesMode(t *testing.T) {
	c, err := parseActionConfig(json.RawMessage(`{"mode":"async","fire_forget":true}`))
	require.NoError(t, err)
	assert.Equal(t, ModeFireForget, c.resolvedMode())
}

func TestParseActionConfig_RejectsUnknownMode(t *testing.T) {
	_, err := parseActionConfig(json.RawMessage(`{"mode":"poll"}`))
	assert.Error(t, err)
}

func TestExecute_ReportsStatusByMode(t *testing.T) {
	a := &asyncAction{config: &ActionConfig{Mode: ModeFireForget}}
	out, err := a.Execute(context.Background(), map[string]any{"task": "x"})
	require.NoError(t, err)
	m := out.(map[string]any)
	assert.Equal(t, "accepted", m["status"])
}

func TestValidateInput_RequiresLaunchFieldWhenConfigured(t *testing.T) {
	a := &asyncAction{config: &ActionConfig{LaunchField: "job_id"}}
	assert.Error(t, a.ValidateInput(map[string]any{}))
	assert.NoError(t, a.ValidateInput(map[string]any{"job_id": "123"}))
}

func TestRegister_ExecutesThroughRegistry(t *testing.T) {
	s := memstore.New(nil)
	reg := connector.NewRegistry(s, s)
	Register(reg)

	ctx := context.Background()
	connName, _ := trn.Parse("trn:openact:acme:connection/generic-async/conn1")
	_, err := s.UpsertConnection(ctx, &store.ConnectionRecord{Name: connName, ConnectorKnd: Kind, ConfigJSON: json.RawMessage(`{}`)})
	require.NoError(t, err)

	actionName, _ := trn.Parse("trn:openact:acme:action/generic-async/act1")
	_, err = s.UpsertAction(ctx, &store.ActionRecord{Name: actionName, ConnectorKnd: Kind, ConnectionTRN: connName, ConfigJSON: json.RawMessage(`{"mode":"async"}`)})
	require.NoError(t, err)

	env, err := reg.Execute(ctx, actionName, nil)
	require.NoError(t, err)
	out := env.Output.(map[string]any)
	assert.Equal(t, "running", out["status"])
}
