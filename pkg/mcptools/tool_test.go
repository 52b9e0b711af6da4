package mcptools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aionixone/openact/pkg/store"
	"github.com/aionixone/openact/pkg/trn"
)

func mustName(t *testing.T, s string) trn.ResourceName {
	t.Helper()
	n, err := trn.Parse(s)
	require.NoError(t, err)
	return n
}

func TestBuildSpec_DefaultsInputSchema(t *testing.T) {
	rec := &store.ActionRecord{Name: mustName(t, "trn:openact:acme:action/http/get-user"), ConnectorKnd: "http", MCPEnabled: true}
	spec, err := BuildSpec(rec)
	require.NoError(t, err)
	assert.Equal(t, "http.get-user", spec.Name)
	assert.JSONEq(t, `{"type":"object"}`, string(spec.InputSchema))
}

func TestBuildSpec_AppliesOverrides(t *testing.T) {
	rec := &store.ActionRecord{
		Name:         mustName(t, "trn:openact:acme:action/http/get-user"),
		ConnectorKnd: "http",
		MCPEnabled:   true,
		MCPOverrides: json.RawMessage(`{"title":"Get User","input_schema":{"type":"object","properties":{"id":{"type":"string"}}}}`),
	}
	spec, err := BuildSpec(rec)
	require.NoError(t, err)
	assert.Equal(t, "Get User", spec.Title)
	assert.Contains(t, string(spec.InputSchema), "properties")
}

func TestBuildSpec_RejectsInvalidOverridesJSON(t *testing.T) {
	rec := &store.ActionRecord{
		Name:         mustName(t, "trn:openact:acme:action/http/get-user"),
		ConnectorKnd: "http",
		MCPOverrides: json.RawMessage(`not-json`),
	}
	_, err := BuildSpec(rec)
	assert.Error(t, err)
}

func TestBuildCatalog_SkipsDisabledActions(t *testing.T) {
	recs := []*store.ActionRecord{
		{Name: mustName(t, "trn:openact:acme:action/http/a"), ConnectorKnd: "http", MCPEnabled: true},
		{Name: mustName(t, "trn:openact:acme:action/http/b"), ConnectorKnd: "http", MCPEnabled: false},
	}
	specs := BuildCatalog(recs)
	require.Len(t, specs, 1)
	assert.Equal(t, "http.a", specs[0].Name)
}

func TestIsGenericExecuteTool(t *testing.T) {
	assert.True(t, IsGenericExecuteTool("openact.execute"))
	assert.True(t, IsGenericExecuteTool("OpenAct.Execute"))
	assert.False(t, IsGenericExecuteTool("http.get-user"))
}
