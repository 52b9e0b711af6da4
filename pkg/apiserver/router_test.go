package apiserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aionixone/openact/pkg/connector"
	"github.com/aionixone/openact/pkg/store"
	"github.com/aionixone/openact/pkg/store/memstore"
	"github.com/aionixone/openact/pkg/trn"
)

type echoConnection struct{}

func (echoConnection) Kind() string { return "echo" }

type echoConnFactory struct{}

func (echoConnFactory) CreateConnection(_ *store.ConnectionRecord) (connector.Connection, error) {
	return echoConnection{}, nil
}

type echoAction struct{}

func (echoAction) ValidateInput(_ map[string]any) error { return nil }
func (echoAction) Execute(_ context.Context, input map[string]any) (any, error) {
	return map[string]any{"echo": input["msg"]}, nil
}

type echoActionFactory struct{}

func (echoActionFactory) CreateAction(_ *store.ActionRecord, _ connector.Connection) (connector.Action, error) {
	return echoAction{}, nil
}

func setupServer(t *testing.T) (*httptest.Server, trn.ResourceName) {
	t.Helper()
	s := memstore.New(nil)
	reg := connector.NewRegistry(s, s)
	reg.RegisterConnectionFactory("echo", echoConnFactory{})
	reg.RegisterActionFactory("echo", echoActionFactory{})
	reg.RegisterMetadata("echo", connector.Metadata{DisplayName: "Echo"})

	ctx := context.Background()
	connName, err := trn.Parse("trn:openact:acme:connection/echo/conn1")
	require.NoError(t, err)
	_, err = s.UpsertConnection(ctx, &store.ConnectionRecord{Name: connName, ConnectorKnd: "echo", ConfigJSON: json.RawMessage(`{}`)})
	require.NoError(t, err)

	actionName, err := trn.Parse("trn:openact:acme:action/echo/act1")
	require.NoError(t, err)
	_, err = s.UpsertAction(ctx, &store.ActionRecord{Name: actionName, ConnectorKnd: "echo", ConnectionTRN: connName, ConfigJSON: json.RawMessage(`{}`), MCPEnabled: true})
	require.NoError(t, err)

	return httptest.NewServer(NewRouter(reg)), actionName
}

func TestHealth(t *testing.T) {
	srv, _ := setupServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var env Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.Metadata.RequestID)
	assert.Equal(t, "default", env.Metadata.Tenant)
}

func TestListKinds(t *testing.T) {
	srv, _ := setupServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/kinds")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListActions_IncludesMCPEnabled(t *testing.T) {
	srv, _ := setupServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/actions")
	require.NoError(t, err)
	defer resp.Body.Close()

	var env Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.True(t, env.Success)
	list := env.Data.([]any)
	require.Len(t, list, 1)
}

func TestExecuteNamedAction_Success(t *testing.T) {
	srv, actionName := setupServer(t)
	defer srv.Close()

	body, _ := json.Marshal(map[string]any{"input": map[string]any{"msg": "hi"}})
	resp, err := http.Post(srv.URL+"/api/v1/actions/"+EncodeActionName(actionName)+"/execute", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var env Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.True(t, env.Success)
}

func TestExecuteByBody_UnknownAction(t *testing.T) {
	srv, _ := setupServer(t)
	defer srv.Close()

	body, _ := json.Marshal(map[string]any{"action_name": "trn:openact:acme:action/echo/missing"})
	resp, err := http.Post(srv.URL+"/api/v1/execute", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEqual(t, http.StatusOK, resp.StatusCode)
}

func TestActionSchema(t *testing.T) {
	srv, actionName := setupServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/actions/" + EncodeActionName(actionName) + "/schema")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
