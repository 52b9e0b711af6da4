package httpconn

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aionixone/openact/pkg/connector"
	"github.com/aionixone/openact/pkg/connector/clientpool"
	"github.com/aionixone/openact/pkg/store"
	"github.com/aionixone/openact/pkg/store/memstore"
	"github.com/aionixone/openact/pkg/trn"
)

func TestRegister_AndExecuteViaRegistry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	s := memstore.New(nil)
	reg := connector.NewRegistry(s, s)
	Register(reg, clientpool.New(4, 0), nil)

	ctx := context.Background()
	connName, _ := trn.Parse("trn:openact:acme:connection/http/conn1")
	cfg, _ := json.Marshal(map[string]any{"base_url": srv.URL, "authorization": "none"})
	_, err := s.UpsertConnection(ctx, &store.ConnectionRecord{Name: connName, ConnectorKnd: Kind, ConfigJSON: cfg})
	require.NoError(t, err)

	actionName, _ := trn.Parse("trn:openact:acme:action/http/act1")
	acfg, _ := json.Marshal(map[string]any{"method": "GET", "path": "/ping"})
	_, err = s.UpsertAction(ctx, &store.ActionRecord{Name: actionName, ConnectorKnd: Kind, ConnectionTRN: connName, ConfigJSON: acfg})
	require.NoError(t, err)

	env, err := reg.Execute(ctx, actionName, nil)
	require.NoError(t, err)
	out := env.Output.(map[string]any)
	body := out["body"].(map[string]any)
	assert.Equal(t, true, body["ok"])
}
