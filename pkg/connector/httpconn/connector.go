package httpconn

import (
	"context"
	"encoding/json"

	"github.com/aionixone/openact/pkg/apperrors"
	"github.com/aionixone/openact/pkg/connector"
	"github.com/aionixone/openact/pkg/connector/clientpool"
	"github.com/aionixone/openact/pkg/store"
)

// Kind is the connector_kind this package registers itself under.
const Kind = "http"

// httpConnection is the runtime Connection built from a ConnectionRecord.
type httpConnection struct {
	config *ConnectionConfig
}

func (c *httpConnection) Kind() string { return Kind }

// ConnectionFactoryImpl builds httpConnections from stored records and is
// registered as the Kind's connector.ConnectionFactory.
type ConnectionFactoryImpl struct{}

func (ConnectionFactoryImpl) CreateConnection(rec *store.ConnectionRecord) (connector.Connection, error) {
	cfg, err := ParseConnectionConfig(rec.ConfigJSON)
	if err != nil {
		return nil, err
	}
	return &httpConnection{config: cfg}, nil
}

// httpAction is the runtime Action bound to a Connection.
type httpAction struct {
	config   *ActionConfig
	conn     *ConnectionConfig
	pool     *clientpool.Pool
	resolver CredentialResolver
}

func (a *httpAction) ValidateInput(_ map[string]any) error {
	return connector.ValidateInputFunc(nil)
}

func (a *httpAction) Execute(ctx context.Context, input map[string]any) (any, error) {
	return doRequest(ctx, a.conn, a.config, a.pool, a.resolver, input)
}

// ActionFactoryImpl builds httpActions and is registered as the Kind's
// connector.ActionFactory.
type ActionFactoryImpl struct {
	Pool     *clientpool.Pool
	Resolver CredentialResolver
}

func (f ActionFactoryImpl) CreateAction(rec *store.ActionRecord, conn connector.Connection) (connector.Action, error) {
	httpConn, ok := conn.(*httpConnection)
	if !ok {
		return nil, apperrors.NewInternalError("httpconn: action factory received non-http connection", nil)
	}
	cfg, err := ParseActionConfig(rec.ConfigJSON)
	if err != nil {
		return nil, err
	}
	pool := f.Pool
	if pool == nil {
		pool = clientpool.New(0, 0)
	}
	return &httpAction{config: cfg, conn: httpConn.config, pool: pool, resolver: f.Resolver}, nil
}

// Register wires this connector kind into a connector.Registry.
func Register(reg *connector.Registry, pool *clientpool.Pool, resolver CredentialResolver) {
	reg.RegisterConnectionFactory(Kind, ConnectionFactoryImpl{})
	reg.RegisterActionFactory(Kind, ActionFactoryImpl{Pool: pool, Resolver: resolver})
	reg.RegisterMetadata(Kind, connector.Metadata{
		DisplayName: "HTTP",
		Category:    "generic",
		ExampleConfig: json.RawMessage(`{"base_url":"https://api.example.com","authorization":"none"}`),
	})
}
