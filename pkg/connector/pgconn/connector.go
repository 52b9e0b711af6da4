package pgconn

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aionixone/openact/pkg/apperrors"
	"github.com/aionixone/openact/pkg/connector"
	"github.com/aionixone/openact/pkg/store"
)

// pgConnection holds a lazily-connected pool for one ConnectionRecord. The
// pool is built eagerly at CreateConnection time (pgxpool.New itself does
// not dial — the first Query does) so a misconfigured DSN surfaces as a
// config error rather than a deferred connection error.
type pgConnection struct {
	pool *pgxpool.Pool
}

func (c *pgConnection) Kind() string { return Kind }

// ConnectionFactoryImpl builds pgConnection handles from stored records.
type ConnectionFactoryImpl struct{}

func (ConnectionFactoryImpl) CreateConnection(rec *store.ConnectionRecord) (connector.Connection, error) {
	cfg, err := ParseConnectionConfig(rec.ConfigJSON)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, apperrors.NewInvalidError("pgconn: invalid DSN", err)
	}
	if cfg.MaxPoolConns > 0 {
		poolCfg.MaxConns = cfg.MaxPoolConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, apperrors.NewUpstreamError("pgconn: failed to create connection pool", err)
	}
	return &pgConnection{pool: pool}, nil
}

// pgAction runs a fixed statement against its connection's pool, binding
// input values to the action's declared parameters by name.
type pgAction struct {
	config *ActionConfig
	conn   *pgConnection
}

// ActionFactoryImpl builds pgAction handles bound to a pgConnection.
type ActionFactoryImpl struct{}

func (ActionFactoryImpl) CreateAction(rec *store.ActionRecord, conn connector.Connection) (connector.Action, error) {
	cfg, err := ParseActionConfig(rec.ConfigJSON)
	if err != nil {
		return nil, err
	}
	pc, ok := conn.(*pgConnection)
	if !ok {
		return nil, apperrors.NewInternalError("pgconn: unexpected connection type", nil)
	}
	return &pgAction{config: cfg, conn: pc}, nil
}

func (a *pgAction) ValidateInput(input map[string]any) error {
	for _, p := range a.config.Parameters {
		if _, ok := input[p.Name]; !ok {
			return apperrors.NewInvalidError("pgconn: missing bind parameter "+p.Name, nil)
		}
	}
	return nil
}

func (a *pgAction) Execute(ctx context.Context, input map[string]any) (any, error) {
	args := make([]any, len(a.config.Parameters))
	for i, p := range a.config.Parameters {
		args[i] = input[p.Name]
	}

	rows, err := a.conn.pool.Query(ctx, a.config.Statement, args...)
	if err != nil {
		return nil, apperrors.NewUpstreamError("pgconn: query failed", err)
	}
	defer rows.Close()

	results, err := collectRows(rows)
	if err != nil {
		return nil, apperrors.NewUpstreamError("pgconn: failed reading result rows", err)
	}

	return map[string]any{
		"rows":          results,
		"rows_affected": rows.CommandTag().RowsAffected(),
	}, nil
}

func collectRows(rows pgx.Rows) ([]map[string]any, error) {
	fields := rows.FieldDescriptions()
	out := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]any, len(fields))
		for i, f := range fields {
			row[string(f.Name)] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Register binds the postgresql connector kind into reg.
func Register(reg *connector.Registry) {
	reg.RegisterConnectionFactory(Kind, ConnectionFactoryImpl{})
	reg.RegisterActionFactory(Kind, ActionFactoryImpl{})
	reg.RegisterMetadata(Kind, connector.Metadata{
		DisplayName: "PostgreSQL",
		Category:    "database",
	})
}
