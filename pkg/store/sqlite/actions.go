package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/aionixone/openact/pkg/apperrors"
	"github.com/aionixone/openact/pkg/store"
	"github.com/aionixone/openact/pkg/trn"
)

// UpsertAction implements store.ActionStore.
func (s *Store) UpsertAction(ctx context.Context, rec *store.ActionRecord) (*store.ActionRecord, error) {
	key := rec.Name.String()
	now := time.Now().UTC()

	existing, err := s.GetAction(ctx, rec.Name)
	if err != nil {
		return nil, err
	}
	version := 1
	createdAt := now
	if existing != nil {
		version = existing.Version + 1
		createdAt = existing.CreatedAt
	}

	mcpEnabled := 0
	if rec.MCPEnabled {
		mcpEnabled = 1
	}
	var overrides any
	if len(rec.MCPOverrides) > 0 {
		overrides = string(rec.MCPOverrides)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO actions (trn, connector_kind, connection_trn, config_json, mcp_enabled, mcp_overrides, created_at, updated_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(trn) DO UPDATE SET
			connector_kind=excluded.connector_kind,
			connection_trn=excluded.connection_trn,
			config_json=excluded.config_json,
			mcp_enabled=excluded.mcp_enabled,
			mcp_overrides=excluded.mcp_overrides,
			updated_at=excluded.updated_at,
			version=excluded.version
	`, key, rec.ConnectorKnd, rec.ConnectionTRN.String(), string(rec.ConfigJSON), mcpEnabled, overrides,
		createdAt.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano), version)
	if err != nil {
		return nil, apperrors.NewConflictError("sqlite: upsert action failed", err)
	}

	return &store.ActionRecord{
		Name: rec.Name, ConnectorKnd: rec.ConnectorKnd, ConnectionTRN: rec.ConnectionTRN,
		ConfigJSON: rec.ConfigJSON, MCPEnabled: rec.MCPEnabled, MCPOverrides: rec.MCPOverrides,
		CreatedAt: createdAt, UpdatedAt: now, Version: version,
	}, nil
}

// GetAction implements store.ActionStore.
func (s *Store) GetAction(ctx context.Context, name trn.ResourceName) (*store.ActionRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT connector_kind, connection_trn, config_json, mcp_enabled, mcp_overrides, created_at, updated_at, version FROM actions WHERE trn = ?`, name.String())

	var kind, connectionTRNStr, cfg, createdAt, updatedAt string
	var mcpEnabled, version int
	var overrides sql.NullString
	if err := row.Scan(&kind, &connectionTRNStr, &cfg, &mcpEnabled, &overrides, &createdAt, &updatedAt, &version); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, apperrors.NewInternalError("sqlite: get action", err)
	}
	connTRN, err := trn.Parse(connectionTRNStr)
	if err != nil {
		return nil, apperrors.NewInternalError("sqlite: corrupted connection_trn", err)
	}
	created, _ := time.Parse(time.RFC3339Nano, createdAt)
	updated, _ := time.Parse(time.RFC3339Nano, updatedAt)
	var overridesRaw json.RawMessage
	if overrides.Valid {
		overridesRaw = json.RawMessage(overrides.String)
	}
	return &store.ActionRecord{
		Name: name, ConnectorKnd: kind, ConnectionTRN: connTRN, ConfigJSON: json.RawMessage(cfg),
		MCPEnabled: mcpEnabled != 0, MCPOverrides: overridesRaw,
		CreatedAt: created, UpdatedAt: updated, Version: version,
	}, nil
}

// ListActionsByConnector implements store.ActionStore.
func (s *Store) ListActionsByConnector(ctx context.Context, kind string) ([]*store.ActionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT trn, connector_kind, connection_trn, config_json, mcp_enabled, mcp_overrides, created_at, updated_at, version FROM actions WHERE connector_kind = ?`, kind)
	if err != nil {
		return nil, apperrors.NewInternalError("sqlite: list actions by connector", err)
	}
	defer rows.Close()
	return scanActionRows(rows)
}

// ListActionsByConnection implements store.ActionStore.
func (s *Store) ListActionsByConnection(ctx context.Context, connectionTRN trn.ResourceName) ([]*store.ActionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT trn, connector_kind, connection_trn, config_json, mcp_enabled, mcp_overrides, created_at, updated_at, version FROM actions WHERE connection_trn = ?`, connectionTRN.String())
	if err != nil {
		return nil, apperrors.NewInternalError("sqlite: list actions by connection", err)
	}
	defer rows.Close()
	return scanActionRows(rows)
}

func scanActionRows(rows *sql.Rows) ([]*store.ActionRecord, error) {
	var out []*store.ActionRecord
	for rows.Next() {
		var trnStr, kind, connectionTRNStr, cfg, createdAt, updatedAt string
		var mcpEnabled, version int
		var overrides sql.NullString
		if err := rows.Scan(&trnStr, &kind, &connectionTRNStr, &cfg, &mcpEnabled, &overrides, &createdAt, &updatedAt, &version); err != nil {
			return nil, apperrors.NewInternalError("sqlite: scan action row", err)
		}
		name, err := trn.Parse(trnStr)
		if err != nil {
			return nil, apperrors.NewInternalError("sqlite: corrupted action trn", err)
		}
		connTRN, err := trn.Parse(connectionTRNStr)
		if err != nil {
			return nil, apperrors.NewInternalError("sqlite: corrupted connection_trn", err)
		}
		created, _ := time.Parse(time.RFC3339Nano, createdAt)
		updated, _ := time.Parse(time.RFC3339Nano, updatedAt)
		var overridesRaw json.RawMessage
		if overrides.Valid {
			overridesRaw = json.RawMessage(overrides.String)
		}
		out = append(out, &store.ActionRecord{
			Name: name, ConnectorKnd: kind, ConnectionTRN: connTRN, ConfigJSON: json.RawMessage(cfg),
			MCPEnabled: mcpEnabled != 0, MCPOverrides: overridesRaw,
			CreatedAt: created, UpdatedAt: updated, Version: version,
		})
	}
	return out, rows.Err()
}

// DeleteAction implements store.ActionStore.
func (s *Store) DeleteAction(ctx context.Context, name trn.ResourceName) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM actions WHERE trn = ?`, name.String())
	if err != nil {
		return false, apperrors.NewInternalError("sqlite: delete action", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
