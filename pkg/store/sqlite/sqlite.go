// Package sqlite implements the Store substrate (§4.2) on top of a
// cgo-free sqlite driver, following the teacher's pkg/storage/sqlite
// migration-on-open convention.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // database/sql driver registration

	"github.com/aionixone/openact/pkg/apperrors"
	"github.com/aionixone/openact/pkg/store"
	"github.com/aionixone/openact/pkg/trn"
)

// Store implements store.Store on a single *sql.DB handle.
type Store struct {
	db   *sql.DB
	keys *store.KeyRing
}

// Open opens (and migrates) a sqlite-backed Store at dsn. keys may be nil to
// disable envelope encryption.
func Open(ctx context.Context, dsn string, keys *store.KeyRing) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", dsn, err)
	}
	db.SetMaxOpenConns(1) // modernc sqlite: avoid SQLITE_BUSY under concurrent writers

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	if keys == nil {
		keys, _ = store.NewKeyRing(nil)
	}
	return &Store{db: db, keys: keys}, nil
}

// Close implements store.Store.
func (s *Store) Close() error { return s.db.Close() }

// UpsertConnection implements store.ConnectionStore. Upsert is idempotent
// on the primary key (trn), relying on SQLite's UNIQUE + ON CONFLICT
// semantics for optimistic concurrency (§4.2).
func (s *Store) UpsertConnection(ctx context.Context, rec *store.ConnectionRecord) (*store.ConnectionRecord, error) {
	if rec.Name.Connector != rec.ConnectorKnd {
		return nil, apperrors.NewInvalidError("sqlite: connector_kind does not match resource name", nil)
	}
	key := rec.Name.String()
	now := time.Now().UTC()

	existing, err := s.GetConnection(ctx, rec.Name)
	if err != nil {
		return nil, err
	}

	version := 1
	createdAt := now
	if existing != nil {
		version = existing.Version + 1
		createdAt = existing.CreatedAt
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO connections (trn, connector_kind, config_json, created_at, updated_at, version)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(trn) DO UPDATE SET
			connector_kind=excluded.connector_kind,
			config_json=excluded.config_json,
			updated_at=excluded.updated_at,
			version=excluded.version
	`, key, rec.ConnectorKnd, string(rec.ConfigJSON), createdAt.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano), version)
	if err != nil {
		return nil, apperrors.NewConflictError("sqlite: upsert connection failed", err)
	}

	return &store.ConnectionRecord{
		Name: rec.Name, ConnectorKnd: rec.ConnectorKnd, ConfigJSON: rec.ConfigJSON,
		CreatedAt: createdAt, UpdatedAt: now, Version: version,
	}, nil
}

// GetConnection implements store.ConnectionStore.
func (s *Store) GetConnection(ctx context.Context, name trn.ResourceName) (*store.ConnectionRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT connector_kind, config_json, created_at, updated_at, version FROM connections WHERE trn = ?`, name.String())
	var kind, cfg, createdAt, updatedAt string
	var version int
	if err := row.Scan(&kind, &cfg, &createdAt, &updatedAt, &version); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, apperrors.NewInternalError("sqlite: get connection", err)
	}
	created, _ := time.Parse(time.RFC3339Nano, createdAt)
	updated, _ := time.Parse(time.RFC3339Nano, updatedAt)
	return &store.ConnectionRecord{Name: name, ConnectorKnd: kind, ConfigJSON: json.RawMessage(cfg), CreatedAt: created, UpdatedAt: updated, Version: version}, nil
}

// DeleteConnection implements store.ConnectionStore.
func (s *Store) DeleteConnection(ctx context.Context, name trn.ResourceName) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM connections WHERE trn = ?`, name.String())
	if err != nil {
		return false, apperrors.NewInternalError("sqlite: delete connection", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListConnectionsByConnector implements store.ConnectionStore.
func (s *Store) ListConnectionsByConnector(ctx context.Context, kind string) ([]*store.ConnectionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT trn, connector_kind, config_json, created_at, updated_at, version FROM connections WHERE connector_kind = ?`, kind)
	if err != nil {
		return nil, apperrors.NewInternalError("sqlite: list connections", err)
	}
	defer rows.Close()

	var out []*store.ConnectionRecord
	for rows.Next() {
		var trnStr, connectorKind, cfg, createdAt, updatedAt string
		var version int
		if err := rows.Scan(&trnStr, &connectorKind, &cfg, &createdAt, &updatedAt, &version); err != nil {
			return nil, apperrors.NewInternalError("sqlite: scan connection row", err)
		}
		name, err := trn.Parse(trnStr)
		if err != nil {
			return nil, apperrors.NewInternalError("sqlite: corrupted trn in row", err)
		}
		created, _ := time.Parse(time.RFC3339Nano, createdAt)
		updated, _ := time.Parse(time.RFC3339Nano, updatedAt)
		out = append(out, &store.ConnectionRecord{Name: name, ConnectorKnd: connectorKind, ConfigJSON: json.RawMessage(cfg), CreatedAt: created, UpdatedAt: updated, Version: version})
	}
	return out, rows.Err()
}
