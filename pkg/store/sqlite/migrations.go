package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migration is one linear, idempotent schema step, following the teacher's
// sqlite backend convention of a numbered migration list run once at open.
type migration struct {
	version int
	stmt    string
}

var migrations = []migration{
	{1, `CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY)`},
	{2, `CREATE TABLE IF NOT EXISTS connections (
		trn TEXT PRIMARY KEY,
		connector_kind TEXT NOT NULL,
		config_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		version INTEGER NOT NULL
	)`},
	{3, `CREATE INDEX IF NOT EXISTS idx_connections_connector ON connections(connector_kind)`},
	{4, `CREATE TABLE IF NOT EXISTS actions (
		trn TEXT PRIMARY KEY,
		connector_kind TEXT NOT NULL,
		connection_trn TEXT NOT NULL,
		config_json TEXT NOT NULL,
		mcp_enabled INTEGER NOT NULL DEFAULT 0,
		mcp_overrides TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		version INTEGER NOT NULL
	)`},
	{5, `CREATE INDEX IF NOT EXISTS idx_actions_connector ON actions(connector_kind)`},
	{6, `CREATE INDEX IF NOT EXISTS idx_actions_connection ON actions(connection_trn)`},
	{7, `CREATE TABLE IF NOT EXISTS auth_connections (
		tenant TEXT NOT NULL,
		provider TEXT NOT NULL,
		user_id TEXT NOT NULL,
		access_token_encrypted TEXT NOT NULL,
		access_token_nonce TEXT,
		access_token_key_version INTEGER NOT NULL,
		refresh_token_encrypted TEXT,
		refresh_token_nonce TEXT,
		refresh_token_key_version INTEGER,
		expires_at TEXT,
		token_type TEXT NOT NULL,
		scope TEXT,
		extra_json TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		version INTEGER NOT NULL,
		PRIMARY KEY (tenant, provider, user_id)
	)`},
	{8, `CREATE TABLE IF NOT EXISTS run_checkpoints (
		run_id TEXT PRIMARY KEY,
		paused_state TEXT NOT NULL,
		context_json TEXT NOT NULL,
		await_meta_json TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`},
}

// runMigrations applies every migration not yet recorded in
// schema_migrations, in version order. It is safe to call on every open:
// already-applied steps are no-ops.
func runMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, migrations[0].stmt); err != nil {
		return fmt.Errorf("sqlite: bootstrap schema_migrations: %w", err)
	}

	applied := map[int]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("sqlite: reading schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("sqlite: scanning schema_migrations: %w", err)
		}
		applied[v] = true
	}
	rows.Close()

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		if _, err := db.ExecContext(ctx, m.stmt); err != nil {
			return fmt.Errorf("sqlite: migration %d failed: %w", m.version, err)
		}
		if _, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO schema_migrations(version) VALUES (?)`, m.version); err != nil {
			return fmt.Errorf("sqlite: recording migration %d: %w", m.version, err)
		}
	}
	return nil
}
