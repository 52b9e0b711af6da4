package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/aionixone/openact/pkg/apperrors"
	"github.com/aionixone/openact/pkg/store"
)

// UpsertCheckpoint implements store.CheckpointStore.
func (s *Store) UpsertCheckpoint(ctx context.Context, cp *store.Checkpoint) (*store.Checkpoint, error) {
	if cp.RunID == "" {
		return nil, apperrors.NewInvalidError("sqlite: checkpoint run_id is required", nil)
	}
	existing, err := s.GetCheckpoint(ctx, cp.RunID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	createdAt := now
	if existing != nil {
		createdAt = existing.CreatedAt
	}
	var awaitMeta any
	if len(cp.AwaitMetaRaw) > 0 {
		awaitMeta = string(cp.AwaitMetaRaw)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO run_checkpoints (run_id, paused_state, context_json, await_meta_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			paused_state=excluded.paused_state,
			context_json=excluded.context_json,
			await_meta_json=excluded.await_meta_json,
			updated_at=excluded.updated_at
	`, cp.RunID, cp.PausedState, string(cp.ContextJSON), awaitMeta, createdAt.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, apperrors.NewConflictError("sqlite: upsert checkpoint failed", err)
	}

	out := *cp
	out.CreatedAt = createdAt
	out.UpdatedAt = now
	return &out, nil
}

// GetCheckpoint implements store.CheckpointStore.
func (s *Store) GetCheckpoint(ctx context.Context, runID string) (*store.Checkpoint, error) {
	row := s.db.QueryRowContext(ctx, `SELECT paused_state, context_json, await_meta_json, created_at, updated_at FROM run_checkpoints WHERE run_id = ?`, runID)
	var pausedState, contextJSON, createdAt, updatedAt string
	var awaitMeta sql.NullString
	if err := row.Scan(&pausedState, &contextJSON, &awaitMeta, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, apperrors.NewInternalError("sqlite: get checkpoint", err)
	}
	out := &store.Checkpoint{RunID: runID, PausedState: pausedState, ContextJSON: json.RawMessage(contextJSON)}
	if awaitMeta.Valid {
		out.AwaitMetaRaw = json.RawMessage(awaitMeta.String)
	}
	out.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	out.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return out, nil
}

// DeleteCheckpoint implements store.CheckpointStore.
func (s *Store) DeleteCheckpoint(ctx context.Context, runID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM run_checkpoints WHERE run_id = ?`, runID)
	if err != nil {
		return false, apperrors.NewInternalError("sqlite: delete checkpoint", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
