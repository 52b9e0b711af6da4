package store

import (
	"context"

	"github.com/aionixone/openact/pkg/trn"
)

// Store is the substrate surface OpenAct's runtime depends on. Each backend
// (sqlite, memstore) implements it in full.
type Store interface {
	ConnectionStore
	ActionStore
	AuthConnectionStore
	CheckpointStore

	// Close releases any resources (DB handles, connections) held by the
	// backend.
	Close() error
}

// ConnectionStore manages ConnectionRecord persistence.
type ConnectionStore interface {
	UpsertConnection(ctx context.Context, rec *ConnectionRecord) (*ConnectionRecord, error)
	GetConnection(ctx context.Context, name trn.ResourceName) (*ConnectionRecord, error)
	DeleteConnection(ctx context.Context, name trn.ResourceName) (bool, error)
	ListConnectionsByConnector(ctx context.Context, kind string) ([]*ConnectionRecord, error)
}

// ActionStore manages ActionRecord persistence.
type ActionStore interface {
	UpsertAction(ctx context.Context, rec *ActionRecord) (*ActionRecord, error)
	GetAction(ctx context.Context, name trn.ResourceName) (*ActionRecord, error)
	DeleteAction(ctx context.Context, name trn.ResourceName) (bool, error)
	ListActionsByConnector(ctx context.Context, kind string) ([]*ActionRecord, error)
	ListActionsByConnection(ctx context.Context, connectionTRN trn.ResourceName) ([]*ActionRecord, error)
}

// AuthConnectionStore manages AuthConnection persistence, including the
// envelope encryption of sensitive fields.
type AuthConnectionStore interface {
	UpsertAuthConnection(ctx context.Context, rec *AuthConnection) (*AuthConnection, error)
	GetAuthConnection(ctx context.Context, tenant, provider, userID string) (*AuthConnection, error)
	DeleteAuthConnection(ctx context.Context, tenant, provider, userID string) (bool, error)
}

// CheckpointStore manages paused AuthFlow run persistence.
type CheckpointStore interface {
	UpsertCheckpoint(ctx context.Context, cp *Checkpoint) (*Checkpoint, error)
	GetCheckpoint(ctx context.Context, runID string) (*Checkpoint, error)
	DeleteCheckpoint(ctx context.Context, runID string) (bool, error)
}
