// Package memstore is an in-memory Store backend, used by execute_inline
// (§4.8) and throughout the test suite. It shares the same envelope
// encryption helper as the sqlite backend so encrypted-round-trip behaviour
// is identical across backends.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/aionixone/openact/pkg/apperrors"
	"github.com/aionixone/openact/pkg/store"
	"github.com/aionixone/openact/pkg/trn"
)

// Store is a mutex-guarded in-memory implementation of store.Store.
type Store struct {
	mu          sync.Mutex
	connections map[string]*store.ConnectionRecord
	actions     map[string]*store.ActionRecord
	auths       map[string]*encryptedAuth
	checkpoints map[string]*store.Checkpoint
	keys        *store.KeyRing
}

type encryptedAuth struct {
	tenant, provider, userID string
	accessToken              store.EncryptedField
	refreshToken             *store.EncryptedField
	expiresAt                *time.Time
	tokenType, scope         string
	extra                    []byte
	createdAt, updatedAt     time.Time
	version                  int
}

// New builds an empty in-memory store. keys may be nil to disable
// encryption (fields are then held at key-version 0).
func New(keys *store.KeyRing) *Store {
	if keys == nil {
		keys, _ = store.NewKeyRing(nil)
	}
	return &Store{
		connections: map[string]*store.ConnectionRecord{},
		actions:     map[string]*store.ActionRecord{},
		auths:       map[string]*encryptedAuth{},
		checkpoints: map[string]*store.Checkpoint{},
		keys:        keys,
	}
}

// Close is a no-op for the in-memory backend.
func (s *Store) Close() error { return nil }

func cloneConnection(rec *store.ConnectionRecord) *store.ConnectionRecord {
	c := *rec
	return &c
}

// UpsertConnection implements store.ConnectionStore.
func (s *Store) UpsertConnection(_ context.Context, rec *store.ConnectionRecord) (*store.ConnectionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := rec.Name.String()
	now := time.Now().UTC()
	if existing, ok := s.connections[key]; ok {
		updated := cloneConnection(rec)
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = now
		updated.Version = existing.Version + 1
		s.connections[key] = updated
		return cloneConnection(updated), nil
	}
	created := cloneConnection(rec)
	created.CreatedAt = now
	created.UpdatedAt = now
	if created.Version == 0 {
		created.Version = 1
	}
	s.connections[key] = created
	return cloneConnection(created), nil
}

// GetConnection implements store.ConnectionStore.
func (s *Store) GetConnection(_ context.Context, name trn.ResourceName) (*store.ConnectionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.connections[name.String()]
	if !ok {
		return nil, nil
	}
	return cloneConnection(rec), nil
}

// DeleteConnection implements store.ConnectionStore.
func (s *Store) DeleteConnection(_ context.Context, name trn.ResourceName) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := name.String()
	if _, ok := s.connections[key]; !ok {
		return false, nil
	}
	delete(s.connections, key)
	return true, nil
}

// ListConnectionsByConnector implements store.ConnectionStore.
func (s *Store) ListConnectionsByConnector(_ context.Context, kind string) ([]*store.ConnectionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*store.ConnectionRecord
	for _, rec := range s.connections {
		if rec.ConnectorKnd == kind {
			out = append(out, cloneConnection(rec))
		}
	}
	return out, nil
}

func cloneAction(rec *store.ActionRecord) *store.ActionRecord {
	c := *rec
	return &c
}

// UpsertAction implements store.ActionStore.
func (s *Store) UpsertAction(_ context.Context, rec *store.ActionRecord) (*store.ActionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := rec.Name.String()
	now := time.Now().UTC()
	if existing, ok := s.actions[key]; ok {
		updated := cloneAction(rec)
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = now
		updated.Version = existing.Version + 1
		s.actions[key] = updated
		return cloneAction(updated), nil
	}
	created := cloneAction(rec)
	created.CreatedAt = now
	created.UpdatedAt = now
	if created.Version == 0 {
		created.Version = 1
	}
	s.actions[key] = created
	return cloneAction(created), nil
}

// GetAction implements store.ActionStore.
func (s *Store) GetAction(_ context.Context, name trn.ResourceName) (*store.ActionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.actions[name.String()]
	if !ok {
		return nil, nil
	}
	return cloneAction(rec), nil
}

// DeleteAction implements store.ActionStore.
func (s *Store) DeleteAction(_ context.Context, name trn.ResourceName) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := name.String()
	if _, ok := s.actions[key]; !ok {
		return false, nil
	}
	delete(s.actions, key)
	return true, nil
}

// ListActionsByConnector implements store.ActionStore.
func (s *Store) ListActionsByConnector(_ context.Context, kind string) ([]*store.ActionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*store.ActionRecord
	for _, rec := range s.actions {
		if rec.ConnectorKnd == kind {
			out = append(out, cloneAction(rec))
		}
	}
	return out, nil
}

// ListActionsByConnection implements store.ActionStore.
func (s *Store) ListActionsByConnection(_ context.Context, connectionTRN trn.ResourceName) ([]*store.ActionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*store.ActionRecord
	for _, rec := range s.actions {
		if rec.ConnectionTRN.Equal(connectionTRN) {
			out = append(out, cloneAction(rec))
		}
	}
	return out, nil
}

func authKey(tenant, provider, userID string) string {
	return tenant + "/" + provider + "/" + userID
}

func (s *Store) decodeAuth(a *encryptedAuth) (*store.AuthConnection, error) {
	access, err := s.keys.Decrypt(a.accessToken)
	if err != nil {
		return nil, err
	}
	out := &store.AuthConnection{
		Tenant:      a.tenant,
		Provider:    a.provider,
		UserID:      a.userID,
		AccessToken: access,
		ExpiresAt:   a.expiresAt,
		TokenType:   a.tokenType,
		Scope:       a.scope,
		Extra:       a.extra,
		CreatedAt:   a.createdAt,
		UpdatedAt:   a.updatedAt,
		Version:     a.version,
	}
	if a.refreshToken != nil {
		refresh, err := s.keys.Decrypt(*a.refreshToken)
		if err != nil {
			return nil, err
		}
		out.RefreshToken = refresh
	}
	return out, nil
}

// UpsertAuthConnection implements store.AuthConnectionStore.
func (s *Store) UpsertAuthConnection(_ context.Context, rec *store.AuthConnection) (*store.AuthConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accessField, err := s.keys.Encrypt(rec.AccessToken)
	if err != nil {
		return nil, err
	}
	var refreshField *store.EncryptedField
	if rec.RefreshToken != "" {
		f, err := s.keys.Encrypt(rec.RefreshToken)
		if err != nil {
			return nil, err
		}
		refreshField = &f
	}

	key := authKey(rec.Tenant, rec.Provider, rec.UserID)
	now := time.Now().UTC()
	entry := &encryptedAuth{
		tenant: rec.Tenant, provider: rec.Provider, userID: rec.UserID,
		accessToken: accessField, refreshToken: refreshField,
		expiresAt: rec.ExpiresAt, tokenType: rec.TokenType, scope: rec.Scope,
		extra: rec.Extra, updatedAt: now,
	}
	if existing, ok := s.auths[key]; ok {
		entry.createdAt = existing.createdAt
		entry.version = existing.version + 1
	} else {
		entry.createdAt = now
		entry.version = 1
	}
	s.auths[key] = entry
	return s.decodeAuth(entry)
}

// GetAuthConnection implements store.AuthConnectionStore.
func (s *Store) GetAuthConnection(_ context.Context, tenant, provider, userID string) (*store.AuthConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.auths[authKey(tenant, provider, userID)]
	if !ok {
		return nil, nil
	}
	return s.decodeAuth(a)
}

// DeleteAuthConnection implements store.AuthConnectionStore.
func (s *Store) DeleteAuthConnection(_ context.Context, tenant, provider, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := authKey(tenant, provider, userID)
	if _, ok := s.auths[key]; !ok {
		return false, nil
	}
	delete(s.auths, key)
	return true, nil
}

// UpsertCheckpoint implements store.CheckpointStore.
func (s *Store) UpsertCheckpoint(_ context.Context, cp *store.Checkpoint) (*store.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cp.RunID == "" {
		return nil, apperrors.NewInvalidError("store: checkpoint run_id is required", nil)
	}
	now := time.Now().UTC()
	copyCp := *cp
	if existing, ok := s.checkpoints[cp.RunID]; ok {
		copyCp.CreatedAt = existing.CreatedAt
	} else {
		copyCp.CreatedAt = now
	}
	copyCp.UpdatedAt = now
	s.checkpoints[cp.RunID] = &copyCp
	out := copyCp
	return &out, nil
}

// GetCheckpoint implements store.CheckpointStore.
func (s *Store) GetCheckpoint(_ context.Context, runID string) (*store.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp, ok := s.checkpoints[runID]
	if !ok {
		return nil, nil
	}
	out := *cp
	return &out, nil
}

// DeleteCheckpoint implements store.CheckpointStore.
func (s *Store) DeleteCheckpoint(_ context.Context, runID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.checkpoints[runID]; !ok {
		return false, nil
	}
	delete(s.checkpoints, runID)
	return true, nil
}
