// Package connector implements the Connector Registry (§4.6): a
// process-wide typed dispatch table mapping a connector_kind to its
// connection/action factories, and the Execute dispatch flow that ties a
// stored ActionRecord + ConnectionRecord to a runtime call.
package connector

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aionixone/openact/pkg/apperrors"
	"github.com/aionixone/openact/pkg/store"
	"github.com/aionixone/openact/pkg/trn"
)

// Connection is a runtime handle produced from a ConnectionRecord.
type Connection interface {
	Kind() string
}

// Action is a runtime handle produced from an ActionRecord bound to a
// Connection. Execute receives already-rendered input and returns raw
// output JSON.
type Action interface {
	ValidateInput(input map[string]any) error
	Execute(ctx context.Context, input map[string]any) (any, error)
}

// ConnectionFactory builds a runtime Connection from a stored record.
type ConnectionFactory interface {
	CreateConnection(rec *store.ConnectionRecord) (Connection, error)
}

// ActionFactory builds a runtime Action from a stored record and its
// already-built Connection.
type ActionFactory interface {
	CreateAction(rec *store.ActionRecord, conn Connection) (Action, error)
}

// Metadata is a connector kind's self-description, the authoritative
// source for tooling/listing surfaces (§4.6 — no separate manifest).
type Metadata struct {
	Kind          string          `json:"kind"`
	DisplayName   string          `json:"display_name"`
	Category      string          `json:"category"`
	ExampleConfig json.RawMessage `json:"example_config,omitempty"`
}

// ValidateInputFunc is the default permissive ValidateInput, used by
// actions that accept arbitrary input.
func ValidateInputFunc(_ map[string]any) error { return nil }

type registration struct {
	connFactory   ConnectionFactory
	actionFactory ActionFactory
	metadata      Metadata
}

// Registry is the process-wide dispatch table. It is populated at startup
// and treated as read-only afterward (§5 Shared mutable state) — no lock is
// taken on lookups.
type Registry struct {
	kinds map[string]*registration

	Connections store.ConnectionStore
	Actions     store.ActionStore
}

// NewRegistry builds an empty Registry bound to the given stores.
func NewRegistry(connections store.ConnectionStore, actions store.ActionStore) *Registry {
	return &Registry{
		kinds:       make(map[string]*registration),
		Connections: connections,
		Actions:     actions,
	}
}

func (r *Registry) entry(kind string) *registration {
	e, ok := r.kinds[kind]
	if !ok {
		e = &registration{}
		r.kinds[kind] = e
	}
	return e
}

// RegisterConnectionFactory binds a ConnectionFactory to kind.
func (r *Registry) RegisterConnectionFactory(kind string, f ConnectionFactory) {
	r.entry(kind).connFactory = f
}

// RegisterActionFactory binds an ActionFactory to kind.
func (r *Registry) RegisterActionFactory(kind string, f ActionFactory) {
	r.entry(kind).actionFactory = f
}

// RegisterMetadata attaches a kind's self-description.
func (r *Registry) RegisterMetadata(kind string, m Metadata) {
	m.Kind = kind
	r.entry(kind).metadata = m
}

// RegisteredConnectors lists every connector_kind with at least one factory
// registered.
func (r *Registry) RegisteredConnectors() []string {
	out := make([]string, 0, len(r.kinds))
	for k := range r.kinds {
		out = append(out, k)
	}
	return out
}

// ConnectorMetadata returns every registered kind's metadata.
func (r *Registry) ConnectorMetadata() []Metadata {
	out := make([]Metadata, 0, len(r.kinds))
	for _, e := range r.kinds {
		out = append(out, e.metadata)
	}
	return out
}

// ExecutionEnvelope wraps a successful Execute result (§4.6).
type ExecutionEnvelope struct {
	Output   any               `json:"output"`
	Metadata ExecutionMetadata `json:"metadata"`
}

// ExecutionMetadata describes how an execution ran.
type ExecutionMetadata struct {
	ActionTRN string    `json:"action_trn"`
	Duration  int64     `json:"duration_ms"`
	DryRun    bool      `json:"dry_run"`
	Timestamp time.Time `json:"timestamp"`
}

// Execute implements the §4.6 execution flow: load ActionRecord, load its
// ConnectionRecord, resolve factories, build Connection+Action, validate,
// run, and wrap the output.
func (r *Registry) Execute(ctx context.Context, actionName trn.ResourceName, input map[string]any) (*ExecutionEnvelope, error) {
	start := time.Now()

	actionRec, err := r.Actions.GetAction(ctx, actionName)
	if err != nil {
		return nil, err
	}
	if actionRec == nil {
		return nil, apperrors.NewNotFoundError("action not found: "+actionName.String(), nil)
	}

	connRec, err := r.Connections.GetConnection(ctx, actionRec.ConnectionTRN)
	if err != nil {
		return nil, err
	}
	if connRec == nil {
		return nil, apperrors.NewNotFoundError("connection not found: "+actionRec.ConnectionTRN.String(), nil)
	}

	reg, ok := r.kinds[actionRec.ConnectorKnd]
	if !ok || reg.connFactory == nil || reg.actionFactory == nil {
		return nil, apperrors.NewConnectorNotRegisteredError("connector not registered: "+actionRec.ConnectorKnd, nil)
	}

	conn, err := reg.connFactory.CreateConnection(connRec)
	if err != nil {
		return nil, err
	}
	action, err := reg.actionFactory.CreateAction(actionRec, conn)
	if err != nil {
		return nil, err
	}

	if err := action.ValidateInput(input); err != nil {
		return nil, err
	}
	output, err := action.Execute(ctx, input)
	if err != nil {
		return nil, err
	}

	return &ExecutionEnvelope{
		Output: output,
		Metadata: ExecutionMetadata{
			ActionTRN: actionName.String(),
			Duration:  time.Since(start).Milliseconds(),
			DryRun:    false,
			Timestamp: time.Now().UTC(),
		},
	}, nil
}
