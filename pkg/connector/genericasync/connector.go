// Package genericasync registers a "generic-async" connector kind stub:
// construction and input validation only, enough to exercise the registry's
// multi-kind dispatch without re-implementing a bespoke async tracking
// protocol. Execute returns a fixed status for the action's mode immediately.
package genericasync

import (
	"context"
	"encoding/json"

	"github.com/aionixone/openact/pkg/apperrors"
	"github.com/aionixone/openact/pkg/connector"
	"github.com/aionixone/openact/pkg/store"
)

// Kind is this connector's registry key.
const Kind = "generic-async"

// Mode selects how the stub reports completion.
type Mode string

const (
	ModeAsync      Mode = "async"
	ModeFireForget Mode = "fire_forget"
)

// ActionConfig describes how an external async task should be tracked.
// OpenAct does not implement the tracker here — only its declared shape.
type ActionConfig struct {
	Mode        Mode   `json:"mode,omitempty"`
	FireForget  bool   `json:"fire_forget,omitempty"`
	LaunchField string `json:"launch_field,omitempty"`
}

func (c *ActionConfig) resolvedMode() Mode {
	if c.FireForget {
		return ModeFireForget
	}
	if c.Mode == "" {
		return ModeAsync
	}
	return c.Mode
}

func parseActionConfig(raw json.RawMessage) (*ActionConfig, error) {
	var c ActionConfig
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, apperrors.NewInvalidError("generic-async: invalid action config JSON", err)
		}
	}
	switch c.resolvedMode() {
	case ModeAsync, ModeFireForget:
	default:
		return nil, apperrors.NewInvalidError("generic-async: unknown mode "+string(c.Mode), nil)
	}
	return &c, nil
}

type asyncConnection struct{}

func (asyncConnection) Kind() string { return Kind }

// ConnectionFactoryImpl builds the (stateless) stub connection.
type ConnectionFactoryImpl struct{}

func (ConnectionFactoryImpl) CreateConnection(_ *store.ConnectionRecord) (connector.Connection, error) {
	return asyncConnection{}, nil
}

type asyncAction struct {
	config *ActionConfig
}

// ActionFactoryImpl builds stub actions from an ActionRecord's config.
type ActionFactoryImpl struct{}

func (ActionFactoryImpl) CreateAction(rec *store.ActionRecord, _ connector.Connection) (connector.Action, error) {
	cfg, err := parseActionConfig(rec.ConfigJSON)
	if err != nil {
		return nil, err
	}
	return &asyncAction{config: cfg}, nil
}

func (a *asyncAction) ValidateInput(input map[string]any) error {
	if a.config.LaunchField == "" {
		return nil
	}
	if _, ok := input[a.config.LaunchField]; !ok {
		return apperrors.NewInvalidError("generic-async: missing launch field "+a.config.LaunchField, nil)
	}
	return nil
}

// Execute reports the stub's fixed status for its mode ("running" for async,
// "accepted" for fire_forget); no background tracking is started
// (§ Supplemented features).
func (a *asyncAction) Execute(_ context.Context, input map[string]any) (any, error) {
	mode := a.config.resolvedMode()
	status := "running"
	if mode == ModeFireForget {
		status = "accepted"
	}
	return map[string]any{
		"mode":   string(mode),
		"status": status,
		"input":  input,
	}, nil
}

// Register binds the generic-async connector kind into reg.
func Register(reg *connector.Registry) {
	reg.RegisterConnectionFactory(Kind, ConnectionFactoryImpl{})
	reg.RegisterActionFactory(Kind, ActionFactoryImpl{})
	reg.RegisterMetadata(Kind, connector.Metadata{
		DisplayName: "Generic Async",
		Category:    "async",
	})
}
