// Package exec implements the Execution Surface (§4.8): the single
// execute_action entry point with dry-run and timeout support, plus
// execute_inline for ad-hoc CLI/REST invocations against an ephemeral
// in-memory store.
package exec

import (
	"context"
	"time"

	"github.com/aionixone/openact/pkg/apperrors"
	"github.com/aionixone/openact/pkg/connector"
	"github.com/aionixone/openact/pkg/store"
	"github.com/aionixone/openact/pkg/store/memstore"
	"github.com/aionixone/openact/pkg/trn"
)

// Options configures one execute_action call.
type Options struct {
	Timeout  time.Duration
	DryRun   bool
	TenantID string
	Context  map[string]any
}

// Result is the §4.8 result envelope.
type Result struct {
	Success  bool           `json:"success"`
	Output   any            `json:"output,omitempty"`
	Error    string         `json:"error,omitempty"`
	Metadata ResultMetadata `json:"metadata"`
}

// ResultMetadata mirrors connector.ExecutionMetadata for the exec surface.
type ResultMetadata struct {
	ActionTRN string    `json:"action_trn"`
	DurationMS int64    `json:"duration_ms"`
	DryRun    bool       `json:"dry_run"`
	Timestamp time.Time  `json:"timestamp"`
}

// ExecuteAction runs actionName through reg, honouring dry-run and timeout.
//
// dry_run short-circuits before touching the registry, returning a
// synthetic success envelope — used for CLI/REST previews. A timeout wraps
// execution in a deadline; on expiry the envelope reports failure with
// "Execution timed out". The action runs under the same deadline context,
// so a call that honours its context (an HTTP round-trip does) is cancelled
// as well; a result that arrives after the deadline is discarded (§4.8).
func ExecuteAction(ctx context.Context, reg *connector.Registry, actionName trn.ResourceName, input map[string]any, opts Options) Result {
	start := time.Now()

	if opts.DryRun {
		return Result{
			Success: true,
			Output:  map[string]any{"dry_run": true, "action_trn": actionName.String(), "input": input},
			Metadata: ResultMetadata{
				ActionTRN:  actionName.String(),
				DurationMS: time.Since(start).Milliseconds(),
				DryRun:     true,
				Timestamp:  time.Now().UTC(),
			},
		}
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if opts.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	type outcome struct {
		env *connector.ExecutionEnvelope
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		env, err := reg.Execute(runCtx, actionName, input)
		done <- outcome{env: env, err: err}
	}()

	select {
	case <-runCtx.Done():
		return Result{
			Success: false,
			Error:   "Execution timed out",
			Metadata: ResultMetadata{
				ActionTRN:  actionName.String(),
				DurationMS: time.Since(start).Milliseconds(),
				DryRun:     false,
				Timestamp:  time.Now().UTC(),
			},
		}
	case o := <-done:
		if o.err != nil {
			return Result{
				Success: false,
				Error:   o.err.Error(),
				Metadata: ResultMetadata{
					ActionTRN:  actionName.String(),
					DurationMS: time.Since(start).Milliseconds(),
					DryRun:     false,
					Timestamp:  time.Now().UTC(),
				},
			}
		}
		return Result{
			Success: true,
			Output:  o.env.Output,
			Metadata: ResultMetadata{
				ActionTRN:  actionName.String(),
				DurationMS: o.env.Metadata.Duration,
				DryRun:     false,
				Timestamp:  o.env.Metadata.Timestamp,
			},
		}
	}
}

// InlineRequest is execute_inline's input: a self-contained snapshot of
// connections and actions plus which action to run.
type InlineRequest struct {
	Connections []*store.ConnectionRecord `json:"connections"`
	Actions     []*store.ActionRecord     `json:"actions"`
	ActionName  string                    `json:"action_name"`
	Input       map[string]any            `json:"input"`
	Options     Options                   `json:"-"`
}

// ExecuteInline builds an ephemeral in-memory store from the request's
// connection/action arrays, registers the given connector factories against
// it, and executes the named action — used by the CLI and REST surfaces for
// one-off calls without a persisted store (§4.8).
func ExecuteInline(ctx context.Context, req InlineRequest, wireRegistry func(*connector.Registry)) Result {
	mem := memstore.New(nil)
	for _, c := range req.Connections {
		if _, err := mem.UpsertConnection(ctx, c); err != nil {
			return errorResult(req.ActionName, err)
		}
	}
	for _, a := range req.Actions {
		if _, err := mem.UpsertAction(ctx, a); err != nil {
			return errorResult(req.ActionName, err)
		}
	}

	reg := connector.NewRegistry(mem, mem)
	wireRegistry(reg)

	actionName, err := trn.Parse(req.ActionName)
	if err != nil {
		return errorResult(req.ActionName, apperrors.NewInvalidError("exec: invalid action_name", err))
	}

	return ExecuteAction(ctx, reg, actionName, req.Input, req.Options)
}

func errorResult(actionName string, err error) Result {
	return Result{
		Success: false,
		Error:   err.Error(),
		Metadata: ResultMetadata{
			ActionTRN: actionName,
			Timestamp: time.Now().UTC(),
		},
	}
}
