package authflow

import (
	"context"
	"encoding/json"
	"time"

	"dario.cat/mergo"
	"github.com/google/uuid"

	"github.com/aionixone/openact/pkg/apperrors"
	"github.com/aionixone/openact/pkg/store"
)

// RunContext is the mutable state threaded through a workflow run: vars
// accumulate state assigned along the way, input holds data merged in on
// resume, output is the value most recently written by a state's Output
// field.
type RunContext struct {
	Vars   map[string]any `json:"vars"`
	Input  map[string]any `json:"input"`
	Output any            `json:"output,omitempty"`
}

// OutcomeKind tags a HandlerOutcome. Never overload error returns to signal
// pause — Pause is a first-class outcome, not an error (§4.4, §9).
type OutcomeKind int

const (
	OutcomeOk OutcomeKind = iota
	OutcomePause
	OutcomeError
)

// HandlerOutcome is the tagged-sum result of running one task handler.
type HandlerOutcome struct {
	Kind      OutcomeKind
	Value     any
	AwaitMeta map[string]any
	Err       error
}

func Ok(v any) HandlerOutcome { return HandlerOutcome{Kind: OutcomeOk, Value: v} }

func Pause(meta map[string]any) HandlerOutcome {
	return HandlerOutcome{Kind: OutcomePause, AwaitMeta: meta}
}

func Fail(err error) HandlerOutcome { return HandlerOutcome{Kind: OutcomeError, Err: err} }

// TaskHandler executes one "resource" named in a task state. params have
// already been rendered against the current RunContext.
type TaskHandler interface {
	Handle(ctx context.Context, params map[string]any, rc *RunContext) HandlerOutcome
}

// TaskHandlerFunc adapts a plain function to TaskHandler.
type TaskHandlerFunc func(ctx context.Context, params map[string]any, rc *RunContext) HandlerOutcome

func (f TaskHandlerFunc) Handle(ctx context.Context, params map[string]any, rc *RunContext) HandlerOutcome {
	return f(ctx, params, rc)
}

// RunStatus distinguishes a terminal run outcome from a pending (paused) one.
type RunStatus string

const (
	StatusSucceeded RunStatus = "succeeded"
	StatusFailed    RunStatus = "failed"
	StatusPending   RunStatus = "pending"
)

// RunOutcome is what Engine.Run/Resume returns: either a terminal result or
// a Pending marker carrying everything needed to resume later.
type RunOutcome struct {
	Status    RunStatus
	RunID     string
	Output    any
	Err       error
	NextState string
	AwaitMeta map[string]any
}

// defaultStepBudget bounds the number of state transitions a single Run (or
// Resume) call will execute before failing closed with an Internal-kind
// "step budget exceeded" error; apperrors has no separate BudgetExceeded
// kind (§4.4 halting property — an unbounded DSL must not hang the engine).
const defaultStepBudget = 1000

// Engine interprets a DSL against a registry of TaskHandlers, persisting
// pause/resume checkpoints through a store.CheckpointStore.
type Engine struct {
	Handlers    map[string]TaskHandler
	Checkpoints store.CheckpointStore
	StepBudget  int
}

// NewEngine constructs an Engine with the default step budget.
func NewEngine(checkpoints store.CheckpointStore) *Engine {
	return &Engine{
		Handlers:    make(map[string]TaskHandler),
		Checkpoints: checkpoints,
		StepBudget:  defaultStepBudget,
	}
}

// Register binds a resource name to its handler.
func (e *Engine) Register(resource string, h TaskHandler) {
	e.Handlers[resource] = h
}

// Run starts a fresh execution of d from its startAt state.
func (e *Engine) Run(ctx context.Context, d *DSL, input map[string]any) (RunOutcome, error) {
	if err := d.Validate(); err != nil {
		return RunOutcome{}, err
	}
	runID := uuid.NewString()
	rc := &RunContext{Vars: map[string]any{}, Input: input}
	if rc.Input == nil {
		rc.Input = map[string]any{}
	}
	return e.drive(ctx, d, runID, d.StartAt, rc)
}

// Resume re-enters a paused run at its frozen state, merging inputPatch into
// context.input via an object merge (dario.cat/mergo). A non-object patch is
// placed at context.input.value (§4.4 resume semantics).
func (e *Engine) Resume(ctx context.Context, d *DSL, runID string, inputPatch any) (RunOutcome, error) {
	if err := d.Validate(); err != nil {
		return RunOutcome{}, err
	}
	cp, err := e.Checkpoints.GetCheckpoint(ctx, runID)
	if err != nil {
		return RunOutcome{}, err
	}
	if cp == nil {
		return RunOutcome{}, apperrors.NewNotFoundError("checkpoint not found for run "+runID, nil)
	}
	var rc RunContext
	if err := json.Unmarshal(cp.ContextJSON, &rc); err != nil {
		return RunOutcome{}, apperrors.NewInternalError("corrupt checkpoint context", err)
	}
	if rc.Input == nil {
		rc.Input = map[string]any{}
	}

	if patchMap, ok := inputPatch.(map[string]any); ok {
		if err := mergo.Merge(&rc.Input, patchMap, mergo.WithOverride); err != nil {
			return RunOutcome{}, apperrors.NewInternalError("failed to merge resume input", err)
		}
	} else if inputPatch != nil {
		rc.Input["value"] = inputPatch
	}

	outcome, err := e.drive(ctx, d, runID, cp.PausedState, &rc)
	if err != nil {
		return RunOutcome{}, err
	}
	if outcome.Status != StatusPending {
		_, _ = e.Checkpoints.DeleteCheckpoint(ctx, runID)
	}
	return outcome, nil
}

// drive runs the state machine loop starting at state `at`, persisting a
// checkpoint and returning a Pending outcome if a handler pauses.
func (e *Engine) drive(ctx context.Context, d *DSL, runID, at string, rc *RunContext) (RunOutcome, error) {
	budget := e.StepBudget
	if budget <= 0 {
		budget = defaultStepBudget
	}

	current := at
	for steps := 0; ; steps++ {
		if steps >= budget {
			return RunOutcome{}, apperrors.New(apperrors.TypeInternal, "authflow: step budget exceeded", nil).WithRunID(runID)
		}

		st, ok := d.States[current]
		if !ok {
			return RunOutcome{}, apperrors.NewInvalidError("authflow: unknown state "+current, nil)
		}

		switch st.Type {
		case StateSucceed:
			return RunOutcome{Status: StatusSucceeded, RunID: runID, Output: rc.Output}, nil

		case StateFail:
			return RunOutcome{Status: StatusFailed, RunID: runID, Err: apperrors.NewInvalidError("authflow: run failed at state "+current, nil)}, nil

		case StateChoice:
			next, err := e.evalChoice(st, rc)
			if err != nil {
				return RunOutcome{}, err
			}
			current = next
			continue

		case StatePass:
			if err := e.applyAssign(st, rc); err != nil {
				return RunOutcome{}, err
			}
			if st.Output != nil {
				out, err := RenderValue(st.Output, e.bindings(rc))
				if err != nil {
					return RunOutcome{}, err
				}
				rc.Output = out
			}
			if st.End {
				return RunOutcome{Status: StatusSucceeded, RunID: runID, Output: rc.Output}, nil
			}
			current = st.Next
			continue

		case StateTask:
			handler, ok := e.Handlers[st.Resource]
			if !ok {
				return RunOutcome{}, apperrors.NewConnectorNotRegisteredError("no task handler registered for resource "+st.Resource, nil)
			}
			params, err := renderParams(st.Parameters, e.bindings(rc))
			if err != nil {
				return RunOutcome{}, err
			}
			outcome := handler.Handle(ctx, params, rc)
			switch outcome.Kind {
			case OutcomeError:
				return RunOutcome{}, outcome.Err
			case OutcomePause:
				if err := e.persistCheckpoint(ctx, runID, current, rc, outcome.AwaitMeta); err != nil {
					return RunOutcome{}, err
				}
				return RunOutcome{
					Status:    StatusPending,
					RunID:     runID,
					NextState: current,
					AwaitMeta: outcome.AwaitMeta,
				}, nil
			case OutcomeOk:
				if outcome.Value != nil {
					rc.Vars["_last"] = outcome.Value
				}
				if err := e.applyAssignWithResult(st, rc, outcome.Value); err != nil {
					return RunOutcome{}, err
				}
				if st.Output != nil {
					out, err := RenderValue(st.Output, e.bindings(rc))
					if err != nil {
						return RunOutcome{}, err
					}
					rc.Output = out
				}
			}
			if st.End {
				return RunOutcome{Status: StatusSucceeded, RunID: runID, Output: rc.Output}, nil
			}
			current = st.Next
			continue

		default:
			return RunOutcome{}, apperrors.NewInvalidError("authflow: unknown state type "+string(st.Type), nil)
		}
	}
}

func (e *Engine) bindings(rc *RunContext) Bindings {
	ctxMap := map[string]any{"vars": rc.Vars, "input": rc.Input}
	return Bindings{Ctx: ctxMap, Vars: rc.Vars}
}

func (e *Engine) evalChoice(st State, rc *RunContext) (string, error) {
	b := e.bindings(rc)
	for _, c := range st.Choices {
		v, err := EvalExpression(c.Variable, b)
		if err != nil {
			return "", err
		}
		boolVal, _ := v.(bool)
		if boolVal == c.BooleanEquals {
			return c.Next, nil
		}
	}
	if st.Default != "" {
		return st.Default, nil
	}
	return "", apperrors.NewInvalidError("authflow: choice state matched no branch and has no default", nil)
}

func (e *Engine) applyAssign(st State, rc *RunContext) error {
	return e.applyAssignWithResult(st, rc, nil)
}

func (e *Engine) applyAssignWithResult(st State, rc *RunContext, result any) error {
	if len(st.Assign) == 0 {
		return nil
	}
	b := e.bindings(rc)
	b.Ctx["result"] = result
	for k, v := range st.Assign {
		rendered, err := RenderValue(v, b)
		if err != nil {
			return err
		}
		rc.Vars[k] = rendered
	}
	return nil
}

func renderParams(params map[string]any, b Bindings) (map[string]any, error) {
	if params == nil {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		rendered, err := RenderValue(v, b)
		if err != nil {
			return nil, err
		}
		out[k] = rendered
	}
	return out, nil
}

func (e *Engine) persistCheckpoint(ctx context.Context, runID, pausedState string, rc *RunContext, awaitMeta map[string]any) error {
	ctxJSON, err := json.Marshal(rc)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal checkpoint context", err)
	}
	var metaJSON json.RawMessage
	if awaitMeta != nil {
		metaJSON, err = json.Marshal(awaitMeta)
		if err != nil {
			return apperrors.NewInternalError("failed to marshal await meta", err)
		}
	}
	now := time.Now().UTC()
	_, err = e.Checkpoints.UpsertCheckpoint(ctx, &store.Checkpoint{
		RunID:        runID,
		PausedState:  pausedState,
		ContextJSON:  ctxJSON,
		AwaitMetaRaw: metaJSON,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	return err
}
