package authflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aionixone/openact/pkg/store/memstore"
)

func pauseResumeDSL() *DSL {
	return &DSL{
		StartAt: "Authorize",
		States: map[string]State{
			"Authorize": {Type: StateTask, Resource: "oauth2.authorize_redirect", Next: "Await"},
			"Await":     {Type: StateTask, Resource: "oauth2.await_callback", Next: "Done"},
			"Done":      {Type: StateSucceed},
		},
	}
}

func TestEngine_RunToCompletion(t *testing.T) {
	e := NewEngine(memstore.New(nil))
	e.Register("oauth2.authorize_redirect", TaskHandlerFunc(func(_ context.Context, _ map[string]any, _ *RunContext) HandlerOutcome {
		return Ok("redirect-url")
	}))
	e.Register("oauth2.await_callback", TaskHandlerFunc(func(_ context.Context, _ map[string]any, _ *RunContext) HandlerOutcome {
		return Ok("code-123")
	}))

	out, err := e.Run(context.Background(), pauseResumeDSL(), nil)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, out.Status)
}

func TestEngine_PauseThenResume(t *testing.T) {
	e := NewEngine(memstore.New(nil))
	e.Register("oauth2.authorize_redirect", TaskHandlerFunc(func(_ context.Context, _ map[string]any, _ *RunContext) HandlerOutcome {
		return Ok("redirect-url")
	}))
	e.Register("oauth2.await_callback", TaskHandlerFunc(func(_ context.Context, _ map[string]any, rc *RunContext) HandlerOutcome {
		if _, ok := rc.Input["code"]; !ok {
			return Pause(map[string]any{"expected_state": "xyz"})
		}
		return Ok(rc.Input["code"])
	}))

	d := pauseResumeDSL()
	out, err := e.Run(context.Background(), d, nil)
	require.NoError(t, err)
	require.Equal(t, StatusPending, out.Status)
	assert.Equal(t, "Await", out.NextState)
	assert.Equal(t, "xyz", out.AwaitMeta["expected_state"])

	resumed, err := e.Resume(context.Background(), d, out.RunID, map[string]any{"code": "abc123"})
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, resumed.Status)
}

func TestEngine_ResumeUnknownRunID(t *testing.T) {
	e := NewEngine(memstore.New(nil))
	_, err := e.Resume(context.Background(), pauseResumeDSL(), "nonexistent", nil)
	assert.Error(t, err)
}

func TestEngine_StepBudgetExceeded(t *testing.T) {
	d := &DSL{
		StartAt: "A",
		States: map[string]State{
			"A": {Type: StatePass, Next: "B"},
			"B": {Type: StatePass, Next: "A"},
		},
	}
	e := NewEngine(memstore.New(nil))
	e.StepBudget = 10
	_, err := e.Run(context.Background(), d, nil)
	assert.Error(t, err)
}

func TestEngine_ChoiceBranches(t *testing.T) {
	d := &DSL{
		StartAt: "Pick",
		States: map[string]State{
			"Pick": {Type: StatePass, Assign: map[string]any{"ok": true}, Next: "Check"},
			"Check": {Type: StateChoice, Choices: []Choice{
				{Variable: "$ctx.vars.ok", BooleanEquals: true, Next: "Yes"},
			}, Default: "No"},
			"Yes": {Type: StateSucceed},
			"No":  {Type: StateFail},
		},
	}
	e := NewEngine(memstore.New(nil))
	out, err := e.Run(context.Background(), d, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, out.Status)
}

func TestEngine_UnregisteredHandler(t *testing.T) {
	d := &DSL{
		StartAt: "A",
		States: map[string]State{
			"A": {Type: StateTask, Resource: "nope.missing", End: true},
		},
	}
	e := NewEngine(memstore.New(nil))
	_, err := e.Run(context.Background(), d, nil)
	assert.Error(t, err)
}

func TestEngine_TaskOutput(t *testing.T) {
	d := &DSL{
		StartAt: "A",
		States: map[string]State{
			"A": {Type: StateTask, Resource: "echo", Output: "{% $ctx.vars._last %}", End: true},
		},
	}
	e := NewEngine(memstore.New(nil))
	e.Register("echo", TaskHandlerFunc(func(_ context.Context, _ map[string]any, _ *RunContext) HandlerOutcome {
		return Ok("hello")
	}))
	out, err := e.Run(context.Background(), d, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", out.Output)
}
