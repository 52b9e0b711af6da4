// Package authflow implements the AuthFlow Engine (§4.4): a pausable state
// machine interpreter that drives authentication workflows, suspending on
// external input and resuming from a durable checkpoint.
package authflow

import (
	"encoding/json"
	"fmt"
)

// StateType is the kind of a workflow state.
type StateType string

// Recognised state types (§3 Workflow DSL).
const (
	StateTask    StateType = "task"
	StatePass    StateType = "pass"
	StateChoice  StateType = "choice"
	StateSucceed StateType = "succeed"
	StateFail    StateType = "fail"
)

// State is one node of the workflow graph.
type State struct {
	Type StateType `json:"type"`

	// Resource is the task handler id, required for Type == task.
	Resource string `json:"resource,omitempty"`

	// Parameters is an expression-valued mapping evaluated against the run
	// context before dispatch. Only task states read it; a pass state
	// ignores it.
	Parameters map[string]any `json:"parameters,omitempty"`

	// Assign applies post-hoc writes to context.vars after a task/pass
	// completes. Values are expressions, evaluated the same way as
	// Parameters.
	Assign map[string]any `json:"assign,omitempty"`

	// Choices, for Type == choice: the first matching predicate's Next is
	// taken; Default is used if none match.
	Choices []Choice `json:"choices,omitempty"`
	Default string   `json:"default,omitempty"`

	// Next is the successor state name. Mutually exclusive with End.
	Next string `json:"next,omitempty"`
	// End terminates the run successfully at this state.
	End bool `json:"end,omitempty"`

	// Output, when present, replaces context.output at this state.
	Output any `json:"output,omitempty"`
}

// Choice is one branch of a choice state: a JSON-pointer-style boolean
// predicate against the context, naming the state to transition to.
type Choice struct {
	// Variable is a context reference, e.g. "$ctx.vars.ok" (see expr.go).
	Variable string `json:"variable"`
	// BooleanEquals is the value Variable is compared against.
	BooleanEquals bool `json:"booleanEquals"`
	Next          string `json:"next"`
}

// DSL is a complete workflow definition (§3, §6).
type DSL struct {
	StartAt string           `json:"startAt"`
	States  map[string]State `json:"states"`
}

// Validate checks the reachability invariant from §3: every state except
// terminals has a defined successor, and the start state is declared.
func (d *DSL) Validate() error {
	if d.StartAt == "" {
		return errDSL("startAt is required")
	}
	if _, ok := d.States[d.StartAt]; !ok {
		return errDSL("startAt state %q is not defined", d.StartAt)
	}
	for name, st := range d.States {
		switch st.Type {
		case StateSucceed, StateFail:
			continue
		case StateChoice:
			if len(st.Choices) == 0 && st.Default == "" {
				return errDSL("choice state %q has no choices and no default", name)
			}
			for _, c := range st.Choices {
				if _, ok := d.States[c.Next]; !ok {
					return errDSL("choice state %q references undefined state %q", name, c.Next)
				}
			}
			if st.Default != "" {
				if _, ok := d.States[st.Default]; !ok {
					return errDSL("choice state %q default references undefined state %q", name, st.Default)
				}
			}
		default: // task, pass
			if st.End {
				continue
			}
			if st.Next == "" {
				return errDSL("state %q is non-terminal and has neither next nor end", name)
			}
			if _, ok := d.States[st.Next]; !ok {
				return errDSL("state %q references undefined next state %q", name, st.Next)
			}
		}
	}
	return nil
}

// ParseDSL decodes a workflow definition from JSON (or YAML pre-converted
// to JSON by the caller — transport-format conversion is out of scope, see
// spec.md §1 OUT OF SCOPE).
func ParseDSL(raw []byte) (*DSL, error) {
	var d DSL
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, errDSL("invalid workflow document: %v", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

func errDSL(format string, args ...any) error {
	return &dslError{msg: fmt.Sprintf(format, args...)}
}

type dslError struct{ msg string }

func (e *dslError) Error() string { return "authflow: dsl: " + e.msg }
