package authflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDSL() *DSL {
	return &DSL{
		StartAt: "Start",
		States: map[string]State{
			"Start": {Type: StateTask, Resource: "oauth2.authorize_redirect", Next: "Await"},
			"Await": {Type: StateTask, Resource: "oauth2.await_callback", Next: "Check"},
			"Check": {Type: StateChoice, Choices: []Choice{
				{Variable: "$ctx.vars.ok", BooleanEquals: true, Next: "Done"},
			}, Default: "Failed"},
			"Done":   {Type: StateSucceed},
			"Failed": {Type: StateFail},
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	d := validDSL()
	assert.NoError(t, d.Validate())
}

func TestValidate_MissingStartAt(t *testing.T) {
	d := validDSL()
	d.StartAt = ""
	assert.Error(t, d.Validate())
}

func TestValidate_StartAtUndefined(t *testing.T) {
	d := validDSL()
	d.StartAt = "Nope"
	assert.Error(t, d.Validate())
}

func TestValidate_DanglingNext(t *testing.T) {
	d := validDSL()
	st := d.States["Start"]
	st.Next = "Nowhere"
	d.States["Start"] = st
	assert.Error(t, d.Validate())
}

func TestValidate_NonTerminalMissingNext(t *testing.T) {
	d := validDSL()
	st := d.States["Start"]
	st.Next = ""
	d.States["Start"] = st
	assert.Error(t, d.Validate())
}

func TestValidate_ChoiceNoChoicesNoDefault(t *testing.T) {
	d := validDSL()
	d.States["Check"] = State{Type: StateChoice}
	assert.Error(t, d.Validate())
}

func TestValidate_ChoiceDanglingDefault(t *testing.T) {
	d := validDSL()
	st := d.States["Check"]
	st.Default = "Nowhere"
	d.States["Check"] = st
	assert.Error(t, d.Validate())
}

func TestParseDSL_RoundTrip(t *testing.T) {
	raw := []byte(`{
		"startAt": "A",
		"states": {
			"A": {"type": "pass", "end": true}
		}
	}`)
	d, err := ParseDSL(raw)
	require.NoError(t, err)
	assert.Equal(t, "A", d.StartAt)
	assert.True(t, d.States["A"].End)
}

func TestParseDSL_InvalidJSON(t *testing.T) {
	_, err := ParseDSL([]byte(`not json`))
	assert.Error(t, err)
}

func TestParseDSL_FailsValidation(t *testing.T) {
	_, err := ParseDSL([]byte(`{"startAt": "Missing", "states": {}}`))
	assert.Error(t, err)
}
