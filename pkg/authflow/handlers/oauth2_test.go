package handlers

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aionixone/openact/pkg/authflow"
)

func TestAuthorizeRedirect_BuildsURLWithPKCE(t *testing.T) {
	rc := &authflow.RunContext{Vars: map[string]any{}, Input: map[string]any{}}
	out := AuthorizeRedirect(context.Background(), map[string]any{
		"authorizeUrl": "https://idp/auth",
		"clientId":     "cid",
		"redirectUri":  "https://app/cb",
		"scope":        "read",
		"usePKCE":      true,
		"state":        "S",
	}, rc)

	require.Equal(t, authflow.OutcomeOk, out.Kind)
	v := out.Value.(map[string]any)

	authorizeURL := v["authorize_url"].(string)
	parsed, err := url.Parse(authorizeURL)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "cid", q.Get("client_id"))
	assert.Equal(t, "https://app/cb", q.Get("redirect_uri"))
	assert.Equal(t, "read", q.Get("scope"))
	assert.Equal(t, "S", q.Get("state"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))

	assert.Equal(t, "S", v["state"])
	assert.Equal(t, q.Get("code_challenge"), v["code_challenge"])
	verifier := v["code_verifier"].(string)
	assert.Len(t, verifier, 43)
	assert.False(t, strings.ContainsAny(verifier, "+/="))

	assert.Equal(t, verifier, rc.Vars["pkce_verifier"])
	assert.Equal(t, "S", rc.Vars["oauth2_state"])
}

func TestAuthorizeRedirect_WithoutPKCE(t *testing.T) {
	rc := &authflow.RunContext{Vars: map[string]any{}, Input: map[string]any{}}
	out := AuthorizeRedirect(context.Background(), map[string]any{
		"authorizeUrl": "https://idp/auth",
		"clientId":     "cid",
		"redirectUri":  "https://app/cb",
		"usePKCE":      false,
	}, rc)

	require.Equal(t, authflow.OutcomeOk, out.Kind)
	v := out.Value.(map[string]any)
	assert.NotContains(t, v, "code_verifier")
	assert.NotContains(t, v, "code_challenge")
	assert.NotContains(t, v["authorize_url"], "code_challenge")
}

func TestAuthorizeRedirect_GeneratesStateWhenAbsent(t *testing.T) {
	rc := &authflow.RunContext{Vars: map[string]any{}, Input: map[string]any{}}
	out := AuthorizeRedirect(context.Background(), map[string]any{
		"authorizeUrl": "https://idp/auth",
		"clientId":     "cid",
		"redirectUri":  "https://app/cb",
	}, rc)

	require.Equal(t, authflow.OutcomeOk, out.Kind)
	v := out.Value.(map[string]any)
	assert.NotEmpty(t, v["state"])
}

func TestAuthorizeRedirect_MissingRequired(t *testing.T) {
	rc := &authflow.RunContext{Vars: map[string]any{}, Input: map[string]any{}}
	out := AuthorizeRedirect(context.Background(), map[string]any{}, rc)
	assert.Equal(t, authflow.OutcomeError, out.Kind)
}

func TestAwaitCallback_PausesWithoutCode(t *testing.T) {
	rc := &authflow.RunContext{Vars: map[string]any{"oauth2_state": "xyz"}, Input: map[string]any{}}
	out := AwaitCallback(context.Background(), nil, rc)
	require.Equal(t, authflow.OutcomePause, out.Kind)
	assert.Equal(t, "xyz", out.AwaitMeta["expected_state"])
}

func TestAwaitCallback_AcceptsValidCode(t *testing.T) {
	rc := &authflow.RunContext{
		Vars:  map[string]any{"oauth2_state": "xyz"},
		Input: map[string]any{"code": "abc", "state": "xyz"},
	}
	out := AwaitCallback(context.Background(), nil, rc)
	require.Equal(t, authflow.OutcomeOk, out.Kind)
	v := out.Value.(map[string]any)
	assert.Equal(t, "abc", v["code"])
}

func TestAwaitCallback_RejectsStateMismatch(t *testing.T) {
	rc := &authflow.RunContext{
		Vars:  map[string]any{"oauth2_state": "xyz"},
		Input: map[string]any{"code": "abc", "state": "different"},
	}
	out := AwaitCallback(context.Background(), nil, rc)
	assert.Equal(t, authflow.OutcomeError, out.Kind)
}
