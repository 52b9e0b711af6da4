package httpconn

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConnectionConfig_RejectsRelativeBaseURL(t *testing.T) {
	_, err := ParseConnectionConfig(json.RawMessage(`{"base_url":"api.example.com"}`))
	assert.Error(t, err)
}

func TestParseConnectionConfig_AcceptsHTTPS(t *testing.T) {
	c, err := ParseConnectionConfig(json.RawMessage(`{"base_url":"https://api.example.com","authorization":"api_key","auth_parameters":{"header_name":"X-Key","api_key":"k1"}}`))
	require.NoError(t, err)
	assert.Equal(t, AuthAPIKey, c.Authorization)
}

func TestParseConnectionConfig_RejectsUnknownAuth(t *testing.T) {
	_, err := ParseConnectionConfig(json.RawMessage(`{"base_url":"https://api.example.com","authorization":"ntlm"}`))
	assert.Error(t, err)
}

func TestParseActionConfig_RejectsUnknownMethod(t *testing.T) {
	_, err := ParseActionConfig(json.RawMessage(`{"method":"TRACE","path":"/x"}`))
	assert.Error(t, err)
}

func TestParseActionConfig_RejectsRelativePath(t *testing.T) {
	_, err := ParseActionConfig(json.RawMessage(`{"method":"GET","path":"x"}`))
	assert.Error(t, err)
}

func TestParseActionConfig_NormalisesMethodCase(t *testing.T) {
	a, err := ParseActionConfig(json.RawMessage(`{"method":"get","path":"/x"}`))
	require.NoError(t, err)
	assert.Equal(t, "GET", a.Method)
}
