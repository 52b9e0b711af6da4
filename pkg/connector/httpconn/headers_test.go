package httpconn

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReq(t *testing.T) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, "https://example.com", nil)
	require.NoError(t, err)
	return req
}

func TestBuildHeaders_DenylistIsDropped(t *testing.T) {
	req := newReq(t)
	err := buildHeaders(req, map[string][]string{"Host": {"evil.example.com"}}, nil, "", "")
	require.NoError(t, err)
	assert.Empty(t, req.Header.Get("Host"))
}

func TestBuildHeaders_MultiValuedAppends(t *testing.T) {
	req := newReq(t)
	err := buildHeaders(req, map[string][]string{"Accept": {"application/json"}}, map[string][]string{"Accept": {"text/plain"}}, "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"application/json", "text/plain"}, req.Header.Values("Accept"))
}

func TestBuildHeaders_SingleValuedOverwrites(t *testing.T) {
	req := newReq(t)
	err := buildHeaders(req, map[string][]string{"X-Trace": {"a"}}, map[string][]string{"X-Trace": {"b"}}, "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, req.Header.Values("X-Trace"))
}

func TestBuildHeaders_AuthAlwaysWins(t *testing.T) {
	req := newReq(t)
	err := buildHeaders(req, map[string][]string{"Authorization": {"spoofed"}}, nil, "Authorization", "Bearer real")
	require.NoError(t, err)
	assert.Equal(t, "Bearer real", req.Header.Get("Authorization"))
}

func TestBuildHeaders_RejectsOversizedValue(t *testing.T) {
	req := newReq(t)
	big := make([]byte, maxHeaderValueLen+1)
	err := buildHeaders(req, map[string][]string{"X-Big": {string(big)}}, nil, "", "")
	assert.Error(t, err)
}
