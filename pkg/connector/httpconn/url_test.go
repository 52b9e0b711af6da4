package httpconn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinURL_AbsolutePathReplacesBase(t *testing.T) {
	got, err := joinURL("https://api.example.com/v1/ignored", "/users/42")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/users/42", got)
}

func TestJoinURL_RelativePathAppends(t *testing.T) {
	got, err := joinURL("https://api.example.com/v1", "users/42")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/v1/users/42", got)
}

func TestMergeQuery_AppendsBothSources(t *testing.T) {
	got, err := mergeQuery("https://api.example.com/x", map[string][]string{"a": {"1"}}, map[string][]string{"b": {"2"}})
	require.NoError(t, err)
	assert.Contains(t, got, "a=1")
	assert.Contains(t, got, "b=2")
}
