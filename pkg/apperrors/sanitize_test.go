package apperrors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSensitiveField(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want bool
	}{
		{"password", true},
		{"Token", true},
		{"access_token", true},
		{"client_secret", true},
		{"api_key", true},
		{"oauth_password", true},
		{"basic_auth", true},
		{"credential", true},
		{"credentials", true},
		{"authorization", true},
		{"username", false},
		{"status", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsSensitiveField(tt.name), tt.name)
	}
}

func TestSanitizeJSON_Nested(t *testing.T) {
	t.Parallel()

	in := map[string]any{
		"access_token": "abc123",
		"nested": map[string]any{
			"client_secret": "shh",
			"keep":          "me",
		},
		"list": []any{
			map[string]any{"refresh_token": "rrr"},
		},
	}

	out := SanitizeJSON(in).(map[string]any)
	assert.Equal(t, Redacted, out["access_token"])
	nested := out["nested"].(map[string]any)
	assert.Equal(t, Redacted, nested["client_secret"])
	assert.Equal(t, "me", nested["keep"])
	list := out["list"].([]any)
	assert.Equal(t, Redacted, list[0].(map[string]any)["refresh_token"])
}

func TestSanitizeMessage(t *testing.T) {
	t.Parallel()
	msg := `failed to exchange token: access_token=abc123 state=xyz`
	got := SanitizeMessage(msg)
	assert.Contains(t, got, "access_token="+Redacted)
	assert.Contains(t, got, "state=xyz")
}
