package pgconn

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConnectionConfig_RequiresHost(t *testing.T) {
	_, err := ParseConnectionConfig(json.RawMessage(`{"database":"d","user":"u"}`))
	assert.Error(t, err)
}

func TestParseConnectionConfig_DefaultsPortAndSSLMode(t *testing.T) {
	c, err := ParseConnectionConfig(json.RawMessage(`{"host":"db.internal","database":"d","user":"u"}`))
	require.NoError(t, err)
	assert.Equal(t, 5432, c.Port)
	assert.Equal(t, "prefer", c.SSLMode)
}

func TestDSN_IncludesCredentialsAndSSLMode(t *testing.T) {
	c := &ConnectionConfig{Host: "db.internal", Port: 5433, Database: "acme", User: "svc", Password: "p@ss", SSLMode: "require"}
	dsn := c.DSN()
	assert.Contains(t, dsn, "db.internal:5433")
	assert.Contains(t, dsn, "/acme")
	assert.Contains(t, dsn, "sslmode=require")
}

func TestParseActionConfig_RequiresStatement(t *testing.T) {
	_, err := ParseActionConfig(json.RawMessage(`{"parameters":[{"name":"id"}]}`))
	assert.Error(t, err)
}

func TestParseActionConfig_ParameterNames(t *testing.T) {
	a, err := ParseActionConfig(json.RawMessage(`{"statement":"select * from users where id = $1 and tenant = $2","parameters":[{"name":"id"},{"name":"tenant"}]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "tenant"}, a.ParameterNames())
}

func TestPgAction_ValidateInput_MissingParameter(t *testing.T) {
	a := &pgAction{config: &ActionConfig{Statement: "select 1", Parameters: []ActionParameter{{Name: "id"}}}}
	err := a.ValidateInput(map[string]any{})
	assert.Error(t, err)
}

func TestPgAction_ValidateInput_OK(t *testing.T) {
	a := &pgAction{config: &ActionConfig{Statement: "select 1", Parameters: []ActionParameter{{Name: "id"}}}}
	err := a.ValidateInput(map[string]any{"id": 1})
	assert.NoError(t, err)
}
