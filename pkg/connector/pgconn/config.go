// Package pgconn implements a minimal PostgreSQL action connector: a
// connection config describing how to reach a database, and an action
// config naming a parameterised SQL statement to run against it.
package pgconn

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/aionixone/openact/pkg/apperrors"
)

// Kind is this connector's registry key.
const Kind = "postgresql"

// ConnectionConfig describes how to reach a PostgreSQL server.
type ConnectionConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	Database     string `json:"database"`
	User         string `json:"user"`
	Password     string `json:"password,omitempty"`
	SSLMode      string `json:"sslmode,omitempty"`
	MaxPoolConns int32  `json:"max_pool_conns,omitempty"`
}

// ParseConnectionConfig validates and decodes raw connection JSON.
func ParseConnectionConfig(raw json.RawMessage) (*ConnectionConfig, error) {
	var c ConnectionConfig
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, apperrors.NewInvalidError("pgconn: invalid connection config JSON", err)
	}
	if strings.TrimSpace(c.Host) == "" {
		return nil, apperrors.NewInvalidError("pgconn: host is required", nil)
	}
	if c.Port == 0 {
		c.Port = 5432
	}
	if strings.TrimSpace(c.Database) == "" {
		return nil, apperrors.NewInvalidError("pgconn: database is required", nil)
	}
	if strings.TrimSpace(c.User) == "" {
		return nil, apperrors.NewInvalidError("pgconn: user is required", nil)
	}
	if c.SSLMode == "" {
		c.SSLMode = "prefer"
	}
	return &c, nil
}

// DSN renders the connection config as a postgres:// connection string.
func (c *ConnectionConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// ActionParameter names one bind parameter an action's statement expects,
// drawn from the rendered input by name.
type ActionParameter struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// ActionConfig names the statement an action runs and its ordered
// parameters.
type ActionConfig struct {
	Statement  string            `json:"statement"`
	Parameters []ActionParameter `json:"parameters,omitempty"`
}

// ParseActionConfig validates and decodes raw action JSON.
func ParseActionConfig(raw json.RawMessage) (*ActionConfig, error) {
	var a ActionConfig
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, apperrors.NewInvalidError("pgconn: invalid action config JSON", err)
	}
	if strings.TrimSpace(a.Statement) == "" {
		return nil, apperrors.NewInvalidError("pgconn: statement is required", nil)
	}
	return &a, nil
}

// ParameterNames returns the action's bind-parameter names in order.
func (a *ActionConfig) ParameterNames() []string {
	names := make([]string, len(a.Parameters))
	for i, p := range a.Parameters {
		names[i] = p.Name
	}
	return names
}
