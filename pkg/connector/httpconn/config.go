// Package httpconn implements the HTTP Connector (§4.7): a generic
// connector_kind "http" driving arbitrary REST-ish APIs from stored
// connection/action config, with URL composition, header/response
// policies, retry/backoff, and layered auth injection.
package httpconn

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/aionixone/openact/pkg/apperrors"
)

// AuthKind selects a ConnectionConfig's authorization scheme.
type AuthKind string

const (
	AuthNone   AuthKind = "none"
	AuthAPIKey AuthKind = "api_key"
	AuthBasic  AuthKind = "basic"
	AuthOAuth2 AuthKind = "oauth2"
)

// AuthParameters is discriminated by ConnectionConfig.Authorization.
type AuthParameters struct {
	// api_key
	HeaderName string `json:"header_name,omitempty"`
	APIKey     string `json:"api_key,omitempty"`
	// basic
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	// oauth2 — references a credential-store connection_ref; the executor
	// reads the stored token through its CredentialResolver and does not
	// refresh it.
	ConnectionRef string `json:"connection_ref,omitempty"`
}

// RetryPolicy controls retry/backoff for a request (§4.7).
type RetryPolicy struct {
	MaxRetries        int     `json:"max_retries"`
	RetryableStatuses []int   `json:"retryable_statuses,omitempty"`
	BaseDelayMS       int     `json:"base_delay_ms,omitempty"`
	Multiplier        float64 `json:"multiplier,omitempty"`
	MaxDelayMS        int     `json:"max_delay_ms,omitempty"`
	RespectRetryAfter bool    `json:"respect_retry_after"`
}

// DefaultRetryPolicy matches the documented defaults: no retries unless an
// operator opts in, but a retryable-status list ready to use once they do.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        0,
		RetryableStatuses: []int{429, 500, 502, 503, 504},
		BaseDelayMS:       200,
		Multiplier:        2.0,
		MaxDelayMS:        5000,
		RespectRetryAfter: true,
	}
}

func (p RetryPolicy) isRetryable(status int) bool {
	for _, s := range p.RetryableStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// ResponsePolicy controls response size/type handling (§4.7).
type ResponsePolicy struct {
	MaxBodyBytes int64 `json:"max_body_bytes,omitempty"`
	AllowBinary  bool  `json:"allow_binary"`
}

// DefaultResponsePolicy is the documented 8 MB / no-binary default.
func DefaultResponsePolicy() ResponsePolicy {
	return ResponsePolicy{MaxBodyBytes: 8 << 20, AllowBinary: false}
}

// TimeoutConfig bounds connect/total request duration.
type TimeoutConfig struct {
	ConnectMS int `json:"connect_ms,omitempty"`
	TotalMS   int `json:"total_ms,omitempty"`
}

// TLSConfig carries optional custom trust/identity material.
type TLSConfig struct {
	VerifyPeer bool   `json:"verify_peer"`
	CACertPEM  string `json:"ca_cert_pem,omitempty"`
	ServerName string `json:"server_name,omitempty"`
}

// ConnectionConfig is the config_json body of an httpconn ConnectionRecord.
type ConnectionConfig struct {
	BaseURL        string              `json:"base_url"`
	Authorization  AuthKind            `json:"authorization"`
	AuthParameters AuthParameters      `json:"auth_parameters,omitempty"`
	DefaultHeaders map[string][]string `json:"default_headers,omitempty"`
	DefaultQuery   map[string][]string `json:"default_query,omitempty"`
	RetryPolicy    *RetryPolicy        `json:"retry_policy,omitempty"`
	ResponsePolicy *ResponsePolicy     `json:"response_policy,omitempty"`
	Timeout        *TimeoutConfig      `json:"timeout_config,omitempty"`
	TLS            *TLSConfig          `json:"tls,omitempty"`
	ProxyURL       string              `json:"proxy,omitempty"`
}

// ParseConnectionConfig decodes and validates a ConnectionConfig (§4.7:
// base_url must be absolute http(s)).
func ParseConnectionConfig(raw json.RawMessage) (*ConnectionConfig, error) {
	var c ConnectionConfig
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, apperrors.NewInvalidError("httpconn: malformed connection config", err)
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return nil, apperrors.NewInvalidError("httpconn: base_url must be absolute http(s)", nil)
	}
	switch c.Authorization {
	case "", AuthNone, AuthAPIKey, AuthBasic, AuthOAuth2:
	default:
		return nil, apperrors.NewInvalidError("httpconn: unknown authorization kind "+string(c.Authorization), nil)
	}
	return &c, nil
}

// BodyType selects how ActionConfig.Body is encoded on the wire.
type BodyType string

const (
	BodyJSON       BodyType = "json"
	BodyForm       BodyType = "form"
	BodyMultipart  BodyType = "multipart"
	BodyRawBytes   BodyType = "raw"
	BodyTextPlain  BodyType = "text"
)

var validMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true,
	"DELETE": true, "HEAD": true, "OPTIONS": true,
}

// ActionConfig is the config_json body of an httpconn ActionRecord.
type ActionConfig struct {
	Method         string              `json:"method"`
	Path           string              `json:"path"`
	Headers        map[string][]string `json:"headers,omitempty"`
	Query          map[string][]string `json:"query,omitempty"`
	Body           any                 `json:"body,omitempty"`
	BodyType       BodyType            `json:"body_type,omitempty"`
	RetryPolicy    *RetryPolicy        `json:"retry_policy,omitempty"`
	ResponsePolicy *ResponsePolicy     `json:"response_policy,omitempty"`
}

// ParseActionConfig decodes and validates an ActionConfig.
func ParseActionConfig(raw json.RawMessage) (*ActionConfig, error) {
	var a ActionConfig
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, apperrors.NewInvalidError("httpconn: malformed action config", err)
	}
	method := strings.ToUpper(a.Method)
	if !validMethods[method] {
		return nil, apperrors.NewInvalidError("httpconn: unsupported method "+a.Method, nil)
	}
	a.Method = method
	if !strings.HasPrefix(a.Path, "/") {
		return nil, apperrors.NewInvalidError("httpconn: path must start with /", nil)
	}
	return &a, nil
}

// effectiveRetryPolicy layers action override over connection default.
func effectiveRetryPolicy(conn *ConnectionConfig, action *ActionConfig) RetryPolicy {
	if action.RetryPolicy != nil {
		return *action.RetryPolicy
	}
	if conn.RetryPolicy != nil {
		return *conn.RetryPolicy
	}
	return DefaultRetryPolicy()
}

func effectiveResponsePolicy(conn *ConnectionConfig, action *ActionConfig) ResponsePolicy {
	if action.ResponsePolicy != nil {
		return *action.ResponsePolicy
	}
	if conn.ResponsePolicy != nil {
		return *conn.ResponsePolicy
	}
	return DefaultResponsePolicy()
}

// duration helpers, nil-safe.
func connectTimeout(t *TimeoutConfig) time.Duration {
	if t == nil || t.ConnectMS == 0 {
		return 0
	}
	return time.Duration(t.ConnectMS) * time.Millisecond
}

func totalTimeout(t *TimeoutConfig) time.Duration {
	if t == nil || t.TotalMS == 0 {
		return 30 * time.Second
	}
	return time.Duration(t.TotalMS) * time.Millisecond
}
