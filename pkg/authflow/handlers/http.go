package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/aionixone/openact/pkg/apperrors"
	"github.com/aionixone/openact/pkg/authflow"
)

const httpMaxResponseBytes = 2 << 20 // 2 MiB; longer bodies are truncated

var defaultHTTPClient = &http.Client{Timeout: 30 * time.Second}

// Request implements http.request: a generic outbound call, independent of
// the httpconn Connector, usable directly from a workflow state. Retries
// idempotent methods (GET/HEAD) on 5xx/429 with exponential backoff
// (cenkalti/backoff/v5), up to 3 attempts in total; other methods are sent
// once. This policy is fixed and separate from the HTTP Connector's
// configurable retry_policy (§4.7), which retries no request by default.
func Request(ctx context.Context, params map[string]any, _ *authflow.RunContext) authflow.HandlerOutcome {
	method, _ := params["method"].(string)
	if method == "" {
		method = http.MethodGet
	}
	method = strings.ToUpper(method)
	rawURL, _ := params["url"].(string)
	if rawURL == "" {
		return authflow.Fail(apperrors.NewInvalidError("http.request requires url", nil))
	}

	var body io.Reader
	if b, ok := params["body"]; ok && b != nil {
		encoded, err := json.Marshal(b)
		if err != nil {
			return authflow.Fail(apperrors.NewInvalidError("http.request body is not JSON-encodable", err))
		}
		body = bytes.NewReader(encoded)
	}

	headers, _ := params["headers"].(map[string]any)
	retryable := method == http.MethodGet || method == http.MethodHead

	operation := func() (*httpResult, error) {
		req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
		if err != nil {
			return nil, backoff.Permanent(apperrors.NewInvalidError("http.request: malformed request", err))
		}
		for k, v := range headers {
			req.Header.Set(k, toHeaderValue(v))
		}
		if body != nil && req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := defaultHTTPClient.Do(req)
		if err != nil {
			return nil, apperrors.NewUpstreamError("http.request: transport error", err)
		}
		defer resp.Body.Close()

		limited := io.LimitReader(resp.Body, httpMaxResponseBytes)
		raw, err := io.ReadAll(limited)
		if err != nil {
			return nil, apperrors.NewUpstreamError("http.request: failed reading response body", err)
		}

		result := &httpResult{status: resp.StatusCode, header: resp.Header.Clone(), body: raw}
		if retryable && (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500) {
			return result, apperrors.NewUpstreamError("http.request: retryable status", nil)
		}
		return result, nil
	}

	var result *httpResult
	var err error
	if retryable {
		result, err = backoff.Retry(ctx, operation,
			backoff.WithBackOff(backoff.NewExponentialBackOff()),
			backoff.WithMaxTries(3),
		)
	} else {
		result, err = operation()
	}
	if err != nil {
		return authflow.Fail(err)
	}

	return authflow.Ok(resultToValue(result))
}

type httpResult struct {
	status int
	header http.Header
	body   []byte
}

func resultToValue(r *httpResult) map[string]any {
	headers := make(map[string]any, len(r.header))
	for k, v := range r.header {
		if len(v) == 1 {
			headers[k] = v[0]
		} else {
			headers[k] = v
		}
	}

	out := map[string]any{
		"status":  r.status,
		"headers": headers,
	}
	var parsed any
	if json.Unmarshal(r.body, &parsed) == nil {
		out["body"] = parsed
	} else {
		out["body"] = string(r.body)
	}
	return out
}

func toHeaderValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	encoded, _ := json.Marshal(v)
	return string(encoded)
}
