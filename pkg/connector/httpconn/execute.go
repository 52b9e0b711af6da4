package httpconn

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/aionixone/openact/pkg/apperrors"
	"github.com/aionixone/openact/pkg/connector/clientpool"
)

type response struct {
	status int
	header http.Header
	body   []byte
}

// doRequest composes, sends (with retry), and decodes one action call.
func doRequest(ctx context.Context, conn *ConnectionConfig, action *ActionConfig, pool *clientpool.Pool, resolver CredentialResolver, input map[string]any) (any, error) {
	target, err := joinURL(conn.BaseURL, action.Path)
	if err != nil {
		return nil, apperrors.NewInvalidError("httpconn: failed to compose url", err)
	}
	target, err = mergeQuery(target, conn.DefaultQuery, action.Query)
	if err != nil {
		return nil, apperrors.NewInvalidError("httpconn: failed to compose query", err)
	}

	auth, err := resolveAuth(ctx, conn, resolver)
	if err != nil {
		return nil, err
	}

	client, err := pool.Get(Key(conn))
	if err != nil {
		return nil, apperrors.NewInternalError("httpconn: failed to build http client", err)
	}

	retryPolicy := effectiveRetryPolicy(conn, action)
	responsePolicy := effectiveResponsePolicy(conn, action)

	body, contentType, err := encodeBody(action, input)
	if err != nil {
		return nil, err
	}

	attempt := func() (*response, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, action.Method, target, reader)
		if err != nil {
			return nil, backoff.Permanent(apperrors.NewInvalidError("httpconn: malformed request", err))
		}
		if err := buildHeaders(req, conn.DefaultHeaders, action.Headers, auth.headerName, auth.headerValue); err != nil {
			return nil, backoff.Permanent(err)
		}
		if contentType != "" && req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, apperrors.NewUpstreamError("httpconn: transport error", err)
		}
		defer resp.Body.Close()

		limited := io.LimitReader(resp.Body, responsePolicy.MaxBodyBytes+1)
		raw, err := io.ReadAll(limited)
		if err != nil {
			return nil, apperrors.NewUpstreamError("httpconn: failed reading response body", err)
		}
		if int64(len(raw)) > responsePolicy.MaxBodyBytes {
			return nil, backoff.Permanent(apperrors.NewUpstreamError("httpconn: response body exceeds max_body_bytes", nil))
		}

		result := &response{status: resp.StatusCode, header: resp.Header.Clone(), body: raw}
		if retryPolicy.MaxRetries > 0 && retryPolicy.isRetryable(resp.StatusCode) {
			if retryPolicy.RespectRetryAfter {
				if seconds, ok := parseRetryAfter(resp.Header.Get("Retry-After")); ok {
					return result, backoff.RetryAfter(seconds)
				}
			}
			return result, retryableStatusError(resp.StatusCode)
		}
		return result, nil
	}

	var result *response
	if retryPolicy.MaxRetries > 0 {
		bo := backoff.NewExponentialBackOff()
		if retryPolicy.BaseDelayMS > 0 {
			bo.InitialInterval = time.Duration(retryPolicy.BaseDelayMS) * time.Millisecond
		}
		if retryPolicy.Multiplier > 0 {
			bo.Multiplier = retryPolicy.Multiplier
		}
		if retryPolicy.MaxDelayMS > 0 {
			bo.MaxInterval = time.Duration(retryPolicy.MaxDelayMS) * time.Millisecond
		}
		result, err = backoff.Retry(ctx, attempt,
			backoff.WithBackOff(bo),
			backoff.WithMaxTries(uint(retryPolicy.MaxRetries+1)),
		)
	} else {
		result, err = attempt()
	}
	if err != nil {
		return nil, err
	}

	if result.status >= 400 {
		return nil, apperrors.NewUpstreamError(fmt.Sprintf("httpconn: upstream returned status %d", result.status), nil)
	}

	return decodeResponse(result, responsePolicy)
}

func retryableStatusError(status int) error {
	return apperrors.NewUpstreamError(fmt.Sprintf("httpconn: retryable status %d", status), nil)
}

// parseRetryAfter parses the Retry-After header's delay-seconds form (the
// HTTP-date form is not supported here, matching the narrower subset other
// retry clients in the ecosystem implement).
func parseRetryAfter(header string) (int, bool) {
	if header == "" {
		return 0, false
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0, false
	}
	return seconds, true
}

func decodeResponse(r *response, policy ResponsePolicy) (any, error) {
	contentType := r.header.Get("Content-Type")
	headers := make(map[string]any, len(r.header))
	for k, v := range r.header {
		if len(v) == 1 {
			headers[k] = v[0]
		} else {
			headers[k] = v
		}
	}

	var parsedBody any
	switch {
	case len(r.body) == 0:
		parsedBody = nil
	case isJSONContentType(contentType):
		var v any
		if err := json.Unmarshal(r.body, &v); err != nil {
			return nil, apperrors.NewUpstreamError("httpconn: invalid json response body", err)
		}
		parsedBody = v
	case isTextContentType(contentType):
		parsedBody = string(r.body)
	default:
		if !policy.AllowBinary {
			return nil, apperrors.NewUpstreamError("httpconn: binary response body not allowed", nil)
		}
		parsedBody = map[string]any{"binary": base64.StdEncoding.EncodeToString(r.body)}
	}

	return map[string]any{
		"status":  r.status,
		"headers": headers,
		"body":    parsedBody,
	}, nil
}

func isJSONContentType(ct string) bool {
	return ct == "" || containsAny(ct, "application/json", "+json")
}

func isTextContentType(ct string) bool {
	return containsAny(ct, "text/")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if len(s) >= len(sub) {
			for i := 0; i+len(sub) <= len(s); i++ {
				if s[i:i+len(sub)] == sub {
					return true
				}
			}
		}
	}
	return false
}

// encodeBody serialises action.Body (or input["body"], if the action has
// none) according to action.BodyType.
func encodeBody(action *ActionConfig, input map[string]any) ([]byte, string, error) {
	payload := action.Body
	if payload == nil {
		if v, ok := input["body"]; ok {
			payload = v
		}
	}
	if payload == nil {
		return nil, "", nil
	}

	switch action.BodyType {
	case "", BodyJSON:
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, "", apperrors.NewInvalidError("httpconn: body is not JSON-encodable", err)
		}
		return encoded, "application/json", nil
	case BodyForm:
		m, ok := payload.(map[string]any)
		if !ok {
			return nil, "", apperrors.NewInvalidError("httpconn: form body must be an object", nil)
		}
		values := url.Values{}
		for k, v := range m {
			values.Set(k, fmt.Sprintf("%v", v))
		}
		return []byte(values.Encode()), "application/x-www-form-urlencoded", nil
	case BodyMultipart:
		m, ok := payload.(map[string]any)
		if !ok {
			return nil, "", apperrors.NewInvalidError("httpconn: multipart body must be an object", nil)
		}
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for k, v := range m {
			if err := w.WriteField(k, fmt.Sprintf("%v", v)); err != nil {
				return nil, "", apperrors.NewInternalError("httpconn: failed writing multipart field", err)
			}
		}
		if err := w.Close(); err != nil {
			return nil, "", apperrors.NewInternalError("httpconn: failed closing multipart writer", err)
		}
		return buf.Bytes(), w.FormDataContentType(), nil
	case BodyRawBytes:
		s, ok := payload.(string)
		if !ok {
			return nil, "", apperrors.NewInvalidError("httpconn: raw body must be a base64 string", nil)
		}
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, "", apperrors.NewInvalidError("httpconn: raw body is not valid base64", err)
		}
		return decoded, "application/octet-stream", nil
	case BodyTextPlain:
		s, ok := payload.(string)
		if !ok {
			return nil, "", apperrors.NewInvalidError("httpconn: text body must be a string", nil)
		}
		return []byte(s), "text/plain; charset=utf-8", nil
	default:
		return nil, "", apperrors.NewInvalidError("httpconn: unknown body_type "+string(action.BodyType), nil)
	}
}

// Key adapts a ConnectionConfig to a clientpool.Key.
func Key(conn *ConnectionConfig) clientpool.Key {
	k := clientpool.Key{
		ConnectTimeout: connectTimeout(conn.Timeout),
		TotalTimeout:   totalTimeout(conn.Timeout),
		ProxyURL:       conn.ProxyURL,
		VerifyPeer:     true,
	}
	if conn.TLS != nil {
		k.VerifyPeer = conn.TLS.VerifyPeer
		k.CACertPEM = conn.TLS.CACertPEM
		k.ServerName = conn.TLS.ServerName
	}
	return k
}
