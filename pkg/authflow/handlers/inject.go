package handlers

import (
	"context"
	"encoding/base64"

	"github.com/aionixone/openact/pkg/apperrors"
	"github.com/aionixone/openact/pkg/authflow"
)

// emptyEnvelope is the {headers, query, cookies} shape every inject.*
// handler returns, populated with exactly one key by the specific handler.
func emptyEnvelope() map[string]any {
	return map[string]any{
		"headers": map[string]any{},
		"query":   map[string]any{},
		"cookies": map[string]any{},
	}
}

// InjectBearer implements inject.bearer: formats an access token as an
// Authorization header value inside the {headers,query,cookies} envelope
// (§4.5) for a later http.request/connector call to merge in.
func InjectBearer(_ context.Context, params map[string]any, rc *authflow.RunContext) authflow.HandlerOutcome {
	token, _ := params["token"].(string)
	if token == "" {
		token, _ = rc.Input["access_token"].(string)
	}
	if token == "" {
		return authflow.Fail(apperrors.NewInvalidError("inject.bearer requires token", nil))
	}
	headerName, _ := params["headerName"].(string)
	if headerName == "" {
		headerName = "Authorization"
	}
	scheme, _ := params["scheme"].(string)
	if scheme == "" {
		scheme = "Bearer"
	}

	env := emptyEnvelope()
	env["headers"].(map[string]any)[headerName] = scheme + " " + token
	return authflow.Ok(env)
}

// InjectAPIKey implements inject.api_key: places a static key into a
// header, query parameter, or cookie per the "location" param (default
// "header"), optionally prefixed (e.g. "Token ").
func InjectAPIKey(_ context.Context, params map[string]any, _ *authflow.RunContext) authflow.HandlerOutcome {
	key, _ := params["key"].(string)
	name, _ := params["name"].(string)
	if key == "" || name == "" {
		return authflow.Fail(apperrors.NewInvalidError("inject.api_key requires key and name", nil))
	}
	location, _ := params["location"].(string)
	if location == "" {
		location = "header"
	}
	prefix, _ := params["prefix"].(string)
	value := prefix + key

	env := emptyEnvelope()
	switch location {
	case "header":
		env["headers"].(map[string]any)[name] = value
	case "query":
		env["query"].(map[string]any)[name] = value
	case "cookie":
		env["cookies"].(map[string]any)[name] = value
	default:
		return authflow.Fail(apperrors.NewInvalidError("inject.api_key: unsupported location "+location, nil))
	}
	return authflow.Ok(env)
}

// InjectBasic implements inject.basic: formats HTTP Basic auth per RFC 7617
// inside the {headers,query,cookies} envelope (§4.5).
func InjectBasic(_ context.Context, params map[string]any, _ *authflow.RunContext) authflow.HandlerOutcome {
	username, _ := params["username"].(string)
	password, _ := params["password"].(string)
	if username == "" {
		return authflow.Fail(apperrors.NewInvalidError("inject.basic requires username", nil))
	}
	headerName, _ := params["headerName"].(string)
	if headerName == "" {
		headerName = "Authorization"
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))

	env := emptyEnvelope()
	env["headers"].(map[string]any)[headerName] = "Basic " + encoded
	return authflow.Ok(env)
}
