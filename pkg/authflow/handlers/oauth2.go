// Package handlers implements the built-in AuthFlow task resources (§4.5):
// the oauth2.*, http.request, secrets.resolve, compute.*, inject.*, and
// connection.* handlers dispatched by the engine against a task's
// "resource" name.
package handlers

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/aionixone/openact/pkg/apperrors"
	"github.com/aionixone/openact/pkg/authflow"
)

// generateCodeVerifier and generateChallenge follow RFC 7636 S256, the same
// algorithm used for OAuth2 PKCE redirects everywhere in the pack.
func generateCodeVerifier() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", apperrors.NewInternalError("failed to generate pkce verifier", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func challengeFromVerifier(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", apperrors.NewInternalError("failed to generate oauth2 state", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// AuthorizeRedirect implements oauth2.authorize_redirect: builds the
// provider authorization URL, optionally with PKCE S256, and a CSRF state,
// stashing the verifier/state in context vars so oauth2.exchange_token can
// find them later in the same run.
func AuthorizeRedirect(_ context.Context, params map[string]any, rc *authflow.RunContext) authflow.HandlerOutcome {
	authURL, _ := params["authorizeUrl"].(string)
	clientID, _ := params["clientId"].(string)
	redirectURI, _ := params["redirectUri"].(string)
	scope, _ := params["scope"].(string)
	if authURL == "" || clientID == "" || redirectURI == "" {
		return authflow.Fail(apperrors.NewInvalidError("oauth2.authorize_redirect requires authorizeUrl, clientId, redirectUri", nil))
	}

	usePKCE := true
	if v, ok := params["usePKCE"].(bool); ok {
		usePKCE = v
	}

	state, _ := params["state"].(string)
	if state == "" {
		generated, err := generateState()
		if err != nil {
			return authflow.Fail(err)
		}
		state = generated
	}

	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", clientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	if scope != "" {
		q.Set("scope", scope)
	}

	out := map[string]any{"state": state}
	var verifier string
	if usePKCE {
		v, err := generateCodeVerifier()
		if err != nil {
			return authflow.Fail(err)
		}
		verifier = v
		challenge := challengeFromVerifier(verifier)
		q.Set("code_challenge", challenge)
		q.Set("code_challenge_method", "S256")
		out["code_verifier"] = verifier
		out["code_challenge"] = challenge
		rc.Vars["pkce_verifier"] = verifier
	}

	sep := "?"
	if strings.Contains(authURL, "?") {
		sep = "&"
	}
	out["authorize_url"] = authURL + sep + q.Encode()

	rc.Vars["oauth2_state"] = state

	return authflow.Ok(out)
}

// AwaitCallback implements oauth2.await_callback (§4.4, fixed-location
// pause semantics): if the run's resume input carries no "code", the
// handler pauses and records the expected state for validation on resume.
// Once a code is present, the expected_state (if any) is checked against
// $ctx.input.state before the code is accepted.
func AwaitCallback(_ context.Context, _ map[string]any, rc *authflow.RunContext) authflow.HandlerOutcome {
	code, hasCode := rc.Input["code"].(string)
	if !hasCode || code == "" {
		expected, _ := rc.Vars["oauth2_state"].(string)
		return authflow.Pause(map[string]any{"expected_state": expected})
	}

	expected, _ := rc.Vars["oauth2_state"].(string)
	if expected != "" {
		got, _ := rc.Input["state"].(string)
		if got != expected {
			return authflow.Fail(apperrors.NewInvalidError("oauth2 callback state mismatch", nil))
		}
	}

	return authflow.Ok(map[string]any{"code": code})
}
