package handlers

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/aionixone/openact/pkg/apperrors"
	"github.com/aionixone/openact/pkg/authflow"
)

func buildOAuth2Config(params map[string]any) (*oauth2.Config, error) {
	clientID, _ := params["client_id"].(string)
	clientSecret, _ := params["client_secret"].(string)
	tokenURL, _ := params["token_url"].(string)
	authURL, _ := params["authorize_url"].(string)
	redirectURI, _ := params["redirect_uri"].(string)
	if clientID == "" || tokenURL == "" {
		return nil, apperrors.NewInvalidError("oauth2 handlers require client_id and token_url", nil)
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Endpoint:     oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL},
	}, nil
}

// ExchangeToken implements oauth2.exchange_token: trades an authorization
// code (plus the PKCE verifier stashed by oauth2.authorize_redirect) for an
// access/refresh token pair via RFC 6749 §4.1.3, using golang.org/x/oauth2's
// form-urlencoded client.
func ExchangeToken(ctx context.Context, params map[string]any, rc *authflow.RunContext) authflow.HandlerOutcome {
	cfg, err := buildOAuth2Config(params)
	if err != nil {
		return authflow.Fail(err)
	}
	code, _ := params["code"].(string)
	if code == "" {
		code, _ = rc.Vars["_last"].(string)
	}
	if code == "" {
		return authflow.Fail(apperrors.NewInvalidError("oauth2.exchange_token requires a code", nil))
	}

	var opts []oauth2.AuthCodeOption
	if verifier, ok := rc.Vars["pkce_verifier"].(string); ok && verifier != "" {
		opts = append(opts, oauth2.SetAuthURLParam("code_verifier", verifier))
	}

	tok, err := cfg.Exchange(ctx, code, opts...)
	if err != nil {
		return authflow.Fail(apperrors.NewUpstreamError("oauth2 token exchange failed", err))
	}
	return authflow.Ok(tokenToMap(tok))
}

// RefreshToken implements oauth2.refresh_token: exchanges a refresh token
// for a new access token via golang.org/x/oauth2's reuse-token-source,
// which issues the RFC 6749 §6 refresh request only when the supplied
// access token is absent/expired — which it always is here, since this
// handler is only invoked when a stored credential needs renewing.
func RefreshToken(ctx context.Context, params map[string]any, rc *authflow.RunContext) authflow.HandlerOutcome {
	cfg, err := buildOAuth2Config(params)
	if err != nil {
		return authflow.Fail(err)
	}
	refreshToken, _ := params["refresh_token"].(string)
	if refreshToken == "" {
		return authflow.Fail(apperrors.NewInvalidError("oauth2.refresh_token requires refresh_token", nil))
	}

	src := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return authflow.Fail(apperrors.NewUpstreamError("oauth2 token refresh failed", err))
	}
	return authflow.Ok(tokenToMap(tok))
}

func tokenToMap(tok *oauth2.Token) map[string]any {
	out := map[string]any{
		"access_token": tok.AccessToken,
		"token_type":   tok.TokenType,
	}
	if tok.RefreshToken != "" {
		out["refresh_token"] = tok.RefreshToken
	}
	if !tok.Expiry.IsZero() {
		out["expires_at"] = tok.Expiry.Format("2006-01-02T15:04:05Z07:00")
	}
	if scope, ok := tok.Extra("scope").(string); ok && scope != "" {
		out["scope"] = scope
	}
	return out
}
