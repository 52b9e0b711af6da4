package httpconn

import (
	"context"
	"encoding/base64"

	"github.com/aionixone/openact/pkg/apperrors"
)

// CredentialResolver bridges to the credential store for the oauth2
// authorization kind: given the connection_ref, it returns the access
// token to inject (§4.7 Auth injection). The implementation in pkg/exec
// reads the stored AuthConnection and does not refresh an expired token;
// it returns a Forbidden error instead.
type CredentialResolver interface {
	ResolveAccessToken(ctx context.Context, connectionRef string) (string, error)
}

// resolvedAuth is the single (header name, value) pair auth injection
// produces, applied after all other headers so it can never be
// overridden by caller-supplied ones (§4.7).
type resolvedAuth struct {
	headerName  string
	headerValue string
}

// resolveAuth builds the auth header from the connection config alone:
// Authorization selects the scheme and AuthParameters supplies its values;
// for oauth2 the token comes from the credential store, resolved fresh per
// call. ActionConfig has no auth fields, so an action cannot override any
// part of the connection's auth.
func resolveAuth(ctx context.Context, conn *ConnectionConfig, resolver CredentialResolver) (resolvedAuth, error) {
	switch conn.Authorization {
	case "", AuthNone:
		return resolvedAuth{}, nil
	case AuthAPIKey:
		name := conn.AuthParameters.HeaderName
		if name == "" {
			name = "X-API-Key"
		}
		return resolvedAuth{headerName: name, headerValue: conn.AuthParameters.APIKey}, nil
	case AuthBasic:
		encoded := base64.StdEncoding.EncodeToString([]byte(conn.AuthParameters.Username + ":" + conn.AuthParameters.Password))
		return resolvedAuth{headerName: "Authorization", headerValue: "Basic " + encoded}, nil
	case AuthOAuth2:
		if resolver == nil {
			return resolvedAuth{}, apperrors.NewInternalError("httpconn: oauth2 authorization configured without a credential resolver", nil)
		}
		token, err := resolver.ResolveAccessToken(ctx, conn.AuthParameters.ConnectionRef)
		if err != nil {
			return resolvedAuth{}, apperrors.NewForbiddenError("httpconn: failed to resolve oauth2 credential", err)
		}
		return resolvedAuth{headerName: "Authorization", headerValue: "Bearer " + token}, nil
	default:
		return resolvedAuth{}, apperrors.NewInvalidError("httpconn: unknown authorization kind "+string(conn.Authorization), nil)
	}
}
