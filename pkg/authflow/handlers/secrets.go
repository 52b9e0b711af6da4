package handlers

import (
	"context"

	"github.com/aionixone/openact/pkg/apperrors"
	"github.com/aionixone/openact/pkg/authflow"
	"github.com/aionixone/openact/pkg/secretsprovider"
)

// SecretsResolver binds a secretsprovider.Provider to the secrets.resolve
// task handler.
type SecretsResolver struct {
	Provider secretsprovider.Provider
}

// Resolve implements secrets.resolve: dereferences a vault:// ref to its
// value, optionally narrowed by a JSON pointer.
func (r *SecretsResolver) Resolve(ctx context.Context, params map[string]any, _ *authflow.RunContext) authflow.HandlerOutcome {
	ref, _ := params["ref"].(string)
	if ref == "" {
		return authflow.Fail(apperrors.NewInvalidError("secrets.resolve requires ref", nil))
	}
	v, err := secretsprovider.Resolve(ctx, r.Provider, ref)
	if err != nil {
		return authflow.Fail(err)
	}
	return authflow.Ok(v)
}
