package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"hash"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/aionixone/openact/pkg/apperrors"
	"github.com/aionixone/openact/pkg/authflow"
)

// HMAC implements compute.hmac: signs a message with a shared-secret key.
// algorithm selects SHA256/SHA384/SHA512 (default SHA256); encoding selects
// hex/base64 (default hex). The message may arrive as plain text (message)
// or base64 (messageBase64). HMAC construction itself has no library in the
// example pack narrower than the standard library's crypto/hmac, so this
// handler is built directly on it (see DESIGN.md).
func HMAC(_ context.Context, params map[string]any, _ *authflow.RunContext) authflow.HandlerOutcome {
	key, _ := params["key"].(string)
	if key == "" {
		return authflow.Fail(apperrors.NewInvalidError("compute.hmac requires key", nil))
	}

	var message []byte
	if b64, ok := params["messageBase64"].(string); ok && b64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return authflow.Fail(apperrors.NewInvalidError("compute.hmac: invalid messageBase64", err))
		}
		message = decoded
	} else {
		text, _ := params["message"].(string)
		message = []byte(text)
	}

	algorithm, _ := params["algorithm"].(string)
	var newHash func() hash.Hash
	switch algorithm {
	case "", "SHA256":
		newHash = sha256.New
	case "SHA384":
		newHash = sha512.New384
	case "SHA512":
		newHash = sha512.New
	default:
		return authflow.Fail(apperrors.NewInvalidError("compute.hmac: unsupported algorithm "+algorithm, nil))
	}

	mac := hmac.New(newHash, []byte(key))
	mac.Write(message)
	sum := mac.Sum(nil)

	encoding, _ := params["encoding"].(string)
	var encoded string
	switch encoding {
	case "", "hex":
		encoded = hex.EncodeToString(sum)
	case "base64":
		encoded = base64.StdEncoding.EncodeToString(sum)
	default:
		return authflow.Fail(apperrors.NewInvalidError("compute.hmac: unsupported encoding "+encoding, nil))
	}

	return authflow.Ok(map[string]any{"signature": encoded})
}

// JWTSign implements compute.jwt_sign: signs a claim set for connectors
// whose auth scheme is a self-signed assertion rather than OAuth2 (e.g.
// Google service-account JWTs, or a shared-secret HMAC assertion). alg
// selects the signing method: HS256/HS384/HS512 treat key as a raw shared
// secret; RS256 treats key as a JWK-encoded RSA private key.
func JWTSign(_ context.Context, params map[string]any, _ *authflow.RunContext) authflow.HandlerOutcome {
	claims, _ := params["claims"].(map[string]any)
	key, _ := params["key"].(string)
	if claims == nil || key == "" {
		return authflow.Fail(apperrors.NewInvalidError("compute.jwt_sign requires claims and key", nil))
	}

	alg, _ := params["alg"].(string)
	var method jwt.SigningMethod
	var signingKey any
	var kid string
	switch alg {
	case "HS256":
		method, signingKey = jwt.SigningMethodHS256, []byte(key)
	case "HS384":
		method, signingKey = jwt.SigningMethodHS384, []byte(key)
	case "HS512":
		method, signingKey = jwt.SigningMethodHS512, []byte(key)
	case "", "RS256":
		parsed, err := jwk.ParseKey([]byte(key))
		if err != nil {
			return authflow.Fail(apperrors.NewInvalidError("compute.jwt_sign: invalid RS256 key (expected a JWK)", err))
		}
		var rawKey any
		if err := parsed.Raw(&rawKey); err != nil {
			return authflow.Fail(apperrors.NewInternalError("compute.jwt_sign: failed to materialise key", err))
		}
		method, signingKey, kid = jwt.SigningMethodRS256, rawKey, parsed.KeyID()
	default:
		return authflow.Fail(apperrors.NewInvalidError("compute.jwt_sign: unsupported alg "+alg, nil))
	}

	mapClaims := jwt.MapClaims{}
	for k, v := range claims {
		mapClaims[k] = v
	}
	if _, ok := mapClaims["iat"]; !ok {
		mapClaims["iat"] = time.Now().Unix()
	}

	token := jwt.NewWithClaims(method, mapClaims)
	if kid != "" {
		token.Header["kid"] = kid
	}
	if header, ok := params["header"].(map[string]any); ok {
		for k, v := range header {
			token.Header[k] = v
		}
	}
	signed, err := token.SignedString(signingKey)
	if err != nil {
		return authflow.Fail(apperrors.NewInternalError("compute.jwt_sign: signing failed", err))
	}

	return authflow.Ok(map[string]any{"token": signed})
}
