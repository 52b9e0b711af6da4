package httpconn

import (
	"net/http"
	"strings"

	"github.com/aionixone/openact/pkg/apperrors"
)

// headerDenylist prevents caller-supplied headers from spoofing
// transport-level framing (§4.7).
var headerDenylist = map[string]bool{
	"host":               true,
	"content-length":     true,
	"transfer-encoding":  true,
	"expect":             true,
	"connection":         true,
	"upgrade":            true,
	"proxy-authorization": true,
}

// multiValuedHeaders append rather than overwrite when set from multiple
// sources (defaults, overrides).
var multiValuedHeaders = map[string]bool{
	"accept":          true,
	"accept-encoding": true,
	"accept-language": true,
	"cookie":          true,
	"set-cookie":      true,
	"cache-control":   true,
}

const (
	maxHeaderValueLen = 8 * 1024
	maxHeaderCount    = 64
)

// buildHeaders layers default and action-override headers onto req,
// honouring the denylist, the append-vs-overwrite rule, and the size caps.
// authHeader, if non-empty (name, value), is applied last and always wins —
// "authorization" can never be spoofed by caller headers (§4.7).
func buildHeaders(req *http.Request, defaults, overrides map[string][]string, authName, authValue string) error {
	count := 0
	apply := func(src map[string][]string) error {
		for name, values := range src {
			lower := strings.ToLower(name)
			if headerDenylist[lower] || lower == "authorization" {
				continue
			}
			for _, v := range values {
				if len(v) > maxHeaderValueLen {
					return apperrors.NewInvalidError("httpconn: header value too long: "+name, nil)
				}
				if multiValuedHeaders[lower] {
					req.Header.Add(name, v)
				} else {
					req.Header.Set(name, v)
				}
				count++
				if count > maxHeaderCount {
					return apperrors.NewInvalidError("httpconn: too many headers", nil)
				}
			}
		}
		return nil
	}
	if err := apply(defaults); err != nil {
		return err
	}
	if err := apply(overrides); err != nil {
		return err
	}
	if authName != "" {
		req.Header.Set(authName, authValue)
	}
	return nil
}
