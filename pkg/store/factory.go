package store

import (
	"context"
	"encoding/base64"
	"fmt"
)

// Open builds the configured Store backend. dsn selects the backend:
//   - "memory" or "" selects the in-memory backend.
//   - anything else is treated as a sqlite DSN.
//
// encKeyBase64 is the tenant's envelope-encryption key (§4.2); empty
// disables encryption.
//
// Open is deliberately backend-agnostic at the call site, mirroring the
// teacher's storage factory (pkg/storage/factory_test.go): callers never
// import pkg/store/sqlite directly.
type Opener func(ctx context.Context, dsn string, keys *KeyRing) (Store, error)

var backends = map[string]Opener{}

// RegisterBackend makes a named backend constructor available to Open. It
// is called from each backend package's init(), so importing
// pkg/store/sqlite (blank or otherwise) is what makes "sqlite" selectable.
func RegisterBackend(name string, opener Opener) {
	backends[name] = opener
}

// Open resolves encKeyBase64 into a KeyRing and dispatches to the backend
// matching dsn's scheme (sqlite:// or memory://; a bare path defaults to
// sqlite).
func Open(ctx context.Context, dsn string, encKeyBase64 string) (Store, error) {
	var keyBytes []byte
	if encKeyBase64 != "" {
		b, err := base64.StdEncoding.DecodeString(encKeyBase64)
		if err != nil {
			return nil, fmt.Errorf("store: OPENACT_ENC_KEY is not valid base64: %w", err)
		}
		keyBytes = b
	}
	keys, err := NewKeyRing(keyBytes)
	if err != nil {
		return nil, err
	}

	name, rest := splitScheme(dsn)
	opener, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("store: no backend registered for %q (registered: %v)", name, backendNames())
	}
	return opener(ctx, rest, keys)
}

func splitScheme(dsn string) (name, rest string) {
	if dsn == "" || dsn == "memory" || dsn == "memory://" {
		return "memory", ""
	}
	for i := 0; i+2 < len(dsn); i++ {
		if dsn[i] == ':' && dsn[i+1] == '/' && dsn[i+2] == '/' {
			return dsn[:i], dsn[i+3:]
		}
	}
	return "sqlite", dsn
}

func backendNames() []string {
	names := make([]string, 0, len(backends))
	for k := range backends {
		names = append(names, k)
	}
	return names
}
