package sqlite

import (
	"context"

	"github.com/aionixone/openact/pkg/store"
)

func init() {
	store.RegisterBackend("sqlite", func(ctx context.Context, dsn string, keys *store.KeyRing) (store.Store, error) {
		return Open(ctx, dsn, keys)
	})
}
