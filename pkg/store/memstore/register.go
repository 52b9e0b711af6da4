package memstore

import (
	"context"

	"github.com/aionixone/openact/pkg/store"
)

func init() {
	store.RegisterBackend("memory", func(_ context.Context, _ string, keys *store.KeyRing) (store.Store, error) {
		return New(keys), nil
	})
}
