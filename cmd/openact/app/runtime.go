package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aionixone/openact/pkg/config"
	"github.com/aionixone/openact/pkg/connector"
	"github.com/aionixone/openact/pkg/connector/builtin"
	"github.com/aionixone/openact/pkg/connector/clientpool"
	"github.com/aionixone/openact/pkg/exec"
	"github.com/aionixone/openact/pkg/secretsprovider"
	"github.com/aionixone/openact/pkg/store"
	"github.com/aionixone/openact/pkg/store/rediscache"
	"github.com/aionixone/openact/pkg/store/sqlite"
)

// checkpointCacheTTL bounds how long a paused run's checkpoint survives in
// Redis before falling back to the store; runs rarely stay paused longer
// than an access-token lifetime.
const checkpointCacheTTL = 15 * time.Minute

// runtime bundles the store-backed registry every data-touching subcommand
// needs, built once from the resolved config.
type runtime struct {
	cfg         *config.Config
	store       *sqlite.Store
	checkpoints store.CheckpointStore
	registry    *connector.Registry
	secrets     secretsprovider.Provider
	cache       *rediscache.Cache
}

func (rt *runtime) Close() error {
	if rt.cache != nil {
		_ = rt.cache.Close()
	}
	if rt.store != nil {
		return rt.store.Close()
	}
	return nil
}

func newRuntime(ctx context.Context, cmd *cobra.Command) (*runtime, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	var keys *store.KeyRing
	if cfg.EncKeyBase64 != "" {
		key, err := base64.StdEncoding.DecodeString(cfg.EncKeyBase64)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", config.EnvEncKey, err)
		}
		keys, err = store.NewKeyRing(key)
		if err != nil {
			return nil, fmt.Errorf("building key ring: %w", err)
		}
	}

	st, err := sqlite.Open(ctx, cfg.DatabaseURL, keys)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	var secrets secretsprovider.Provider
	if cfg.SecretsFile != "" {
		secrets, err = secretsprovider.LoadMapProviderFile(cfg.SecretsFile)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("loading secrets file: %w", err)
		}
	}

	reg := connector.NewRegistry(st, st)
	resolver := &exec.CredentialResolver{Store: st}
	builtin.Register(reg, clientpool.New(64, 0), resolver)

	var checkpoints store.CheckpointStore = st
	var cache *rediscache.Cache
	if cfg.RedisURL != "" {
		cache, err = rediscache.New(st, cfg.RedisURL, checkpointCacheTTL)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		checkpoints = cache
	}

	return &runtime{
		cfg:         cfg,
		store:       st,
		checkpoints: checkpoints,
		registry:    reg,
		secrets:     secrets,
		cache:       cache,
	}, nil
}
