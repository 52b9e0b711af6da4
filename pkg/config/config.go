// Package config loads OpenAct's runtime configuration from environment
// variables and an optional config file, following the teacher's
// viper-backed binding pattern (see cmd/openact's root command).
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Environment variable names from spec.md §6.
const (
	EnvDatabaseURL  = "OPENACT_DATABASE_URL"
	EnvEncKey       = "OPENACT_ENC_KEY"
	EnvSecretsFile  = "OPENACT_SECRETS_FILE"
	EnvRedisURL     = "OPENACT_REDIS_URL"
	defaultDatabase = "file::memory:?cache=shared"
)

// Config is OpenAct's resolved runtime configuration.
type Config struct {
	// DatabaseURL is the storage DSN (sqlite file path or DSN string).
	DatabaseURL string
	// EncKeyBase64 is a 32-byte tenant key, base64-encoded, used for
	// envelope encryption of sensitive store fields. Empty means
	// encryption is disabled and fields are stored in plaintext at
	// key-version 0.
	EncKeyBase64 string
	// SecretsFile is the path to a JSON/YAML secrets map consumed by the
	// default SecretsProvider.
	SecretsFile string
	// RedisURL, when set, enables a best-effort read-through checkpoint
	// cache in front of the store (pkg/store/rediscache). Empty disables
	// it entirely.
	RedisURL string
	// Debug enables verbose logging.
	Debug bool
}

// Load builds a Config from environment variables, optionally overlaid by
// a config file at configPath (empty disables file loading).
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("database_url", defaultDatabase)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", configPath, err)
		}
	}

	// viper.AutomaticEnv only binds keys that have been accessed at least
	// once through Get/BindEnv; bind the four OpenAct variables explicitly.
	_ = v.BindEnv("database_url", EnvDatabaseURL)
	_ = v.BindEnv("enc_key", EnvEncKey)
	_ = v.BindEnv("secrets_file", EnvSecretsFile)
	_ = v.BindEnv("redis_url", EnvRedisURL)

	return &Config{
		DatabaseURL:  v.GetString("database_url"),
		EncKeyBase64: v.GetString("enc_key"),
		SecretsFile:  v.GetString("secrets_file"),
		RedisURL:     v.GetString("redis_url"),
		Debug:        v.GetBool("debug"),
	}, nil
}
