// Package config loads server configuration from the environment so main
// stays lean. Every knob has a development default; production deployments
// override via CERTLEDGER_* variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full server configuration.
type Config struct {
	Addr          string `envconfig:"ADDR" default:":8080"`
	AdminIdentity string `envconfig:"ADMIN_IDENTITY" default:"0xadmin"`
	Institution   string `envconfig:"INSTITUTION" default:"Certificate Authority"`

	JWTSigningKey string        `envconfig:"JWT_SIGNING_KEY" default:"dev-secret-key-change-in-production"`
	TokenTTL      time.Duration `envconfig:"TOKEN_TTL" default:"1h"`

	// Empty DSN runs the ledger without a durable journal.
	PostgresDSN string `envconfig:"POSTGRES_DSN"`

	// Empty URL disables the Redis verification cache.
	RedisURL       string        `envconfig:"REDIS_URL"`
	VerifyCacheTTL time.Duration `envconfig:"VERIFY_CACHE_TTL" default:"5m"`

	// Empty broker list disables Kafka event publishing.
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`

	FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"10s"`
	FetchRetries uint64        `envconfig:"FETCH_RETRIES" default:"2"`
	StoreRetries uint64        `envconfig:"STORE_RETRIES" default:"2"`

	EventBuffer     int           `envconfig:"EVENT_BUFFER" default:"256"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load reads configuration from CERTLEDGER_* environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("certledger", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if cfg.AdminIdentity == "" {
		return Config{}, fmt.Errorf("admin identity must not be empty")
	}
	return cfg, nil
}
