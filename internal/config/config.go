// Package config loads the service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	ReplayStoreMemory = "memory"
	ReplayStoreRedis  = "redis"
)

type Config struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	ServiceName     string        `envconfig:"SERVICE_NAME" default:"minishop"`
	Env             string        `envconfig:"ENV" default:"dev"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFile         string        `envconfig:"LOG_FILE"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	WebhookSecret    string        `envconfig:"WEBHOOK_SECRET" required:"true"`
	ReplayStore      string        `envconfig:"REPLAY_STORE" default:"memory"`
	ReplayTTL        time.Duration `envconfig:"REPLAY_TTL" default:"24h"`
	ReplayMaxEntries int           `envconfig:"REPLAY_MAX_ENTRIES" default:"100000"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	LowStockThreshold int `envconfig:"LOW_STOCK_THRESHOLD" default:"5"`

	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads the environment once and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.WebhookSecret) == "" {
		errs = append(errs, errors.New("WEBHOOK_SECRET must not be empty"))
	}
	switch c.ReplayStore {
	case ReplayStoreMemory, ReplayStoreRedis:
	default:
		errs = append(errs, fmt.Errorf("REPLAY_STORE must be %q or %q, got %q", ReplayStoreMemory, ReplayStoreRedis, c.ReplayStore))
	}
	if c.ReplayTTL <= 0 {
		errs = append(errs, errors.New("REPLAY_TTL must be positive"))
	}
	if c.ReplayMaxEntries <= 0 {
		errs = append(errs, errors.New("REPLAY_MAX_ENTRIES must be positive"))
	}
	if c.LowStockThreshold < 0 {
		errs = append(errs, errors.New("LOW_STOCK_THRESHOLD must not be negative"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
