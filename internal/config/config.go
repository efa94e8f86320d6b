// Package config содержит логику чтения конфигурации магазина парфюмерии.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	defaultRunAddress     = "localhost:8080"
	defaultOutboxInterval = 2 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour

	defaultOutboxRetention = 7 * 24 * time.Hour
)

// Config содержит параметры конфигурации магазина.
type Config struct {
	RunAddress      string        `env:"RUN_ADDRESS"`
	DatabaseURI     string        `env:"DATABASE_URI"`
	RedisAddress    string        `env:"REDIS_ADDRESS"`
	KafkaBrokers    string        `env:"KAFKA_BROKERS"`
	AuthSecret      string        `env:"AUTH_SECRET"`
	AdminPhone      string        `env:"ADMIN_PHONE"`
	AdminPassword   string        `env:"ADMIN_PASSWORD"`
	OutboxInterval  time.Duration `env:"OUTBOX_INTERVAL"`
	OutboxRetention time.Duration `env:"OUTBOX_RETENTION"`
	IdempotencyTTL  time.Duration `env:"IDEMPOTENCY_TTL"`
}

// Parse считывает конфигурацию из файла .env, флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fromEnv := *cfg

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.RedisAddress, "r", "", "redis address for checkout idempotency")
	flag.StringVar(&cfg.KafkaBrokers, "k", "", "comma-separated kafka brokers")
	flag.StringVar(&cfg.AuthSecret, "s", "", "secret for signing auth tokens")
	flag.StringVar(&cfg.AdminPhone, "admin-phone", "", "phone of the bootstrap admin account")
	flag.StringVar(&cfg.AdminPassword, "admin-password", "", "password of the bootstrap admin account")
	flag.DurationVar(&cfg.OutboxInterval, "outbox-interval", defaultOutboxInterval, "outbox relay poll interval")
	flag.DurationVar(&cfg.OutboxRetention, "outbox-retention", defaultOutboxRetention, "how long outbox events are kept")
	flag.DurationVar(&cfg.IdempotencyTTL, "idempotency-ttl", defaultIdempotencyTTL, "checkout idempotency key lifetime")

	flag.Parse()

	for _, s := range []struct {
		env string
		dst *string
	}{
		{fromEnv.RunAddress, &cfg.RunAddress},
		{fromEnv.DatabaseURI, &cfg.DatabaseURI},
		{fromEnv.RedisAddress, &cfg.RedisAddress},
		{fromEnv.KafkaBrokers, &cfg.KafkaBrokers},
		{fromEnv.AuthSecret, &cfg.AuthSecret},
		{fromEnv.AdminPhone, &cfg.AdminPhone},
		{fromEnv.AdminPassword, &cfg.AdminPassword},
	} {
		if s.env != "" {
			*s.dst = s.env
		}
	}
	if fromEnv.OutboxInterval > 0 {
		cfg.OutboxInterval = fromEnv.OutboxInterval
	}
	if fromEnv.OutboxRetention > 0 {
		cfg.OutboxRetention = fromEnv.OutboxRetention
	}
	if fromEnv.IdempotencyTTL > 0 {
		cfg.IdempotencyTTL = fromEnv.IdempotencyTTL
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.OutboxInterval <= 0 {
		cfg.OutboxInterval = defaultOutboxInterval
	}
	if cfg.OutboxRetention <= 0 {
		cfg.OutboxRetention = defaultOutboxRetention
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = defaultIdempotencyTTL
	}

	return cfg, nil
}
