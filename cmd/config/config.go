package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds all application configuration, populated from the
// environment (a .env file is loaded first in main).
type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Database DatabaseConfig `env:",prefix=DB_"`
	Redis    RedisConfig    `env:",prefix=REDIS_"`
	Billing  BillingConfig  `env:",prefix=BILLING_"`
	SMTP     SMTPConfig     `env:",prefix=SMTP_"`
	App      AppConfig      `env:",prefix=APP_"`
}

type ServerConfig struct {
	Port string `env:"PORT,default=8080"`
}

type DatabaseConfig struct {
	URL          string `env:"URL"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS,default=25"`
	MaxIdleConns int    `env:"MAX_IDLE_CONNS,default=25"`
}

type RedisConfig struct {
	Addr     string        `env:"ADDR,default=localhost:6379"`
	Password string        `env:"PASSWORD"`
	DB       int           `env:"DB,default=0"`
	CacheTTL time.Duration `env:"CACHE_TTL,default=300s"`
}

// BillingConfig carries the single placement tariff. The per-day rate is
// configured, never hardcoded in business logic.
type BillingConfig struct {
	PricePerDay     float64 `env:"PRICE_PER_DAY,default=100"`
	MaxDurationDays int     `env:"MAX_DURATION_DAYS,default=365"`
}

type SMTPConfig struct {
	Host string `env:"HOST"`
	Port int    `env:"PORT,default=587"`
	User string `env:"USER"`
	Pass string `env:"PASS"`
}

type AppConfig struct {
	Environment string `env:"ENVIRONMENT,default=development"`
}

// Load populates Config from environment variables.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	return &cfg, nil
}

// IsDevelopment returns true when running in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}
