package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ServeConfig configures the serve command.
type ServeConfig struct {
	DBPath        string  `env:"CLAIMLEDGER_DB"`
	ListenAddr    string  `env:"CLAIMLEDGER_LISTEN_ADDR" envDefault:":8080"`
	RateRPS       float64 `env:"CLAIMLEDGER_RATE_RPS" envDefault:"5"`
	RateBurst     int     `env:"CLAIMLEDGER_RATE_BURST" envDefault:"10"`
	WithdrawToken string  `env:"CLAIMLEDGER_WITHDRAW_TOKEN" envDefault:"configured"`
}

// RelayConfig configures the relay command.
type RelayConfig struct {
	DBPath      string        `env:"CLAIMLEDGER_DB"`
	RedisAddr   string        `env:"CLAIMLEDGER_REDIS_ADDR"`
	RedisStream string        `env:"CLAIMLEDGER_REDIS_STREAM" envDefault:"claimledger:transfers"`
	Interval    time.Duration `env:"CLAIMLEDGER_RELAY_INTERVAL" envDefault:"2s"`
	Batch       int           `env:"CLAIMLEDGER_RELAY_BATCH" envDefault:"50"`
}

// LoadServe reads ServeConfig from the environment.
func LoadServe() (ServeConfig, error) {
	var cfg ServeConfig
	if err := ParseEnv(&cfg); err != nil {
		return ServeConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return ServeConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks the rate limit settings. A limiter with no burst rejects
// every request, so burst must be at least 1 whenever limiting is on.
func (c ServeConfig) Validate() error {
	switch {
	case c.RateRPS < 0:
		return fmt.Errorf("rate limit RPS must not be negative")
	case c.RateBurst < 0:
		return fmt.Errorf("rate limit burst must not be negative")
	case c.RateRPS > 0 && c.RateBurst < 1:
		return fmt.Errorf("rate limit burst must be at least 1 when RPS is %g", c.RateRPS)
	}
	return nil
}

// LoadRelay reads RelayConfig from the environment.
func LoadRelay() (RelayConfig, error) {
	var cfg RelayConfig
	if err := ParseEnv(&cfg); err != nil {
		return RelayConfig{}, err
	}
	if cfg.Interval <= 0 {
		return RelayConfig{}, fmt.Errorf("parse env: CLAIMLEDGER_RELAY_INTERVAL must be positive")
	}
	return cfg, nil
}
