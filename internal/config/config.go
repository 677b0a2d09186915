package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	Token         string     `env:"TOKEN"`
	AllowedUsers  []int64    `env:"ALLOWED_USERS"`
	DBPath        string     `env:"DB_PATH"         envDefault:"db.sqlite"`
	Store         string     `env:"STORE"           envDefault:"sqlite"`
	RedisURL      string     `env:"REDIS_URL"`
	Extractor     string     `env:"EXTRACTOR"       envDefault:"visible"`
	CohereBaseURL string     `env:"COHERE_BASE_URL"`
	OpenAIBaseURL string     `env:"OPENAI_BASE_URL"`
	MetricsAddr   string     `env:"METRICS_ADDR"`
	LogLevel      slog.Level `env:"LOG_LEVEL"       envDefault:"INFO"`
}

func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	switch c.Store {
	case StoreSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for the sqlite store"))
		}
	case StoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE %q", c.Store))
	}

	switch c.Extractor {
	case "visible", "readability":
	default:
		errs = append(errs, fmt.Errorf("unknown EXTRACTOR %q", c.Extractor))
	}

	return errors.Join(errs...)
}

// ValidateBot checks the settings only the Telegram bot needs.
func (c Config) ValidateBot() error {
	if c.Token == "" {
		return errors.New("TOKEN is required to run the bot")
	}

	return nil
}
