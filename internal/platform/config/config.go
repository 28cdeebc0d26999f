// Package config loads process configuration from GUAHH_* environment
// variables so main stays lean.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	dErrors "guahh-connect/pkg/domain-errors"
)

// Backend names a session store implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendFile     Backend = "file"
	BackendRedis    Backend = "redis"
	BackendPostgres Backend = "postgres"
)

// RedisConfig captures Redis connection settings.
type RedisConfig struct {
	URL          string        `env:"GUAHH_REDIS_URL"`
	PoolSize     int           `env:"GUAHH_REDIS_POOL_SIZE"     envDefault:"10"`
	MinIdleConns int           `env:"GUAHH_REDIS_MIN_IDLE"      envDefault:"2"`
	DialTimeout  time.Duration `env:"GUAHH_REDIS_DIAL_TIMEOUT"  envDefault:"5s"`
	ReadTimeout  time.Duration `env:"GUAHH_REDIS_READ_TIMEOUT"  envDefault:"3s"`
	WriteTimeout time.Duration `env:"GUAHH_REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// Config captures everything the host process needs to run the session
// manager and its relay.
type Config struct {
	Addr        string `env:"GUAHH_ADDR"          envDefault:":8573"`
	AuthPageURL string `env:"GUAHH_AUTH_PAGE_URL" envDefault:"https://auth.guahh.com/login"`
	AppTitle    string `env:"GUAHH_APP_TITLE"     envDefault:"Guahh Demo"`
	AppOrigin   string `env:"GUAHH_APP_ORIGIN"    envDefault:"http://localhost:8573"`

	SessionBackend Backend `env:"GUAHH_SESSION_BACKEND" envDefault:"memory"`
	SessionFile    string  `env:"GUAHH_SESSION_FILE"    envDefault:".guahh/session.json"`
	PostgresDSN    string  `env:"GUAHH_POSTGRES_DSN"`
	Redis          RedisConfig

	TicketSigningKey string        `env:"GUAHH_TICKET_SIGNING_KEY"`
	TicketTTL        time.Duration `env:"GUAHH_TICKET_TTL" envDefault:"5m"`

	BrowserCommand string `env:"GUAHH_BROWSER_COMMAND" envDefault:"chromium"`
	ScreenWidth    int    `env:"GUAHH_SCREEN_WIDTH"    envDefault:"1920"`
	ScreenHeight   int    `env:"GUAHH_SCREEN_HEIGHT"   envDefault:"1080"`

	LogLevel  string `env:"GUAHH_LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"GUAHH_LOG_FORMAT" envDefault:"text"`
}

// Load parses and validates the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.SessionBackend {
	case BackendMemory, BackendFile, BackendRedis, BackendPostgres:
	default:
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("unknown session backend %q", c.SessionBackend))
	}
	if c.SessionBackend == BackendRedis && c.Redis.URL == "" {
		return dErrors.New(dErrors.CodeValidation, "GUAHH_REDIS_URL is required for the redis backend")
	}
	if c.SessionBackend == BackendPostgres && c.PostgresDSN == "" {
		return dErrors.New(dErrors.CodeValidation, "GUAHH_POSTGRES_DSN is required for the postgres backend")
	}
	return nil
}
