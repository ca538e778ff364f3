package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/masterybot/internal/apperr"
	"github.com/joho/godotenv"
)

// Config is the runtime configuration of the service.
type Config struct {
	// Database driver: "sqlite" or "postgres"
	DBType      string
	SQLitePath  string
	DatabaseURL string

	HTTPAddr string

	// Remote personalization service; empty URL disables the remote path
	PersonalizationURL     string
	PersonalizationTimeout time.Duration

	// Tuned BKT parameter cache; empty RedisAddr keeps it in memory
	RedisAddr     string
	ParamCacheTTL time.Duration

	TelegramBotToken      string
	NotificationStartHour int
	NotificationEndHour   int

	// Bounded retries on version conflicts
	WriteRetries int

	LogMode     string
	LogHashSalt string
}

// DefaultConfig returns the configuration used when no variables are set.
func DefaultConfig() *Config {
	return &Config{
		DBType:                 "sqlite",
		SQLitePath:             "data/mastery.db",
		HTTPAddr:               ":8080",
		PersonalizationTimeout: 3 * time.Second,
		ParamCacheTTL:          24 * time.Hour,
		NotificationStartHour:  8,
		NotificationEndHour:    22,
		WriteRetries:           3,
		LogMode:                "dev",
	}
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, apperr.Validationf("load env file: %v", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, starting from DefaultConfig.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	cfg := DefaultConfig()
	p := parser{lookup: lookup}

	cfg.DBType = strings.ToLower(p.str("DB_TYPE", cfg.DBType))
	cfg.SQLitePath = p.str("SQLITE_PATH", cfg.SQLitePath)
	cfg.DatabaseURL = p.str("DATABASE_URL", cfg.DatabaseURL)
	cfg.HTTPAddr = p.str("HTTP_ADDR", cfg.HTTPAddr)
	cfg.PersonalizationURL = strings.TrimRight(p.str("PERSONALIZATION_URL", ""), "/")
	cfg.PersonalizationTimeout = p.duration("PERSONALIZATION_TIMEOUT", cfg.PersonalizationTimeout)
	cfg.RedisAddr = p.str("REDIS_ADDR", "")
	cfg.ParamCacheTTL = p.duration("PARAM_CACHE_TTL", cfg.ParamCacheTTL)
	cfg.TelegramBotToken = p.str("TELEGRAM_BOT_TOKEN", "")
	cfg.NotificationStartHour = p.hour("NOTIFICATION_START_HOUR", cfg.NotificationStartHour)
	cfg.NotificationEndHour = p.hour("NOTIFICATION_END_HOUR", cfg.NotificationEndHour)
	cfg.WriteRetries = p.int("WRITE_RETRIES", cfg.WriteRetries)
	cfg.LogMode = p.str("LOG_MODE", cfg.LogMode)
	cfg.LogHashSalt = p.str("LOG_HASH_SALT", "")

	if p.err != nil {
		return nil, p.err
	}
	switch cfg.DBType {
	case "sqlite":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, apperr.Validationf("DATABASE_URL is required when DB_TYPE=postgres")
		}
	default:
		return nil, apperr.Validationf("DB_TYPE %q: want sqlite or postgres", cfg.DBType)
	}
	if cfg.WriteRetries < 1 {
		return nil, apperr.Validationf("WRITE_RETRIES must be at least 1, got %d", cfg.WriteRetries)
	}
	if cfg.PersonalizationTimeout <= 0 {
		return nil, apperr.Validationf("PERSONALIZATION_TIMEOUT must be positive")
	}
	return cfg, nil
}

// parser records the first invalid variable and keeps defaults for the rest.
type parser struct {
	lookup func(string) (string, bool)
	err    error
}

func (p *parser) raw(name string) (string, bool) {
	v, ok := p.lookup(name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (p *parser) str(name, def string) string {
	if v, ok := p.raw(name); ok {
		return v
	}
	return def
}

func (p *parser) int(name string, def int) int {
	v, ok := p.raw(name)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		p.fail(name, v)
		return def
	}
	return i
}

func (p *parser) hour(name string, def int) int {
	h := p.int(name, def)
	if h < 0 || h > 23 {
		p.fail(name, strconv.Itoa(h))
		return def
	}
	return h
}

func (p *parser) duration(name string, def time.Duration) time.Duration {
	v, ok := p.raw(name)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(name, v)
		return def
	}
	return d
}

func (p *parser) fail(name, value string) {
	if p.err == nil {
		p.err = apperr.Validationf("invalid %s=%q", name, value)
	}
}
