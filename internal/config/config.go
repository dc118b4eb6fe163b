package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	HMACSecret string        `yaml:"hmac_secret"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
}

type RateLimitConfig struct {
	ValidateLimit  int           `yaml:"validate_limit"` // attempts per window, per caller
	ValidateWindow time.Duration `yaml:"validate_window"`
}

type WorkerConfig struct {
	ExpiryInterval time.Duration `yaml:"expiry_interval"`
}

type I18nConfig struct {
	Lang string `yaml:"lang"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Worker    WorkerConfig    `yaml:"worker"`
	I18n      I18nConfig      `yaml:"i18n"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 15 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 8
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 30 * time.Minute
	}
	if cfg.RateLimit.ValidateLimit <= 0 {
		cfg.RateLimit.ValidateLimit = 10
	}
	if cfg.RateLimit.ValidateWindow <= 0 {
		cfg.RateLimit.ValidateWindow = time.Minute
	}
	if cfg.Worker.ExpiryInterval <= 0 {
		cfg.Worker.ExpiryInterval = time.Hour
	}
	if cfg.I18n.Lang == "" {
		cfg.I18n.Lang = "ar"
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Auth.HMACSecret == "" {
		return nil, errors.New("auth.hmac_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
