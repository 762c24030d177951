package config

import (
	"fmt"
	"time"
)

// Config holds all configuration for the storerank service.
type Config struct {
	Service    ServiceConfig    `yaml:"service"`
	Storefront StorefrontConfig `yaml:"storefront"`
	Cache      CacheConfig      `yaml:"cache"`
	Breaker    BreakerConfig    `yaml:"breaker"`
	Ranking    RankingConfig    `yaml:"ranking"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Audit      AuditConfig      `yaml:"audit"`
	CORS       CORSConfig       `yaml:"cors"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Port    int    `yaml:"port"    env:"STORERANK_PORT"`
	Debug   bool   `yaml:"debug"   env:"STORERANK_DEBUG"`
}

// StorefrontConfig holds upstream catalog provider configuration.
type StorefrontConfig struct {
	BaseURL    string        `yaml:"base_url"    env:"STOREFRONT_BASE_URL"`
	Timeout    time.Duration `yaml:"timeout"     env:"STOREFRONT_TIMEOUT"`
	MaxRetries int           `yaml:"max_retries" env:"STOREFRONT_MAX_RETRIES"`
	BaseDelay  time.Duration `yaml:"base_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
}

// CacheConfig holds result cache configuration. When Address is empty
// the in-memory backend is used.
type CacheConfig struct {
	Address  string        `yaml:"address"  env:"REDIS_ADDRESS"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db"       env:"REDIS_DB"`
	TTL      time.Duration `yaml:"ttl"      env:"CACHE_TTL"`
}

// BreakerConfig holds circuit breaker thresholds for the upstream
// provider.
type BreakerConfig struct {
	MaxFailures int           `yaml:"max_failures" env:"BREAKER_MAX_FAILURES"`
	ResetWindow time.Duration `yaml:"reset_window" env:"BREAKER_RESET_WINDOW"`
}

// RankingConfig bounds live per-keyword rank checks within one
// analysis.
type RankingConfig struct {
	MaxLiveChecks  int           `yaml:"max_live_checks" env:"RANKING_MAX_LIVE_CHECKS"`
	LiveCheckDelay time.Duration `yaml:"live_check_delay"`
	MaxKeywords    int           `yaml:"max_keywords"`
}

// RateLimitConfig holds the per-tenant soft limiter settings.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" env:"RATE_LIMIT_RPM"`
	Burst             int `yaml:"burst"`
}

// AuditConfig holds the audit sink database settings. When DSN is
// empty the nop recorder is used.
type AuditConfig struct {
	DSN string `yaml:"dsn" env:"AUDIT_DATABASE_DSN"`
}

// CORSConfig holds cross-origin settings for the HTTP API.
type CORSConfig struct {
	Enabled          bool     `yaml:"enabled"         env:"CORS_ENABLED"`
	AllowedOrigins   []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAge           int      `yaml:"max_age"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

// Load loads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := load(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setDefaults applies default values to the config.
func (c *Config) setDefaults() {
	if c.Service.Name == "" {
		c.Service.Name = "storerank"
	}
	if c.Service.Version == "" {
		c.Service.Version = "1.0.0"
	}
	if c.Service.Port == 0 {
		c.Service.Port = 8094
	}

	if c.Storefront.BaseURL == "" {
		c.Storefront.BaseURL = "https://itunes.apple.com"
	}
	if c.Storefront.Timeout == 0 {
		c.Storefront.Timeout = 10 * time.Second
	}
	if c.Storefront.MaxRetries == 0 {
		c.Storefront.MaxRetries = 2
	}
	if c.Storefront.BaseDelay == 0 {
		c.Storefront.BaseDelay = 200 * time.Millisecond
	}
	if c.Storefront.MaxDelay == 0 {
		c.Storefront.MaxDelay = 5 * time.Second
	}

	if c.Cache.TTL == 0 {
		c.Cache.TTL = 15 * time.Minute
	}

	if c.Breaker.MaxFailures == 0 {
		c.Breaker.MaxFailures = 5
	}
	if c.Breaker.ResetWindow == 0 {
		c.Breaker.ResetWindow = 60 * time.Second
	}

	if c.Ranking.MaxLiveChecks == 0 {
		c.Ranking.MaxLiveChecks = 3
	}
	if c.Ranking.LiveCheckDelay == 0 {
		c.Ranking.LiveCheckDelay = 500 * time.Millisecond
	}
	if c.Ranking.MaxKeywords == 0 {
		c.Ranking.MaxKeywords = 25
	}

	if c.RateLimit.RequestsPerMinute == 0 {
		c.RateLimit.RequestsPerMinute = 60
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 10
	}

	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = []string{"Content-Type", "X-Tenant-ID"}
	}
	if c.CORS.MaxAge == 0 {
		c.CORS.MaxAge = 300
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return &ValidationError{Field: "service.port", Message: fmt.Sprintf("invalid port: %d", c.Service.Port)}
	}
	if c.Storefront.BaseURL == "" {
		return &ValidationError{Field: "storefront.base_url", Message: "is required"}
	}
	if c.Storefront.Timeout <= 0 {
		return &ValidationError{Field: "storefront.timeout", Message: "must be positive"}
	}
	if c.Storefront.MaxRetries < 0 {
		return &ValidationError{Field: "storefront.max_retries", Message: "must not be negative"}
	}
	if c.Breaker.MaxFailures < 1 {
		return &ValidationError{Field: "breaker.max_failures", Message: "must be at least 1"}
	}
	if c.Ranking.MaxLiveChecks < 0 {
		return &ValidationError{Field: "ranking.max_live_checks", Message: "must not be negative"}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Field: "logging.level", Message: "must be one of: debug, info, warn, error"}
	}
	return nil
}
