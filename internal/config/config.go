package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	Port     int    `envconfig:"APP_PORT" default:"3000"`
	LogLevel string `envconfig:"LOG_LEVEL"` // overrides the environment's default level
	Backend  BackendConfig
	Redis    RedisConfig
	DB       DBConfig
	Limiter  RateLimiterConfig
	JWT      JWTConfig
	Crypto   CryptoConfig
	Cookie   CookieConfig
	Forms    FormsConfig
}

// interview backend configuration
type BackendConfig struct {
	DefaultURL        string        `envconfig:"BACKEND_URL" default:"http://127.0.0.1:8000"`
	AuthPrefix        string        `envconfig:"BACKEND_AUTH_PREFIX" default:"/api"`
	Timeout           time.Duration `envconfig:"BACKEND_TIMEOUT" default:"0s"`
	AnswerDurationSec float64       `envconfig:"ANSWER_DURATION_SEC" default:"60"`
	AudioLanguage     string        `envconfig:"AUDIO_LANGUAGE" default:"ko"`
	UploadMaxBytes    int64         `envconfig:"UPLOAD_MAX_BYTES" default:"26214400"`
}

// session store configuration; an empty address keeps state in memory
type RedisConfig struct {
	Addr           string        `envconfig:"REDIS_ADDR"`
	Password       string        `envconfig:"REDIS_PASSWORD"`
	DB             int           `envconfig:"REDIS_DB" default:"0"`
	ClientStateTTL time.Duration `envconfig:"CLIENT_STATE_TTL" default:"168h"`
	WorkspaceTTL   time.Duration `envconfig:"WORKSPACE_TTL" default:"2h"`
}

// database configuration; an empty DSN keeps preferences in memory
type DBConfig struct {
	DSN             string        `envconfig:"DATABASE_URL"`
	MaxConns        int32         `envconfig:"DB_MAX_CONNS" default:"10"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"1h"`
}

// rate limiting configuration
type RateLimiterConfig struct {
	RPS     float64 `envconfig:"RATE_LIMIT_RPS" default:"10"`
	Burst   int     `envconfig:"RATE_LIMIT_BURST" default:"20"`
	Enabled bool    `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// JWT configuration for the browser client cookie
type JWTConfig struct {
	Secret         string        `envconfig:"JWT_SECRET" required:"true"`
	ClientTokenTTL time.Duration `envconfig:"CLIENT_TOKEN_TTL" default:"720h"` // 30 days
}

// encryption configuration
type CryptoConfig struct {
	Secret string `envconfig:"AES_SECRET_KEY" required:"true"`
}

type CookieConfig struct {
	Secure bool `envconfig:"COOKIE_SECURE" default:"false"`
}

type FormsConfig struct {
	OptionsFile string `envconfig:"FORM_OPTIONS_FILE"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	cfg.Backend.DefaultURL = strings.TrimRight(strings.TrimSpace(cfg.Backend.DefaultURL), "/")
	cfg.Backend.AuthPrefix = strings.TrimRight(strings.TrimSpace(cfg.Backend.AuthPrefix), "/")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
		"test":        true,
	}
	if !validEnvs[c.Env] {
		return fmt.Errorf("invalid environment: %s (must be one of: development, staging, production, test)", c.Env)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be between 1 and 65535)", c.Port)
	}
	if err := ValidateBackendURL(c.Backend.DefaultURL); err != nil {
		return fmt.Errorf("BACKEND_URL: %w", err)
	}
	if c.Backend.AuthPrefix != "" && !strings.HasPrefix(c.Backend.AuthPrefix, "/") {
		return fmt.Errorf("BACKEND_AUTH_PREFIX must be empty or start with /")
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be non-negative")
	}
	if c.Backend.AnswerDurationSec < 0 {
		return fmt.Errorf("ANSWER_DURATION_SEC must be non-negative")
	}
	if c.Backend.AudioLanguage == "" {
		return fmt.Errorf("AUDIO_LANGUAGE must not be empty")
	}
	if c.Backend.UploadMaxBytes < 1 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be at least 1")
	}
	if c.Redis.ClientStateTTL <= 0 || c.Redis.WorkspaceTTL <= 0 {
		return fmt.Errorf("CLIENT_STATE_TTL and WORKSPACE_TTL must be positive")
	}
	if c.DB.MaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be at least 1")
	}
	if c.Limiter.RPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be non-negative")
	}
	if c.Limiter.Enabled && c.Limiter.RPS == 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive while RATE_LIMIT_ENABLED is set")
	}
	if c.Limiter.Burst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.JWT.ClientTokenTTL <= 0 {
		return fmt.Errorf("CLIENT_TOKEN_TTL must be positive")
	}
	secretLen := len(c.Crypto.Secret)
	if secretLen != 16 && secretLen != 24 && secretLen != 32 {
		return fmt.Errorf("AES_SECRET_KEY must be 16, 24, or 32 bytes (got %d)", secretLen)
	}

	return nil
}

// ValidateBackendURL accepts absolute http(s) URLs. It is also used for the
// backend URL a user types on the settings screen.
func ValidateBackendURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url must use http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("url must include a host")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{Env=%s, Port=%d, Backend.DefaultURL=%s, Backend.AuthPrefix=%q, "+
		"Redis.Enabled=%t, DB.Enabled=%t, Limiter.RPS=%.2f, Limiter.Burst=%d, Limiter.Enabled=%t, "+
		"JWT.ClientTokenTTL=%s, Forms.OptionsFile=%q}",
		c.Env, c.Port, c.Backend.DefaultURL, c.Backend.AuthPrefix,
		c.Redis.Addr != "", c.DB.DSN != "", c.Limiter.RPS, c.Limiter.Burst, c.Limiter.Enabled,
		c.JWT.ClientTokenTTL, c.Forms.OptionsFile)
}
