package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	Env string `envconfig:"ENV" default:"development"`

	// Backend API the client talks to
	API APIConfig

	// Session lifecycle tuning
	Session SessionConfig

	// Where tokens are persisted
	Store StoreConfig

	// Dev backend configuration
	Server ServerConfig
	JWT    JWTConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig
}

// APIConfig holds the REST backend location
type APIConfig struct {
	BaseURL    string        `envconfig:"API_BASE_URL" default:"http://localhost:8080"`
	Timeout    time.Duration `envconfig:"API_TIMEOUT" default:"15s"`
	MaxRetries int           `envconfig:"API_MAX_RETRIES" default:"3"`
}

// SessionConfig holds refresh and expiry settings
type SessionConfig struct {
	RefreshInterval  time.Duration `envconfig:"SESSION_REFRESH_INTERVAL" default:"5m"`
	RefreshThreshold time.Duration `envconfig:"SESSION_REFRESH_THRESHOLD" default:"10m"`
	ExpiryBuffer     time.Duration `envconfig:"SESSION_EXPIRY_BUFFER" default:"30s"`
}

// StoreConfig selects the token store backend
type StoreConfig struct {
	Backend     string `envconfig:"STORE_BACKEND" default:"file"` // memory, file, redis
	FilePath    string `envconfig:"STORE_FILE_PATH" default:""`
	RedisURL    string `envconfig:"STORE_REDIS_URL" default:"redis://localhost:6379/0"`
	RedisPrefix string `envconfig:"STORE_REDIS_PREFIX" default:"workconnect:session"`
}

// ServerConfig holds dev backend HTTP configuration
type ServerConfig struct {
	Port           string `envconfig:"PORT" default:"8080"`
	RedisURL       string `envconfig:"REDIS_URL" default:""`
	AllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:4200"`

	// Seeded on startup when both are set
	AdminEmail    string `envconfig:"ADMIN_EMAIL" default:""`
	AdminPassword string `envconfig:"ADMIN_PASSWORD" default:""`
}

// JWTConfig holds JWT token configuration for the dev backend
type JWTConfig struct {
	SecretKey        string        `envconfig:"JWT_SECRET_KEY" default:"dev-secret-key-minimum-32-characters"`
	RefreshSecretKey string        `envconfig:"JWT_REFRESH_SECRET_KEY" default:"dev-refresh-secret-key-minimum-32-chars"`
	AccessTokenTTL   time.Duration `envconfig:"JWT_ACCESS_TOKEN_TTL" default:"15m"`
	RefreshTokenTTL  time.Duration `envconfig:"JWT_REFRESH_TOKEN_TTL" default:"168h"`
	RotateRefresh    bool          `envconfig:"JWT_ROTATE_REFRESH" default:"false"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Window          time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"10m"`
	MaxAttempts     int           `envconfig:"RATE_LIMIT_MAX_ATTEMPTS" default:"5"`
	LockoutDuration time.Duration `envconfig:"RATE_LIMIT_LOCKOUT_DURATION" default:"15m"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings that would make the refresh loop misbehave
func (c *Config) Validate() error {
	if c.Session.RefreshInterval <= 0 {
		return fmt.Errorf("SESSION_REFRESH_INTERVAL must be positive, got %v", c.Session.RefreshInterval)
	}
	if c.Session.ExpiryBuffer < 0 {
		return fmt.Errorf("SESSION_EXPIRY_BUFFER must not be negative, got %v", c.Session.ExpiryBuffer)
	}
	switch c.Store.Backend {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}
	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
