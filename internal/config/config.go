// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables (and an optional YAML file)
// with sensible defaults and validates all settings on startup to fail fast on
// misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Database DatabaseConfig  `yaml:"database"`
	Import   ImportConfig    `yaml:"import"`
	Rate     RateLimitConfig `yaml:"rate"`
	CORS     CORSConfig      `yaml:"cors"`
	Study    StudyConfig     `yaml:"study"`
	Logging  LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host" env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port int    `yaml:"port" env:"SERVER_PORT" env-default:"8080"`

	// ReadTimeout is the maximum duration for reading the request body
	ReadTimeout time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`

	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"60s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including draining imports
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"30s"`

	// RequestTimeout is the middleware timeout for requests
	RequestTimeout time.Duration `yaml:"request_timeout" env:"SERVER_REQUEST_TIMEOUT" env-default:"60s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Driver selects the store: postgres or sqlite
	Driver string `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`

	// URL is the PostgreSQL connection string, required for the postgres driver.
	// Both DATABASE_URL and DB_URL are accepted.
	URL string `yaml:"url" env:"DATABASE_URL,DB_URL"`

	MaxConns        int32         `yaml:"max_conns" env:"DB_MAX_CONNS" env-default:"20"`
	MinConns        int32         `yaml:"min_conns" env:"DB_MIN_CONNS" env-default:"2"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env:"DB_MAX_CONN_LIFETIME" env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DB_MAX_CONN_IDLE_TIME" env-default:"30m"`

	// SQLitePath is the database file for the sqlite driver
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"flashcards.db"`

	// AutoMigrate applies schema migrations on startup
	AutoMigrate bool `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
}

// ImportConfig holds CSV import settings.
type ImportConfig struct {
	// MaxBytes is the largest accepted request body (default: 10MB)
	MaxBytes int64 `yaml:"max_bytes" env:"IMPORT_MAX_BYTES" env-default:"10485760"`

	// MaxConcurrent is the maximum number of parallel imports
	MaxConcurrent int `yaml:"max_concurrent" env:"IMPORT_MAX_CONCURRENT" env-default:"4"`

	// MaxWait is how long to wait for an import slot
	MaxWait time.Duration `yaml:"max_wait" env:"IMPORT_MAX_WAIT" env-default:"10s"`

	// Timeout is the maximum duration of a single import. It runs inside the
	// request, so it may not exceed SERVER_REQUEST_TIMEOUT or SERVER_WRITE_TIMEOUT.
	Timeout time.Duration `yaml:"timeout" env:"IMPORT_TIMEOUT" env-default:"45s"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" env:"RATE_LIMIT_ENABLED" env-default:"true"`
	RequestsPerMinute int  `yaml:"requests_per_minute" env:"RATE_LIMIT_REQUESTS_PER_MINUTE" env-default:"120"`
}

// CORSConfig holds CORS settings for the study clients.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*" env-separator:","`
}

// StudyConfig holds settings of the study model.
type StudyConfig struct {
	// DefaultUserID owns responses recorded without a user
	DefaultUserID string `yaml:"default_user_id" env:"DEFAULT_USER_ID" env-default:"global"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`

	// Format is the log format: text or json
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
