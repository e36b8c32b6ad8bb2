// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Upload   UploadConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Auth     AuthConfig
	Seed     SeedConfig
	Inbox    InboxConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// StorageConfig selects where the audit log is kept.
type StorageConfig struct {
	// Backend is one of memory, file, sqlite, postgres (default: file)
	Backend string `env:"STORAGE_BACKEND" default:"file"`

	// Path is the directory (file) or database file (sqlite) (default: data)
	Path string `env:"STORAGE_PATH" default:"data"`

	// DatabaseURL is the PostgreSQL connection string, used by the postgres backend.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	DatabaseURL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of pooled postgres connections (default: 4)
	MaxConns int32 `env:"DB_MAX_CONNS" default:"4"`

	// LogKey is the slot the audit log is saved under
	LogKey string `env:"AUDIT_LOG_KEY" default:"kervDashboardAuditLog"`
}

// UploadConfig holds CSV upload processing settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 10MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"10485760"`

	// MaxConcurrent is the maximum number of parallel ingestions (default: 1)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"1"`

	// MaxWaitTime is how long to wait for an ingestion slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// Timeout is the maximum duration for a single upload request (default: 2m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"2m"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for upload endpoints (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`

	// LoginLimit is login attempts per minute per IP (default: 10)
	LoginLimit int `env:"RATE_LIMIT_LOGIN" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// AuthConfig holds the admin login. The login only gates the edit screens
// behind a client-held cookie; it is not an access control mechanism.
type AuthConfig struct {
	Username string `env:"ADMIN_USERNAME" default:"kerv"`
	Password string `env:"ADMIN_PASSWORD" default:"kerv"`

	// CookieSecure marks the session cookie Secure (default: false)
	CookieSecure bool `env:"AUTH_COOKIE_SECURE" default:"false"`
}

// SeedConfig names the files loaded into the datasets at startup.
// Empty paths use the bundled sample data.
type SeedConfig struct {
	ProductPath   string `env:"SEED_PRODUCT_PATH"`
	ECommercePath string `env:"SEED_ECOMMERCE_PATH"`

	// Disabled starts with empty datasets (default: false)
	Disabled bool `env:"SEED_DISABLED" default:"false"`
}

// InboxConfig holds directory drop ingestion settings.
type InboxConfig struct {
	// Enabled starts the watcher (default: false)
	Enabled bool `env:"INBOX_ENABLED" default:"false"`

	// Dir holds one subdirectory per dataset (default: inbox)
	Dir string `env:"INBOX_DIR" default:"inbox"`

	// Settle is how long a file must stay unchanged before it is read (default: 500ms)
	Settle time.Duration `env:"INBOX_SETTLE" default:"500ms"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
