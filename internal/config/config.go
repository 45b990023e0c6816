// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables; nested groups
// prefix their variables with the group name (Server.Port is SERVER_PORT).
// envconfig falls back to the unprefixed name when the prefixed one is
// unset, so a bare PORT is honoured too.
type Config struct {
	Server   ServerConfig    `envconfig:"SERVER"`
	Upload   UploadConfig    `envconfig:"UPLOAD"`
	Session  SessionConfig   `envconfig:"SESSION"`
	Chart    ChartConfig     `envconfig:"CHART"`
	Export   ExportConfig    `envconfig:"EXPORT"`
	Rate     RateLimitConfig `envconfig:"RATE_LIMIT"`
	Security SecurityConfig  `envconfig:"SECURITY"`
	Logging  LoggingConfig   `envconfig:"LOG"`
	Metrics  MetricsConfig   `envconfig:"METRICS"`

	// PreviewRows is how many rows each preview shows (default: 5)
	PreviewRows int `envconfig:"PREVIEW_ROWS" default:"5"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `envconfig:"READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"60s"`
}

// UploadConfig holds upload parsing settings.
type UploadConfig struct {
	// MaxFileSize is the maximum size of one uploaded file in bytes (default: 200MB)
	MaxFileSize int64 `envconfig:"MAX_FILE_SIZE" default:"209715200"`

	// MaxFiles is the maximum number of files in one upload request (default: 20)
	MaxFiles int `envconfig:"MAX_FILES" default:"20"`

	// MaxConcurrent is the maximum number of uploads parsed at once (default: 4)
	MaxConcurrent int `envconfig:"MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for a parse slot (default: 30s)
	MaxWaitTime time.Duration `envconfig:"MAX_WAIT_TIME" default:"30s"`
}

// MaxRequestSize bounds a whole multipart upload request.
func (c UploadConfig) MaxRequestSize() int64 {
	return c.MaxFileSize*int64(c.MaxFiles) + 1<<20
}

// SessionConfig holds in-memory session settings.
type SessionConfig struct {
	// TTL is how long an idle session is kept (default: 30m)
	TTL time.Duration `envconfig:"TTL" default:"30m"`

	// SweepInterval is how often expired sessions are dropped (default: 1m)
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`

	// CookieName names the session cookie (default: tabclean_session)
	CookieName string `envconfig:"COOKIE_NAME" default:"tabclean_session"`

	// CookieSecure marks the cookie Secure; enable behind TLS (default: false)
	CookieSecure bool `envconfig:"COOKIE_SECURE" default:"false"`
}

// ChartConfig holds bar chart rendering settings.
type ChartConfig struct {
	// MaxBars caps the rows plotted per chart (default: 200)
	MaxBars int `envconfig:"MAX_BARS" default:"200"`

	// Height is the chart image height in pixels (default: 400)
	Height int `envconfig:"HEIGHT" default:"400"`
}

// ExportConfig holds download serialization settings.
type ExportConfig struct {
	// CSVBOM prefixes CSV downloads with a UTF-8 BOM (default: false)
	CSVBOM bool `envconfig:"CSV_BOM" default:"false"`

	// SheetName names the worksheet in Excel downloads (default: Sheet1)
	SheetName string `envconfig:"SHEET_NAME" default:"Sheet1"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `envconfig:"ENABLED" default:"true"`

	// RequestsPerSecond is the sustained rate per IP (default: 10)
	RequestsPerSecond float64 `envconfig:"RPS" default:"10"`

	// Burst is the bucket size per IP (default: 30)
	Burst int `envconfig:"BURST" default:"30"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `envconfig:"ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `envconfig:"LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `envconfig:"FORMAT" default:"text"`
}

// MetricsConfig holds prometheus endpoint settings.
type MetricsConfig struct {
	// Enabled exposes the metrics endpoint (default: true)
	Enabled bool `envconfig:"ENABLED" default:"true"`

	// Path is where metrics are served (default: /metrics)
	Path string `envconfig:"ENDPOINT" default:"/metrics"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + strconv.Itoa(c.Port)
	}
	return c.Host + ":" + strconv.Itoa(c.Port)
}
