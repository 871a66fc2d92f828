package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Terminal  TerminalConfig
	Capture   CaptureConfig
	Stream    StreamConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        string   `envconfig:"PORT" default:"8000"`
	Host        string   `envconfig:"HOST" default:"0.0.0.0"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// TerminalConfig holds session defaults.
type TerminalConfig struct {
	// Shell is the binary started when a request names neither a shell nor
	// a profile. Empty means $SHELL, then the platform default.
	Shell        string `envconfig:"TERMINAL_SHELL"`
	Cols         int    `envconfig:"TERMINAL_COLS" default:"80"`
	Rows         int    `envconfig:"TERMINAL_ROWS" default:"24"`
	HistoryBytes int    `envconfig:"TERMINAL_HISTORY_BYTES" default:"1048576"`
	ProfilesPath string `envconfig:"TERMINAL_PROFILES"`
}

// CaptureConfig holds command capture settings.
type CaptureConfig struct {
	Timeout time.Duration `envconfig:"CAPTURE_TIMEOUT" default:"30s"`
}

// StreamConfig holds WebSocket stream settings.
type StreamConfig struct {
	// SendBuffer is the number of frames queued per client before it is
	// considered too slow and disconnected.
	SendBuffer int `envconfig:"STREAM_SEND_BUFFER" default:"256"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the terminal layer cannot work with.
func (c *Config) Validate() error {
	if c.Terminal.Cols <= 0 || c.Terminal.Rows <= 0 {
		return fmt.Errorf("invalid terminal size %dx%d", c.Terminal.Cols, c.Terminal.Rows)
	}
	if c.Terminal.HistoryBytes <= 0 {
		return fmt.Errorf("TERMINAL_HISTORY_BYTES must be positive, got %d", c.Terminal.HistoryBytes)
	}
	if c.Capture.Timeout <= 0 {
		return fmt.Errorf("CAPTURE_TIMEOUT must be positive, got %s", c.Capture.Timeout)
	}
	if c.Stream.SendBuffer <= 0 {
		return fmt.Errorf("STREAM_SEND_BUFFER must be positive, got %d", c.Stream.SendBuffer)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8000",
			Host:        "0.0.0.0",
			CORSOrigins: []string{"*"},
		},
		Terminal: TerminalConfig{
			Cols:         80,
			Rows:         24,
			HistoryBytes: 1024 * 1024,
		},
		Capture: CaptureConfig{
			Timeout: 30 * time.Second,
		},
		Stream: StreamConfig{
			SendBuffer: 256,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
