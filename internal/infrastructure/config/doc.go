// Package config provides 12-factor configuration management for the GeminiT backend.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, CORS origins)
//   - Terminal: default shell, PTY size, history size, profiles file
//   - Capture: command capture timeout
//   - Stream: per-client WebSocket send buffer
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, CORS_ORIGINS
//   - TERMINAL_SHELL, TERMINAL_COLS, TERMINAL_ROWS, TERMINAL_HISTORY_BYTES, TERMINAL_PROFILES
//   - CAPTURE_TIMEOUT, STREAM_SEND_BUFFER
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
