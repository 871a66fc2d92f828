// Package main is the entry point for the GeminiT terminal service.
//
// The server owns interactive shell sessions running on pseudo-terminals
// and exposes them to two kinds of clients:
//
//	Browser terminal ──WebSocket──▶ session output / keyboard input
//	AI tool executor ──REST──────▶ run one command, get only its output
//
// Configuration:
//   - Environment variables (12-factor, see internal/infrastructure/config)
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Production mode
//	./server -port 8000 -shell /bin/bash
//
//	# Development mode (colored logs, debug level)
//	./server -dev -profiles ./profiles.yaml
//
// Signals:
//   - SIGINT, SIGTERM: graceful shutdown, every session's process tree is
//     terminated before exit
package main
