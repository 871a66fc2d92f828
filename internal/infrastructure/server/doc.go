// Package server assembles the terminal service: configuration, logging,
// metrics, the session manager, the capture engine, the tool registry and
// the gin router serving the REST API and WebSocket streams.
package server
