// Package http provides the REST API for terminal sessions and agent tools.
//
// Endpoints:
//   - Health: / and /health
//   - Sessions: GET/POST /sessions, GET/DELETE /sessions/:id
//   - Session I/O: /sessions/:id/input, /resize, /capture, /history
//   - Profiles: /profiles
//   - Services: /services, /services/discover, /services/execute
//   - Metrics: /metrics/json (Prometheus text is served by the server)
//
// Terminal errors map onto status codes: unknown sessions are 404, id
// clashes 409, unknown profiles 400 and shells that fail to start 422.
// A capture always answers 200; its failures travel in the body.
//
// Example Usage:
//
//	handlers := http.NewHandlers(manager, capturer, registry, metrics, logger)
//	handlers.Register(router)
package http
