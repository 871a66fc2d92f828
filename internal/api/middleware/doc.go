// Package middleware provides HTTP middleware for the GeminiT backend.
//
// Middleware stack includes:
//   - RequestID: assigns or propagates X-Request-ID
//   - Logger: one zap entry per request, level by status
//   - Recovery: Panic recovery with graceful error responses
//   - BodyLimit: rejects request bodies over a byte limit
//   - CORS: Cross-origin resource sharing with configurable origins
//   - RateLimit: Per-IP token bucket rate limiting with idle cleanup
//   - GlobalRateLimit: a single bucket shared by all clients
//
// Example Usage:
//
//	router.Use(middleware.RequestID(), middleware.Recovery(logger), middleware.Logger(logger))
//	router.Use(middleware.CORS(middleware.CORSConfigForOrigins(cfg.Server.CORSOrigins)))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
