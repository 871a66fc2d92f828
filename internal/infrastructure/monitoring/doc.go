/*
Package monitoring provides Prometheus metrics for the terminal service.

# Overview

Metrics cover HTTP requests, terminal session lifecycle, PTY output volume,
command captures (outcome, latency, in-flight count), tool executions and
WebSocket feeds. Each Metrics value owns a private registry, so several
servers can coexist in one process (as they do in tests).

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	metrics.SessionStarted()
	metrics.CaptureFinished("marker", time.Since(start))

All recording methods accept a nil receiver.
*/
package monitoring
