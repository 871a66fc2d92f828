package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and
// records nothing, so components can run without monitoring.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Session metrics
	SessionsActive     prometheus.Gauge
	SessionsCreated    prometheus.Counter
	SpawnFailures      prometheus.Counter
	SessionsTerminated *prometheus.CounterVec
	OutputBytes        prometheus.Counter

	// Capture metrics
	CapturesTotal    *prometheus.CounterVec
	CaptureDuration  prometheus.Histogram
	CapturesInFlight prometheus.Gauge

	// Tool metrics
	ToolCalls *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time

	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current metric values for the JSON health endpoint.
type Snapshot struct {
	TotalRequests   int64   `json:"total_requests"`
	TotalErrors     int64   `json:"total_errors"`
	ActiveSessions  int64   `json:"active_sessions"`
	Captures        int64   `json:"captures"`
	CaptureTimeouts int64   `json:"capture_timeouts"`
	WSConnections   int64   `json:"ws_connections"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
}

// NewMetrics creates a new metrics collector backed by its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geminit_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "geminit_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "path"},
		),

		// Session metrics
		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "geminit_sessions_active",
				Help: "Number of live terminal sessions",
			},
		),
		SessionsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "geminit_sessions_created_total",
				Help: "Total number of terminal sessions spawned",
			},
		),
		SpawnFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "geminit_session_spawn_failures_total",
				Help: "Total number of shells that failed to start",
			},
		),
		SessionsTerminated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geminit_sessions_terminated_total",
				Help: "Total number of terminal sessions ended",
			},
			[]string{"reason"},
		),
		OutputBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "geminit_session_output_bytes_total",
				Help: "Total bytes read from session PTYs",
			},
		),

		// Capture metrics
		CapturesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geminit_captures_total",
				Help: "Total number of command captures by outcome",
			},
			[]string{"outcome"},
		),
		CaptureDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "geminit_capture_duration_seconds",
				Help:    "Time from capture request to resolution",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		CapturesInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "geminit_captures_in_flight",
				Help: "Number of captures waiting for their end marker",
			},
		),

		// Tool metrics
		ToolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geminit_tool_calls_total",
				Help: "Total number of service tool executions",
			},
			[]string{"tool", "status"},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "geminit_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geminit_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "geminit_uptime_seconds",
			Help: "Service uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// SessionStarted records a successfully spawned session.
func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.SessionsCreated.Inc()
	m.SessionsActive.Inc()
	m.mu.Lock()
	m.snapshot.ActiveSessions++
	m.mu.Unlock()
}

// SessionEnded records a session leaving the registry.
func (m *Metrics) SessionEnded(reason string) {
	if m == nil {
		return
	}
	m.SessionsTerminated.WithLabelValues(reason).Inc()
	m.SessionsActive.Dec()
	m.mu.Lock()
	m.snapshot.ActiveSessions--
	m.mu.Unlock()
}

// IncSpawnFailures counts a shell that could not be started.
func (m *Metrics) IncSpawnFailures() {
	if m == nil {
		return
	}
	m.SpawnFailures.Inc()
}

// AddOutputBytes counts bytes read from a PTY.
func (m *Metrics) AddOutputBytes(n int) {
	if m == nil {
		return
	}
	m.OutputBytes.Add(float64(n))
}

// CaptureStarted marks a capture as in flight.
func (m *Metrics) CaptureStarted() {
	if m == nil {
		return
	}
	m.CapturesInFlight.Inc()
}

// CaptureFinished records a resolved capture.
func (m *Metrics) CaptureFinished(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.CapturesInFlight.Dec()
	m.CapturesTotal.WithLabelValues(outcome).Inc()
	m.CaptureDuration.Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.Captures++
	if outcome == "timeout" {
		m.snapshot.CaptureTimeouts++
	}
	m.mu.Unlock()
}

// RecordToolCall records a service tool execution
func (m *Metrics) RecordToolCall(tool, status string) {
	if m == nil {
		return
	}
	m.ToolCalls.WithLabelValues(tool, status).Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.WSConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.WSConnections--
	m.mu.Unlock()
}

// GetSnapshot returns the current values tracked for the JSON API.
func (m *Metrics) GetSnapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := m.snapshot
	snap.UptimeSeconds = time.Since(m.startTime).Seconds()
	return snap
}
