package terminal

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/josuelopezv/GeminiT-sub000/internal/infrastructure/monitoring"
	"github.com/josuelopezv/GeminiT-sub000/internal/shared/id"
)

// DefaultCaptureTimeout applies when a request carries no timeout.
const DefaultCaptureTimeout = 30 * time.Second

// SessionStream is the part of the session registry a Capturer needs.
type SessionStream interface {
	Subscribe(sessionID string, onData func([]byte), onClose func()) (*Subscription, error)
	Write(sessionID string, data []byte) error
	Shell(sessionID string) (string, error)
}

// Capturer runs commands inside interactive sessions and returns just
// their output, framed by a per-request end marker. Captures against the
// same session run one at a time in arrival order.
type Capturer struct {
	stream         SessionStream
	defaultTimeout time.Duration
	logger         *zap.Logger
	metrics        *monitoring.Metrics

	mu    sync.Mutex
	slots map[string]*captureSlot
}

type captureSlot struct {
	ch   chan struct{}
	refs int
}

// NewCapturer creates a capture engine over stream.
func NewCapturer(stream SessionStream, defaultTimeout time.Duration, logger *zap.Logger) *Capturer {
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultCaptureTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Capturer{
		stream:         stream,
		defaultTimeout: defaultTimeout,
		logger:         logger.Named("capture"),
		slots:          make(map[string]*captureSlot),
	}
}

// WithMetrics attaches a metrics collector.
func (c *Capturer) WithMetrics(metrics *monitoring.Metrics) *Capturer {
	c.metrics = metrics
	return c
}

// acquire waits for exclusive use of a session's stream.
func (c *Capturer) acquire(ctx context.Context, sessionID string) (func(), error) {
	c.mu.Lock()
	slot, ok := c.slots[sessionID]
	if !ok {
		slot = &captureSlot{ch: make(chan struct{}, 1)}
		c.slots[sessionID] = slot
	}
	slot.refs++
	c.mu.Unlock()

	drop := func() {
		c.mu.Lock()
		slot.refs--
		if slot.refs == 0 {
			delete(c.slots, sessionID)
		}
		c.mu.Unlock()
	}

	select {
	case slot.ch <- struct{}{}:
		return func() {
			<-slot.ch
			drop()
		}, nil
	case <-ctx.Done():
		drop()
		return nil, ctx.Err()
	}
}

// Capture runs req.Command in req.SessionID and blocks until the end marker
// is seen, the timeout elapses, the session exits or ctx is cancelled.
// Failures are reported in the result, never as a Go error.
func (c *Capturer) Capture(ctx context.Context, req CaptureRequest) CaptureResult {
	if req.ID == "" {
		req.ID = id.NewCaptureID().String()
	}
	if req.Timeout <= 0 {
		req.Timeout = c.defaultTimeout
	}

	release, err := c.acquire(ctx, req.SessionID)
	if err != nil {
		return CaptureResult{Error: CaptureErrCancelled}
	}
	defer release()

	start := time.Now()
	c.metrics.CaptureStarted()
	result, outcome := c.run(ctx, req)
	c.metrics.CaptureFinished(outcome, time.Since(start))

	c.logger.Debug("Capture resolved",
		zap.String("capture_id", req.ID),
		zap.String("session_id", req.SessionID),
		zap.String("outcome", outcome),
		zap.Int("output_len", len(result.Output)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result
}

func (c *Capturer) run(ctx context.Context, req CaptureRequest) (CaptureResult, string) {
	shell, err := c.stream.Shell(req.SessionID)
	if err != nil {
		return CaptureResult{Error: CaptureErrAttach}, outcomeAttachFailed
	}

	family := detectShellFamily(shell)
	payload, sent := composeCapture(family, req.ID, req.Command)

	op := &captureOp{
		marker: []byte(EndMarker(req.ID)),
		sent:   sent,
		done:   make(chan resolution, 1),
	}

	sub, err := c.stream.Subscribe(req.SessionID, op.onData, op.onClose)
	if err != nil {
		return CaptureResult{Error: CaptureErrAttach}, outcomeAttachFailed
	}
	op.attach(sub, time.AfterFunc(req.Timeout, op.onTimeout))

	if err := c.stream.Write(req.SessionID, []byte(payload)); err != nil {
		op.resolve(outcomeWriteFailed, "write failed: "+err.Error())
	}

	select {
	case res := <-op.done:
		return res.result, res.outcome
	case <-ctx.Done():
		op.resolve(outcomeCancelled, CaptureErrCancelled)
		res := <-op.done
		return res.result, res.outcome
	}
}

const (
	outcomeMarker       = "marker"
	outcomeTimeout      = "timeout"
	outcomeExited       = "exited"
	outcomeCancelled    = "cancelled"
	outcomeWriteFailed  = "write_failed"
	outcomeAttachFailed = "attach_failed"
)

type resolution struct {
	result  CaptureResult
	outcome string
}

// captureOp is the state of one in-flight capture. The mutex makes the
// pending to resolved transition happen exactly once across the chunk
// callback, the timer and cancellation.
type captureOp struct {
	marker []byte
	sent   []string

	mu       sync.Mutex
	buf      bytes.Buffer
	scanned  int
	resolved bool
	sub      *Subscription
	timer    *time.Timer

	done chan resolution
}

// attach records the subscription and timer, releasing them at once if the
// capture already resolved while they were being set up.
func (op *captureOp) attach(sub *Subscription, timer *time.Timer) {
	op.mu.Lock()
	op.sub = sub
	op.timer = timer
	resolved := op.resolved
	op.mu.Unlock()

	if resolved {
		sub.Dispose()
		timer.Stop()
	}
}

func (op *captureOp) onData(chunk []byte) {
	op.mu.Lock()
	if op.resolved {
		op.mu.Unlock()
		return
	}

	op.buf.Write(chunk)

	// Resume the scan just before the previous end so a marker split
	// across chunks is still found.
	from := op.scanned - len(op.marker) + 1
	if from < 0 {
		from = 0
	}
	data := op.buf.Bytes()
	idx := bytes.Index(data[from:], op.marker)
	if idx < 0 {
		op.scanned = len(data)
		op.mu.Unlock()
		return
	}

	op.resolved = true
	before := string(data[:from+idx])
	op.mu.Unlock()

	op.finish(resolution{
		result:  CaptureResult{Output: FilterEcho(Normalize(before), op.sent)},
		outcome: outcomeMarker,
	})
}

func (op *captureOp) onTimeout() {
	op.resolve(outcomeTimeout, CaptureErrTimeout)
}

func (op *captureOp) onClose() {
	op.resolve(outcomeExited, CaptureErrExited)
}

// resolve ends the capture with whatever has accumulated so far.
func (op *captureOp) resolve(outcome, errMsg string) {
	op.mu.Lock()
	if op.resolved {
		op.mu.Unlock()
		return
	}
	op.resolved = true
	raw := op.buf.String()
	op.mu.Unlock()

	text := Normalize(raw)
	if idx := strings.Index(text, string(op.marker)); idx >= 0 {
		text = text[:idx]
	}

	op.finish(resolution{
		result:  CaptureResult{Output: FilterEcho(text, op.sent), Error: errMsg},
		outcome: outcome,
	})
}

func (op *captureOp) finish(res resolution) {
	op.mu.Lock()
	sub, timer := op.sub, op.timer
	op.mu.Unlock()

	if sub != nil {
		sub.Dispose()
	}
	if timer != nil {
		timer.Stop()
	}
	op.done <- res
}
