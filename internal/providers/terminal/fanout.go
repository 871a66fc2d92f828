package terminal

import (
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// ErrStreamClosed is returned when subscribing to a stream that has ended.
var ErrStreamClosed = errors.New("output stream closed")

// Fanout broadcasts a session's output chunks to an ordered set of
// subscribers. Publish is called from a single reader goroutine, so each
// subscriber sees chunks in the order the PTY produced them. Chunks are
// shared between subscribers and must not be modified.
type Fanout struct {
	mu     sync.Mutex
	subs   []*Subscription
	closed bool
	logger *zap.Logger
}

// Subscription is one consumer's interest in a Fanout.
type Subscription struct {
	fanout  *Fanout
	onData  func([]byte)
	onClose func()
	active  atomic.Bool
	once    sync.Once
}

// NewFanout creates an empty fan-out.
func NewFanout(logger *zap.Logger) *Fanout {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fanout{logger: logger}
}

// Subscribe registers onData for every future chunk. onClose, when not
// nil, runs once if the stream ends while the subscription is still live.
func (f *Fanout) Subscribe(onData func([]byte), onClose func()) (*Subscription, error) {
	if onData == nil {
		return nil, errors.New("subscriber callback is required")
	}

	sub := &Subscription{fanout: f, onData: onData, onClose: onClose}
	sub.active.Store(true)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrStreamClosed
	}
	f.subs = append(f.subs, sub)
	return sub, nil
}

// Publish delivers chunk to every live subscriber in registration order.
// A subscriber disposed during delivery is skipped from then on.
func (f *Fanout) Publish(chunk []byte) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	subs := make([]*Subscription, len(f.subs))
	copy(subs, f.subs)
	f.mu.Unlock()

	for _, sub := range subs {
		if !sub.active.Load() {
			continue
		}
		f.deliver(sub, chunk)
	}
}

func (f *Fanout) deliver(sub *Subscription, chunk []byte) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("Output subscriber panicked", zap.Any("panic", r))
		}
	}()
	sub.onData(chunk)
}

// Len returns the number of live subscribers.
func (f *Fanout) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Close ends the stream. Every live subscription is disposed and its
// onClose callback invoked. Later Subscribe calls fail.
func (f *Fanout) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	subs := f.subs
	f.subs = nil
	f.mu.Unlock()

	for _, sub := range subs {
		if !sub.active.CompareAndSwap(true, false) {
			continue
		}
		if sub.onClose != nil {
			f.notifyClose(sub)
		}
	}
}

func (f *Fanout) notifyClose(sub *Subscription) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("Output subscriber close hook panicked", zap.Any("panic", r))
		}
	}()
	sub.onClose()
}

func (f *Fanout) remove(sub *Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.subs {
		if s == sub {
			f.subs = append(f.subs[:i:i], f.subs[i+1:]...)
			return
		}
	}
}

// Dispose stops delivery to this subscription. Calling it again is a no-op.
func (s *Subscription) Dispose() {
	s.once.Do(func() {
		s.active.Store(false)
		s.fanout.remove(s)
	})
}

// Active reports whether the subscription still receives chunks.
func (s *Subscription) Active() bool {
	return s.active.Load()
}
