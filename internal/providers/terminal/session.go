package terminal

import (
	"os"
	"os/exec"
	"sync"
	"time"
)

// Session represents an active terminal session
type Session struct {
	ID         string
	Shell      string
	Args       []string
	WorkingDir string
	Cols       int
	Rows       int
	StartedAt  time.Time

	// Process management
	cmd  *exec.Cmd
	ptmx *os.File

	// Output distribution
	fanout   *Fanout
	history  *Buffer
	recorder *Subscription

	writeMu   sync.Mutex
	readDone  chan struct{}
	closeOnce sync.Once

	// Lifecycle
	mu     sync.RWMutex
	closed bool
}

// Info returns the public representation of the session.
func (s *Session) Info() SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pid := 0
	if s.cmd != nil && s.cmd.Process != nil {
		pid = s.cmd.Process.Pid
	}

	return SessionInfo{
		ID:          s.ID,
		Shell:       s.Shell,
		WorkingDir:  s.WorkingDir,
		Cols:        s.Cols,
		Rows:        s.Rows,
		PID:         pid,
		StartedAt:   s.StartedAt,
		Active:      !s.closed,
		Subscribers: s.fanout.Len(),
	}
}

func (s *Session) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Buffer is a thread-safe bounded ring of the most recent terminal output.
type Buffer struct {
	data  []byte
	size  int
	start int
	len   int
	total int64
	mu    sync.RWMutex
}

// NewBuffer creates a new ring buffer holding at most size bytes.
func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = 1
	}
	return &Buffer{
		data: make([]byte, size),
		size: size,
	}
}

// Write appends p, evicting the oldest bytes once the buffer is full.
func (b *Buffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.total += int64(len(p))
	if len(p) >= b.size {
		copy(b.data, p[len(p)-b.size:])
		b.start = 0
		b.len = b.size
		return len(p), nil
	}

	for _, c := range p {
		end := (b.start + b.len) % b.size
		b.data[end] = c
		if b.len < b.size {
			b.len++
		} else {
			b.start = (b.start + 1) % b.size
		}
	}

	return len(p), nil
}

// Bytes returns a copy of the retained output, oldest first.
func (b *Buffer) Bytes() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bytesLocked()
}

// Snapshot returns the retained output together with the total number of
// bytes written up to its last byte.
func (b *Buffer) Snapshot() ([]byte, int64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bytesLocked(), b.total
}

func (b *Buffer) bytesLocked() []byte {
	result := make([]byte, b.len)
	if b.start+b.len <= b.size {
		copy(result, b.data[b.start:b.start+b.len])
	} else {
		// Buffer wrapped around
		n := copy(result, b.data[b.start:])
		copy(result[n:], b.data[:b.len-n])
	}
	return result
}

// Len returns the number of retained bytes.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.len
}

// Total returns the number of bytes ever written, including evicted ones.
func (b *Buffer) Total() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.total
}
