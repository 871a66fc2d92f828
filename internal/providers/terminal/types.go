package terminal

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrSessionNotFound is returned for operations on an unknown session id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExists is returned when creating a session whose id is live.
	ErrSessionExists = errors.New("session already exists")
	// ErrProfileNotFound is returned when a named shell profile is unknown.
	ErrProfileNotFound = errors.New("shell profile not found")
)

// SpawnError reports that the shell process could not be started.
// The session is never registered when this is returned.
type SpawnError struct {
	Shell string
	Err   error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start PTY for %s: %v", e.Shell, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// CreateOptions describes a session to spawn. Zero values fall back to the
// selected profile and then to the manager defaults.
type CreateOptions struct {
	ID         string
	Profile    string
	Shell      string
	Args       []string
	WorkingDir string
	Cols       int
	Rows       int
	Env        map[string]string
}

// SessionInfo is the public representation of a session
type SessionInfo struct {
	ID          string    `json:"id"`
	Shell       string    `json:"shell"`
	WorkingDir  string    `json:"working_dir"`
	Cols        int       `json:"cols"`
	Rows        int       `json:"rows"`
	PID         int       `json:"pid"`
	StartedAt   time.Time `json:"started_at"`
	Active      bool      `json:"active"`
	Subscribers int       `json:"subscribers"`
}

// CaptureRequest asks for one command to be run in a session and its
// output isolated from the shared stream.
type CaptureRequest struct {
	// ID identifies the request, typically the agent's tool-call id. The
	// end marker is derived from it. Generated when empty.
	ID        string        `json:"id,omitempty"`
	SessionID string        `json:"session_id"`
	Command   string        `json:"command"`
	Timeout   time.Duration `json:"-"`
}

// CaptureResult is the outcome of a capture. An empty Error means the end
// marker was seen; a non-empty Error may still carry partial Output.
type CaptureResult struct {
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

// OK reports whether the capture completed normally.
func (r CaptureResult) OK() bool { return r.Error == "" }

// Capture outcome messages.
const (
	CaptureErrAttach    = "cannot attach listener"
	CaptureErrTimeout   = "timeout waiting for end marker"
	CaptureErrExited    = "session exited"
	CaptureErrCancelled = "capture cancelled"
)
