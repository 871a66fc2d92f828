package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"go.uber.org/zap"

	"github.com/josuelopezv/GeminiT-sub000/internal/infrastructure/monitoring"
	"github.com/josuelopezv/GeminiT-sub000/internal/shared/id"
)

const (
	defaultCols        = 80
	defaultRows        = 24
	defaultHistorySize = 1024 * 1024
	readChunkSize      = 32 * 1024

	// drainTimeout bounds how long a finished session waits for its reader
	// when grandchildren still hold the PTY open.
	drainTimeout = time.Second
)

// Options configures a Manager.
type Options struct {
	DefaultShell string
	Cols         int
	Rows         int
	HistorySize  int
	Profiles     map[string]Profile
	Terminator   Terminator
	Logger       *zap.Logger
}

// Manager owns every live terminal session, keyed by session id.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	opts       Options
	terminator Terminator
	logger     *zap.Logger
	metrics    *monitoring.Metrics
}

// NewManager creates a new session manager
func NewManager(opts Options) *Manager {
	if opts.Cols <= 0 {
		opts.Cols = defaultCols
	}
	if opts.Rows <= 0 {
		opts.Rows = defaultRows
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = defaultHistorySize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	terminator := opts.Terminator
	if terminator == nil {
		terminator = DefaultTerminator()
	}

	return &Manager{
		sessions:   make(map[string]*Session),
		opts:       opts,
		terminator: terminator,
		logger:     opts.Logger.Named("terminal"),
	}
}

// WithMetrics attaches a metrics collector.
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// DefaultShell returns the shell started when a request names none.
func (m *Manager) DefaultShell() string {
	if m.opts.DefaultShell != "" {
		return m.opts.DefaultShell
	}
	return defaultShell()
}

// Profiles returns the configured shell profiles sorted by name.
func (m *Manager) Profiles() []Profile {
	profiles := make([]Profile, 0, len(m.opts.Profiles))
	for _, p := range m.opts.Profiles {
		profiles = append(profiles, p)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })
	return profiles
}

func defaultShell() string {
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	if runtime.GOOS == "windows" {
		return "powershell.exe"
	}
	return "/bin/sh"
}

// resolve fills zero fields of opts from its profile and the defaults.
func (m *Manager) resolve(opts CreateOptions) (CreateOptions, error) {
	if opts.Profile != "" {
		p, ok := m.opts.Profiles[opts.Profile]
		if !ok {
			return opts, fmt.Errorf("%w: %s", ErrProfileNotFound, opts.Profile)
		}
		if opts.Shell == "" {
			opts.Shell = p.Command
			if len(opts.Args) == 0 {
				opts.Args = p.Args
			}
		}
		if opts.WorkingDir == "" {
			opts.WorkingDir = p.WorkingDir
		}
		env := make(map[string]string, len(p.Env)+len(opts.Env))
		for k, v := range p.Env {
			env[k] = v
		}
		for k, v := range opts.Env {
			env[k] = v
		}
		opts.Env = env
	}

	if opts.ID == "" {
		opts.ID = id.NewSessionID().String()
	}
	if opts.Shell == "" {
		opts.Shell = m.DefaultShell()
	}
	if opts.Cols <= 0 {
		opts.Cols = m.opts.Cols
	}
	if opts.Rows <= 0 {
		opts.Rows = m.opts.Rows
	}
	return opts, nil
}

// Create spawns a shell on a new PTY and registers it under opts.ID.
// A *SpawnError is returned when the OS refuses to start the shell.
func (m *Manager) Create(opts CreateOptions) (*SessionInfo, error) {
	opts, err := m.resolve(opts)
	if err != nil {
		return nil, err
	}

	if _, err := m.get(opts.ID); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionExists, opts.ID)
	}

	cmd := exec.Command(opts.Shell, opts.Args...)
	cmd.Dir = opts.WorkingDir

	cmd.Env = os.Environ()
	cmd.Env = append(cmd.Env, "TERM=xterm-256color")
	for key, value := range opts.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(opts.Rows),
		Cols: uint16(opts.Cols),
	})
	if err != nil {
		m.metrics.IncSpawnFailures()
		m.logger.Warn("Failed to spawn shell",
			zap.String("session_id", opts.ID),
			zap.String("shell", opts.Shell),
			zap.Error(err),
		)
		return nil, &SpawnError{Shell: opts.Shell, Err: err}
	}

	session := &Session{
		ID:         opts.ID,
		Shell:      opts.Shell,
		Args:       opts.Args,
		WorkingDir: opts.WorkingDir,
		Cols:       opts.Cols,
		Rows:       opts.Rows,
		StartedAt:  time.Now(),
		cmd:        cmd,
		ptmx:       ptmx,
		fanout:     NewFanout(m.logger),
		history:    NewBuffer(m.opts.HistorySize),
		readDone:   make(chan struct{}),
	}

	// The history recorder is the session's permanent subscriber.
	session.recorder, _ = session.fanout.Subscribe(func(chunk []byte) {
		session.history.Write(chunk)
	}, nil)

	m.mu.Lock()
	if _, exists := m.sessions[opts.ID]; exists {
		m.mu.Unlock()
		// Lost a race with a concurrent Create for the same id.
		m.terminate(session)
		go session.cmd.Wait()
		return nil, fmt.Errorf("%w: %s", ErrSessionExists, opts.ID)
	}
	m.sessions[opts.ID] = session
	m.mu.Unlock()

	m.metrics.SessionStarted()
	m.logger.Info("Session started",
		zap.String("session_id", session.ID),
		zap.String("shell", session.Shell),
		zap.Int("pid", cmd.Process.Pid),
		zap.Int("cols", session.Cols),
		zap.Int("rows", session.Rows),
	)

	go m.readOutput(session)
	go m.monitorProcess(session)

	info := session.Info()
	return &info, nil
}

// readOutput pumps PTY output into the session's fan-out until the PTY
// reports EOF or is closed.
func (m *Manager) readOutput(session *Session) {
	defer close(session.readDone)

	buf := make([]byte, readChunkSize)
	for {
		n, err := session.ptmx.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			m.metrics.AddOutputBytes(n)
			session.fanout.Publish(chunk)
		}
		if err != nil {
			// Linux reports EIO once the slave side is gone.
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) && !errors.Is(err, syscall.EIO) {
				m.logger.Debug("PTY read ended", zap.String("session_id", session.ID), zap.Error(err))
			}
			return
		}
	}
}

// monitorProcess waits for the shell to exit and unregisters the session.
func (m *Manager) monitorProcess(session *Session) {
	err := session.cmd.Wait()

	select {
	case <-session.readDone:
	case <-time.After(drainTimeout):
	}

	if m.unregister(session) {
		fields := []zap.Field{zap.String("session_id", session.ID)}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		m.logger.Info("Session process exited", fields...)
		m.metrics.SessionEnded("exited")
	}
	m.teardown(session)
}

// unregister removes session from the map if it is still the live entry.
func (m *Manager) unregister(session *Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, ok := m.sessions[session.ID]; ok && current == session {
		delete(m.sessions, session.ID)
		return true
	}
	return false
}

// teardown closes the PTY and ends the output stream exactly once.
func (m *Manager) teardown(session *Session) {
	session.closeOnce.Do(func() {
		session.mu.Lock()
		session.closed = true
		session.mu.Unlock()

		if err := session.ptmx.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			m.logger.Debug("Failed to close PTY", zap.String("session_id", session.ID), zap.Error(err))
		}
		session.fanout.Close()
	})
}

func (m *Manager) get(sessionID string) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[sessionID]
	m.mu.RUnlock()

	if !ok || session.isClosed() {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return session, nil
}

// Write sends input to a session
func (m *Manager) Write(sessionID string, input []byte) error {
	session, err := m.get(sessionID)
	if err != nil {
		return err
	}

	// Serialize writers so one Write call is never split by another.
	session.writeMu.Lock()
	defer session.writeMu.Unlock()

	if _, err := session.ptmx.Write(input); err != nil {
		return fmt.Errorf("write to session %s: %w", sessionID, err)
	}
	return nil
}

// Resize changes terminal dimensions
func (m *Manager) Resize(sessionID string, cols, rows int) error {
	if cols <= 0 || rows <= 0 {
		return fmt.Errorf("invalid terminal size %dx%d", cols, rows)
	}

	session, err := m.get(sessionID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if err := pty.Setsize(session.ptmx, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	}); err != nil {
		return fmt.Errorf("resize session %s: %w", sessionID, err)
	}

	session.Cols = cols
	session.Rows = rows
	return nil
}

// Subscribe attaches a consumer to a session's output stream.
func (m *Manager) Subscribe(sessionID string, onData func([]byte), onClose func()) (*Subscription, error) {
	session, err := m.get(sessionID)
	if err != nil {
		return nil, err
	}
	return session.fanout.Subscribe(onData, onClose)
}

// Attach subscribes to a session after replaying its retained history
// through onData. Live chunks that overlap the replay are trimmed, so the
// subscriber sees the output exactly once and in order.
func (m *Manager) Attach(sessionID string, onData func([]byte), onClose func()) (*Subscription, error) {
	session, err := m.get(sessionID)
	if err != nil {
		return nil, err
	}

	// The recorder is subscribed first, so by the time onData sees a chunk
	// the history total already ends with it.
	var (
		mu   sync.Mutex
		seen int64
	)
	mu.Lock()
	defer mu.Unlock()

	sub, err := session.fanout.Subscribe(func(chunk []byte) {
		mu.Lock()
		defer mu.Unlock()

		end := session.history.Total()
		start := end - int64(len(chunk))
		if end <= seen {
			return
		}
		if start < seen {
			chunk = chunk[seen-start:]
		}
		seen = end
		onData(chunk)
	}, onClose)
	if err != nil {
		return nil, err
	}

	history, total := session.history.Snapshot()
	seen = total
	if len(history) > 0 {
		onData(history)
	}
	return sub, nil
}

// Shell returns the shell binary a session runs.
func (m *Manager) Shell(sessionID string) (string, error) {
	session, err := m.get(sessionID)
	if err != nil {
		return "", err
	}
	return session.Shell, nil
}

// History returns the retained raw output of a session.
func (m *Manager) History(sessionID string) ([]byte, error) {
	session, err := m.get(sessionID)
	if err != nil {
		return nil, err
	}
	return session.history.Bytes(), nil
}

// Kill terminates a session and its whole process tree. Termination
// failures are logged, never returned; only unknown ids are an error.
func (m *Manager) Kill(sessionID string) error {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	m.terminate(session)
	m.metrics.SessionEnded("killed")
	m.logger.Info("Session killed", zap.String("session_id", sessionID))
	return nil
}

func (m *Manager) terminate(session *Session) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Panic while terminating session",
				zap.String("session_id", session.ID),
				zap.Any("panic", r),
			)
		}
	}()

	if session.cmd.Process != nil {
		pid := session.cmd.Process.Pid
		if err := m.terminator.Terminate(pid); err != nil {
			m.logger.Warn("Failed to terminate process tree",
				zap.String("session_id", session.ID),
				zap.Int("pid", pid),
				zap.Error(err),
			)
		}
	}
	m.teardown(session)
}

// KillAll terminates every session. It is used at shutdown and keeps going
// when an individual session fails to die.
func (m *Manager) KillAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, session := range sessions {
		m.terminate(session)
		m.metrics.SessionEnded("shutdown")
	}

	if len(sessions) > 0 {
		m.logger.Info("All sessions terminated", zap.Int("count", len(sessions)))
	}
}

// ListSessions returns all active sessions ordered by start time
func (m *Manager) ListSessions() []SessionInfo {
	m.mu.RLock()
	sessions := make([]SessionInfo, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s.Info())
	}
	m.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.Before(sessions[j].StartedAt)
	})
	return sessions
}

// GetSession retrieves session info
func (m *Manager) GetSession(sessionID string) (*SessionInfo, error) {
	session, err := m.get(sessionID)
	if err != nil {
		return nil, err
	}
	info := session.Info()
	return &info, nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
