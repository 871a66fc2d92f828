// Package terminal manages interactive shell sessions on pseudo-terminals
// and runs commands inside them with their output isolated.
//
// Sessions:
//   - Manager spawns a shell per session on a PTY and keys it by id
//   - one reader goroutine per session publishes output chunks to a Fanout
//   - every chunk is also kept in a bounded history Buffer
//   - Attach replays that history to a new viewer and continues live
//     without gaps or repeats
//   - Kill and KillAll take down the shell's whole process tree
//
// Capture:
//
// A Capturer writes a command followed by a command that prints a unique
// end marker, then collects output until the marker arrives. The typed
// marker command is split so the shell's echo of it never contains the
// marker. The collected text is normalized and the echoed input lines are
// filtered out. Every capture resolves exactly once: on the marker, on its
// timeout, when the session exits or when its context is cancelled.
// Captures against one session are queued in arrival order.
//
// Example Usage:
//
//	manager := terminal.NewManager(terminal.Options{Logger: logger})
//	info, _ := manager.Create(terminal.CreateOptions{Shell: "/bin/bash"})
//	capturer := terminal.NewCapturer(manager, 30*time.Second, logger)
//	res := capturer.Capture(ctx, terminal.CaptureRequest{SessionID: info.ID, Command: "ls"})
//
// Tools:
//   - terminal.create_session: Create new shell session with PTY
//   - terminal.write: Send raw input to session
//   - terminal.capture: Run a command and return only its output
//   - terminal.read: Read retained output history
//   - terminal.resize: Resize terminal dimensions
//   - terminal.list_sessions, terminal.get_session: Inspect sessions
//   - terminal.list_profiles: List configured shell profiles
//   - terminal.kill: Terminate session and its process tree
package terminal
