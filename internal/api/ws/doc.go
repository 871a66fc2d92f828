// Package ws streams terminal sessions to browsers over WebSocket.
//
// A client connects to /sessions/:id/stream and first receives the
// session's retained history, then every new output chunk, as binary
// frames. Appending ?replay=false skips the history.
//
// Client → Server:
//   - binary frame: raw input written to the PTY
//   - {"type":"input","data":"ls\n"}
//   - {"type":"resize","cols":120,"rows":40}
//   - {"type":"ping"}
//
// Server → Client:
//   - binary frame: terminal output
//   - {"type":"pong"}
//   - {"type":"exit","message":"session ended"}, followed by a close frame
//   - {"type":"error","message":"..."}
//
// Clients that fall more than the configured number of frames behind are
// disconnected with a policy-violation close code.
package ws
