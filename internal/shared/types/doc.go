// Package types provides shared data structures for the GeminiT backend.
//
// Service Types:
//   - Service, Tool, Parameter: tool catalogue advertised to agents
//   - Context: caller information for a tool execution
//   - Result: standard tool result
//
// Request Types:
//   - ExecuteRequest: service tool execution
//   - CreateSessionRequest, InputRequest, ResizeRequest, CaptureRequest:
//     session REST bodies
//   - StreamMessage: session WebSocket control frames
package types
