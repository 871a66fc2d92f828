package types

// ExecuteRequest represents a service execution request
type ExecuteRequest struct {
	ToolID     string                 `json:"tool_id" binding:"required"`
	Params     map[string]interface{} `json:"params"`
	ToolCallID *string                `json:"tool_call_id,omitempty"`
}

// CreateSessionRequest is the body of POST /sessions.
type CreateSessionRequest struct {
	ID         string            `json:"id,omitempty"`
	Profile    string            `json:"profile,omitempty"`
	Shell      string            `json:"shell,omitempty"`
	Args       []string          `json:"args,omitempty"`
	WorkingDir string            `json:"working_dir,omitempty"`
	Cols       int               `json:"cols,omitempty"`
	Rows       int               `json:"rows,omitempty"`
	Env        map[string]string `json:"env,omitempty"`
}

// InputRequest is the body of POST /sessions/:id/input.
type InputRequest struct {
	Data string `json:"data" binding:"required"`
}

// ResizeRequest is the body of POST /sessions/:id/resize.
type ResizeRequest struct {
	Cols int `json:"cols" binding:"required,min=1"`
	Rows int `json:"rows" binding:"required,min=1"`
}

// CaptureRequest is the body of POST /sessions/:id/capture.
type CaptureRequest struct {
	Command    string `json:"command" binding:"required"`
	ToolCallID string `json:"tool_call_id,omitempty"`
	TimeoutMS  int    `json:"timeout_ms,omitempty"`
}

// StreamMessage is a JSON control frame on a session stream socket.
type StreamMessage struct {
	Type    string `json:"type"`
	Data    string `json:"data,omitempty"`
	Cols    int    `json:"cols,omitempty"`
	Rows    int    `json:"rows,omitempty"`
	Message string `json:"message,omitempty"`
}
