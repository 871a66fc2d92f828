package terminal

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/josuelopezv/GeminiT-sub000/internal/shared/types"
)

// Provider exposes terminal sessions and command capture as agent tools.
type Provider struct {
	manager  *Manager
	capturer *Capturer
}

// NewProvider creates a new terminal provider
func NewProvider(manager *Manager, capturer *Capturer) *Provider {
	return &Provider{
		manager:  manager,
		capturer: capturer,
	}
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "terminal",
		Name:        "Terminal Service",
		Description: "Interactive shell sessions on pseudo-terminals with isolated command output capture",
		Category:    types.CategoryTerminal,
		Capabilities: []string{
			"pty",
			"shell",
			"interactive",
			"capture",
			"sessions",
			"resize",
			"profiles",
		},
		Tools: p.getTools(),
	}
}

// Execute routes to appropriate operation
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "terminal.create_session":
		return p.createSession(params)
	case "terminal.write":
		return p.write(params)
	case "terminal.read":
		return p.read(params)
	case "terminal.resize":
		return p.resize(params)
	case "terminal.list_sessions":
		return p.listSessions()
	case "terminal.list_profiles":
		return p.listProfiles()
	case "terminal.kill":
		return p.kill(params)
	case "terminal.get_session":
		return p.getSession(params)
	case "terminal.capture":
		return p.capture(ctx, params, appCtx)
	default:
		return nil, fmt.Errorf("unknown tool: %s", toolID)
	}
}

func sessionIDParam() types.Parameter {
	return types.Parameter{
		Name:        "session_id",
		Type:        "string",
		Description: "Terminal session ID",
		Required:    true,
	}
}

func (p *Provider) getTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "terminal.create_session",
			Name:        "Create Terminal Session",
			Description: "Create a new interactive terminal session with PTY",
			Parameters: []types.Parameter{
				{Name: "session_id", Type: "string", Description: "Session ID to register. Generated when omitted", Required: false},
				{Name: "profile", Type: "string", Description: "Named shell profile to start from", Required: false},
				{Name: "shell", Type: "string", Description: "Shell to use (e.g., /bin/bash, pwsh). Defaults to the configured shell", Required: false},
				{Name: "args", Type: "array", Description: "Arguments passed to the shell", Required: false},
				{Name: "working_dir", Type: "string", Description: "Initial working directory", Required: false},
				{Name: "cols", Type: "number", Description: "Terminal width in columns", Required: false},
				{Name: "rows", Type: "number", Description: "Terminal height in rows", Required: false},
				{Name: "env", Type: "object", Description: "Environment variables to set", Required: false},
			},
			Returns: "session_info",
		},
		{
			ID:          "terminal.write",
			Name:        "Write to Terminal",
			Description: "Send raw input to a terminal session",
			Parameters: []types.Parameter{
				sessionIDParam(),
				{Name: "input", Type: "string", Description: "Input to send to terminal", Required: true},
			},
			Returns: "success",
		},
		{
			ID:          "terminal.capture",
			Name:        "Run Command and Capture Output",
			Description: "Run a command in a session and return only its output",
			Parameters: []types.Parameter{
				sessionIDParam(),
				{Name: "command", Type: "string", Description: "Command line to run", Required: true},
				{Name: "timeout_ms", Type: "number", Description: "Milliseconds to wait for the command to finish", Required: false},
				{Name: "tool_call_id", Type: "string", Description: "Caller's id for this invocation", Required: false},
			},
			Returns: "capture_result",
		},
		{
			ID:          "terminal.read",
			Name:        "Read from Terminal",
			Description: "Read retained output history from a terminal session",
			Parameters: []types.Parameter{
				sessionIDParam(),
				{Name: "clean", Type: "boolean", Description: "Strip control sequences and return lines", Required: false},
			},
			Returns: "output_data",
		},
		{
			ID:          "terminal.resize",
			Name:        "Resize Terminal",
			Description: "Change terminal dimensions",
			Parameters: []types.Parameter{
				sessionIDParam(),
				{Name: "cols", Type: "number", Description: "New width in columns", Required: true},
				{Name: "rows", Type: "number", Description: "New height in rows", Required: true},
			},
			Returns: "success",
		},
		{
			ID:          "terminal.list_sessions",
			Name:        "List Terminal Sessions",
			Description: "List all active terminal sessions",
			Parameters:  []types.Parameter{},
			Returns:     "sessions_list",
		},
		{
			ID:          "terminal.list_profiles",
			Name:        "List Shell Profiles",
			Description: "List the configured shell profiles",
			Parameters:  []types.Parameter{},
			Returns:     "profiles_list",
		},
		{
			ID:          "terminal.get_session",
			Name:        "Get Session Info",
			Description: "Get information about a terminal session",
			Parameters:  []types.Parameter{sessionIDParam()},
			Returns:     "session_info",
		},
		{
			ID:          "terminal.kill",
			Name:        "Kill Terminal Session",
			Description: "Terminate a session and its whole process tree",
			Parameters:  []types.Parameter{sessionIDParam()},
			Returns:     "success",
		},
	}
}

func requireString(params map[string]interface{}, key string) (string, error) {
	value, ok := params[key].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return value, nil
}

func intParam(params map[string]interface{}, key string) (int, bool) {
	switch v := params[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}

func infoData(info *SessionInfo) map[string]interface{} {
	return map[string]interface{}{
		"id":          info.ID,
		"shell":       info.Shell,
		"working_dir": info.WorkingDir,
		"cols":        info.Cols,
		"rows":        info.Rows,
		"pid":         info.PID,
		"started_at":  info.StartedAt,
		"active":      info.Active,
		"subscribers": info.Subscribers,
	}
}

func (p *Provider) createSession(params map[string]interface{}) (*types.Result, error) {
	opts := CreateOptions{}
	opts.ID, _ = params["session_id"].(string)
	opts.Profile, _ = params["profile"].(string)
	opts.Shell, _ = params["shell"].(string)
	opts.WorkingDir, _ = params["working_dir"].(string)
	opts.Cols, _ = intParam(params, "cols")
	opts.Rows, _ = intParam(params, "rows")

	if args, ok := params["args"].([]interface{}); ok {
		for _, a := range args {
			if str, ok := a.(string); ok {
				opts.Args = append(opts.Args, str)
			}
		}
	}

	if envMap, ok := params["env"].(map[string]interface{}); ok {
		opts.Env = make(map[string]string, len(envMap))
		for k, v := range envMap {
			if str, ok := v.(string); ok {
				opts.Env[k] = str
			}
		}
	}

	info, err := p.manager.Create(opts)
	if err != nil {
		return nil, err
	}

	return &types.Result{
		Success: true,
		Data:    infoData(info),
	}, nil
}

func (p *Provider) write(params map[string]interface{}) (*types.Result, error) {
	sessionID, err := requireString(params, "session_id")
	if err != nil {
		return nil, err
	}

	input, ok := params["input"].(string)
	if !ok {
		return nil, fmt.Errorf("input is required")
	}

	if err := p.manager.Write(sessionID, []byte(input)); err != nil {
		return nil, err
	}

	return &types.Result{
		Success: true,
		Data:    map[string]interface{}{"success": true},
	}, nil
}

func (p *Provider) capture(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	sessionID, err := requireString(params, "session_id")
	if err != nil {
		return nil, err
	}
	command, err := requireString(params, "command")
	if err != nil {
		return nil, err
	}

	req := CaptureRequest{SessionID: sessionID, Command: command}
	req.ID, _ = params["tool_call_id"].(string)
	if req.ID == "" && appCtx != nil && appCtx.ToolCallID != nil {
		req.ID = *appCtx.ToolCallID
	}
	if ms, ok := intParam(params, "timeout_ms"); ok && ms > 0 {
		req.Timeout = time.Duration(ms) * time.Millisecond
	}

	result := p.capturer.Capture(ctx, req)

	data := map[string]interface{}{
		"output": result.Output,
	}
	if !result.OK() {
		data["error"] = result.Error
		return &types.Result{
			Success: false,
			Data:    data,
			Error:   &result.Error,
		}, nil
	}

	return &types.Result{
		Success: true,
		Data:    data,
	}, nil
}

func (p *Provider) read(params map[string]interface{}) (*types.Result, error) {
	sessionID, err := requireString(params, "session_id")
	if err != nil {
		return nil, err
	}

	output, err := p.manager.History(sessionID)
	if err != nil {
		return nil, err
	}

	if clean, _ := params["clean"].(bool); clean {
		lines := NormalizeLines(string(output))
		return &types.Result{
			Success: true,
			Data: map[string]interface{}{
				"lines":  lines,
				"length": len(output),
			},
		}, nil
	}

	// Raw output may carry partial UTF-8 sequences; base64 preserves it.
	encoded := base64.StdEncoding.EncodeToString(output)

	return &types.Result{
		Success: true,
		Data: map[string]interface{}{
			"output":        string(output),
			"output_base64": encoded,
			"length":        len(output),
		},
	}, nil
}

func (p *Provider) resize(params map[string]interface{}) (*types.Result, error) {
	sessionID, err := requireString(params, "session_id")
	if err != nil {
		return nil, err
	}

	cols, ok := intParam(params, "cols")
	if !ok {
		return nil, fmt.Errorf("cols is required")
	}

	rows, ok := intParam(params, "rows")
	if !ok {
		return nil, fmt.Errorf("rows is required")
	}

	if err := p.manager.Resize(sessionID, cols, rows); err != nil {
		return nil, err
	}

	return &types.Result{
		Success: true,
		Data:    map[string]interface{}{"success": true},
	}, nil
}

func (p *Provider) listSessions() (*types.Result, error) {
	sessions := p.manager.ListSessions()

	return &types.Result{
		Success: true,
		Data: map[string]interface{}{
			"sessions": sessions,
			"count":    len(sessions),
		},
	}, nil
}

func (p *Provider) listProfiles() (*types.Result, error) {
	profiles := p.manager.Profiles()

	return &types.Result{
		Success: true,
		Data: map[string]interface{}{
			"profiles": profiles,
			"count":    len(profiles),
		},
	}, nil
}

func (p *Provider) getSession(params map[string]interface{}) (*types.Result, error) {
	sessionID, err := requireString(params, "session_id")
	if err != nil {
		return nil, err
	}

	info, err := p.manager.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	return &types.Result{
		Success: true,
		Data:    infoData(info),
	}, nil
}

func (p *Provider) kill(params map[string]interface{}) (*types.Result, error) {
	sessionID, err := requireString(params, "session_id")
	if err != nil {
		return nil, err
	}

	if err := p.manager.Kill(sessionID); err != nil {
		return nil, err
	}

	return &types.Result{
		Success: true,
		Data:    map[string]interface{}{"success": true},
	}, nil
}
