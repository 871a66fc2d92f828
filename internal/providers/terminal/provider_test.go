package terminal

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josuelopezv/GeminiT-sub000/internal/shared/types"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	m := newTestManager(t, Options{
		Profiles: map[string]Profile{"sh": {Name: "sh", Command: testShell}},
	})
	return NewProvider(m, NewCapturer(m, 5*time.Second, nil))
}

func TestProviderDefinition(t *testing.T) {
	p := NewProvider(nil, nil)
	def := p.Definition()

	assert.Equal(t, "terminal", def.ID)
	assert.Equal(t, types.CategoryTerminal, def.Category)

	ids := make(map[string]bool)
	for _, tool := range def.Tools {
		assert.True(t, strings.HasPrefix(tool.ID, "terminal."), tool.ID)
		ids[tool.ID] = true
	}
	for _, want := range []string{
		"terminal.create_session", "terminal.write", "terminal.capture", "terminal.read",
		"terminal.resize", "terminal.list_sessions", "terminal.list_profiles",
		"terminal.get_session", "terminal.kill",
	} {
		assert.True(t, ids[want], "missing tool %s", want)
	}
}

func TestProviderSessionLifecycle(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	result, err := p.Execute(ctx, "terminal.create_session", map[string]interface{}{
		"session_id": "tool",
		"profile":    "sh",
		"cols":       float64(120),
		"rows":       float64(40),
		"env":        map[string]interface{}{"PS1": ""},
	}, nil)
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "tool", result.Data["id"])
	assert.Equal(t, 120, result.Data["cols"])

	result, err = p.Execute(ctx, "terminal.resize", map[string]interface{}{
		"session_id": "tool", "cols": float64(90), "rows": float64(20),
	}, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)

	result, err = p.Execute(ctx, "terminal.get_session", map[string]interface{}{"session_id": "tool"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 90, result.Data["cols"])

	toolCallID := "call_abc"
	result, err = p.Execute(ctx, "terminal.capture", map[string]interface{}{
		"session_id": "tool",
		"command":    "echo via-tool",
	}, &types.Context{ToolCallID: &toolCallID})
	require.NoError(t, err)
	require.True(t, result.Success, "capture error: %v", result.Data["error"])
	assert.Contains(t, result.Data["output"], "via-tool")

	result, err = p.Execute(ctx, "terminal.read", map[string]interface{}{"session_id": "tool", "clean": true}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Data["lines"])

	result, err = p.Execute(ctx, "terminal.list_sessions", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Data["count"])

	result, err = p.Execute(ctx, "terminal.kill", map[string]interface{}{"session_id": "tool"}, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)

	_, err = p.Execute(ctx, "terminal.get_session", map[string]interface{}{"session_id": "tool"}, nil)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestProviderCaptureFailureIsAResult(t *testing.T) {
	p := newTestProvider(t)

	result, err := p.Execute(context.Background(), "terminal.capture", map[string]interface{}{
		"session_id": "missing",
		"command":    "ls",
		"timeout_ms": float64(100),
	}, nil)

	require.NoError(t, err)
	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, CaptureErrAttach, *result.Error)
}

func TestProviderParameterValidation(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	tests := []struct {
		tool   string
		params map[string]interface{}
	}{
		{"terminal.write", map[string]interface{}{}},
		{"terminal.write", map[string]interface{}{"session_id": "x"}},
		{"terminal.capture", map[string]interface{}{"session_id": "x"}},
		{"terminal.resize", map[string]interface{}{"session_id": "x", "cols": float64(80)}},
		{"terminal.read", map[string]interface{}{}},
		{"terminal.unknown", map[string]interface{}{}},
	}

	for _, tt := range tests {
		_, err := p.Execute(ctx, tt.tool, tt.params, nil)
		assert.Error(t, err, tt.tool)
	}
}
