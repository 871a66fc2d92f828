package system

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/josuelopezv/GeminiT-sub000/internal/shared/types"
)

// Provider answers questions about the host the sessions run on.
type Provider struct {
	startTime    time.Time
	sessions     func() int
	defaultShell string
}

// NewProvider creates a system provider. sessions reports the live session
// count and may be nil.
func NewProvider(sessions func() int, defaultShell string) *Provider {
	if sessions == nil {
		sessions = func() int { return 0 }
	}
	return &Provider{
		startTime:    time.Now(),
		sessions:     sessions,
		defaultShell: defaultShell,
	}
}

// Definition returns service metadata
func (s *Provider) Definition() types.Service {
	return types.Service{
		ID:          "system",
		Name:        "System Service",
		Description: "Host information for the machine running terminal sessions",
		Category:    types.CategorySystem,
		Capabilities: []string{
			"info",
			"time",
		},
		Tools: []types.Tool{
			{
				ID:          "system.info",
				Name:        "System Info",
				Description: "Get host platform, default shell and session count",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
			{
				ID:          "system.time",
				Name:        "Current Time",
				Description: "Get current server time",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
			{
				ID:          "system.ping",
				Name:        "Ping",
				Description: "Test service availability",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
		},
	}
}

// Execute runs a system operation
func (s *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "system.info":
		return s.info()
	case "system.time":
		return s.currentTime()
	case "system.ping":
		return s.ping()
	default:
		return failure(fmt.Sprintf("unknown tool: %s", toolID))
	}
}

func (s *Provider) info() (*types.Result, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	hostname, _ := os.Hostname()

	return success(map[string]interface{}{
		"hostname":       hostname,
		"os":             runtime.GOOS,
		"arch":           runtime.GOARCH,
		"cpus":           runtime.NumCPU(),
		"go_version":     runtime.Version(),
		"default_shell":  s.defaultShell,
		"sessions":       s.sessions(),
		"goroutines":     runtime.NumGoroutine(),
		"memory_alloc":   m.Alloc / 1024 / 1024, // MB
		"uptime_seconds": time.Since(s.startTime).Seconds(),
	})
}

func (s *Provider) currentTime() (*types.Result, error) {
	now := time.Now()
	zone, offset := now.Zone()
	return success(map[string]interface{}{
		"timestamp":  now.Unix(),
		"iso":        now.Format(time.RFC3339),
		"unix_ms":    now.UnixMilli(),
		"zone":       zone,
		"utc_offset": offset,
	})
}

func (s *Provider) ping() (*types.Result, error) {
	return success(map[string]interface{}{
		"pong":      true,
		"timestamp": time.Now().Unix(),
	})
}

func success(data map[string]interface{}) (*types.Result, error) {
	return &types.Result{Success: true, Data: data}, nil
}

func failure(message string) (*types.Result, error) {
	return types.Failure(message), nil
}
