package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/josuelopezv/GeminiT-sub000/internal/providers/terminal"
	"github.com/josuelopezv/GeminiT-sub000/internal/shared/types"
	"github.com/josuelopezv/GeminiT-sub000/internal/shared/utils"
)

// ListSessions lists all live sessions
func (h *Handlers) ListSessions(c *gin.Context) {
	sessions := h.manager.ListSessions()

	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// CreateSession spawns a new shell session
func (h *Handlers) CreateSession(c *gin.Context) {
	var req types.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	if err := utils.ValidateID(req.ID, "id", false); err != nil {
		badRequest(c, err)
		return
	}
	if req.Cols != 0 || req.Rows != 0 {
		if err := utils.ValidateTerminalSize(req.Cols, req.Rows); err != nil {
			badRequest(c, err)
			return
		}
	}

	info, err := h.manager.Create(terminal.CreateOptions{
		ID:         req.ID,
		Profile:    req.Profile,
		Shell:      req.Shell,
		Args:       req.Args,
		WorkingDir: req.WorkingDir,
		Cols:       req.Cols,
		Rows:       req.Rows,
		Env:        req.Env,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, info)
}

// sessionID reads and validates the :id path parameter.
func sessionID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if err := utils.ValidateID(id, "session_id", true); err != nil {
		badRequest(c, err)
		return "", false
	}
	return id, true
}

// GetSession returns one session
func (h *Handlers) GetSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	info, err := h.manager.GetSession(id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// KillSession terminates a session and its process tree
func (h *Handlers) KillSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	if err := h.manager.Kill(id); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"session_id": id,
	})
}

// WriteInput sends raw input to a session
func (h *Handlers) WriteInput(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req types.InputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := utils.ValidateInput(req.Data); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.manager.Write(id, []byte(req.Data)); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Resize changes a session's terminal dimensions
func (h *Handlers) Resize(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req types.ResizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := utils.ValidateTerminalSize(req.Cols, req.Rows); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.manager.Resize(id, req.Cols, req.Rows); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"cols":    req.Cols,
		"rows":    req.Rows,
	})
}

// Capture runs a command in a session and returns only its output.
// Capture failures are reported in the body with a 200 status.
func (h *Handlers) Capture(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req types.CaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := utils.ValidateCommand(req.Command); err != nil {
		badRequest(c, err)
		return
	}
	if err := utils.ValidateID(req.ToolCallID, "tool_call_id", false); err != nil {
		badRequest(c, err)
		return
	}

	result := h.capturer.Capture(c.Request.Context(), terminal.CaptureRequest{
		ID:        req.ToolCallID,
		SessionID: id,
		Command:   req.Command,
		Timeout:   time.Duration(req.TimeoutMS) * time.Millisecond,
	})

	if !result.OK() {
		h.logger.Debug("Capture did not complete",
			zap.String("session_id", id),
			zap.String("error", result.Error),
		)
	}

	c.JSON(http.StatusOK, result)
}

// History returns the retained output of a session. With clean=true the
// output is normalized to plain text. The body is gzip-compressed when the
// client accepts it.
func (h *Handlers) History(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	history, err := h.manager.History(id)
	if err != nil {
		h.fail(c, err)
		return
	}

	contentType := "application/octet-stream"
	if clean, _ := strconv.ParseBool(c.Query("clean")); clean {
		history = []byte(terminal.Normalize(string(history)))
		contentType = "text/plain; charset=utf-8"
	}

	c.Header("X-History-Length", strconv.Itoa(len(history)))

	if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") {
		c.Data(http.StatusOK, contentType, history)
		return
	}

	c.Header("Content-Encoding", "gzip")
	c.Header("Vary", "Accept-Encoding")
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)

	gz := gzip.NewWriter(c.Writer)
	if _, err := gz.Write(history); err != nil {
		h.logger.Debug("History write failed", zap.String("session_id", id), zap.Error(err))
	}
	if err := gz.Close(); err != nil {
		h.logger.Debug("History flush failed", zap.String("session_id", id), zap.Error(err))
	}
}

// ListProfiles lists the configured shell profiles
func (h *Handlers) ListProfiles(c *gin.Context) {
	profiles := h.manager.Profiles()

	c.JSON(http.StatusOK, gin.H{
		"profiles": profiles,
		"count":    len(profiles),
	})
}
