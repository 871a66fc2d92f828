package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/josuelopezv/GeminiT-sub000/internal/api/middleware"
	"github.com/josuelopezv/GeminiT-sub000/internal/shared/types"
	"github.com/josuelopezv/GeminiT-sub000/internal/shared/utils"
)

// ListServices lists all available services
func (h *Handlers) ListServices(c *gin.Context) {
	categoryStr := c.Query("category")

	var category *types.Category
	if categoryStr != "" {
		if err := utils.ValidateCategory(categoryStr, false); err != nil {
			badRequest(c, err)
			return
		}
		cat := types.Category(categoryStr)
		category = &cat
	}

	services := h.registry.List(category)

	c.JSON(http.StatusOK, gin.H{
		"services": services,
		"stats":    h.registry.Stats(),
	})
}

// DiscoverServices ranks services against a free-text intent
func (h *Handlers) DiscoverServices(c *gin.Context) {
	intent := c.Query("intent")
	if intent == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "intent is required"})
		return
	}

	limit := 5
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 50 {
		limit = l
	}

	c.JSON(http.StatusOK, gin.H{
		"services": h.registry.Discover(intent, limit),
	})
}

// ExecuteService executes a service tool
func (h *Handlers) ExecuteService(c *gin.Context) {
	var req types.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := utils.ValidateToolID(req.ToolID, "tool_id", true); err != nil {
		badRequest(c, err)
		return
	}

	appCtx := &types.Context{}
	if req.ToolCallID != nil {
		if err := utils.ValidateID(*req.ToolCallID, "tool_call_id", false); err != nil {
			badRequest(c, err)
			return
		}
		appCtx.ToolCallID = req.ToolCallID
	}
	if reqID := middleware.GetRequestID(c); reqID != "" {
		appCtx.RequestID = &reqID
	}
	clientAddr := c.ClientIP()
	appCtx.ClientAddr = &clientAddr

	result, err := h.registry.Execute(c.Request.Context(), req.ToolID, req.Params, appCtx)
	if err != nil {
		if result == nil {
			result = types.Failure(err.Error())
		}
		c.JSON(statusFor(err), result)
		return
	}

	c.JSON(http.StatusOK, result)
}
