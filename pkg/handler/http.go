// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AccelByte/extend-break-timer/pkg/common"
	"github.com/AccelByte/extend-break-timer/pkg/timer"
)

// HealthFunc reports whether the service can serve requests.
type HealthFunc func(ctx context.Context) error

// HTTPHandler serves the timer REST API used by the browser extension.
type HTTPHandler struct {
	manager *timer.Manager
	health  HealthFunc
}

type breakRequest struct {
	BreakType string  `json:"breakType" binding:"required"`
	Minutes   float64 `json:"minutes"`
}

type thresholdRequest struct {
	Minutes *float64 `json:"minutes" binding:"required"`
}

type tabRequest struct {
	TabID string `json:"tabId"`
}

type focusRequest struct {
	Focused *bool `json:"focused" binding:"required"`
}

// NewHTTPHandler creates the REST handler. health may be nil.
func NewHTTPHandler(manager *timer.Manager, health HealthFunc) *HTTPHandler {
	return &HTTPHandler{manager: manager, health: health}
}

// NewRouter builds a gin engine with the timer routes registered.
func NewRouter(h *HTTPHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	h.Register(router)
	return router
}

// Register adds the timer routes to router.
func (h *HTTPHandler) Register(router gin.IRouter) {
	router.GET("/healthz", h.handleHealth)

	users := router.Group("/v1/users/:userId")
	{
		users.GET("/status", h.handleStatus)
		users.POST("/work/start", h.transition("StartWorkTimer", (*timer.Engine).StartWorkTimer))
		users.POST("/work/pause", h.transition("PauseWorkTimer", (*timer.Engine).PauseWorkTimer))
		users.POST("/work/resume", h.transition("ResumeWorkTimer", (*timer.Engine).ResumeWorkTimer))
		users.POST("/work/reset", h.transition("ResetWorkTimer", (*timer.Engine).ResetWorkTimer))
		users.POST("/breaks", h.handleStartBreak)
		users.POST("/breaks/end", h.transition("EndBreak", (*timer.Engine).EndBreak))
		users.POST("/breaks/cancel", h.transition("CancelBreak", (*timer.Engine).CancelBreak))
		users.POST("/activity", h.signal("UpdateActivity", (*timer.Engine).UpdateActivity))
		users.POST("/tabs", h.handleTab)
		users.POST("/focus", h.handleFocus)
		users.PUT("/threshold", h.handleThreshold)
		users.DELETE("", h.handleReset)
	}
}

func (h *HTTPHandler) handleHealth(c *gin.Context) {
	if h.health != nil {
		if err := h.health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"health": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"health": "ok"})
}

func (h *HTTPHandler) handleStatus(c *gin.Context) {
	scope := common.GetScopeFromContext(c.Request.Context(), "HTTP.GetTimerStatus")
	defer scope.Finish()

	engine, ok := h.engine(c, scope)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": engine.GetTimerStatus().Fields()})
}

func (h *HTTPHandler) handleStartBreak(c *gin.Context) {
	var req breakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	breakType := timer.BreakType(req.BreakType)
	if !breakType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid breakType %q", req.BreakType)})
		return
	}
	if !timer.ValidBreakMinutes(req.Minutes) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("minutes must be from 0 to %d", timer.MaxBreakMinutes)})
		return
	}

	h.transition("StartBreak", func(engine *timer.Engine) bool {
		return engine.StartBreak(breakType, req.Minutes)
	})(c)
}

func (h *HTTPHandler) handleThreshold(c *gin.Context) {
	var req thresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !timer.ValidThresholdMinutes(*req.Minutes) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "minutes must be a whole number from 1 to 1440"})
		return
	}

	h.transition("UpdateWorkTimeThreshold", func(engine *timer.Engine) bool {
		return engine.UpdateWorkTimeThreshold(*req.Minutes)
	})(c)
}

func (h *HTTPHandler) handleTab(c *gin.Context) {
	var req tabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.signal("TabActivated", func(engine *timer.Engine) {
		engine.HandleTabActivated(req.TabID)
	})(c)
}

func (h *HTTPHandler) handleFocus(c *gin.Context) {
	var req focusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.Focused {
		h.signal("BrowserFocusGained", (*timer.Engine).HandleBrowserFocusGained)(c)
		return
	}
	h.signal("BrowserFocusLost", (*timer.Engine).HandleBrowserFocusLost)(c)
}

func (h *HTTPHandler) handleReset(c *gin.Context) {
	scope := common.GetScopeFromContext(c.Request.Context(), "HTTP.ResetAllData")
	defer scope.Finish()

	userID := c.Param("userId")
	scope.WithUser(userID)
	if err := h.manager.Reset(scope.Ctx, userID); err != nil {
		scope.TraceError(err)
		scope.Log.Errorf("failed to reset timer data: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) transition(name string, op func(*timer.Engine) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := common.GetScopeFromContext(c.Request.Context(), "HTTP."+name)
		defer scope.Finish()

		engine, found := h.engine(c, scope)
		if !found {
			return
		}

		ok := op(engine)
		scope.SetAttributes("accepted", ok)
		code := http.StatusOK
		if !ok {
			code = http.StatusConflict
		}
		c.JSON(code, gin.H{"ok": ok, "status": engine.GetTimerStatus().Fields()})
	}
}

func (h *HTTPHandler) signal(name string, op func(*timer.Engine)) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := common.GetScopeFromContext(c.Request.Context(), "HTTP."+name)
		defer scope.Finish()

		engine, found := h.engine(c, scope)
		if !found {
			return
		}

		op(engine)
		c.JSON(http.StatusOK, gin.H{"status": engine.GetTimerStatus().Fields()})
	}
}

func (h *HTTPHandler) engine(c *gin.Context, scope *common.Scope) (*timer.Engine, bool) {
	userID := c.Param("userId")
	scope.WithUser(userID)

	engine, err := h.manager.Engine(scope.Ctx, userID)
	if err != nil {
		scope.TraceError(err)
		code := http.StatusInternalServerError
		if errors.Is(err, timer.ErrEngineStopped) {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"error": err.Error()})
		return nil, false
	}
	return engine, true
}
