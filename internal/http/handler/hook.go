package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chatsync.app/bridge/internal/http/dto"
	"chatsync.app/bridge/internal/service"
)

type HookHandler struct {
	hooks service.HookService
	setup service.SetupService
}

func NewHookHandler(hooks service.HookService, setup service.SetupService) *HookHandler {
	return &HookHandler{hooks: hooks, setup: setup}
}

func (h *HookHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateHookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hook, err := h.hooks.Create(ctx, service.CreateHookParams{
		AccountID: req.AccountID,
		InboxID:   req.InboxID,
		AppID:     req.AppID,
		Settings:  req.Settings,
	})
	if err != nil {
		if errors.Is(err, service.ErrUnknownApp) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(ctx, "failed to create hook", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create hook"})
		return
	}

	c.JSON(http.StatusCreated, dto.NewHookResponse(hook))
}

func (h *HookHandler) Get(c *gin.Context) {
	hookID, ok := hookIDParam(c)
	if !ok {
		return
	}

	hook, err := h.hooks.Get(c.Request.Context(), hookID)
	if err != nil {
		if errors.Is(err, service.ErrHookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "hook not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch hook"})
		return
	}

	c.JSON(http.StatusOK, dto.NewHookResponse(hook))
}

func (h *HookHandler) List(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.Query("account_id"), 10, 64)
	if err != nil || accountID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account_id query parameter is required"})
		return
	}

	hooks, err := h.hooks.ListByAccount(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list hooks"})
		return
	}

	out := make([]dto.HookResponse, 0, len(hooks))
	for i := range hooks {
		out = append(out, dto.NewHookResponse(&hooks[i]))
	}
	c.JSON(http.StatusOK, gin.H{"hooks": out})
}

func (h *HookHandler) UpdateSettings(c *gin.Context) {
	hookID, ok := hookIDParam(c)
	if !ok {
		return
	}

	var req dto.UpdateHookSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hook, err := h.hooks.UpdateSettings(c.Request.Context(), hookID, req.Settings)
	if err != nil {
		if errors.Is(err, service.ErrHookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "hook not found"})
			return
		}
		slog.ErrorContext(c.Request.Context(), "failed to update hook settings", "hook_id", hookID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update settings"})
		return
	}

	c.JSON(http.StatusOK, dto.NewHookResponse(hook))
}

// Setup runs the backend connectivity check and, on success, enables the
// hook. Failures come back as 200 with success=false so the admin UI can
// show the backend's own error message.
func (h *HookHandler) Setup(c *gin.Context) {
	hookID, ok := hookIDParam(c)
	if !ok {
		return
	}

	result, err := h.setup.Run(c.Request.Context(), hookID)
	if err != nil {
		if errors.Is(err, service.ErrHookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "hook not found"})
			return
		}
		slog.ErrorContext(c.Request.Context(), "hook setup failed", "hook_id", hookID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "setup failed"})
		return
	}

	c.JSON(http.StatusOK, dto.SetupResponse{
		Success:  result.Success,
		Message:  result.Message,
		Error:    result.Error,
		Settings: result.Settings,
	})
}

func hookIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hook id"})
		return 0, false
	}
	return id, true
}
