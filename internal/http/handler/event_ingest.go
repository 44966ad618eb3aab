package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatsync.app/bridge/internal/http/dto"
	"chatsync.app/bridge/internal/service"
)

type EventIngestHandler struct {
	service service.EventIngestService
}

func NewEventIngestHandler(service service.EventIngestService) *EventIngestHandler {
	return &EventIngestHandler{service: service}
}

func (h *EventIngestHandler) Ingest(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.IngestEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid ingest request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Ingest(ctx, service.EventIngestParams{
		HookID:       req.HookID,
		EventType:    req.EventType,
		Contact:      req.Contact,
		Conversation: req.Conversation,
		Message:      req.Message,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrHookNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "hook not found"})
		case errors.Is(err, service.ErrMissingSnapshot):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrHookDisabled), errors.Is(err, service.ErrUnknownEventType):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			slog.ErrorContext(ctx, "failed to ingest event", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to ingest event"})
		}
		return
	}

	c.JSON(http.StatusAccepted, dto.IngestEventResponse{
		EventType:      string(result.Event.Type),
		ContactID:      result.Event.ContactID,
		ConversationID: result.Event.ConversationID,
		MessageID:      result.Event.MessageID,
		Enqueued:       result.Enqueued,
	})
}
