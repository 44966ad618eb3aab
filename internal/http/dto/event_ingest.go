package dto

import "chatsync.app/bridge/internal/model"

// IngestEventRequest is one webhook notification from the helpdesk app.
// Snapshots of the touched records ride along so the sync engine works from
// a local mirror instead of calling back into the helpdesk.
type IngestEventRequest struct {
	HookID    int64  `json:"hook_id" binding:"required"`
	EventType string `json:"event_type" binding:"required"`

	Contact      *model.Contact      `json:"contact,omitempty"`
	Conversation *model.Conversation `json:"conversation,omitempty"`
	Message      *model.Message      `json:"message,omitempty"`
}

type IngestEventResponse struct {
	EventType      string `json:"event_type"`
	ContactID      int64  `json:"contact_id,omitempty"`
	ConversationID int64  `json:"conversation_id,omitempty"`
	MessageID      int64  `json:"message_id,omitempty"`
	Enqueued       bool   `json:"enqueued"`
}
