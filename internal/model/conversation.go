package model

import "time"

type ConversationStatus string

const (
	ConversationStatusOpen     ConversationStatus = "open"
	ConversationStatusPending  ConversationStatus = "pending"
	ConversationStatusResolved ConversationStatus = "resolved"
	ConversationStatusSnoozed  ConversationStatus = "snoozed"
)

type ConversationPriority string

const (
	PriorityLow    ConversationPriority = "low"
	PriorityMedium ConversationPriority = "medium"
	PriorityHigh   ConversationPriority = "high"
	PriorityUrgent ConversationPriority = "urgent"
)

type Conversation struct {
	ID               int64                `json:"id"`
	AccountID        int64                `json:"account_id"`
	DisplayID        int64                `json:"display_id"`
	ContactID        int64                `json:"contact_id"`
	InboxName        string               `json:"inbox_name,omitempty"`
	Channel          string               `json:"channel,omitempty"`
	AssigneeName     string               `json:"assignee_name,omitempty"`
	Status           ConversationStatus   `json:"status"`
	Priority         ConversationPriority `json:"priority,omitempty"`
	Labels           []string             `json:"labels,omitempty"`
	CustomAttributes map[string]any       `json:"custom_attributes,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}
