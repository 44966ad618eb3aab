package crm

import "strings"

// EventType is the closed set of sync events the engine understands.
type EventType string

const (
	EventContactCreated       EventType = "contact_created"
	EventContactUpdated       EventType = "contact_updated"
	EventConversationCreated  EventType = "conversation_created"
	EventConversationUpdated  EventType = "conversation_updated"
	EventConversationResolved EventType = "conversation_resolved"
	EventMessageCreated       EventType = "message_created"
)

// EventKind groups event types by the record they reference.
type EventKind string

const (
	KindContact      EventKind = "contact"
	KindConversation EventKind = "conversation"
	KindMessage      EventKind = "message"
)

func (t EventType) Kind() EventKind {
	switch t {
	case EventContactCreated, EventContactUpdated:
		return KindContact
	case EventConversationCreated, EventConversationUpdated, EventConversationResolved:
		return KindConversation
	default:
		return KindMessage
	}
}

// ParseEventType normalizes an incoming event name. Both naming conventions
// used by upstream emitters are accepted: "contact_created" and
// "contact.created". Unknown names return false; callers log and drop those.
func ParseEventType(name string) (EventType, bool) {
	normalized := strings.ReplaceAll(name, ".", "_")
	switch t := EventType(normalized); t {
	case EventContactCreated, EventContactUpdated,
		EventConversationCreated, EventConversationUpdated, EventConversationResolved,
		EventMessageCreated:
		return t, true
	}
	return "", false
}

// Event is one sync notification as carried on the queue: which hook it
// targets plus the id of the record that changed. Records themselves are
// loaded from the store at processing time so the worker always syncs the
// freshest state.
type Event struct {
	HookID         int64     `json:"hook_id"`
	Type           EventType `json:"event_type"`
	ContactID      int64     `json:"contact_id,omitempty"`
	ConversationID int64     `json:"conversation_id,omitempty"`
	MessageID      int64     `json:"message_id,omitempty"`
}
