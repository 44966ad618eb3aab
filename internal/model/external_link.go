package model

import "time"

// RecordKind names which local record an external link belongs to.
type RecordKind string

const (
	RecordKindContact      RecordKind = "contact"
	RecordKindConversation RecordKind = "conversation"
)

// ExternalLink associates one local record with the remote entities it maps
// to on one hook. SourceID holds the encoded identity field (see the crm
// identity package); LastSyncedMessageID tracks incremental followup sync
// for conversation links.
type ExternalLink struct {
	ID                  int64      `json:"id"`
	HookID              int64      `json:"hook_id"`
	RecordKind          RecordKind `json:"record_kind"`
	RecordID            int64      `json:"record_id"`
	SourceID            string     `json:"source_id"`
	LastSyncedMessageID *int64     `json:"last_synced_message_id,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}
