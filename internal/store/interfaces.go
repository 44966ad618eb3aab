package store

import (
	"context"
	"errors"

	"chatsync.app/bridge/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// HookStore defines the contract for hook configuration access
type HookStore interface {
	GetByID(ctx context.Context, id int64) (*model.Hook, error)
	GetByInboxAndApp(ctx context.Context, inboxID int64, appID model.AppID) (*model.Hook, error)
	Create(ctx context.Context, hook *model.Hook) error
	UpdateSettings(ctx context.Context, id int64, settings []byte) error
	UpdateStatus(ctx context.Context, id int64, status model.HookStatus) error
	ListByAccount(ctx context.Context, accountID int64) ([]model.Hook, error)
}

// ContactStore defines the contract for contact data access
type ContactStore interface {
	GetByID(ctx context.Context, id int64) (*model.Contact, error)
	Upsert(ctx context.Context, contact *model.Contact) error
}

// ConversationStore defines the contract for conversation data access
type ConversationStore interface {
	GetByID(ctx context.Context, id int64) (*model.Conversation, error)
	Upsert(ctx context.Context, conv *model.Conversation) error
}

// MessageStore defines the contract for message data access
type MessageStore interface {
	GetByID(ctx context.Context, id int64) (*model.Message, error)
	Upsert(ctx context.Context, msg *model.Message) error
	ListByConversationAfter(ctx context.Context, conversationID, afterID int64, limit int32) ([]model.Message, error)
	ListRecentByConversation(ctx context.Context, conversationID int64, limit int32) ([]model.Message, error)
	HasOutgoingMessage(ctx context.Context, conversationID int64) (bool, error)
}

// ExternalLinkStore defines the contract for the external identity records.
// Get returns ErrNotFound when no link row exists yet; Upsert keys on
// (hook_id, record_kind, record_id).
type ExternalLinkStore interface {
	Get(ctx context.Context, hookID int64, kind model.RecordKind, recordID int64) (*model.ExternalLink, error)
	UpsertSourceID(ctx context.Context, hookID int64, kind model.RecordKind, recordID int64, sourceID string) (*model.ExternalLink, error)
	SetLastSyncedMessage(ctx context.Context, linkID int64, messageID int64) error
}
