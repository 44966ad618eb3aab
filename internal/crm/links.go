package crm

import (
	"context"
	"errors"

	"chatsync.app/bridge/internal/crm/identity"
	"chatsync.app/bridge/internal/model"
	"chatsync.app/bridge/internal/store"
)

// Links gives one hook's integration access to the external identities of
// local records. All logic works on the decoded identity map; the encoded
// field only exists at the store boundary.
//
// Store must only be called while holding the hook's processing lock; Get
// is safe anywhere since decoding is pure and the underlying write is
// atomic.
type Links struct {
	store  store.ExternalLinkStore
	hookID int64
	ns     string
}

func NewLinks(s store.ExternalLinkStore, hookID int64, ns string) *Links {
	return &Links{store: s, hookID: hookID, ns: ns}
}

// Get returns the remote id stored for (record, entityType), or "" when
// none is known yet.
func (l *Links) Get(ctx context.Context, kind model.RecordKind, recordID int64, entityType string) (string, error) {
	link, err := l.store.Get(ctx, l.hookID, kind, recordID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return identity.Decode(l.ns, link.SourceID).Get(entityType), nil
}

// Store upserts one remote id into the record's identity field.
func (l *Links) Store(ctx context.Context, kind model.RecordKind, recordID int64, entityType, remoteID string) error {
	current := ""
	link, err := l.store.Get(ctx, l.hookID, kind, recordID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if link != nil {
		current = link.SourceID
	}
	updated := identity.Update(l.ns, current, entityType, remoteID)
	_, err = l.store.UpsertSourceID(ctx, l.hookID, kind, recordID, updated)
	return err
}

// LastSyncedMessage returns the high-water mark for a conversation's
// followup sync; 0 means nothing has been synced yet.
func (l *Links) LastSyncedMessage(ctx context.Context, conversationID int64) (int64, error) {
	link, err := l.store.Get(ctx, l.hookID, model.RecordKindConversation, conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if link.LastSyncedMessageID == nil {
		return 0, nil
	}
	return *link.LastSyncedMessageID, nil
}

// SetLastSyncedMessage advances the followup high-water mark, creating the
// conversation link row if it does not exist yet.
func (l *Links) SetLastSyncedMessage(ctx context.Context, conversationID, messageID int64) error {
	link, err := l.store.Get(ctx, l.hookID, model.RecordKindConversation, conversationID)
	if errors.Is(err, store.ErrNotFound) {
		link, err = l.store.UpsertSourceID(ctx, l.hookID, model.RecordKindConversation, conversationID, "")
	}
	if err != nil {
		return err
	}
	return l.store.SetLastSyncedMessage(ctx, link.ID, messageID)
}
