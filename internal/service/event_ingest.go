package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"chatsync.app/bridge/internal/crm"
	"chatsync.app/bridge/internal/model"
	"chatsync.app/bridge/internal/queue"
	"chatsync.app/bridge/internal/store"
)

// EventIngestParams carries one webhook notification from the helpdesk:
// the target hook, the event name, and snapshots of the records the event
// touches. Snapshots are mirrored locally before the event is enqueued so
// the worker reads fresh state from the store instead of a stale payload.
type EventIngestParams struct {
	HookID    int64  `json:"hook_id"`
	EventType string `json:"event_type"`

	Contact      *model.Contact      `json:"contact,omitempty"`
	Conversation *model.Conversation `json:"conversation,omitempty"`
	Message      *model.Message      `json:"message,omitempty"`
}

type EventIngestResult struct {
	Event    crm.Event
	Enqueued bool
}

type EventIngestService interface {
	Ingest(ctx context.Context, params EventIngestParams) (*EventIngestResult, error)
}

var (
	ErrHookNotFound     = errors.New("hook not found")
	ErrHookDisabled     = errors.New("hook is disabled")
	ErrUnknownEventType = errors.New("unknown event type")
	ErrMissingSnapshot  = errors.New("missing record snapshot")
)

type eventIngestService struct {
	hooks    store.HookStore
	txRunner TxRunner
	queue    queue.Producer
	logger   *slog.Logger
}

func NewEventIngestService(hooks store.HookStore, txRunner TxRunner, queue queue.Producer, logger *slog.Logger) EventIngestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &eventIngestService{
		hooks:    hooks,
		txRunner: txRunner,
		queue:    queue,
		logger:   logger,
	}
}

func (s *eventIngestService) Ingest(ctx context.Context, params EventIngestParams) (*EventIngestResult, error) {
	if params.HookID == 0 || params.EventType == "" {
		return nil, fmt.Errorf("hook_id and event_type are required")
	}

	eventType, ok := crm.ParseEventType(params.EventType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, params.EventType)
	}

	hook, err := s.hooks.GetByID(ctx, params.HookID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrHookNotFound
		}
		return nil, fmt.Errorf("fetching hook: %w", err)
	}
	if !hook.Enabled() {
		return nil, ErrHookDisabled
	}

	event := crm.Event{HookID: hook.ID, Type: eventType}
	switch eventType.Kind() {
	case crm.KindContact:
		if params.Contact == nil {
			return nil, fmt.Errorf("%w: contact snapshot is required for %s", ErrMissingSnapshot, eventType)
		}
		event.ContactID = params.Contact.ID
	case crm.KindConversation:
		if params.Conversation == nil {
			return nil, fmt.Errorf("%w: conversation snapshot is required for %s", ErrMissingSnapshot, eventType)
		}
		event.ConversationID = params.Conversation.ID
	case crm.KindMessage:
		if params.Message == nil {
			return nil, fmt.Errorf("%w: message snapshot is required for %s", ErrMissingSnapshot, eventType)
		}
		event.MessageID = params.Message.ID
		event.ConversationID = params.Message.ConversationID
	}

	if err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		if params.Contact != nil {
			if err := sp.Contacts().Upsert(ctx, params.Contact); err != nil {
				return fmt.Errorf("upserting contact: %w", err)
			}
		}
		if params.Conversation != nil {
			if err := sp.Conversations().Upsert(ctx, params.Conversation); err != nil {
				return fmt.Errorf("upserting conversation: %w", err)
			}
		}
		if params.Message != nil {
			if err := sp.Messages().Upsert(ctx, params.Message); err != nil {
				return fmt.Errorf("upserting message: %w", err)
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	// Private messages never reach the remote CRM. The snapshot is still
	// mirrored above so incremental followup syncs see the id gap.
	if params.Message != nil && params.Message.Private {
		s.logger.InfoContext(ctx, "skipping private message event", "hook_id", hook.ID, "message_id", params.Message.ID)
		return &EventIngestResult{Event: event, Enqueued: false}, nil
	}

	if err := s.queue.Enqueue(ctx, event); err != nil {
		return nil, fmt.Errorf("enqueueing event: %w", err)
	}

	return &EventIngestResult{Event: event, Enqueued: true}, nil
}
