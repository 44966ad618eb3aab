// Package crm implements the synchronization engine: the event dispatcher,
// the identity bookkeeping around it, and the capability interface each
// backend integration plugs into.
package crm

import (
	"context"
	"errors"
	"log/slog"

	"chatsync.app/bridge/common/logger"
	"chatsync.app/bridge/internal/lock"
	"chatsync.app/bridge/internal/model"
	"chatsync.app/bridge/internal/store"
)

// Engine routes sync events to the integration registered for the hook's
// backend. Sync is best-effort: every failure except a lost lock race is
// logged and the event acknowledged, so a broken remote can never wedge the
// queue.
type Engine struct {
	hooks         store.HookStore
	contacts      store.ContactStore
	conversations store.ConversationStore
	messages      store.MessageStore
	links         store.ExternalLinkStore
	registry      map[model.AppID]Integration
}

func NewEngine(
	hooks store.HookStore,
	contacts store.ContactStore,
	conversations store.ConversationStore,
	messages store.MessageStore,
	links store.ExternalLinkStore,
) *Engine {
	return &Engine{
		hooks:         hooks,
		contacts:      contacts,
		conversations: conversations,
		messages:      messages,
		links:         links,
		registry:      map[model.AppID]Integration{},
	}
}

// Register wires an integration for a backend. Not safe for concurrent use;
// call during startup only.
func (e *Engine) Register(appID model.AppID, integration Integration) {
	e.registry[appID] = integration
}

// Process handles one event end to end. The only error it returns is
// lock.ErrNotAcquired, which tells the queue to redeliver the whole job;
// everything else resolves to a logged ack.
func (e *Engine) Process(ctx context.Context, event Event) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		HookID:    logger.Ptr(event.HookID),
		EventType: logger.Ptr(string(event.Type)),
		Component: "crm_engine",
	})

	hook, err := e.hooks.GetByID(ctx, event.HookID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.DebugContext(ctx, "dropping event for unknown hook")
			return nil
		}
		slog.ErrorContext(ctx, "failed to load hook", "error", err)
		return nil
	}
	if !hook.Enabled() || len(hook.SettingsMap()) == 0 {
		slog.DebugContext(ctx, "dropping event for disabled or unconfigured hook")
		return nil
	}

	integration, ok := e.registry[hook.AppID]
	if !ok {
		slog.WarnContext(ctx, "no integration registered for app", "app_id", hook.AppID)
		return nil
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{Integration: logger.Ptr(string(hook.AppID))})

	job, err := e.loadJob(ctx, hook, event)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load event records", "error", err)
		return nil
	}
	if job == nil {
		return nil
	}

	err = e.dispatch(ctx, integration, job)
	if err == nil {
		return nil
	}
	if errors.Is(err, lock.ErrNotAcquired) {
		// The queue redelivers the job; proceeding unlocked risks
		// duplicate remote entities.
		slog.InfoContext(ctx, "processing lock busy, deferring event", "error", err)
		return err
	}
	slog.ErrorContext(ctx, "sync failed", "error", err)
	return nil
}

// loadJob resolves the event's record references. A nil job with nil error
// means the event should be silently dropped.
func (e *Engine) loadJob(ctx context.Context, hook *model.Hook, event Event) (*Job, error) {
	job := &Job{
		Hook:  hook,
		Type:  event.Type,
		Links: NewLinks(e.links, hook.ID, string(hook.AppID)),
	}

	switch event.Type.Kind() {
	case KindContact:
		contact, err := e.contacts.GetByID(ctx, event.ContactID)
		if err != nil {
			return nil, err
		}
		job.Contact = contact

	case KindConversation:
		conv, err := e.conversations.GetByID(ctx, event.ConversationID)
		if err != nil {
			return nil, err
		}
		contact, err := e.contacts.GetByID(ctx, conv.ContactID)
		if err != nil {
			return nil, err
		}
		job.Conversation = conv
		job.Contact = contact

	case KindMessage:
		msg, err := e.messages.GetByID(ctx, event.MessageID)
		if err != nil {
			return nil, err
		}
		if msg.Private {
			// Private notes are internal; they never reach the remote
			// system, not even as a lookup.
			slog.DebugContext(ctx, "skipping private message",
				"message_id", msg.ID)
			return nil, nil
		}
		conv, err := e.conversations.GetByID(ctx, msg.ConversationID)
		if err != nil {
			return nil, err
		}
		contact, err := e.contacts.GetByID(ctx, conv.ContactID)
		if err != nil {
			return nil, err
		}
		job.Message = msg
		job.Conversation = conv
		job.Contact = contact
	}

	return job, nil
}

func (e *Engine) dispatch(ctx context.Context, integration Integration, job *Job) error {
	switch job.Type.Kind() {
	case KindContact:
		return integration.SyncContact(ctx, job)
	case KindConversation:
		return integration.SyncConversation(ctx, job)
	default:
		return integration.SyncMessage(ctx, job)
	}
}
