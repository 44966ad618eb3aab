package glpi

import (
	"context"
	"log/slog"

	"chatsync.app/bridge/internal/crm"
	"chatsync.app/bridge/internal/crm/api"
	"chatsync.app/bridge/internal/lock"
	"chatsync.app/bridge/internal/model"
	"chatsync.app/bridge/internal/store"
)

// On the first ticket update, this many trailing messages are backfilled
// as followups before the incremental high-water mark takes over.
const firstSyncMessageLimit = 50

// Integration implements the GLPI backend. Each event opens one session,
// does its work, and tears the session down again; GLPI sessions are
// cheap and holding one across queue jobs would leak them on crashes.
//
// The sync_type setting picks the requester itemtype: "user" (default)
// for GLPI Users, "contact" for the login-less Contact itemtype.
type Integration struct {
	locker     lock.Locker
	messages   store.MessageStore
	clientOpts []api.Option
}

func New(locker lock.Locker, messages store.MessageStore, clientOpts ...api.Option) *Integration {
	return &Integration{
		locker:     locker,
		messages:   messages,
		clientOpts: clientOpts,
	}
}

func (i *Integration) client(hook *model.Hook) *Client {
	return NewClient(hook.Setting("api_url"), hook.Setting("app_token"), hook.Setting("user_token"), i.clientOpts...)
}

func syncToContacts(hook *model.Hook) bool {
	return hook.Setting("sync_type") == "contact"
}

// SyncContact resolves or refreshes the GLPI requester for the contact.
// The find-or-create and the id store run under the hook's processing
// lock so overlapping events cannot double-create.
func (i *Integration) SyncContact(ctx context.Context, job *crm.Job) error {
	if job.Contact.Email == "" && job.Contact.PhoneNumber == "" {
		slog.DebugContext(ctx, "contact has no email or phone, skipping glpi sync")
		return nil
	}

	client := i.client(job.Hook)
	return i.locker.WithLock(ctx, crm.LockKey(job.Hook.ID), func(ctx context.Context) error {
		return client.WithSession(ctx, func(ctx context.Context) error {
			_, err := i.resolveRequester(ctx, client, job, true)
			return err
		})
	})
}

// SyncConversation creates the ticket on first sight and afterwards
// pushes status and priority plus any unsynced messages as followups.
func (i *Integration) SyncConversation(ctx context.Context, job *crm.Job) error {
	client := i.client(job.Hook)
	conv := job.Conversation

	return i.locker.WithLock(ctx, crm.LockKey(job.Hook.ID), func(ctx context.Context) error {
		return client.WithSession(ctx, func(ctx context.Context) error {
			ticketID, err := job.Links.Get(ctx, model.RecordKindConversation, conv.ID, "ticket")
			if err != nil {
				return err
			}
			if ticketID == "" {
				return i.createTicket(ctx, client, job)
			}

			if err := client.UpdateTicket(ctx, ticketID, MapTicketUpdate(conv)); err != nil {
				return err
			}
			i.syncFollowups(ctx, client, job, ticketID)
			slog.InfoContext(ctx, "glpi ticket updated", "ticket_id", ticketID)
			return nil
		})
	})
}

// SyncMessage appends the message as a followup on the conversation's
// ticket and advances the followup high-water mark past it.
func (i *Integration) SyncMessage(ctx context.Context, job *crm.Job) error {
	client := i.client(job.Hook)
	msg := job.Message

	return i.locker.WithLock(ctx, crm.LockKey(job.Hook.ID), func(ctx context.Context) error {
		return client.WithSession(ctx, func(ctx context.Context) error {
			ticketID, err := job.Links.Get(ctx, model.RecordKindConversation, job.Conversation.ID, "ticket")
			if err != nil {
				return err
			}
			if ticketID == "" {
				slog.DebugContext(ctx, "no ticket resolved yet, skipping message sync")
				return nil
			}

			lastSynced, err := job.Links.LastSyncedMessage(ctx, job.Conversation.ID)
			if err != nil {
				return err
			}
			if msg.ID <= lastSynced {
				// Already covered by a followup backfill.
				return nil
			}

			if _, err := client.CreateFollowup(ctx, MapFollowup(msg, ticketID, job.Settings())); err != nil {
				return err
			}
			return job.Links.SetLastSyncedMessage(ctx, job.Conversation.ID, msg.ID)
		})
	})
}

func (i *Integration) createTicket(ctx context.Context, client *Client, job *crm.Job) error {
	requesterID, err := i.resolveRequester(ctx, client, job, false)
	if err != nil {
		return err
	}
	if requesterID == "" {
		slog.DebugContext(ctx, "no glpi requester resolved, skipping ticket creation")
		return nil
	}

	conv := job.Conversation
	first, err := i.messages.ListByConversationAfter(ctx, conv.ID, 0, 1)
	if err != nil {
		slog.WarnContext(ctx, "failed to load opening message", "error", err)
	}
	var firstMessage *model.Message
	if len(first) > 0 {
		firstMessage = &first[0]
	}

	payload := MapTicket(conv, firstMessage, job.Contact.Name, requesterID, int(job.Hook.IntSetting("entity_id")), job.Settings())
	ticketID, err := client.CreateTicket(ctx, payload)
	if err != nil {
		return err
	}
	if ticketID == "" {
		return ErrMissingID
	}
	if err := job.Links.Store(ctx, model.RecordKindConversation, conv.ID, "ticket", ticketID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "glpi ticket created", "ticket_id", ticketID)
	return nil
}

// resolveRequester finds or creates the GLPI User or Contact standing in
// for the local contact, stores the id, and refreshes the remote record
// on subsequent syncs when refresh is set.
func (i *Integration) resolveRequester(ctx context.Context, client *Client, job *crm.Job, refresh bool) (string, error) {
	contact := job.Contact
	entityID := int(job.Hook.IntSetting("entity_id"))

	entityType := "user"
	if syncToContacts(job.Hook) {
		entityType = "contact"
	}

	stored, err := job.Links.Get(ctx, model.RecordKindContact, contact.ID, entityType)
	if err != nil {
		return "", err
	}
	if stored != "" {
		if refresh {
			if err := i.updateRequester(ctx, client, job.Hook, stored, contact, entityID); err != nil {
				return "", err
			}
		}
		return stored, nil
	}

	var id string
	if syncToContacts(job.Hook) {
		id, err = NewContactFinder(client, job.Links, entityID).FindOrCreate(ctx, contact)
	} else {
		id, err = NewUserFinder(client, job.Links, entityID).FindOrCreate(ctx, contact)
	}
	if err != nil {
		return "", err
	}
	if err := job.Links.Store(ctx, model.RecordKindContact, contact.ID, entityType, id); err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "glpi requester linked", "requester_id", id, "itemtype", entityType)
	return id, nil
}

func (i *Integration) updateRequester(ctx context.Context, client *Client, hook *model.Hook, id string, contact *model.Contact, entityID int) error {
	if syncToContacts(hook) {
		return client.UpdateContact(ctx, id, MapContact(contact, entityID))
	}
	return client.UpdateUser(ctx, id, MapUser(contact, entityID))
}

// syncFollowups pushes messages the ticket has not seen yet. The first
// pass backfills the trailing window; later passes continue from the
// stored high-water mark. Individual followup failures are logged and
// skipped so one bad message cannot wedge the conversation.
func (i *Integration) syncFollowups(ctx context.Context, client *Client, job *crm.Job, ticketID string) {
	conv := job.Conversation
	lastSynced, err := job.Links.LastSyncedMessage(ctx, conv.ID)
	if err != nil {
		slog.WarnContext(ctx, "failed to read followup position", "error", err)
		return
	}

	var messages []model.Message
	if lastSynced > 0 {
		messages, err = i.messages.ListByConversationAfter(ctx, conv.ID, lastSynced, firstSyncMessageLimit)
	} else {
		messages, err = i.messages.ListRecentByConversation(ctx, conv.ID, firstSyncMessageLimit)
	}
	if err != nil {
		slog.WarnContext(ctx, "failed to load messages for followups", "error", err)
		return
	}
	if len(messages) == 0 {
		return
	}

	settings := job.Settings()
	for idx := range messages {
		msg := &messages[idx]
		if _, err := client.CreateFollowup(ctx, MapFollowup(msg, ticketID, settings)); err != nil {
			slog.WarnContext(ctx, "failed to create followup", "message_id", msg.ID, "error", err)
		}
	}

	latest := messages[len(messages)-1].ID
	if err := job.Links.SetLastSyncedMessage(ctx, conv.ID, latest); err != nil {
		slog.WarnContext(ctx, "failed to advance followup position", "error", err)
	}
}
