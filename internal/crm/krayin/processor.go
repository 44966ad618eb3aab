package krayin

import (
	"context"
	"log/slog"

	"chatsync.app/bridge/core/config"
	"chatsync.app/bridge/internal/crm"
	"chatsync.app/bridge/internal/crm/api"
	"chatsync.app/bridge/internal/lock"
	"chatsync.app/bridge/internal/model"
	"chatsync.app/bridge/internal/store"
)

// Integration implements the Krayin backend. Contacts map to person+lead
// pairs, conversations and messages to activities. The resolve-and-store
// identity chains run under the hook's processing lock; activity appends
// for messages do not touch identity and run unlocked.
type Integration struct {
	locker     lock.Locker
	messages   store.MessageStore
	brand      config.BrandConfig
	clientOpts []api.Option
}

func New(locker lock.Locker, messages store.MessageStore, brand config.BrandConfig, clientOpts ...api.Option) *Integration {
	return &Integration{
		locker:     locker,
		messages:   messages,
		brand:      brand,
		clientOpts: clientOpts,
	}
}

func (i *Integration) client(hook *model.Hook) *Client {
	return NewClient(hook.Setting("api_url"), hook.Setting("api_token"), i.clientOpts...)
}

// SyncContact resolves the remote person (and organization, when enabled)
// and the dependent lead, persisting every id it resolves. The whole chain
// holds the lock: the organization and person resolutions feed the lead
// resolution, so a narrower critical section would reopen the duplicate
// race between overlapping events.
func (i *Integration) SyncContact(ctx context.Context, job *crm.Job) error {
	client := i.client(job.Hook)
	contact := job.Contact
	settings := job.Settings()

	return i.locker.WithLock(ctx, crm.LockKey(job.Hook.ID), func(ctx context.Context) error {
		var orgID string
		if job.Hook.BoolSetting("sync_to_organization") && HasOrganization(contact) {
			orgID = i.syncOrganization(ctx, client, job)
		}

		personID, err := NewPersonFinder(client, job.Links).FindOrCreate(ctx, contact)
		if err != nil {
			return err
		}
		if err := job.Links.Store(ctx, model.RecordKindContact, contact.ID, "person", personID); err != nil {
			return err
		}

		if orgID != "" {
			if err := client.UpdatePerson(ctx, personID, map[string]any{"organization_id": numericID(orgID)}); err != nil {
				// The person still syncs without the org link.
				slog.WarnContext(ctx, "failed to link person to organization",
					"person_id", personID, "organization_id", orgID, "error", err)
			}
		}

		leadID, err := NewLeadFinder(client, job.Links, i.brand).FindOrCreate(ctx, contact, personID, settings)
		if err != nil {
			return err
		}
		if err := job.Links.Store(ctx, model.RecordKindContact, contact.ID, "lead", leadID); err != nil {
			return err
		}

		if job.Type == crm.EventContactCreated && job.Hook.BoolSetting("stage_progression_enabled") {
			i.updateLeadStage(ctx, client, leadID, setting(settings, "stage_on_conversation_created"))
		}

		slog.InfoContext(ctx, "contact synced", "person_id", personID, "lead_id", leadID)
		return nil
	})
}

// SyncConversation creates or updates the note activity mirroring the
// conversation, tied to the person resolved by an earlier contact event.
func (i *Integration) SyncConversation(ctx context.Context, job *crm.Job) error {
	personID, err := job.Links.Get(ctx, model.RecordKindContact, job.Contact.ID, "person")
	if err != nil {
		return err
	}
	if personID == "" {
		slog.DebugContext(ctx, "no person resolved yet, skipping conversation sync")
		return nil
	}

	client := i.client(job.Hook)
	conv := job.Conversation

	recent, err := i.messages.ListRecentByConversation(ctx, conv.ID, 5)
	if err != nil {
		slog.WarnContext(ctx, "failed to load recent messages", "error", err)
	}
	payload := MapConversationActivity(conv, recent, personID, i.brand)

	err = i.locker.WithLock(ctx, crm.LockKey(job.Hook.ID), func(ctx context.Context) error {
		activityID, err := job.Links.Get(ctx, model.RecordKindConversation, conv.ID, "activity")
		if err != nil {
			return err
		}
		if activityID != "" {
			return client.UpdateActivity(ctx, activityID, payload)
		}
		record, err := client.CreateActivity(ctx, payload)
		if err != nil {
			return err
		}
		if record.ID() == "" {
			return ErrMissingID
		}
		return job.Links.Store(ctx, model.RecordKindConversation, conv.ID, "activity", record.ID())
	})
	if err != nil {
		return err
	}

	if job.Hook.BoolSetting("stage_progression_enabled") {
		i.progressLeadStage(ctx, client, job)
	}
	return nil
}

// SyncMessage appends one activity per message. No identity is stored, so
// no lock is taken.
func (i *Integration) SyncMessage(ctx context.Context, job *crm.Job) error {
	personID, err := job.Links.Get(ctx, model.RecordKindContact, job.Contact.ID, "person")
	if err != nil {
		return err
	}
	if personID == "" {
		slog.DebugContext(ctx, "no person resolved yet, skipping message sync")
		return nil
	}

	client := i.client(job.Hook)
	payload := MapMessageActivity(job.Message, job.Conversation, personID, i.brand)
	record, err := client.CreateActivity(ctx, payload)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "message activity created", "activity_id", record.ID())
	return nil
}

// syncOrganization resolves the contact's company to a Krayin organization.
// Failures are logged and reported as a miss; the person sync proceeds
// without the link.
func (i *Integration) syncOrganization(ctx context.Context, client *Client, job *crm.Job) string {
	contact := job.Contact
	payload := MapOrganization(contact)
	if payload == nil {
		return ""
	}

	stored, err := job.Links.Get(ctx, model.RecordKindContact, contact.ID, "organization")
	if err != nil {
		slog.WarnContext(ctx, "failed to read stored organization id", "error", err)
		return ""
	}
	if stored != "" {
		if err := client.UpdateOrganization(ctx, stored, payload); err != nil {
			slog.WarnContext(ctx, "failed to update organization", "organization_id", stored, "error", err)
		}
		return stored
	}

	orgs, err := client.SearchOrganizations(ctx, payload["name"].(string))
	if err != nil {
		slog.WarnContext(ctx, "organization search failed", "error", err)
	} else if len(orgs) > 0 {
		id := orgs[0].ID()
		i.storeOrganization(ctx, job, id)
		return id
	}

	record, err := client.CreateOrganization(ctx, payload)
	if err != nil || record.ID() == "" {
		slog.WarnContext(ctx, "failed to create organization", "error", err)
		return ""
	}
	i.storeOrganization(ctx, job, record.ID())
	return record.ID()
}

func (i *Integration) storeOrganization(ctx context.Context, job *crm.Job, orgID string) {
	if err := job.Links.Store(ctx, model.RecordKindContact, job.Contact.ID, "organization", orgID); err != nil {
		slog.WarnContext(ctx, "failed to store organization id", "organization_id", orgID, "error", err)
	}
}

// progressLeadStage moves the lead through the pipeline based on the
// conversation lifecycle: created, first agent response, resolved.
func (i *Integration) progressLeadStage(ctx context.Context, client *Client, job *crm.Job) {
	leadID, err := job.Links.Get(ctx, model.RecordKindContact, job.Contact.ID, "lead")
	if err != nil || leadID == "" {
		return
	}

	settings := job.Settings()
	var stage any
	switch job.Conversation.Status {
	case model.ConversationStatusOpen:
		hasResponse, err := i.messages.HasOutgoingMessage(ctx, job.Conversation.ID)
		if err != nil {
			slog.WarnContext(ctx, "failed to check for agent response", "error", err)
			return
		}
		if hasResponse {
			stage = setting(settings, "stage_on_first_response")
		} else {
			stage = setting(settings, "stage_on_conversation_created")
		}
	case model.ConversationStatusResolved:
		stage = setting(settings, "stage_on_conversation_resolved")
	}
	i.updateLeadStage(ctx, client, leadID, stage)
}

func (i *Integration) updateLeadStage(ctx context.Context, client *Client, leadID string, stage any) {
	if stage == nil {
		return
	}
	if err := client.UpdateLead(ctx, leadID, map[string]any{"lead_pipeline_stage_id": stage}); err != nil {
		slog.WarnContext(ctx, "failed to update lead stage", "lead_id", leadID, "error", err)
		return
	}
	slog.InfoContext(ctx, "lead stage updated", "lead_id", leadID, "stage", stage)
}
