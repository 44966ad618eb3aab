package crm

import (
	"context"
	"fmt"

	"chatsync.app/bridge/internal/model"
)

// Job is one gate-checked sync event with its records loaded. Which record
// fields are populated depends on the event kind: contact events carry the
// contact, conversation events add the conversation, message events carry
// all three.
type Job struct {
	Hook         *model.Hook
	Type         EventType
	Contact      *model.Contact
	Conversation *model.Conversation
	Message      *model.Message
	Links        *Links
}

// Settings is a shortcut to the hook's decoded settings map.
func (j *Job) Settings() map[string]any {
	return j.Hook.SettingsMap()
}

// Integration is the capability interface each CRM backend implements. The
// engine is generic over it: backends decide how a local record maps onto
// their entity model, the engine decides when a backend runs.
//
// Implementations must serialize their resolve-and-store identity sequence
// with the hook's processing lock (LockKey) and surface lock.ErrNotAcquired
// unwrapped so the surrounding job is retried.
type Integration interface {
	SyncContact(ctx context.Context, job *Job) error
	SyncConversation(ctx context.Context, job *Job) error
	SyncMessage(ctx context.Context, job *Job) error
}

// LockKey names the per-hook processing mutex. Near-simultaneous events for
// a brand-new contact (contact created, then updated, then conversation
// created within milliseconds) would otherwise race their finders: both miss
// the not-yet-created remote entity and both create it. Serializing on this
// key means the second resolution observes the id the first one persisted.
func LockKey(hookID int64) string {
	return fmt.Sprintf("crm:process:hook-%d", hookID)
}
