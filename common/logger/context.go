package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within
// a context. Fields flow through context enrichment, so business context
// (hook_id, event_type, etc.) shows up in every log statement without each
// call site having to repeat it.
type LogFields struct {
	HookID         *int64  // Integration hook ID
	ContactID      *int64  // Local contact ID
	ConversationID *int64  // Local conversation ID
	MessageID      *string // Redis stream message ID
	EventType      *string // Sync event type (e.g. "contact_created")
	Integration    *string // Integration app id (e.g. "krayin", "glpi")
	Component      string  // Component name (e.g. "bridge.crm.engine")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking
// precedence. Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, update LogFields) LogFields {
	result := existing

	if update.HookID != nil {
		result.HookID = update.HookID
	}
	if update.ContactID != nil {
		result.ContactID = update.ContactID
	}
	if update.ConversationID != nil {
		result.ConversationID = update.ConversationID
	}
	if update.MessageID != nil {
		result.MessageID = update.MessageID
	}
	if update.EventType != nil {
		result.EventType = update.EventType
	}
	if update.Integration != nil {
		result.Integration = update.Integration
	}
	if update.Component != "" {
		result.Component = update.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{HookID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if
// truncated. Useful for logging potentially long strings like response bodies.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
