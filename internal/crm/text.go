package crm

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	"chatsync.app/bridge/internal/model"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nyaruka/phonenumbers"
)

var stripPolicy = bluemonday.StrictPolicy()

// SplitName splits a display name into first and last parts. Everything
// after the first space belongs to the last name; single-token and empty
// names degrade gracefully.
func SplitName(fullName string) (first, last string) {
	trimmed := strings.TrimSpace(fullName)
	if trimmed == "" {
		return "", ""
	}
	parts := strings.SplitN(trimmed, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

// FormatPhone normalizes a phone number to E.164. Unparseable or invalid
// input passes through unchanged; a bad number should never block a sync.
func FormatPhone(phone string) string {
	if phone == "" {
		return ""
	}
	parsed, err := phonenumbers.Parse(phone, "")
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return phone
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}

// StripHTML reduces rich message content to plain text.
func StripHTML(content string) string {
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(content)))
}

// Truncate caps s at limit runes, ending with an ellipsis marker when cut.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

// Compact returns a copy of payload without empty values. Remote APIs treat
// an explicit null differently from an absent field, so empties are omitted
// rather than sent.
func Compact(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		if emptyValue(v) {
			continue
		}
		out[k] = v
	}
	return out
}

func emptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	case []map[string]any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	}
	return false
}

// AttachmentList renders attachments as a bulleted block for inclusion in
// remote note bodies.
func AttachmentList(attachments []model.Attachment) string {
	if len(attachments) == 0 {
		return ""
	}
	lines := make([]string, 0, len(attachments))
	for _, a := range attachments {
		lines = append(lines, "- "+a.URL)
	}
	return strings.Join(lines, "\n")
}

// FormatTimestamp renders timestamps the way remote note bodies expect.
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// EncodeAttributes JSON-encodes leftover custom attributes for description
// bodies, skipping the given keys.
func EncodeAttributes(attrs map[string]any, skip ...string) string {
	if len(attrs) == 0 {
		return ""
	}
	filtered := map[string]any{}
	for k, v := range attrs {
		skipped := false
		for _, s := range skip {
			if k == s {
				skipped = true
				break
			}
		}
		if !skipped {
			filtered[k] = v
		}
	}
	if len(filtered) == 0 {
		return ""
	}
	encoded, err := json.Marshal(filtered)
	if err != nil {
		return ""
	}
	return string(encoded)
}

// ConversationURL builds the helpdesk link for a conversation.
func ConversationURL(frontendURL string, accountID, displayID int64) string {
	return fmt.Sprintf("%s/app/accounts/%d/conversations/%d",
		strings.TrimRight(frontendURL, "/"), accountID, displayID)
}
