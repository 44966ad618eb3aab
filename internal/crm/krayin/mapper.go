package krayin

import (
	"fmt"
	"strconv"
	"strings"

	"chatsync.app/bridge/core/config"
	"chatsync.app/bridge/internal/crm"
	"chatsync.app/bridge/internal/model"
)

// Mapping functions are pure: local records in, remote payloads out. All
// outputs are compacted so absent fields are omitted instead of sent null.

func MapPerson(contact *model.Contact) map[string]any {
	payload := map[string]any{
		"name": contact.Name,
	}
	if contact.Email != "" {
		payload["emails"] = []map[string]any{{"value": contact.Email, "label": "work"}}
	}
	if contact.PhoneNumber != "" {
		payload["contact_numbers"] = []map[string]any{{"value": crm.FormatPhone(contact.PhoneNumber), "label": "work"}}
	}
	if jobTitle, ok := contact.AdditionalAttributes["job_title"].(string); ok {
		payload["job_title"] = jobTitle
	}
	return crm.Compact(payload)
}

func MapLead(contact *model.Contact, personID string, settings map[string]any, brand config.BrandConfig) map[string]any {
	title := contact.Name
	if title == "" {
		title = fmt.Sprintf("Contact %d", contact.ID)
	}
	payload := map[string]any{
		"title":                  title,
		"person_id":              numericID(personID),
		"lead_value":             leadValue(contact),
		"description":            buildLeadDescription(contact, brand),
		"lead_source_id":         setting(settings, "lead_source_id", "default_source_id"),
		"lead_type_id":           setting(settings, "lead_type_id", "default_lead_type_id"),
		"lead_pipeline_id":       setting(settings, "lead_pipeline_id", "default_pipeline_id"),
		"lead_pipeline_stage_id": setting(settings, "lead_pipeline_stage_id", "default_stage_id"),
	}
	return crm.Compact(payload)
}

func MapOrganization(contact *model.Contact) map[string]any {
	name := organizationName(contact)
	if name == "" {
		return nil
	}
	return map[string]any{"name": name}
}

// HasOrganization reports whether the contact carries company data worth
// syncing as a Krayin organization.
func HasOrganization(contact *model.Contact) bool {
	return organizationName(contact) != ""
}

func organizationName(contact *model.Contact) string {
	if name := contact.CompanyName(); name != "" {
		return name
	}
	name, _ := contact.AdditionalAttributes["company"].(string)
	return name
}

// MapConversationActivity renders a conversation as a Krayin note activity.
// recentMessages is the trailing slice of the conversation, oldest first.
func MapConversationActivity(conv *model.Conversation, recentMessages []model.Message, personID string, brand config.BrandConfig) map[string]any {
	return crm.Compact(map[string]any{
		"type":      "note",
		"title":     fmt.Sprintf("Conversation #%d", conv.DisplayID),
		"comment":   buildConversationComment(conv, recentMessages, brand),
		"person_id": numericID(personID),
		"is_done":   conv.Status == model.ConversationStatusResolved,
	})
}

// MapMessageActivity renders a single message as an activity. The activity
// type follows the conversation channel, falling back to the message
// direction for web and API channels.
func MapMessageActivity(msg *model.Message, conv *model.Conversation, personID string, brand config.BrandConfig) map[string]any {
	sender := msg.SenderName
	if sender == "" {
		sender = "System"
	}
	return crm.Compact(map[string]any{
		"type":      activityType(msg, conv),
		"title":     fmt.Sprintf("Message from %s - Conversation #%d", sender, conv.DisplayID),
		"comment":   buildMessageComment(msg, conv, brand),
		"person_id": numericID(personID),
		"is_done":   true,
	})
}

func activityType(msg *model.Message, conv *model.Conversation) string {
	switch strings.ToLower(conv.Channel) {
	case "email":
		return "email"
	case "sms", "whatsapp":
		// Krayin has no SMS activity type; calls are the closest fit.
		return "call"
	default:
		if msg.Outgoing() {
			return "email"
		}
		return "note"
	}
}

func buildLeadDescription(contact *model.Contact, brand config.BrandConfig) string {
	var parts []string
	if contact.Email != "" {
		parts = append(parts, "Email: "+contact.Email)
	}
	if contact.PhoneNumber != "" {
		parts = append(parts, "Phone: "+contact.PhoneNumber)
	}
	if name := organizationName(contact); name != "" {
		parts = append(parts, "Company: "+name)
	}
	parts = append(parts, "Source: "+brand.Name)
	if extra := crm.EncodeAttributes(contact.AdditionalAttributes, "company", "company_name", "job_title", "lead_value"); extra != "" {
		parts = append(parts, "Additional Info: "+extra)
	}
	return strings.Join(parts, "\n")
}

func buildConversationComment(conv *model.Conversation, recentMessages []model.Message, brand config.BrandConfig) string {
	assignee := conv.AssigneeName
	if assignee == "" {
		assignee = "Unassigned"
	}
	priority := string(conv.Priority)
	if priority == "" {
		priority = "None"
	}

	var parts []string
	parts = append(parts,
		"**Conversation Details**",
		fmt.Sprintf("ID: %d", conv.DisplayID),
		"Status: "+string(conv.Status),
		"Inbox: "+conv.InboxName,
		"Assignee: "+assignee,
		"Priority: "+priority,
		"")
	if len(conv.Labels) > 0 {
		parts = append(parts, "Labels: "+strings.Join(conv.Labels, ", "), "")
	}
	if len(conv.CustomAttributes) > 0 {
		parts = append(parts, "**Custom Attributes**")
		for key, value := range conv.CustomAttributes {
			parts = append(parts, fmt.Sprintf("%s: %v", key, value))
		}
		parts = append(parts, "")
	}
	parts = append(parts,
		"**View Conversation**",
		crm.ConversationURL(brand.FrontendURL, conv.AccountID, conv.DisplayID),
		"",
		"**Recent Messages**",
		messageSummary(recentMessages),
		"",
		"Source: "+brand.Name)
	return strings.Join(parts, "\n")
}

func messageSummary(messages []model.Message) string {
	if len(messages) == 0 {
		return "No messages yet"
	}
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		sender := msg.SenderName
		if sender == "" {
			sender = "System"
		}
		content := crm.Truncate(crm.StripHTML(msg.Content), 150)
		lines = append(lines, fmt.Sprintf("%s - %s: %s", msg.CreatedAt.Format("2006-01-02 15:04"), sender, content))
	}
	return strings.Join(lines, "\n")
}

func buildMessageComment(msg *model.Message, conv *model.Conversation, brand config.BrandConfig) string {
	sender := msg.SenderName
	if sender == "" {
		sender = "System"
	}
	content := crm.StripHTML(msg.Content)
	if content == "" {
		content = "[No content]"
	}

	var parts []string
	parts = append(parts,
		"**Message Details**",
		"From: "+sender,
		"Type: "+string(msg.MessageType),
		"Timestamp: "+crm.FormatTimestamp(msg.CreatedAt),
		"",
		"**Message Content**",
		content,
		"")
	if len(msg.Attachments) > 0 {
		parts = append(parts, "**Attachments**", crm.AttachmentList(msg.Attachments), "")
	}
	parts = append(parts,
		"**Conversation Context**",
		fmt.Sprintf("Conversation ID: %d", conv.DisplayID),
		"Status: "+string(conv.Status),
		"Inbox: "+conv.InboxName,
		"",
		"Source: "+brand.Name)
	return strings.Join(parts, "\n")
}

func leadValue(contact *model.Contact) any {
	if v, ok := contact.AdditionalAttributes["lead_value"]; ok {
		switch value := v.(type) {
		case float64:
			return value
		case string:
			if parsed, err := strconv.ParseFloat(value, 64); err == nil {
				return parsed
			}
		}
	}
	return 0.0
}

// setting returns the first present value among keys, so explicit settings
// override setup defaults.
func setting(settings map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := settings[key]; ok && v != nil && v != "" {
			return v
		}
	}
	return nil
}

// numericID converts a stored string id back to a number where possible;
// Krayin expects numeric foreign keys.
func numericID(id string) any {
	if id == "" {
		return nil
	}
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}
