package glpi

import (
	"fmt"
	"strconv"
	"time"

	"chatsync.app/bridge/internal/crm"
	"chatsync.app/bridge/internal/model"
)

// Conversation status to GLPI ticket status. GLPI: 1 New, 2 Processing,
// 4 Pending, 5 Solved, 6 Closed. Snoozed conversations stay Processing
// since GLPI has no equivalent.
var statusCodes = map[model.ConversationStatus]int{
	model.ConversationStatusOpen:     2,
	model.ConversationStatusPending:  4,
	model.ConversationStatusResolved: 5,
	model.ConversationStatusSnoozed:  2,
}

// Conversation priority to GLPI ticket priority. GLPI: 1 Very Low up to
// 5 Very High.
var priorityCodes = map[model.ConversationPriority]int{
	model.PriorityLow:    2,
	model.PriorityMedium: 3,
	model.PriorityHigh:   4,
	model.PriorityUrgent: 5,
}

func MapStatus(status model.ConversationStatus) int {
	if code, ok := statusCodes[status]; ok {
		return code
	}
	return 1
}

func MapPriority(priority model.ConversationPriority) int {
	if code, ok := priorityCodes[priority]; ok {
		return code
	}
	return 3
}

// MapUser renders a contact as a GLPI User. The name field is the login,
// which GLPI requires to be unique; email or phone serves.
func MapUser(contact *model.Contact, entityID int) map[string]any {
	first, last := crm.SplitName(contact.Name)

	login := contact.Email
	if login == "" {
		login = contact.PhoneNumber
	}
	phone := crm.FormatPhone(contact.PhoneNumber)

	payload := map[string]any{
		"name":        login,
		"firstname":   first,
		"realname":    last,
		"phone":       phone,
		"mobile":      phone,
		"entities_id": entityID,
	}
	if contact.Email != "" {
		payload["_useremails"] = []string{contact.Email}
	}
	return crm.Compact(payload)
}

// MapContact renders a contact as a GLPI Contact, the login-less external
// counterpart to a User.
func MapContact(contact *model.Contact, entityID int) map[string]any {
	first, _ := crm.SplitName(contact.Name)
	return crm.Compact(map[string]any{
		"name":        contact.Name,
		"firstname":   first,
		"email":       contact.Email,
		"phone":       crm.FormatPhone(contact.PhoneNumber),
		"entities_id": entityID,
	})
}

// MapTicket renders a conversation as a GLPI Ticket. The opening message
// becomes the ticket body; without one a placeholder names the contact.
func MapTicket(conv *model.Conversation, firstMessage *model.Message, contactName, requesterID string, entityID int, settings map[string]any) map[string]any {
	payload := map[string]any{
		"name":                fmt.Sprintf("Conversation #%d", conv.DisplayID),
		"content":             ticketContent(firstMessage, contactName),
		"status":              MapStatus(conv.Status),
		"priority":            MapPriority(conv.Priority),
		"_users_id_requester": numericID(requesterID),
		"entities_id":         entityID,
		"type":                ticketType(settings),
	}
	if category, ok := settings["category_id"]; ok && category != nil {
		payload["itilcategories_id"] = category
	}
	return crm.Compact(payload)
}

// MapTicketUpdate carries only the fields that change over a
// conversation's life.
func MapTicketUpdate(conv *model.Conversation) map[string]any {
	return map[string]any{
		"status":   MapStatus(conv.Status),
		"priority": MapPriority(conv.Priority),
	}
}

// MapFollowup renders a message as an ITILFollowup on the given ticket.
// Private messages become private followups, visible to technicians only.
func MapFollowup(msg *model.Message, ticketID string, settings map[string]any) map[string]any {
	isPrivate := 0
	if msg.Private {
		isPrivate = 1
	}
	return crm.Compact(map[string]any{
		"itemtype":   "Ticket",
		"items_id":   numericID(ticketID),
		"content":    followupContent(msg),
		"is_private": isPrivate,
		"date":       msg.CreatedAt.Format(time.RFC3339),
		"users_id":   defaultUserID(settings),
	})
}

func ticketContent(firstMessage *model.Message, contactName string) string {
	if firstMessage != nil {
		return followupContent(firstMessage)
	}
	if contactName == "" {
		contactName = "Unknown"
	}
	return "New conversation from " + contactName
}

func followupContent(msg *model.Message) string {
	sender := msg.SenderName
	if sender == "" {
		sender = "Unknown"
	}
	content := fmt.Sprintf("[%s] %s:\n%s", crm.FormatTimestamp(msg.CreatedAt), sender, crm.StripHTML(msg.Content))
	if len(msg.Attachments) > 0 {
		content += "\n\nAttachments:\n" + crm.AttachmentList(msg.Attachments)
	}
	return content
}

func ticketType(settings map[string]any) any {
	if t, ok := settings["ticket_type"]; ok && t != nil && t != "" {
		return t
	}
	// 1 is Incident.
	return 1
}

func defaultUserID(settings map[string]any) any {
	if id, ok := settings["default_user_id"]; ok && id != nil && id != "" {
		return id
	}
	return 0
}

func numericID(id string) any {
	if id == "" {
		return nil
	}
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}
