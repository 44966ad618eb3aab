package model

import "time"

type MessageType string

const (
	MessageTypeIncoming MessageType = "incoming"
	MessageTypeOutgoing MessageType = "outgoing"
	MessageTypeActivity MessageType = "activity"
)

type Attachment struct {
	FileName string `json:"file_name"`
	FileType string `json:"file_type,omitempty"`
	URL      string `json:"url"`
}

type Message struct {
	ID             int64        `json:"id"`
	ConversationID int64        `json:"conversation_id"`
	Content        string       `json:"content"`
	MessageType    MessageType  `json:"message_type"`
	Private        bool         `json:"private"`
	SenderName     string       `json:"sender_name,omitempty"`
	SenderKind     string       `json:"sender_kind,omitempty"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// Outgoing reports whether the message was sent by an agent rather than
// received from the contact.
func (m *Message) Outgoing() bool {
	return m.MessageType == MessageTypeOutgoing
}
