package store

import (
	"context"
	"encoding/json"
	"errors"

	"chatsync.app/bridge/core/db"
	"chatsync.app/bridge/internal/model"
	"github.com/jackc/pgx/v5"
)

type messageStore struct {
	q db.Querier
}

func newMessageStore(q db.Querier) MessageStore {
	return &messageStore{q: q}
}

const messageColumns = `id, conversation_id, content, message_type, private, sender_name, sender_kind, attachments, created_at`

func (s *messageStore) GetByID(ctx context.Context, messageID int64) (*model.Message, error) {
	row := s.q.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, messageID)
	m, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (s *messageStore) Upsert(ctx context.Context, msg *model.Message) error {
	attachments, err := json.Marshal(msg.Attachments)
	if err != nil {
		return err
	}
	_, err = s.q.Exec(ctx, `
		INSERT INTO messages (id, conversation_id, content, message_type, private, sender_name, sender_kind, attachments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			message_type = EXCLUDED.message_type,
			private = EXCLUDED.private,
			sender_name = EXCLUDED.sender_name,
			sender_kind = EXCLUDED.sender_kind,
			attachments = EXCLUDED.attachments`,
		msg.ID, msg.ConversationID, msg.Content, string(msg.MessageType), msg.Private,
		msg.SenderName, msg.SenderKind, attachments, msg.CreatedAt)
	return err
}

// ListByConversationAfter returns non-private messages with id greater than
// afterID, oldest first. Used for incremental followup sync.
func (s *messageStore) ListByConversationAfter(ctx context.Context, conversationID, afterID int64, limit int32) ([]model.Message, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE conversation_id = $1 AND id > $2 AND private = false
		ORDER BY id ASC LIMIT $3`,
		conversationID, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMessages(rows)
}

// ListRecentByConversation returns the latest non-private messages, oldest
// first, capped at limit. Used on the first followup sync of a conversation.
func (s *messageStore) ListRecentByConversation(ctx context.Context, conversationID int64, limit int32) ([]model.Message, error) {
	rows, err := s.q.Query(ctx, `
		SELECT * FROM (
			SELECT `+messageColumns+` FROM messages
			WHERE conversation_id = $1 AND private = false
			ORDER BY id DESC LIMIT $2
		) recent ORDER BY id ASC`,
		conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMessages(rows)
}

// HasOutgoingMessage reports whether an agent has replied on the
// conversation yet. Drives lead stage progression.
func (s *messageStore) HasOutgoingMessage(ctx context.Context, conversationID int64) (bool, error) {
	var exists bool
	err := s.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM messages
			WHERE conversation_id = $1 AND message_type = 'outgoing'
		)`, conversationID).Scan(&exists)
	return exists, err
}

func collectMessages(rows pgx.Rows) ([]model.Message, error) {
	var msgs []model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}

func scanMessage(row pgx.Row) (*model.Message, error) {
	var (
		m           model.Message
		messageType string
		attachments []byte
	)
	err := row.Scan(&m.ID, &m.ConversationID, &m.Content, &messageType, &m.Private,
		&m.SenderName, &m.SenderKind, &attachments, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.MessageType = model.MessageType(messageType)
	if len(attachments) > 0 {
		_ = json.Unmarshal(attachments, &m.Attachments)
	}
	return &m, nil
}
