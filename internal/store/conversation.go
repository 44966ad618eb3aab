package store

import (
	"context"
	"encoding/json"
	"errors"

	"chatsync.app/bridge/core/db"
	"chatsync.app/bridge/internal/model"
	"github.com/jackc/pgx/v5"
)

type conversationStore struct {
	q db.Querier
}

func newConversationStore(q db.Querier) ConversationStore {
	return &conversationStore{q: q}
}

func (s *conversationStore) GetByID(ctx context.Context, convID int64) (*model.Conversation, error) {
	row := s.q.QueryRow(ctx, `
		SELECT id, account_id, display_id, contact_id, inbox_name, channel, assignee_name,
		       status, priority, labels, custom_attributes, created_at, updated_at
		FROM conversations WHERE id = $1`, convID)

	var (
		c        model.Conversation
		status   string
		priority string
		attrs    []byte
	)
	err := row.Scan(&c.ID, &c.AccountID, &c.DisplayID, &c.ContactID, &c.InboxName, &c.Channel,
		&c.AssigneeName, &status, &priority, &c.Labels, &attrs, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.Status = model.ConversationStatus(status)
	c.Priority = model.ConversationPriority(priority)
	if len(attrs) > 0 {
		_ = json.Unmarshal(attrs, &c.CustomAttributes)
	}
	return &c, nil
}

func (s *conversationStore) Upsert(ctx context.Context, conv *model.Conversation) error {
	attrs, err := json.Marshal(conv.CustomAttributes)
	if err != nil {
		return err
	}
	labels := conv.Labels
	if labels == nil {
		labels = []string{}
	}
	_, err = s.q.Exec(ctx, `
		INSERT INTO conversations (id, account_id, display_id, contact_id, inbox_name, channel,
		                           assignee_name, status, priority, labels, custom_attributes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			display_id = EXCLUDED.display_id,
			contact_id = EXCLUDED.contact_id,
			inbox_name = EXCLUDED.inbox_name,
			channel = EXCLUDED.channel,
			assignee_name = EXCLUDED.assignee_name,
			status = EXCLUDED.status,
			priority = EXCLUDED.priority,
			labels = EXCLUDED.labels,
			custom_attributes = EXCLUDED.custom_attributes,
			updated_at = now()`,
		conv.ID, conv.AccountID, conv.DisplayID, conv.ContactID, conv.InboxName, conv.Channel,
		conv.AssigneeName, string(conv.Status), string(conv.Priority), labels, attrs)
	return err
}
