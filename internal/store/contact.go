package store

import (
	"context"
	"encoding/json"
	"errors"

	"chatsync.app/bridge/core/db"
	"chatsync.app/bridge/internal/model"
	"github.com/jackc/pgx/v5"
)

type contactStore struct {
	q db.Querier
}

func newContactStore(q db.Querier) ContactStore {
	return &contactStore{q: q}
}

func (s *contactStore) GetByID(ctx context.Context, contactID int64) (*model.Contact, error) {
	row := s.q.QueryRow(ctx, `
		SELECT id, account_id, name, email, phone_number, additional_attributes, created_at, updated_at
		FROM contacts WHERE id = $1`, contactID)

	var (
		c     model.Contact
		attrs []byte
	)
	err := row.Scan(&c.ID, &c.AccountID, &c.Name, &c.Email, &c.PhoneNumber, &attrs, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(attrs) > 0 {
		_ = json.Unmarshal(attrs, &c.AdditionalAttributes)
	}
	return &c, nil
}

// Upsert mirrors the helpdesk's contact row locally. The helpdesk owns the
// record; this copy exists so the worker never has to call back out for
// entity data mid-sync.
func (s *contactStore) Upsert(ctx context.Context, contact *model.Contact) error {
	attrs, err := json.Marshal(contact.AdditionalAttributes)
	if err != nil {
		return err
	}
	_, err = s.q.Exec(ctx, `
		INSERT INTO contacts (id, account_id, name, email, phone_number, additional_attributes)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone_number = EXCLUDED.phone_number,
			additional_attributes = EXCLUDED.additional_attributes,
			updated_at = now()`,
		contact.ID, contact.AccountID, contact.Name, contact.Email, contact.PhoneNumber, attrs)
	return err
}
