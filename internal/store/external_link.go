package store

import (
	"context"
	"errors"

	"chatsync.app/bridge/common/id"
	"chatsync.app/bridge/core/db"
	"chatsync.app/bridge/internal/model"
	"github.com/jackc/pgx/v5"
)

type externalLinkStore struct {
	q db.Querier
}

func newExternalLinkStore(q db.Querier) ExternalLinkStore {
	return &externalLinkStore{q: q}
}

const linkColumns = `id, hook_id, record_kind, record_id, source_id, last_synced_message_id, created_at, updated_at`

func (s *externalLinkStore) Get(ctx context.Context, hookID int64, kind model.RecordKind, recordID int64) (*model.ExternalLink, error) {
	row := s.q.QueryRow(ctx, `
		SELECT `+linkColumns+` FROM external_links
		WHERE hook_id = $1 AND record_kind = $2 AND record_id = $3`,
		hookID, string(kind), recordID)
	link, err := scanLink(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return link, nil
}

// UpsertSourceID writes the encoded identity field for a record, creating the
// link row on first write. Writes happen only inside the hook-scoped lock, so
// last-write-wins here is safe.
func (s *externalLinkStore) UpsertSourceID(ctx context.Context, hookID int64, kind model.RecordKind, recordID int64, sourceID string) (*model.ExternalLink, error) {
	row := s.q.QueryRow(ctx, `
		INSERT INTO external_links (id, hook_id, record_kind, record_id, source_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (hook_id, record_kind, record_id) DO UPDATE SET
			source_id = EXCLUDED.source_id,
			updated_at = now()
		RETURNING `+linkColumns,
		id.New(), hookID, string(kind), recordID, sourceID)
	return scanLink(row)
}

func (s *externalLinkStore) SetLastSyncedMessage(ctx context.Context, linkID int64, messageID int64) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE external_links SET last_synced_message_id = $2, updated_at = now()
		WHERE id = $1`,
		linkID, messageID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanLink(row pgx.Row) (*model.ExternalLink, error) {
	var (
		l    model.ExternalLink
		kind string
	)
	err := row.Scan(&l.ID, &l.HookID, &kind, &l.RecordID, &l.SourceID,
		&l.LastSyncedMessageID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.RecordKind = model.RecordKind(kind)
	return &l, nil
}
