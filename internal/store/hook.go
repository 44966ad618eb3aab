package store

import (
	"context"
	"errors"
	"time"

	"chatsync.app/bridge/common/id"
	"chatsync.app/bridge/core/db"
	"chatsync.app/bridge/internal/model"
	"github.com/jackc/pgx/v5"
)

type hookStore struct {
	q db.Querier
}

func newHookStore(q db.Querier) HookStore {
	return &hookStore{q: q}
}

const hookColumns = `id, account_id, inbox_id, app_id, status, settings, created_at, updated_at`

func (s *hookStore) GetByID(ctx context.Context, hookID int64) (*model.Hook, error) {
	row := s.q.QueryRow(ctx, `SELECT `+hookColumns+` FROM hooks WHERE id = $1`, hookID)
	return scanHook(row)
}

func (s *hookStore) GetByInboxAndApp(ctx context.Context, inboxID int64, appID model.AppID) (*model.Hook, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+hookColumns+` FROM hooks WHERE inbox_id = $1 AND app_id = $2`,
		inboxID, string(appID))
	return scanHook(row)
}

func (s *hookStore) Create(ctx context.Context, hook *model.Hook) error {
	if hook.ID == 0 {
		hook.ID = id.New()
	}
	settings := hook.Settings
	if len(settings) == 0 {
		settings = []byte(`{}`)
	}
	row := s.q.QueryRow(ctx, `
		INSERT INTO hooks (id, account_id, inbox_id, app_id, status, settings)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+hookColumns,
		hook.ID, hook.AccountID, hook.InboxID, string(hook.AppID), string(hook.Status), settings)
	created, err := scanHook(row)
	if err != nil {
		return err
	}
	*hook = *created
	return nil
}

func (s *hookStore) UpdateSettings(ctx context.Context, hookID int64, settings []byte) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE hooks SET settings = $2, updated_at = now() WHERE id = $1`,
		hookID, settings)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *hookStore) UpdateStatus(ctx context.Context, hookID int64, status model.HookStatus) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE hooks SET status = $2, updated_at = now() WHERE id = $1`,
		hookID, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *hookStore) ListByAccount(ctx context.Context, accountID int64) ([]model.Hook, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+hookColumns+` FROM hooks WHERE account_id = $1 ORDER BY id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hooks []model.Hook
	for rows.Next() {
		h, err := scanHookRow(rows)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, *h)
	}
	return hooks, rows.Err()
}

func scanHook(row pgx.Row) (*model.Hook, error) {
	h, err := scanHookRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return h, nil
}

func scanHookRow(row pgx.Row) (*model.Hook, error) {
	var (
		h         model.Hook
		appID     string
		status    string
		settings  []byte
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&h.ID, &h.AccountID, &h.InboxID, &appID, &status, &settings, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	h.AppID = model.AppID(appID)
	h.Status = model.HookStatus(status)
	h.Settings = settings
	h.CreatedAt = createdAt
	h.UpdatedAt = updatedAt
	return &h, nil
}
