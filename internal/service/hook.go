package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"chatsync.app/bridge/internal/model"
	"chatsync.app/bridge/internal/store"
)

var ErrUnknownApp = errors.New("unknown app")

type CreateHookParams struct {
	AccountID int64          `json:"account_id"`
	InboxID   *int64         `json:"inbox_id,omitempty"`
	AppID     string         `json:"app_id"`
	Settings  map[string]any `json:"settings,omitempty"`
}

// HookService manages integration hooks for the admin surface. New hooks
// start disabled; SetupService flips them on once the credentials check out.
type HookService interface {
	Create(ctx context.Context, params CreateHookParams) (*model.Hook, error)
	Get(ctx context.Context, id int64) (*model.Hook, error)
	ListByAccount(ctx context.Context, accountID int64) ([]model.Hook, error)
	UpdateSettings(ctx context.Context, id int64, settings map[string]any) (*model.Hook, error)
	SetStatus(ctx context.Context, id int64, status model.HookStatus) error
}

type hookService struct {
	hooks store.HookStore
}

func NewHookService(hooks store.HookStore) HookService {
	return &hookService{hooks: hooks}
}

func (s *hookService) Create(ctx context.Context, params CreateHookParams) (*model.Hook, error) {
	if params.AccountID == 0 {
		return nil, fmt.Errorf("account_id is required")
	}
	appID := model.AppID(params.AppID)
	switch appID {
	case model.AppKrayin, model.AppGLPI:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownApp, params.AppID)
	}

	settings, err := json.Marshal(params.Settings)
	if err != nil {
		return nil, fmt.Errorf("encoding settings: %w", err)
	}

	hook := &model.Hook{
		AccountID: params.AccountID,
		InboxID:   params.InboxID,
		AppID:     appID,
		Status:    model.HookStatusDisabled,
		Settings:  settings,
	}
	if err := s.hooks.Create(ctx, hook); err != nil {
		return nil, fmt.Errorf("creating hook: %w", err)
	}
	return hook, nil
}

func (s *hookService) Get(ctx context.Context, id int64) (*model.Hook, error) {
	hook, err := s.hooks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrHookNotFound
		}
		return nil, fmt.Errorf("fetching hook: %w", err)
	}
	return hook, nil
}

// UpdateSettings merges the given keys into the stored settings blob.
// Values set to nil are removed.
func (s *hookService) UpdateSettings(ctx context.Context, id int64, settings map[string]any) (*model.Hook, error) {
	hook, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := hook.SettingsMap()
	for k, v := range settings {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}

	encoded, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encoding settings: %w", err)
	}
	if err := s.hooks.UpdateSettings(ctx, id, encoded); err != nil {
		return nil, fmt.Errorf("updating settings: %w", err)
	}
	hook.Settings = encoded
	return hook, nil
}

func (s *hookService) SetStatus(ctx context.Context, id int64, status model.HookStatus) error {
	switch status {
	case model.HookStatusEnabled, model.HookStatusDisabled:
	default:
		return fmt.Errorf("invalid status %q", status)
	}
	if err := s.hooks.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrHookNotFound
		}
		return fmt.Errorf("updating status: %w", err)
	}
	return nil
}

func (s *hookService) ListByAccount(ctx context.Context, accountID int64) ([]model.Hook, error) {
	hooks, err := s.hooks.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("listing hooks: %w", err)
	}
	return hooks, nil
}
