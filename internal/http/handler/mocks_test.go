package handler_test

import (
	"context"

	"chatsync.app/bridge/internal/model"
	"chatsync.app/bridge/internal/service"
)

type mockEventIngestService struct {
	ingestFn func(ctx context.Context, params service.EventIngestParams) (*service.EventIngestResult, error)
}

func (m *mockEventIngestService) Ingest(ctx context.Context, params service.EventIngestParams) (*service.EventIngestResult, error) {
	if m.ingestFn != nil {
		return m.ingestFn(ctx, params)
	}
	return &service.EventIngestResult{}, nil
}

type mockHookService struct {
	createFn         func(ctx context.Context, params service.CreateHookParams) (*model.Hook, error)
	getFn            func(ctx context.Context, id int64) (*model.Hook, error)
	listFn           func(ctx context.Context, accountID int64) ([]model.Hook, error)
	updateSettingsFn func(ctx context.Context, id int64, settings map[string]any) (*model.Hook, error)
	setStatusFn      func(ctx context.Context, id int64, status model.HookStatus) error
}

func (m *mockHookService) Create(ctx context.Context, params service.CreateHookParams) (*model.Hook, error) {
	if m.createFn != nil {
		return m.createFn(ctx, params)
	}
	return nil, nil
}

func (m *mockHookService) Get(ctx context.Context, id int64) (*model.Hook, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, service.ErrHookNotFound
}

func (m *mockHookService) ListByAccount(ctx context.Context, accountID int64) ([]model.Hook, error) {
	if m.listFn != nil {
		return m.listFn(ctx, accountID)
	}
	return nil, nil
}

func (m *mockHookService) UpdateSettings(ctx context.Context, id int64, settings map[string]any) (*model.Hook, error) {
	if m.updateSettingsFn != nil {
		return m.updateSettingsFn(ctx, id, settings)
	}
	return nil, service.ErrHookNotFound
}

func (m *mockHookService) SetStatus(ctx context.Context, id int64, status model.HookStatus) error {
	if m.setStatusFn != nil {
		return m.setStatusFn(ctx, id, status)
	}
	return nil
}

type mockSetupService struct {
	runFn func(ctx context.Context, hookID int64) (service.SetupResult, error)
}

func (m *mockSetupService) Run(ctx context.Context, hookID int64) (service.SetupResult, error) {
	if m.runFn != nil {
		return m.runFn(ctx, hookID)
	}
	return service.SetupResult{}, nil
}
