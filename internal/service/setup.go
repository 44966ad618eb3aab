package service

import (
	"context"
	"fmt"
	"log/slog"

	"chatsync.app/bridge/internal/crm/api"
	"chatsync.app/bridge/internal/crm/glpi"
	"chatsync.app/bridge/internal/crm/krayin"
	"chatsync.app/bridge/internal/model"
)

// SetupResult is the backend-neutral outcome of a setup run.
type SetupResult struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message,omitempty"`
	Error    string         `json:"error,omitempty"`
	Settings map[string]any `json:"settings,omitempty"`
}

// SetupService validates a hook's credentials against its backend and, on
// success, persists any proposed defaults and enables the hook. A failed
// run leaves the hook disabled with its settings untouched.
type SetupService interface {
	Run(ctx context.Context, hookID int64) (SetupResult, error)
}

type setupService struct {
	hooks      HookService
	clientOpts []api.Option
	logger     *slog.Logger
}

func NewSetupService(hooks HookService, logger *slog.Logger, clientOpts ...api.Option) SetupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &setupService{
		hooks:      hooks,
		clientOpts: clientOpts,
		logger:     logger,
	}
}

func (s *setupService) Run(ctx context.Context, hookID int64) (SetupResult, error) {
	hook, err := s.hooks.Get(ctx, hookID)
	if err != nil {
		return SetupResult{}, err
	}

	var result SetupResult
	switch hook.AppID {
	case model.AppKrayin:
		r := krayin.Setup(ctx, hook.Setting("api_url"), hook.Setting("api_token"), s.clientOpts...)
		result = SetupResult{Success: r.Success, Message: r.Message, Error: r.Error, Settings: r.Settings}
	case model.AppGLPI:
		r := glpi.Setup(ctx, hook.Setting("api_url"), hook.Setting("app_token"), hook.Setting("user_token"), s.clientOpts...)
		result = SetupResult{Success: r.Success, Message: r.Message, Error: r.Error}
	default:
		return SetupResult{}, fmt.Errorf("%w: %q", ErrUnknownApp, hook.AppID)
	}

	if !result.Success {
		s.logger.WarnContext(ctx, "hook setup failed", "hook_id", hookID, "app_id", hook.AppID, "error", result.Error)
		return result, nil
	}

	// Proposed defaults never clobber values the admin already set.
	if len(result.Settings) > 0 {
		existing := hook.SettingsMap()
		merged := map[string]any{}
		for k, v := range result.Settings {
			if _, ok := existing[k]; !ok {
				merged[k] = v
			}
		}
		if len(merged) > 0 {
			if _, err := s.hooks.UpdateSettings(ctx, hookID, merged); err != nil {
				return SetupResult{}, err
			}
		}
	}

	if err := s.hooks.SetStatus(ctx, hookID, model.HookStatusEnabled); err != nil {
		return SetupResult{}, err
	}

	s.logger.InfoContext(ctx, "hook setup succeeded", "hook_id", hookID, "app_id", hook.AppID)
	return result, nil
}
