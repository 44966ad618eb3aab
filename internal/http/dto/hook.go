package dto

import (
	"chatsync.app/bridge/internal/model"
)

type CreateHookRequest struct {
	AccountID int64          `json:"account_id" binding:"required"`
	InboxID   *int64         `json:"inbox_id,omitempty"`
	AppID     string         `json:"app_id" binding:"required"`
	Settings  map[string]any `json:"settings,omitempty"`
}

type UpdateHookSettingsRequest struct {
	Settings map[string]any `json:"settings" binding:"required"`
}

// HookResponse redacts credential-bearing settings keys; the admin UI only
// needs to know they are set.
type HookResponse struct {
	ID        int64          `json:"id"`
	AccountID int64          `json:"account_id"`
	InboxID   *int64         `json:"inbox_id,omitempty"`
	AppID     string         `json:"app_id"`
	Status    string         `json:"status"`
	Settings  map[string]any `json:"settings"`
}

var redactedSettings = map[string]bool{
	"api_token":  true,
	"app_token":  true,
	"user_token": true,
}

func NewHookResponse(hook *model.Hook) HookResponse {
	settings := hook.SettingsMap()
	for key := range settings {
		if redactedSettings[key] {
			settings[key] = "***"
		}
	}
	return HookResponse{
		ID:        hook.ID,
		AccountID: hook.AccountID,
		InboxID:   hook.InboxID,
		AppID:     string(hook.AppID),
		Status:    string(hook.Status),
		Settings:  settings,
	}
}

type SetupResponse struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message,omitempty"`
	Error    string         `json:"error,omitempty"`
	Settings map[string]any `json:"settings,omitempty"`
}
