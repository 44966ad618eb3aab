package model

import (
	"encoding/json"
	"time"
)

// AppID identifies which external backend a hook syncs to.
type AppID string

const (
	AppKrayin AppID = "krayin"
	AppGLPI   AppID = "glpi"
)

type HookStatus string

const (
	HookStatusEnabled  HookStatus = "enabled"
	HookStatusDisabled HookStatus = "disabled"
)

// Hook is one configured integration instance bound to an account/inbox.
// Settings hold the endpoint URL, credentials, and backend-specific toggles;
// the event processor reads them but never mutates them.
type Hook struct {
	ID        int64           `json:"id"`
	AccountID int64           `json:"account_id"`
	InboxID   *int64          `json:"inbox_id,omitempty"`
	AppID     AppID           `json:"app_id"`
	Status    HookStatus      `json:"status"`
	Settings  json.RawMessage `json:"settings"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (h *Hook) Enabled() bool {
	return h.Status == HookStatusEnabled
}

// SettingsMap decodes the settings blob. A nil or empty blob decodes to an
// empty map, never an error.
func (h *Hook) SettingsMap() map[string]any {
	out := map[string]any{}
	if len(h.Settings) == 0 {
		return out
	}
	_ = json.Unmarshal(h.Settings, &out)
	return out
}

// Setting returns the string value for key, or "" when absent or non-string.
func (h *Hook) Setting(key string) string {
	v, _ := h.SettingsMap()[key].(string)
	return v
}

// BoolSetting treats JSON true and the strings "true"/"1" as set.
func (h *Hook) BoolSetting(key string) bool {
	switch v := h.SettingsMap()[key].(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "1"
	default:
		return false
	}
}

// IntSetting returns the numeric value for key, or 0 when absent. JSON
// numbers decode as float64; string digits are accepted too since admin
// forms often post everything as strings.
func (h *Hook) IntSetting(key string) int64 {
	switch v := h.SettingsMap()[key].(type) {
	case float64:
		return int64(v)
	case string:
		var n int64
		for _, r := range v {
			if r < '0' || r > '9' {
				return 0
			}
			n = n*10 + int64(r-'0')
		}
		return n
	default:
		return 0
	}
}
