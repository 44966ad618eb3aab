package glpi

import (
	"context"
	"net/url"
	"strings"

	"chatsync.app/bridge/internal/crm/api"
)

// SetupResult reports a connectivity check back to the admin surface.
type SetupResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Setup validates the GLPI credentials by opening and closing a session.
// No defaults get proposed; GLPI needs nothing beyond the three tokens
// and an optional entity.
func Setup(ctx context.Context, apiURL, appToken, userToken string, clientOpts ...api.Option) SetupResult {
	var missing []string
	if apiURL == "" {
		missing = append(missing, "api_url")
	}
	if appToken == "" {
		missing = append(missing, "app_token")
	}
	if userToken == "" {
		missing = append(missing, "user_token")
	}
	if len(missing) > 0 {
		return SetupResult{Error: "missing required settings: " + strings.Join(missing, ", ")}
	}
	if !validURL(apiURL) {
		return SetupResult{Error: "invalid API URL: must be a valid HTTP/HTTPS URL"}
	}

	client := NewSessionClient(apiURL, appToken, userToken, clientOpts...)
	err := client.WithSession(ctx, func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		return SetupResult{Error: "failed to connect to GLPI API: " + err.Error()}
	}

	return SetupResult{
		Success: true,
		Message: "GLPI connection successful",
	}
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
