package krayin

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"

	"chatsync.app/bridge/internal/crm/api"
)

var webSourcePattern = regexp.MustCompile(`(?i)web`)

// SetupResult is what a connectivity/bootstrap run reports back to the
// admin surface. Setup never panics past its boundary; failures land in
// Error.
type SetupResult struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message,omitempty"`
	Error    string         `json:"error,omitempty"`
	Settings map[string]any `json:"settings,omitempty"`
}

// Setup validates connectivity and proposes default configuration: the
// first pipeline, its first stage, a source matching "web" (else the
// first), and the first lead type.
func Setup(ctx context.Context, apiURL, apiToken string, clientOpts ...api.Option) SetupResult {
	if !validURL(apiURL) {
		return SetupResult{Error: "invalid API URL: must be a valid HTTP/HTTPS URL"}
	}
	if apiToken == "" {
		return SetupResult{Error: "missing required setting: api_token"}
	}

	client := NewClient(apiURL, apiToken, clientOpts...)

	pipelines, err := client.Pipelines(ctx)
	if err != nil {
		return SetupResult{Error: "failed to connect to Krayin API: " + err.Error()}
	}
	if len(pipelines) == 0 {
		return SetupResult{Error: "no pipelines configured on the Krayin instance"}
	}

	settings := map[string]any{
		"api_url":   apiURL,
		"api_token": apiToken,
	}

	pipeline := pipelines[0]
	settings["default_pipeline_id"] = pipeline.ID()
	settings["default_pipeline_name"] = pipeline.Name()

	stages, err := client.Stages(ctx, pipeline.ID())
	if err != nil {
		slog.WarnContext(ctx, "failed to fetch pipeline stages", "error", err)
	} else if len(stages) > 0 {
		settings["default_stage_id"] = stages[0].ID()
		settings["default_stage_name"] = stages[0].Name()
	}

	sources, err := client.Sources(ctx)
	if err != nil {
		slog.WarnContext(ctx, "failed to fetch lead sources", "error", err)
	} else if len(sources) > 0 {
		source := sources[0]
		for _, s := range sources {
			if webSourcePattern.MatchString(s.Name()) {
				source = s
				break
			}
		}
		settings["default_source_id"] = source.ID()
		settings["default_source_name"] = source.Name()
	}

	types, err := client.Types(ctx)
	if err != nil {
		slog.WarnContext(ctx, "failed to fetch lead types", "error", err)
	} else if len(types) > 0 {
		settings["default_lead_type_id"] = types[0].ID()
		settings["default_lead_type_name"] = types[0].Name()
	}

	return SetupResult{
		Success:  true,
		Message:  "Krayin connection successful",
		Settings: settings,
	}
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
