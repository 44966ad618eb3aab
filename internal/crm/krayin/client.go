// Package krayin syncs helpdesk records into the Krayin CRM: contacts
// become persons and leads, conversations and messages become activities.
package krayin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"chatsync.app/bridge/internal/crm/api"
)

// Record is one entity as returned by the Krayin API.
type Record map[string]any

// ID extracts the entity id as a string. Krayin returns numeric ids.
func (r Record) ID() string {
	switch v := r["id"].(type) {
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case string:
		return v
	default:
		return ""
	}
}

// Name returns the record's display name, if present.
func (r Record) Name() string {
	s, _ := r["name"].(string)
	return s
}

// Client wraps the retrying API client with Krayin's endpoint shapes.
// Krayin wraps most payloads in a "data" envelope; unwrap handles both the
// enveloped and bare forms.
type Client struct {
	api *api.Client
}

func NewClient(apiURL, apiToken string, opts ...api.Option) *Client {
	return &Client{api: api.NewClient(apiURL, api.BearerHeaders(apiToken), opts...)}
}

func (c *Client) SearchPersons(ctx context.Context, email, phone string) ([]Record, error) {
	return c.search(ctx, "contacts/persons", email, phone)
}

func (c *Client) CreatePerson(ctx context.Context, payload map[string]any) (Record, error) {
	return c.create(ctx, "contacts/persons", payload)
}

func (c *Client) UpdatePerson(ctx context.Context, personID string, payload map[string]any) error {
	_, err := c.api.Put(ctx, "contacts/persons/"+personID, payload)
	return err
}

func (c *Client) SearchLeads(ctx context.Context, email, phone string) ([]Record, error) {
	return c.search(ctx, "leads", email, phone)
}

func (c *Client) CreateLead(ctx context.Context, payload map[string]any) (Record, error) {
	return c.create(ctx, "leads", payload)
}

func (c *Client) UpdateLead(ctx context.Context, leadID string, payload map[string]any) error {
	_, err := c.api.Put(ctx, "leads/"+leadID, payload)
	return err
}

func (c *Client) SearchOrganizations(ctx context.Context, name string) ([]Record, error) {
	query := url.Values{}
	query.Set("name", name)
	raw, err := c.api.Get(ctx, "contacts/organizations", query)
	if err != nil {
		return nil, err
	}
	return unwrapList(raw)
}

func (c *Client) CreateOrganization(ctx context.Context, payload map[string]any) (Record, error) {
	return c.create(ctx, "contacts/organizations", payload)
}

func (c *Client) UpdateOrganization(ctx context.Context, orgID string, payload map[string]any) error {
	_, err := c.api.Put(ctx, "contacts/organizations/"+orgID, payload)
	return err
}

func (c *Client) CreateActivity(ctx context.Context, payload map[string]any) (Record, error) {
	return c.create(ctx, "activities", payload)
}

func (c *Client) UpdateActivity(ctx context.Context, activityID string, payload map[string]any) error {
	_, err := c.api.Put(ctx, "activities/"+activityID, payload)
	return err
}

func (c *Client) Pipelines(ctx context.Context) ([]Record, error) {
	return c.list(ctx, "pipelines")
}

func (c *Client) Stages(ctx context.Context, pipelineID string) ([]Record, error) {
	return c.list(ctx, "pipelines/"+pipelineID+"/stages")
}

func (c *Client) Sources(ctx context.Context) ([]Record, error) {
	return c.list(ctx, "sources")
}

func (c *Client) Types(ctx context.Context) ([]Record, error) {
	return c.list(ctx, "types")
}

func (c *Client) search(ctx context.Context, path, email, phone string) ([]Record, error) {
	query := url.Values{}
	if email != "" {
		query.Set("email", email)
	}
	if phone != "" {
		query.Set("phone", phone)
	}
	raw, err := c.api.Get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	return unwrapList(raw)
}

func (c *Client) create(ctx context.Context, path string, payload map[string]any) (Record, error) {
	raw, err := c.api.Post(ctx, path, payload)
	if err != nil {
		return nil, err
	}
	return unwrapRecord(raw)
}

func (c *Client) list(ctx context.Context, path string) ([]Record, error) {
	raw, err := c.api.Get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	return unwrapList(raw)
}

func unwrapRecord(raw json.RawMessage) (Record, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty response body")
	}
	var envelope struct {
		Data Record `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Data != nil {
		return envelope.Data, nil
	}
	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	return record, nil
}

func unwrapList(raw json.RawMessage) ([]Record, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var list []Record
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var envelope struct {
		Data []Record `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decoding list: %w", err)
	}
	return envelope.Data, nil
}
