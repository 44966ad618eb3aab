package glpi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"chatsync.app/bridge/internal/crm/api"
)

// Search field numbers in GLPI's search engine. Field 2 is the id column
// on every itemtype; 5 is the User email, 6 the Contact email.
const (
	searchFieldUserEmail    = 5
	searchFieldContactEmail = 6
)

// Client exposes the GLPI itemtypes the sync works with. All calls must
// run inside WithSession on the embedded session client.
type Client struct {
	*SessionClient
}

func NewClient(apiURL, appToken, userToken string, opts ...api.Option) *Client {
	return &Client{SessionClient: NewSessionClient(apiURL, appToken, userToken, opts...)}
}

func (c *Client) SearchUsers(ctx context.Context, email string) ([]string, error) {
	return c.search(ctx, "User", searchFieldUserEmail, email)
}

func (c *Client) CreateUser(ctx context.Context, payload map[string]any) (string, error) {
	return c.create(ctx, "User", payload)
}

func (c *Client) UpdateUser(ctx context.Context, userID string, payload map[string]any) error {
	return c.update(ctx, "User/"+userID, payload)
}

func (c *Client) SearchContacts(ctx context.Context, email string) ([]string, error) {
	return c.search(ctx, "Contact", searchFieldContactEmail, email)
}

func (c *Client) CreateContact(ctx context.Context, payload map[string]any) (string, error) {
	return c.create(ctx, "Contact", payload)
}

func (c *Client) UpdateContact(ctx context.Context, contactID string, payload map[string]any) error {
	return c.update(ctx, "Contact/"+contactID, payload)
}

func (c *Client) CreateTicket(ctx context.Context, payload map[string]any) (string, error) {
	return c.create(ctx, "Ticket", payload)
}

func (c *Client) UpdateTicket(ctx context.Context, ticketID string, payload map[string]any) error {
	return c.update(ctx, "Ticket/"+ticketID, payload)
}

func (c *Client) CreateFollowup(ctx context.Context, payload map[string]any) (string, error) {
	return c.create(ctx, "ITILFollowup", payload)
}

// search runs one equals criterion through GLPI's search engine and
// returns the matching ids. Search rows come back keyed by field number,
// with the id under "2".
func (c *Client) search(ctx context.Context, itemtype string, field int, value string) ([]string, error) {
	criteria, err := json.Marshal([]map[string]any{
		{"field": field, "searchtype": "equals", "value": value},
	})
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("criteria", string(criteria))

	raw, err := c.api.Get(ctx, "search/"+itemtype, query)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Data []map[string]any `json:"data"`
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, fmt.Errorf("decoding %s search: %w", itemtype, err)
		}
	}

	ids := make([]string, 0, len(envelope.Data))
	for _, row := range envelope.Data {
		if id := stringID(row["2"]); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// create posts one item inside GLPI's input envelope and returns the new
// id.
func (c *Client) create(ctx context.Context, itemtype string, payload map[string]any) (string, error) {
	raw, err := c.api.Post(ctx, itemtype, map[string]any{"input": payload})
	if err != nil {
		return "", err
	}
	var record map[string]any
	if err := json.Unmarshal(raw, &record); err != nil {
		return "", fmt.Errorf("decoding created %s: %w", itemtype, err)
	}
	return stringID(record["id"]), nil
}

func (c *Client) update(ctx context.Context, path string, payload map[string]any) error {
	_, err := c.api.Put(ctx, path, map[string]any{"input": payload})
	return err
}

func stringID(v any) string {
	switch id := v.(type) {
	case float64:
		return strconv.FormatInt(int64(id), 10)
	case string:
		return id
	default:
		return ""
	}
}
