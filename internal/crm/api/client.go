// Package api implements the retrying HTTP client shared by every CRM
// integration: JSON in/out, a typed error taxonomy, and exponential backoff
// on transient failures.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// MaxAttempts bounds the number of HTTP calls per request, first try
// included.
const MaxAttempts = 3

// DefaultBackoffBase is the unit for the backoff curves: base * 2^attempt
// for ordinary retriable errors, base * 3^attempt after a rate limit.
const DefaultBackoffBase = time.Second

// HeaderFunc supplies the auth headers for a request. Evaluated per attempt
// so session-scoped clients can rotate tokens mid-flight.
type HeaderFunc func() map[string]string

// Client is a retrying JSON API client bound to one base URL.
//
// Retries block the calling goroutine for the backoff duration. That is a
// deliberate tradeoff: requests only ever run inside queue worker jobs,
// never on a request/response path. An alternative is handing a retry-after
// signal back to the queue; see the rationale recorded in DESIGN.md.
type Client struct {
	baseURL     string
	headerFunc  HeaderFunc
	httpClient  *http.Client
	maxAttempts int
	backoffBase time.Duration
	sleep       func(time.Duration)
}

type Option func(*Client)

// WithHTTPClient overrides the underlying transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBackoffBase changes the backoff unit. Tests set this to a few
// milliseconds.
func WithBackoffBase(base time.Duration) Option {
	return func(c *Client) { c.backoffBase = base }
}

// WithSleep replaces the blocking pause between retries. Tests inject a
// recorder here instead of waiting in real time.
func WithSleep(sleep func(time.Duration)) Option {
	return func(c *Client) { c.sleep = sleep }
}

// WithMaxAttempts overrides the retry ceiling.
func WithMaxAttempts(n int) Option {
	return func(c *Client) { c.maxAttempts = n }
}

func NewClient(baseURL string, headers HeaderFunc, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		headerFunc:  headers,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		maxAttempts: MaxAttempts,
		backoffBase: DefaultBackoffBase,
		sleep:       time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BearerHeaders returns a HeaderFunc carrying a static bearer token.
func BearerHeaders(token string) HeaderFunc {
	return func() map[string]string {
		return map[string]string{"Authorization": "Bearer " + token}
	}
}

func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodGet, path, nil, query)
}

func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodPost, path, body, nil)
}

func (c *Client) Put(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodPut, path, body, nil)
}

func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodDelete, path, nil, nil)
}

// Request performs one logical API call, retrying transient failures up to
// the attempt ceiling. Non-retriable errors propagate immediately.
func (c *Client) Request(ctx context.Context, method, path string, body any, query url.Values) (json.RawMessage, error) {
	var lastErr *Error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			wait := c.backoff(attempt, lastErr.RateLimited)
			slog.WarnContext(ctx, "retrying api request",
				"method", method,
				"path", path,
				"attempt", attempt+1,
				"wait", wait.String(),
				"status", lastErr.StatusCode)
			c.sleep(wait)
		}

		parsed, err := c.do(ctx, method, path, body, query)
		if err == nil {
			return parsed, nil
		}

		var apiErr *Error
		if !errors.As(err, &apiErr) || !apiErr.Retriable {
			return nil, err
		}
		lastErr = apiErr
	}
	return nil, lastErr
}

// backoff computes the pause before the given attempt (1-based). The
// rate-limit curve grows faster so throttled endpoints get real breathing
// room.
func (c *Client) backoff(attempt int, rateLimited bool) time.Duration {
	multiplier := 2.0
	if rateLimited {
		multiplier = 3.0
	}
	return time.Duration(math.Pow(multiplier, float64(attempt))) * c.backoffBase
}

func (c *Client) do(ctx context.Context, method, path string, body any, query url.Values) (json.RawMessage, error) {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.headerFunc != nil {
		for k, v := range c.headerFunc() {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Treat transport failures like an unavailable remote so the
		// retry loop gets a chance at transient network blips.
		return nil, &Error{StatusCode: 0, Message: err.Error(), Retriable: true}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Message: "reading response: " + err.Error(), Retriable: true}
	}

	if apiErr := Classify(resp.StatusCode, respBody); apiErr != nil {
		return nil, apiErr
	}

	if len(respBody) == 0 {
		return nil, nil
	}
	if !json.Valid(respBody) {
		parseErr := NewParseError(resp.StatusCode, respBody)
		slog.ErrorContext(ctx, "unparseable api response",
			"method", method,
			"path", path,
			"body", Truncate(string(respBody), 200))
		return nil, parseErr
	}
	return json.RawMessage(respBody), nil
}
