// Package glpi syncs helpdesk records into GLPI: contacts become users or
// contacts, conversations become tickets, messages become followups.
//
// GLPI's REST API is session scoped. Every operation needs a session token
// obtained from initSession and released with killSession, so all work runs
// inside WithSession.
package glpi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"chatsync.app/bridge/internal/crm/api"
)

// SessionClient manages the GLPI session lifecycle around the retrying API
// client. The header set switches with the session state: the user token
// authenticates initSession, the session token everything after.
type SessionClient struct {
	api       *api.Client
	appToken  string
	userToken string

	mu    sync.Mutex
	token string
}

func NewSessionClient(apiURL, appToken, userToken string, opts ...api.Option) *SessionClient {
	c := &SessionClient{
		appToken:  appToken,
		userToken: userToken,
	}
	c.api = api.NewClient(apiURL, c.headers, opts...)
	return c
}

func (c *SessionClient) headers() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := map[string]string{"App-Token": c.appToken}
	if c.token != "" {
		h["Session-Token"] = c.token
	} else {
		h["Authorization"] = "user_token " + c.userToken
	}
	return h
}

// WithSession runs fn inside an active session. The call that opened the
// session terminates it on every exit path, including when fn fails; nested
// calls reuse the session and leave teardown to the opener. killSession
// failures are logged and swallowed so they never mask fn's result, and the
// token is cleared regardless.
func (c *SessionClient) WithSession(ctx context.Context, fn func(ctx context.Context) error) error {
	opened, err := c.initSession(ctx)
	if err != nil {
		return err
	}
	if opened {
		defer c.killSession(ctx)
	}
	return fn(ctx)
}

// SessionActive reports whether a session token is currently held.
func (c *SessionClient) SessionActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token != ""
}

func (c *SessionClient) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// initSession logs in unless a session is already held. The boolean reports
// whether this call opened the session, so the caller knows whether it owns
// the teardown.
func (c *SessionClient) initSession(ctx context.Context) (bool, error) {
	if c.SessionActive() {
		return false, nil
	}

	raw, err := c.api.Get(ctx, "initSession", nil)
	if err != nil {
		return false, fmt.Errorf("initializing glpi session: %w", err)
	}
	var payload struct {
		SessionToken string `json:"session_token"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return false, fmt.Errorf("decoding glpi session: %w", err)
	}
	if payload.SessionToken == "" {
		return false, fmt.Errorf("glpi returned no session token")
	}
	c.setToken(payload.SessionToken)
	return true, nil
}

func (c *SessionClient) killSession(ctx context.Context) {
	defer c.setToken("")
	if !c.SessionActive() {
		return
	}
	if _, err := c.api.Get(ctx, "killSession", nil); err != nil {
		slog.WarnContext(ctx, "failed to terminate glpi session", "error", err)
	}
}
