// Package client is the Go SDK for the Notropolis API. It mirrors the
// envelope protocol of the server and carries the session-scoped
// coordination pieces the dashboard depends on: the active-company
// coordinator, the view-mode broadcaster and the casino game projections.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// DefaultTimeout is the blanket timeout applied to every API call.
const DefaultTimeout = 10 * time.Second

// ErrUnauthorized is returned when the server rejects the bearer token. The
// token is already cleared by the time a caller sees this.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a success=false envelope: recoverable and user-facing.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// envelope matches the server's uniform response shape.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

// Client is a thin, concurrency-safe wrapper over the HTTP API. The token
// is the single piece of shared mutable state; a 401 on any in-flight
// request clears it and fires OnUnauthorized exactly once per login.
type Client struct {
	BaseURL string

	// OnUnauthorized, if set, is invoked once when the token is rejected.
	// The dashboard uses it to navigate to the login route.
	OnUnauthorized func()

	httpClient *http.Client

	mu        sync.Mutex
	token     string
	authepoch int // bumped on SetToken, guards the exactly-once hook
	authfired bool
}

// New returns a client with the default timeout.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// SetToken installs a bearer token, re-arming the unauthorized hook.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.authepoch++
	c.authfired = false
}

// Token returns the current bearer token, empty after logout or a 401.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// do issues one API call and decodes the envelope into out (if non-nil).
// A success=false envelope becomes an *APIError; a 401 clears the token.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.Lock()
	token := c.token
	epoch := c.authepoch
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized(epoch)
		return ErrUnauthorized
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "request failed"
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out != nil && env.Data != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decoding data: %w", err)
		}
	}
	return nil
}

// handleUnauthorized clears the token and fires the hook at most once per
// epoch, no matter how many in-flight requests hit the 401 together.
func (c *Client) handleUnauthorized(epoch int) {
	c.mu.Lock()
	if epoch != c.authepoch || c.authfired {
		c.mu.Unlock()
		return
	}
	c.token = ""
	c.authfired = true
	hook := c.OnUnauthorized
	c.mu.Unlock()

	if hook != nil {
		hook()
	}
}

// Login authenticates with email and password, storing the token on
// success. When the account requires 2FA the returned flag is true and no
// token is stored until VerifyTwoFactor.
func (c *Client) Login(ctx context.Context, email, password string) (twoFactorRequired bool, err error) {
	var data struct {
		Token             string `json:"token"`
		TwoFactorRequired bool   `json:"two_factor_required"`
	}
	err = c.do(ctx, http.MethodPost, "/login", map[string]string{
		"email":    email,
		"password": password,
	}, &data)
	if err != nil {
		return false, err
	}
	if data.TwoFactorRequired {
		return true, nil
	}
	c.SetToken(data.Token)
	return false, nil
}

// VerifyTwoFactor completes a pending 2FA login.
func (c *Client) VerifyTwoFactor(ctx context.Context, email, code string) error {
	var data struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "/login/verify", map[string]string{
		"email": email,
		"code":  code,
	}, &data)
	if err != nil {
		return err
	}
	c.SetToken(data.Token)
	return nil
}

// RedeemMagicLink exchanges a magic-link token for a session.
func (c *Client) RedeemMagicLink(ctx context.Context, token string) error {
	var data struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodGet, "/magic-link/verify?token="+token, nil, &data); err != nil {
		return err
	}
	c.SetToken(data.Token)
	return nil
}

// Logout destroys the server-side session and clears the local token.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodDelete, "/auth/logout", nil, nil)
	c.SetToken("")
	return err
}
