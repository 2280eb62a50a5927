// Package api implements the REST client against the loyalty platform
// backend: a generic JSON transport with a default bearer credential, plus
// the concrete auth and notification surfaces consumed by the core services.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/clubly/loyalty-agent/internal/core/domain"
)

// Client is the shared HTTP transport. The bearer token is process-wide
// mutable state written only by the session service through SetToken and
// ClearToken; every request reads it.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     zerolog.Logger

	mu             sync.RWMutex
	token          string
	onAuthRejected func()
}

func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
		log:     log,
	}
}

// SetToken installs the default request credential.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken removes the default request credential.
func (c *Client) ClearToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// OnAuthRejected registers the hook fired when an authenticated call on a
// non-auth path comes back 401. Login, register, and logout never fire it, so
// a rejected login cannot cascade into a forced-logout loop.
func (c *Client) OnAuthRejected(fn func()) {
	c.mu.Lock()
	c.onAuthRejected = fn
	c.mu.Unlock()
}

// apiError is the backend's error envelope.
type apiError struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func (e apiError) text() string {
	if e.Message != "" {
		return e.Message
	}
	for _, msgs := range e.Errors {
		if len(msgs) > 0 {
			return msgs[0]
		}
	}
	return ""
}

// do executes one JSON round-trip. out may be nil for calls whose body is
// ignored.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: encode request: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s %s: decode response: %w", method, path, err)
		}
		return nil
	}

	return c.errorFor(method, path, resp)
}

func (c *Client) errorFor(method, path string, resp *http.Response) error {
	var envelope apiError
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&envelope)
	msg := envelope.text()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if !strings.HasPrefix(path, "/auth/") {
			c.fireAuthRejected()
		}
		if path == "/auth/login" {
			// Bad credentials, not a dead session.
			return domain.ErrInvalidCredentials
		}
		return domain.ErrUnauthorized
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		// Surfaced verbatim for form-level display.
		if msg == "" {
			return domain.ErrValidation
		}
		return fmt.Errorf("%s: %w", msg, domain.ErrValidation)
	case http.StatusConflict:
		return domain.ErrUserExists
	case http.StatusNotFound:
		if strings.HasPrefix(path, "/notifications/") {
			return domain.ErrNotificationNotFound
		}
	}

	if msg == "" {
		msg = resp.Status
	}
	return fmt.Errorf("%s %s: %s", method, path, msg)
}

func (c *Client) fireAuthRejected() {
	c.mu.RLock()
	fn := c.onAuthRejected
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}
