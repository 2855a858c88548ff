// Package api is the HTTP client adapter every store talks through. It
// attaches the persisted bearer token to outgoing requests, maps error
// responses to *Error values, and tears the persisted session down once
// when the backend answers 401.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	applog "saldo/internal/log"
)

// TokenStore is the durable token storage the adapter reads before every
// request. Implemented by keystore.Store.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	CompareAndDeleteToken(ctx context.Context, tok string) (bool, error)
}

// Error is a failed HTTP exchange: the status the server answered with
// and its message, when the body carried one.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	apiErr, ok := err.(*Error)
	return ok && apiErr.Status == http.StatusUnauthorized
}

type Client struct {
	base   *url.URL
	http   *http.Client
	tokens TokenStore
}

func New(baseURL string, tokens TokenStore, timeout time.Duration) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	return &Client{
		base:   base,
		http:   &http.Client{Timeout: timeout},
		tokens: tokens,
	}, nil
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Send(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Send(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Send(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Send(ctx, http.MethodDelete, path, nil, nil)
}

// Send performs one JSON request. body and out may be nil. Any non-2xx
// response becomes a *Error; on 401 the persisted token is cleared via
// compare-and-delete so a retry of the same logical request cannot clear
// a newer session's token.
func (c *Client) Send(ctx context.Context, method, path string, body, out any) error {
	ref, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("parse request path: %w", err)
	}
	target := c.base.ResolveReference(ref)

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	slog.DebugContext(ctx, "Request completed",
		applog.FieldComponent, applog.ComponentAPI,
		applog.FieldMethod, method,
		applog.FieldPath, path,
		applog.FieldStatusCode, resp.StatusCode,
		applog.FieldDuration, time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
		if resp.StatusCode == http.StatusUnauthorized && token != "" {
			c.clearInvalidToken(ctx, token)
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return fmt.Errorf("decode response body: %w", err)
		}
	}
	return nil
}

// clearInvalidToken removes the persisted token the failed request was
// sent with. The compare guarantees the teardown happens at most once
// per token, no matter how many in-flight requests see the same 401.
func (c *Client) clearInvalidToken(ctx context.Context, token string) {
	deleted, err := c.tokens.CompareAndDeleteToken(ctx, token)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to clear invalid token",
			applog.FieldComponent, applog.ComponentAPI,
			applog.FieldError, err.Error())
		return
	}
	if deleted {
		slog.InfoContext(ctx, "Session token rejected by server, cleared local token",
			applog.FieldComponent, applog.ComponentAPI)
	}
}

// readErrorMessage extracts a human-readable message from an error body.
// The backend answers either {"message": ...} or {"error": ...}.
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Err     string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Err != "" {
			return payload.Err
		}
	}
	return strings.TrimSpace(string(raw))
}
