// Package store holds the three client data stores: session,
// transactions and dashboard statistics. Each store wraps one REST
// resource with loading and error state; they compose only through the
// persisted session token. Stores never panic or return errors to their
// callers: mutating operations report success as a boolean and keep a
// human-readable error string readable through Err.
package store

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"saldo/internal/api"
	"saldo/internal/core"
	applog "saldo/internal/log"
)

// State is the session lifecycle: anonymous -> restoring ->
// authenticated, and back to anonymous on logout or a failed verify.
type State string

const (
	StateAnonymous     State = "anonymous"
	StateRestoring     State = "restoring"
	StateAuthenticated State = "authenticated"
)

// SessionTokens is the durable token storage the session store owns
// writes to. Implemented by keystore.Store.
type SessionTokens interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	DeleteToken(ctx context.Context) error
	CompareAndDeleteToken(ctx context.Context, tok string) (bool, error)
}

// PushRegistrar registers the device push token with the backend after a
// successful login. A nil registrar disables registration.
type PushRegistrar interface {
	Register(ctx context.Context) error
}

type Session struct {
	api    *api.Client
	tokens SessionTokens
	push   PushRegistrar

	mu      sync.Mutex
	state   State
	user    *core.User
	loading bool
	err     string
}

func NewSession(client *api.Client, tokens SessionTokens, push PushRegistrar) *Session {
	return &Session{
		api:    client,
		tokens: tokens,
		push:   push,
		state:  StateAnonymous,
	}
}

type credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string    `json:"token"`
	User  core.User `json:"user"`
}

// Login authenticates with the backend. The email is normalized
// (trimmed, lowercased) first. Empty fields fail fast without a network
// call and without touching the store's error state; that split belongs
// to the caller's inline validation.
func (s *Session) Login(ctx context.Context, email, password string) bool {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return false
	}

	var resp authResponse
	err := s.api.Post(ctx, api.PathLogin, credentials{Email: email, Password: password}, &resp)
	if err != nil {
		s.setError(humanMessage(err, "Login failed"))
		slog.WarnContext(ctx, "Login failed",
			applog.FieldComponent, applog.ComponentSession,
			applog.FieldOperation, applog.OpLogin,
			applog.FieldError, err.Error())
		return false
	}

	s.establish(ctx, resp)
	slog.InfoContext(ctx, "Logged in",
		applog.FieldComponent, applog.ComponentSession,
		applog.FieldOperation, applog.OpLogin)
	return true
}

// Register creates an account and signs in. All three fields must be
// non-empty; validation failures never reach the network.
func (s *Session) Register(ctx context.Context, name, email, password string) bool {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return false
	}

	var resp authResponse
	err := s.api.Post(ctx, api.PathRegister, credentials{Name: name, Email: email, Password: password}, &resp)
	if err != nil {
		s.setError(humanMessage(err, "Registration failed"))
		slog.WarnContext(ctx, "Registration failed",
			applog.FieldComponent, applog.ComponentSession,
			applog.FieldOperation, applog.OpRegister,
			applog.FieldError, err.Error())
		return false
	}

	s.establish(ctx, resp)
	slog.InfoContext(ctx, "Registered",
		applog.FieldComponent, applog.ComponentSession,
		applog.FieldOperation, applog.OpRegister)
	return true
}

// establish persists the token, installs the user and fires the push
// registration side effect, once per successful login.
func (s *Session) establish(ctx context.Context, resp authResponse) {
	if err := s.tokens.SetToken(ctx, resp.Token); err != nil {
		slog.ErrorContext(ctx, "Failed to persist token",
			applog.FieldComponent, applog.ComponentSession,
			applog.FieldError, err.Error())
	}

	user := resp.User
	s.mu.Lock()
	s.state = StateAuthenticated
	s.user = &user
	s.err = ""
	s.mu.Unlock()

	if s.push != nil {
		if err := s.push.Register(ctx); err != nil {
			// Best effort; a failed registration never fails the login.
			slog.WarnContext(ctx, "Push token registration failed",
				applog.FieldComponent, applog.ComponentSession,
				applog.FieldError, err.Error())
		}
	}
}

// Logout notifies the server best-effort, then clears local state
// unconditionally. A failed server call is recorded but never blocks the
// local sign-out.
func (s *Session) Logout(ctx context.Context) {
	if err := s.api.Post(ctx, api.PathLogout, nil, nil); err != nil {
		s.setError(humanMessage(err, "Logout failed"))
		slog.WarnContext(ctx, "Server logout failed, clearing local session anyway",
			applog.FieldComponent, applog.ComponentSession,
			applog.FieldOperation, applog.OpLogout,
			applog.FieldError, err.Error())
	}

	if err := s.tokens.DeleteToken(ctx); err != nil {
		slog.ErrorContext(ctx, "Failed to delete token",
			applog.FieldComponent, applog.ComponentSession,
			applog.FieldError, err.Error())
	}

	s.mu.Lock()
	s.state = StateAnonymous
	s.user = nil
	s.mu.Unlock()
}

// CheckToken restores the session at startup. It resolves fully, the
// negative path included, before returning, so the caller can decide
// navigation without flashing the wrong screen.
func (s *Session) CheckToken(ctx context.Context) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read token",
			applog.FieldComponent, applog.ComponentSession,
			applog.FieldError, err.Error())
	}
	if token == "" {
		s.mu.Lock()
		s.state = StateAnonymous
		s.user = nil
		s.loading = false
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.state = StateRestoring
	s.loading = true
	s.mu.Unlock()

	var user core.User
	if err := s.api.Get(ctx, api.PathVerify, &user); err != nil {
		// The 401 path already cleared the token inside the adapter;
		// this covers every other failure.
		if _, derr := s.tokens.CompareAndDeleteToken(ctx, token); derr != nil {
			slog.ErrorContext(ctx, "Failed to delete rejected token",
				applog.FieldComponent, applog.ComponentSession,
				applog.FieldError, derr.Error())
		}
		s.mu.Lock()
		s.state = StateAnonymous
		s.user = nil
		s.loading = false
		s.err = "Session expired"
		s.mu.Unlock()
		slog.InfoContext(ctx, "Stored session rejected",
			applog.FieldComponent, applog.ComponentSession,
			applog.FieldOperation, applog.OpVerify,
			applog.FieldError, err.Error())
		return
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	s.user = &user
	s.loading = false
	s.err = ""
	s.mu.Unlock()
}

// UpdateUsername changes the display name. The local user is only
// updated after the server confirms.
func (s *Session) UpdateUsername(ctx context.Context, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	payload := struct {
		Name string `json:"name"`
	}{Name: name}
	if err := s.api.Put(ctx, api.PathUpdateName, payload, nil); err != nil {
		s.setError(humanMessage(err, "Failed to update name"))
		return false
	}

	s.mu.Lock()
	if s.user != nil {
		s.user.Name = name
	}
	s.err = ""
	s.mu.Unlock()
	return true
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns a copy of the signed-in user, nil when anonymous.
func (s *Session) User() *core.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Session) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) ClearError() {
	s.mu.Lock()
	s.err = ""
	s.mu.Unlock()
}

func (s *Session) setError(msg string) {
	s.mu.Lock()
	s.err = msg
	s.mu.Unlock()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// humanMessage prefers the server-supplied message over a generic one.
func humanMessage(err error, fallback string) string {
	if apiErr, ok := err.(*api.Error); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
