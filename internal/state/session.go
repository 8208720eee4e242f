// Package state holds the client-side stores that mirror the remote
// service: the authenticated session and the contact collection. All
// mutations happen through the operation methods; readers get copies.
package state

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"phonebook/internal/errs"
	"phonebook/internal/model"
)

// User-visible fallback messages for failures whose server body carried
// nothing usable.
const (
	msgNoResponse   = "No response from server. Please check your internet connection."
	msgRegisterFail = "Registration failed. Please check your information and try again."
	msgEmailInUse   = "This email is already registered."
	msgLoginFail    = "The login or password is incorrect. Please try again."
	msgRefreshFail  = "Unable to refresh user. Please log in again."
)

// AuthAPI is the slice of the remote API the session store depends on.
type AuthAPI interface {
	Signup(ctx context.Context, name, email, password string) (model.AuthPayload, error)
	LogIn(ctx context.Context, email, password string) (model.AuthPayload, error)
	LogOut(ctx context.Context) error
	Current(ctx context.Context) (model.Identity, error)
	SetToken(token string)
	ClearToken()
}

// TokenStore persists the bearer token across process runs.
type TokenStore interface {
	Load() (string, error) // errs.ErrNoToken when absent
	Save(token string) error
	Clear() error
}

// SessionState is an observable snapshot of the session store.
// Invariant: IsLoggedIn implies Token != "".
type SessionState struct {
	User         model.Identity
	Token        string
	IsLoggedIn   bool
	IsRefreshing bool
	Error        string // last user-visible error, "" when clear
}

// Session is the authentication state machine: anonymous, refreshing,
// authenticated, with the error string as an overlay on anonymous.
// Any successful operation clears the error.
type Session struct {
	api    AuthAPI
	tokens TokenStore
	log    *zap.Logger

	mu sync.Mutex
	st SessionState
}

// NewSession constructs an empty (anonymous) session store.
func NewSession(api AuthAPI, tokens TokenStore, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{api: api, tokens: tokens, log: log}
}

// State returns a copy of the current session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}

// ClearError dismisses the current error message.
func (s *Session) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.Error = ""
}

// Register creates an account and logs the new user in. The name is
// trimmed and the email trimmed and lower-cased before they reach the
// server; the password is passed through untouched.
func (s *Session) Register(ctx context.Context, name, email, password string) (model.Identity, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	s.begin()
	payload, err := s.api.Signup(ctx, name, email, password)
	if err != nil {
		s.fail(registerMessage(err))
		return model.Identity{}, err
	}
	s.establish(payload)
	s.log.Info("registered", zap.String("email", payload.User.Email))
	return payload.User, nil
}

// LogIn authenticates against an existing account. Unlike Register it does
// not normalize the email; matching is the server's responsibility.
func (s *Session) LogIn(ctx context.Context, email, password string) (model.Identity, error) {
	s.begin()
	payload, err := s.api.LogIn(ctx, email, password)
	if err != nil {
		s.fail(messageFor(err, msgLoginFail))
		return model.Identity{}, err
	}
	s.establish(payload)
	s.log.Info("logged in", zap.String("email", payload.User.Email))
	return payload.User, nil
}

// LogOut tells the server to invalidate the token, then unconditionally
// resets the session to its initial anonymous state. A failed remote call
// is logged but never surfaced: the client ends up logged out either way.
func (s *Session) LogOut(ctx context.Context) {
	if err := s.api.LogOut(ctx); err != nil {
		s.log.Warn("remote logout failed", zap.Error(err))
	}

	s.mu.Lock()
	s.st = SessionState{}
	s.mu.Unlock()

	s.api.ClearToken()
	if err := s.tokens.Clear(); err != nil {
		s.log.Warn("clear persisted token", zap.Error(err))
	}
	s.log.Info("logged out")
}

// Refresh restores the session from a persisted token.
//
// With no token stored it returns errs.ErrNoToken without touching the
// error field; that outcome is expected for first-time visitors. While a
// refresh is already running it returns errs.ErrRefreshInFlight and has
// no side effects. On a genuine failure the attached token is treated as
// invalid: it is removed from the client and from persistent storage.
func (s *Session) Refresh(ctx context.Context) (model.Identity, error) {
	s.mu.Lock()
	if s.st.IsRefreshing {
		s.mu.Unlock()
		s.log.Debug("refresh skipped, already in flight")
		return model.Identity{}, errs.ErrRefreshInFlight
	}
	token := s.st.Token
	if token == "" {
		var err error
		if token, err = s.tokens.Load(); err != nil {
			s.mu.Unlock()
			if !errors.Is(err, errs.ErrNoToken) {
				s.log.Warn("load persisted token", zap.Error(err))
			}
			return model.Identity{}, errs.ErrNoToken
		}
	}
	s.st.IsRefreshing = true
	s.st.Error = ""
	s.mu.Unlock()

	s.api.SetToken(token)
	user, err := s.api.Current(ctx)
	if err != nil {
		s.api.ClearToken()
		if cerr := s.tokens.Clear(); cerr != nil {
			s.log.Warn("clear persisted token", zap.Error(cerr))
		}
		s.mu.Lock()
		s.st.IsRefreshing = false
		s.st.Error = messageFor(err, msgRefreshFail)
		s.mu.Unlock()
		s.log.Warn("refresh failed", zap.Error(err))
		return model.Identity{}, err
	}

	s.mu.Lock()
	s.st.User = user
	s.st.Token = token
	s.st.IsLoggedIn = true
	s.st.IsRefreshing = false
	s.st.Error = ""
	s.mu.Unlock()
	s.log.Info("session refreshed", zap.String("email", user.Email))
	return user, nil
}

// begin marks a credential operation as pending and clears stale errors.
func (s *Session) begin() {
	s.mu.Lock()
	s.st.IsRefreshing = true
	s.st.Error = ""
	s.mu.Unlock()
}

// establish installs a fresh identity and token as one step: store state,
// the client's bearer header, and persistent storage move together.
func (s *Session) establish(payload model.AuthPayload) {
	s.mu.Lock()
	s.st.User = payload.User
	s.st.Token = payload.Token
	s.st.IsLoggedIn = true
	s.st.IsRefreshing = false
	s.st.Error = ""
	s.mu.Unlock()

	s.api.SetToken(payload.Token)
	if err := s.tokens.Save(payload.Token); err != nil {
		s.log.Warn("persist token", zap.Error(err))
	}
}

// fail records a user-visible message for a failed credential operation.
func (s *Session) fail(msg string) {
	s.mu.Lock()
	s.st.IsRefreshing = false
	s.st.Error = msg
	s.mu.Unlock()
}

// messageFor reduces an operation error to a single user-visible string:
// the server's own message when it sent one, a connectivity notice for
// transport failures, otherwise the operation's fallback.
func messageFor(err error, fallback string) string {
	var se *errs.ServerError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	if errors.Is(err, errs.ErrTransport) {
		return msgNoResponse
	}
	return fallback
}

// registerMessage is messageFor plus the duplicate-email special case.
func registerMessage(err error) string {
	var se *errs.ServerError
	if errors.As(err, &se) && se.Message == "" && se.Status == 409 {
		return msgEmailInUse
	}
	return messageFor(err, msgRegisterFail)
}
