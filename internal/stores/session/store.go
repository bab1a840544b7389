// Package session owns the signed-in user. Every mutation goes through a
// named operation; readers take a Snapshot.
package session

import (
	"context"
	"strings"
	"sync"

	"nova-client/internal/common/auth"
	"nova-client/internal/common/errors"
	"nova-client/internal/common/logger"
	"nova-client/internal/models"
)

const (
	MessageCannotConnect      = "Cannot connect to server. Please make sure the backend is running."
	MessageInvalidCredentials = "Invalid email or password."
)

// API is the slice of the backend the session needs.
type API interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	CurrentUser(ctx context.Context) (*models.User, error)
}

// State is a copy of the session at one point in time.
type State struct {
	User            *models.User
	IsAuthenticated bool
	IsLoading       bool
}

type Store struct {
	api    API
	tokens auth.TokenStore
	log    logger.Logger

	mu          sync.RWMutex
	state       State
	subscribers []func(State)
}

func NewStore(api API, tokens auth.TokenStore, log logger.Logger) *Store {
	return &Store{
		api:    api,
		tokens: tokens,
		log:    log.WithFields(map[string]interface{}{"component": "session"}),
		state:  State{IsLoading: true},
	}
}

// Snapshot returns the current state. The user is copied so callers cannot
// mutate the store through it.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyState(s.state)
}

// Subscribe registers fn to receive every state change.
func (s *Store) Subscribe(fn func(State)) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

// SetUser replaces the user; a nil user means anonymous.
func (s *Store) SetUser(u *models.User) {
	s.update(func(st *State) {
		st.User = u
		st.IsAuthenticated = u != nil
		st.IsLoading = false
	})
}

// FetchUser reloads the current user. Any failure leaves the session
// anonymous and drops the stored tokens.
func (s *Store) FetchUser(ctx context.Context) {
	s.update(func(st *State) { st.IsLoading = true })

	tokens, err := s.tokens.Load(ctx)
	if err != nil || tokens.Access == "" {
		s.SetUser(nil)
		return
	}

	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		s.log.Debug("current user unavailable, continuing anonymous", map[string]interface{}{"error": err})
		if clearErr := s.tokens.Clear(ctx); clearErr != nil {
			s.log.Warn("failed to clear tokens", map[string]interface{}{"error": clearErr})
		}
		s.SetUser(nil)
		return
	}
	s.SetUser(user)
}

// Logout drops both tokens and goes anonymous. No server call is made.
func (s *Store) Logout(ctx context.Context) {
	if err := s.tokens.Clear(ctx); err != nil {
		s.log.Warn("failed to clear tokens", map[string]interface{}{"error": err})
	}
	s.SetUser(nil)
}

// Login exchanges credentials for tokens and loads the user. The returned
// error's message is ready to show: a connectivity message for transport
// failures, the server detail for rejections, else the generic credential
// message.
func (s *Store) Login(ctx context.Context, email, password string) error {
	s.update(func(st *State) { st.IsLoading = true })

	resp, err := s.api.Login(ctx, models.LoginRequest{Email: strings.TrimSpace(email), Password: password})
	if err != nil {
		s.SetUser(nil)
		return &LoginError{Message: loginMessage(err), cause: err}
	}

	pair := resp.Tokens()
	if pair.Access == "" {
		s.SetUser(nil)
		return &LoginError{Message: MessageInvalidCredentials, cause: errors.NewDecodeError(errMissingAccess)}
	}
	if err := s.tokens.Save(ctx, pair); err != nil {
		s.SetUser(nil)
		return &LoginError{Message: "Could not store session tokens.", cause: err}
	}

	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		s.log.Debug("falling back to user from login response", map[string]interface{}{"error": err})
		user = resp.User
	}
	s.SetUser(user)
	s.log.Info("logged in", map[string]interface{}{"email": email})
	return nil
}

func loginMessage(err error) string {
	if errors.IsNetworkError(err) {
		return MessageCannotConnect
	}
	return errors.UserMessage(err, MessageInvalidCredentials)
}

func (s *Store) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	snapshot := copyState(s.state)
	subs := append([]func(State){}, s.subscribers...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snapshot)
	}
}

func copyState(st State) State {
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}
