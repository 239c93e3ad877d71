package backend

import (
	"sync"

	"github.com/vadim/neo-studio/internal/domain/common"
)

// User is the authenticated user as returned by the backend
type User struct {
	ID    common.ID `json:"id"`
	Email string    `json:"email"`
	Nom   string    `json:"nom,omitempty"`
	Role  string    `json:"role,omitempty"`
}

// Tokens is the payload of /auth/login and /auth/refresh
type Tokens struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	User         *User  `json:"user,omitempty"`
}

// Session holds the local user state shared by all requests
type Session struct {
	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	user         *User
}

// NewSession creates a session seeded with optional tokens
func NewSession(accessToken, refreshToken string) *Session {
	return &Session{
		accessToken:  accessToken,
		refreshToken: refreshToken,
	}
}

// AccessToken returns the current bearer token, if any
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token, if any
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// User returns the logged-in user, nil when unknown
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Apply stores tokens returned by the backend. Empty fields keep their
// previous value since cookie-based refreshes may omit them.
func (s *Session) Apply(t Tokens) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.AccessToken != "" {
		s.accessToken = t.AccessToken
	}
	if t.RefreshToken != "" {
		s.refreshToken = t.RefreshToken
	}
	if t.User != nil {
		u := *t.User
		s.user = &u
	}
}

// Clear drops all local user state (forced logout)
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.refreshToken = ""
	s.user = nil
}
