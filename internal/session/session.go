// Package session holds the signed-in user's bearer token and the claims read from it.
// Tokens are issued and verified elsewhere; this package only decodes them.
package session

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSession is returned when no token has been configured.
var ErrNoSession = errors.New("not signed in")

// Claims is the subset of token claims the client relies on.
type Claims struct {
	jwt.RegisteredClaims
	Email   string   `json:"email,omitempty"`
	Name    string   `json:"name,omitempty"`
	Picture string   `json:"picture,omitempty"`
	Role    string   `json:"role,omitempty"`
	Roles   []string `json:"roles,omitempty"`
	Admin   bool     `json:"admin,omitempty"`
}

// Session is a decoded bearer token.
type Session struct {
	ExpiresAt time.Time
	Token     string
	Email     string
	Name      string
	admin     bool
}

// Parse decodes a JWT without verifying its signature.
func Parse(token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	parsed, _, err := parser.ParseUnverified(token, &Claims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}

	s := &Session{
		Token: token,
		Email: claims.Email,
		Name:  claims.Name,
		admin: claims.Admin || claims.Role == "admin" || slices.Contains(claims.Roles, "admin"),
	}
	if s.Email == "" {
		s.Email = claims.Subject
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// Expired reports whether the token's expiry has passed. Tokens without an
// expiry never expire.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// IsAdmin reports whether the token grants the admin role.
func (s *Session) IsAdmin() bool {
	return s.admin
}

// DisplayName returns the user's name, falling back to the email.
func (s *Session) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Email
}

// Holder is the process-wide session slot.
type Holder struct {
	mu      sync.RWMutex
	current *Session
}

// NewHolder creates a holder from a raw token. An empty token yields a
// signed-out holder; a malformed token is an error.
func NewHolder(token string) (*Holder, error) {
	h := &Holder{}
	if token == "" {
		return h, nil
	}
	s, err := Parse(token)
	if err != nil {
		return nil, err
	}
	h.current = s
	return h, nil
}

// Get returns the current session, or nil when signed out.
func (h *Holder) Get() *Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Token returns the bearer token, or "" when signed out.
func (h *Holder) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.current == nil {
		return ""
	}
	return h.current.Token
}

// Set replaces the current session.
func (h *Holder) Set(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = s
}

// Clear signs out. It reports whether a session was active.
func (h *Holder) Clear() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	had := h.current != nil
	h.current = nil
	return had
}

// Require returns the current session or ErrNoSession.
func (h *Holder) Require() (*Session, error) {
	s := h.Get()
	if s == nil {
		return nil, ErrNoSession
	}
	return s, nil
}
