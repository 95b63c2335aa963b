// Package session holds authenticated visitor sessions issued by the GitHub
// OAuth flow. A session is the only durable holder of a visitor's access
// token.
package session

import (
	"context"
	"time"
)

// CookieName is the session-ID cookie issued after a successful login.
const CookieName = "gitgaze_session"

// User is the subset of the GitHub profile kept in a session.
type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Email     string `json:"email"`
}

// Session is one authenticated visitor session.
type Session struct {
	ID          string    `json:"id"`
	User        User      `json:"user"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the session has passed its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

type contextKey struct{}

// NewContext attaches a session to ctx.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session attached to ctx, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok && s != nil
}
