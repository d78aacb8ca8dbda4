package domain

import (
	"context"
	"time"
)

// Session is one browser session's view of the learning API: the bearer
// token pair plus the resolved user. The token pair is persisted so a
// session survives a process restart; User is resolved from the API and
// cached in memory only.
//
// Invariants: AccessToken is set iff an authentication attempt succeeded or
// was restored; User is set iff the access token validated against the
// profile endpoint.
type Session struct {
	ID           string
	AccessToken  string
	RefreshToken string
	User         *User
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Authenticated reports whether the session has a resolved user.
func (s *Session) Authenticated() bool {
	return s != nil && s.User != nil
}

// Admin reports whether the session belongs to an admin user.
func (s *Session) Admin() bool {
	return s.Authenticated() && s.User.IsAdmin
}

// SessionRepository defines persistence for session token pairs.
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	UpdateTokens(ctx context.Context, id, accessToken, refreshToken string) error
	Delete(ctx context.Context, id string) error
}
