package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/pocketlearn/pocketlearn/internal/api"
	"github.com/pocketlearn/pocketlearn/internal/domain"
)

// SessionManager owns the authenticated-session lifecycle: it exchanges
// credentials with the learning API, persists each browser session's token
// pair, and resolves the current user. All session mutation goes through
// this type; everything else treats sessions as read-only.
type SessionManager struct {
	api      *api.Client
	sessions domain.SessionRepository

	mu    sync.Mutex
	users map[string]*domain.User // resolved users by session ID, memory only
}

// NewSessionManager creates a new SessionManager.
func NewSessionManager(client *api.Client, sessions domain.SessionRepository) *SessionManager {
	return &SessionManager{
		api:      client,
		sessions: sessions,
		users:    make(map[string]*domain.User),
	}
}

// Handle returns the credential handle requests for this session are issued
// under. The handle writes token replacements and invalidations back to the
// manager, so the refresh-once protocol in the API client stays in sync
// with the persisted pair.
func (m *SessionManager) Handle(session *domain.Session) api.Session {
	return &sessionHandle{manager: m, session: session}
}

// Restore resolves a stored session ID back into an authenticated session.
// If the stored token pair exists, the profile is fetched; on success the
// user is attached, on any failure both tokens are cleared. A nil session
// with a nil error means "not signed in" — callers redirect, Restore never
// does.
func (m *SessionManager) Restore(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := m.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	m.mu.Lock()
	cached := m.users[sessionID]
	m.mu.Unlock()
	if cached != nil {
		session.User = cached
		return session, nil
	}

	user, err := m.api.Me(ctx, m.Handle(session))
	if err != nil {
		slog.Debug("session restore failed, clearing tokens", "session", sessionID, "error", err)
		if clearErr := m.Handle(session).Clear(ctx); clearErr != nil {
			return nil, fmt.Errorf("clear unrestorable session: %w", clearErr)
		}
		return nil, nil
	}

	m.cacheUser(sessionID, user)
	session.User = user
	return session, nil
}

// Login exchanges credentials for a token pair, persists the pair under a
// new session ID, then fetches and attaches the profile. On rejected
// credentials no session state is created.
func (m *SessionManager) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	pair, err := m.api.ObtainTokens(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	session := &domain.Session{
		ID:           uuid.NewString(),
		AccessToken:  pair.Access,
		RefreshToken: pair.Refresh,
	}
	if err := m.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	user, err := m.api.Me(ctx, m.Handle(session))
	if err != nil {
		// The pair worked moments ago; a profile failure leaves no usable
		// session behind.
		if clearErr := m.Handle(session).Clear(ctx); clearErr != nil {
			slog.Error("clear session after failed profile fetch", "error", clearErr)
		}
		return nil, fmt.Errorf("fetch profile after login: %w", err)
	}

	m.cacheUser(session.ID, user)
	session.User = user
	return session, nil
}

// Register creates an account. The registration endpoint returns the token
// pair and user record together, so no secondary profile fetch happens.
func (m *SessionManager) Register(ctx context.Context, reg domain.Registration) (*domain.Session, error) {
	pair, user, err := m.api.Register(ctx, reg)
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		ID:           uuid.NewString(),
		AccessToken:  pair.Access,
		RefreshToken: pair.Refresh,
	}
	if err := m.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	m.cacheUser(session.ID, user)
	session.User = user
	return session, nil
}

// UpdateUser submits changed profile fields for the session user. A new
// password requires the current one; that check happens here so the form
// gets a field-level error without a round trip.
func (m *SessionManager) UpdateUser(ctx context.Context, session *domain.Session, update domain.UserUpdate) (*domain.User, error) {
	if !session.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	if update.NewPassword != "" && update.CurrentPassword == "" {
		return nil, domain.FieldError("current_password", "Current password is required to set a new password.")
	}

	user, err := m.api.UpdateUser(ctx, m.Handle(session), session.User.ID, update)
	if err != nil {
		return nil, err
	}

	m.cacheUser(session.ID, user)
	session.User = user
	return user, nil
}

// Logout clears the session locally. No upstream call is made; the token
// pair is simply forgotten.
func (m *SessionManager) Logout(ctx context.Context, sessionID string) error {
	m.dropUser(sessionID)
	if err := m.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteAccount requests server-side account deletion, then clears the
// session exactly like Logout. If the deletion call fails the session is
// left untouched.
func (m *SessionManager) DeleteAccount(ctx context.Context, session *domain.Session) error {
	if !session.Authenticated() {
		return domain.ErrUnauthorized
	}
	if err := m.api.DeleteAccount(ctx, m.Handle(session)); err != nil {
		return err
	}
	return m.Logout(ctx, session.ID)
}

// ResetPassword requests a password-reset email. Unauthenticated.
func (m *SessionManager) ResetPassword(ctx context.Context, email string) error {
	if email == "" {
		return domain.FieldError("email", "Email is required.")
	}
	return m.api.ResetPassword(ctx, email)
}

func (m *SessionManager) cacheUser(sessionID string, user *domain.User) {
	m.mu.Lock()
	m.users[sessionID] = user
	m.mu.Unlock()
}

func (m *SessionManager) dropUser(sessionID string) {
	m.mu.Lock()
	delete(m.users, sessionID)
	m.mu.Unlock()
}

// sessionHandle adapts one session to the api.Session credential interface.
type sessionHandle struct {
	manager *SessionManager
	session *domain.Session
}

func (h *sessionHandle) AccessToken() string  { return h.session.AccessToken }
func (h *sessionHandle) RefreshToken() string { return h.session.RefreshToken }

func (h *sessionHandle) StoreAccessToken(ctx context.Context, access string) error {
	h.session.AccessToken = access
	return h.manager.sessions.UpdateTokens(ctx, h.session.ID, access, h.session.RefreshToken)
}

func (h *sessionHandle) Clear(ctx context.Context) error {
	h.session.AccessToken = ""
	h.session.RefreshToken = ""
	h.session.User = nil
	h.manager.dropUser(h.session.ID)
	return h.manager.sessions.Delete(ctx, h.session.ID)
}
