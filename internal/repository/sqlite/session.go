package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pocketlearn/pocketlearn/internal/domain"
)

// SessionRepository implements domain.SessionRepository using SQLite.
// Only the token pair is persisted; the resolved user is re-fetched from
// the learning API when a session is restored.
type SessionRepository struct {
	db *sql.DB
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, access_token, refresh_token, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		session.ID, session.AccessToken, session.RefreshToken, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	session.CreatedAt = now
	session.UpdatedAt = now
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	session := &domain.Session{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, access_token, refresh_token, created_at, updated_at
		 FROM sessions WHERE id = ?`, id,
	).Scan(&session.ID, &session.AccessToken, &session.RefreshToken, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query session by id: %w", err)
	}
	return session, nil
}

func (r *SessionRepository) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET access_token = ?, refresh_token = ?, updated_at = ? WHERE id = ?`,
		accessToken, refreshToken, now, id,
	)
	if err != nil {
		return fmt.Errorf("update session tokens: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
