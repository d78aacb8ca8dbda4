package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pocketlearn/pocketlearn/internal/domain"
)

// ListProgress returns all progress records belonging to the session user.
// The API has no per-module lookup or upsert; callers filter this list and
// choose between create and patch.
func (c *Client) ListProgress(ctx context.Context, sess Session) ([]domain.Progress, error) {
	var out []progressPayload
	if err := c.do(ctx, sess, http.MethodGet, "/progress/", nil, &out); err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	records := make([]domain.Progress, len(out))
	for i, p := range out {
		records[i] = p.toDomain()
	}
	return records, nil
}

// CreateProgress creates the first progress record for a module.
func (c *Client) CreateProgress(ctx context.Context, sess Session, moduleID int64, percent int) (*domain.Progress, error) {
	body := map[string]any{"module": moduleID, "progress": percent}
	var out progressPayload
	if err := c.do(ctx, sess, http.MethodPost, "/progress/", body, &out); err != nil {
		return nil, fmt.Errorf("create progress for module %d: %w", moduleID, err)
	}
	rec := out.toDomain()
	return &rec, nil
}

// PatchProgress updates an existing progress record.
func (c *Client) PatchProgress(ctx context.Context, sess Session, id, moduleID int64, percent int) (*domain.Progress, error) {
	body := map[string]any{"module": moduleID, "progress": percent}
	var out progressPayload
	path := fmt.Sprintf("/progress/%d/", id)
	if err := c.do(ctx, sess, http.MethodPatch, path, body, &out); err != nil {
		return nil, fmt.Errorf("patch progress %d: %w", id, err)
	}
	rec := out.toDomain()
	return &rec, nil
}
