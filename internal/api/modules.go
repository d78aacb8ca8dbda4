package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pocketlearn/pocketlearn/internal/domain"
)

// ModuleInput carries the writable module fields for create and update.
type ModuleInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// ListModules returns all modules visible to the session.
func (c *Client) ListModules(ctx context.Context, sess Session) ([]domain.Module, error) {
	var out []modulePayload
	if err := c.do(ctx, sess, http.MethodGet, "/modules/", nil, &out); err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	modules := make([]domain.Module, len(out))
	for i, p := range out {
		modules[i] = p.toDomain()
	}
	return modules, nil
}

// GetModule returns a single module by ID.
func (c *Client) GetModule(ctx context.Context, sess Session, id int64) (*domain.Module, error) {
	var out modulePayload
	if err := c.do(ctx, sess, http.MethodGet, fmt.Sprintf("/modules/%d/", id), nil, &out); err != nil {
		return nil, fmt.Errorf("get module %d: %w", id, err)
	}
	mod := out.toDomain()
	return &mod, nil
}

// CreateModule creates a module. Admin-only; enforced server-side.
func (c *Client) CreateModule(ctx context.Context, sess Session, input ModuleInput) (*domain.Module, error) {
	var out modulePayload
	if err := c.do(ctx, sess, http.MethodPost, "/modules/", input, &out); err != nil {
		return nil, fmt.Errorf("create module: %w", err)
	}
	mod := out.toDomain()
	return &mod, nil
}

// UpdateModule updates a module's writable fields. Admin-only.
func (c *Client) UpdateModule(ctx context.Context, sess Session, id int64, input ModuleInput) (*domain.Module, error) {
	var out modulePayload
	if err := c.do(ctx, sess, http.MethodPut, fmt.Sprintf("/modules/%d/", id), input, &out); err != nil {
		return nil, fmt.Errorf("update module %d: %w", id, err)
	}
	mod := out.toDomain()
	return &mod, nil
}

// DeleteModule deletes a module and its pages. Admin-only.
func (c *Client) DeleteModule(ctx context.Context, sess Session, id int64) error {
	if err := c.do(ctx, sess, http.MethodDelete, fmt.Sprintf("/modules/%d/", id), nil, nil); err != nil {
		return fmt.Errorf("delete module %d: %w", id, err)
	}
	return nil
}

// SaveModule adds the module to the session user's saved list.
func (c *Client) SaveModule(ctx context.Context, sess Session, id int64) error {
	if err := c.do(ctx, sess, http.MethodPost, fmt.Sprintf("/modules/%d/save/", id), nil, nil); err != nil {
		return fmt.Errorf("save module %d: %w", id, err)
	}
	return nil
}

// UnsaveModule removes the module from the session user's saved list.
func (c *Client) UnsaveModule(ctx context.Context, sess Session, id int64) error {
	if err := c.do(ctx, sess, http.MethodPost, fmt.Sprintf("/modules/%d/unsave/", id), nil, nil); err != nil {
		return fmt.Errorf("unsave module %d: %w", id, err)
	}
	return nil
}

// SavedModules returns the session user's saved modules.
func (c *Client) SavedModules(ctx context.Context, sess Session) ([]domain.Module, error) {
	var out []modulePayload
	if err := c.do(ctx, sess, http.MethodGet, "/modules/saved/", nil, &out); err != nil {
		return nil, fmt.Errorf("list saved modules: %w", err)
	}
	modules := make([]domain.Module, len(out))
	for i, p := range out {
		modules[i] = p.toDomain()
	}
	return modules, nil
}
