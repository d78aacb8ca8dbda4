package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pocketlearn/pocketlearn/internal/domain"
)

// QuizOptionInput is one answer choice in a page write.
type QuizOptionInput struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// PageInput carries the writable page fields. QuizOptions must be set iff
// Type is "quiz"; the module ID travels in the body as well as the path,
// matching what the API expects.
type PageInput struct {
	Type        string
	Content     string
	Order       int
	QuizOptions []QuizOptionInput
}

func pageBody(moduleID int64, input PageInput) map[string]any {
	body := map[string]any{
		"module":  moduleID,
		"type":    input.Type,
		"content": input.Content,
		"order":   input.Order,
	}
	if input.Type == domain.PageTypeQuiz {
		opts := input.QuizOptions
		if opts == nil {
			opts = []QuizOptionInput{}
		}
		body["quiz_options"] = opts
	}
	return body
}

// ListPages returns a module's pages in whatever order the API stores them;
// callers sort by Page.Order.
func (c *Client) ListPages(ctx context.Context, sess Session, moduleID int64) ([]domain.Page, error) {
	var out []pagePayload
	path := fmt.Sprintf("/modules/%d/pages/", moduleID)
	if err := c.do(ctx, sess, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("list pages of module %d: %w", moduleID, err)
	}
	pages := make([]domain.Page, len(out))
	for i, p := range out {
		pages[i] = p.toDomain()
	}
	return pages, nil
}

// CreatePage creates a page within a module. Admin-only.
func (c *Client) CreatePage(ctx context.Context, sess Session, moduleID int64, input PageInput) (*domain.Page, error) {
	var out pagePayload
	path := fmt.Sprintf("/modules/%d/pages/", moduleID)
	if err := c.do(ctx, sess, http.MethodPost, path, pageBody(moduleID, input), &out); err != nil {
		return nil, fmt.Errorf("create page in module %d: %w", moduleID, err)
	}
	page := out.toDomain()
	return &page, nil
}

// UpdatePage replaces a page's writable fields. Admin-only.
func (c *Client) UpdatePage(ctx context.Context, sess Session, moduleID, pageID int64, input PageInput) (*domain.Page, error) {
	var out pagePayload
	path := fmt.Sprintf("/modules/%d/pages/%d/", moduleID, pageID)
	if err := c.do(ctx, sess, http.MethodPut, path, pageBody(moduleID, input), &out); err != nil {
		return nil, fmt.Errorf("update page %d: %w", pageID, err)
	}
	page := out.toDomain()
	return &page, nil
}

// DeletePage deletes a page. Admin-only.
func (c *Client) DeletePage(ctx context.Context, sess Session, moduleID, pageID int64) error {
	path := fmt.Sprintf("/modules/%d/pages/%d/", moduleID, pageID)
	if err := c.do(ctx, sess, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete page %d: %w", pageID, err)
	}
	return nil
}
