package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pocketlearn/pocketlearn/internal/api"
	"github.com/pocketlearn/pocketlearn/internal/domain"
	"golang.org/x/sync/errgroup"
)

// ContentService wraps module and page management on the learning API.
// Write operations are admin-only; the route guard keeps non-admins out
// client-side and the API enforces it authoritatively.
type ContentService struct {
	api *api.Client
}

// NewContentService creates a new ContentService.
func NewContentService(client *api.Client) *ContentService {
	return &ContentService{api: client}
}

// ListModules returns all modules.
func (s *ContentService) ListModules(ctx context.Context, cred api.Session) ([]domain.Module, error) {
	return s.api.ListModules(ctx, cred)
}

// GetModule returns one module.
func (s *ContentService) GetModule(ctx context.Context, cred api.Session, id int64) (*domain.Module, error) {
	return s.api.GetModule(ctx, cred, id)
}

// CreateModule validates and creates a module.
func (s *ContentService) CreateModule(ctx context.Context, cred api.Session, input api.ModuleInput) (*domain.Module, error) {
	if err := validateModule(input); err != nil {
		return nil, err
	}
	return s.api.CreateModule(ctx, cred, input)
}

// UpdateModule validates and updates a module.
func (s *ContentService) UpdateModule(ctx context.Context, cred api.Session, id int64, input api.ModuleInput) (*domain.Module, error) {
	if err := validateModule(input); err != nil {
		return nil, err
	}
	return s.api.UpdateModule(ctx, cred, id, input)
}

// DeleteModule deletes a module.
func (s *ContentService) DeleteModule(ctx context.Context, cred api.Session, id int64) error {
	return s.api.DeleteModule(ctx, cred, id)
}

// SaveModule adds a module to the user's saved list.
func (s *ContentService) SaveModule(ctx context.Context, cred api.Session, id int64) error {
	return s.api.SaveModule(ctx, cred, id)
}

// UnsaveModule removes a module from the user's saved list.
func (s *ContentService) UnsaveModule(ctx context.Context, cred api.Session, id int64) error {
	return s.api.UnsaveModule(ctx, cred, id)
}

// SavedModules returns the user's saved modules.
func (s *ContentService) SavedModules(ctx context.Context, cred api.Session) ([]domain.Module, error) {
	return s.api.SavedModules(ctx, cred)
}

// ListPages returns a module's pages sorted ascending by order.
func (s *ContentService) ListPages(ctx context.Context, cred api.Session, moduleID int64) ([]domain.Page, error) {
	pages, err := s.api.ListPages(ctx, cred, moduleID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(pages, func(i, j int) bool { return pages[i].Order < pages[j].Order })
	return pages, nil
}

// CreatePage validates and creates a page within a module.
func (s *ContentService) CreatePage(ctx context.Context, cred api.Session, moduleID int64, input api.PageInput) (*domain.Page, error) {
	if err := validatePage(input); err != nil {
		return nil, err
	}
	return s.api.CreatePage(ctx, cred, moduleID, input)
}

// UpdatePage validates and updates a page.
func (s *ContentService) UpdatePage(ctx context.Context, cred api.Session, moduleID, pageID int64, input api.PageInput) (*domain.Page, error) {
	if err := validatePage(input); err != nil {
		return nil, err
	}
	return s.api.UpdatePage(ctx, cred, moduleID, pageID, input)
}

// DeletePage deletes a page.
func (s *ContentService) DeletePage(ctx context.Context, cred api.Session, moduleID, pageID int64) error {
	return s.api.DeletePage(ctx, cred, moduleID, pageID)
}

// MovePage shifts the page at index by delta (-1 up, +1 down) within the
// given sorted page list. Exactly the two affected pages swap their order
// values; the two updates are issued concurrently and both must succeed.
// On success the list is reconciled from a fresh fetch. On any failure the
// pre-move order is returned unchanged alongside the error, so callers can
// roll back their optimistic view.
func (s *ContentService) MovePage(ctx context.Context, cred api.Session, moduleID int64, pages []domain.Page, index, delta int) ([]domain.Page, error) {
	if delta != -1 && delta != 1 {
		return pages, fmt.Errorf("%w: move delta must be -1 or 1", domain.ErrInvalidInput)
	}
	target := index + delta
	if index < 0 || index >= len(pages) || target < 0 || target >= len(pages) {
		return pages, fmt.Errorf("%w: move out of range", domain.ErrInvalidInput)
	}

	moved, displaced := pages[index], pages[target]

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.api.UpdatePage(gctx, cred, moduleID, moved.ID, pageInputFrom(moved, displaced.Order))
		return err
	})
	g.Go(func() error {
		_, err := s.api.UpdatePage(gctx, cred, moduleID, displaced.ID, pageInputFrom(displaced, moved.Order))
		return err
	})
	if err := g.Wait(); err != nil {
		return pages, fmt.Errorf("reorder pages: %w", err)
	}

	return s.ListPages(ctx, cred, moduleID)
}

func pageInputFrom(page domain.Page, order int) api.PageInput {
	input := api.PageInput{
		Type:    page.Type,
		Content: page.Content,
		Order:   order,
	}
	for _, opt := range page.QuizOptions {
		input.QuizOptions = append(input.QuizOptions, api.QuizOptionInput{
			Text:      opt.Text,
			IsCorrect: opt.IsCorrect,
		})
	}
	return input
}

func validateModule(input api.ModuleInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return domain.FieldError("title", "Title is required.")
	}
	return nil
}

func validatePage(input api.PageInput) error {
	switch input.Type {
	case domain.PageTypeText, domain.PageTypeVideo:
		if len(input.QuizOptions) > 0 {
			return domain.FieldError("quiz_options", "Only quiz pages carry options.")
		}
		return nil
	case domain.PageTypeQuiz:
	default:
		return domain.FieldError("type", "Type must be text, video, or quiz.")
	}

	if len(input.QuizOptions) < 2 {
		return domain.FieldError("quiz_options", "Quiz pages need at least two options.")
	}
	anyCorrect := false
	for _, opt := range input.QuizOptions {
		if strings.TrimSpace(opt.Text) == "" {
			return domain.FieldError("quiz_options", "All quiz options must have text.")
		}
		if opt.IsCorrect {
			anyCorrect = true
		}
	}
	if !anyCorrect {
		return domain.FieldError("quiz_options", "At least one option must be marked as correct.")
	}
	return nil
}
