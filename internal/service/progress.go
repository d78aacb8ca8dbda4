package service

import (
	"context"
	"fmt"

	"github.com/pocketlearn/pocketlearn/internal/api"
	"github.com/pocketlearn/pocketlearn/internal/domain"
)

// ProgressService wraps the learning API's progress records. The API offers
// no atomic upsert, so completion is a read-then-write: list the user's
// records, then patch the matching one or create it.
type ProgressService struct {
	api *api.Client
}

// NewProgressService creates a new ProgressService.
func NewProgressService(client *api.Client) *ProgressService {
	return &ProgressService{api: client}
}

// List returns all of the session user's progress records.
func (s *ProgressService) List(ctx context.Context, cred api.Session) ([]domain.Progress, error) {
	return s.api.ListProgress(ctx, cred)
}

// CompleteModule records 100% completion for the module, creating the
// progress record if none exists yet.
func (s *ProgressService) CompleteModule(ctx context.Context, cred api.Session, moduleID int64) (*domain.Progress, error) {
	records, err := s.api.ListProgress(ctx, cred)
	if err != nil {
		return nil, fmt.Errorf("look up progress: %w", err)
	}

	for _, rec := range records {
		if rec.ModuleID == moduleID {
			return s.api.PatchProgress(ctx, cred, rec.ID, moduleID, 100)
		}
	}
	return s.api.CreateProgress(ctx, cred, moduleID, 100)
}

// CompletedModules returns the IDs of modules the user has fully completed.
func (s *ProgressService) CompletedModules(ctx context.Context, cred api.Session) ([]int64, error) {
	records, err := s.api.ListProgress(ctx, cred)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for _, rec := range records {
		if rec.Percent == 100 {
			ids = append(ids, rec.ModuleID)
		}
	}
	return ids, nil
}
