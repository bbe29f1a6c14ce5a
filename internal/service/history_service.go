package service

import (
	"context"

	"basal-backend-go/internal/model"
	"basal-backend-go/internal/repository"
	"basal-backend-go/pkg/log"
	"basal-backend-go/pkg/storage"
)

// HistoryService reads and resets a user's resume analysis history.
type HistoryService interface {
	List(user *model.User) ([]model.ResumeAnalysis, error)

	// Reset deletes all of the user's analysis records and then removes the
	// stored files they referenced. Object deletion is best effort; the
	// records are gone either way. Returns how many records were deleted.
	Reset(ctx context.Context, user *model.User) (int, error)
}

type historyService struct {
	analysisRepo repository.AnalysisRepository
	store        storage.Store
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(analysisRepo repository.AnalysisRepository, store storage.Store) HistoryService {
	return &historyService{analysisRepo: analysisRepo, store: store}
}

func (s *historyService) List(user *model.User) ([]model.ResumeAnalysis, error) {
	return s.analysisRepo.FindByUser(user.ID)
}

func (s *historyService) Reset(ctx context.Context, user *model.User) (int, error) {
	records, err := s.analysisRepo.FindByUser(user.ID)
	if err != nil {
		return 0, err
	}
	keys, err := s.analysisRepo.DeleteByUser(user.ID)
	if err != nil {
		return 0, err
	}
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			log.Warnf("[HistoryService] failed to delete object %s: %v", key, err)
		}
	}
	return len(records), nil
}
