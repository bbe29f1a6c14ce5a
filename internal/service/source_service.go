package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"basal-backend-go/internal/model"
	"basal-backend-go/internal/repository"
	"basal-backend-go/pkg/log"
)

// ChunkPayload is one chunk as delivered by the processing-side sync
// callback.
type ChunkPayload struct {
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding"`
}

// SourceService lists sources and applies the sync callbacks through which
// the remote processing side reports its results.
type SourceService interface {
	ListByUser(user *model.User) ([]model.Source, error)
	ListAll() ([]model.Source, error)

	// UpdateStatus moves a source to the given status. Unknown ids map to
	// ErrNotFound so the caller can retry or give up.
	UpdateStatus(sourceID string, status string) error

	// ReplaceChunks swaps the source's full chunk set atomically and marks
	// the source completed. Every embedding must carry the fixed dimension.
	ReplaceChunks(sourceID string, chunks []ChunkPayload) error
}

type sourceService struct {
	sourceRepo repository.SourceRepository
}

// NewSourceService creates a new SourceService.
func NewSourceService(sourceRepo repository.SourceRepository) SourceService {
	return &sourceService{sourceRepo: sourceRepo}
}

func (s *sourceService) ListByUser(user *model.User) ([]model.Source, error) {
	return s.sourceRepo.FindByUser(user.ID)
}

func (s *sourceService) ListAll() ([]model.Source, error) {
	return s.sourceRepo.FindAll()
}

func (s *sourceService) UpdateStatus(sourceID string, status string) error {
	id, err := uuid.Parse(sourceID)
	if err != nil {
		return ErrInvalidID
	}
	st := model.AnalysisStatus(status)
	switch st {
	case model.StatusPending, model.StatusProcessing, model.StatusCompleted, model.StatusFailed:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidPayload, status)
	}
	if err := s.sourceRepo.UpdateStatus(id, st); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *sourceService) ReplaceChunks(sourceID string, chunks []ChunkPayload) error {
	id, err := uuid.Parse(sourceID)
	if err != nil {
		return ErrInvalidID
	}
	if _, err := s.sourceRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	rows := make([]model.SourceChunk, 0, len(chunks))
	for i, c := range chunks {
		if len(c.Embedding) != model.EmbeddingDim {
			return fmt.Errorf("%w: chunk %d has embedding dimension %d, want %d", ErrInvalidPayload, i, len(c.Embedding), model.EmbeddingDim)
		}
		rows = append(rows, model.SourceChunk{
			Content:   c.Content,
			Embedding: pgvector.NewVector(c.Embedding),
		})
	}

	if err := s.sourceRepo.ReplaceChunks(id, rows); err != nil {
		return err
	}
	log.Infof("[SourceService] synced %d chunks for source %s", len(rows), id)
	return nil
}
