package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"basal-backend-go/internal/model"
)

// SourceRepository persists sources and their chunk sets.
type SourceRepository interface {
	// GetOrCreate inserts the source unless one with the same unique key
	// already exists; existed reports which happened. Losing an insert race
	// to a concurrent request counts as "existed".
	GetOrCreate(source *model.Source) (existing *model.Source, existed bool, err error)

	// ReplaceChunks swaps the full chunk set and marks the source completed
	// in one transaction, so a reader never observes a partial set.
	ReplaceChunks(sourceID uuid.UUID, chunks []model.SourceChunk) error

	// NearestChunks ranks the chunks of one user-owned source by cosine
	// distance to the query vector, nearest first.
	NearestChunks(userID, sourceID uuid.UUID, query []float32, limit int) ([]model.SourceChunk, error)

	FindByID(id uuid.UUID) (*model.Source, error)
	FindByUser(userID uuid.UUID) ([]model.Source, error)
	FindAll() ([]model.Source, error)
	UpdateStatus(id uuid.UUID, status model.AnalysisStatus) error

	// FailStuck marks sources stuck in processing before the cutoff failed.
	FailStuck(cutoff time.Time) (int64, error)
}

type sourceRepository struct {
	db *gorm.DB
}

// NewSourceRepository creates a new SourceRepository.
func NewSourceRepository(db *gorm.DB) SourceRepository {
	return &sourceRepository{db: db}
}

func (r *sourceRepository) GetOrCreate(source *model.Source) (*model.Source, bool, error) {
	var existing model.Source
	err := r.db.Where("unique_key = ?", source.UniqueKey).First(&existing).Error
	if err == nil {
		return &existing, true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	if source.ID == uuid.Nil {
		source.ID = uuid.New()
	}
	// ON CONFLICT DO NOTHING keeps a concurrent duplicate request from
	// failing; whoever lost the race reads the winner's row.
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "unique_key"}},
		DoNothing: true,
	}).Create(source)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		if err := r.db.Where("unique_key = ?", source.UniqueKey).First(&existing).Error; err != nil {
			return nil, false, err
		}
		return &existing, true, nil
	}
	return source, false, nil
}

func (r *sourceRepository) ReplaceChunks(sourceID uuid.UUID, chunks []model.SourceChunk) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("source_id = ?", sourceID).Delete(&model.SourceChunk{}).Error; err != nil {
			return err
		}
		if len(chunks) > 0 {
			for i := range chunks {
				chunks[i].ID = 0
				chunks[i].SourceID = sourceID
				chunks[i].Status = model.StatusCompleted
			}
			if err := tx.Create(&chunks).Error; err != nil {
				return err
			}
		}
		return tx.Model(&model.Source{}).
			Where("id = ?", sourceID).
			Update("status", model.StatusCompleted).Error
	})
}

func (r *sourceRepository) NearestChunks(userID, sourceID uuid.UUID, query []float32, limit int) ([]model.SourceChunk, error) {
	var chunks []model.SourceChunk
	err := r.db.
		Joins("JOIN sources ON sources.id = source_chunks.source_id").
		Where("sources.user_id = ? AND source_chunks.source_id = ?", userID, sourceID).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:  "source_chunks.embedding <=> ?",
			Vars: []interface{}{pgvector.NewVector(query)},
		}}).
		Limit(limit).
		Find(&chunks).Error
	return chunks, err
}

func (r *sourceRepository) FindByID(id uuid.UUID) (*model.Source, error) {
	var source model.Source
	if err := r.db.First(&source, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &source, nil
}

func (r *sourceRepository) FindByUser(userID uuid.UUID) ([]model.Source, error) {
	var sources []model.Source
	err := r.db.Where("user_id = ?", userID).Order("created_at desc").Find(&sources).Error
	return sources, err
}

func (r *sourceRepository) FindAll() ([]model.Source, error) {
	var sources []model.Source
	err := r.db.Order("created_at desc").Find(&sources).Error
	return sources, err
}

func (r *sourceRepository) UpdateStatus(id uuid.UUID, status model.AnalysisStatus) error {
	res := r.db.Model(&model.Source{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *sourceRepository) FailStuck(cutoff time.Time) (int64, error) {
	res := r.db.Model(&model.Source{}).
		Where("status IN ? AND updated_at < ?", []model.AnalysisStatus{model.StatusPending, model.StatusProcessing}, cutoff).
		Update("status", model.StatusFailed)
	return res.RowsAffected, res.Error
}
