// Package repository implements the data access layer. It is the only
// writer of analysis, source and chunk state.
package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"basal-backend-go/internal/model"
	"basal-backend-go/pkg/log"
)

// AnalysisRepository persists resume analysis records.
type AnalysisRepository interface {
	// CreatePlaceholder inserts a record in processing status with zero
	// score and empty payload maps, returning it so callers can reference
	// the id before the remote work completes. A nil id mints a fresh one.
	CreatePlaceholder(userID uuid.UUID, filename string, s3Key *string, id *uuid.UUID) (*model.ResumeAnalysis, error)

	// FinalizeSuccess moves the record to completed and overwrites score and
	// payloads. An unknown id is logged, not returned: the background task
	// calling this has no one to report to.
	FinalizeSuccess(id uuid.UUID, score float64, details, candidateInfo map[string]interface{}) error

	// FinalizeFailure moves the record to failed, leaving the placeholder
	// defaults untouched.
	FinalizeFailure(id uuid.UUID) error

	FindByUser(userID uuid.UUID) ([]model.ResumeAnalysis, error)
	FindByID(id uuid.UUID) (*model.ResumeAnalysis, error)

	// DeleteByUser removes all of a user's records and returns the storage
	// keys they referenced so the caller can clean up the objects.
	DeleteByUser(userID uuid.UUID) ([]string, error)

	// FailStuck marks records that entered processing before the cutoff as
	// failed and returns how many rows it touched.
	FailStuck(cutoff time.Time) (int64, error)
}

type analysisRepository struct {
	db *gorm.DB
}

// NewAnalysisRepository creates a new AnalysisRepository.
func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

func (r *analysisRepository) CreatePlaceholder(userID uuid.UUID, filename string, s3Key *string, id *uuid.UUID) (*model.ResumeAnalysis, error) {
	recordID := uuid.New()
	if id != nil {
		recordID = *id
	}
	record := &model.ResumeAnalysis{
		ID:            recordID,
		UserID:        userID,
		Filename:      filename,
		S3Key:         s3Key,
		Status:        model.StatusProcessing,
		MatchScore:    0,
		Details:       datatypes.JSONMap{},
		CandidateInfo: datatypes.JSONMap{},
	}
	if err := r.db.Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *analysisRepository) FinalizeSuccess(id uuid.UUID, score float64, details, candidateInfo map[string]interface{}) error {
	updates := map[string]interface{}{
		"status":         model.StatusCompleted,
		"match_score":    score,
		"details":        datatypes.JSONMap(details),
		"candidate_info": datatypes.JSONMap(candidateInfo),
	}
	return r.finalize(id, updates)
}

func (r *analysisRepository) FinalizeFailure(id uuid.UUID) error {
	return r.finalize(id, map[string]interface{}{"status": model.StatusFailed})
}

// finalize applies the single terminal write. The status guard keeps a late
// duplicate finalize from moving a terminal record backward.
func (r *analysisRepository) finalize(id uuid.UUID, updates map[string]interface{}) error {
	res := r.db.Model(&model.ResumeAnalysis{}).
		Where("id = ? AND status IN ?", id, []model.AnalysisStatus{model.StatusPending, model.StatusProcessing}).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		log.Errorf("[AnalysisRepository] finalize: record %s not found or already terminal", id)
	}
	return nil
}

func (r *analysisRepository) FindByUser(userID uuid.UUID) ([]model.ResumeAnalysis, error) {
	var records []model.ResumeAnalysis
	err := r.db.Where("user_id = ?", userID).Order("created_at desc").Find(&records).Error
	return records, err
}

func (r *analysisRepository) FindByID(id uuid.UUID) (*model.ResumeAnalysis, error) {
	var record model.ResumeAnalysis
	if err := r.db.First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *analysisRepository) DeleteByUser(userID uuid.UUID) ([]string, error) {
	var keys []string
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var records []model.ResumeAnalysis
		if err := tx.Where("user_id = ?", userID).Find(&records).Error; err != nil {
			return err
		}
		for _, rec := range records {
			if rec.S3Key != nil && *rec.S3Key != "" {
				keys = append(keys, *rec.S3Key)
			}
		}
		return tx.Where("user_id = ?", userID).Delete(&model.ResumeAnalysis{}).Error
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *analysisRepository) FailStuck(cutoff time.Time) (int64, error) {
	res := r.db.Model(&model.ResumeAnalysis{}).
		Where("status = ? AND updated_at < ?", model.StatusProcessing, cutoff).
		Update("status", model.StatusFailed)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
