package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"basal-backend-go/internal/model"
)

// FeedbackRepository persists feedback entries.
type FeedbackRepository interface {
	Create(feedback *model.Feedback) error
}

type feedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository creates a new FeedbackRepository.
func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) Create(feedback *model.Feedback) error {
	if feedback.ID == uuid.Nil {
		feedback.ID = uuid.New()
	}
	return r.db.Create(feedback).Error
}
