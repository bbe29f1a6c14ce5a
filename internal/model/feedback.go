package model

import (
	"time"

	"github.com/google/uuid"
)

// Feedback categories.
const (
	CategoryGeneral = "GENERAL"
	CategoryBug     = "BUG"
	CategoryFeature = "FEATURE"
	CategoryUIUX    = "UIUX"
	CategoryOther   = "OTHER"
)

// ValidFeedbackCategory reports whether c is one of the known categories.
func ValidFeedbackCategory(c string) bool {
	switch c {
	case CategoryGeneral, CategoryBug, CategoryFeature, CategoryUIUX, CategoryOther:
		return true
	}
	return false
}

// Feedback is a user-submitted feedback entry.
type Feedback struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"not null" json:"email"`
	Category  string    `gorm:"type:varchar(20);not null;default:'GENERAL'" json:"category"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName sets the table name for this model.
func (Feedback) TableName() string {
	return "feedbacks"
}
