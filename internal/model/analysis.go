package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AnalysisStatus is the lifecycle of a processing unit. Records move from
// pending/processing to exactly one of the terminal states and never back.
type AnalysisStatus string

const (
	StatusPending    AnalysisStatus = "pending"
	StatusProcessing AnalysisStatus = "processing"
	StatusCompleted  AnalysisStatus = "completed"
	StatusFailed     AnalysisStatus = "failed"
)

// Terminal reports whether the status is an end state.
func (s AnalysisStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ResumeAnalysis is the placeholder-then-finalize record for one analyzed
// resume. Details and CandidateInfo are opaque payloads owned by the remote
// ML service; their shape is not enforced here.
type ResumeAnalysis struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"userId"`
	Filename      string            `gorm:"not null" json:"filename"`
	S3Key         *string           `json:"-"`
	Status        AnalysisStatus    `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	MatchScore    float64           `gorm:"not null;default:0" json:"matchScore"`
	Details       datatypes.JSONMap `gorm:"type:jsonb" json:"details"`
	CandidateInfo datatypes.JSONMap `gorm:"type:jsonb" json:"candidateInfo"`
	CreatedAt     time.Time         `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time         `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName sets the table name for this model.
func (ResumeAnalysis) TableName() string {
	return "resume_analyses"
}
