package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Source types accepted by the ingestion endpoints.
const (
	SourceTypeDocument = "document"
	SourceTypeVideo    = "video"
	SourceTypeDrive    = "drive"
)

// EmbeddingDim is the fixed dimension of chunk embeddings, set by the remote
// ML service's vectorizer.
const EmbeddingDim = 768

// Source is one ingested content unit. UniqueKey derives from the owner and
// the logical filename and de-duplicates repeat ingestion requests.
type Source struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"userId"`
	SourceName string         `gorm:"not null" json:"sourceName"`
	SourceType string         `gorm:"type:varchar(20);not null" json:"sourceType"`
	UniqueKey  string         `gorm:"uniqueIndex;not null" json:"-"`
	Status     AnalysisStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Chunks     []SourceChunk  `gorm:"foreignKey:SourceID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName sets the table name for this model.
func (Source) TableName() string {
	return "sources"
}

// SourceChunk is a content fragment with its embedding. Chunk sets are only
// ever replaced wholesale, never patched row by row.
type SourceChunk struct {
	ID        uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	SourceID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"sourceId"`
	Content   string          `gorm:"type:text;not null" json:"content"`
	Embedding pgvector.Vector `gorm:"type:vector(768)" json:"-"`
	Status    AnalysisStatus  `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
}

// TableName sets the table name for this model.
func (SourceChunk) TableName() string {
	return "source_chunks"
}
