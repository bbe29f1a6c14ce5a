// Package model defines the GORM models backing the application.
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Roles controlling access to the aggregate data endpoints.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User holds the account, its credit balance and the legacy bookkeeping
// lists carried on the row as JSONB.
type User struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email              string         `gorm:"uniqueIndex;not null" json:"email"`
	HashedPassword     string         `gorm:"not null" json:"-"`
	Credits            int            `gorm:"not null;default:1" json:"credits"`
	Role               string         `gorm:"type:varchar(20);not null;default:'USER'" json:"role"`
	LinkedFolderIDs    datatypes.JSON `gorm:"type:jsonb" json:"linkedFolderIds"`
	ProcessedFilenames datatypes.JSON `gorm:"type:jsonb" json:"processedFilenames"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName sets the table name for this model.
func (User) TableName() string {
	return "users"
}
