package model

import (
	"time"

	"github.com/google/uuid"
)

// Conversation groups the chat turns of one user. Created lazily on the
// first chat call when no conversation id is supplied.
type Conversation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName sets the table name for this model.
func (Conversation) TableName() string {
	return "conversations"
}

// Chat message roles.
const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

// ChatMessage is one turn in a conversation, role "user" or "assistant".
// The log is append-only.
type ChatMessage struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index" json:"conversationId"`
	Role           string    `gorm:"type:varchar(20);not null" json:"role"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName sets the table name for this model.
func (ChatMessage) TableName() string {
	return "chat_messages"
}
