package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"basal-backend-go/internal/model"
	"basal-backend-go/pkg/log"
)

// ErrInsufficientCredits is returned when an exchange commit loses the race
// for the user's last credit.
var ErrInsufficientCredits = errors.New("insufficient credits")

const cacheTTL = 10 * time.Minute

// ConversationRepository persists conversations and their message logs, with
// redis-cached list views invalidated on every mutation.
type ConversationRepository interface {
	FindByIDAndUser(id, userID uuid.UUID) (*model.Conversation, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Conversation, error)
	ListAll() ([]model.Conversation, error)
	Messages(ctx context.Context, conversationID uuid.UUID) ([]model.ChatMessage, error)

	// CommitExchange writes one full chat turn as a single transaction:
	// the conversation row (when new), the user and assistant messages, and
	// the credit debit. Any failure rolls the whole turn back.
	CommitExchange(ctx context.Context, conv *model.Conversation, convIsNew bool, userMsg, assistantMsg *model.ChatMessage) error

	// InvalidateUser drops the cached views that a mutation may have staled.
	InvalidateUser(ctx context.Context, userID uuid.UUID, conversationIDs ...uuid.UUID)
}

type conversationRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewConversationRepository creates a new ConversationRepository.
func NewConversationRepository(db *gorm.DB, rdb *redis.Client) ConversationRepository {
	return &conversationRepository{db: db, rdb: rdb}
}

func userConversationsKey(userID uuid.UUID) string {
	return fmt.Sprintf("conversations:user:%s", userID)
}

func conversationMessagesKey(conversationID uuid.UUID) string {
	return fmt.Sprintf("messages:conversation:%s", conversationID)
}

func (r *conversationRepository) FindByIDAndUser(id, userID uuid.UUID) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Conversation, error) {
	key := userConversationsKey(userID)
	if cached, err := r.rdb.Get(ctx, key).Result(); err == nil {
		var convs []model.Conversation
		if err := json.Unmarshal([]byte(cached), &convs); err == nil {
			return convs, nil
		}
	}

	var convs []model.Conversation
	if err := r.db.Where("user_id = ?", userID).Order("created_at desc").Find(&convs).Error; err != nil {
		return nil, err
	}

	if data, err := json.Marshal(convs); err == nil {
		if err := r.rdb.Set(ctx, key, data, cacheTTL).Err(); err != nil {
			log.Warnf("[ConversationRepository] failed to cache conversation list: %v", err)
		}
	}
	return convs, nil
}

func (r *conversationRepository) ListAll() ([]model.Conversation, error) {
	var convs []model.Conversation
	err := r.db.Order("created_at desc").Find(&convs).Error
	return convs, err
}

func (r *conversationRepository) Messages(ctx context.Context, conversationID uuid.UUID) ([]model.ChatMessage, error) {
	key := conversationMessagesKey(conversationID)
	if cached, err := r.rdb.Get(ctx, key).Result(); err == nil {
		var msgs []model.ChatMessage
		if err := json.Unmarshal([]byte(cached), &msgs); err == nil {
			return msgs, nil
		}
	}

	var msgs []model.ChatMessage
	if err := r.db.Where("conversation_id = ?", conversationID).Order("created_at asc").Find(&msgs).Error; err != nil {
		return nil, err
	}

	if data, err := json.Marshal(msgs); err == nil {
		if err := r.rdb.Set(ctx, key, data, cacheTTL).Err(); err != nil {
			log.Warnf("[ConversationRepository] failed to cache message list: %v", err)
		}
	}
	return msgs, nil
}

func (r *conversationRepository) CommitExchange(ctx context.Context, conv *model.Conversation, convIsNew bool, userMsg, assistantMsg *model.ChatMessage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if convIsNew {
			if err := tx.Create(conv).Error; err != nil {
				return err
			}
		}
		for _, msg := range []*model.ChatMessage{userMsg, assistantMsg} {
			if msg.ID == uuid.Nil {
				msg.ID = uuid.New()
			}
			msg.ConversationID = conv.ID
			if err := tx.Create(msg).Error; err != nil {
				return err
			}
		}

		res := tx.Model(&model.User{}).
			Where("id = ? AND credits > 0", conv.UserID).
			UpdateColumn("credits", gorm.Expr("credits - 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientCredits
		}
		return nil
	})
}

func (r *conversationRepository) InvalidateUser(ctx context.Context, userID uuid.UUID, conversationIDs ...uuid.UUID) {
	keys := []string{userConversationsKey(userID)}
	for _, id := range conversationIDs {
		keys = append(keys, conversationMessagesKey(id))
	}
	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warnf("[ConversationRepository] cache invalidation failed: %v", err)
	}
}
