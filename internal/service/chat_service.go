package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"basal-backend-go/internal/config"
	"basal-backend-go/internal/model"
	"basal-backend-go/internal/repository"
	"basal-backend-go/pkg/log"
	"basal-backend-go/pkg/mlserver"
)

// ChatResult is the reply to one chat turn.
type ChatResult struct {
	Answer         string `json:"answer"`
	ConversationID string `json:"conversation_id"`
	ContextUsed    int    `json:"context_used"`
}

// ChatService answers questions grounded on one ingested source.
type ChatService interface {
	// Chat runs one retrieval-augmented exchange. conversationID may be
	// empty, which starts a new conversation titled after the question.
	Chat(ctx context.Context, user *model.User, sourceID, conversationID, question string) (*ChatResult, error)

	ListConversations(ctx context.Context, user *model.User) ([]model.Conversation, error)
	Messages(ctx context.Context, user *model.User, conversationID string) ([]model.ChatMessage, error)
}

type chatService struct {
	convRepo   repository.ConversationRepository
	sourceRepo repository.SourceRepository
	ml         mlserver.Client
	cfg        config.ChatConfig
}

// NewChatService creates a new ChatService.
func NewChatService(
	convRepo repository.ConversationRepository,
	sourceRepo repository.SourceRepository,
	ml mlserver.Client,
	cfg config.ChatConfig,
) ChatService {
	return &chatService{
		convRepo:   convRepo,
		sourceRepo: sourceRepo,
		ml:         ml,
		cfg:        cfg,
	}
}

// Chat performs all remote calls before opening any transaction, then commits
// the whole exchange atomically. A failed remote call leaves no trace: no
// messages, no conversation, no debit.
func (s *chatService) Chat(ctx context.Context, user *model.User, sourceID, conversationID, question string) (*ChatResult, error) {
	if user.Credits <= 0 {
		return nil, ErrNoCredits
	}

	srcID, err := uuid.Parse(sourceID)
	if err != nil {
		return nil, ErrInvalidID
	}
	source, err := s.sourceRepo.FindByID(srcID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if source.UserID != user.ID {
		return nil, ErrNotFound
	}

	conv, convIsNew, err := s.resolveConversation(user, conversationID, question)
	if err != nil {
		return nil, err
	}

	queryVector, err := s.ml.GetVector(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	chunks, err := s.sourceRepo.NearestChunks(user.ID, srcID, queryVector, s.cfg.TopK)
	if err != nil {
		return nil, err
	}
	// A source with no chunks yet is legal; generation runs on an empty
	// context block.
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		parts = append(parts, chunk.Content)
	}
	contextText := strings.Join(parts, "\n\n")

	answer, err := s.ml.GenerateAnswer(ctx, question, contextText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	userMsg := &model.ChatMessage{Role: model.MessageRoleUser, Content: question}
	assistantMsg := &model.ChatMessage{Role: model.MessageRoleAssistant, Content: answer}
	if err := s.convRepo.CommitExchange(ctx, conv, convIsNew, userMsg, assistantMsg); err != nil {
		if errors.Is(err, repository.ErrInsufficientCredits) {
			return nil, ErrNoCredits
		}
		return nil, err
	}
	s.convRepo.InvalidateUser(ctx, user.ID, conv.ID)

	return &ChatResult{
		Answer:         answer,
		ConversationID: conv.ID.String(),
		ContextUsed:    len(chunks),
	}, nil
}

func (s *chatService) resolveConversation(user *model.User, conversationID, question string) (*model.Conversation, bool, error) {
	if conversationID != "" {
		convID, err := uuid.Parse(conversationID)
		if err != nil {
			return nil, false, ErrInvalidID
		}
		conv, err := s.convRepo.FindByIDAndUser(convID, user.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, false, ErrNotFound
			}
			return nil, false, err
		}
		return conv, false, nil
	}

	return &model.Conversation{
		ID:     uuid.New(),
		UserID: user.ID,
		Title:  s.titleFor(question),
	}, true, nil
}

// titleFor derives a conversation title from its opening question.
func (s *chatService) titleFor(question string) string {
	runes := []rune(question)
	max := s.cfg.TitleMaxChars
	if len(runes) <= max {
		return question
	}
	if max > 3 {
		return string(runes[:max-3]) + "..."
	}
	return string(runes[:max])
}

func (s *chatService) ListConversations(ctx context.Context, user *model.User) ([]model.Conversation, error) {
	return s.convRepo.ListByUser(ctx, user.ID)
}

func (s *chatService) Messages(ctx context.Context, user *model.User, conversationID string) ([]model.ChatMessage, error) {
	convID, err := uuid.Parse(conversationID)
	if err != nil {
		return nil, ErrInvalidID
	}
	if _, err := s.convRepo.FindByIDAndUser(convID, user.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	msgs, err := s.convRepo.Messages(ctx, convID)
	if err != nil {
		log.Errorf("[ChatService] failed to load messages for %s: %v", convID, err)
		return nil, err
	}
	return msgs, nil
}
