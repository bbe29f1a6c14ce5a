package service

import (
	"fmt"
	"strings"

	"basal-backend-go/internal/model"
	"basal-backend-go/internal/repository"
	"basal-backend-go/pkg/log"
)

// FeedbackService records user feedback. Submission is open, no session
// required.
type FeedbackService interface {
	Submit(email, category, content string) (*model.Feedback, error)
}

type feedbackService struct {
	feedbackRepo repository.FeedbackRepository
}

// NewFeedbackService creates a new FeedbackService.
func NewFeedbackService(feedbackRepo repository.FeedbackRepository) FeedbackService {
	return &feedbackService{feedbackRepo: feedbackRepo}
}

func (s *feedbackService) Submit(email, category, content string) (*model.Feedback, error) {
	category = strings.ToUpper(strings.TrimSpace(category))
	if category == "" {
		category = model.CategoryGeneral
	}
	if !model.ValidFeedbackCategory(category) {
		return nil, fmt.Errorf("%w: unknown feedback category %q", ErrInvalidPayload, category)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: feedback content is empty", ErrInvalidPayload)
	}

	feedback := &model.Feedback{
		Email:    email,
		Category: category,
		Content:  content,
	}
	if err := s.feedbackRepo.Create(feedback); err != nil {
		return nil, err
	}
	log.Infow("feedback received", "category", category, "email", email)
	return feedback, nil
}
