package service

import (
	"basal-backend-go/internal/model"
	"basal-backend-go/internal/repository"
)

// AdminService exposes cross-user aggregates for operators.
type AdminService interface {
	AllSources() ([]model.Source, error)
	AllConversations() ([]model.Conversation, error)
}

type adminService struct {
	sourceRepo repository.SourceRepository
	convRepo   repository.ConversationRepository
}

// NewAdminService creates a new AdminService.
func NewAdminService(sourceRepo repository.SourceRepository, convRepo repository.ConversationRepository) AdminService {
	return &adminService{sourceRepo: sourceRepo, convRepo: convRepo}
}

func (s *adminService) AllSources() ([]model.Source, error) {
	return s.sourceRepo.FindAll()
}

func (s *adminService) AllConversations() ([]model.Conversation, error) {
	return s.convRepo.ListAll()
}
