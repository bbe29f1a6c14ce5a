package service

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"basal-backend-go/internal/model"
	"basal-backend-go/internal/repository"
	"basal-backend-go/pkg/token"
)

// Profile is the authenticated user's own view of their account.
type Profile struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	UpdatedAt          string `json:"updated_at"`
	Authenticated      bool   `json:"authenticated"`
	Credits            int    `json:"credits"`
	TotalConversations int64  `json:"total_conversations"`
}

// UserService handles accounts and sessions.
type UserService interface {
	// Connect logs the account in, creating it first if the email is new.
	// created reports which of the two happened.
	Connect(email, password string) (user *model.User, jwt string, created bool, err error)

	GetByEmail(email string) (*model.User, error)
	Me(user *model.User) (*Profile, error)
}

type userService struct {
	userRepo   repository.UserRepository
	jwtManager *token.JWTManager
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, jwtManager *token.JWTManager) UserService {
	return &userService{userRepo: userRepo, jwtManager: jwtManager}
}

func (s *userService) Connect(email, password string) (*model.User, string, bool, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err == nil {
		if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) != nil {
			return nil, "", false, ErrInvalidCredentials
		}
		jwt, err := s.jwtManager.Generate(user.Email)
		if err != nil {
			return nil, "", false, err
		}
		return user, jwt, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", false, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", false, err
	}
	newUser := &model.User{
		Email:              email,
		HashedPassword:     string(hashed),
		Credits:            1,
		Role:               model.RoleUser,
		LinkedFolderIDs:    datatypes.JSON([]byte("[]")),
		ProcessedFilenames: datatypes.JSON([]byte("[]")),
	}
	if err := s.userRepo.Create(newUser); err != nil {
		return nil, "", false, err
	}

	jwt, err := s.jwtManager.Generate(newUser.Email)
	if err != nil {
		return nil, "", false, err
	}
	return newUser, jwt, true, nil
}

func (s *userService) GetByEmail(email string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) Me(user *model.User) (*Profile, error) {
	total, err := s.userRepo.CountConversations(user.ID)
	if err != nil {
		return nil, err
	}
	return &Profile{
		ID:                 user.ID.String(),
		Email:              user.Email,
		UpdatedAt:          user.UpdatedAt.String(),
		Authenticated:      true,
		Credits:            user.Credits,
		TotalConversations: total,
	}, nil
}
