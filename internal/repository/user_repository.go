package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"basal-backend-go/internal/model"
)

// UserRepository persists user accounts and credit balances.
type UserRepository interface {
	Create(user *model.User) error
	FindByEmail(email string) (*model.User, error)
	FindByID(id uuid.UUID) (*model.User, error)
	Update(user *model.User) error

	// DebitCredit decrements the balance by one. debited is false when the
	// balance was already zero; the balance never goes negative.
	DebitCredit(id uuid.UUID) (debited bool, err error)

	CountConversations(userID uuid.UUID) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return r.db.Create(user).Error
}

func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByID(id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(user *model.User) error {
	return r.db.Save(user).Error
}

func (r *userRepository) DebitCredit(id uuid.UUID) (bool, error) {
	res := r.db.Model(&model.User{}).
		Where("id = ? AND credits > 0", id).
		UpdateColumn("credits", gorm.Expr("credits - 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *userRepository) CountConversations(userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&model.Conversation{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
