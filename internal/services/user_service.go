package services

import (
	"fmt"

	"gorm.io/gorm"

	"buzz-backend/internal/models"
)

// UserService handles user-related business logic
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a new UserService
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("user %w", ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

// ProfileUpdate holds the optional profile fields a user may change
type ProfileUpdate struct {
	Nickname *string
	Username *string
	Mood     *string
}

// UpdateProfile applies the provided profile fields
func (s *UserService) UpdateProfile(userID uint, update ProfileUpdate) error {
	fields := map[string]interface{}{}
	if update.Nickname != nil {
		fields["nickname"] = *update.Nickname
	}
	if update.Username != nil {
		fields["username"] = *update.Username
	}
	if update.Mood != nil {
		fields["mood"] = *update.Mood
	}
	if len(fields) == 0 {
		return nil
	}

	result := s.db.Model(&models.User{}).Where("id = ?", userID).Updates(fields)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return fmt.Errorf("nickname or username %w", ErrDuplicate)
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user %w", ErrNotFound)
	}
	return nil
}

// BindWallet binds an on-chain wallet address to the user
func (s *UserService) BindWallet(userID uint, address string) error {
	result := s.db.Model(&models.User{}).Where("id = ?", userID).Update("wallet_address", address)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return fmt.Errorf("wallet %w: already bound to another account", ErrDuplicate)
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user %w", ErrNotFound)
	}
	return nil
}

// GetTransactions returns the user's ledger history, newest first
func (s *UserService) GetTransactions(userID uint, page, limit int) ([]models.Transaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txs []models.Transaction
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&txs).Error; err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}
