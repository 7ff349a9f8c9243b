package services

import (
	"crypto/rand"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"buzz-backend/internal/models"
)

// referralBonus is credited to the referrer when an invited user applies
// their code
var referralBonus = decimal.NewFromInt(10)

// ReferralService handles referral codes and the write-once invited-user binding
type ReferralService struct {
	db *gorm.DB
}

// NewReferralService creates a new ReferralService
func NewReferralService(db *gorm.DB) *ReferralService {
	return &ReferralService{db: db}
}

// GenerateCode creates a short random base58 referral code
func (s *ReferralService) GenerateCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	code := base58.Encode(buf)
	if len(code) > 10 {
		code = code[:10]
	}
	return code, nil
}

// GetCode returns the user's own referral code
func (s *ReferralService) GetCode(userID uint) (string, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", fmt.Errorf("user %w", ErrNotFound)
		}
		return "", err
	}
	return user.ReferralCode, nil
}

// Apply binds the invited user to a referral code. The binding is write-once:
// a second application for the same user fails. The referrer is credited a
// bonus in the same transaction.
func (s *ReferralService) Apply(userID uint, code string) error {
	var existing models.Referral
	if err := s.db.Where("invited_user_id = ?", userID).First(&existing).Error; err == nil {
		return fmt.Errorf("referral code %w for this user", ErrDuplicate)
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	var referrer models.User
	if err := s.db.Where("referral_code = ?", code).First(&referrer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("referral code %w", ErrNotFound)
		}
		return err
	}

	if referrer.ID == userID {
		return fmt.Errorf("%w: cannot apply your own referral code", ErrInvalidInput)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		referral := models.Referral{
			InvitedUserID: userID,
			ReferralCode:  code,
		}
		if err := tx.Create(&referral).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("referral code %w for this user", ErrDuplicate)
			}
			return err
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", referrer.ID).
			Update("balance", gorm.Expr("balance + ?", referralBonus)).Error; err != nil {
			return err
		}

		bonus := models.Transaction{
			UserID:      referrer.ID,
			Type:        models.TxTypeReferralBonus,
			Status:      models.TxStatusCompleted,
			Amount:      referralBonus,
			Description: fmt.Sprintf("Referral bonus for inviting user %d", userID),
		}
		return tx.Create(&bonus).Error
	})
}

// ListReferrals returns the users invited with the given user's code
func (s *ReferralService) ListReferrals(userID uint) ([]models.Referral, error) {
	code, err := s.GetCode(userID)
	if err != nil {
		return nil, err
	}

	var referrals []models.Referral
	if err := s.db.Where("referral_code = ?", code).
		Preload("InvitedUser").
		Order("created_at DESC").
		Find(&referrals).Error; err != nil {
		return nil, err
	}
	return referrals, nil
}
