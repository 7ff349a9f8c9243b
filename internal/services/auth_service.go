package services

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"buzz-backend/internal/identity"
	"buzz-backend/internal/models"
	"buzz-backend/internal/utils"
)

// AuthService handles login and first-contact user creation
type AuthService struct {
	db              *gorm.DB
	verifier        *identity.Verifier
	referralService *ReferralService
	initialBalance  decimal.Decimal
}

// NewAuthService creates a new AuthService
func NewAuthService(db *gorm.DB, verifier *identity.Verifier, referralService *ReferralService, initialBalance string) *AuthService {
	balance, err := decimal.NewFromString(initialBalance)
	if err != nil {
		balance = decimal.Zero
	}
	return &AuthService{
		db:              db,
		verifier:        verifier,
		referralService: referralService,
		initialBalance:  balance,
	}
}

// ProcessLogin verifies an identity-provider token and finds or creates the
// corresponding user. A referral code, if provided, is applied only for a
// brand-new user.
func (s *AuthService) ProcessLogin(ctx context.Context, providerToken, referralCode string) (*models.User, error) {
	ident, err := s.verifier.VerifyToken(ctx, providerToken)
	if err != nil {
		return nil, fmt.Errorf("identity verification failed: %w", err)
	}

	var user models.User
	result := s.db.Where("subject_id = ?", ident.SubjectID).First(&user)

	if result.Error == gorm.ErrRecordNotFound {
		user, err = s.createUser(ident)
		if err != nil {
			return nil, err
		}

		if referralCode != "" {
			if err := s.referralService.Apply(user.ID, referralCode); err != nil {
				log.Printf("Warning: failed to apply referral code for user %d: %v", user.ID, err)
			}
		}

		log.Printf("New user created: subject=%s (ID: %d)", ident.SubjectID, user.ID)
	} else if result.Error != nil {
		return nil, fmt.Errorf("database error: %w", result.Error)
	} else {
		log.Printf("User logged in: subject=%s (ID: %d)", ident.SubjectID, user.ID)
	}

	return &user, nil
}

// createUser builds a new user from a verified identity
func (s *AuthService) createUser(ident *identity.Identity) (models.User, error) {
	nickname, err := utils.GenerateNickname()
	if err != nil {
		return models.User{}, fmt.Errorf("failed to generate nickname: %w", err)
	}

	code, err := s.referralService.GenerateCode()
	if err != nil {
		return models.User{}, fmt.Errorf("failed to generate referral code: %w", err)
	}

	user := models.User{
		SubjectID:    ident.SubjectID,
		Nickname:     nickname,
		ReferralCode: code,
		Balance:      s.initialBalance,
	}
	if ident.Handle != "" {
		handle := ident.Handle
		user.Username = &handle
	}

	if err := s.db.Create(&user).Error; err != nil {
		// Nickname collisions are rare but possible; retry once with a fresh one
		if isUniqueViolation(err) {
			if nickname, nerr := utils.GenerateNickname(); nerr == nil {
				user.Nickname = nickname
				if cerr := s.db.Create(&user).Error; cerr == nil {
					return user, nil
				}
			}
		}
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}
