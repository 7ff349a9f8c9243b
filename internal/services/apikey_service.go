package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"buzz-backend/internal/models"
)

// ApiKeyService issues and verifies service API keys. Only the SHA-256 of a
// key is stored; the plaintext is returned once at issue time.
type ApiKeyService struct {
	db *gorm.DB
}

// NewApiKeyService creates a new ApiKeyService
func NewApiKeyService(db *gorm.DB) *ApiKeyService {
	return &ApiKeyService{db: db}
}

// Issue creates a new API key for the user and returns the plaintext
func (s *ApiKeyService) Issue(userID uint) (string, *models.UserApiKey, error) {
	raw := "bz_" + strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")

	key := models.UserApiKey{
		UserID:    userID,
		KeyHash:   hashKey(raw),
		KeyPrefix: raw[:12],
		IsActive:  true,
	}
	if err := s.db.Create(&key).Error; err != nil {
		return "", nil, fmt.Errorf("failed to create API key: %w", err)
	}

	return raw, &key, nil
}

// List returns the user's API keys (hashes never leave the database layer)
func (s *ApiKeyService) List(userID uint) ([]models.UserApiKey, error) {
	var keys []models.UserApiKey
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

// Revoke deactivates one of the user's API keys
func (s *ApiKeyService) Revoke(userID, keyID uint) error {
	var key models.UserApiKey
	if err := s.db.First(&key, keyID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("API key %w", ErrNotFound)
		}
		return err
	}
	if key.UserID != userID {
		return fmt.Errorf("%w: API key belongs to another user", ErrForbidden)
	}

	return s.db.Model(&key).Update("is_active", false).Error
}

// Verify resolves a plaintext key to its active record, updating last-used
func (s *ApiKeyService) Verify(raw string) (*models.UserApiKey, error) {
	var key models.UserApiKey
	if err := s.db.Where("key_hash = ? AND is_active = ?", hashKey(raw), true).
		First(&key).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("API key %w", ErrNotFound)
		}
		return nil, err
	}

	now := time.Now()
	s.db.Model(&key).Update("last_used_at", &now)

	return &key, nil
}

func hashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
