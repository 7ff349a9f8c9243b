package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"buzz-backend/internal/models"
	"buzz-backend/internal/twitterapi"
)

// KolService maintains the scored KOL directory
type KolService struct {
	db     *gorm.DB
	tweets *twitterapi.Client
}

// NewKolService creates a new KolService
func NewKolService(db *gorm.DB, tweets *twitterapi.Client) *KolService {
	return &KolService{db: db, tweets: tweets}
}

// Submit adds a handle to the directory as PENDING, scored via the external API
func (s *KolService) Submit(ctx context.Context, handle, area string) (*models.Kol, error) {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" {
		return nil, fmt.Errorf("%w: handle is required", ErrInvalidInput)
	}

	var existing models.Kol
	if err := s.db.Where("handle = ?", handle).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("KOL %w: %s", ErrDuplicate, handle)
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	info, err := s.tweets.GetAccountInfo(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account info: %w", err)
	}

	score, err := s.tweets.GetAccountScore(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account score: %w", err)
	}

	kol := models.Kol{
		Handle:         handle,
		Name:           info.Name,
		AvatarURL:      info.AvatarURL,
		Score:          score,
		FollowersCount: info.FollowersCount,
		Area:           area,
		Status:         models.KolStatusPending,
	}
	if err := s.db.Create(&kol).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("KOL %w: %s", ErrDuplicate, handle)
		}
		return nil, err
	}

	log.Printf("[Kol] Submitted %s (score %.1f, %d followers)", handle, score, info.FollowersCount)
	return &kol, nil
}

// Refresh re-fetches metadata and score for an existing directory entry
func (s *KolService) Refresh(ctx context.Context, kolID uint) (*models.Kol, error) {
	var kol models.Kol
	if err := s.db.First(&kol, kolID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("KOL %w", ErrNotFound)
		}
		return nil, err
	}

	info, err := s.tweets.GetAccountInfo(ctx, kol.Handle)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account info: %w", err)
	}

	score, err := s.tweets.GetAccountScore(ctx, kol.Handle)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account score: %w", err)
	}

	updates := map[string]interface{}{
		"name":            info.Name,
		"avatar_url":      info.AvatarURL,
		"score":           score,
		"followers_count": info.FollowersCount,
	}
	if err := s.db.Model(&kol).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &kol, nil
}

// Confirm moves a directory entry to CONFIRMED
func (s *KolService) Confirm(kolID uint) error {
	result := s.db.Model(&models.Kol{}).
		Where("id = ?", kolID).
		Update("status", models.KolStatusConfirmed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("KOL %w", ErrNotFound)
	}
	return nil
}

// List returns directory entries filtered by area and status, best score first
func (s *KolService) List(area, status string, page, limit int) ([]models.Kol, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := s.db.Model(&models.Kol{})
	if area != "" {
		query = query.Where("area = ?", area)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var kols []models.Kol
	if err := query.Order("score DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&kols).Error; err != nil {
		return nil, 0, err
	}
	return kols, total, nil
}
