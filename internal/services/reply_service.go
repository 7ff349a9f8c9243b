package services

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"buzz-backend/internal/models"
)

// Reply-attempt retry policy
const (
	maxAttemptRetries = 2
	attemptStaleAfter = 5 * time.Minute
	attemptBatchSize  = 10
)

// ReplyService handles reply submissions, rejection and reply attempts
type ReplyService struct {
	db *gorm.DB
}

// NewReplyService creates a new ReplyService
func NewReplyService(db *gorm.DB) *ReplyService {
	return &ReplyService{db: db}
}

// CreateReply records a PENDING reply against a buzz and bumps its reply count
func (s *ReplyService) CreateReply(userID, buzzID uint, replyLink, text string) (*models.Reply, error) {
	var reply models.Reply

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var buzz models.Buzz
		if err := tx.First(&buzz, buzzID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("buzz %w", ErrNotFound)
			}
			return err
		}

		if buzz.IsSettled {
			return ErrAlreadySettled
		}
		if !buzz.IsActive {
			return fmt.Errorf("%w: buzz is no longer active", ErrInvalidInput)
		}
		if time.Now().After(buzz.Deadline) {
			return fmt.Errorf("%w: buzz deadline has passed", ErrInvalidInput)
		}
		if buzz.UserID == userID {
			return fmt.Errorf("%w: cannot reply to your own buzz", ErrInvalidInput)
		}
		if buzz.ReplyCount >= buzz.TotalReplies {
			return fmt.Errorf("%w: buzz reply limit reached", ErrInvalidInput)
		}

		reply = models.Reply{
			BuzzID:    buzzID,
			UserID:    userID,
			ReplyLink: replyLink,
			Text:      text,
			Status:    models.ReplyStatusPending,
		}
		if err := tx.Create(&reply).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("reply %w for this buzz", ErrDuplicate)
			}
			return err
		}

		return tx.Model(&models.Buzz{}).
			Where("id = ?", buzzID).
			Update("reply_count", gorm.Expr("reply_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}

	return &reply, nil
}

// ListReplies returns replies for a buzz, oldest first
func (s *ReplyService) ListReplies(buzzID uint) ([]models.Reply, error) {
	var replies []models.Reply
	if err := s.db.Where("buzz_id = ?", buzzID).
		Preload("User").
		Order("created_at ASC").
		Find(&replies).Error; err != nil {
		return nil, err
	}
	return replies, nil
}

// RejectReply moves a PENDING reply to REJECTED. Only the buzz creator may
// reject, and only while the buzz is unsettled.
func (s *ReplyService) RejectReply(userID, replyID uint) error {
	var reply models.Reply
	if err := s.db.Preload("Buzz").First(&reply, replyID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("reply %w", ErrNotFound)
		}
		return err
	}

	if reply.Buzz == nil || reply.Buzz.UserID != userID {
		return fmt.Errorf("%w: only the buzz creator can reject replies", ErrForbidden)
	}
	if reply.Buzz.IsSettled {
		return ErrAlreadySettled
	}
	if reply.Status != models.ReplyStatusPending {
		return fmt.Errorf("%w: reply is not pending (status: %s)", ErrInvalidInput, reply.Status)
	}

	return s.db.Model(&models.Reply{}).
		Where("id = ?", replyID).
		Update("status", models.ReplyStatusRejected).Error
}

// CreateAttempt records a new reply attempt for the external processor
func (s *ReplyService) CreateAttempt(userID, buzzID uint, replyText string) (*models.ReplyAttempt, error) {
	var buzz models.Buzz
	if err := s.db.First(&buzz, buzzID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("buzz %w", ErrNotFound)
		}
		return nil, err
	}

	attempt := models.ReplyAttempt{
		BuzzID:    buzzID,
		UserID:    userID,
		ReplyText: replyText,
		Status:    models.AttemptStatusPending,
	}
	if err := s.db.Create(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

// CompleteAttempt marks an attempt COMPLETED and records the resulting reply
func (s *ReplyService) CompleteAttempt(attemptID uint, replyLink string) (*models.Reply, error) {
	var attempt models.ReplyAttempt
	if err := s.db.First(&attempt, attemptID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("reply attempt %w", ErrNotFound)
		}
		return nil, err
	}

	if attempt.Status != models.AttemptStatusPending {
		return nil, fmt.Errorf("%w: attempt is not pending (status: %s)", ErrInvalidInput, attempt.Status)
	}

	reply, err := s.CreateReply(attempt.UserID, attempt.BuzzID, replyLink, attempt.ReplyText)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.ReplyAttempt{}).
		Where("id = ?", attemptID).
		Update("status", models.AttemptStatusCompleted).Error; err != nil {
		log.Printf("Warning: failed to mark attempt %d completed: %v", attemptID, err)
	}

	return reply, nil
}

// StalledAttempts selects attempts eligible for resubmission: still pending,
// under the retry ceiling and untouched for the stale window
func (s *ReplyService) StalledAttempts(limit int) ([]models.ReplyAttempt, error) {
	if limit <= 0 || limit > attemptBatchSize {
		limit = attemptBatchSize
	}

	cutoff := time.Now().Add(-attemptStaleAfter)

	var attempts []models.ReplyAttempt
	if err := s.db.Where("status = ? AND retry_count < ? AND updated_at < ?",
		models.AttemptStatusPending, maxAttemptRetries, cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

// MarkResubmitted bumps the retry counter after a resubmission
func (s *ReplyService) MarkResubmitted(attemptID uint) error {
	return s.db.Model(&models.ReplyAttempt{}).
		Where("id = ?", attemptID).
		Updates(map[string]interface{}{
			"retry_count": gorm.Expr("retry_count + 1"),
			"updated_at":  time.Now(),
		}).Error
}
