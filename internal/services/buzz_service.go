package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"buzz-backend/internal/models"
	"buzz-backend/internal/twitterapi"
)

// BuzzService handles buzz creation, listing and settlement
type BuzzService struct {
	db     *gorm.DB
	tweets *twitterapi.Client
}

// NewBuzzService creates a new BuzzService
func NewBuzzService(db *gorm.DB, tweets *twitterapi.Client) *BuzzService {
	return &BuzzService{db: db, tweets: tweets}
}

// CreateBuzzInput holds the fields required to create a buzz
type CreateBuzzInput struct {
	TweetLink     string
	Instructions  string
	PricePerReply decimal.Decimal
	TotalReplies  int
	Deadline      time.Time
}

// CreateBuzz atomically debits the creator's balance and creates the buzz
// with its BURN ledger entry
func (s *BuzzService) CreateBuzz(ctx context.Context, userID uint, input CreateBuzzInput) (*models.Buzz, error) {
	if input.TweetLink == "" {
		return nil, fmt.Errorf("%w: tweet link is required", ErrInvalidInput)
	}
	if !input.PricePerReply.IsPositive() {
		return nil, fmt.Errorf("%w: price per reply must be positive", ErrInvalidInput)
	}
	if input.TotalReplies <= 0 {
		return nil, fmt.Errorf("%w: total replies must be positive", ErrInvalidInput)
	}
	if !input.Deadline.After(time.Now()) {
		return nil, fmt.Errorf("%w: deadline must be in the future", ErrInvalidInput)
	}

	// Best-effort tweet metadata check; creation proceeds if the API is down
	if s.tweets != nil {
		if _, err := s.tweets.GetTweetInfo(ctx, input.TweetLink); err != nil {
			log.Printf("Warning: could not verify tweet %s: %v", input.TweetLink, err)
		}
	}

	totalPrice := input.PricePerReply.Mul(decimal.NewFromInt(int64(input.TotalReplies)))

	var buzz models.Buzz
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("user %w", ErrNotFound)
			}
			return err
		}

		if user.Balance.LessThan(totalPrice) {
			return fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, user.Balance, totalPrice)
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("balance", gorm.Expr("balance - ?", totalPrice)).Error; err != nil {
			return err
		}

		buzz = models.Buzz{
			UserID:        userID,
			TweetLink:     input.TweetLink,
			Instructions:  input.Instructions,
			PricePerReply: input.PricePerReply,
			TotalReplies:  input.TotalReplies,
			Deadline:      input.Deadline,
			IsActive:      true,
		}
		if err := tx.Create(&buzz).Error; err != nil {
			return err
		}

		burn := models.Transaction{
			UserID:      userID,
			BuzzID:      &buzz.ID,
			Type:        models.TxTypeBurn,
			Status:      models.TxStatusCompleted,
			Amount:      totalPrice,
			Description: fmt.Sprintf("Credit burned for buzz %d", buzz.ID),
		}
		return tx.Create(&burn).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Buzz] Created buzz %d for user %d (burned %s)", buzz.ID, userID, totalPrice)
	return &buzz, nil
}

// ListBuzzes returns buzzes newest first, optionally filtered to active ones
// or to a single creator
func (s *BuzzService) ListBuzzes(page, limit int, activeOnly bool, creatorID *uint) ([]models.Buzz, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := s.db.Model(&models.Buzz{})
	if activeOnly {
		query = query.Where("is_active = ? AND is_settled = ? AND deadline > ?", true, false, time.Now())
	}
	if creatorID != nil {
		query = query.Where("user_id = ?", *creatorID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var buzzes []models.Buzz
	if err := query.Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&buzzes).Error; err != nil {
		return nil, 0, err
	}
	return buzzes, total, nil
}

// GetBuzz returns a single buzz with its creator preloaded
func (s *BuzzService) GetBuzz(buzzID uint) (*models.Buzz, error) {
	var buzz models.Buzz
	if err := s.db.Preload("User").First(&buzz, buzzID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("buzz %w", ErrNotFound)
		}
		return nil, err
	}
	return &buzz, nil
}

// SettleBuzz finalizes a buzz: every reply still PENDING is approved and paid
// the per-reply price, the unspent remainder is refunded to the creator, and
// a settle history row is written. All inside one transaction.
func (s *BuzzService) SettleBuzz(userID, buzzID uint) (*models.SettleHistory, error) {
	var history models.SettleHistory

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var buzz models.Buzz
		if err := tx.First(&buzz, buzzID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("buzz %w", ErrNotFound)
			}
			return err
		}

		if buzz.UserID != userID {
			return fmt.Errorf("%w: only the buzz creator can settle", ErrForbidden)
		}
		if buzz.IsSettled {
			return ErrAlreadySettled
		}

		var pending []models.Reply
		if err := tx.Where("buzz_id = ? AND status = ?", buzzID, models.ReplyStatusPending).
			Find(&pending).Error; err != nil {
			return err
		}

		paidTotal := decimal.Zero
		for i := range pending {
			reply := &pending[i]
			if err := tx.Model(&models.Reply{}).
				Where("id = ?", reply.ID).
				Update("status", models.ReplyStatusApproved).Error; err != nil {
				return err
			}

			if err := tx.Model(&models.User{}).
				Where("id = ?", reply.UserID).
				Update("balance", gorm.Expr("balance + ?", buzz.PricePerReply)).Error; err != nil {
				return err
			}

			reward := models.Transaction{
				UserID:      reply.UserID,
				BuzzID:      &buzz.ID,
				Type:        models.TxTypeReward,
				Status:      models.TxStatusCompleted,
				Amount:      buzz.PricePerReply,
				Description: fmt.Sprintf("Reward for reply %d on buzz %d", reply.ID, buzz.ID),
			}
			if err := tx.Create(&reward).Error; err != nil {
				return err
			}

			paidTotal = paidTotal.Add(buzz.PricePerReply)
		}

		refund := buzz.TotalPrice().Sub(paidTotal)
		if refund.IsPositive() {
			if err := tx.Model(&models.User{}).
				Where("id = ?", buzz.UserID).
				Update("balance", gorm.Expr("balance + ?", refund)).Error; err != nil {
				return err
			}

			refundTx := models.Transaction{
				UserID:      buzz.UserID,
				BuzzID:      &buzz.ID,
				Type:        models.TxTypeRefund,
				Status:      models.TxStatusCompleted,
				Amount:      refund,
				Description: fmt.Sprintf("Unspent credit refund for buzz %d", buzz.ID),
			}
			if err := tx.Create(&refundTx).Error; err != nil {
				return err
			}
		} else {
			refund = decimal.Zero
		}

		if err := tx.Model(&models.Buzz{}).
			Where("id = ?", buzz.ID).
			Updates(map[string]interface{}{
				"is_settled": true,
				"is_active":  false,
			}).Error; err != nil {
			return err
		}

		history = models.SettleHistory{
			BuzzID:        buzz.ID,
			SettledByID:   userID,
			ApprovedCount: len(pending),
			PaidTotal:     paidTotal,
			RefundTotal:   refund,
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Buzz] Settled buzz %d: approved %d, paid %s, refunded %s",
		buzzID, history.ApprovedCount, history.PaidTotal, history.RefundTotal)
	return &history, nil
}
