package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"buzz-backend/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	// :memory: is unique per connection, so use a shared cache and wipe
	// tables between tests instead.
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Buzz{},
		&models.SettleHistory{},
		&models.Reply{},
		&models.ReplyAttempt{},
		&models.Transaction{},
		&models.Withdrawal{},
		&models.UserWithdrawRequest{},
		&models.UserBalance{},
		&models.TokenInfo{},
		&models.UserApiKey{},
		&models.Kol{},
		&models.Referral{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	tables := []string{
		"transactions", "settle_histories", "replies", "reply_attempts",
		"buzzes", "withdrawals", "user_withdraw_requests", "user_balances",
		"token_infos", "user_api_keys", "kols", "referrals", "users",
	}
	for _, table := range tables {
		db.Exec("DELETE FROM " + table)
	}

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, nickname, referralCode string, balance int64) *models.User {
	user := models.User{
		SubjectID:    "subject-" + nickname,
		Nickname:     nickname,
		ReferralCode: referralCode,
		Balance:      decimal.NewFromInt(balance),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", nickname, err)
	}
	return &user
}

func createTestBuzz(t *testing.T, db *gorm.DB, userID uint, price int64, totalReplies int) *models.Buzz {
	buzz := models.Buzz{
		UserID:        userID,
		TweetLink:     "https://x.com/someone/status/123456",
		PricePerReply: decimal.NewFromInt(price),
		TotalReplies:  totalReplies,
		Deadline:      time.Now().Add(24 * time.Hour),
		IsActive:      true,
	}
	if err := db.Create(&buzz).Error; err != nil {
		t.Fatalf("failed to create buzz: %v", err)
	}
	return &buzz
}

func TestCreateBuzzDebitsBalanceAndRecordsBurn(t *testing.T) {
	db := setupTestDB(t)
	service := NewBuzzService(db, nil)

	user := createTestUser(t, db, "creator", "CODE1", 1000)

	buzz, err := service.CreateBuzz(context.Background(), user.ID, CreateBuzzInput{
		TweetLink:     "https://x.com/someone/status/123456",
		Instructions:  "be nice",
		PricePerReply: decimal.NewFromInt(10),
		TotalReplies:  100,
		Deadline:      time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateBuzz failed: %v", err)
	}
	if buzz.TotalReplies != 100 {
		t.Errorf("expected 100 total replies, got %d", buzz.TotalReplies)
	}
	if !buzz.IsActive || buzz.IsSettled {
		t.Errorf("expected new buzz active and unsettled, got active=%v settled=%v", buzz.IsActive, buzz.IsSettled)
	}

	var updated models.User
	if err := db.First(&updated, user.ID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if !updated.Balance.IsZero() {
		t.Errorf("expected balance 0 after burning 1000, got %s", updated.Balance)
	}

	var burns []models.Transaction
	if err := db.Where("user_id = ? AND type = ?", user.ID, models.TxTypeBurn).Find(&burns).Error; err != nil {
		t.Fatalf("failed to load transactions: %v", err)
	}
	if len(burns) != 1 {
		t.Fatalf("expected 1 burn transaction, got %d", len(burns))
	}
	if !burns[0].Amount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected burn of 1000, got %s", burns[0].Amount)
	}
}

func TestCreateBuzzInsufficientBalanceLeavesNothingBehind(t *testing.T) {
	db := setupTestDB(t)
	service := NewBuzzService(db, nil)

	user := createTestUser(t, db, "poor", "CODE2", 5)

	_, err := service.CreateBuzz(context.Background(), user.ID, CreateBuzzInput{
		TweetLink:     "https://x.com/someone/status/123456",
		PricePerReply: decimal.NewFromInt(10),
		TotalReplies:  1,
		Deadline:      time.Now().Add(time.Hour),
	})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	var updated models.User
	db.First(&updated, user.ID)
	if !updated.Balance.Equal(decimal.NewFromInt(5)) {
		t.Errorf("expected balance unchanged at 5, got %s", updated.Balance)
	}

	var buzzCount, txCount int64
	db.Model(&models.Buzz{}).Count(&buzzCount)
	db.Model(&models.Transaction{}).Count(&txCount)
	if buzzCount != 0 || txCount != 0 {
		t.Errorf("expected no buzz or transaction rows, got %d buzzes, %d transactions", buzzCount, txCount)
	}
}

func TestCreateBuzzValidation(t *testing.T) {
	db := setupTestDB(t)
	service := NewBuzzService(db, nil)

	user := createTestUser(t, db, "validator", "CODE3", 100)

	base := CreateBuzzInput{
		TweetLink:     "https://x.com/someone/status/123456",
		PricePerReply: decimal.NewFromInt(1),
		TotalReplies:  10,
		Deadline:      time.Now().Add(time.Hour),
	}

	past := base
	past.Deadline = time.Now().Add(-time.Hour)
	if _, err := service.CreateBuzz(context.Background(), user.ID, past); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("past deadline: expected ErrInvalidInput, got %v", err)
	}

	free := base
	free.PricePerReply = decimal.Zero
	if _, err := service.CreateBuzz(context.Background(), user.ID, free); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero price: expected ErrInvalidInput, got %v", err)
	}

	noLink := base
	noLink.TweetLink = ""
	if _, err := service.CreateBuzz(context.Background(), user.ID, noLink); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty link: expected ErrInvalidInput, got %v", err)
	}
}

func TestSettleBuzzApprovesPendingAndRefundsRemainder(t *testing.T) {
	db := setupTestDB(t)
	service := NewBuzzService(db, nil)

	creator := createTestUser(t, db, "owner", "CODE4", 50)
	replierA := createTestUser(t, db, "replier-a", "CODE5", 0)
	replierB := createTestUser(t, db, "replier-b", "CODE6", 0)
	rejected := createTestUser(t, db, "rejected", "CODE7", 0)

	// 5 purchased replies at 10 each; creator already paid the 50 burn
	buzz := createTestBuzz(t, db, creator.ID, 10, 5)

	db.Create(&models.Reply{BuzzID: buzz.ID, UserID: replierA.ID, Status: models.ReplyStatusPending})
	db.Create(&models.Reply{BuzzID: buzz.ID, UserID: replierB.ID, Status: models.ReplyStatusPending})
	db.Create(&models.Reply{BuzzID: buzz.ID, UserID: rejected.ID, Status: models.ReplyStatusRejected})

	history, err := service.SettleBuzz(creator.ID, buzz.ID)
	if err != nil {
		t.Fatalf("SettleBuzz failed: %v", err)
	}

	if history.ApprovedCount != 2 {
		t.Errorf("expected 2 approved, got %d", history.ApprovedCount)
	}
	if !history.PaidTotal.Equal(decimal.NewFromInt(20)) {
		t.Errorf("expected paid total 20, got %s", history.PaidTotal)
	}
	if !history.RefundTotal.Equal(decimal.NewFromInt(30)) {
		t.Errorf("expected refund 30, got %s", history.RefundTotal)
	}

	var updatedBuzz models.Buzz
	db.First(&updatedBuzz, buzz.ID)
	if !updatedBuzz.IsSettled || updatedBuzz.IsActive {
		t.Errorf("expected settled inactive buzz, got settled=%v active=%v", updatedBuzz.IsSettled, updatedBuzz.IsActive)
	}

	var a, b, c, owner models.User
	db.First(&a, replierA.ID)
	db.First(&b, replierB.ID)
	db.First(&c, rejected.ID)
	db.First(&owner, creator.ID)
	if !a.Balance.Equal(decimal.NewFromInt(10)) || !b.Balance.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected repliers paid 10 each, got %s and %s", a.Balance, b.Balance)
	}
	if !c.Balance.IsZero() {
		t.Errorf("expected rejected replier unpaid, got %s", c.Balance)
	}
	// 50 before settle plus the 30 refund
	if !owner.Balance.Equal(decimal.NewFromInt(80)) {
		t.Errorf("expected creator balance 80 after refund, got %s", owner.Balance)
	}

	var approvedCount int64
	db.Model(&models.Reply{}).Where("buzz_id = ? AND status = ?", buzz.ID, models.ReplyStatusApproved).Count(&approvedCount)
	if approvedCount != 2 {
		t.Errorf("expected 2 approved replies in database, got %d", approvedCount)
	}

	// Settling twice must fail
	if _, err := service.SettleBuzz(creator.ID, buzz.ID); !errors.Is(err, ErrAlreadySettled) {
		t.Errorf("expected ErrAlreadySettled on second settle, got %v", err)
	}
}

func TestSettleBuzzOnlyCreatorMaySettle(t *testing.T) {
	db := setupTestDB(t)
	service := NewBuzzService(db, nil)

	creator := createTestUser(t, db, "owner2", "CODE8", 0)
	stranger := createTestUser(t, db, "stranger", "CODE9", 0)
	buzz := createTestBuzz(t, db, creator.ID, 10, 5)

	if _, err := service.SettleBuzz(stranger.ID, buzz.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}

	var updated models.Buzz
	db.First(&updated, buzz.ID)
	if updated.IsSettled {
		t.Error("buzz must not be settled by a non-creator")
	}
}
