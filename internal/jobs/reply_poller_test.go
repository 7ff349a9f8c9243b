package jobs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"buzz-backend/internal/models"
	"buzz-backend/internal/services"
)

// recordingProcessor captures resubmitted attempts
type recordingProcessor struct {
	submitted []uint
	fail      bool
}

func (p *recordingProcessor) SubmitAttempt(ctx context.Context, attempt *models.ReplyAttempt) error {
	p.submitted = append(p.submitted, attempt.ID)
	if p.fail {
		return fmt.Errorf("processor unavailable")
	}
	return nil
}

func setupPollerDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&models.Buzz{}, &models.Reply{}, &models.ReplyAttempt{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	db.Exec("DELETE FROM reply_attempts")
	db.Exec("DELETE FROM replies")
	db.Exec("DELETE FROM buzzes")
	return db
}

func staleAttempt(t *testing.T, db *gorm.DB, retryCount int) uint {
	attempt := models.ReplyAttempt{BuzzID: 1, UserID: 1, ReplyText: "text", Status: models.AttemptStatusPending, RetryCount: retryCount}
	if err := db.Create(&attempt).Error; err != nil {
		t.Fatalf("failed to create attempt: %v", err)
	}
	db.Model(&models.ReplyAttempt{}).Where("id = ?", attempt.ID).
		Update("updated_at", time.Now().Add(-10*time.Minute))
	return attempt.ID
}

func TestPollerResubmitsStalledAttempts(t *testing.T) {
	db := setupPollerDB(t)
	replyService := services.NewReplyService(db)
	processor := &recordingProcessor{}
	poller := NewReplyPoller(replyService, processor, time.Second)

	id := staleAttempt(t, db, 0)

	poller.resubmitStalledAttempts()

	if len(processor.submitted) != 1 || processor.submitted[0] != id {
		t.Fatalf("expected attempt %d resubmitted, got %v", id, processor.submitted)
	}

	var updated models.ReplyAttempt
	db.First(&updated, id)
	if updated.RetryCount != 1 {
		t.Errorf("expected retry count 1, got %d", updated.RetryCount)
	}

	// The touched updated_at keeps it out of the next tick
	processor.submitted = nil
	poller.resubmitStalledAttempts()
	if len(processor.submitted) != 0 {
		t.Errorf("expected no resubmissions, got %v", processor.submitted)
	}
}

func TestPollerCountsFailedResubmissions(t *testing.T) {
	db := setupPollerDB(t)
	replyService := services.NewReplyService(db)
	processor := &recordingProcessor{fail: true}
	poller := NewReplyPoller(replyService, processor, time.Second)

	id := staleAttempt(t, db, 1)

	poller.resubmitStalledAttempts()

	// On the retry ceiling a failed submission still consumes the attempt
	var updated models.ReplyAttempt
	db.First(&updated, id)
	if updated.RetryCount != 2 {
		t.Errorf("expected retry count 2 after failed resubmit, got %d", updated.RetryCount)
	}

	db.Model(&models.ReplyAttempt{}).Where("id = ?", id).
		Update("updated_at", time.Now().Add(-10*time.Minute))
	processor.submitted = nil
	poller.resubmitStalledAttempts()
	if len(processor.submitted) != 0 {
		t.Errorf("attempt at the retry ceiling must not be resubmitted, got %v", processor.submitted)
	}
}
