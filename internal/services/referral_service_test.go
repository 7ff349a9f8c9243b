package services

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"buzz-backend/internal/models"
)

func TestApplyReferralIsWriteOnce(t *testing.T) {
	db := setupTestDB(t)
	service := NewReferralService(db)

	referrer := createTestUser(t, db, "inviter", "INVITE1", 0)
	invited := createTestUser(t, db, "invited", "INVITE2", 0)

	if err := service.Apply(invited.ID, "INVITE1"); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	// The referrer is credited the bonus with a ledger entry
	var updated models.User
	db.First(&updated, referrer.ID)
	if !updated.Balance.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected referrer balance 10, got %s", updated.Balance)
	}
	var bonus models.Transaction
	if err := db.Where("user_id = ? AND type = ?", referrer.ID, models.TxTypeReferralBonus).First(&bonus).Error; err != nil {
		t.Fatalf("expected a referral bonus ledger entry: %v", err)
	}

	// A second code for the same invited user fails, even a different one
	createTestUser(t, db, "other-inviter", "INVITE3", 0)
	if err := service.Apply(invited.ID, "INVITE3"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate on second apply, got %v", err)
	}

	// The referrer got no second bonus
	db.First(&updated, referrer.ID)
	if !updated.Balance.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected referrer balance still 10, got %s", updated.Balance)
	}
}

func TestApplyReferralRejectsOwnCode(t *testing.T) {
	db := setupTestDB(t)
	service := NewReferralService(db)

	user := createTestUser(t, db, "selfish", "SELF1", 0)

	if err := service.Apply(user.ID, "SELF1"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for own code, got %v", err)
	}
}

func TestApplyReferralUnknownCode(t *testing.T) {
	db := setupTestDB(t)
	service := NewReferralService(db)

	user := createTestUser(t, db, "lost", "LOST1", 0)

	if err := service.Apply(user.ID, "NO-SUCH-CODE"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGenerateCodeShape(t *testing.T) {
	service := NewReferralService(nil)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := service.GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode failed: %v", err)
		}
		if len(code) == 0 || len(code) > 10 {
			t.Fatalf("unexpected code length %d: %q", len(code), code)
		}
		if seen[code] {
			t.Fatalf("duplicate code generated: %q", code)
		}
		seen[code] = true
	}
}
