package services

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"buzz-backend/internal/models"
)

// stubChain is a fixed-nonce chain adapter for tests
type stubChain struct {
	nonce     uint64
	signature string
	signCalls int
}

func (s *stubChain) GetNonce(ctx context.Context, wallet string) (uint64, error) {
	return s.nonce, nil
}

func (s *stubChain) SignWithdrawAuthorization(wallet string, nonce uint64, tokens []string, amounts []*big.Int) (string, error) {
	s.signCalls++
	return s.signature, nil
}

const (
	testWallet = "0x1111111111111111111111111111111111111111"
	tokenA     = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	tokenB     = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func createWalletUser(t *testing.T, db *gorm.DB, nickname, code string, balance int64) *models.User {
	user := createTestUser(t, db, nickname, code, balance)
	wallet := testWallet
	if err := db.Model(user).Update("wallet_address", &wallet).Error; err != nil {
		t.Fatalf("failed to bind wallet: %v", err)
	}
	user.WalletAddress = &wallet
	return user
}

func setTokenBalance(t *testing.T, db *gorm.DB, userID uint, token, amount string) {
	balance := models.UserBalance{UserID: userID, TokenAddress: token, Amount: amount}
	if err := db.Create(&balance).Error; err != nil {
		t.Fatalf("failed to create token balance: %v", err)
	}
}

func tokenBalance(t *testing.T, db *gorm.DB, userID uint, token string) string {
	var balance models.UserBalance
	if err := db.Where("user_id = ? AND token_address = ?", userID, token).First(&balance).Error; err != nil {
		t.Fatalf("failed to load balance for %s: %v", token, err)
	}
	return balance.Amount
}

func TestWithdrawDebitsBalanceAtomically(t *testing.T) {
	db := setupTestDB(t)
	service := NewWithdrawService(db, &stubChain{})

	user := createTestUser(t, db, "withdrawer", "WD1", 100)

	withdrawal, err := service.Withdraw(user.ID, testWallet, decimal.NewFromInt(40))
	if err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if withdrawal.Status != models.WithdrawalStatusPending {
		t.Errorf("expected PENDING withdrawal, got %s", withdrawal.Status)
	}

	var updated models.User
	db.First(&updated, user.ID)
	if !updated.Balance.Equal(decimal.NewFromInt(60)) {
		t.Errorf("expected balance 60, got %s", updated.Balance)
	}

	var record models.Transaction
	if err := db.Where("user_id = ? AND type = ?", user.ID, models.TxTypeWithdraw).First(&record).Error; err != nil {
		t.Fatalf("expected a withdraw ledger entry: %v", err)
	}
	if !record.Amount.Equal(decimal.NewFromInt(40)) {
		t.Errorf("expected ledger amount 40, got %s", record.Amount)
	}

	// Over-withdrawing fails and leaves the balance alone
	if _, err := service.Withdraw(user.ID, testWallet, decimal.NewFromInt(1000)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	db.First(&updated, user.ID)
	if !updated.Balance.Equal(decimal.NewFromInt(60)) {
		t.Errorf("expected balance still 60, got %s", updated.Balance)
	}
}

func TestWithdrawRejectsBadInput(t *testing.T) {
	db := setupTestDB(t)
	service := NewWithdrawService(db, &stubChain{})

	user := createTestUser(t, db, "withdrawer2", "WD2", 100)

	if _, err := service.Withdraw(user.ID, "not-an-address", decimal.NewFromInt(1)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad address: expected ErrInvalidInput, got %v", err)
	}
	if _, err := service.Withdraw(user.ID, testWallet, decimal.Zero); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero amount: expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateRequestDebitsTokenBalances(t *testing.T) {
	db := setupTestDB(t)
	chain := &stubChain{nonce: 7, signature: "0xsig"}
	service := NewWithdrawService(db, chain)
	ctx := context.Background()

	user := createWalletUser(t, db, "requester", "WD3", 0)
	setTokenBalance(t, db, user.ID, tokenA, "1000")
	setTokenBalance(t, db, user.ID, tokenB, "500")

	request, err := service.CreateRequest(ctx, user.ID, []string{tokenA, tokenB}, []string{"400", "500"})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}
	if request.NonceOnChain != 7 {
		t.Errorf("expected nonce 7, got %d", request.NonceOnChain)
	}

	if got := tokenBalance(t, db, user.ID, tokenA); got != "600" {
		t.Errorf("expected token A balance 600, got %s", got)
	}
	if got := tokenBalance(t, db, user.ID, tokenB); got != "0" {
		t.Errorf("expected token B balance 0, got %s", got)
	}

	// Only one request per (user, nonce)
	if _, err := service.CreateRequest(ctx, user.ID, []string{tokenA}, []string{"100"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate for same nonce, got %v", err)
	}
}

func TestCreateRequestInsufficientTokenBalance(t *testing.T) {
	db := setupTestDB(t)
	service := NewWithdrawService(db, &stubChain{nonce: 3})
	ctx := context.Background()

	user := createWalletUser(t, db, "requester2", "WD4", 0)
	setTokenBalance(t, db, user.ID, tokenA, "100")

	_, err := service.CreateRequest(ctx, user.ID, []string{tokenA}, []string{"200"})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if got := tokenBalance(t, db, user.ID, tokenA); got != "100" {
		t.Errorf("expected balance unchanged at 100, got %s", got)
	}

	var count int64
	db.Model(&models.UserWithdrawRequest{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no request rows, got %d", count)
	}
}

func TestContinueSignsCurrentRequest(t *testing.T) {
	db := setupTestDB(t)
	chain := &stubChain{nonce: 9, signature: "0xdeadbeef"}
	service := NewWithdrawService(db, chain)
	ctx := context.Background()

	user := createWalletUser(t, db, "continuer", "WD5", 0)

	// No request yet for the current nonce
	if _, _, err := service.Continue(ctx, user.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound before any request, got %v", err)
	}

	setTokenBalance(t, db, user.ID, tokenA, "1000")
	if _, err := service.CreateRequest(ctx, user.ID, []string{tokenA}, []string{"250"}); err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	signature, request, err := service.Continue(ctx, user.ID)
	if err != nil {
		t.Fatalf("Continue failed: %v", err)
	}
	if signature != "0xdeadbeef" {
		t.Errorf("expected stub signature, got %s", signature)
	}
	if request.NonceOnChain != 9 {
		t.Errorf("expected nonce 9, got %d", request.NonceOnChain)
	}
	if chain.signCalls != 1 {
		t.Errorf("expected one sign call, got %d", chain.signCalls)
	}

	// The nonce advancing on chain invalidates the stored request
	chain.nonce = 10
	if _, _, err := service.Continue(ctx, user.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after nonce advance, got %v", err)
	}
}

func TestDiscardRestoresTokenBalances(t *testing.T) {
	db := setupTestDB(t)
	service := NewWithdrawService(db, &stubChain{nonce: 12})
	ctx := context.Background()

	user := createWalletUser(t, db, "discarder", "WD6", 0)
	setTokenBalance(t, db, user.ID, tokenA, "1000")
	setTokenBalance(t, db, user.ID, tokenB, "500")

	if _, err := service.CreateRequest(ctx, user.ID, []string{tokenA, tokenB}, []string{"400", "500"}); err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	if err := service.Discard(ctx, user.ID); err != nil {
		t.Fatalf("Discard failed: %v", err)
	}

	if got := tokenBalance(t, db, user.ID, tokenA); got != "1000" {
		t.Errorf("expected token A restored to 1000, got %s", got)
	}
	if got := tokenBalance(t, db, user.ID, tokenB); got != "500" {
		t.Errorf("expected token B restored to 500, got %s", got)
	}

	ongoing, err := service.OnGoing(ctx, user.ID)
	if err != nil {
		t.Fatalf("OnGoing failed: %v", err)
	}
	if ongoing != nil {
		t.Errorf("expected no ongoing request after discard, got %+v", ongoing)
	}
}
