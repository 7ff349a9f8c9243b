package services

import (
	"context"
	"fmt"
	"log"
	"math/big"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"buzz-backend/internal/blockchain"
	"buzz-backend/internal/models"
)

// ChainClient is the subset of the chain adapter the withdrawal flow needs
type ChainClient interface {
	GetNonce(ctx context.Context, wallet string) (uint64, error)
	SignWithdrawAuthorization(wallet string, nonce uint64, tokens []string, amounts []*big.Int) (string, error)
}

// WithdrawService handles off-chain withdrawals and the on-chain
// payout-request lifecycle keyed by the wallet's chain nonce
type WithdrawService struct {
	db    *gorm.DB
	chain ChainClient
}

// NewWithdrawService creates a new WithdrawService
func NewWithdrawService(db *gorm.DB, chain ChainClient) *WithdrawService {
	return &WithdrawService{db: db, chain: chain}
}

// Withdraw moves accounted balance into a PENDING withdrawal. The balance
// decrement and the withdrawal record are created in one transaction.
func (s *WithdrawService) Withdraw(userID uint, toAddress string, amount decimal.Decimal) (*models.Withdrawal, error) {
	if !blockchain.ValidateAddress(toAddress) {
		return nil, fmt.Errorf("%w: invalid withdrawal address %s", ErrInvalidInput, toAddress)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: withdrawal amount must be positive", ErrInvalidInput)
	}

	var withdrawal models.Withdrawal
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("user %w", ErrNotFound)
			}
			return err
		}

		if user.Balance.LessThan(amount) {
			return fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, user.Balance, amount)
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("balance", gorm.Expr("balance - ?", amount)).Error; err != nil {
			return err
		}

		withdrawal = models.Withdrawal{
			UserID:    userID,
			ToAddress: toAddress,
			Amount:    amount,
			Status:    models.WithdrawalStatusPending,
		}
		if err := tx.Create(&withdrawal).Error; err != nil {
			return err
		}

		record := models.Transaction{
			UserID:      userID,
			Type:        models.TxTypeWithdraw,
			Status:      models.TxStatusPending,
			Amount:      amount,
			Description: fmt.Sprintf("Withdrawal %d to %s", withdrawal.ID, toAddress),
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Withdraw] User %d requested withdrawal of %s to %s", userID, amount, toAddress)
	return &withdrawal, nil
}

// CreateRequest creates an on-chain payout request for the wallet's current
// nonce, debiting each requested token balance in the same transaction. A
// second request for the same (user, nonce) pair fails on the unique index.
func (s *WithdrawService) CreateRequest(ctx context.Context, userID uint, tokens []string, amounts []string) (*models.UserWithdrawRequest, error) {
	if len(tokens) == 0 || len(tokens) != len(amounts) {
		return nil, fmt.Errorf("%w: token and amount lists must be non-empty and equal length", ErrInvalidInput)
	}

	parsed := make([]*big.Int, len(amounts))
	for i, raw := range amounts {
		value, ok := new(big.Int).SetString(raw, 10)
		if !ok || value.Sign() <= 0 {
			return nil, fmt.Errorf("%w: invalid token amount %q", ErrInvalidInput, raw)
		}
		parsed[i] = value
	}

	wallet, err := s.userWallet(userID)
	if err != nil {
		return nil, err
	}

	nonce, err := s.chainNonce(ctx, wallet)
	if err != nil {
		return nil, err
	}

	var request models.UserWithdrawRequest
	err = s.db.Transaction(func(tx *gorm.DB) error {
		for i, token := range tokens {
			var balance models.UserBalance
			if err := tx.Where("user_id = ? AND token_address = ?", userID, token).
				First(&balance).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return fmt.Errorf("%w: no balance for token %s", ErrInsufficientBalance, token)
				}
				return err
			}

			current, ok := new(big.Int).SetString(balance.Amount, 10)
			if !ok {
				return fmt.Errorf("corrupt balance amount for token %s: %q", token, balance.Amount)
			}
			if current.Cmp(parsed[i]) < 0 {
				return fmt.Errorf("%w: token %s has %s, need %s", ErrInsufficientBalance, token, current, parsed[i])
			}

			remaining := new(big.Int).Sub(current, parsed[i])
			if err := tx.Model(&models.UserBalance{}).
				Where("id = ?", balance.ID).
				Update("amount", remaining.String()).Error; err != nil {
				return err
			}
		}

		request = models.UserWithdrawRequest{
			UserID:       userID,
			NonceOnChain: nonce,
		}
		if err := request.SetTokens(tokens, amounts); err != nil {
			return err
		}
		if err := tx.Create(&request).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("withdraw request %w for nonce %d", ErrDuplicate, nonce)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Withdraw] User %d created payout request at nonce %d (%d tokens)", userID, nonce, len(tokens))
	return &request, nil
}

// OnGoing returns the payout request for the wallet's current nonce, or nil
// when there is none
func (s *WithdrawService) OnGoing(ctx context.Context, userID uint) (*models.UserWithdrawRequest, error) {
	wallet, err := s.userWallet(userID)
	if err != nil {
		return nil, err
	}

	nonce, err := s.chainNonce(ctx, wallet)
	if err != nil {
		return nil, err
	}

	var request models.UserWithdrawRequest
	if err := s.db.Where("user_id = ? AND nonce_on_chain = ?", userID, nonce).
		First(&request).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// Continue re-reads the chain nonce, requires a matching request and returns
// the payout-authorization signature for its tokens and amounts
func (s *WithdrawService) Continue(ctx context.Context, userID uint) (string, *models.UserWithdrawRequest, error) {
	wallet, err := s.userWallet(userID)
	if err != nil {
		return "", nil, err
	}

	nonce, err := s.chainNonce(ctx, wallet)
	if err != nil {
		return "", nil, err
	}

	var request models.UserWithdrawRequest
	if err := s.db.Where("user_id = ? AND nonce_on_chain = ?", userID, nonce).
		First(&request).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil, fmt.Errorf("payout request %w for nonce %d", ErrNotFound, nonce)
		}
		return "", nil, err
	}

	tokens := request.TokenAddresses()
	rawAmounts := request.TokenAmounts()
	amounts := make([]*big.Int, len(rawAmounts))
	for i, raw := range rawAmounts {
		value, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			return "", nil, fmt.Errorf("corrupt stored amount: %q", raw)
		}
		amounts[i] = value
	}

	signature, err := s.chain.SignWithdrawAuthorization(wallet, nonce, tokens, amounts)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign payout authorization: %w", err)
	}

	return signature, &request, nil
}

// Discard deletes the payout request for the wallet's current nonce and
// restores every token balance it had debited. The deletion never persists
// without its balance restorations.
func (s *WithdrawService) Discard(ctx context.Context, userID uint) error {
	wallet, err := s.userWallet(userID)
	if err != nil {
		return err
	}

	nonce, err := s.chainNonce(ctx, wallet)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var request models.UserWithdrawRequest
		if err := tx.Where("user_id = ? AND nonce_on_chain = ?", userID, nonce).
			First(&request).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("payout request %w for nonce %d", ErrNotFound, nonce)
			}
			return err
		}

		tokens := request.TokenAddresses()
		amounts := request.TokenAmounts()
		for i, token := range tokens {
			restore, ok := new(big.Int).SetString(amounts[i], 10)
			if !ok {
				return fmt.Errorf("corrupt stored amount: %q", amounts[i])
			}

			var balance models.UserBalance
			err := tx.Where("user_id = ? AND token_address = ?", userID, token).
				First(&balance).Error
			if err == gorm.ErrRecordNotFound {
				balance = models.UserBalance{
					UserID:       userID,
					TokenAddress: token,
					Amount:       restore.String(),
				}
				if err := tx.Create(&balance).Error; err != nil {
					return err
				}
				continue
			} else if err != nil {
				return err
			}

			current, ok := new(big.Int).SetString(balance.Amount, 10)
			if !ok {
				return fmt.Errorf("corrupt balance amount for token %s: %q", token, balance.Amount)
			}
			restored := new(big.Int).Add(current, restore)
			if err := tx.Model(&models.UserBalance{}).
				Where("id = ?", balance.ID).
				Update("amount", restored.String()).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&request).Error
	})
}

// chainNonce reads the wallet's current account nonce from the chain adapter
func (s *WithdrawService) chainNonce(ctx context.Context, wallet string) (uint64, error) {
	if s.chain == nil {
		return 0, fmt.Errorf("chain adapter is not configured")
	}
	nonce, err := s.chain.GetNonce(ctx, wallet)
	if err != nil {
		return 0, fmt.Errorf("failed to read chain nonce: %w", err)
	}
	return nonce, nil
}

// userWallet returns the user's bound wallet address
func (s *WithdrawService) userWallet(userID uint) (string, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", fmt.Errorf("user %w", ErrNotFound)
		}
		return "", err
	}
	if user.WalletAddress == nil || *user.WalletAddress == "" {
		return "", fmt.Errorf("%w: no wallet bound to user %d", ErrInvalidInput, userID)
	}
	return *user.WalletAddress, nil
}
