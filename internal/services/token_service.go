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

// TokenService handles per-token balances, token metadata and the faucet
type TokenService struct {
	db           *gorm.DB
	chain        *blockchain.EthClient
	tokenAddress string
	faucetAmount decimal.Decimal
}

// NewTokenService creates a new TokenService. The chain client is optional;
// without it the faucet credits balances off-chain only.
func NewTokenService(db *gorm.DB, chain *blockchain.EthClient, tokenAddress, faucetAmount string) *TokenService {
	amount, err := decimal.NewFromString(faucetAmount)
	if err != nil || !amount.IsPositive() {
		amount = decimal.NewFromInt(100)
	}
	return &TokenService{
		db:           db,
		chain:        chain,
		tokenAddress: tokenAddress,
		faucetAmount: amount,
	}
}

// GetBalances returns the user's per-token balances
func (s *TokenService) GetBalances(userID uint) ([]models.UserBalance, error) {
	var balances []models.UserBalance
	if err := s.db.Where("user_id = ?", userID).
		Order("token_address ASC").
		Find(&balances).Error; err != nil {
		return nil, err
	}
	return balances, nil
}

// ListTokens returns the active supported tokens
func (s *TokenService) ListTokens() ([]models.TokenInfo, error) {
	var tokens []models.TokenInfo
	if err := s.db.Where("is_active = ?", true).Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

// Faucet credits the faucet amount to the user: the off-chain ledger balance,
// the configured token's UserBalance row in raw units, and a FAUCET ledger
// entry, all in one transaction. When a chain client and a bound wallet are
// available the tokens are also sent on-chain, best effort.
func (s *TokenService) Faucet(ctx context.Context, userID uint) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("user %w", ErrNotFound)
		}
		return err
	}

	info := s.tokenInfo()
	rawAmount := s.faucetAmount.Shift(int32(info.Decimals)).BigInt()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("balance", gorm.Expr("balance + ?", s.faucetAmount)).Error; err != nil {
			return err
		}

		if s.tokenAddress != "" {
			var balance models.UserBalance
			err := tx.Where("user_id = ? AND token_address = ?", userID, s.tokenAddress).
				First(&balance).Error
			if err == gorm.ErrRecordNotFound {
				balance = models.UserBalance{
					UserID:       userID,
					TokenAddress: s.tokenAddress,
					Amount:       rawAmount.String(),
					TokenSymbol:  info.Symbol,
					Decimals:     info.Decimals,
				}
				if err := tx.Create(&balance).Error; err != nil {
					return err
				}
			} else if err != nil {
				return err
			} else {
				current, ok := new(big.Int).SetString(balance.Amount, 10)
				if !ok {
					return fmt.Errorf("corrupt balance amount: %q", balance.Amount)
				}
				credited := new(big.Int).Add(current, rawAmount)
				if err := tx.Model(&models.UserBalance{}).
					Where("id = ?", balance.ID).
					Update("amount", credited.String()).Error; err != nil {
					return err
				}
			}
		}

		record := models.Transaction{
			UserID:      userID,
			Type:        models.TxTypeFaucet,
			Status:      models.TxStatusCompleted,
			Amount:      s.faucetAmount,
			Description: "Faucet credit",
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return err
	}

	// Best-effort on-chain transfer; the ledger credit stands either way
	if s.chain != nil && user.WalletAddress != nil && *user.WalletAddress != "" {
		txHash, err := s.chain.TransferToken(ctx, *user.WalletAddress, rawAmount)
		if err != nil {
			log.Printf("Warning: faucet on-chain transfer failed for user %d: %v", userID, err)
		} else {
			log.Printf("[Faucet] Sent %s raw units to %s (tx: %s)", rawAmount, *user.WalletAddress, txHash)
		}
	}

	return nil
}

// tokenInfo returns metadata for the configured faucet token, defaulting to
// 18 decimals when the token is not registered
func (s *TokenService) tokenInfo() models.TokenInfo {
	info := models.TokenInfo{Symbol: "BUZZ", Decimals: 18}
	if s.tokenAddress == "" {
		return info
	}
	var stored models.TokenInfo
	if err := s.db.Where("token_address = ?", s.tokenAddress).First(&stored).Error; err == nil {
		return stored
	}
	return info
}
