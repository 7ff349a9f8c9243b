package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Withdrawal statuses
const (
	WithdrawalStatusPending   = "PENDING"
	WithdrawalStatusCompleted = "COMPLETED"
	WithdrawalStatusFailed    = "FAILED"
)

// Withdrawal is a pending payout of off-chain balance to an on-chain address
type Withdrawal struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;index" json:"user_id"`
	User      *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ToAddress string          `gorm:"size:64;not null" json:"to_address"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"amount"`
	Status    string          `gorm:"size:20;default:PENDING;index" json:"status"` // PENDING, COMPLETED, FAILED
	TxHash    string          `gorm:"size:80" json:"tx_hash"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Withdrawal model
func (Withdrawal) TableName() string {
	return "withdrawals"
}

// UserWithdrawRequest is a pending on-chain payout authorization, keyed by the
// wallet's current chain nonce so a stale request is invalidated as soon as the
// nonce advances. Token addresses and raw amounts are stored as parallel JSON
// arrays; amounts are decimal strings of on-chain integer units.
type UserWithdrawRequest struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	UserID                uint      `gorm:"not null;uniqueIndex:idx_user_nonce" json:"user_id"`
	User                  *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	NonceOnChain          uint64    `gorm:"not null;uniqueIndex:idx_user_nonce" json:"nonce_on_chain"`
	TokenAddressesOnChain string    `gorm:"type:text;not null" json:"token_addresses_on_chain"`
	TokenAmountsOnChain   string    `gorm:"type:text;not null" json:"token_amounts_on_chain"`
	CreatedAt             time.Time `json:"created_at"`
}

// TableName specifies the table name for UserWithdrawRequest model
func (UserWithdrawRequest) TableName() string {
	return "user_withdraw_requests"
}

// TokenAddresses decodes the stored token address array
func (r *UserWithdrawRequest) TokenAddresses() []string {
	var addrs []string
	json.Unmarshal([]byte(r.TokenAddressesOnChain), &addrs)
	return addrs
}

// TokenAmounts decodes the stored raw amount array
func (r *UserWithdrawRequest) TokenAmounts() []string {
	var amounts []string
	json.Unmarshal([]byte(r.TokenAmountsOnChain), &amounts)
	return amounts
}

// SetTokens encodes the parallel token/amount arrays for storage
func (r *UserWithdrawRequest) SetTokens(addresses, amounts []string) error {
	a, err := json.Marshal(addresses)
	if err != nil {
		return err
	}
	b, err := json.Marshal(amounts)
	if err != nil {
		return err
	}
	r.TokenAddressesOnChain = string(a)
	r.TokenAmountsOnChain = string(b)
	return nil
}

// UserBalance is a per-user, per-token balance in raw on-chain integer units.
// Amount is a decimal string to avoid overflow on 18-decimal tokens.
type UserBalance struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_user_token" json:"user_id"`
	User         *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	TokenAddress string    `gorm:"size:64;not null;uniqueIndex:idx_user_token" json:"token_address"`
	Amount       string    `gorm:"size:80;not null;default:0" json:"amount"`
	TokenSymbol  string    `gorm:"size:20" json:"token_symbol"`
	Decimals     int       `gorm:"default:18" json:"decimals"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for UserBalance model
func (UserBalance) TableName() string {
	return "user_balances"
}

// AmountDecimal returns the raw amount as a decimal for arithmetic
func (b *UserBalance) AmountDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(b.Amount)
	if err != nil {
		return decimal.Zero
	}
	return d
}
