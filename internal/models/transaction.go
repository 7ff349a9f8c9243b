package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TxTypeBurn          = "BURN"
	TxTypeReward        = "REWARD"
	TxTypeRefund        = "REFUND"
	TxTypeWithdraw      = "WITHDRAW"
	TxTypeFaucet        = "FAUCET"
	TxTypeReferralBonus = "REFERRAL_BONUS"
)

// Transaction statuses
const (
	TxStatusPending   = "PENDING"
	TxStatusCompleted = "COMPLETED"
	TxStatusFailed    = "FAILED"
)

// Transaction is an immutable ledger entry recording a balance-affecting event
type Transaction struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	User        *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	BuzzID      *uint           `gorm:"index" json:"buzz_id,omitempty"`
	Buzz        *Buzz           `gorm:"foreignKey:BuzzID" json:"buzz,omitempty"`
	Type        string          `gorm:"size:50;not null;index" json:"type"`
	Status      string          `gorm:"size:20;default:COMPLETED" json:"status"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"amount"`
	Description string          `gorm:"type:text" json:"description"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for Transaction model
func (Transaction) TableName() string {
	return "transactions"
}
