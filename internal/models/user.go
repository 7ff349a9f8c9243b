package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a user in the system
type User struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	SubjectID     string          `gorm:"uniqueIndex;size:128;not null" json:"subject_id"` // identity-provider user id
	WalletAddress *string         `gorm:"uniqueIndex;size:64" json:"wallet_address,omitempty"`
	Nickname      string          `gorm:"uniqueIndex;size:50;not null" json:"nickname"`
	Username      *string         `gorm:"uniqueIndex;size:50" json:"username,omitempty"`
	Mood          string          `gorm:"type:text" json:"mood"`
	Balance       decimal.Decimal `gorm:"type:decimal(18,6);default:0" json:"balance"`
	ReferralCode  string          `gorm:"uniqueIndex;size:20;not null" json:"referral_code"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}
