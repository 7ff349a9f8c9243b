package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Buzz represents a paid engagement request against a tweet
type Buzz struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	User          *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	TweetLink     string          `gorm:"size:500;not null" json:"tweet_link"`
	Instructions  string          `gorm:"type:text" json:"instructions"`
	PricePerReply decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"price_per_reply"`
	TotalReplies  int             `gorm:"not null" json:"total_replies"` // replies purchased
	ReplyCount    int             `gorm:"default:0" json:"reply_count"`  // replies received so far
	Deadline      time.Time       `gorm:"not null;index" json:"deadline"`
	IsSettled     bool            `gorm:"default:false;index" json:"is_settled"`
	IsActive      bool            `gorm:"default:true;index" json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TotalPrice returns the full credit the buzz locks up at creation
func (b *Buzz) TotalPrice() decimal.Decimal {
	return b.PricePerReply.Mul(decimal.NewFromInt(int64(b.TotalReplies)))
}

// TableName specifies the table name for Buzz model
func (Buzz) TableName() string {
	return "buzzes"
}

// SettleHistory records a settlement run for a buzz
type SettleHistory struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	BuzzID        uint            `gorm:"not null;index" json:"buzz_id"`
	Buzz          *Buzz           `gorm:"foreignKey:BuzzID" json:"buzz,omitempty"`
	SettledByID   uint            `gorm:"not null" json:"settled_by_id"`
	ApprovedCount int             `gorm:"default:0" json:"approved_count"`
	PaidTotal     decimal.Decimal `gorm:"type:decimal(18,6);default:0" json:"paid_total"`
	RefundTotal   decimal.Decimal `gorm:"type:decimal(18,6);default:0" json:"refund_total"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (SettleHistory) TableName() string {
	return "settle_histories"
}
