package models

import (
	"time"
)

// Referral records which referral code an invited user signed up with.
// One row per invited user, write-once.
type Referral struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	InvitedUserID uint      `gorm:"uniqueIndex;not null" json:"invited_user_id"`
	InvitedUser   *User     `gorm:"foreignKey:InvitedUserID" json:"invited_user,omitempty"`
	ReferralCode  string    `gorm:"size:20;not null;index" json:"referral_code"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName specifies the table name for Referral model
func (Referral) TableName() string {
	return "referrals"
}
