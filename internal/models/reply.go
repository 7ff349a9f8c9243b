package models

import (
	"time"
)

// Reply status values
const (
	ReplyStatusPending  = "PENDING"
	ReplyStatusApproved = "APPROVED"
	ReplyStatusRejected = "REJECTED"
)

// Reply represents a submission against a Buzz
type Reply struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BuzzID    uint      `gorm:"not null;uniqueIndex:idx_reply_buzz_user" json:"buzz_id"`
	Buzz      *Buzz     `gorm:"foreignKey:BuzzID" json:"buzz,omitempty"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_reply_buzz_user" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ReplyLink string    `gorm:"size:500" json:"reply_link"`
	Text      string    `gorm:"type:text" json:"text"`
	Status    string    `gorm:"size:20;default:PENDING;index" json:"status"` // PENDING, APPROVED, REJECTED
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Reply model
func (Reply) TableName() string {
	return "replies"
}

// ReplyAttempt status values
const (
	AttemptStatusPending   = "PENDING"
	AttemptStatusCompleted = "COMPLETED"
	AttemptStatusFailed    = "FAILED"
)

// ReplyAttempt tracks an in-flight attempt to post a reply on behalf of a user.
// Stalled attempts are picked up and resubmitted by the background poller.
type ReplyAttempt struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BuzzID     uint      `gorm:"not null;index" json:"buzz_id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	ReplyText  string    `gorm:"type:text" json:"reply_text"`
	Status     string    `gorm:"size:20;default:PENDING;index" json:"status"` // PENDING, COMPLETED, FAILED
	RetryCount int       `gorm:"default:0" json:"retry_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `gorm:"index" json:"updated_at"`
}

// TableName specifies the table name for ReplyAttempt model
func (ReplyAttempt) TableName() string {
	return "reply_attempts"
}
