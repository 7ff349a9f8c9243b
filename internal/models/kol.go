package models

import (
	"time"
)

// Kol statuses
const (
	KolStatusPending   = "PENDING"
	KolStatusConfirmed = "CONFIRMED"
)

// Kol is a scored directory entry for a social-media account
type Kol struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Handle         string    `gorm:"uniqueIndex;size:50;not null" json:"handle"`
	Name           string    `gorm:"size:100" json:"name"`
	AvatarURL      string    `gorm:"size:500" json:"avatar_url"`
	Score          float64   `gorm:"default:0;index" json:"score"`
	FollowersCount int       `gorm:"default:0" json:"followers_count"`
	Area           string    `gorm:"size:50;index" json:"area"`
	Status         string    `gorm:"size:20;default:PENDING;index" json:"status"` // PENDING, CONFIRMED
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for Kol model
func (Kol) TableName() string {
	return "kols"
}
