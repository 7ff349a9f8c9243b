package models

import (
	"time"
)

// TokenInfo stores metadata for supported on-chain tokens
type TokenInfo struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TokenAddress string    `gorm:"uniqueIndex;size:64;not null" json:"token_address"`
	Symbol       string    `gorm:"size:20;not null" json:"symbol"`
	Name         string    `gorm:"size:100" json:"name"`
	Decimals     int       `gorm:"default:18" json:"decimals"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for TokenInfo model
func (TokenInfo) TableName() string {
	return "token_infos"
}

// UserApiKey is a service-issued API key for machine callers. Only a hash of
// the key is stored; the plaintext is shown once at issue time.
type UserApiKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	KeyHash    string     `gorm:"uniqueIndex;size:64;not null" json:"-"`
	KeyPrefix  string     `gorm:"size:12;not null" json:"key_prefix"`
	IsActive   bool       `gorm:"default:true;index" json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// TableName specifies the table name for UserApiKey model
func (UserApiKey) TableName() string {
	return "user_api_keys"
}
