package models

import (
	"time"
)

// User represents a bettor identified by their Solana wallet
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	WalletAddress string    `gorm:"uniqueIndex;not null" json:"wallet_address"`
	Nickname      string    `gorm:"uniqueIndex;not null" json:"nickname"`
	IsAdmin       bool      `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}
