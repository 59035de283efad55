package models

import (
	"time"

	"github.com/google/uuid"
)

// PoolEvent is the persisted journal of engine notifications, consumed by
// external indexers. The engine never reads these back.
type PoolEvent struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PoolID        int64     `gorm:"index" json:"pool_id"`
	EventType     string    `gorm:"size:50;not null;index" json:"event_type"`
	WalletAddress *string   `gorm:"size:255;index" json:"wallet_address,omitempty"`
	Amount        *int64    `json:"amount,omitempty"`
	Detail        string    `gorm:"size:500" json:"detail,omitempty"`
	CreatedAt     time.Time `gorm:"default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

func (PoolEvent) TableName() string {
	return "pool_events"
}
