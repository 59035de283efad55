package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PoolOutcome string

const (
	PoolOutcomeUndecided PoolOutcome = "UNDECIDED"
	PoolOutcomeYes       PoolOutcome = "YES"
	PoolOutcomeNo        PoolOutcome = "NO"
)

// Pool is the persisted snapshot of a wagering pool. The settlement engine
// holds the authoritative in-memory state; these rows are written through on
// every committed operation and replayed at boot.
//
// Stake columns are int64 (postgres bigint). The API accepts per-bet amounts
// only up to MaxInt64, and aggregate stakes are bounded in practice by the
// token mint supply, which is far below 2^63 smallest units.
type Pool struct {
	ID            uuid.UUID   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PoolID        int64       `gorm:"uniqueIndex;not null" json:"pool_id"`
	Question      string      `gorm:"size:500;not null" json:"question"`
	FilmID        string      `gorm:"size:255;not null;index" json:"film_id"`
	EndTime       time.Time   `gorm:"not null;index" json:"end_time"`
	TotalYesStake int64       `gorm:"not null;default:0" json:"total_yes_stake"`
	TotalNoStake  int64       `gorm:"not null;default:0" json:"total_no_stake"`
	Outcome       PoolOutcome `gorm:"size:20;not null;default:UNDECIDED" json:"outcome"`
	Resolved      bool        `gorm:"not null;default:false;index" json:"resolved"`
	CreatedAt     time.Time   `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	ResolvedAt    *time.Time  `json:"resolved_at"`
	UpdatedAt     time.Time   `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Pool) TableName() string {
	return "pools"
}

// PoolBet is one participant's stake within one pool. At most one row per
// (pool, wallet) pair.
type PoolBet struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PoolID        int64      `gorm:"not null;index;uniqueIndex:idx_pool_wallet" json:"pool_id"`
	WalletAddress string     `gorm:"size:255;not null;index;uniqueIndex:idx_pool_wallet" json:"wallet_address"`
	Amount        int64      `gorm:"not null" json:"amount"`
	Choice        bool       `gorm:"not null" json:"choice"` // true: YES, false: NO
	Claimed       bool       `gorm:"not null;default:false" json:"claimed"`
	PayoutAmount  *int64     `json:"payout_amount"`
	CreatedAt     time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	ClaimedAt     *time.Time `json:"claimed_at"`
}

func (PoolBet) TableName() string {
	return "pool_bets"
}

// PlatformState is the single-row persistence of the engine's fee counters.
type PlatformState struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	FeeBasisPoints     int64     `gorm:"not null;default:200" json:"fee_basis_points"`
	TotalFeesCollected int64     `gorm:"not null;default:0" json:"total_fees_collected"`
	UpdatedAt          time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (PlatformState) TableName() string {
	return "platform_state"
}

// CreatePoolRequest represents a request to open a new pool
type CreatePoolRequest struct {
	Question string `json:"question" binding:"required"`
	FilmID   string `json:"film_id" binding:"required"`
	EndTime  int64  `json:"end_time" binding:"required"` // unix seconds
}

// PlaceBetRequest represents a request to stake on one side of a pool
type PlaceBetRequest struct {
	Choice *bool `json:"choice" binding:"required"` // true: YES, false: NO
	Amount int64 `json:"amount" binding:"gte=0"`
}

// ResolvePoolRequest represents a request to fix a pool's outcome
type ResolvePoolRequest struct {
	OutcomeIsYes *bool `json:"outcome_is_yes" binding:"required"`
}

// PoolResponse is a pool summary in API responses. Token figures carry both
// the raw smallest-unit integers and a human-denominated decimal.
type PoolResponse struct {
	PoolID        int64           `json:"pool_id"`
	Question      string          `json:"question"`
	FilmID        string          `json:"film_id"`
	EndTime       time.Time       `json:"end_time"`
	TotalYesStake int64           `json:"total_yes_stake"`
	TotalNoStake  int64           `json:"total_no_stake"`
	TotalPool     decimal.Decimal `json:"total_pool_tokens"`
	YesPrice      decimal.Decimal `json:"yes_price"`
	Outcome       PoolOutcome     `json:"outcome"`
	Resolved      bool            `json:"resolved"`
}

// BetResponse is a participant's bet in API responses.
type BetResponse struct {
	PoolID        int64  `json:"pool_id"`
	WalletAddress string `json:"wallet_address"`
	Amount        int64  `json:"amount"`
	Choice        bool   `json:"choice"`
	Claimed       bool   `json:"claimed"`
}
