package engine

import "time"

// Event is a notification emitted by the engine after a state change has
// been committed. Events are consumed by external observers (the event
// journal, indexers, logs) and are never interpreted by the engine itself.
type Event interface {
	EventName() string
}

type PoolCreated struct {
	PoolID   uint64
	Question string
	FilmID   string
	EndTime  time.Time
}

func (PoolCreated) EventName() string { return "POOL_CREATED" }

type BetPlaced struct {
	PoolID      uint64
	Participant string
	Choice      bool
	Amount      uint64
}

func (BetPlaced) EventName() string { return "BET_PLACED" }

type BetResolved struct {
	PoolID  uint64
	Outcome Outcome
}

func (BetResolved) EventName() string { return "BET_RESOLVED" }

type WinningsClaimed struct {
	PoolID      uint64
	Participant string
	Payout      uint64
}

func (WinningsClaimed) EventName() string { return "WINNINGS_CLAIMED" }

type FeeUpdated struct {
	BasisPoints uint64
}

func (FeeUpdated) EventName() string { return "FEE_UPDATED" }

type FeesWithdrawn struct {
	Amount uint64
}

func (FeesWithdrawn) EventName() string { return "FEES_WITHDRAWN" }

// Notifier receives committed events. Implementations must not call back
// into the engine.
type Notifier interface {
	Notify(event Event)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) Notify(Event) {}
