package engine

import "errors"

// Validation errors: rejected before any state change, safe to retry with
// corrected input.
var (
	ErrInvalidDeadline = errors.New("pool deadline must be in the future")
	ErrFeeTooHigh      = errors.New("platform fee exceeds 1000 basis points")
	ErrStakeOverflow   = errors.New("stake would overflow the pool totals")
)

// State-conflict errors: the call is rejected, the pool's existing state is
// untouched.
var (
	ErrPoolNotFound       = errors.New("pool not found")
	ErrBettingClosed      = errors.New("betting is closed for this pool")
	ErrDuplicateBet       = errors.New("participant already has a bet in this pool")
	ErrAlreadyResolved    = errors.New("pool is already resolved")
	ErrBettingStillActive = errors.New("pool deadline has not passed yet")
	ErrNotResolved        = errors.New("pool is not resolved yet")
	ErrNoBetFound         = errors.New("no bet found for participant in this pool")
	ErrAlreadyClaimed     = errors.New("winnings already claimed")
)

// ErrBetLost is a normal outcome, not a fault: the caller bet on the side
// that lost.
var ErrBetLost = errors.New("bet was on the losing side")

// ErrNotAuthorized rejects non-privileged callers on administrative
// operations and, under a strict resolver policy, unauthorized resolvers.
var ErrNotAuthorized = errors.New("caller is not authorized")
