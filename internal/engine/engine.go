package engine

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/film-bet/blockend/internal/ledger"
)

// Outcome is the resolved answer to a pool's proposition.
type Outcome string

const (
	OutcomeUndecided Outcome = "UNDECIDED"
	OutcomeYes       Outcome = "YES"
	OutcomeNo        Outcome = "NO"
)

// Pool is one wagering market tied to a film proposition and a deadline.
// Staking is allowed strictly before EndTime, resolution at-or-after it.
type Pool struct {
	ID            uint64
	Question      string
	FilmID        string
	EndTime       time.Time
	TotalYesStake uint64
	TotalNoStake  uint64
	Outcome       Outcome
	Resolved      bool
}

// Bet is one participant's single stake and side-choice within a pool.
type Bet struct {
	Amount  uint64
	Choice  bool // true = Yes
	Claimed bool
}

// PoolSnapshot carries a pool and all its bets, keyed by participant
// wallet address. Used to rehydrate the engine from persisted state.
type PoolSnapshot struct {
	Pool Pool
	Bets map[string]Bet
}

// Clock supplies the current time for deadline checks. The engine never
// reads the wall clock directly.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ResolverPolicy decides whether a caller may resolve a pool. The default
// is permissive: any caller can resolve any pool once its deadline passed.
type ResolverPolicy func(caller string, pool Pool) bool

// OpenResolverPolicy lets any caller resolve.
func OpenResolverPolicy(string, Pool) bool { return true }

// AdminResolverPolicy restricts resolution to privileged callers.
func AdminResolverPolicy(isAdmin func(caller string) bool) ResolverPolicy {
	return func(caller string, _ Pool) bool {
		return isAdmin(caller)
	}
}

// Config wires the engine's collaborators.
type Config struct {
	Ledger         ledger.TokenLedger
	CustodyAccount string
	Clock          Clock
	IsAdmin        func(caller string) bool
	ResolverPolicy ResolverPolicy
	Notifier       Notifier
	FeeBasisPoints uint64
}

type poolState struct {
	mu   sync.Mutex
	pool Pool
	bets map[string]*Bet
}

// Engine owns the pool registry and the create -> stake -> resolve -> claim
// lifecycle. Token movements are delegated to the TokenLedger; the engine
// only directs transfers in and out of its custody account.
type Engine struct {
	mu        sync.Mutex // guards pools and poolCount
	pools     map[uint64]*poolState
	poolCount uint64

	feeMu     sync.Mutex // guards feeBasisPoints and totalFees
	feeBps    uint64
	totalFees uint64

	ledger   ledger.TokenLedger
	custody  string
	clock    Clock
	isAdmin  func(caller string) bool
	resolver ResolverPolicy
	notifier Notifier
}

// New creates a settlement engine with zeroed counters.
func New(cfg Config) (*Engine, error) {
	if cfg.Ledger == nil {
		return nil, fmt.Errorf("engine requires a token ledger")
	}
	if cfg.CustodyAccount == "" {
		return nil, fmt.Errorf("engine requires a custody account")
	}
	if cfg.FeeBasisPoints > MaxFeeBasisPoints {
		return nil, ErrFeeTooHigh
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.ResolverPolicy == nil {
		cfg.ResolverPolicy = OpenResolverPolicy
	}
	if cfg.IsAdmin == nil {
		cfg.IsAdmin = func(string) bool { return false }
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NopNotifier{}
	}

	return &Engine{
		pools:    make(map[uint64]*poolState),
		feeBps:   cfg.FeeBasisPoints,
		ledger:   cfg.Ledger,
		custody:  cfg.CustodyAccount,
		clock:    cfg.Clock,
		isAdmin:  cfg.IsAdmin,
		resolver: cfg.ResolverPolicy,
		notifier: cfg.Notifier,
	}, nil
}

// Restore loads previously persisted pools and fee counters into a fresh
// engine. Must be called before the engine starts serving operations.
func (e *Engine) Restore(snapshots []PoolSnapshot, feeBps, totalFees uint64) error {
	if feeBps > MaxFeeBasisPoints {
		return ErrFeeTooHigh
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, snap := range snapshots {
		bets := make(map[string]*Bet, len(snap.Bets))
		for wallet, bet := range snap.Bets {
			b := bet
			bets[wallet] = &b
		}
		e.pools[snap.Pool.ID] = &poolState{pool: snap.Pool, bets: bets}
		if snap.Pool.ID > e.poolCount {
			e.poolCount = snap.Pool.ID
		}
	}

	e.feeMu.Lock()
	e.feeBps = feeBps
	e.totalFees = totalFees
	e.feeMu.Unlock()

	return nil
}

// CreatePool registers a new wagering pool. Any caller may create a pool;
// the deadline must be strictly in the future.
func (e *Engine) CreatePool(ctx context.Context, question, filmID string, endTime time.Time) (uint64, error) {
	if !endTime.After(e.clock.Now()) {
		return 0, ErrInvalidDeadline
	}

	e.mu.Lock()
	e.poolCount++
	id := e.poolCount
	e.pools[id] = &poolState{
		pool: Pool{
			ID:       id,
			Question: question,
			FilmID:   filmID,
			EndTime:  endTime,
			Outcome:  OutcomeUndecided,
		},
		bets: make(map[string]*Bet),
	}
	e.mu.Unlock()

	log.Printf("[Engine] Pool %d created for film %s, closes %s", id, filmID, endTime.Format(time.RFC3339))
	e.notifier.Notify(PoolCreated{PoolID: id, Question: question, FilmID: filmID, EndTime: endTime})

	return id, nil
}

// PlaceBet pulls the stake into custody and records the bet. The transfer
// and the state commit are atomic: if the transfer fails, no state changes;
// once state is committed, the custody already holds the stake.
func (e *Engine) PlaceBet(ctx context.Context, caller string, poolID uint64, choice bool, amount uint64) error {
	ps, err := e.lookup(poolID)
	if err != nil {
		return err
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	if !e.clock.Now().Before(ps.pool.EndTime) {
		return ErrBettingClosed
	}
	if _, exists := ps.bets[caller]; exists {
		return ErrDuplicateBet
	}
	// Invariant: TotalYesStake + TotalNoStake never overflows.
	if amount > math.MaxUint64-ps.pool.TotalYesStake-ps.pool.TotalNoStake {
		return ErrStakeOverflow
	}

	if err := e.ledger.TransferFrom(ctx, caller, e.custody, amount); err != nil {
		return fmt.Errorf("stake transfer failed: %w", err)
	}

	ps.bets[caller] = &Bet{Amount: amount, Choice: choice}
	if choice {
		ps.pool.TotalYesStake += amount
	} else {
		ps.pool.TotalNoStake += amount
	}

	log.Printf("[Engine] Bet placed: pool=%d wallet=%s choice=%v amount=%d", poolID, caller, choice, amount)
	e.notifier.Notify(BetPlaced{PoolID: poolID, Participant: caller, Choice: choice, Amount: amount})

	return nil
}

// ResolvePool fixes the pool's outcome once its deadline has passed. Who may
// resolve is governed by the configured ResolverPolicy; the default mirrors
// the permissive reference behavior where any caller can resolve.
func (e *Engine) ResolvePool(ctx context.Context, caller string, poolID uint64, outcomeIsYes bool) error {
	ps, err := e.lookup(poolID)
	if err != nil {
		return err
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.pool.Resolved {
		return ErrAlreadyResolved
	}
	if e.clock.Now().Before(ps.pool.EndTime) {
		return ErrBettingStillActive
	}
	if !e.resolver(caller, ps.pool) {
		return ErrNotAuthorized
	}

	if outcomeIsYes {
		ps.pool.Outcome = OutcomeYes
	} else {
		ps.pool.Outcome = OutcomeNo
	}
	ps.pool.Resolved = true

	log.Printf("[Engine] Pool %d resolved: %s", poolID, ps.pool.Outcome)
	e.notifier.Notify(BetResolved{PoolID: poolID, Outcome: ps.pool.Outcome})

	return nil
}

// ClaimWinnings pays out the caller's proportional share of the pool, net of
// the platform fee, and marks the bet claimed. Exactly-once: a second claim
// by the same participant fails with ErrAlreadyClaimed.
//
// The share is floor(amount * totalPool / totalWinningStake); the fee is
// floor(share * feeBps / 10000). Truncation residue stays in custody.
func (e *Engine) ClaimWinnings(ctx context.Context, caller string, poolID uint64) (uint64, error) {
	ps, err := e.lookup(poolID)
	if err != nil {
		return 0, err
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	if !ps.pool.Resolved {
		return 0, ErrNotResolved
	}
	bet, ok := ps.bets[caller]
	if !ok {
		return 0, ErrNoBetFound
	}
	if bet.Claimed {
		return 0, ErrAlreadyClaimed
	}
	won := ps.pool.Outcome == OutcomeYes
	if bet.Choice != won {
		return 0, ErrBetLost
	}

	totalWinningStake := ps.pool.TotalYesStake
	if !won {
		totalWinningStake = ps.pool.TotalNoStake
	}
	// totalWinningStake can be 0 when the only winning-side bet is a
	// zero-amount bet; proportionalShare returns 0 without dividing.
	totalPool := ps.pool.TotalYesStake + ps.pool.TotalNoStake

	share := proportionalShare(bet.Amount, totalPool, totalWinningStake)
	fee := feeCut(share, e.FeeBasisPoints())
	payout := share - fee

	if payout > 0 {
		if err := e.ledger.Transfer(ctx, caller, payout); err != nil {
			return 0, fmt.Errorf("payout transfer failed: %w", err)
		}
	}

	e.feeMu.Lock()
	e.totalFees += fee
	e.feeMu.Unlock()
	bet.Claimed = true

	log.Printf("[Engine] Winnings claimed: pool=%d wallet=%s share=%d fee=%d payout=%d", poolID, caller, share, fee, payout)
	e.notifier.Notify(WinningsClaimed{PoolID: poolID, Participant: caller, Payout: payout})

	return payout, nil
}

// SetPlatformFee updates the fee rate for subsequent claims. Privileged
// callers only; capped at MaxFeeBasisPoints.
func (e *Engine) SetPlatformFee(ctx context.Context, caller string, bps uint64) error {
	if !e.isAdmin(caller) {
		return ErrNotAuthorized
	}
	if bps > MaxFeeBasisPoints {
		return ErrFeeTooHigh
	}

	e.feeMu.Lock()
	e.feeBps = bps
	e.feeMu.Unlock()

	log.Printf("[Engine] Platform fee set to %d bps by %s", bps, caller)
	e.notifier.Notify(FeeUpdated{BasisPoints: bps})

	return nil
}

// WithdrawFees transfers the collected fee balance to destination and resets
// the counter. The counter is zeroed before the transfer and restored only
// if the transfer fails, so a double withdrawal can never pay out twice.
func (e *Engine) WithdrawFees(ctx context.Context, caller, destination string) (uint64, error) {
	if !e.isAdmin(caller) {
		return 0, ErrNotAuthorized
	}

	e.feeMu.Lock()
	defer e.feeMu.Unlock()

	amount := e.totalFees
	e.totalFees = 0

	if amount > 0 {
		if err := e.ledger.Transfer(ctx, destination, amount); err != nil {
			e.totalFees = amount
			return 0, fmt.Errorf("fee withdrawal transfer failed: %w", err)
		}
	}

	log.Printf("[Engine] Fees withdrawn: %d units to %s", amount, destination)
	e.notifier.Notify(FeesWithdrawn{Amount: amount})

	return amount, nil
}

// GetPool returns a copy of the pool summary.
func (e *Engine) GetPool(poolID uint64) (Pool, error) {
	ps, err := e.lookup(poolID)
	if err != nil {
		return Pool{}, err
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.pool, nil
}

// GetBet returns a copy of a participant's bet within a pool.
func (e *Engine) GetBet(poolID uint64, participant string) (Bet, error) {
	ps, err := e.lookup(poolID)
	if err != nil {
		return Bet{}, err
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	bet, ok := ps.bets[participant]
	if !ok {
		return Bet{}, ErrNoBetFound
	}
	return *bet, nil
}

// Pools returns copies of all pools, ordered by id.
func (e *Engine) Pools() []Pool {
	e.mu.Lock()
	states := make([]*poolState, 0, len(e.pools))
	for _, ps := range e.pools {
		states = append(states, ps)
	}
	e.mu.Unlock()

	pools := make([]Pool, 0, len(states))
	for _, ps := range states {
		ps.mu.Lock()
		pools = append(pools, ps.pool)
		ps.mu.Unlock()
	}
	sort.Slice(pools, func(i, j int) bool { return pools[i].ID < pools[j].ID })

	return pools
}

// PoolCount returns the number of pools ever created.
func (e *Engine) PoolCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.poolCount
}

// FeeBasisPoints returns the current platform fee rate.
func (e *Engine) FeeBasisPoints() uint64 {
	e.feeMu.Lock()
	defer e.feeMu.Unlock()
	return e.feeBps
}

// TotalFeesCollected returns the cumulative fees not yet withdrawn.
func (e *Engine) TotalFeesCollected() uint64 {
	e.feeMu.Lock()
	defer e.feeMu.Unlock()
	return e.totalFees
}

// CustodyAccount returns the account holding staked tokens.
func (e *Engine) CustodyAccount() string {
	return e.custody
}

// Ledger returns the token ledger handle in use.
func (e *Engine) Ledger() ledger.TokenLedger {
	return e.ledger
}

func (e *Engine) lookup(poolID uint64) (*poolState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ps, ok := e.pools[poolID]
	if !ok {
		return nil, ErrPoolNotFound
	}
	return ps, nil
}
