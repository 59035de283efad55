package ledger

import (
	"context"
	"errors"
	"sync"
)

var ErrInsufficientBalance = errors.New("insufficient token balance")

// MemoryLedger is an in-process token ledger used for local development
// and tests. It enforces balances the same way the on-chain token program
// does: a transfer either moves the full amount or fails.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[string]uint64
	mint     string
	custody  string
}

func NewMemoryLedger(mint, custodyAccount string) *MemoryLedger {
	return &MemoryLedger{
		balances: make(map[string]uint64),
		mint:     mint,
		custody:  custodyAccount,
	}
}

// Credit mints tokens to an account. Test/dev helper.
func (l *MemoryLedger) Credit(account string, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += amount
}

func (l *MemoryLedger) Transfer(ctx context.Context, to string, amount uint64) error {
	return l.TransferFrom(ctx, l.custody, to, amount)
}

func (l *MemoryLedger) TransferFrom(ctx context.Context, from, to string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[from] < amount {
		return ErrInsufficientBalance
	}

	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}

func (l *MemoryLedger) BalanceOf(ctx context.Context, account string) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account], nil
}

func (l *MemoryLedger) Mint() string {
	return l.mint
}
