package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/film-bet/blockend/internal/ledger"
)

func BenchmarkPlaceBet(b *testing.B) {
	tl := ledger.NewMemoryLedger("FILM", custody)
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	eng, err := New(Config{
		Ledger:         tl,
		CustodyAccount: custody,
		Clock:          clock,
		FeeBasisPoints: 200,
	})
	if err != nil {
		b.Fatalf("failed to create engine: %v", err)
	}

	id, err := eng.CreatePool(context.Background(), "q", "film-1", clock.Now().Add(time.Hour))
	if err != nil {
		b.Fatalf("CreatePool failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		wallet := fmt.Sprintf("wallet-%d", i)
		tl.Credit(wallet, 100)
		if err := eng.PlaceBet(context.Background(), wallet, id, i%2 == 0, 100); err != nil {
			b.Fatalf("PlaceBet failed: %v", err)
		}
	}
}

func BenchmarkClaimWinnings(b *testing.B) {
	tl := ledger.NewMemoryLedger("FILM", custody)
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	eng, err := New(Config{
		Ledger:         tl,
		CustodyAccount: custody,
		Clock:          clock,
		FeeBasisPoints: 200,
	})
	if err != nil {
		b.Fatalf("failed to create engine: %v", err)
	}

	id, err := eng.CreatePool(context.Background(), "q", "film-1", clock.Now().Add(time.Hour))
	if err != nil {
		b.Fatalf("CreatePool failed: %v", err)
	}

	for i := 0; i < b.N; i++ {
		wallet := fmt.Sprintf("wallet-%d", i)
		tl.Credit(wallet, 100)
		if err := eng.PlaceBet(context.Background(), wallet, id, true, 100); err != nil {
			b.Fatalf("PlaceBet failed: %v", err)
		}
	}

	clock.Advance(2 * time.Hour)
	if err := eng.ResolvePool(context.Background(), "oracle", id, true); err != nil {
		b.Fatalf("resolve failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		wallet := fmt.Sprintf("wallet-%d", i)
		if _, err := eng.ClaimWinnings(context.Background(), wallet, id); err != nil {
			b.Fatalf("claim failed: %v", err)
		}
	}
}
