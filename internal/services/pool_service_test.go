package services

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/film-bet/blockend/internal/engine"
	"github.com/film-bet/blockend/internal/ledger"
	"github.com/film-bet/blockend/internal/models"
	"github.com/film-bet/blockend/internal/repository"
)

type stubClock struct {
	now time.Time
}

func (c *stubClock) Now() time.Time { return c.now }

func (c *stubClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func setupTestDB(t *testing.T) *gorm.DB {
	// :memory: is unique per connection unless using cache=shared; gorm keeps
	// a connection pool, so use the shared form and clean tables per test.
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Pool{},
		&models.PoolBet{},
		&models.PoolEvent{},
		&models.PlatformState{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	db.Exec("DELETE FROM pool_events")
	db.Exec("DELETE FROM pool_bets")
	db.Exec("DELETE FROM pools")
	db.Exec("DELETE FROM platform_state")
	db.Exec("DELETE FROM users")

	return db
}

func setupService(t *testing.T, db *gorm.DB, clock *stubClock, feeBps uint64) (*PoolService, *ledger.MemoryLedger) {
	repo := repository.NewRepository(db)
	led := ledger.NewMemoryLedger("FILM", "custody")

	eng, err := engine.New(engine.Config{
		Ledger:         led,
		CustodyAccount: "custody",
		Clock:          clock,
		IsAdmin:        func(wallet string) bool { return wallet == "admin" },
		Notifier:       NewJournalNotifier(repo),
		FeeBasisPoints: feeBps,
	})
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	svc := NewPoolService(eng, repo)
	if err := svc.Rehydrate(context.Background(), feeBps); err != nil {
		t.Fatalf("failed to rehydrate: %v", err)
	}

	return svc, led
}

func TestPoolLifecyclePersistence(t *testing.T) {
	db := setupTestDB(t)
	clock := &stubClock{now: time.Unix(1_700_000_000, 0)}
	svc, led := setupService(t, db, clock, 200)
	ctx := context.Background()

	led.Credit("alice", 1_000)
	led.Credit("bob", 1_000)

	pool, err := svc.CreatePool(ctx, &models.CreatePoolRequest{
		Question: "Will Dune Part Three cross $500M opening month?",
		FilmID:   "dune-part-three",
		EndTime:  clock.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("CreatePool failed: %v", err)
	}
	if pool.PoolID != 1 {
		t.Fatalf("expected pool id 1, got %d", pool.PoolID)
	}

	if err := svc.PlaceBet(ctx, "alice", 1, true, 300); err != nil {
		t.Fatalf("PlaceBet alice failed: %v", err)
	}
	if err := svc.PlaceBet(ctx, "bob", 1, false, 100); err != nil {
		t.Fatalf("PlaceBet bob failed: %v", err)
	}

	// Pool snapshot row reflects committed totals.
	var row models.Pool
	if err := db.Where("pool_id = ?", 1).First(&row).Error; err != nil {
		t.Fatalf("failed to load pool row: %v", err)
	}
	if row.TotalYesStake != 300 || row.TotalNoStake != 100 {
		t.Errorf("persisted totals = (%d, %d), want (300, 100)", row.TotalYesStake, row.TotalNoStake)
	}

	clock.Advance(2 * time.Hour)
	if err := svc.ResolvePool(ctx, "carol", 1, true); err != nil {
		t.Fatalf("ResolvePool failed: %v", err)
	}

	payout, err := svc.ClaimWinnings(ctx, "alice", 1)
	if err != nil {
		t.Fatalf("ClaimWinnings failed: %v", err)
	}
	// alice is the sole winner: gross 400, fee 2% = 8, net 392.
	if payout != 392 {
		t.Errorf("payout = %d, want 392", payout)
	}

	balance, _ := led.BalanceOf(ctx, "alice")
	if balance != 1_000-300+392 {
		t.Errorf("alice balance = %d, want %d", balance, 1_000-300+392)
	}

	// Claim row persisted with payout and claimed flag.
	var bet models.PoolBet
	if err := db.Where("pool_id = ? AND wallet_address = ?", 1, "alice").First(&bet).Error; err != nil {
		t.Fatalf("failed to load bet row: %v", err)
	}
	if !bet.Claimed {
		t.Error("expected persisted bet to be claimed")
	}
	if bet.PayoutAmount == nil || *bet.PayoutAmount != 392 {
		t.Errorf("persisted payout = %v, want 392", bet.PayoutAmount)
	}

	// Fee counters persisted.
	var state models.PlatformState
	if err := db.First(&state, 1).Error; err != nil {
		t.Fatalf("failed to load platform state: %v", err)
	}
	if state.TotalFeesCollected != 8 {
		t.Errorf("persisted fees = %d, want 8", state.TotalFeesCollected)
	}
}

func TestRehydrateRestoresEngineState(t *testing.T) {
	db := setupTestDB(t)
	clock := &stubClock{now: time.Unix(1_700_000_000, 0)}
	svc, led := setupService(t, db, clock, 200)
	ctx := context.Background()

	led.Credit("alice", 500)
	led.Credit("bob", 500)

	for i := 0; i < 3; i++ {
		_, err := svc.CreatePool(ctx, &models.CreatePoolRequest{
			Question: "Best picture?",
			FilmID:   "oscar-2027",
			EndTime:  clock.Now().Add(time.Hour).Unix(),
		})
		if err != nil {
			t.Fatalf("CreatePool failed: %v", err)
		}
	}
	if err := svc.PlaceBet(ctx, "alice", 2, true, 150); err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}
	if err := svc.PlaceBet(ctx, "bob", 2, false, 50); err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}

	// Simulate a restart: fresh engine and service over the same database
	// and ledger.
	svc2, _ := setupService(t, db, clock, 200)

	pool, err := svc2.GetPool(2)
	if err != nil {
		t.Fatalf("GetPool after rehydrate failed: %v", err)
	}
	if pool.TotalYesStake != 150 || pool.TotalNoStake != 50 {
		t.Errorf("rehydrated totals = (%d, %d), want (150, 50)", pool.TotalYesStake, pool.TotalNoStake)
	}

	bet, err := svc2.GetBet(2, "alice")
	if err != nil {
		t.Fatalf("GetBet after rehydrate failed: %v", err)
	}
	if bet.Amount != 150 || !bet.Choice {
		t.Errorf("rehydrated bet = (%d, %v), want (150, true)", bet.Amount, bet.Choice)
	}

	// Pool id sequence continues past the restored maximum.
	created, err := svc2.CreatePool(ctx, &models.CreatePoolRequest{
		Question: "Sequel greenlit this year?",
		FilmID:   "oscar-2027",
		EndTime:  clock.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("CreatePool after rehydrate failed: %v", err)
	}
	if created.PoolID != 4 {
		t.Errorf("pool id after rehydrate = %d, want 4", created.PoolID)
	}
}

func TestRehydratePreservesClaims(t *testing.T) {
	db := setupTestDB(t)
	clock := &stubClock{now: time.Unix(1_700_000_000, 0)}
	svc, led := setupService(t, db, clock, 0)
	ctx := context.Background()

	led.Credit("alice", 100)
	led.Credit("bob", 100)

	if _, err := svc.CreatePool(ctx, &models.CreatePoolRequest{
		Question: "Opening weekend #1?",
		FilmID:   "f-102",
		EndTime:  clock.Now().Add(time.Hour).Unix(),
	}); err != nil {
		t.Fatalf("CreatePool failed: %v", err)
	}
	if err := svc.PlaceBet(ctx, "alice", 1, true, 60); err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}
	if err := svc.PlaceBet(ctx, "bob", 1, false, 40); err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}
	clock.Advance(2 * time.Hour)
	if err := svc.ResolvePool(ctx, "alice", 1, true); err != nil {
		t.Fatalf("ResolvePool failed: %v", err)
	}
	if _, err := svc.ClaimWinnings(ctx, "alice", 1); err != nil {
		t.Fatalf("ClaimWinnings failed: %v", err)
	}

	svc2, _ := setupService(t, db, clock, 0)
	if _, err := svc2.ClaimWinnings(ctx, "alice", 1); err != engine.ErrAlreadyClaimed {
		t.Errorf("second claim after rehydrate: got %v, want ErrAlreadyClaimed", err)
	}
}

func TestListPoolsPaging(t *testing.T) {
	db := setupTestDB(t)
	clock := &stubClock{now: time.Unix(1_700_000_000, 0)}
	svc, _ := setupService(t, db, clock, 200)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := svc.CreatePool(ctx, &models.CreatePoolRequest{
			Question: "Box office milestone?",
			FilmID:   "f-200",
			EndTime:  clock.Now().Add(time.Hour).Unix(),
		}); err != nil {
			t.Fatalf("CreatePool failed: %v", err)
		}
	}

	pools, total, err := svc.ListPools(ctx, 2, 0)
	if err != nil {
		t.Fatalf("ListPools failed: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(pools) != 2 {
		t.Errorf("page size = %d, want 2", len(pools))
	}
}

func TestJournalNotifierRecordsLifecycle(t *testing.T) {
	db := setupTestDB(t)
	clock := &stubClock{now: time.Unix(1_700_000_000, 0)}
	svc, led := setupService(t, db, clock, 200)
	ctx := context.Background()

	led.Credit("alice", 100)

	if _, err := svc.CreatePool(ctx, &models.CreatePoolRequest{
		Question: "Director's cut released?",
		FilmID:   "f-300",
		EndTime:  clock.Now().Add(time.Hour).Unix(),
	}); err != nil {
		t.Fatalf("CreatePool failed: %v", err)
	}
	if err := svc.PlaceBet(ctx, "alice", 1, true, 100); err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}
	clock.Advance(2 * time.Hour)
	if err := svc.ResolvePool(ctx, "alice", 1, true); err != nil {
		t.Fatalf("ResolvePool failed: %v", err)
	}
	if _, err := svc.ClaimWinnings(ctx, "alice", 1); err != nil {
		t.Fatalf("ClaimWinnings failed: %v", err)
	}

	events, err := svc.GetPoolEvents(ctx, 1, 50)
	if err != nil {
		t.Fatalf("GetPoolEvents failed: %v", err)
	}

	seen := make(map[string]bool)
	for _, ev := range events {
		seen[ev.EventType] = true
	}
	for _, want := range []string{"POOL_CREATED", "BET_PLACED", "BET_RESOLVED", "WINNINGS_CLAIMED"} {
		if !seen[want] {
			t.Errorf("missing journaled event %q", want)
		}
	}
}

func TestFeeWithdrawalPersists(t *testing.T) {
	db := setupTestDB(t)
	clock := &stubClock{now: time.Unix(1_700_000_000, 0)}
	svc, led := setupService(t, db, clock, 1000)
	ctx := context.Background()

	led.Credit("alice", 1_000)
	led.Credit("bob", 1_000)

	if _, err := svc.CreatePool(ctx, &models.CreatePoolRequest{
		Question: "Festival premiere?",
		FilmID:   "f-400",
		EndTime:  clock.Now().Add(time.Hour).Unix(),
	}); err != nil {
		t.Fatalf("CreatePool failed: %v", err)
	}
	if err := svc.PlaceBet(ctx, "alice", 1, true, 500); err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}
	if err := svc.PlaceBet(ctx, "bob", 1, false, 500); err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}
	clock.Advance(2 * time.Hour)
	if err := svc.ResolvePool(ctx, "alice", 1, true); err != nil {
		t.Fatalf("ResolvePool failed: %v", err)
	}
	if _, err := svc.ClaimWinnings(ctx, "alice", 1); err != nil {
		t.Fatalf("ClaimWinnings failed: %v", err)
	}

	// 10% of the 1000 gross payout.
	if _, collected := svc.FeeInfo(); collected != 100 {
		t.Fatalf("collected = %d, want 100", collected)
	}

	if _, err := svc.WithdrawFees(ctx, "bob", "treasury"); err != engine.ErrNotAuthorized {
		t.Errorf("non-admin withdrawal: got %v, want ErrNotAuthorized", err)
	}

	amount, err := svc.WithdrawFees(ctx, "admin", "treasury")
	if err != nil {
		t.Fatalf("WithdrawFees failed: %v", err)
	}
	if amount != 100 {
		t.Errorf("withdrawn = %d, want 100", amount)
	}

	balance, _ := led.BalanceOf(ctx, "treasury")
	if balance != 100 {
		t.Errorf("treasury balance = %d, want 100", balance)
	}

	var state models.PlatformState
	if err := db.First(&state, 1).Error; err != nil {
		t.Fatalf("failed to load platform state: %v", err)
	}
	if state.TotalFeesCollected != 0 {
		t.Errorf("persisted fees after withdrawal = %d, want 0", state.TotalFeesCollected)
	}
}
