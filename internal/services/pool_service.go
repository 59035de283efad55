package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/film-bet/blockend/internal/engine"
	"github.com/film-bet/blockend/internal/models"
	"github.com/film-bet/blockend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// tokenDecimals converts smallest-unit amounts to whole tokens in API
// responses. SPL mints used by the platform carry 9 decimals.
const tokenDecimals = 9

// PoolService fronts the settlement engine: it routes operations, writes
// pool and bet snapshots through to the database, and rehydrates the engine
// from those snapshots at boot.
type PoolService struct {
	engine *engine.Engine
	repo   *repository.Repository
}

func NewPoolService(eng *engine.Engine, repo *repository.Repository) *PoolService {
	return &PoolService{engine: eng, repo: repo}
}

// Rehydrate replays persisted pools, bets and fee counters into the engine.
// Must run before the HTTP surface starts serving.
func (s *PoolService) Rehydrate(ctx context.Context, defaultFeeBps uint64) error {
	state, err := s.repo.GetPlatformState(ctx, int64(defaultFeeBps))
	if err != nil {
		return fmt.Errorf("failed to load platform state: %w", err)
	}

	pools, err := s.repo.AllPools(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pools: %w", err)
	}

	snapshots := make([]engine.PoolSnapshot, 0, len(pools))
	for _, p := range pools {
		bets, err := s.repo.ListBetsByPool(ctx, p.PoolID)
		if err != nil {
			return fmt.Errorf("failed to load bets for pool %d: %w", p.PoolID, err)
		}

		snap := engine.PoolSnapshot{
			Pool: engine.Pool{
				ID:            uint64(p.PoolID),
				Question:      p.Question,
				FilmID:        p.FilmID,
				EndTime:       p.EndTime,
				TotalYesStake: uint64(p.TotalYesStake),
				TotalNoStake:  uint64(p.TotalNoStake),
				Outcome:       engine.Outcome(p.Outcome),
				Resolved:      p.Resolved,
			},
			Bets: make(map[string]engine.Bet, len(bets)),
		}
		for _, b := range bets {
			snap.Bets[b.WalletAddress] = engine.Bet{
				Amount:  uint64(b.Amount),
				Choice:  b.Choice,
				Claimed: b.Claimed,
			}
		}
		snapshots = append(snapshots, snap)
	}

	if err := s.engine.Restore(snapshots, uint64(state.FeeBasisPoints), uint64(state.TotalFeesCollected)); err != nil {
		return fmt.Errorf("failed to restore engine state: %w", err)
	}

	log.Printf("[PoolService] Rehydrated %d pools (fee=%d bps, collected=%d)",
		len(snapshots), state.FeeBasisPoints, state.TotalFeesCollected)
	return nil
}

// CreatePool opens a new wagering pool.
func (s *PoolService) CreatePool(ctx context.Context, req *models.CreatePoolRequest) (*models.PoolResponse, error) {
	endTime := time.Unix(req.EndTime, 0)

	poolID, err := s.engine.CreatePool(ctx, req.Question, req.FilmID, endTime)
	if err != nil {
		return nil, err
	}

	if err := s.persistPool(ctx, poolID); err != nil {
		log.Printf("[PoolService] Failed to persist pool %d: %v", poolID, err)
	}

	return s.GetPool(poolID)
}

// PlaceBet stakes on one side of a pool on behalf of a wallet.
func (s *PoolService) PlaceBet(ctx context.Context, wallet string, poolID uint64, choice bool, amount uint64) error {
	if err := s.engine.PlaceBet(ctx, wallet, poolID, choice, amount); err != nil {
		return err
	}

	bet := &models.PoolBet{
		ID:            uuid.New(),
		PoolID:        int64(poolID),
		WalletAddress: wallet,
		Amount:        int64(amount),
		Choice:        choice,
	}
	if err := s.repo.SaveBet(ctx, bet); err != nil {
		log.Printf("[PoolService] Failed to persist bet (pool=%d wallet=%s): %v", poolID, wallet, err)
	}
	if err := s.persistPool(ctx, poolID); err != nil {
		log.Printf("[PoolService] Failed to persist pool %d totals: %v", poolID, err)
	}

	return nil
}

// ResolvePool fixes a pool's outcome once the deadline has passed.
func (s *PoolService) ResolvePool(ctx context.Context, wallet string, poolID uint64, outcomeIsYes bool) error {
	if err := s.engine.ResolvePool(ctx, wallet, poolID, outcomeIsYes); err != nil {
		return err
	}

	if err := s.persistPool(ctx, poolID); err != nil {
		log.Printf("[PoolService] Failed to persist resolved pool %d: %v", poolID, err)
	}

	return nil
}

// ClaimWinnings pays out a winning bet and records the claim.
func (s *PoolService) ClaimWinnings(ctx context.Context, wallet string, poolID uint64) (uint64, error) {
	payout, err := s.engine.ClaimWinnings(ctx, wallet, poolID)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	payoutAmount := int64(payout)
	bet := &models.PoolBet{
		ID:            uuid.New(),
		PoolID:        int64(poolID),
		WalletAddress: wallet,
		Claimed:       true,
		PayoutAmount:  &payoutAmount,
		ClaimedAt:     &now,
	}
	if b, err := s.engine.GetBet(poolID, wallet); err == nil {
		bet.Amount = int64(b.Amount)
		bet.Choice = b.Choice
	}
	if err := s.repo.SaveBet(ctx, bet); err != nil {
		log.Printf("[PoolService] Failed to persist claim (pool=%d wallet=%s): %v", poolID, wallet, err)
	}
	if err := s.persistPlatformState(ctx); err != nil {
		log.Printf("[PoolService] Failed to persist fee counters: %v", err)
	}

	return payout, nil
}

// SetPlatformFee updates the fee rate. Admin only.
func (s *PoolService) SetPlatformFee(ctx context.Context, wallet string, bps uint64) error {
	if err := s.engine.SetPlatformFee(ctx, wallet, bps); err != nil {
		return err
	}
	if err := s.persistPlatformState(ctx); err != nil {
		log.Printf("[PoolService] Failed to persist fee rate: %v", err)
	}
	return nil
}

// WithdrawFees sends the collected fee balance to destination. Admin only.
func (s *PoolService) WithdrawFees(ctx context.Context, wallet, destination string) (uint64, error) {
	amount, err := s.engine.WithdrawFees(ctx, wallet, destination)
	if err != nil {
		return 0, err
	}
	if err := s.persistPlatformState(ctx); err != nil {
		log.Printf("[PoolService] Failed to persist fee counters after withdrawal: %v", err)
	}
	return amount, nil
}

// GetPool returns the live pool summary.
func (s *PoolService) GetPool(poolID uint64) (*models.PoolResponse, error) {
	pool, err := s.engine.GetPool(poolID)
	if err != nil {
		return nil, err
	}
	resp := toPoolResponse(pool)
	return &resp, nil
}

// ListPools returns persisted pool summaries, newest first.
func (s *PoolService) ListPools(ctx context.Context, limit, offset int) ([]models.PoolResponse, int64, error) {
	pools, total, err := s.repo.ListPools(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list pools: %w", err)
	}

	responses := make([]models.PoolResponse, 0, len(pools))
	for _, p := range pools {
		// Prefer the engine's live view; fall back to the snapshot.
		if live, err := s.engine.GetPool(uint64(p.PoolID)); err == nil {
			responses = append(responses, toPoolResponse(live))
			continue
		}
		responses = append(responses, toPoolResponse(engine.Pool{
			ID:            uint64(p.PoolID),
			Question:      p.Question,
			FilmID:        p.FilmID,
			EndTime:       p.EndTime,
			TotalYesStake: uint64(p.TotalYesStake),
			TotalNoStake:  uint64(p.TotalNoStake),
			Outcome:       engine.Outcome(p.Outcome),
			Resolved:      p.Resolved,
		}))
	}

	return responses, total, nil
}

// GetBet returns a participant's bet within a pool.
func (s *PoolService) GetBet(poolID uint64, wallet string) (*models.BetResponse, error) {
	bet, err := s.engine.GetBet(poolID, wallet)
	if err != nil {
		return nil, err
	}
	return &models.BetResponse{
		PoolID:        int64(poolID),
		WalletAddress: wallet,
		Amount:        int64(bet.Amount),
		Choice:        bet.Choice,
		Claimed:       bet.Claimed,
	}, nil
}

// GetPoolEvents returns the journaled notifications for a pool.
func (s *PoolService) GetPoolEvents(ctx context.Context, poolID uint64, limit int) ([]*models.PoolEvent, error) {
	return s.repo.ListEventsByPool(ctx, int64(poolID), limit)
}

// FeeInfo returns the current fee rate and cumulative fees collected.
func (s *PoolService) FeeInfo() (bps, collected uint64) {
	return s.engine.FeeBasisPoints(), s.engine.TotalFeesCollected()
}

// LedgerInfo describes the token ledger and custody account in use.
type LedgerInfo struct {
	Mint           string          `json:"mint"`
	CustodyAccount string          `json:"custody_account"`
	CustodyBalance decimal.Decimal `json:"custody_balance_tokens"`
}

// GetLedgerInfo returns the ledger handle and current custody balance.
func (s *PoolService) GetLedgerInfo(ctx context.Context) (*LedgerInfo, error) {
	balance, err := s.engine.Ledger().BalanceOf(ctx, s.engine.CustodyAccount())
	if err != nil {
		return nil, fmt.Errorf("failed to read custody balance: %w", err)
	}

	return &LedgerInfo{
		Mint:           s.engine.Ledger().Mint(),
		CustodyAccount: s.engine.CustodyAccount(),
		CustodyBalance: toTokens(balance),
	}, nil
}

func (s *PoolService) persistPool(ctx context.Context, poolID uint64) error {
	pool, err := s.engine.GetPool(poolID)
	if err != nil {
		return err
	}

	row := &models.Pool{
		ID:            uuid.New(),
		PoolID:        int64(pool.ID),
		Question:      pool.Question,
		FilmID:        pool.FilmID,
		EndTime:       pool.EndTime,
		TotalYesStake: int64(pool.TotalYesStake),
		TotalNoStake:  int64(pool.TotalNoStake),
		Outcome:       models.PoolOutcome(pool.Outcome),
		Resolved:      pool.Resolved,
	}
	if pool.Resolved {
		now := time.Now()
		row.ResolvedAt = &now
	}

	return s.repo.SavePool(ctx, row)
}

func (s *PoolService) persistPlatformState(ctx context.Context) error {
	state := &models.PlatformState{
		ID:                 1,
		FeeBasisPoints:     int64(s.engine.FeeBasisPoints()),
		TotalFeesCollected: int64(s.engine.TotalFeesCollected()),
	}
	return s.repo.SavePlatformState(ctx, state)
}

func toPoolResponse(pool engine.Pool) models.PoolResponse {
	total := pool.TotalYesStake + pool.TotalNoStake
	yesPrice := decimal.Zero
	if total > 0 {
		yesPrice = decimal.NewFromInt(int64(pool.TotalYesStake)).
			Div(decimal.NewFromInt(int64(total))).
			Round(4)
	}

	return models.PoolResponse{
		PoolID:        int64(pool.ID),
		Question:      pool.Question,
		FilmID:        pool.FilmID,
		EndTime:       pool.EndTime,
		TotalYesStake: int64(pool.TotalYesStake),
		TotalNoStake:  int64(pool.TotalNoStake),
		TotalPool:     toTokens(total),
		YesPrice:      yesPrice,
		Outcome:       models.PoolOutcome(pool.Outcome),
		Resolved:      pool.Resolved,
	}
}

func toTokens(amount uint64) decimal.Decimal {
	return decimal.New(int64(amount), -tokenDecimals)
}
