package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/film-bet/blockend/internal/repository"

	"github.com/shopspring/decimal"
)

// AdminService backs the privileged-caller predicate and the platform
// dashboard.
type AdminService struct {
	repo *repository.Repository
	mu   sync.Mutex
}

func NewAdminService(repo *repository.Repository) *AdminService {
	return &AdminService{repo: repo}
}

// IsAdminWallet reports whether the wallet belongs to an admin user. This is
// the privilege predicate handed to the settlement engine.
func (s *AdminService) IsAdminWallet(wallet string) bool {
	user, err := s.repo.GetUserByWallet(context.Background(), wallet)
	if err != nil {
		return false
	}
	return user.IsAdmin
}

// PromoteToAdmin flips the admin flag on an existing user.
func (s *AdminService) PromoteToAdmin(ctx context.Context, wallet string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.repo.GetUserByWallet(ctx, wallet)
	if err != nil {
		return fmt.Errorf("user not found: %w", err)
	}
	if user.IsAdmin {
		return fmt.Errorf("user is already an admin")
	}

	if err := s.repo.SetUserAdmin(ctx, wallet, true); err != nil {
		return fmt.Errorf("failed to promote user: %w", err)
	}

	log.Printf("[AdminService] Promoted %s (%s) to admin", user.Nickname, wallet)
	return nil
}

// PlatformStats summarizes the platform for the admin dashboard.
type PlatformStats struct {
	TotalUsers         int64           `json:"total_users"`
	TotalPools         int64           `json:"total_pools"`
	ResolvedPools      int64           `json:"resolved_pools"`
	OpenPools          int64           `json:"open_pools"`
	FeeBasisPoints     uint64          `json:"fee_basis_points"`
	TotalFeesCollected decimal.Decimal `json:"total_fees_collected_tokens"`
	CustodyBalance     decimal.Decimal `json:"custody_balance_tokens"`
}

// GetPlatformStats assembles dashboard figures from the repository, the
// engine's fee counters and the ledger's custody balance.
func (s *AdminService) GetPlatformStats(ctx context.Context, pools *PoolService) (*PlatformStats, error) {
	totalUsers, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	totalPools, resolvedPools, err := s.repo.CountPools(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count pools: %w", err)
	}

	feeBps, collected := pools.FeeInfo()

	stats := &PlatformStats{
		TotalUsers:         totalUsers,
		TotalPools:         totalPools,
		ResolvedPools:      resolvedPools,
		OpenPools:          totalPools - resolvedPools,
		FeeBasisPoints:     feeBps,
		TotalFeesCollected: toTokens(collected),
	}

	if info, err := pools.GetLedgerInfo(ctx); err == nil {
		stats.CustodyBalance = info.CustodyBalance
	} else {
		log.Printf("[AdminService] Failed to read custody balance: %v", err)
	}

	return stats, nil
}
