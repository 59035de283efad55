package repository

import (
	"context"
	"errors"
	"time"

	"github.com/film-bet/blockend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SavePool inserts or updates the persisted snapshot of a pool.
func (r *Repository) SavePool(ctx context.Context, pool *models.Pool) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "pool_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_yes_stake", "total_no_stake", "outcome", "resolved", "resolved_at", "updated_at",
		}),
	}).Create(pool).Error
}

// GetPool retrieves a pool snapshot by its sequential id.
func (r *Repository) GetPool(ctx context.Context, poolID int64) (*models.Pool, error) {
	var pool models.Pool
	err := r.db.WithContext(ctx).Where("pool_id = ?", poolID).First(&pool).Error
	if err != nil {
		return nil, err
	}
	return &pool, nil
}

// ListPools retrieves pool snapshots ordered by id, newest first.
func (r *Repository) ListPools(ctx context.Context, limit, offset int) ([]*models.Pool, int64, error) {
	var pools []*models.Pool
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Pool{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Order("pool_id DESC").
		Limit(limit).
		Offset(offset).
		Find(&pools).Error
	if err != nil {
		return nil, 0, err
	}

	return pools, total, nil
}

// ListUnresolvedPastDeadline retrieves pools whose deadline has passed but
// that nobody has resolved yet.
func (r *Repository) ListUnresolvedPastDeadline(ctx context.Context, now time.Time, limit int) ([]*models.Pool, error) {
	var pools []*models.Pool
	err := r.db.WithContext(ctx).
		Where("resolved = ? AND end_time <= ?", false, now).
		Order("end_time ASC").
		Limit(limit).
		Find(&pools).Error
	if err != nil {
		return nil, err
	}
	return pools, nil
}

// AllPools retrieves every pool snapshot, used for engine rehydration.
func (r *Repository) AllPools(ctx context.Context) ([]*models.Pool, error) {
	var pools []*models.Pool
	if err := r.db.WithContext(ctx).Order("pool_id ASC").Find(&pools).Error; err != nil {
		return nil, err
	}
	return pools, nil
}

// SaveBet inserts or updates a participant's bet row.
func (r *Repository) SaveBet(ctx context.Context, bet *models.PoolBet) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "pool_id"}, {Name: "wallet_address"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"claimed", "payout_amount", "claimed_at",
		}),
	}).Create(bet).Error
}

// GetBet retrieves a participant's bet within a pool.
func (r *Repository) GetBet(ctx context.Context, poolID int64, wallet string) (*models.PoolBet, error) {
	var bet models.PoolBet
	err := r.db.WithContext(ctx).
		Where("pool_id = ? AND wallet_address = ?", poolID, wallet).
		First(&bet).Error
	if err != nil {
		return nil, err
	}
	return &bet, nil
}

// ListBetsByPool retrieves all bets recorded in a pool.
func (r *Repository) ListBetsByPool(ctx context.Context, poolID int64) ([]*models.PoolBet, error) {
	var bets []*models.PoolBet
	err := r.db.WithContext(ctx).
		Where("pool_id = ?", poolID).
		Order("created_at ASC").
		Find(&bets).Error
	if err != nil {
		return nil, err
	}
	return bets, nil
}

// ListBetsByWallet retrieves a participant's bets across pools.
func (r *Repository) ListBetsByWallet(ctx context.Context, wallet string, limit, offset int) ([]*models.PoolBet, error) {
	var bets []*models.PoolBet
	err := r.db.WithContext(ctx).
		Where("wallet_address = ?", wallet).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&bets).Error
	if err != nil {
		return nil, err
	}
	return bets, nil
}

// AppendEvent appends a row to the event journal.
func (r *Repository) AppendEvent(ctx context.Context, event *models.PoolEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// ListEventsByPool retrieves the journal for one pool, oldest first.
func (r *Repository) ListEventsByPool(ctx context.Context, poolID int64, limit int) ([]*models.PoolEvent, error) {
	var events []*models.PoolEvent
	err := r.db.WithContext(ctx).
		Where("pool_id = ?", poolID).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// GetPlatformState retrieves the fee counters row, creating it with defaults
// on first use.
func (r *Repository) GetPlatformState(ctx context.Context, defaultFeeBps int64) (*models.PlatformState, error) {
	var state models.PlatformState
	err := r.db.WithContext(ctx).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		state = models.PlatformState{ID: 1, FeeBasisPoints: defaultFeeBps}
		if err := r.db.WithContext(ctx).Create(&state).Error; err != nil {
			return nil, err
		}
		return &state, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// SavePlatformState persists the fee counters.
func (r *Repository) SavePlatformState(ctx context.Context, state *models.PlatformState) error {
	return r.db.WithContext(ctx).Save(state).Error
}

// CreateUser creates a new user
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetUserByWallet retrieves a user by wallet address
func (r *Repository) GetUserByWallet(ctx context.Context, wallet string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("wallet_address = ?", wallet).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user by id
func (r *Repository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetUserAdmin flips the admin flag on a user.
func (r *Repository) SetUserAdmin(ctx context.Context, wallet string, isAdmin bool) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("wallet_address = ?", wallet).
		Update("is_admin", isAdmin).Error
}

// CountPools returns total and resolved pool counts.
func (r *Repository) CountPools(ctx context.Context) (total, resolved int64, err error) {
	if err = r.db.WithContext(ctx).Model(&models.Pool{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err = r.db.WithContext(ctx).Model(&models.Pool{}).Where("resolved = ?", true).Count(&resolved).Error; err != nil {
		return 0, 0, err
	}
	return total, resolved, nil
}

// CountUsers returns the number of registered users.
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}
