package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/film-bet/blockend/internal/auth"
	"github.com/film-bet/blockend/internal/engine"
	"github.com/film-bet/blockend/internal/models"
	"github.com/film-bet/blockend/internal/services"

	"github.com/gin-gonic/gin"
)

type PoolHandler struct {
	poolService *services.PoolService
}

func NewPoolHandler(poolService *services.PoolService) *PoolHandler {
	return &PoolHandler{
		poolService: poolService,
	}
}

// statusForEngineError maps settlement engine errors onto HTTP statuses.
func statusForEngineError(err error) int {
	switch {
	case errors.Is(err, engine.ErrPoolNotFound), errors.Is(err, engine.ErrNoBetFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, engine.ErrInvalidDeadline),
		errors.Is(err, engine.ErrFeeTooHigh),
		errors.Is(err, engine.ErrStakeOverflow):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrBettingClosed),
		errors.Is(err, engine.ErrDuplicateBet),
		errors.Is(err, engine.ErrAlreadyResolved),
		errors.Is(err, engine.ErrBettingStillActive),
		errors.Is(err, engine.ErrNotResolved),
		errors.Is(err, engine.ErrAlreadyClaimed),
		errors.Is(err, engine.ErrBetLost):
		return http.StatusConflict
	default:
		return http.StatusBadGateway // delegated transfer failure
	}
}

// CreatePool opens a new wagering pool
// POST /api/pools
func (h *PoolHandler) CreatePool(c *gin.Context) {
	_, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req models.CreatePoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pool, err := h.poolService.CreatePool(c.Request.Context(), &req)
	if err != nil {
		c.JSON(statusForEngineError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, pool)
}

// GetPool retrieves a pool summary by id
// GET /api/pools/:id
func (h *PoolHandler) GetPool(c *gin.Context) {
	poolID, err := parsePoolID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}

	pool, err := h.poolService.GetPool(poolID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "pool not found"})
		return
	}

	c.JSON(http.StatusOK, pool)
}

// ListPools retrieves pool summaries with pagination
// GET /api/pools
func (h *PoolHandler) ListPools(c *gin.Context) {
	limit := 20
	offset := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	pools, total, err := h.poolService.ListPools(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list pools"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pools": pools,
		"total": total,
	})
}

// PlaceBet stakes tokens on one side of a pool
// POST /api/pools/:id/bets
func (h *PoolHandler) PlaceBet(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	poolID, err := parsePoolID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}

	var req models.PlaceBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Amount < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must not be negative"})
		return
	}

	if err := h.poolService.PlaceBet(c.Request.Context(), wallet, poolID, *req.Choice, uint64(req.Amount)); err != nil {
		c.JSON(statusForEngineError(err), gin.H{"error": err.Error()})
		return
	}

	bet, err := h.poolService.GetBet(poolID, wallet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read bet"})
		return
	}

	c.JSON(http.StatusCreated, bet)
}

// GetMyBet retrieves the caller's bet within a pool
// GET /api/pools/:id/bets/me
func (h *PoolHandler) GetMyBet(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	poolID, err := parsePoolID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}

	bet, err := h.poolService.GetBet(poolID, wallet)
	if err != nil {
		c.JSON(statusForEngineError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, bet)
}

// GetParticipantBet retrieves a given participant's bet within a pool
// GET /api/pools/:id/bets/:wallet
func (h *PoolHandler) GetParticipantBet(c *gin.Context) {
	poolID, err := parsePoolID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}

	bet, err := h.poolService.GetBet(poolID, c.Param("wallet"))
	if err != nil {
		c.JSON(statusForEngineError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, bet)
}

// ResolvePool fixes a pool's outcome once its deadline has passed
// POST /api/pools/:id/resolve
func (h *PoolHandler) ResolvePool(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	poolID, err := parsePoolID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}

	var req models.ResolvePoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.poolService.ResolvePool(c.Request.Context(), wallet, poolID, *req.OutcomeIsYes); err != nil {
		c.JSON(statusForEngineError(err), gin.H{"error": err.Error()})
		return
	}

	pool, err := h.poolService.GetPool(poolID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read pool"})
		return
	}

	c.JSON(http.StatusOK, pool)
}

// ClaimWinnings pays out the caller's winning bet
// POST /api/pools/:id/claim
func (h *PoolHandler) ClaimWinnings(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	poolID, err := parsePoolID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}

	payout, err := h.poolService.ClaimWinnings(c.Request.Context(), wallet, poolID)
	if err != nil {
		c.JSON(statusForEngineError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pool_id": poolID,
		"payout":  payout,
	})
}

// GetPoolEvents retrieves the journaled notifications for a pool
// GET /api/pools/:id/events
func (h *PoolHandler) GetPoolEvents(c *gin.Context) {
	poolID, err := parsePoolID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}

	events, err := h.poolService.GetPoolEvents(c.Request.Context(), poolID, 200)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"total":  len(events),
	})
}

// GetFeeInfo returns the current fee rate and cumulative fees collected
// GET /api/fees
func (h *PoolHandler) GetFeeInfo(c *gin.Context) {
	bps, collected := h.poolService.FeeInfo()
	c.JSON(http.StatusOK, gin.H{
		"fee_basis_points":     bps,
		"total_fees_collected": collected,
	})
}

// GetLedgerInfo returns the token ledger and custody account in use
// GET /api/ledger
func (h *PoolHandler) GetLedgerInfo(c *gin.Context) {
	info, err := h.poolService.GetLedgerInfo(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to read ledger"})
		return
	}

	c.JSON(http.StatusOK, info)
}

func parsePoolID(c *gin.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}
