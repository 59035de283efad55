package handlers

import (
	"net/http"

	"github.com/film-bet/blockend/internal/auth"
	"github.com/film-bet/blockend/internal/services"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	adminService *services.AdminService
	poolService  *services.PoolService
}

func NewAdminHandler(adminService *services.AdminService, poolService *services.PoolService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		poolService:  poolService,
	}
}

// AdminMiddleware checks if the authenticated wallet belongs to an admin
func (h *AdminHandler) AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		wallet, exists := auth.GetWalletAddress(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		if !h.adminService.IsAdminWallet(wallet) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not an admin"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// SetPlatformFee updates the platform fee rate
// PUT /api/admin/fee
func (h *AdminHandler) SetPlatformFee(c *gin.Context) {
	wallet, _ := auth.GetWalletAddress(c)

	var req struct {
		BasisPoints *uint64 `json:"basis_points" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.poolService.SetPlatformFee(c.Request.Context(), wallet, *req.BasisPoints); err != nil {
		c.JSON(statusForEngineError(err), gin.H{"error": err.Error()})
		return
	}

	bps, collected := h.poolService.FeeInfo()
	c.JSON(http.StatusOK, gin.H{
		"fee_basis_points":     bps,
		"total_fees_collected": collected,
	})
}

// WithdrawFees transfers the collected fee balance to a destination wallet
// POST /api/admin/fees/withdraw
func (h *AdminHandler) WithdrawFees(c *gin.Context) {
	wallet, _ := auth.GetWalletAddress(c)

	var req struct {
		Destination string `json:"destination" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := h.poolService.WithdrawFees(c.Request.Context(), wallet, req.Destination)
	if err != nil {
		c.JSON(statusForEngineError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"withdrawn":   amount,
		"destination": req.Destination,
	})
}

// GetDashboard returns platform statistics
// GET /api/admin/dashboard
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	stats, err := h.adminService.GetPlatformStats(c.Request.Context(), h.poolService)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// PromoteToAdmin flips the admin flag on a user
// POST /api/admin/users/promote
func (h *AdminHandler) PromoteToAdmin(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.adminService.PromoteToAdmin(c.Request.Context(), req.WalletAddress); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user promoted"})
}
