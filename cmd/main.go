package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/film-bet/blockend/internal/auth"
	"github.com/film-bet/blockend/internal/config"
	"github.com/film-bet/blockend/internal/database"
	"github.com/film-bet/blockend/internal/engine"
	"github.com/film-bet/blockend/internal/handlers"
	"github.com/film-bet/blockend/internal/jobs"
	"github.com/film-bet/blockend/internal/ledger"
	"github.com/film-bet/blockend/internal/repository"
	"github.com/film-bet/blockend/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repository
	repo := repository.NewRepository(database.GetDB())

	// Initialize the token ledger collaborator
	var tokenLedger ledger.TokenLedger
	var custodyAccount string
	switch cfg.Solana.LedgerBackend {
	case "solana":
		spl, err := ledger.NewSPLLedger(
			cfg.Solana.Network,
			cfg.Solana.TokenMintAddress,
			cfg.Solana.CustodyWalletPrivateKey,
		)
		if err != nil {
			log.Fatalf("Failed to initialize SPL ledger: %v", err)
		}
		tokenLedger = spl
		custodyAccount = spl.CustodyAccount()
	default:
		mem := ledger.NewMemoryLedger("FILM", "custody")
		tokenLedger = mem
		custodyAccount = "custody"
		log.Println("Using in-memory token ledger (development mode)")
	}

	// Initialize services
	authService := services.NewAuthService(repo)
	adminService := services.NewAdminService(repo)

	// Resolver policy: the reference behavior lets any caller resolve a
	// pool once its deadline passed; strict deployments require an admin.
	resolverPolicy := engine.OpenResolverPolicy
	if cfg.Platform.ResolverPolicy == "admin" {
		resolverPolicy = engine.AdminResolverPolicy(adminService.IsAdminWallet)
		log.Println("Resolver policy: admin only")
	}

	// Initialize the settlement engine
	eng, err := engine.New(engine.Config{
		Ledger:         tokenLedger,
		CustodyAccount: custodyAccount,
		IsAdmin:        adminService.IsAdminWallet,
		ResolverPolicy: resolverPolicy,
		Notifier:       services.NewJournalNotifier(repo),
		FeeBasisPoints: cfg.Platform.FeeBasisPoints,
	})
	if err != nil {
		log.Fatalf("Failed to initialize settlement engine: %v", err)
	}

	// Initialize pool service and replay persisted state
	poolService := services.NewPoolService(eng, repo)
	if err := poolService.Rehydrate(context.Background(), cfg.Platform.FeeBasisPoints); err != nil {
		log.Fatalf("Failed to rehydrate settlement engine: %v", err)
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	poolHandler := handlers.NewPoolHandler(poolService)
	adminHandler := handlers.NewAdminHandler(adminService, poolService)

	// Start settlement watcher job
	watcher := jobs.NewSettlementWatcher(repo, time.Minute)
	go watcher.Start()
	defer watcher.Stop()

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/wallet", authHandler.WalletLogin)
		authRoutes.POST("/logout", authHandler.Logout)
	}

	// Authenticated /auth/me route
	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware())
	{
		authProtected.GET("/me", authHandler.GetMe)
	}

	// Public pool routes
	router.GET("/api/pools", poolHandler.ListPools)
	router.GET("/api/pools/:id", poolHandler.GetPool)
	router.GET("/api/pools/:id/events", poolHandler.GetPoolEvents)
	router.GET("/api/pools/:id/bets/:wallet", poolHandler.GetParticipantBet)
	router.GET("/api/fees", poolHandler.GetFeeInfo)
	router.GET("/api/ledger", poolHandler.GetLedgerInfo)

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		api.POST("/pools", poolHandler.CreatePool)
		api.POST("/pools/:id/bets", poolHandler.PlaceBet)
		api.GET("/pools/:id/bets/me", poolHandler.GetMyBet)
		api.POST("/pools/:id/resolve", poolHandler.ResolvePool)
		api.POST("/pools/:id/claim", poolHandler.ClaimWinnings)
	}

	// Admin routes (protected + admin only)
	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware())
	admin.Use(adminHandler.AdminMiddleware())
	{
		admin.GET("/dashboard", adminHandler.GetDashboard)
		admin.PUT("/fee", adminHandler.SetPlatformFee)
		admin.POST("/fees/withdraw", adminHandler.WithdrawFees)
		admin.POST("/users/promote", adminHandler.PromoteToAdmin)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
