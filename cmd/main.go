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

	"buzz-backend/internal/auth"
	"buzz-backend/internal/blockchain"
	"buzz-backend/internal/config"
	"buzz-backend/internal/database"
	"buzz-backend/internal/handlers"
	"buzz-backend/internal/identity"
	"buzz-backend/internal/jobs"
	"buzz-backend/internal/processor"
	"buzz-backend/internal/ratelimit"
	"buzz-backend/internal/services"
	"buzz-backend/internal/twitterapi"
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

	// Initialize chain adapter (optional; withdraw requests need it)
	var ethClient *blockchain.EthClient
	if cfg.Chain.RPCURL != "" {
		ethClient, err = blockchain.NewEthClient(
			cfg.Chain.RPCURL,
			cfg.Chain.ChainID,
			cfg.Chain.TokenAddress,
			cfg.Chain.SignerPrivateKey,
		)
		if err != nil {
			log.Fatalf("Failed to initialize chain client: %v", err)
		}
	} else {
		log.Println("CHAIN_RPC_URL not set, on-chain withdrawals disabled")
	}

	// Initialize external clients
	identityVerifier := identity.NewVerifier(cfg.Identity.VerifyURL, cfg.Identity.AppSecret)
	tweetClient := twitterapi.NewClient(cfg.TweetScout.APIKey, cfg.TweetScout.BaseURL)
	processorClient := processor.NewClient(cfg.Processor.URL, cfg.Processor.APIKey)

	// Initialize services
	db := database.GetDB()
	referralService := services.NewReferralService(db)
	authService := services.NewAuthService(db, identityVerifier, referralService, cfg.App.InitialUserBalance)
	userService := services.NewUserService(db)
	buzzService := services.NewBuzzService(db, tweetClient)
	replyService := services.NewReplyService(db)
	tokenService := services.NewTokenService(db, ethClient, cfg.Chain.TokenAddress, cfg.Faucet.Amount)
	kolService := services.NewKolService(db, tweetClient)
	apiKeyService := services.NewApiKeyService(db)

	var chainClient services.ChainClient
	if ethClient != nil {
		chainClient = ethClient
	}
	withdrawService := services.NewWithdrawService(db, chainClient)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, userService)
	userHandler := handlers.NewUserHandler(userService)
	buzzHandler := handlers.NewBuzzHandler(buzzService, replyService)
	replyHandler := handlers.NewReplyHandler(replyService)
	withdrawHandler := handlers.NewWithdrawHandler(withdrawService)
	tokenHandler := handlers.NewTokenHandler(tokenService, ratelimit.PerMinute(cfg.Faucet.RequestsPerMinute))
	kolHandler := handlers.NewKolHandler(kolService)
	referralHandler := handlers.NewReferralHandler(referralService)
	apiKeyHandler := handlers.NewApiKeyHandler(apiKeyService)
	extHandler := handlers.NewExtHandler(apiKeyService, replyService)

	// Start reply attempt poller
	replyPoller := jobs.NewReplyPoller(replyService, processorClient, cfg.App.ReplyPollInterval)
	go replyPoller.Start()

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
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With", "X-Api-Key"},
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
		authRoutes.POST("/login", authHandler.Login)
	}

	// Authenticated /auth/me route
	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware())
	{
		authProtected.GET("/me", authHandler.GetMe)
	}

	// Public routes
	router.GET("/api/buzzes", buzzHandler.GetBuzzes)
	router.GET("/api/buzzes/:id", buzzHandler.GetBuzzByID)
	router.GET("/api/kols", kolHandler.GetKols)

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		// User endpoints
		userRoutes := api.Group("/user")
		{
			userRoutes.GET("/profile", userHandler.GetProfile)
			userRoutes.PUT("/profile", userHandler.UpdateProfile)
			userRoutes.POST("/wallet", userHandler.BindWallet)
			userRoutes.GET("/transactions", userHandler.GetTransactions)
		}

		// Buzz endpoints
		api.POST("/buzzes", buzzHandler.CreateBuzz)
		api.POST("/buzzes/:id/settle", buzzHandler.SettleBuzz)

		// Reply endpoints
		api.POST("/buzzes/:id/replies", replyHandler.CreateReply)
		api.GET("/buzzes/:id/replies", replyHandler.GetReplies)
		api.POST("/replies/:id/reject", replyHandler.RejectReply)

		// Token and balance endpoints
		api.GET("/balances", tokenHandler.GetBalances)
		api.GET("/tokens", tokenHandler.GetTokens)
		api.POST("/faucet", tokenHandler.Faucet)

		// Withdrawal endpoints
		api.POST("/withdraw", withdrawHandler.Withdraw)
		api.POST("/withdraw/request", withdrawHandler.CreateRequest)
		api.GET("/withdraw/on-going", withdrawHandler.GetOnGoing)
		api.POST("/withdraw/continue", withdrawHandler.Continue)
		api.POST("/withdraw/discard", withdrawHandler.Discard)

		// KOL endpoints
		api.POST("/kols", kolHandler.SubmitKol)
		api.POST("/kols/:id/refresh", kolHandler.RefreshKol)
		api.POST("/kols/:id/confirm", kolHandler.ConfirmKol)

		// Referral endpoints
		api.GET("/referral/code", referralHandler.GetCode)
		api.POST("/referral/apply", referralHandler.ApplyCode)
		api.GET("/referral/referrals", referralHandler.GetReferrals)

		// API key endpoints
		api.POST("/keys", apiKeyHandler.CreateKey)
		api.GET("/keys", apiKeyHandler.GetKeys)
		api.DELETE("/keys/:id", apiKeyHandler.RevokeKey)
	}

	// External service routes (API key protected)
	ext := router.Group("/ext")
	ext.Use(extHandler.ApiKeyMiddleware())
	{
		ext.POST("/reply-attempts", extHandler.CreateReplyAttempt)
		ext.POST("/reply-attempts/:id/complete", extHandler.CompleteReplyAttempt)
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

	replyPoller.Stop()

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
