package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"casedrop-backend/internal/config"
	"casedrop-backend/internal/engine"
	"casedrop-backend/internal/fair"
	"casedrop-backend/internal/handlers"
	"casedrop-backend/internal/ledger"
	"casedrop-backend/internal/middleware"
	"casedrop-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisService.Close()

	if cfg.Env != "production" {
		if err := services.SeedDemoCatalog(context.Background(), redisService); err != nil {
			log.Fatalf("Failed to seed demo catalog: %v", err)
		}
	}

	generator, err := fair.NewGenerator(cfg.ServerSeed)
	if err != nil {
		log.Fatalf("Failed to create fair generator: %v", err)
	}

	// Periodic rotation discloses old seeds so past draws become
	// verifiable without an operator action.
	go func() {
		ticker := time.NewTicker(cfg.SeedRotateInterval)
		defer ticker.Stop()

		for range ticker.C {
			revealed, newHash, err := generator.Rotate()
			if err != nil {
				logger.Error("seed rotation failed", "error", err)
				continue
			}
			logger.Info("rotated server seed",
				"revealed_seed", revealed, "new_hash", newHash)
		}
	}()

	jwtService := services.NewJWTService(cfg)
	catalog := services.NewCatalogCache(redisService, cfg.CatalogCacheTTL)
	coordinator := ledger.NewCoordinator(redisService, logger)
	bonusLedger := ledger.NewBonusLedger(redisService, cfg.DailyBonus, logger)

	wsHandler := handlers.NewWebSocketHandler()
	eng := engine.NewEngine(catalog, redisService, coordinator, generator, wsHandler, logger)

	authHandler := handlers.NewAuthHandler(jwtService, cfg.Env != "production")
	caseHandler := handlers.NewCaseHandler(eng, redisService)
	walletHandler := handlers.NewWalletHandler(redisService)
	bonusHandler := handlers.NewBonusHandler(bonusLedger)
	fairHandler := handlers.NewFairHandler(generator, redisService)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/auth/token", authHandler.IssueDevToken)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	protected.Use(middleware.RateLimitMiddleware(redisService))
	{
		protected.GET("/ws", wsHandler.HandleWebSocket)

		cases := protected.Group("/cases")
		{
			cases.GET("", caseHandler.ListCases)
			cases.POST("/open", caseHandler.OpenCase)
		}

		wallet := protected.Group("/wallet")
		{
			wallet.GET("/balance", walletHandler.GetBalance)
			wallet.GET("/history", walletHandler.GetHistory)
		}

		protected.POST("/bonus/claim", bonusHandler.Claim)

		fairGroup := protected.Group("/fair")
		{
			fairGroup.GET("/verification", fairHandler.GetVerificationData)
			fairGroup.POST("/verify", fairHandler.Verify)
			fairGroup.POST("/rotate", fairHandler.Rotate)
		}
	}

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	logger.Info("server starting", "port", port, "server_seed_hash", generator.ServerSeedHash())
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
