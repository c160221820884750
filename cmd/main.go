package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"onboarding-copilot/internal/ai"
	"onboarding-copilot/internal/config"
	"onboarding-copilot/internal/corpus"
	"onboarding-copilot/internal/logger"
	"onboarding-copilot/internal/queue"
	"onboarding-copilot/internal/telemetry"
	"onboarding-copilot/middleware"
	"onboarding-copilot/routes"
	"onboarding-copilot/services"
	"onboarding-copilot/utils"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logger.InitLogger(cfg)
	logger.Info("Starting onboarding copilot API", "port", cfg.Port)

	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := telemetry.InitTracer("onboarding-copilot", cfg.OTLPEndpoint)
		if err != nil {
			logger.Warn("Tracing disabled", "error", err)
		} else {
			defer shutdownTracer()
		}
		if _, err := telemetry.InitMetrics(); err != nil {
			logger.Warn("Metrics disabled", "error", err)
		}
	}

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		logger.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()
	db := mongoClient.Database(cfg.DBName)

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, running without cache mirror and rate limiting", "error", err)
		rdb = nil
	}

	geminiClient, err := ai.NewClient(cfg)
	if err != nil {
		logger.Error("Failed to initialize Gemini client", "error", err)
		os.Exit(1)
	}
	defer geminiClient.Close()

	embedder := ai.NewEmbeddingService(geminiClient, cfg.EmbedCacheSize)

	store := corpus.NewStore(db, cfg.VectorDimensions)
	startupCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	if err := store.Load(startupCtx); err != nil {
		logger.Error("Failed to load corpus", "error", err)
		os.Exit(1)
	}

	keywordIdx := services.NewKeywordIndex()
	keywordIdx.Add(store.Chunks())
	vectorIdx := services.NewVectorIndex()
	vectorIdx.Add(store.Chunks())

	routerModel, err := services.LoadRouterModel(cfg.RouterModelPath)
	if err != nil {
		logger.Error("Failed to load router model", "error", err)
		os.Exit(1)
	}
	router := services.NewRouter(routerModel, cfg.OverrideThreshold, cfg.EscalationFloor, cfg.MultiIntentEnabled)

	cache := services.NewSemanticCache(rdb, embedder, cfg.CacheSimilarityThreshold,
		time.Duration(cfg.CacheTTLHours)*time.Hour, cfg.CacheMaxEntries)
	if err := cache.WarmUp(startupCtx); err != nil {
		logger.Warn("Cache warm-up failed", "error", err)
	}

	generator := services.NewGenerator(geminiClient, cfg.ContextBudget)
	pipeline := services.NewPipeline(
		services.NewQueryProcessor(), embedder, cache, router, keywordIdx, vectorIdx, generator,
		services.PipelineConfig{
			TopK:                   cfg.TopKRetrieval,
			DenseWeight:            cfg.DenseWeight,
			SparseWeight:           cfg.SparseWeight,
			MinGroundedDocs:        cfg.MinGroundedDocs,
			MinRetrievalConfidence: cfg.MinRetrievalConfidence,
			UpstreamRetries:        cfg.UpstreamRetries,
		})

	sweeper := services.NewSweeper(cache)
	if err := sweeper.Start(); err != nil {
		logger.Warn("Cache sweeper failed to start", "error", err)
	}
	defer sweeper.Stop()

	var enqueuer *queue.Enqueuer
	if rdb != nil {
		enqueuer = queue.NewEnqueuer(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
		defer enqueuer.Close()
	}

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing("onboarding-copilot"))
	engine.Use(middleware.TraceAttributes())
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.RateLimit(rdb, cfg.RateLimitReqs, time.Duration(cfg.RateLimitWindow)*time.Second))
	engine.Use(middleware.Audit(enqueuer))

	engine.NoRoute(func(c *gin.Context) {
		utils.RespondWithNotFound(c, "route not found")
	})

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"chunks": store.Count(),
		})
	})

	messages := corpus.NewMessageStore(db)
	routes.SetupChatRoutes(engine, routes.ChatDeps{
		Pipeline:       pipeline,
		Messages:       messages,
		Enqueuer:       enqueuer,
		RequestTimeout: time.Duration(cfg.RequestTimeoutSecs) * time.Second,
	})
	routes.SetupAdminRoutes(engine, routes.AdminDeps{
		Cache:     cache,
		Corpus:    store,
		Messages:  messages,
		Embedder:  &routes.EmbeddingStats{StatsFn: embedder.Stats},
		AuditColl: db.Collection("audit_events"),
		JWTSecret: cfg.AdminJWTSecret,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: engine,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()
	logger.Info("Server listening", "addr", srv.Addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
	logger.Info("Server stopped")
}
