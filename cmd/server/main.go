package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/algo-insight/code-mentor/internal/analysis"
	"github.com/algo-insight/code-mentor/internal/cache"
	"github.com/algo-insight/code-mentor/internal/config"
	"github.com/algo-insight/code-mentor/internal/errors"
	"github.com/algo-insight/code-mentor/internal/monitoring"
	"github.com/algo-insight/code-mentor/internal/pipeline"
	"github.com/algo-insight/code-mentor/internal/ratelimit"
	"github.com/algo-insight/code-mentor/internal/security"
	"github.com/algo-insight/code-mentor/internal/store"
	"github.com/algo-insight/code-mentor/internal/suggest"
)

// app bundles the wired services behind the HTTP surface.
type app struct {
	cfg       *config.Config
	db        *store.DB
	repo      *store.Repository
	orch      *pipeline.Orchestrator
	coord     *pipeline.Coordinator
	metrics   *monitoring.Metrics
	logger    *monitoring.Logger
	cache     *cache.Cache
	limiter   *ratelimit.RateLimiter
	security  *security.SecurityMiddleware
	startedAt time.Time
}

func newApp(cfg *config.Config) (*app, error) {
	db, err := store.NewDB(cfg.Server.DataDir)
	if err != nil {
		return nil, err
	}
	repo := store.NewRepository(db)

	metrics := monitoring.NewMetrics()
	logger := monitoring.NewLogger()

	var llm suggest.LLMClient
	if cfg.LLM.APIKey != "" {
		llm = suggest.NewOpenAIClient(cfg.LLM.APIKey, cfg.LLM.Model)
		slog.Info("LLM suggestion tier enabled", "model", cfg.LLM.Model)
	} else {
		slog.Warn("OPENAI_API_KEY not set, suggestions will use the template tier only")
	}
	generator := suggest.NewGenerator(llm, cfg.LLMTimeout())

	extractor := analysis.NewExtractor()
	orch := pipeline.NewOrchestrator(extractor, repo, generator, metrics, pipeline.Options{
		MaxCodeLength:   cfg.Analysis.MaxCodeLength,
		DefaultLanguage: cfg.Analysis.DefaultLanguage,
		Languages:       cfg.Analysis.Languages,
	})

	if cfg.Analysis.SeedOnStart {
		model, err := analysis.TrainSeedModel(extractor, analysis.TrainConfig{
			MinExamples: cfg.Analysis.MinRetrainExamples,
			TieEpsilon:  cfg.Analysis.TieEpsilon,
		})
		if err != nil {
			return nil, err
		}
		orch.SetModel(model)
		slog.Info("Seed model trained", "version", model.Version, "examples", model.ExampleCount())
	}

	coord := pipeline.NewCoordinator(orch, repo, extractor, metrics, pipeline.RetrainConfig{
		MinExamples:      cfg.Analysis.MinRetrainExamples,
		ConfirmThreshold: cfg.Analysis.ConfirmThreshold,
		TieEpsilon:       cfg.Analysis.TieEpsilon,
		IncludeSeed:      true,
	})

	redisClient, err := ratelimit.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		slog.Warn("Redis unavailable, continuing with in-memory rate limiting", "error", err)
	}
	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.Config{
		RequestsPerMin:  cfg.RateLimit.RequestsPerMin,
		BurstMultiplier: cfg.RateLimit.Burst,
	}, metrics)

	secConfig := security.DefaultSecurityConfig()
	secConfig.MaxCodeLength = cfg.Analysis.MaxCodeLength
	secConfig.RequestTimeout = cfg.RequestTimeout()

	return &app{
		cfg:       cfg,
		db:        db,
		repo:      repo,
		orch:      orch,
		coord:     coord,
		metrics:   metrics,
		logger:    logger,
		cache:     cache.NewCache(30 * time.Second),
		limiter:   limiter,
		security:  security.NewSecurityMiddleware(secConfig),
		startedAt: time.Now(),
	}, nil
}

func (a *app) close() {
	errors.SafeClose(a.db, "submission store")
}

func (a *app) setupRouter() *gin.Engine {
	r := gin.New()

	r.Use(monitoring.RequestIDMiddleware())
	r.Use(monitoring.MonitoringMiddleware(a.metrics, a.logger))
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Admin-Token"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(a.security.SecurityHeaders)
	r.Use(a.security.RequestTimeout)
	r.Use(a.security.ValidateContentType)
	r.Use(a.limiter.IPRateLimitMiddleware())
	r.Use(a.cache.Middleware(a.metrics, "/stats"))

	r.POST("/analyze", a.security.ValidateAnalyzeRequest, a.handleAnalyze)
	r.POST("/retrain", a.limiter.EndpointRateLimitMiddleware("retrain", 5), a.handleRetrain)
	r.GET("/stats", a.handleStats)
	r.GET("/health", a.handleHealth)

	r.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, a.metrics.GetStats())
	})
	r.GET("/cache/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, a.cache.Stats())
	})
	r.GET("/ratelimit/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, a.limiter.GetStats())
	})
	r.GET("/pools/database", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"pool":  "database",
			"stats": a.db.PoolStats(),
		})
	})

	// Swagger documentation routes
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	a, err := newApp(cfg)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer a.close()

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: a.setupRouter(),
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}
