package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/roadrank/roadrank/internal/cache"
	"github.com/roadrank/roadrank/internal/config"
	"github.com/roadrank/roadrank/internal/database"
	apperrors "github.com/roadrank/roadrank/internal/errors"
	"github.com/roadrank/roadrank/internal/monitoring"
	"github.com/roadrank/roadrank/internal/ratelimit"
	"github.com/roadrank/roadrank/internal/scoring"
	"github.com/roadrank/roadrank/internal/security"
	"github.com/roadrank/roadrank/internal/tasks"
	"github.com/roadrank/roadrank/internal/types"
)

// application bundles the wired service components so the router and its
// handlers can be exercised directly from tests.
type application struct {
	cfg      *config.Config
	logger   *monitoring.Logger
	metrics  *monitoring.Metrics
	db       *database.DB
	repo     *database.Repository
	pipeline *scoring.Pipeline
	engine   *tasks.Engine
	limiter  *ratelimit.RateLimiter
	cache    *cache.Cache
	security *security.SecurityMiddleware
}

func newRouter(app *application) *gin.Engine {
	r := gin.New()

	// Monitoring first so every request is counted, including rejected ones.
	r.Use(monitoring.MonitoringMiddleware(app.metrics, app.logger))
	r.Use(monitoring.SecurityMonitoringMiddleware(app.logger))

	r.Use(apperrors.ErrorHandler())
	r.Use(apperrors.RecoveryHandler())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = app.security.Config().AllowedOrigins
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	r.Use(app.security.SecurityHeaders)
	r.Use(app.security.RequestTimeout)
	r.Use(app.security.ValidateContentType)
	r.Use(app.limiter.IPRateLimitMiddleware())

	r.Use(app.cache.Middleware(app.metrics))

	r.GET("/health", app.handleHealth)
	r.POST("/predict", app.handlePredict)
	r.POST("/complete-task", app.handleCompleteTask)
	r.GET("/driver/:id", app.handleGetDriver)
	r.GET("/driver/:id/tasks", app.handleDriverTasks)
	r.GET("/drivers", app.handleListDrivers)

	r.GET("/metrics", gin.WrapH(app.metrics.Handler()))
	r.GET("/cache/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, app.cache.Stats())
	})
	r.GET("/pools/database", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"pool":  "database",
			"stats": app.db.GetPoolStats(),
		})
	})
	r.GET("/pools/ratelimit", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"pool":  "ratelimit",
			"stats": app.limiter.GetStats(),
		})
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// respondError records the failure and aborts; the error middleware logs it
// and writes the response.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func (app *application) handleHealth(c *gin.Context) {
	status := "ok"
	code := http.StatusOK

	if err := app.db.Ping(); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":        status,
		"model_version": app.pipeline.ModelVersion(),
		"timestamp":     time.Now().Format(time.RFC3339),
	})
}

func (app *application) handlePredict(c *gin.Context) {
	var req types.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	if err := app.security.ValidateDriverID(req.DriverID); err != nil {
		respondError(c, apperrors.NewValidationError(err.Error()))
		return
	}

	start := time.Now()
	result, vector, err := app.pipeline.Score(c.Request.Context(), req.Profile(), nil)
	if err != nil {
		respondError(c, err)
		return
	}
	duration := time.Since(start)

	app.metrics.RecordPrediction(result.Category, duration)
	app.logger.ScoreLogger(req.DriverID, result.HDI, result.Category, duration, false)

	// Append the scored snapshot so the driver becomes visible to the task
	// endpoints. A failed append never fails the prediction itself.
	stored := req.Profile()
	stored.Category = result.Category
	rec := database.NewTripRecord(stored, result.RawScore, result.HDI, result.Category, result.Recommendation)
	if err := app.repo.AppendTrip(c.Request.Context(), rec); err != nil {
		app.metrics.IncrementStoreWriteFailure()
		slog.Error("Failed to append scored snapshot", "driver_id", req.DriverID, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"driver_id":                req.DriverID,
		"raw_score":                result.RawScore,
		"safe_driving_index":       result.HDI,
		"category":                 result.Category,
		"recommendation":           result.Recommendation,
		"detailed_recommendations": app.pipeline.Detailed(vector, result),
		"model_version":            app.pipeline.ModelVersion(),
	})
}

func (app *application) handleCompleteTask(c *gin.Context) {
	var req types.CompleteTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	if err := app.security.ValidateDriverID(req.DriverID); err != nil {
		respondError(c, apperrors.NewValidationError(err.Error()))
		return
	}

	if !app.limiter.CheckDriverCompletion(c, req.DriverID) {
		return
	}

	result, err := app.engine.CompleteTask(c.Request.Context(), req.DriverID, req.TaskID)
	if err != nil {
		if apperrors.ToAppError(err).Category == apperrors.CategoryStorage {
			app.metrics.IncrementStoreWriteFailure()
		}
		respondError(c, err)
		return
	}

	app.metrics.RecordCompletion(result.TaskID)
	app.logger.CompletionLogger(result.DriverID, result.TaskID, result.PreviousIndex, result.NewIndex, result.PointsEarned)

	c.JSON(http.StatusOK, result)
}

func (app *application) handleGetDriver(c *gin.Context) {
	driverID := c.Param("id")
	if err := app.security.ValidateDriverID(driverID); err != nil {
		respondError(c, apperrors.NewValidationError(err.Error()))
		return
	}

	rec, err := app.repo.LatestByDriver(c.Request.Context(), driverID)
	if err != nil {
		if errors.Is(err, database.ErrNoRecord) {
			respondError(c, apperrors.NewDriverNotFoundError(driverID))
			return
		}
		respondError(c, apperrors.NewInternalError("failed to load driver record", err))
		return
	}

	response := gin.H{
		"driver_id":          rec.Profile.DriverID,
		"profile":            rec.Profile,
		"raw_score":          rec.RawScore,
		"safe_driving_index": rec.Index,
		"category":           rec.Category,
		"recommendation":     rec.Recommendation,
		"updated_at":         rec.CreatedAt,
	}
	if rec.TaskCompleted != "" {
		response["last_task_completed"] = rec.TaskCompleted
	}

	// Stored rows may predate an encoder swap, so failed derivation only
	// drops the detailed list instead of failing the lookup.
	if result, vector, err := app.pipeline.Score(c.Request.Context(), rec.Profile, nil); err == nil {
		response["detailed_recommendations"] = app.pipeline.Detailed(vector, result)
	}

	c.JSON(http.StatusOK, response)
}

func (app *application) handleDriverTasks(c *gin.Context) {
	driverID := c.Param("id")
	if err := app.security.ValidateDriverID(driverID); err != nil {
		respondError(c, apperrors.NewValidationError(err.Error()))
		return
	}

	statuses, available, err := app.engine.ListForDriver(c.Request.Context(), driverID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"driver_id":              driverID,
		"tasks":                  statuses,
		"total_available_points": available,
	})
}

func (app *application) handleListDrivers(c *gin.Context) {
	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			respondError(c, apperrors.NewValidationError("limit must be a positive integer"))
			return
		}
		limit = l
	}
	if limit > app.cfg.MaxDriversLimit {
		limit = app.cfg.MaxDriversLimit
	}

	summaries, err := app.repo.ListDrivers(c.Request.Context(), limit)
	if err != nil {
		respondError(c, apperrors.NewInternalError("failed to list drivers", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"drivers": summaries,
		"count":   len(summaries),
	})
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := monitoring.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger.Logger)

	db, err := database.NewDB(cfg.DataDir)
	if err != nil {
		slog.Error("Failed to initialize record store", "error", err)
		os.Exit(1)
	}
	defer apperrors.SafeClose(db, "record store")

	repo := database.NewRepository(db)

	// A configured artifact that fails to load is fatal; the service never
	// falls back silently to the built-in baseline.
	model := scoring.NewBaselineModel()
	if cfg.ModelPath != "" {
		model, err = scoring.LoadModel(cfg.ModelPath)
		if err != nil {
			slog.Error("Failed to load model artifact", "path", cfg.ModelPath, "error", err)
			os.Exit(1)
		}
	}

	encoder := scoring.NewEncoderTable()
	if cfg.EncoderPath != "" {
		encoder, err = scoring.LoadEncoderTable(cfg.EncoderPath)
		if err != nil {
			slog.Error("Failed to load encoder artifact", "path", cfg.EncoderPath, "error", err)
			os.Exit(1)
		}
	}

	pipeline := scoring.NewPipeline(
		scoring.NewDeriver(encoder),
		model,
		scoring.NewNormalizer(model, cfg.SafeThreshold, cfg.ModerateThreshold),
		scoring.NewRecommender(),
	)
	slog.Info("Scoring pipeline initialized", "model_version", model.Version())

	engine := tasks.NewEngine(tasks.NewCatalog(), repo, pipeline, cfg.TaskCooldown)

	metrics := monitoring.NewMetrics()

	redisClient, err := ratelimit.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		slog.Warn("Redis unavailable, continuing with in-memory rate limiting", "error", err)
	}
	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.Config{
		IPLimitPerMin:            cfg.IPLimitPerMin,
		DriverCompletionsPerHour: cfg.DriverCompletionsPerHour,
		BurstMultiplier:          2,
	}, metrics)
	defer apperrors.SafeClose(limiter, "rate limiter")

	securityConfig := security.DefaultSecurityConfig()
	securityConfig.RequestTimeout = cfg.RequestTimeout

	app := &application{
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
		db:       db,
		repo:     repo,
		pipeline: pipeline,
		engine:   engine,
		limiter:  limiter,
		cache:    cache.NewCache(cfg.CacheTTL),
		security: security.NewSecurityMiddleware(securityConfig),
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: newRouter(app),
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

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
