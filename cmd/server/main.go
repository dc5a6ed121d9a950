package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/compliance"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/config"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/database"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/engine"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/forecast"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/handlers"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/isochrone"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/logger"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/matcher"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/middleware"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/observability"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/oplog"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/repository"
)

const (
	shutdownTimeout = 30 * time.Second
)

// runMigrations applies pending SQL migrations before the server accepts
// traffic. Running schema changes at startup keeps deploys single-step.
func runMigrations(cfg *config.Config, log *logger.Logger) error {
	log.Info("Running database migrations", map[string]interface{}{
		"dir": cfg.Database.MigrationsDir,
	})

	migrationURL := strings.Replace(cfg.Database.DSN(), "postgres://", "pgx5://", 1)

	m, err := migrate.New(
		fmt.Sprintf("file://%s", cfg.Database.MigrationsDir),
		migrationURL,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied", nil)
	return nil
}

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.Server.Env)
	log.Info("Starting compliance engine", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	if err := runMigrations(cfg, log); err != nil {
		log.Fatal("Migration run failed", err, nil)
	}

	// Create database connection pool
	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	redisClient, err := database.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to redis", err, map[string]interface{}{
			"addr": cfg.Redis.Addr,
		})
	}
	defer redisClient.Close()

	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// Repositories
	callRepo := repository.NewCallRepository(db)
	weatherRepo := repository.NewWeatherEventRepository(db)
	exclusionRepo := repository.NewExclusionRepository(db)
	coverageRepo := repository.NewCoverageRepository(db)
	forecastRepo := repository.NewForecastRepository(db)

	// Exclusion engine: spatial matching first, text fallback second.
	ledger := engine.NewLedger(callRepo, exclusionRepo, clock, log)
	strategies := []matcher.Strategy{
		matcher.NewSpatialMatcher(cfg.Engine.ExposureWindow),
		matcher.NewTextMatcher(cfg.Engine.ExposureWindow, cfg.Engine.TrustedJurisdictions),
	}
	exclusionEngine := engine.NewEngine(weatherRepo, callRepo, ledger, strategies, cfg.Engine.ExposureWindow, metrics, log)
	processor := engine.NewBatchProcessor(exclusionEngine, callRepo, clock, metrics, log)
	scheduler := engine.NewScheduler(processor, clock, cfg.Cron.Interval, cfg.Cron.BatchSize, cfg.Cron.MaxBatchesPerRun, metrics, log)

	// Compliance analysis
	isochroneClient := isochrone.NewClient(cfg.Mapbox, clock, metrics, log)
	isochroneCache := isochrone.NewCache(isochroneClient, redisClient, cfg.Mapbox.CacheTTL, metrics, log)
	curveComputer := compliance.NewCurveComputer(cfg.Engine.UrgentPriorities, cfg.Engine.ContractTargetPercent)
	analyzer := compliance.NewAnalyzer(isochroneCache, callRepo, curveComputer, log)

	forecaster := forecast.NewForecaster(callRepo, forecastRepo, log)
	opSink := oplog.NewSink(db, log)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	// Register health check routes
	healthHandler := handlers.NewHealthHandler(db, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Initialize handlers
	cronHandler := handlers.NewCronHandler(processor, opSink, cfg.Cron.BatchSize)
	complianceHandler := handlers.NewComplianceHandler(coverageRepo, callRepo, analyzer, curveComputer)
	forecastHandler := handlers.NewForecastHandler(forecaster)

	// Register API v1 routes
	v1 := router.Group("/api/v1")
	{
		cron := v1.Group("/cron")
		cron.Use(middleware.BearerAuth(cfg.Cron.Secret, cfg.IsProduction()))
		{
			cron.GET("/process-exclusions", cronHandler.ProcessExclusions)
			cron.POST("/process-exclusions", cronHandler.ProcessExclusions)
		}

		complianceGroup := v1.Group("/compliance")
		{
			complianceGroup.POST("/analyze", complianceHandler.Analyze)
			complianceGroup.GET("/curve", complianceHandler.Curve)
		}

		v1.POST("/forecast", forecastHandler.Generate)
	}

	// Start the safety-net scheduler
	schedulerCtx, stopScheduler := context.WithCancel(ctx)
	go scheduler.Start(schedulerCtx)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	log.Info("Shutting down server...", nil)
	stopScheduler()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}
