package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"stock-service/internal/config"
	"stock-service/internal/events"
	"stock-service/internal/handlers"
	"stock-service/internal/importer"
	"stock-service/internal/middleware"
	"stock-service/internal/repository"

	gosharedmw "github.com/Tesseract-Nexus/go-shared/middleware"
	"github.com/Tesseract-Nexus/go-shared/tracing"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	// Initialize configuration
	cfg := config.Load()

	// Initialize logrus logger
	logger := config.NewLogger(cfg.Environment)
	if envErr != nil {
		logger.Info("No .env file found, using system environment variables")
	}

	general, ready, err := cfg.Layouts()
	if err != nil {
		logger.WithError(err).Fatal("Invalid stock report layout")
	}

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	// Initialize Redis (optional - graceful degradation if Redis unavailable)
	redisClient := config.InitRedis(cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Initialize repository and migrate the stock tables
	stockRepo := repository.NewStockRepository(db, redisClient, cfg.BatchSize, logger)
	if err := stockRepo.Migrate(); err != nil {
		logger.WithError(err).Fatal("Failed to migrate database")
	}

	// The repository drops its own cache; NATS tells everyone else
	invalidators := []importer.Invalidator{stockRepo}
	var natsStatus handlers.ConnectionChecker

	// Initialize NATS event publisher (optional - graceful degradation if NATS unavailable)
	if cfg.NATSURL != "" {
		eventPublisher, err := events.NewStockEventPublisher(cfg.NATSURL, logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize NATS event publisher, continuing without event publishing")
		} else {
			logger.Info("Connected to NATS JetStream for event publishing")
			defer eventPublisher.Close()
			invalidators = append(invalidators, eventPublisher)
			natsStatus = eventPublisher
		}
	} else {
		logger.Info("NATS_URL not configured, event publishing disabled")
	}

	importService := importer.NewService(stockRepo, stockRepo, logger, importer.Options{
		UpsertTimeout: cfg.UpsertTimeout,
		General:       general,
		Ready:         ready,
	}, invalidators...)

	// Initialize handlers
	stockHandler := handlers.NewStockHandler(stockRepo, cfg.DefaultPageSize, cfg.MaxPageSize)
	importHandler := handlers.NewImportHandler(importService, stockRepo, handlers.ImportHandlerConfig{
		General:         general,
		Ready:           ready,
		MaxUploadBytes:  cfg.MaxUploadBytes(),
		DefaultPageSize: cfg.DefaultPageSize,
		MaxPageSize:     cfg.MaxPageSize,
	}, logger)
	healthHandler := handlers.NewHealthHandler(stockRepo, natsStatus)

	// Initialize OpenTelemetry tracing
	var tracerProvider *tracing.TracerProvider
	if cfg.Environment == "production" {
		tracerProvider, err = tracing.InitTracer(tracing.ProductionConfig("stock-service"))
	} else {
		tracerProvider, err = tracing.InitTracer(tracing.DefaultConfig("stock-service"))
	}
	if err != nil {
		logger.WithError(err).Warn("Failed to initialize tracing, continuing without tracing")
	} else {
		logger.Info("OpenTelemetry tracing initialized")
	}

	// Initialize Prometheus metrics
	metrics := gosharedmw.InitGlobalMetrics("tesseract", "stock_service")

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))

	// Add observability middleware (metrics + tracing)
	router.Use(metrics.Middleware())
	router.Use(tracing.GinMiddleware("stock-service"))

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.HealthCheck)
	router.GET("/health/extended", healthHandler.ExtendedHealthCheck)
	router.GET("/metrics", gosharedmw.Handler())

	api := router.Group("/api/v1")
	api.Use(middleware.OperatorMiddleware(cfg.Environment == "production"))

	stock := api.Group("/stock")
	{
		// Import
		stock.POST("/import", importHandler.ImportStock)
		stock.GET("/import/template", importHandler.GetImportTemplate)
		stock.GET("/imports", importHandler.ListImportRuns)

		// Stock tables
		stock.GET("/:view", stockHandler.ListStock)
		stock.GET("/:view/:sku", stockHandler.GetStock)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.WithField("port", cfg.Port).Info("Stock service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	<-quit
	logger.Info("Shutting down stock-service...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.UpsertTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	// Shutdown tracer provider
	if tracerProvider != nil {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("Error shutting down tracer provider")
		}
	}

	logger.Info("Stock service stopped")
}
