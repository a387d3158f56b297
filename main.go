package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"

	"github.com/finsight/analytics-engine/api"
	"github.com/finsight/analytics-engine/buildinfo"
	"github.com/finsight/analytics-engine/cache"
	"github.com/finsight/analytics-engine/config"
	"github.com/finsight/analytics-engine/database"
	"github.com/finsight/analytics-engine/logger"
	"github.com/finsight/analytics-engine/messaging"
	"github.com/finsight/analytics-engine/normalizer"
	"github.com/finsight/analytics-engine/services"

	_ "github.com/finsight/analytics-engine/docs" // Import generated docs
)

// @title Analytics Engine API
// @version 1.0
// @description Real-time financial analytics and reporting engine over ClickHouse and Redis
// @BasePath /
// @schemes http

const idleTimeout = 5 * time.Second

func main() {
	buildinfo.SetStartTime(time.Now())

	info := buildinfo.GetInfo()
	log.Printf("Starting analytics engine\nVersion: %s, Commit: %s, BuildDate: %s, GoVersion: %s, Hostname: %s",
		info.Version, info.Commit, info.BuildDate, info.GoVersion, info.Hostname)

	cfg := config.Load()

	zapLogger, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	if err := database.InitClickHouse(&cfg.ClickHouse); err != nil {
		log.Fatalf("Failed to initialize ClickHouse: %v", err)
	}

	if err := database.InitRedis(&cfg.Redis); err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}

	store := database.GetTimeSeriesStore()
	redisClient := database.GetRedisClient()

	publisher := messaging.NewRedisPublisher(redisClient, zapLogger)
	queryCache := cache.New(redisClient, cfg.Cache, zapLogger)

	analyticsService, err := services.NewAnalyticsService(
		store, queryCache, publisher, cfg.Analytics, cfg.Topics.AnalyticsEvents, zapLogger)
	if err != nil {
		log.Fatalf("Failed to initialize analytics service: %v", err)
	}

	batcher := services.NewRecordBatcher(
		cfg.ClickHouse.BufferChannelCapacity,
		cfg.ClickHouse.BatchSize,
		cfg.ClickHouse.FlushIntervalSeconds,
		store, publisher, cfg.Topics.AnalyticsEvents, zapLogger)
	batcher.Start()

	ingestionService, err := services.NewIngestionService(
		store, publisher, batcher, cfg.Topics.AnalyticsEvents, zapLogger)
	if err != nil {
		log.Fatalf("Failed to initialize ingestion service: %v", err)
	}

	listener := messaging.NewListener(redisClient, ingestionService, []messaging.Subscription{
		{Topic: cfg.Topics.TransactionEvents, Source: normalizer.SourceTransactionService},
		{Topic: cfg.Topics.RiskEvents, Source: normalizer.SourceRiskService},
	}, zapLogger)
	listener.Start()

	scheduler, err := services.NewReportScheduler(analyticsService, cfg.Analytics, zapLogger)
	if err != nil {
		log.Fatalf("Failed to initialize report scheduler: %v", err)
	}
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start report scheduler: %v", err)
	}

	httpHandler := api.NewAnalyticsHandler(analyticsService, ingestionService)

	app := fiber.New(fiber.Config{
		IdleTimeout: idleTimeout,
	})

	app.Use(recover.New())

	// redirect to swagger docs
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/swagger/", fiber.StatusMovedPermanently)
	})

	// Health check endpoint
	app.Get("/health", api.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Query API
	app.Post("/analytics/dashboard", httpHandler.GetDashboardData)
	app.Post("/analytics/reports", httpHandler.GenerateReport)
	app.Post("/analytics/reports/export", httpHandler.ExportReport)

	// Direct ingestion
	app.Post("/events", httpHandler.PostEvent)

	// Listen from a different goroutine
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Panic(err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c // Block the main goroutine until an interrupt is received
	zapLogger.Info("gracefully shutting down")
	_ = app.Shutdown()

	zapLogger.Info("running cleanup tasks")

	scheduler.Stop()

	if err := listener.Shutdown(); err != nil {
		zapLogger.Error("error shutting down listeners", zap.Error(err))
	}

	// Flushes remaining buffered records.
	if err := batcher.Shutdown(); err != nil {
		zapLogger.Error("error shutting down batcher", zap.Error(err))
	}

	if err := database.CloseClickHouse(); err != nil {
		zapLogger.Error("error closing ClickHouse", zap.Error(err))
	}

	if err := database.CloseRedis(); err != nil {
		zapLogger.Error("error closing Redis", zap.Error(err))
	}

	zapLogger.Info("shutdown complete")
}
