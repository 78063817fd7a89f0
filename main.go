package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/fenilmodi00/index-pulse-backend/config"
	"github.com/fenilmodi00/index-pulse-backend/handlers"
	"github.com/fenilmodi00/index-pulse-backend/jobs"
	"github.com/fenilmodi00/index-pulse-backend/services"
	"github.com/fenilmodi00/index-pulse-backend/shared"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load config
	cfg := config.LoadConfig()
	shared.ConfigureLogging(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	contentFilter, err := config.LoadContentFilterConfig(cfg.ContentFilterFile)
	if err != nil {
		logrus.Fatalf("Failed to load content filter: %v", err)
	}

	httpTimeout := cfg.GetHTTPTimeout()
	clientFactory := shared.NewHTTPClientFactory(httpTimeout)
	defer clientFactory.CleanupAllClients()
	registry := shared.NewMetricsRegistry()

	// Initialize services
	snapshotScraper := services.NewIndexSnapshotScraper(&services.IndexSnapshotScraperConfiguration{
		SnapshotURL:         cfg.SnapshotURL,
		HTTPRequestTimeout:  httpTimeout,
		UseBrowserRendering: cfg.UseBrowserRendering(),
	}, registry.Register("Index_Snapshot_Scraper"))

	provider := services.NewYahooFinanceProvider(&services.YahooFinanceProviderConfiguration{
		BaseURL:            cfg.ProviderBaseURL,
		CookieURL:          cfg.ProviderCookieURL,
		HTTPRequestTimeout: httpTimeout,
		RequestRateLimit:   cfg.GetProviderRateLimit(),
	}, clientFactory.CreateOptimizedHTTPClient(httpTimeout), registry.Register("Yahoo_Finance_Provider"))

	articleExtractor := services.NewArticleExtractor(
		clientFactory.CreateOptimizedHTTPClient(httpTimeout),
		contentFilter,
		registry.Register("Article_Extractor"),
	)
	newsService := services.NewNewsService(provider, articleExtractor, cfg.GetNewsCount(), registry.Register("News_Service"))
	graphService := services.NewGraphService(provider, registry.Register("Graph_Service"))
	statsService := services.NewStatsService(provider, registry.Register("Stats_Service"))
	movementService := services.NewMovementService(snapshotScraper, provider, registry.Register("Movement_Service"))

	// Movement watch job, publishing to Kafka when brokers are configured
	watchJob := jobs.NewMovementWatchJob(movementService, nil, cfg.GetMovementWatchInterval())
	if brokers := cfg.GetKafkaBrokers(); len(brokers) > 0 {
		publisher := services.NewKafkaMovementPublisher(brokers, cfg.KafkaTopic, registry.Register("Movement_Publisher"))
		defer func() {
			if err := publisher.Close(); err != nil {
				logrus.Warnf("Failed to close Kafka publisher: %v", err)
			}
		}()
		watchJob.Publisher = publisher
	}
	if watchJob.Interval > 0 {
		watchJob.Start(ctx)
	}

	logrus.WithFields(logrus.Fields{
		"snapshot_url":     cfg.SnapshotURL,
		"render_mode":      cfg.SnapshotRenderMode,
		"provider":         cfg.ProviderBaseURL,
		"http_timeout":     httpTimeout,
		"provider_limit":   cfg.GetProviderRateLimit(),
		"news_count":       cfg.GetNewsCount(),
		"watch_interval":   watchJob.Interval,
		"kafka_publishing": watchJob.Publisher != nil,
	}).Info("Index pulse services initialized")

	// Initialize handlers
	marketHandler := handlers.NewMarketHandler(snapshotScraper, newsService, statsService, graphService, movementService)
	adminHandler := handlers.NewAdminHandler(watchJob)
	performanceHandler := handlers.NewPerformanceHandler(registry)

	// Setup Fiber
	app := fiber.New()

	// Middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New())

	app.Get("/health", performanceHandler.GetHealth)
	app.Get("/metrics", performanceHandler.GetPerformanceMetrics)

	// Market Routes
	app.Get("/indices", marketHandler.GetIndices)
	app.Get("/news", marketHandler.GetNews)
	app.Get("/stats", marketHandler.GetStats)
	app.Get("/graph", marketHandler.GetGraph)
	app.Get("/graph/image", marketHandler.GetGraphImage)
	app.Get("/compare/hour", marketHandler.CompareHour)

	// Admin Routes
	admin := app.Group("/admin")
	admin.Post("/movement-watch/run", adminHandler.TriggerMovementWatch)
	admin.Get("/movement-watch/last", adminHandler.GetLastMovementWatch)

	go func() {
		<-ctx.Done()
		logrus.Info("Shutting down server...")
		if err := app.Shutdown(); err != nil {
			logrus.Errorf("Server shutdown failed: %v", err)
		}
	}()

	// Start server
	logrus.Infof("Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logrus.Fatalf("Server failed to start: %v", err)
	}
}
