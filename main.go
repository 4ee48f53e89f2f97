package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"

	"github.com/brainmetric/quiz-service/internal/cache"
	"github.com/brainmetric/quiz-service/internal/config"
	"github.com/brainmetric/quiz-service/internal/events"
	"github.com/brainmetric/quiz-service/internal/handlers"
	"github.com/brainmetric/quiz-service/internal/report"
	"github.com/brainmetric/quiz-service/internal/repositories/casdoor"
	"github.com/brainmetric/quiz-service/internal/repositories/postgres"
	"github.com/brainmetric/quiz-service/internal/services"
	"github.com/brainmetric/quiz-service/internal/session"
	"github.com/brainmetric/quiz-service/internal/telegram"
	"github.com/brainmetric/quiz-service/internal/utils"
	"github.com/brainmetric/quiz-service/internal/validator"
	"github.com/brainmetric/quiz-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, using in-memory sessions and no cache", "error", err)
			redisClient = nil
		}
	}

	// Initialize repositories
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
		CasdoorConfig: casdoor.CasdoorConfig{
			Endpoint:         cfg.Casdoor.Endpoint,
			ClientID:         cfg.Casdoor.ClientID,
			ClientSecret:     cfg.Casdoor.ClientSecret,
			Certificate:      cfg.Casdoor.Cert,
			OrganizationName: cfg.Casdoor.Organization,
			ApplicationName:  cfg.Casdoor.Application,
		},
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}
	repo := repoManager.GetRepository()

	cacheManager := cache.NewCacheManager(redisClient)

	// Report generator is optional, results fall back to templated text
	var generator services.ReportGenerator
	gemini, err := report.NewGeminiGenerator(context.Background(), cfg.Gemini, slogLogger)
	switch {
	case errors.Is(err, report.ErrNotConfigured):
		logger.Info("Report generator disabled, GEMINI_API_KEY not set")
	case err != nil:
		logger.Warn("Report generator unavailable", "error", err)
	default:
		generator = gemini
	}

	// Event bus: kafka when brokers are configured, in-process otherwise
	bus, err := events.NewBus(cfg.Kafka, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event bus: %v", err)
	}
	publisher := events.NewEventPublisher(bus.Publisher, slogLogger)

	// Initialize services
	serviceManager := services.NewServiceManager(db, repo, slogLogger, validator.New(), services.ServiceManagerConfig{
		Store:         session.NewStore(cacheManager.Session),
		Cache:         cacheManager,
		Generator:     generator,
		Publisher:     publisher,
		PublicURL:     cfg.PublicURL,
		MediaURL:      cfg.MediaURL,
		BotUsername:   cfg.Telegram.BotUsername,
		BotDailyLimit: cfg.Telegram.DailyLimit,
	})
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	eventHandlers := map[string]events.ResultFinalizedHandler{
		"result_audit_log": func(ctx context.Context, event *events.ResultFinalizedEvent) error {
			logger.Info("Result finalized",
				"result_id", event.ResultID,
				"test_id", event.TestID,
				"score", event.Score,
				"total", event.TotalQuestions,
			)
			return nil
		},
	}

	// Telegram bot (if configured)
	var bot *telegram.Bot
	if cfg.Telegram.Token != "" {
		api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			logger.Warn("Telegram bot unavailable", "error", err)
		} else {
			bot = telegram.NewBot(api, serviceManager.Bot(), cfg.MediaRoot, slogLogger)
			eventHandlers["telegram_result_notifier"] = telegram.NewResultNotifier(api, repo.Profile(), slogLogger).Handle
			logger.Info("Telegram bot enabled", "bot", api.Self.UserName)
		}
	}

	eventRouter, err := events.NewRouter(bus.Subscriber, slogLogger, eventHandlers)
	if err != nil {
		log.Fatalf("Failed to initialize event router: %v", err)
	}
	routerCtx, stopRouter := context.WithCancel(context.Background())
	go func() {
		if err := eventRouter.Run(routerCtx); err != nil {
			logger.Error("Event router stopped", "error", err)
		}
	}()

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(serviceManager, logger, cfg, repo.User(), bot)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger, cfg.AllowedOrigins)
	handlerManager.SetupRoutes(router)

	// Uploaded question images
	if strings.HasPrefix(cfg.MediaURL, "/") {
		router.Static(cfg.MediaURL, cfg.MediaRoot)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment, "events", bus.Transport)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	stopRouter()
	if err := eventRouter.Close(); err != nil {
		logger.Error("Failed to close event router", "error", err)
	}

	// Closes the event publisher
	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}
	if bus.Transport != "gochannel" {
		if err := bus.Subscriber.Close(); err != nil {
			logger.Error("Failed to close event subscriber", "error", err)
		}
	}

	if err := repoManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to close database", "error", err)
	}

	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("Server exited")
}
