package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gorm.io/gorm"

	"github.com/brainmetric/quiz-service/internal/cache"
	"github.com/brainmetric/quiz-service/internal/events"
	"github.com/brainmetric/quiz-service/internal/repositories"
	"github.com/brainmetric/quiz-service/internal/session"
	"github.com/brainmetric/quiz-service/internal/validator"
)

// ServiceManagerConfig holds the collaborators and settings shared by the services
type ServiceManagerConfig struct {
	Store     session.Store
	Cache     *cache.CacheManager
	Generator ReportGenerator // nil disables the AI narrative
	Publisher events.EventPublisher

	PublicURL     string
	MediaURL      string
	BotUsername   string
	BotDailyLimit int
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	config    ServiceManagerConfig

	// Service instances
	testService       TestService
	attemptService    AttemptService
	resultService     ResultService
	profileService    ProfileService
	invitationService InvitationService
	botService        BotService
	importService     ImportService
	dashboardService  DashboardService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, config ServiceManagerConfig) ServiceManager {
	if config.Store == nil {
		config.Store = session.NewMemoryStore()
	}
	if config.Publisher == nil {
		config.Publisher = events.NewMockEventPublisher(logger)
	}
	return &serviceManager{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
		config:    config,
	}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	var catalogue *cache.CacheHelper
	var testCache TestCache
	if sm.config.Cache != nil {
		catalogue = sm.config.Cache.Test
		testCache = sm.config.Cache
	}

	sm.testService = NewTestService(sm.repo, sm.db, sm.logger, catalogue, sm.config.MediaURL)
	sm.logger.Info("Test service initialized")

	sm.attemptService = NewAttemptService(sm.repo, sm.db, sm.logger, sm.validator, AttemptServiceConfig{
		Store:     sm.config.Store,
		Gate:      NewAccessGate(sm.repo, sm.db, sm.logger),
		Generator: sm.config.Generator,
		Publisher: sm.config.Publisher,
		MediaURL:  sm.config.MediaURL,
	})
	sm.logger.Info("Attempt service initialized")

	sm.resultService = NewResultService(sm.repo, sm.db, sm.logger, sm.validator, sm.config.Generator)
	sm.logger.Info("Result service initialized")

	sm.profileService = NewProfileService(sm.repo, sm.db, sm.logger, sm.validator, sm.config.BotUsername)
	sm.logger.Info("Profile service initialized")

	sm.invitationService = NewInvitationService(sm.repo, sm.db, sm.logger, sm.validator, sm.config.Store, sm.config.PublicURL)
	sm.logger.Info("Invitation service initialized")

	sm.botService = NewBotService(sm.repo, sm.db, sm.logger, sm.validator, sm.config.BotDailyLimit)
	sm.logger.Info("Bot service initialized")

	sm.importService = NewImportService(sm.repo, sm.db, sm.logger, sm.validator, testCache)
	sm.logger.Info("Import service initialized")

	sm.dashboardService = NewDashboardService(sm.repo, sm.db, sm.logger)
	sm.logger.Info("Dashboard service initialized")

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) ready(name string) {
	if !sm.initialized {
		panic("service manager not initialized")
	}
	if sm.shutdown {
		panic(name + " service requested after shutdown")
	}
}

// Service getters
func (sm *serviceManager) Test() TestService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready("test")
	return sm.testService
}

func (sm *serviceManager) Attempt() AttemptService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready("attempt")
	return sm.attemptService
}

func (sm *serviceManager) Result() ResultService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready("result")
	return sm.resultService
}

func (sm *serviceManager) Profile() ProfileService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready("profile")
	return sm.profileService
}

func (sm *serviceManager) Invitation() InvitationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready("invitation")
	return sm.invitationService
}

func (sm *serviceManager) Bot() BotService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready("bot")
	return sm.botService
}

func (sm *serviceManager) Import() ImportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready("import")
	return sm.importService
}

func (sm *serviceManager) Dashboard() DashboardService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready("dashboard")
	return sm.dashboardService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	// Redis is optional, a dead cache only degrades
	if sm.config.Cache != nil {
		if err := sm.config.Cache.HealthCheck(ctx); err != nil {
			sm.logger.Warn("Cache health check failed", "error", err)
		}
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if err := sm.config.Publisher.Close(); err != nil {
		sm.logger.Error("Failed to close event publisher", "error", err)
	}

	if repoManager, ok := sm.repo.(repositories.RepositoryManager); ok {
		if err := repoManager.Shutdown(ctx); err != nil {
			sm.logger.Error("Failed to shutdown repository manager", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}

// IsInitialized returns whether the service manager has been initialized
func (sm *serviceManager) IsInitialized() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.initialized
}
