// Package dependency provides dependency injection for the application.
package dependency

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/cashback-engine/backend/config"
	"github.com/cashback-engine/backend/internal/application/adapter"
	"github.com/cashback-engine/backend/internal/application/usecase/evaluation"
	"github.com/cashback-engine/backend/internal/application/usecase/ledger"
	"github.com/cashback-engine/backend/internal/infra/server/router"
	"github.com/cashback-engine/backend/internal/integration/adapters"
	"github.com/cashback-engine/backend/internal/integration/entrypoint/controller"
	"github.com/cashback-engine/backend/internal/integration/entrypoint/middleware"
	"github.com/cashback-engine/backend/internal/integration/notification"
	"github.com/cashback-engine/backend/internal/integration/notification/templates"
	"github.com/cashback-engine/backend/internal/integration/persistence"
)

// Injector holds all application dependencies.
type Injector struct {
	Config             *config.Config
	DB                 *gorm.DB
	Router             *router.Router
	NotificationWorker *notification.Worker
}

// Overrides replaces selected adapters during construction. Integration tests
// swap the clock, the directory and the notification sender; production
// leaves this zero.
type Overrides struct {
	Clock     adapter.Clock
	Sender    adapter.NotificationSender
	Directory adapter.UserDirectory
	BanList   adapter.BanList
}

// NewInjector creates a new dependency injector with all dependencies wired.
func NewInjector(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, overrides Overrides) (*Injector, error) {
	location, err := time.LoadLocation(cfg.Engine.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load engine timezone %q: %w", cfg.Engine.Timezone, err)
	}

	// Create repositories
	saleRepo := persistence.NewSaleRepository(db)
	campaignSource := persistence.NewCampaignRepository(db)
	notificationQueueRepo := persistence.NewNotificationQueueRepository(db)

	// Create adapters/services
	tokenService := adapters.NewTokenService(cfg.JWT.Secret)
	locker := adapters.NewCustomerLocker(redisClient)
	events := adapters.NewEventTracker(redisClient)

	var clock adapter.Clock = adapters.NewSystemClock()
	if overrides.Clock != nil {
		clock = overrides.Clock
	}

	var directory adapter.UserDirectory
	var banList adapter.BanList
	if overrides.Directory != nil && overrides.BanList != nil {
		directory = overrides.Directory
		banList = overrides.BanList
	} else {
		directoryService := adapters.NewDirectoryService(cfg.Directory.BaseURL, cfg.Directory.APIKey)
		directory = directoryService
		banList = directoryService
	}

	notificationService := notification.NewService(notificationQueueRepo)

	// Create use cases
	evaluateUseCase := evaluation.NewEvaluateSaleUseCase(
		saleRepo,
		campaignSource,
		banList,
		directory,
		locker,
		notificationService,
		events,
		clock,
		location,
	)
	reprocessUseCase := evaluation.NewReprocessSalesUseCase(evaluateUseCase)
	redeemUseCase := ledger.NewRedeemCashbackUseCase(
		saleRepo,
		banList,
		directory,
		locker,
		notificationService,
		events,
		clock,
	)
	cancelUseCase := ledger.NewCancelSaleUseCase(
		saleRepo,
		directory,
		locker,
		notificationService,
		events,
		clock,
	)
	balanceUseCase := ledger.NewGetBalanceUseCase(saleRepo, clock)

	// Create notification delivery worker
	renderer, err := templates.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to load notification templates: %w", err)
	}
	var sender adapter.NotificationSender = notification.NewResendClient(
		cfg.Notification.ResendAPIKey,
		cfg.Notification.FromName,
		cfg.Notification.FromEmail,
	)
	if overrides.Sender != nil {
		sender = overrides.Sender
	}
	worker := notification.NewWorker(notificationQueueRepo, sender, renderer, notification.WorkerConfig{
		PollInterval: cfg.Notification.PollInterval,
		BatchSize:    cfg.Notification.BatchSize,
	})

	// Create controllers
	healthController := controller.NewHealthController(func() bool {
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	})
	saleController := controller.NewSaleController(evaluateUseCase, reprocessUseCase, cancelUseCase, clock)
	cashbackController := controller.NewCashbackController(redeemUseCase, balanceUseCase)

	// Create middleware
	// Use higher rate limits for test environments to prevent flaky tests
	var redeemRateLimiter *middleware.RateLimiter
	if cfg.Server.Environment == "e2e" || cfg.Server.Environment == "test" {
		redeemRateLimiter = middleware.NewRateLimiterWithConfig(1000, 1*time.Minute)
	} else {
		redeemRateLimiter = middleware.NewRateLimiterWithConfig(60, 1*time.Minute)
	}
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// Create router
	r := router.NewRouter(healthController, saleController, cashbackController, redeemRateLimiter, authMiddleware)

	return &Injector{
		Config:             cfg,
		DB:                 db,
		Router:             r,
		NotificationWorker: worker,
	}, nil
}
