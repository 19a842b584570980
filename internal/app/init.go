package app

import (
	"context"
	"fmt"
	"net/http"

	server "github.com/telewall/miniapp-backend/internal/adapters/primary/http"
	adminController "github.com/telewall/miniapp-backend/internal/adapters/primary/http/controllers/admin"
	alerterController "github.com/telewall/miniapp-backend/internal/adapters/primary/http/controllers/alerter"
	healthcheckController "github.com/telewall/miniapp-backend/internal/adapters/primary/http/controllers/healthcheck"
	miniappController "github.com/telewall/miniapp-backend/internal/adapters/primary/http/controllers/miniapp"
	telegramController "github.com/telewall/miniapp-backend/internal/adapters/primary/http/controllers/telegram"
	"github.com/telewall/miniapp-backend/internal/adapters/primary/http/middlewares"
	alerterAdapter "github.com/telewall/miniapp-backend/internal/adapters/secondary/alerter"
	kafkaAdapter "github.com/telewall/miniapp-backend/internal/adapters/secondary/kafka"
	starsProvider "github.com/telewall/miniapp-backend/internal/adapters/secondary/payment/telegram_stars"
	"github.com/telewall/miniapp-backend/internal/adapters/secondary/storage/inmemory"
	"github.com/telewall/miniapp-backend/internal/adapters/secondary/storage/pg"
	redisAdapter "github.com/telewall/miniapp-backend/internal/adapters/secondary/storage/redis"
	s3Adapter "github.com/telewall/miniapp-backend/internal/adapters/secondary/storage/s3"
	tgAdapter "github.com/telewall/miniapp-backend/internal/adapters/secondary/telegram"
	"github.com/telewall/miniapp-backend/internal/domain"
	"github.com/telewall/miniapp-backend/internal/ports/cache"
	"github.com/telewall/miniapp-backend/internal/ports/kafka"
	"github.com/telewall/miniapp-backend/internal/ports/repository"
	"github.com/telewall/miniapp-backend/internal/ports/service"
	"github.com/telewall/miniapp-backend/internal/ports/storage"
	entitlementRepo "github.com/telewall/miniapp-backend/internal/repository/entitlement"
	paymentRepo "github.com/telewall/miniapp-backend/internal/repository/payment"
	profileRepo "github.com/telewall/miniapp-backend/internal/repository/profile"
	storeRepo "github.com/telewall/miniapp-backend/internal/repository/store"
	alerterService "github.com/telewall/miniapp-backend/internal/services/alerter"
	"github.com/telewall/miniapp-backend/internal/services/identity"
	jobScheduler "github.com/telewall/miniapp-backend/internal/services/jobs"
	telegramService "github.com/telewall/miniapp-backend/internal/services/telegram"
	"github.com/telewall/miniapp-backend/internal/usecases/catalog"
	"github.com/telewall/miniapp-backend/internal/usecases/inventory"
	paymentUsecase "github.com/telewall/miniapp-backend/internal/usecases/payment"
	profileUsecase "github.com/telewall/miniapp-backend/internal/usecases/profile"
)

type closer struct {
	name  string
	close func() error
}

type Dependencies struct {
	HTTPServer     *http.Server
	TelegramClient *tgAdapter.Client
	TelegramPoller *tgAdapter.Poller
	JobScheduler   *jobScheduler.Scheduler
	closers        []closer // закрываются в обратном порядке
}

func (d *Dependencies) onClose(name string, fn func() error) {
	d.closers = append(d.closers, closer{name: name, close: fn})
}

// initDependencies инициализирует все зависимости приложения
func (a *App) initDependencies(ctx context.Context) (*Dependencies, error) {
	deps := &Dependencies{}
	pingers := make(map[string]healthcheckController.Pinger)

	repos, err := a.initRepositories(ctx, deps, pingers)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	externals, err := a.initExternalServices(ctx, deps, pingers)
	if err != nil {
		return nil, fmt.Errorf("failed to init external services: %w", err)
	}

	deps.TelegramClient = tgAdapter.NewClientWithConfig(a.Cfg.Telegram, a.Log)

	profileService := profileUsecase.New(repos.Profiles, a.Log)
	catalogService := catalog.New(repos.Items, a.Log)
	inventoryService := inventory.New(repos.Entitlements, repos.Items, externals.Events, a.Log)
	paymentService := a.initPayment(deps.TelegramClient, repos, inventoryService, externals)

	tgService := telegramService.New(paymentService, deps.TelegramClient, externals.Cache, a.Log)

	verifier := identity.NewVerifier(a.Cfg.Telegram.BotToken, identity.WithMaxAge(a.Cfg.Identity.MaxAge))

	controllers := []server.Controller{
		healthcheckController.New(pingers, a.Log),
		miniappController.New(
			catalogService,
			paymentService,
			inventoryService,
			middlewares.TelegramAuth(verifier, profileService, a.Log),
			a.Log,
		),
		adminController.New(catalogService, middlewares.AdminToken(a.Cfg.Server.AdminToken, a.Log), a.Log),
		alerterController.New(externals.Alerter, middlewares.AdminToken(a.Cfg.Server.AdminToken, a.Log), a.Log),
	}
	if a.Cfg.Telegram.IsWebhookEnabled() {
		controllers = append(controllers, telegramController.New(tgService, a.Cfg.Telegram.WebhookSecret, a.Log))
	}
	deps.HTTPServer = server.NewHTTPServer(a.Cfg.Server, a.Log, controllers...)

	poller, err := a.initTelegramMode(ctx, tgService, deps.TelegramClient)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram mode: %w", err)
	}
	deps.TelegramPoller = poller

	deps.JobScheduler = a.initJobScheduler(repos, externals.Alerter)

	return deps, nil
}

// repositories содержит инициализированные репозитории
type repositories struct {
	Transactions repository.ITransactionRepo
	Items        repository.IStoreItemRepo
	Entitlements repository.IEntitlementRepo
	Profiles     repository.IProfileRepo
}

// initRepositories postgres или in-memory, по STORAGE_DRIVER
func (a *App) initRepositories(
	ctx context.Context,
	deps *Dependencies,
	pingers map[string]healthcheckController.Pinger,
) (*repositories, error) {
	if a.Cfg.Storage.Driver == StorageDriverMemory {
		a.Log.Warn("in-memory storage enabled - data is lost on restart")
		return &repositories{
			Transactions: inmemory.NewTransactionRepo(),
			Items:        inmemory.NewStoreItemRepo(),
			Entitlements: inmemory.NewEntitlementRepo(),
			Profiles:     inmemory.NewProfileRepo(),
		}, nil
	}

	db, err := a.Cfg.Postgres.NewConnection(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	a.Log.Info("postgres connected successfully")

	if err := pg.RunMigrations(ctx, db, a.Log); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	persistenceLayer := pg.NewDB(db)
	pingers["postgres"] = persistenceLayer
	deps.onClose("postgres", persistenceLayer.Close)

	return &repositories{
		Transactions: paymentRepo.New(persistenceLayer, a.Log),
		Items:        storeRepo.New(persistenceLayer, a.Log),
		Entitlements: entitlementRepo.New(persistenceLayer, a.Log),
		Profiles:     profileRepo.New(persistenceLayer, a.Log),
	}, nil
}

// externalServices содержит внешние сервисы (все опциональные)
type externalServices struct {
	Alerter service.IAlerterService
	Cache   cache.Cache
	Images  storage.IImageResolver
	Events  kafka.IEventPublisher
}

// initExternalServices инициализирует Alerter, Cache, S3 и Kafka
func (a *App) initExternalServices(
	ctx context.Context,
	deps *Dependencies,
	pingers map[string]healthcheckController.Pinger,
) (*externalServices, error) {
	services := &externalServices{}

	// Alerter - без чата поддержки алерты только логируются
	var sender alerterService.Sender
	if client := alerterAdapter.NewClient(a.Cfg.Alerter, a.Log); client != nil {
		sender = client
	} else {
		a.Log.Warn("alerter chat is not configured, alerts go to log only")
	}
	services.Alerter = alerterService.New(sender, a.Log)

	// Cache - для дедупликации апдейтов
	services.Cache = a.initCache(ctx, pingers)
	deps.onClose("cache", services.Cache.Close)

	// S3 - картинки товаров по ссылкам s3://
	services.Images = s3Adapter.PassthroughResolver{}
	if a.Cfg.S3.Enabled() {
		minioClient, err := a.Cfg.S3.NewClient(ctx)
		if err != nil {
			a.Log.Warn("failed to init s3, item images with s3:// refs are skipped", "error", err)
		} else {
			services.Images = s3Adapter.NewClient(minioClient, a.Cfg.S3.Bucket, a.Cfg.S3.PresignTTL, a.Log)
			a.Log.Info("s3 connected successfully", "bucket", a.Cfg.S3.Bucket)
		}
	}

	// Kafka - события о выданных товарах
	if a.Cfg.Kafka.Enabled() {
		producer, err := kafkaAdapter.NewProducer(a.Cfg.Kafka, a.Log)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka producer: %w", err)
		}
		services.Events = producer
		a.Log.Info("kafka producer created", "topic", a.Cfg.Kafka.Topic)
	} else {
		services.Events = &kafkaAdapter.LogPublisher{Log: a.Log}
	}
	deps.onClose("kafka", services.Events.Close)

	return services, nil
}

func (a *App) initCache(ctx context.Context, pingers map[string]healthcheckController.Pinger) cache.Cache {
	if a.Cfg.Cache.Driver == CacheDriverRedis {
		redisClient, err := a.Cfg.Redis.NewConnection(ctx)
		if err == nil {
			client := redisAdapter.NewClient(redisClient, a.Cfg.Redis.KeyPrefix)
			pingers["redis"] = client
			a.Log.Info("redis cache connected successfully")
			return client
		}
		a.Log.Warn("failed to init redis cache, falling back to in-memory cache", "error", err)
	}
	return inmemory.NewCache(a.Cfg.Cache.SweepInterval)
}

// initPayment собирает Stars провайдер и payment use case
func (a *App) initPayment(
	client *tgAdapter.Client,
	repos *repositories,
	granter paymentUsecase.Granter,
	externals *externalServices,
) *paymentUsecase.Service {
	provider := starsProvider.NewProvider(client, a.Log).
		WithRetry(a.Cfg.Payment.RetryAttempts, a.Cfg.Payment.RetryDelay)

	return paymentUsecase.New(
		repos.Transactions,
		repos.Items,
		repos.Profiles,
		provider,
		granter,
		externals.Images,
		externals.Alerter,
		a.Log,
	)
}

// initTelegramMode инициализирует режим работы Telegram (webhook или polling)
func (a *App) initTelegramMode(
	ctx context.Context,
	tgService *telegramService.Service,
	client *tgAdapter.Client,
) (*tgAdapter.Poller, error) {
	a.Log.Info("telegram configuration",
		"use_webhook", a.Cfg.Telegram.IsWebhookEnabled(),
		"webhook_url", a.Cfg.Telegram.WebhookURL,
	)

	if a.Cfg.Telegram.IsWebhookEnabled() {
		webhookURL := fmt.Sprintf("%s/webhook", a.Cfg.Telegram.WebhookURL)
		if err := client.SetWebhook(ctx, webhookURL, a.Cfg.Telegram.WebhookSecret); err != nil {
			return nil, fmt.Errorf("failed to set webhook: %w", err)
		}
		a.Log.Info("webhook set successfully", "webhook_url", webhookURL)
		return nil, nil // webhook режим, poller не нужен
	}

	a.Log.Warn("polling mode enabled - this should only be used for local development")
	handler := func(ctx context.Context, update *domain.Update) error {
		_, err := tgService.HandleUpdate(ctx, update)
		return err
	}
	return tgAdapter.NewPoller(client, a.Cfg.Telegram, handler, a.Log), nil
}

// initJobScheduler инициализирует планировщик джоб
func (a *App) initJobScheduler(repos *repositories, alerterSvc service.IAlerterService) *jobScheduler.Scheduler {
	scheduler := jobScheduler.NewScheduler(a.Log, alerterSvc)

	scheduler.Register(jobScheduler.NewStalePendingMonitor(repos.Transactions, alerterSvc, *a.Cfg.Jobs, a.Log))
	a.Log.Info("stale pending monitor job registered",
		"interval", a.Cfg.Jobs.Interval.String(),
		"threshold", a.Cfg.Jobs.Threshold.String(),
	)

	return scheduler
}
