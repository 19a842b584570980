package app

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	server "github.com/telewall/miniapp-backend/internal/adapters/primary/http"
	alerterAdapter "github.com/telewall/miniapp-backend/internal/adapters/secondary/alerter"
	kafkaAdapter "github.com/telewall/miniapp-backend/internal/adapters/secondary/kafka"
	"github.com/telewall/miniapp-backend/internal/adapters/secondary/storage/pg"
	redisAdapter "github.com/telewall/miniapp-backend/internal/adapters/secondary/storage/redis"
	s3Adapter "github.com/telewall/miniapp-backend/internal/adapters/secondary/storage/s3"
	"github.com/telewall/miniapp-backend/internal/adapters/secondary/telegram"
	"github.com/telewall/miniapp-backend/internal/pkg/logger"
	"github.com/telewall/miniapp-backend/internal/services/identity"
	"github.com/telewall/miniapp-backend/internal/services/jobs"
)

const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"

	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
)

type Config struct {
	Log      *logger.Config           `envconfig:"LOG"`
	Server   *server.Config           `envconfig:"APISERVER"`
	Telegram *telegram.Config         `envconfig:"TELEGRAM"`
	Identity *identity.Config         `envconfig:"INITDATA"`
	Payment  *PaymentConfig           `envconfig:"PAYMENT"`
	Storage  *StorageConfig           `envconfig:"STORAGE"`
	Postgres *pg.Config               `envconfig:"POSTGRES"`
	Cache    *CacheConfig             `envconfig:"CACHE"`
	Redis    *redisAdapter.Config     `envconfig:"REDIS"`
	S3       *s3Adapter.Config        `envconfig:"S3"`
	Kafka    *kafkaAdapter.Config     `envconfig:"KAFKA"`
	Alerter  *alerterAdapter.Config   `envconfig:"ALERTER"`
	Jobs     *jobs.StalePendingConfig `envconfig:"STALE_PENDING"`
}

// PaymentConfig повторы вызовов Bot API в Stars провайдере
type PaymentConfig struct {
	RetryAttempts uint          `envconfig:"RETRY_ATTEMPTS" default:"3"`
	RetryDelay    time.Duration `envconfig:"RETRY_DELAY" default:"300ms"`
}

type StorageConfig struct {
	Driver string `envconfig:"DRIVER" default:"postgres"` // postgres | memory
}

type CacheConfig struct {
	Driver        string        `envconfig:"DRIVER" default:"memory"` // memory | redis
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`
}

func NewEnvConfig(envPrefix string) (*Config, error) {
	cfg := &Config{}

	_ = godotenv.Load("deployments/local/.env")

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverMemory, StorageDriverPostgres:
	default:
		return fmt.Errorf("unknown storage driver: %s", c.Storage.Driver)
	}

	switch c.Cache.Driver {
	case CacheDriverMemory, CacheDriverRedis:
	default:
		return fmt.Errorf("unknown cache driver: %s", c.Cache.Driver)
	}

	if c.Telegram.IsWebhookEnabled() {
		if c.Telegram.WebhookURL == "" {
			return fmt.Errorf("webhook_url is required when use_webhook is true")
		}
		if c.Telegram.WebhookSecret == "" {
			return fmt.Errorf("webhook_secret is required when use_webhook is true")
		}
	}

	if c.Payment.RetryAttempts == 0 {
		return fmt.Errorf("payment retry attempts must be positive")
	}

	if c.Jobs.Interval <= 0 {
		return fmt.Errorf("stale pending interval must be positive")
	}

	return nil
}

// MigrateConfig минимальная конфигурация для команды migrate
type MigrateConfig struct {
	Log      *logger.Config `envconfig:"LOG"`
	Postgres *pg.Config     `envconfig:"POSTGRES"`
}

func NewMigrateConfig(envPrefix string) (*MigrateConfig, error) {
	cfg := &MigrateConfig{}

	_ = godotenv.Load("deployments/local/.env")

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
