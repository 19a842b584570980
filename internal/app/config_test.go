package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewEnvConfig_Defaults(t *testing.T) {
	t.Setenv("TEST_TELEGRAM_BOT_TOKEN", "42:secret")

	cfg, err := NewEnvConfig("TEST")
	require.NoError(t, err)

	require.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
	require.Equal(t, CacheDriverMemory, cfg.Cache.Driver)
	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, uint(3), cfg.Payment.RetryAttempts)
	require.Equal(t, 300*time.Millisecond, cfg.Payment.RetryDelay)
	require.Equal(t, 5*time.Minute, cfg.Jobs.Interval)
	require.Equal(t, 30*time.Minute, cfg.Jobs.Threshold)
	require.Zero(t, cfg.Identity.MaxAge)
	require.False(t, cfg.Telegram.IsWebhookEnabled())
	require.False(t, cfg.S3.Enabled())
	require.False(t, cfg.Kafka.Enabled())
}

func TestNewEnvConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing bot token", env: map[string]string{}},
		{name: "unknown storage", env: map[string]string{"TEST_STORAGE_DRIVER": "mongo"}},
		{name: "unknown cache", env: map[string]string{"TEST_CACHE_DRIVER": "memcached"}},
		{name: "webhook without url", env: map[string]string{
			"TEST_TELEGRAM_USE_WEBHOOK":    "true",
			"TEST_TELEGRAM_WEBHOOK_SECRET": "s",
		}},
		{name: "webhook without secret", env: map[string]string{
			"TEST_TELEGRAM_USE_WEBHOOK": "true",
			"TEST_TELEGRAM_WEBHOOK_URL": "https://example.com",
		}},
		{name: "zero retry attempts", env: map[string]string{"TEST_PAYMENT_RETRY_ATTEMPTS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.name != "missing bot token" {
				t.Setenv("TEST_TELEGRAM_BOT_TOKEN", "42:secret")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := NewEnvConfig("TEST")
			require.Error(t, err)
		})
	}
}
