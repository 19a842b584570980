package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/telewall/miniapp-backend/internal/pkg/metrics"
	"github.com/telewall/miniapp-backend/internal/ports/repository"
	"github.com/telewall/miniapp-backend/internal/ports/service"
)

const stalePendingMonitorName = "stale-pending-monitor"

type StalePendingConfig struct {
	Interval  time.Duration `envconfig:"INTERVAL" default:"5m"`
	Threshold time.Duration `envconfig:"THRESHOLD" default:"30m"` // pending старше считается зависшей
}

// StalePendingMonitor считает зависшие pending транзакции. Статусы не меняет.
type StalePendingMonitor struct {
	transactionRepo repository.ITransactionRepo
	alerterService  service.IAlerterService
	interval        time.Duration
	threshold       time.Duration
	log             *slog.Logger

	lastAlerted int64
	now         func() time.Time
}

func NewStalePendingMonitor(
	transactionRepo repository.ITransactionRepo,
	alerterService service.IAlerterService,
	cfg StalePendingConfig,
	log *slog.Logger,
) *StalePendingMonitor {
	return &StalePendingMonitor{
		transactionRepo: transactionRepo,
		alerterService:  alerterService,
		interval:        cfg.Interval,
		threshold:       cfg.Threshold,
		log:             log,
		now:             time.Now,
	}
}

func (j *StalePendingMonitor) Name() string {
	return stalePendingMonitorName
}

// NextRun каждые interval, выровнено по интервалу
func (j *StalePendingMonitor) NextRun(now time.Time) time.Time {
	return now.Truncate(j.interval).Add(j.interval)
}

// Run алертит только при изменении числа зависших транзакций
func (j *StalePendingMonitor) Run(ctx context.Context) error {
	count, err := j.transactionRepo.CountPendingOlderThan(ctx, j.now().Add(-j.threshold))
	if err != nil {
		return fmt.Errorf("failed to count stale pending transactions: %w", err)
	}
	metrics.SetStalePending(count)

	if count == 0 {
		j.lastAlerted = 0
		return nil
	}

	j.log.Warn("stale pending transactions found",
		"count", count,
		"threshold", j.threshold.String(),
	)

	if count == j.lastAlerted || j.alerterService == nil {
		return nil
	}
	j.lastAlerted = count

	message := fmt.Sprintf("⏳ *Stale Pending Transactions*\n\n*Count:* %d\n*Older than:* %s", count, j.threshold)
	if err := j.alerterService.SendAlert(ctx, message); err != nil {
		j.log.Warn("failed to send stale pending alert", "error", err)
	}
	return nil
}
