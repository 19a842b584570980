package jobs

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/telewall/miniapp-backend/internal/adapters/secondary/storage/inmemory"
	"github.com/telewall/miniapp-backend/internal/domain"
	"github.com/telewall/miniapp-backend/internal/pkg/logger"
)

type recordingAlerter struct {
	mu       sync.Mutex
	messages []string
}

func (a *recordingAlerter) SendAlert(_ context.Context, message string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, message)
	return nil
}

func (a *recordingAlerter) snapshot() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.messages...)
}

// onceJob запускается сразу один раз, дальше - не раньше чем через час
type onceJob struct {
	failures int32
	calls    atomic.Int32
	started  atomic.Bool
	done     chan struct{}
}

func (j *onceJob) Name() string { return "once" }

func (j *onceJob) NextRun(now time.Time) time.Time {
	if j.started.CompareAndSwap(false, true) {
		return now
	}
	return now.Add(time.Hour)
}

func (j *onceJob) Run(context.Context) error {
	n := j.calls.Add(1)
	if n <= j.failures {
		return errors.New("attempt failed")
	}
	close(j.done)
	return nil
}

func TestScheduler_RetriesUntilSuccess(t *testing.T) {
	alerter := &recordingAlerter{}
	s := NewScheduler(logger.Discard(), alerter, time.Millisecond, time.Millisecond, time.Millisecond)
	job := &onceJob{failures: 2, done: make(chan struct{})}
	s.Register(job)

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		_ = s.Start(ctx)
		close(finished)
	}()

	select {
	case <-job.done:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not succeed")
	}
	cancel()
	<-finished

	require.Equal(t, int32(3), job.calls.Load())
	require.Empty(t, alerter.snapshot())
}

type failingJob struct {
	calls atomic.Int32
}

func (j *failingJob) Name() string                    { return "always-failing" }
func (j *failingJob) NextRun(now time.Time) time.Time { return now.Add(time.Hour) }
func (j *failingJob) Run(context.Context) error {
	j.calls.Add(1)
	return errors.New("boom")
}

func TestScheduler_AlertsAfterAllRetries(t *testing.T) {
	alerter := &recordingAlerter{}
	s := NewScheduler(logger.Discard(), alerter, time.Millisecond, time.Millisecond)
	job := &failingJob{}

	attemptErrors, err := s.executeJobWithRetry(context.Background(), job)
	require.Error(t, err)
	require.Len(t, attemptErrors, 3)
	require.Equal(t, int32(3), job.calls.Load())

	s.sendAlert(context.Background(), job.Name(), attemptErrors)
	messages := alerter.snapshot()
	require.Len(t, messages, 1)
	require.Contains(t, messages[0], "Джоба: always-failing")
	require.Equal(t, 3, strings.Count(messages[0], "boom"))
}

func TestScheduler_RetryStopsOnCancel(t *testing.T) {
	s := NewScheduler(logger.Discard(), nil, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attemptErrors, err := s.executeJobWithRetry(ctx, &failingJob{})
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, attemptErrors, 1)
}

func TestScheduler_NoJobs(t *testing.T) {
	s := NewScheduler(logger.Discard(), nil)
	require.NoError(t, s.Start(context.Background()))
}

func TestStalePendingMonitor(t *testing.T) {
	ctx := context.Background()
	repo := inmemory.NewTransactionRepo()
	alerter := &recordingAlerter{}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	monitor := NewStalePendingMonitor(repo, alerter, StalePendingConfig{Interval: 5 * time.Minute, Threshold: 30 * time.Minute}, logger.Discard())
	monitor.now = func() time.Time { return now }

	insert := func(created time.Time, status domain.TransactionStatus) {
		require.NoError(t, repo.Insert(ctx, &domain.PaymentTransaction{
			ID:             uuid.New(),
			BuyerProfileID: uuid.New(),
			StoreItemID:    uuid.New(),
			InvoicePayload: "tw_" + uuid.NewString(),
			AmountUnits:    10,
			Currency:       domain.CurrencyStars,
			Status:         status,
			CreatedAt:      created,
			UpdatedAt:      created,
		}))
	}

	require.NoError(t, monitor.Run(ctx))
	require.Empty(t, alerter.snapshot())

	insert(now.Add(-time.Hour), domain.TransactionStatusPending)
	insert(now.Add(-time.Minute), domain.TransactionStatusPending)
	insert(now.Add(-time.Hour), domain.TransactionStatusCompleted)

	require.NoError(t, monitor.Run(ctx))
	require.Len(t, alerter.snapshot(), 1)
	require.Contains(t, alerter.snapshot()[0], "*Count:* 1")

	// то же число повторно не алертится
	require.NoError(t, monitor.Run(ctx))
	require.Len(t, alerter.snapshot(), 1)
}

func TestStalePendingMonitor_NextRun(t *testing.T) {
	monitor := NewStalePendingMonitor(nil, nil, StalePendingConfig{Interval: 5 * time.Minute}, logger.Discard())
	now := time.Date(2024, 5, 1, 12, 3, 10, 0, time.UTC)
	require.Equal(t, time.Date(2024, 5, 1, 12, 5, 0, 0, time.UTC), monitor.NextRun(now))
}
