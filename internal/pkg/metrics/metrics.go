package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "telewall"

var (
	authRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_rejections_total",
			Help:      "initData verification failures by reason",
		},
		[]string{"reason"},
	)

	transactionsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_created_total",
			Help:      "Purchase attempts by result",
		},
		[]string{"result"},
	)

	preCheckoutAnswers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pre_checkout_answers_total",
			Help:      "pre_checkout_query answers",
		},
		[]string{"accepted"},
	)

	paymentConfirmations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_confirmations_total",
			Help:      "successful_payment deliveries by outcome",
		},
		[]string{"outcome"},
	)

	entitlementsGranted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entitlements_granted_total",
			Help:      "Entitlements granted to buyers",
		},
	)

	stalePending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stale_pending_transactions",
			Help:      "Pending transactions older than the configured threshold",
		},
	)

	jobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Scheduled job runs by result",
		},
		[]string{"job", "result"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)
)

func AuthRejected(reason string) {
	authRejections.WithLabelValues(reason).Inc()
}

// TransactionCreated result: created, item_not_found, gateway_error, error
func TransactionCreated(result string) {
	transactionsCreated.WithLabelValues(result).Inc()
}

func PreCheckoutAnswered(accepted bool) {
	preCheckoutAnswers.WithLabelValues(strconv.FormatBool(accepted)).Inc()
}

// PaymentConfirmed outcome: completed, duplicate, not_found, invalid_transition, error
func PaymentConfirmed(outcome string) {
	paymentConfirmations.WithLabelValues(outcome).Inc()
}

func EntitlementGranted() {
	entitlementsGranted.Inc()
}

func SetStalePending(count int64) {
	stalePending.Set(float64(count))
}

// JobRun result: ok, failed
func JobRun(job, result string) {
	jobRuns.WithLabelValues(job, result).Inc()
}

func ObserveHTTPRequest(route, method string, status int, elapsed time.Duration) {
	httpRequestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
