package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpDurationHistogram *prometheus.HistogramVec
	webhookEventCounter   *prometheus.CounterVec
	depositSettledCounter prometheus.Counter
	referralBonusCounter  prometheus.Counter
	dispatchOrderCounter  *prometheus.CounterVec
	workerRunCounter      *prometheus.CounterVec
	negativeBalanceGauge  prometheus.Gauge
	stalePendingGauge     prometheus.Gauge
	idempotencyCounter    *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		webhookEventCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deposit_webhook_events_total",
			Help: "Deposit webhook outcomes",
		}, []string{"outcome"})

		depositSettledCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deposits_settled_total",
			Help: "Deposits settled exactly once via webhook or admin override",
		})

		referralBonusCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "referral_bonuses_paid_total",
			Help: "Referral bonuses credited",
		})

		dispatchOrderCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_orders_total",
			Help: "Per-order dispatcher outcomes",
		}, []string{"outcome"})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		negativeBalanceGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "negative_balance_profiles",
			Help: "Profiles with a negative balance; must be zero",
		})

		stalePendingGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stale_pending_orders",
			Help: "Pending orders older than the dispatch staleness window",
		})

		idempotencyCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idempotency_events_total",
			Help: "Idempotency middleware outcomes",
		}, []string{"outcome"})

		prometheus.MustRegister(
			httpDurationHistogram,
			webhookEventCounter,
			depositSettledCounter,
			referralBonusCounter,
			dispatchOrderCounter,
			workerRunCounter,
			negativeBalanceGauge,
			stalePendingGauge,
			idempotencyCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementWebhookEvent(outcome string) {
	if webhookEventCounter == nil {
		return
	}
	webhookEventCounter.WithLabelValues(outcome).Inc()
}

func IncrementDepositSettled() {
	if depositSettledCounter == nil {
		return
	}
	depositSettledCounter.Inc()
}

func IncrementReferralBonus() {
	if referralBonusCounter == nil {
		return
	}
	referralBonusCounter.Inc()
}

func IncrementDispatchOrder(outcome string) {
	if dispatchOrderCounter == nil {
		return
	}
	dispatchOrderCounter.WithLabelValues(outcome).Inc()
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}

func SetNegativeBalanceProfiles(n int64) {
	if negativeBalanceGauge == nil {
		return
	}
	negativeBalanceGauge.Set(float64(n))
}

func SetStalePendingOrders(n int64) {
	if stalePendingGauge == nil {
		return
	}
	stalePendingGauge.Set(float64(n))
}

func IncrementIdempotencyEvent(outcome string) {
	if idempotencyCounter == nil {
		return
	}
	idempotencyCounter.WithLabelValues(outcome).Inc()
}
