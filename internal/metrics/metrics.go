package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "freight",
			Name:      "booking_transitions_total",
			Help:      "Count of booking status transitions by target status.",
		},
		[]string{"status"},
	)

	quoteAcceptance = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "freight",
			Name:      "quote_acceptance_total",
			Help:      "Count of quote acceptance attempts by outcome.",
		},
		[]string{"outcome"},
	)

	ledgerOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "freight",
			Name:      "ledger_operations_total",
			Help:      "Count of ledger operations by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	ledgerVolume = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "freight",
			Name:      "ledger_volume_cents_total",
			Help:      "Sum of money moved by transaction type, in minor units.",
		},
		[]string{"type"},
	)

	httpRequests = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "freight",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status code.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "code"},
	)

	reconcileDrift = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "freight",
			Name:      "ledger_reconcile_drift_wallets",
			Help:      "Wallets whose balances differ from the replay of their transactions.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingTransitions, quoteAcceptance, ledgerOperations, ledgerVolume, httpRequests, reconcileDrift)
	})
}

func IncBookingTransition(status string) {
	bookingTransitions.WithLabelValues(status).Inc()
}

func IncQuoteAcceptance(outcome string) {
	quoteAcceptance.WithLabelValues(outcome).Inc()
}

func IncLedgerOperation(operation, outcome string) {
	ledgerOperations.WithLabelValues(operation, outcome).Inc()
}

func AddLedgerVolume(txType string, cents int64) {
	ledgerVolume.WithLabelValues(txType).Add(float64(cents))
}

func SetReconcileDrift(wallets int) {
	reconcileDrift.Set(float64(wallets))
}

// ObserveHTTPRequest: route берётся из шаблона маршрута, а не из фактического пути.
func ObserveHTTPRequest(method, route string, code int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Observe(elapsed.Seconds())
}
