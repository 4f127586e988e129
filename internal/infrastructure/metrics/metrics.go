package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	LedgerOperations *prometheus.CounterVec
	LedgerErrors     *prometheus.CounterVec
	LedgerDuration   *prometheus.HistogramVec
	DBRetries        *prometheus.CounterVec

	// Deposit metrics
	DepositsInitialized prometheus.Counter
	DepositsCredited    *prometheus.CounterVec
	DepositClaimsLost   *prometheus.CounterVec
	DepositAmount       prometheus.Histogram
	WebhooksReceived    *prometheus.CounterVec

	// Withdrawal metrics
	WithdrawalsRequested prometheus.Counter
	WithdrawalsResolved  *prometheus.CounterVec
	WithdrawalAmount     prometheus.Histogram

	// Gateway metrics
	GatewayRequests *prometheus.CounterVec
	GatewayDuration *prometheus.HistogramVec

	// Reconciliation metrics
	ReconciliationRuns *prometheus.CounterVec
	StaleWithdrawals   prometheus.Gauge
	BalanceMismatches  prometheus.Gauge
	OutboxPublished    *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Rate limiting metrics
	RateLimitHits prometheus.Counter
}

var amountBuckets = []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates all metrics on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		// Ledger metrics
		LedgerOperations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_ledger_operations_total",
				Help: "Total ledger postings by direction and transaction type",
			},
			[]string{"direction", "type"},
		),
		LedgerErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_ledger_errors_total",
				Help: "Total failed ledger postings by direction and error type",
			},
			[]string{"direction", "error_type"},
		),
		LedgerDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "walletledger_ledger_duration_seconds",
				Help:    "Duration of ledger postings",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"direction"},
		),

		DBRetries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_db_retries_total",
				Help: "Ledger transactions retried after a transient PostgreSQL error, by SQLSTATE",
			},
			[]string{"sqlstate"},
		),

		// Deposit metrics
		DepositsInitialized: f.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_deposits_initialized_total",
			Help: "Total number of deposits initialized",
		}),
		DepositsCredited: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_deposits_credited_total",
				Help: "Total deposits credited by confirmation channel",
			},
			[]string{"channel"},
		),
		DepositClaimsLost: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_deposit_claims_already_processed_total",
				Help: "Claims that found the deposit already completed, by channel",
			},
			[]string{"channel"},
		),
		DepositAmount: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "walletledger_deposit_amount",
			Help:    "Credited deposit amounts",
			Buckets: amountBuckets,
		}),
		WebhooksReceived: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_webhooks_received_total",
				Help: "Gateway webhooks by outcome",
			},
			[]string{"outcome"},
		),

		// Withdrawal metrics
		WithdrawalsRequested: f.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_withdrawals_requested_total",
			Help: "Total number of withdrawals debited and persisted",
		}),
		WithdrawalsResolved: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_withdrawals_resolved_total",
				Help: "Withdrawals reaching a terminal state",
			},
			[]string{"status"},
		),
		WithdrawalAmount: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "walletledger_withdrawal_amount",
			Help:    "Requested withdrawal amounts",
			Buckets: amountBuckets,
		}),

		// Gateway metrics
		GatewayRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_gateway_requests_total",
				Help: "Outbound gateway calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		GatewayDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "walletledger_gateway_duration_seconds",
				Help:    "Outbound gateway call duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		// Reconciliation metrics
		ReconciliationRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_reconciliation_runs_total",
				Help: "Reconciliation sweeps by kind and result",
			},
			[]string{"kind", "result"},
		),
		StaleWithdrawals: f.NewGauge(prometheus.GaugeOpts{
			Name: "walletledger_stale_withdrawals",
			Help: "Processing withdrawals past the stale threshold that the gateway could not resolve",
		}),
		BalanceMismatches: f.NewGauge(prometheus.GaugeOpts{
			Name: "walletledger_balance_mismatches",
			Help: "Wallets whose balance differs from the sum of their transactions",
		}),
		OutboxPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_outbox_events_total",
				Help: "Outbox events relayed by event type and result",
			},
			[]string{"event_type", "result"},
		),

		// API metrics
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "walletledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "walletledger_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),

		// Rate limiting metrics
		RateLimitHits: f.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_rate_limit_hits_total",
			Help: "Total requests rejected by the rate limiter",
		}),
	}
}
