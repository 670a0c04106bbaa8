package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Posting metrics
	PostingsCreated    prometheus.Counter
	PostingsDuplicate  prometheus.Counter
	PostingsUnbalanced prometheus.Counter
	PostingDuration    prometheus.Histogram

	// Correction metrics
	Reversals   prometheus.Counter
	Corrections prometheus.Counter
	Reclasses   prometheus.Counter

	// Period close metrics
	PeriodCloses       prometheus.Counter
	PeriodCloseNoOps   prometheus.Counter

	// Settlement metrics
	PackTransitions *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBErrors *prometheus.CounterVec

	// Report metrics
	ReportCacheHits   prometheus.Counter
	ReportCacheMisses prometheus.Counter
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates and registers all Prometheus metrics on reg.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		PostingsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "agroledger_postings_created_total",
			Help: "Total number of posting groups created",
		}),
		PostingsDuplicate: factory.NewCounter(prometheus.CounterOpts{
			Name: "agroledger_postings_duplicate_total",
			Help: "Total number of idempotent no-op posting requests",
		}),
		PostingsUnbalanced: factory.NewCounter(prometheus.CounterOpts{
			Name: "agroledger_postings_unbalanced_total",
			Help: "Total number of posting requests rejected as unbalanced",
		}),
		PostingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "agroledger_posting_duration_seconds",
			Help:    "Duration of posting operations",
			Buckets: prometheus.DefBuckets,
		}),

		Reversals: factory.NewCounter(prometheus.CounterOpts{
			Name: "agroledger_reversals_total",
			Help: "Total number of posting groups reversed",
		}),
		Corrections: factory.NewCounter(prometheus.CounterOpts{
			Name: "agroledger_corrections_total",
			Help: "Total number of three-way corrections applied",
		}),
		Reclasses: factory.NewCounter(prometheus.CounterOpts{
			Name: "agroledger_reclasses_total",
			Help: "Total number of allocation reclassifications applied",
		}),

		PeriodCloses: factory.NewCounter(prometheus.CounterOpts{
			Name: "agroledger_period_closes_total",
			Help: "Total number of crop cycles consolidated",
		}),
		PeriodCloseNoOps: factory.NewCounter(prometheus.CounterOpts{
			Name: "agroledger_period_close_noops_total",
			Help: "Total number of idempotent period close re-invocations",
		}),

		PackTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agroledger_settlement_pack_transitions_total",
				Help: "Total settlement pack state transitions",
			},
			[]string{"transition"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agroledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agroledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		DBErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agroledger_db_errors_total",
				Help: "Total database errors by operation",
			},
			[]string{"operation"},
		),

		ReportCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "agroledger_report_cache_hits_total",
			Help: "Total report cache hits",
		}),
		ReportCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "agroledger_report_cache_misses_total",
			Help: "Total report cache misses",
		}),
	}
}
