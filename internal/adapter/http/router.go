package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pirnawaz/agroledger/internal/adapter/http/handler"
	"github.com/pirnawaz/agroledger/internal/adapter/http/middleware"
	"github.com/pirnawaz/agroledger/internal/infrastructure/metrics"
	"github.com/pirnawaz/agroledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler     *handler.AccountHandler
	PostingHandler     *handler.PostingHandler
	CorrectionHandler  *handler.CorrectionHandler
	PeriodCloseHandler *handler.PeriodCloseHandler
	ReportHandler      *handler.ReportHandler
	SettlementHandler  *handler.SettlementHandler
	LedgerHandler      *handler.LedgerHandler
	AuditHandler       *handler.AuditHandler
	HealthHandler      *handler.HealthHandler
	IdempotencyStore   usecase.IdempotencyStore
	IdempotencyTTL     time.Duration // zero uses the middleware default
	Logger             zerolog.Logger
	Metrics            *metrics.Metrics
	AllowedOrigins     []string
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.Actor)
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", handler.TenantIDHeader, middleware.ActorIDHeader, middleware.IdempotencyKeyHeader},
		MaxAge:         300,
	}))

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Chart of accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/{code}", cfg.AccountHandler.GetByCode)
		})

		// Postings
		r.Route("/postings", func(r chi.Router) {
			r.Post("/", cfg.PostingHandler.Create)
			r.Get("/{id}", cfg.PostingHandler.Get)
			r.Post("/{id}/reverse", cfg.CorrectionHandler.Reverse)
			r.Post("/{id}/correct", cfg.CorrectionHandler.Correct)
		})
		r.Post("/reclassifications", cfg.CorrectionHandler.Reclassify)

		// Period close
		r.Route("/crop-cycles", func(r chi.Router) {
			r.Post("/{id}/close", cfg.PeriodCloseHandler.Close)
			r.Get("/{id}/close", cfg.PeriodCloseHandler.GetRun)
		})

		// Reports
		r.Route("/reports", func(r chi.Router) {
			r.Get("/trial-balance", cfg.ReportHandler.TrialBalance)
			r.Get("/profit-and-loss", cfg.ReportHandler.ProfitAndLoss)
			r.Get("/balance-sheet", cfg.ReportHandler.BalanceSheet)
			r.Get("/general-ledger/{id}", cfg.ReportHandler.GeneralLedger)
		})

		// Settlement packs
		r.Route("/settlement-packs", func(r chi.Router) {
			r.Post("/", cfg.SettlementHandler.Generate)
			r.Get("/{id}", cfg.SettlementHandler.Get)
			r.Post("/{id}/submit", cfg.SettlementHandler.Submit)
			r.Post("/{id}/approve", cfg.SettlementHandler.Approve)
			r.Post("/{id}/reject", cfg.SettlementHandler.Reject)
			r.Get("/{id}/document", cfg.SettlementHandler.Export)
		})

		// Ledger integrity
		r.Get("/ledger/consistency", cfg.LedgerHandler.CheckConsistency)

		// Audit trail
		r.Get("/audit-logs", cfg.AuditHandler.List)
	})

	return r
}
