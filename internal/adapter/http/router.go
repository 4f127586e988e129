package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/adapter/http/handler"
	"github.com/iho/walletledger/internal/adapter/http/middleware"
	"github.com/iho/walletledger/internal/infrastructure/metrics"
	"github.com/iho/walletledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	WalletHandler     *handler.WalletHandler
	DepositHandler    *handler.DepositHandler
	WebhookHandler    *handler.WebhookHandler
	WithdrawalHandler *handler.WithdrawalHandler
	PayoutHandler     *handler.PayoutHandler
	AdminHandler      *handler.AdminHandler
	HealthHandler     *handler.HealthHandler

	// Authenticate puts the caller in the request context: middleware.AuthMiddleware
	// in production, middleware.HeaderAuth for local runs.
	Authenticate func(http.Handler) http.Handler

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Metrics          *metrics.Metrics
	MetricsHandler   http.Handler
	Logger           zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	authenticate := cfg.Authenticate
	if authenticate == nil {
		authenticate = middleware.HeaderAuth
	}

	idempotent := func(next http.Handler) http.Handler { return next }
	if cfg.IdempotencyStore != nil {
		idempotent = middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger).Wrap
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// The gateway authenticates with the body signature, not a caller token.
		r.Post("/webhooks/paystack", cfg.WebhookHandler.Paystack)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Route("/wallet", func(r chi.Router) {
				r.Get("/", cfg.WalletHandler.Get)
				r.Get("/transactions", cfg.WalletHandler.Transactions)
			})

			r.Route("/deposits", func(r chi.Router) {
				r.With(idempotent).Post("/", cfg.DepositHandler.Initialize)
				r.Get("/verify", cfg.DepositHandler.Verify)
			})

			r.Route("/payout-methods", func(r chi.Router) {
				r.Get("/", cfg.PayoutHandler.List)
				r.Post("/", cfg.PayoutHandler.Create)
			})

			r.Route("/withdrawals", func(r chi.Router) {
				r.With(idempotent).Post("/", cfg.WithdrawalHandler.Create)
				r.Get("/", cfg.WithdrawalHandler.List)
				r.Get("/{id}", cfg.WithdrawalHandler.Get)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Get("/consistency", cfg.AdminHandler.Consistency)
				r.Post("/reconcile", cfg.AdminHandler.Reconcile)
				r.Post("/wallets/{userID}/freeze", cfg.AdminHandler.Freeze)
				r.Post("/wallets/{userID}/unfreeze", cfg.AdminHandler.Unfreeze)
			})
		})
	})

	return r
}
