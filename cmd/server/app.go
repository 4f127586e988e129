package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/adapter/gateway/fake"
	"github.com/iho/walletledger/internal/adapter/gateway/paystack"
	httpAdapter "github.com/iho/walletledger/internal/adapter/http"
	"github.com/iho/walletledger/internal/adapter/http/handler"
	"github.com/iho/walletledger/internal/adapter/http/middleware"
	"github.com/iho/walletledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/walletledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/walletledger/internal/adapter/repository/redis"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/auth"
	"github.com/iho/walletledger/internal/infrastructure/config"
	"github.com/iho/walletledger/internal/infrastructure/eventpublisher"
	"github.com/iho/walletledger/internal/infrastructure/metrics"
	"github.com/iho/walletledger/internal/infrastructure/postgres"
	"github.com/iho/walletledger/internal/infrastructure/redis"
	"github.com/iho/walletledger/internal/usecase"
	"github.com/iho/walletledger/internal/worker"
)

const limiterIdleTimeout = 10 * time.Minute

// storage is the set of ports one storage driver provides.
type storage struct {
	txManager    usecase.TransactionManager
	wallets      usecase.WalletRepository
	transactions usecase.LedgerTransactionRepository
	deposits     usecase.DepositRepository
	withdrawals  usecase.WithdrawalRepository
	payouts      usecase.PayoutMethodRepository
	outbox       usecase.OutboxRepository
	retrier      usecase.Retrier
	checks       map[string]handler.Pinger
	closers      []func()
}

type app struct {
	router      http.Handler
	publisher   *eventpublisher.EventPublisher
	reconciler  *worker.ReconciliationWorker
	rateLimiter *middleware.RateLimiter
	closers     []func()
	logger      zerolog.Logger
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	m := metrics.New()

	store, err := newStorage(ctx, cfg, m, logger)
	if err != nil {
		return nil, err
	}

	a := &app{closers: store.closers, logger: logger}

	var (
		cache       usecase.Cache = memory.NewCache()
		idempotency usecase.IdempotencyStore
	)
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Info().Msg("connected to redis")
		a.closers = append(a.closers, func() { _ = client.Close() })

		cache = redisRepo.NewCache(client)
		idempotency = redisRepo.NewIdempotencyStore(client)
		store.checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	} else {
		logger.Warn().Msg("REDIS_URL is empty: idempotency keys are disabled")
	}

	gateway := newGateway(cfg, m, logger)
	idGen := postgresRepo.NewULIDGenerator()

	ledger := usecase.NewLedgerUseCase(store.txManager, store.wallets, store.transactions, idGen, m, cfg.WalletCurrency).
		WithRetrier(store.retrier)

	deposits := usecase.NewDepositUseCase(
		store.txManager, store.deposits, store.outbox, ledger, gateway, idGen, m, logger,
		usecase.DepositConfig{
			Limits:         domain.AmountLimits{Min: cfg.DepositMinAmount, Max: cfg.DepositMaxAmount},
			Currency:       cfg.WalletCurrency,
			AppURL:         cfg.AppURL,
			VerifyThrottle: cfg.DepositVerifyThrottle,
		},
	).WithCache(cache).WithRetrier(store.retrier)

	withdrawals := usecase.NewWithdrawalUseCase(
		store.txManager, store.withdrawals, store.payouts, store.outbox, ledger, gateway, idGen, m, logger,
		usecase.WithdrawalConfig{
			Limits:   domain.AmountLimits{Min: cfg.WithdrawalMinAmount, Max: cfg.WithdrawalMaxAmount},
			Currency: cfg.WalletCurrency,
		},
	)

	payouts := usecase.NewPayoutMethodUseCase(store.txManager, store.payouts, gateway, idGen, logger, cfg.WalletCurrency)

	reconciliation := usecase.NewReconciliationUseCase(
		store.deposits, store.withdrawals, deposits, withdrawals, ledger, m, logger,
		usecase.ReconciliationConfig{
			StaleWithdrawalAfter: cfg.StaleWithdrawalAfter,
			StaleDepositAfter:    cfg.StaleDepositAfter,
			DepositWindow:        cfg.DepositReconcileWindow,
			BatchSize:            cfg.ReconcileBatchSize,
		},
	)

	a.reconciler = worker.NewReconciliationWorker(reconciliation, worker.Config{
		Interval: cfg.ReconcileInterval,
		Logger:   logger,
	})

	publisher, closePublisher := newPublisher(cfg, logger)
	a.closers = append(a.closers, closePublisher)
	a.publisher = eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: store.outbox,
		Publisher:  publisher,
		Metrics:    m,
		Logger:     logger,
		Interval:   cfg.OutboxPollInterval,
		Retention:  7 * 24 * time.Hour,
	})

	a.rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithMetrics(m)

	a.router = httpAdapter.NewRouter(httpAdapter.RouterConfig{
		WalletHandler:     handler.NewWalletHandler(ledger),
		DepositHandler:    handler.NewDepositHandler(deposits),
		WebhookHandler:    handler.NewWebhookHandler(deposits, logger),
		WithdrawalHandler: handler.NewWithdrawalHandler(withdrawals),
		PayoutHandler:     handler.NewPayoutHandler(payouts),
		AdminHandler:      handler.NewAdminHandler(ledger, reconciliation, logger),
		HealthHandler:     handler.NewHealthHandler(store.checks),
		Authenticate:      newAuthenticator(cfg),
		IdempotencyStore:  idempotency,
		IdempotencyTTL:    cfg.IdempotencyTTL,
		RateLimiter:       a.rateLimiter,
		Metrics:           m,
		MetricsHandler:    promhttp.Handler(),
		Logger:            logger,
	})

	return a, nil
}

// Close releases connections in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *app) cleanupLimiters(ctx context.Context) error {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := a.rateLimiter.CleanupLimiters(limiterIdleTimeout); n > 0 {
				a.logger.Debug().Int("removed", n).Msg("dropped idle rate limiters")
			}
		}
	}
}

func newStorage(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) (*storage, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		logger.Warn().Msg("using in-memory storage: balances are lost on restart")
		return newMemoryStorage(), nil
	}

	if cfg.RunMigrations {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
			return nil, err
		}
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:      cfg.DatabaseURL,
		MaxConns:         cfg.DatabaseMaxConns,
		MinConns:         cfg.DatabaseMinConns,
		StatementTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	logger.Info().Msg("connected to postgres")

	var outbox usecase.OutboxRepository = postgresRepo.NewOutboxRepository(pool)
	if !cfg.OutboxEnabled {
		outbox = postgresRepo.NewNullOutboxRepository(logger)
	}

	return &storage{
		txManager:    postgresRepo.NewTxManager(pool),
		wallets:      postgresRepo.NewWalletRepository(pool),
		transactions: postgresRepo.NewTransactionRepository(pool),
		deposits:     postgresRepo.NewDepositRepository(pool),
		withdrawals:  postgresRepo.NewWithdrawalRepository(pool),
		payouts:      postgresRepo.NewPayoutMethodRepository(pool),
		outbox:       outbox,
		retrier:      postgresRepo.NewRetrier().WithLogger(logger).WithMetrics(m),
		checks:       map[string]handler.Pinger{"postgres": pool},
		closers:      []func(){pool.Close},
	}, nil
}

func newMemoryStorage() *storage {
	store := memory.NewStore()

	return &storage{
		txManager:    memory.NewTxManager(store),
		wallets:      memory.NewWalletRepository(store),
		transactions: memory.NewTransactionRepository(store),
		deposits:     memory.NewDepositRepository(store),
		withdrawals:  memory.NewWithdrawalRepository(store),
		payouts:      memory.NewPayoutMethodRepository(store),
		outbox:       memory.NewOutboxRepository(store),
		checks:       map[string]handler.Pinger{},
	}
}

func newGateway(cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) usecase.Gateway {
	if cfg.GatewayDriver == config.GatewayDriverFake {
		logger.Warn().Msg("using fake payment gateway: charges settle immediately")
		return fake.New(cfg.PaystackSecretKey).WithAutoSettle()
	}

	return paystack.New(paystack.Config{
		SecretKey:       cfg.PaystackSecretKey,
		BaseURL:         cfg.PaystackBaseURL,
		Currency:        cfg.WalletCurrency,
		MinorUnitFactor: cfg.GatewayMinorUnitFactor,
		Timeout:         cfg.GatewayTimeout,
	}, m, logger)
}

func newPublisher(cfg *config.Config, logger zerolog.Logger) (eventpublisher.Publisher, func()) {
	if cfg.EventPublisher == config.EventPublisherKafka {
		p := eventpublisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		return p, func() { _ = p.Close() }
	}

	return eventpublisher.NewLogPublisher(logger), func() {}
}

func newAuthenticator(cfg *config.Config) func(http.Handler) http.Handler {
	if cfg.AuthEnabled {
		return middleware.AuthMiddleware(auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration))
	}
	return middleware.HeaderAuth
}
