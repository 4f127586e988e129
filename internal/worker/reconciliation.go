package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/usecase"
)

// Reconciler runs one reconciliation pass.
type Reconciler interface {
	Run(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// ReconciliationWorker drives the reconciliation sweeps on a fixed interval.
// Passes never overlap: the next tick is only observed after the current pass returns.
type ReconciliationWorker struct {
	reconciler Reconciler
	interval   time.Duration
	timeout    time.Duration
	logger     zerolog.Logger
}

// Config for ReconciliationWorker.
type Config struct {
	Interval time.Duration
	// Timeout bounds a single pass. Defaults to the interval.
	Timeout time.Duration
	Logger  zerolog.Logger
}

// NewReconciliationWorker creates a new ReconciliationWorker.
func NewReconciliationWorker(reconciler Reconciler, cfg Config) *ReconciliationWorker {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = cfg.Interval
	}

	return &ReconciliationWorker{
		reconciler: reconciler,
		interval:   cfg.Interval,
		timeout:    cfg.Timeout,
		logger:     cfg.Logger.With().Str("component", "reconciliation_worker").Logger(),
	}
}

// Start runs a pass immediately and then on every tick until ctx is cancelled.
func (w *ReconciliationWorker) Start(ctx context.Context) error {
	w.logger.Info().Dur("interval", w.interval).Msg("reconciliation worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("reconciliation worker shutting down")
			return ctx.Err()
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single pass. Errors are logged; the worker keeps going.
func (w *ReconciliationWorker) RunOnce(ctx context.Context) *usecase.ReconciliationReport {
	runCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	start := time.Now()
	report, err := w.reconciler.Run(runCtx)
	if err != nil {
		w.logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("reconciliation pass failed")
		return report
	}

	if report != nil && report.Withdrawals.Unresolved > 0 {
		w.logger.Warn().
			Int("unresolved", report.Withdrawals.Unresolved).
			Msg("withdrawals still processing after gateway re-query")
	}

	w.logger.Debug().Dur("duration", time.Since(start)).Msg("reconciliation pass complete")
	return report
}
