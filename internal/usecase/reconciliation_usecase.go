package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/metrics"
)

// DepositReconciler claims a pending deposit the gateway reports as settled.
type DepositReconciler interface {
	ReconcilePending(ctx context.Context, deposit *domain.DepositRequest) (bool, error)
}

// WithdrawalResolver resolves a processing withdrawal from the gateway's view of its transfer.
type WithdrawalResolver interface {
	ResolveStale(ctx context.Context, withdrawal *domain.WithdrawalRequest) (*domain.WithdrawalRequest, error)
}

// ConsistencyChecker finds wallets whose balance differs from their transaction log.
type ConsistencyChecker interface {
	CheckConsistency(ctx context.Context) ([]domain.BalanceMismatch, error)
}

// ReconciliationConfig holds sweep thresholds.
type ReconciliationConfig struct {
	// StaleWithdrawalAfter is how long a withdrawal may stay processing before it is re-queried.
	StaleWithdrawalAfter time.Duration
	// StaleDepositAfter is how long a deposit may stay pending before it is re-queried.
	StaleDepositAfter time.Duration
	// DepositWindow bounds how far back pending deposits are re-queried.
	DepositWindow time.Duration
	BatchSize     int
}

// ReconciliationUseCase recovers deposits and withdrawals that neither
// confirmation channel resolved, and checks the balance invariant.
type ReconciliationUseCase struct {
	depositRepo    DepositRepository
	withdrawalRepo WithdrawalRepository
	deposits       DepositReconciler
	withdrawals    WithdrawalResolver
	ledger         ConsistencyChecker
	metrics        *metrics.Metrics
	logger         zerolog.Logger
	cfg            ReconciliationConfig
	now            func() time.Time
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	depositRepo DepositRepository,
	withdrawalRepo WithdrawalRepository,
	deposits DepositReconciler,
	withdrawals WithdrawalResolver,
	ledger ConsistencyChecker,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
	cfg ReconciliationConfig,
) *ReconciliationUseCase {
	if cfg.StaleWithdrawalAfter == 0 {
		cfg.StaleWithdrawalAfter = 30 * time.Minute
	}
	if cfg.StaleDepositAfter == 0 {
		cfg.StaleDepositAfter = 15 * time.Minute
	}
	if cfg.DepositWindow == 0 {
		cfg.DepositWindow = 48 * time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}

	return &ReconciliationUseCase{
		depositRepo:    depositRepo,
		withdrawalRepo: withdrawalRepo,
		deposits:       deposits,
		withdrawals:    withdrawals,
		ledger:         ledger,
		metrics:        metrics,
		logger:         logger.With().Str("component", "reconciliation").Logger(),
		cfg:            cfg,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// SweepReport summarizes one sweep.
type SweepReport struct {
	Examined   int `json:"examined"`
	Resolved   int `json:"resolved"`
	Unresolved int `json:"unresolved"`
	Errors     int `json:"errors"`
}

// ReconciliationReport is the result of a full reconciliation pass.
type ReconciliationReport struct {
	Deposits    SweepReport
	Withdrawals SweepReport
	Mismatches  []domain.BalanceMismatch
	CheckedAt   time.Time
}

// Consistent reports whether no wallet disagreed with its transaction log.
func (r *ReconciliationReport) Consistent() bool {
	return len(r.Mismatches) == 0
}

// SweepStaleWithdrawals re-queries the gateway for withdrawals that have been
// processing longer than the stale threshold. Withdrawals the gateway cannot
// settle are counted as unresolved and logged for manual review.
func (uc *ReconciliationUseCase) SweepStaleWithdrawals(ctx context.Context) (SweepReport, error) {
	var report SweepReport

	stale, err := uc.withdrawalRepo.ListProcessingBefore(ctx, uc.now().Add(-uc.cfg.StaleWithdrawalAfter), uc.cfg.BatchSize)
	if err != nil {
		uc.recordRun("withdrawals", err)
		return report, err
	}

	for _, w := range stale {
		report.Examined++

		resolved, err := uc.withdrawals.ResolveStale(ctx, w)
		if err != nil {
			report.Errors++
			report.Unresolved++
			uc.logger.Error().Err(err).
				Str("withdrawal_id", w.ID).
				Str("reference", w.Reference).
				Bool("gateway_error", IsGatewayError(err)).
				Msg("could not resolve stale withdrawal")
			continue
		}

		if resolved.Status.IsTerminal() {
			report.Resolved++
			uc.logger.Info().
				Str("reference", w.Reference).
				Str("status", string(resolved.Status)).
				Msg("stale withdrawal resolved")
			continue
		}

		report.Unresolved++
		uc.logger.Error().
			Str("withdrawal_id", w.ID).
			Str("reference", w.Reference).
			Str("user_id", w.UserID).
			Time("created_at", w.CreatedAt).
			Msg("withdrawal still processing at gateway, needs manual review")
	}

	if uc.metrics != nil {
		uc.metrics.StaleWithdrawals.Set(float64(report.Unresolved))
	}
	uc.recordRun("withdrawals", nil)

	return report, nil
}

// SweepPendingDeposits re-queries the gateway for deposits left pending past
// the stale threshold but still inside the reconcile window.
func (uc *ReconciliationUseCase) SweepPendingDeposits(ctx context.Context) (SweepReport, error) {
	var report SweepReport

	now := uc.now()
	pending, err := uc.depositRepo.ListPending(ctx, now.Add(-uc.cfg.DepositWindow), now.Add(-uc.cfg.StaleDepositAfter), uc.cfg.BatchSize)
	if err != nil {
		uc.recordRun("deposits", err)
		return report, err
	}

	for _, d := range pending {
		report.Examined++

		credited, err := uc.deposits.ReconcilePending(ctx, d)
		if err != nil {
			report.Errors++
			uc.logger.Warn().Err(err).Str("reference", d.Reference).Msg("could not reconcile pending deposit")
			continue
		}

		if credited {
			report.Resolved++
		} else {
			report.Unresolved++
		}
	}

	uc.recordRun("deposits", nil)

	return report, nil
}

// CheckConsistency returns every wallet whose balance differs from the sum of its transactions.
func (uc *ReconciliationUseCase) CheckConsistency(ctx context.Context) ([]domain.BalanceMismatch, error) {
	mismatches, err := uc.ledger.CheckConsistency(ctx)
	uc.recordRun("consistency", err)
	if err != nil {
		return nil, err
	}

	for _, m := range mismatches {
		uc.logger.Error().
			Str("user_id", m.UserID).
			Str("balance", m.Balance.String()).
			Str("transaction_sum", m.TransactionSum.String()).
			Msg("wallet balance does not match transaction log")
	}

	return mismatches, nil
}

// Run performs both sweeps followed by a consistency check. Sweep errors are
// logged and do not stop the remaining steps.
func (uc *ReconciliationUseCase) Run(ctx context.Context) (*ReconciliationReport, error) {
	report := &ReconciliationReport{CheckedAt: uc.now()}

	var err error

	report.Withdrawals, err = uc.SweepStaleWithdrawals(ctx)
	if err != nil {
		uc.logger.Error().Err(err).Msg("withdrawal sweep failed")
	}

	report.Deposits, err = uc.SweepPendingDeposits(ctx)
	if err != nil {
		uc.logger.Error().Err(err).Msg("deposit sweep failed")
	}

	report.Mismatches, err = uc.CheckConsistency(ctx)
	if err != nil {
		return report, err
	}

	uc.logger.Info().
		Int("withdrawals_resolved", report.Withdrawals.Resolved).
		Int("withdrawals_unresolved", report.Withdrawals.Unresolved).
		Int("deposits_credited", report.Deposits.Resolved).
		Int("mismatches", len(report.Mismatches)).
		Msg("reconciliation finished")

	return report, nil
}

func (uc *ReconciliationUseCase) recordRun(kind string, err error) {
	if uc.metrics == nil {
		return
	}

	result := "ok"
	if err != nil {
		result = "error"
	}
	uc.metrics.ReconciliationRuns.WithLabelValues(kind, result).Inc()
}
