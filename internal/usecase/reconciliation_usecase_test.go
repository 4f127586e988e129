package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// immediate treats everything older than a millisecond as stale.
var immediate = usecase.ReconciliationConfig{
	StaleWithdrawalAfter: time.Millisecond,
	StaleDepositAfter:    time.Millisecond,
	DepositWindow:        time.Hour,
	BatchSize:            10,
}

func TestReconciliation_SweepStaleWithdrawals(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, u := range []string{"user-1", "user-2", "user-3"} {
		h.fund(t, u, 100)
		h.addPayoutMethod(t, u)
	}
	h.gateway.SetTransferOutcome(usecase.TransferStatusPending, nil)

	settled, err := h.withdrawalUC.Request(ctx, "user-1", dec(40))
	require.NoError(t, err)
	reversed, err := h.withdrawalUC.Request(ctx, "user-2", dec(40))
	require.NoError(t, err)
	stuck, err := h.withdrawalUC.Request(ctx, "user-3", dec(40))
	require.NoError(t, err)

	h.gateway.SetTransferStatus(settled.Withdrawal.Reference, usecase.TransferStatusSuccess)
	h.gateway.SetTransferStatus(reversed.Withdrawal.Reference, usecase.TransferStatusReversed)
	time.Sleep(5 * time.Millisecond)

	rec := h.reconciliation(immediate)
	report, err := rec.SweepStaleWithdrawals(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Examined)
	assert.Equal(t, 2, report.Resolved)
	assert.Equal(t, 1, report.Unresolved)
	assert.Zero(t, report.Errors)

	assert.True(t, h.balance(t, "user-1").Equal(dec(60)))
	assert.True(t, h.balance(t, "user-2").Equal(dec(100)))
	assert.True(t, h.balance(t, "user-3").Equal(dec(60)))

	w, err := h.withdrawals.GetByID(ctx, stuck.Withdrawal.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusProcessing, w.Status)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.StaleWithdrawals))
	h.requireConsistent(t)

	again, err := rec.SweepStaleWithdrawals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Examined, "resolved withdrawals are not examined again")
}

func TestReconciliation_FreshWithdrawalsAreLeftAlone(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.fund(t, "user-1", 100)
	h.addPayoutMethod(t, "user-1")
	h.gateway.SetTransferOutcome(usecase.TransferStatusPending, nil)

	_, err := h.withdrawalUC.Request(ctx, "user-1", dec(40))
	require.NoError(t, err)

	report, err := h.reconciliation(usecase.ReconciliationConfig{}).SweepStaleWithdrawals(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Examined)
}

func TestReconciliation_SweepPendingDeposits(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	paid := h.initDeposit(t, "user-1", 25)
	_ = h.initDeposit(t, "user-2", 30)
	h.gateway.Settle(paid, dec(25))
	time.Sleep(5 * time.Millisecond)

	report, err := h.reconciliation(immediate).SweepPendingDeposits(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Examined)
	assert.Equal(t, 1, report.Resolved)
	assert.Equal(t, 1, report.Unresolved)
	assert.True(t, h.balance(t, "user-1").Equal(dec(25)))
	assert.True(t, h.balance(t, "user-2").IsZero())

	d, err := h.deposits.GetByReference(ctx, paid)
	require.NoError(t, err)
	assert.Equal(t, domain.DepositStatusCompleted, d.Status)
}

func TestReconciliation_DepositGatewayErrorsAreCounted(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.initDeposit(t, "user-1", 25)
	h.gateway.SetVerifyError(domain.ErrGatewayUnavailable)
	time.Sleep(5 * time.Millisecond)

	report, err := h.reconciliation(immediate).SweepPendingDeposits(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Errors)
	assert.Zero(t, report.Resolved)
}

func TestReconciliation_Run(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.fund(t, "user-1", 100)
	h.addPayoutMethod(t, "user-1")
	h.gateway.SetTransferOutcome(usecase.TransferStatusPending, nil)
	out, err := h.withdrawalUC.Request(ctx, "user-1", dec(40))
	require.NoError(t, err)
	h.gateway.SetTransferStatus(out.Withdrawal.Reference, usecase.TransferStatusFailed)

	ref := h.initDeposit(t, "user-2", 15)
	h.gateway.Settle(ref, dec(15))
	time.Sleep(5 * time.Millisecond)

	report, err := h.reconciliation(immediate).Run(ctx)
	require.NoError(t, err)

	assert.True(t, report.Consistent())
	assert.Equal(t, 1, report.Withdrawals.Resolved)
	assert.Equal(t, 1, report.Deposits.Resolved)
	assert.False(t, report.CheckedAt.IsZero())

	assert.True(t, h.balance(t, "user-1").Equal(dec(100)))
	assert.True(t, h.balance(t, "user-2").Equal(dec(15)))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ReconciliationRuns.WithLabelValues("consistency", "ok")))
}

type failingChecker struct{ err error }

func (f failingChecker) CheckConsistency(ctx context.Context) ([]domain.BalanceMismatch, error) {
	return nil, f.err
}

func TestReconciliation_RunSurfacesConsistencyError(t *testing.T) {
	h := newHarness(t)
	boom := errors.New("query failed")

	rec := usecase.NewReconciliationUseCase(h.deposits, h.withdrawals, h.depositUC, h.withdrawalUC,
		failingChecker{err: boom}, h.metrics, zerolog.Nop(), immediate)

	report, err := rec.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, report)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ReconciliationRuns.WithLabelValues("consistency", "error")))
}
