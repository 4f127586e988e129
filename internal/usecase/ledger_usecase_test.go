package usecase_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
	"github.com/iho/walletledger/internal/usecase/mocks"
)

func TestLedgerUseCase_CreditAndDebit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	credit, err := h.ledger.Credit(ctx, usecase.LedgerPosting{
		UserID:    "user-1",
		Amount:    dec(100),
		Type:      domain.TransactionTypeDeposit,
		Reference: "dep_a",
	})
	require.NoError(t, err)
	assert.True(t, credit.Amount.Equal(dec(100)))
	assert.Equal(t, testCurrency, credit.Currency)
	assert.Equal(t, domain.TransactionStatusCompleted, credit.Status)

	debit, err := h.ledger.Debit(ctx, usecase.LedgerPosting{
		UserID:      "user-1",
		Amount:      dec(30),
		Type:        domain.TransactionTypeWithdrawal,
		Reference:   "wdr_a",
		Description: "Withdrawal to Ama",
	})
	require.NoError(t, err)
	assert.True(t, debit.Amount.Equal(dec(-30)), "debits are stored negative")

	assert.True(t, h.balance(t, "user-1").Equal(dec(70)))

	txns, err := h.ledger.ListTransactions(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, domain.TransactionTypeWithdrawal, txns[0].Type, "newest first")

	h.requireConsistent(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.LedgerOperations.WithLabelValues("credit", "deposit")))
}

func TestLedgerUseCase_DebitRejections(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, h *harness)
		amount  decimal.Decimal
		wantErr error
	}{
		{
			name:    "insufficient balance",
			setup:   func(t *testing.T, h *harness) { h.fund(t, "user-1", 10) },
			amount:  dec(11),
			wantErr: domain.ErrInsufficientBalance,
		},
		{
			name:    "no wallet yet",
			setup:   func(t *testing.T, h *harness) {},
			amount:  dec(1),
			wantErr: domain.ErrInsufficientBalance,
		},
		{
			name:    "zero amount",
			setup:   func(t *testing.T, h *harness) { h.fund(t, "user-1", 10) },
			amount:  decimal.Zero,
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			setup:   func(t *testing.T, h *harness) { h.fund(t, "user-1", 10) },
			amount:  dec(-5),
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "frozen wallet",
			setup: func(t *testing.T, h *harness) {
				h.fund(t, "user-1", 10)
				require.NoError(t, h.ledger.FreezeWallet(context.Background(), "user-1"))
			},
			amount:  dec(5),
			wantErr: domain.ErrWalletFrozen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.setup(t, h)
			before := h.balance(t, "user-1")

			_, err := h.ledger.Debit(context.Background(), usecase.LedgerPosting{
				UserID: "user-1",
				Amount: tt.amount,
				Type:   domain.TransactionTypeWithdrawal,
			})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, h.balance(t, "user-1").Equal(before), "failed debit must not change the balance")
			h.requireConsistent(t)
		})
	}
}

func TestLedgerUseCase_FrozenWalletAcceptsCredits(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.fund(t, "user-1", 10)
	require.NoError(t, h.ledger.FreezeWallet(ctx, "user-1"))

	_, err := h.ledger.Credit(ctx, usecase.LedgerPosting{UserID: "user-1", Amount: dec(5), Type: domain.TransactionTypeRefund})
	require.NoError(t, err)
	assert.True(t, h.balance(t, "user-1").Equal(dec(15)))

	require.NoError(t, h.ledger.UnfreezeWallet(ctx, "user-1"))
	_, err = h.ledger.Debit(ctx, usecase.LedgerPosting{UserID: "user-1", Amount: dec(15), Type: domain.TransactionTypeWithdrawal})
	require.NoError(t, err)
	assert.True(t, h.balance(t, "user-1").IsZero())
}

func TestLedgerUseCase_FreezeUnknownWallet(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.ledger.FreezeWallet(context.Background(), "ghost"), domain.ErrWalletNotFound)
}

func TestLedgerUseCase_GetBalanceWithoutWallet(t *testing.T) {
	h := newHarness(t)

	w, err := h.ledger.GetBalance(context.Background(), "new-user")
	require.NoError(t, err)
	assert.True(t, w.Balance.IsZero())
	assert.Equal(t, domain.WalletStatusActive, w.Status)
	assert.Equal(t, testCurrency, w.Currency)

	_, err = h.wallets.GetByUserID(context.Background(), "new-user")
	assert.ErrorIs(t, err, domain.ErrWalletNotFound, "reading a balance must not create a wallet")
}

func TestLedgerUseCase_GetOrCreateWallet(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.ledger.GetOrCreateWallet(ctx, "user-1")
	require.NoError(t, err)
	second, err := h.ledger.GetOrCreateWallet(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.Balance.IsZero())
}

func TestLedgerUseCase_TransactionByReference(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.ledger.Credit(ctx, usecase.LedgerPosting{UserID: "user-1", Amount: dec(20), Type: domain.TransactionTypeDeposit, Reference: "dep_x"})
	require.NoError(t, err)

	txn, err := h.ledger.TransactionByReference(ctx, "user-1", "dep_x", domain.TransactionTypeDeposit)
	require.NoError(t, err)
	assert.True(t, txn.Amount.Equal(dec(20)))

	_, err = h.ledger.TransactionByReference(ctx, "user-1", "dep_x", domain.TransactionTypeRefund)
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestLedgerUseCase_ConcurrentPostingsKeepInvariant(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	users := []string{"user-a", "user-b", "user-c"}
	for _, u := range users {
		h.fund(t, u, 50)
	}

	var wg sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))

			for i := 0; i < 40; i++ {
				p := usecase.LedgerPosting{
					UserID: users[rng.Intn(len(users))],
					Amount: decimal.NewFromInt(int64(rng.Intn(30) + 1)),
				}
				var err error
				if rng.Intn(2) == 0 {
					p.Type = domain.TransactionTypeDeposit
					_, err = h.ledger.Credit(ctx, p)
				} else {
					p.Type = domain.TransactionTypeWithdrawal
					_, err = h.ledger.Debit(ctx, p)
				}
				if err != nil && !errors.Is(err, domain.ErrInsufficientBalance) {
					t.Errorf("unexpected error: %v", err)
				}
			}
		}(int64(worker))
	}
	wg.Wait()

	for _, u := range users {
		assert.False(t, h.balance(t, u).IsNegative(), "balance of %s went negative", u)
	}

	h.requireConsistent(t)
}

func TestLedgerUseCase_CheckConsistencyReportsDrift(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.fund(t, "user-1", 40)

	tx, err := h.txManager.Begin(ctx)
	require.NoError(t, err)
	_, err = h.wallets.Credit(ctx, tx, "user-1", dec(5), time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	mismatches, err := h.ledger.CheckConsistency(ctx)
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	assert.Equal(t, "user-1", mismatches[0].UserID)
	assert.True(t, mismatches[0].Difference().Equal(dec(5)))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.BalanceMismatches))
}

func TestLedgerUseCase_BeginFailure(t *testing.T) {
	h := newHarness(t)
	boom := errors.New("connection refused")

	uc := usecase.NewLedgerUseCase(
		&mocks.MockTransactionManager{
			BeginFunc: func(ctx context.Context) (usecase.Transaction, error) { return nil, boom },
		},
		h.wallets, h.txns, mocks.NewMockIDGenerator(), h.metrics, testCurrency,
	)

	_, err := uc.Credit(context.Background(), usecase.LedgerPosting{UserID: "user-1", Amount: dec(1), Type: domain.TransactionTypeDeposit})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.LedgerErrors.WithLabelValues("credit", "internal")))
}

type countingRetrier struct {
	attempts int
	failures int
}

func (r *countingRetrier) Retry(ctx context.Context, op func() error) error {
	var err error
	for i := 0; i <= r.failures; i++ {
		r.attempts++
		if err = op(); err == nil {
			return nil
		}
	}
	return err
}

func TestLedgerUseCase_WithRetrier(t *testing.T) {
	h := newHarness(t)
	transient := errors.New("serialization failure")

	calls := 0
	txm := &mocks.MockTransactionManager{
		BeginFunc: func(ctx context.Context) (usecase.Transaction, error) {
			calls++
			if calls == 1 {
				return nil, transient
			}
			return h.txManager.Begin(ctx)
		},
	}
	retrier := &countingRetrier{failures: 2}

	uc := usecase.NewLedgerUseCase(txm, h.wallets, h.txns, mocks.NewMockIDGenerator(), nil, testCurrency).WithRetrier(retrier)

	_, err := uc.Credit(context.Background(), usecase.LedgerPosting{UserID: "user-1", Amount: dec(7), Type: domain.TransactionTypeDeposit})
	require.NoError(t, err)
	assert.Equal(t, 2, retrier.attempts)
	assert.True(t, h.balance(t, "user-1").Equal(dec(7)))
}
