package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/walletledger/internal/adapter/gateway/fake"
	"github.com/iho/walletledger/internal/adapter/repository/memory"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/metrics"
	"github.com/iho/walletledger/internal/usecase"
	"github.com/iho/walletledger/internal/usecase/mocks"
)

const (
	testCurrency = "GHS"
	testSecret   = "sk_test_webhook"
)

var (
	depositLimits    = domain.AmountLimits{Min: decimal.NewFromInt(1), Max: decimal.NewFromInt(10000)}
	withdrawalLimits = domain.AmountLimits{Min: decimal.NewFromInt(5), Max: decimal.NewFromInt(5000)}
)

// harness wires every use case over one memory store and a fake gateway.
type harness struct {
	store       *memory.Store
	txManager   *memory.TxManager
	wallets     *memory.WalletRepository
	txns        *memory.TransactionRepository
	deposits    *memory.DepositRepository
	withdrawals *memory.WithdrawalRepository
	payouts     *memory.PayoutMethodRepository
	outbox      *memory.OutboxRepository
	gateway     *fake.Gateway
	metrics     *metrics.Metrics

	ledger       *usecase.LedgerUseCase
	depositUC    *usecase.DepositUseCase
	withdrawalUC *usecase.WithdrawalUseCase
	payoutUC     *usecase.PayoutMethodUseCase
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		store:   memory.NewStore(),
		gateway: fake.New(testSecret),
		metrics: metrics.NewWithRegisterer(prometheus.NewRegistry()),
	}
	h.txManager = memory.NewTxManager(h.store)
	h.wallets = memory.NewWalletRepository(h.store)
	h.txns = memory.NewTransactionRepository(h.store)
	h.deposits = memory.NewDepositRepository(h.store)
	h.withdrawals = memory.NewWithdrawalRepository(h.store)
	h.payouts = memory.NewPayoutMethodRepository(h.store)
	h.outbox = memory.NewOutboxRepository(h.store)

	idGen := mocks.NewMockIDGenerator()
	logger := zerolog.Nop()

	h.ledger = usecase.NewLedgerUseCase(h.txManager, h.wallets, h.txns, idGen, h.metrics, testCurrency)
	h.depositUC = usecase.NewDepositUseCase(
		h.txManager, h.deposits, h.outbox, h.ledger, h.gateway, idGen, h.metrics, logger,
		usecase.DepositConfig{
			Limits:         depositLimits,
			Currency:       testCurrency,
			AppURL:         "https://app.example.com",
			VerifyThrottle: time.Minute,
		},
	)
	h.withdrawalUC = usecase.NewWithdrawalUseCase(
		h.txManager, h.withdrawals, h.payouts, h.outbox, h.ledger, h.gateway, idGen, h.metrics, logger,
		usecase.WithdrawalConfig{Limits: withdrawalLimits, Currency: testCurrency},
	)
	h.payoutUC = usecase.NewPayoutMethodUseCase(h.txManager, h.payouts, h.gateway, idGen, logger, testCurrency)

	return h
}

func (h *harness) reconciliation(cfg usecase.ReconciliationConfig) *usecase.ReconciliationUseCase {
	return usecase.NewReconciliationUseCase(
		h.deposits, h.withdrawals, h.depositUC, h.withdrawalUC, h.ledger, h.metrics, zerolog.Nop(), cfg,
	)
}

func (h *harness) fund(t *testing.T, userID string, amount int64) {
	t.Helper()
	_, err := h.ledger.Credit(context.Background(), usecase.LedgerPosting{
		UserID: userID,
		Amount: decimal.NewFromInt(amount),
		Type:   domain.TransactionTypeAdjustment,
	})
	require.NoError(t, err)
}

func (h *harness) addPayoutMethod(t *testing.T, userID string) {
	t.Helper()
	_, err := h.payoutUC.AddPayoutMethod(context.Background(), userID, domain.PayoutDetails{
		Type:     domain.PayoutMethodMobileMoney,
		Name:     "Ama Mensah",
		Phone:    "0241234567",
		Provider: "MTN",
	})
	require.NoError(t, err)
}

func (h *harness) balance(t *testing.T, userID string) decimal.Decimal {
	t.Helper()
	w, err := h.ledger.GetBalance(context.Background(), userID)
	require.NoError(t, err)
	return w.Balance
}

// requireConsistent checks the balance invariant for every wallet and that no
// balance is negative.
func (h *harness) requireConsistent(t *testing.T) {
	t.Helper()
	mismatches, err := h.ledger.CheckConsistency(context.Background())
	require.NoError(t, err)
	require.Empty(t, mismatches)
}

func (h *harness) initDeposit(t *testing.T, userID string, amount int64) string {
	t.Helper()
	session, err := h.depositUC.Initialize(context.Background(), usecase.InitializeDepositInput{
		UserID: userID,
		Email:  userID + "@example.com",
		Amount: decimal.NewFromInt(amount),
	})
	require.NoError(t, err)
	return session.Reference
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}
