package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/metrics"
)

// LedgerPosting describes one balance change. Amount is always positive; the
// direction comes from whether it is posted as a credit or a debit.
type LedgerPosting struct {
	UserID      string
	Amount      decimal.Decimal
	Type        domain.TransactionType
	Reference   string
	Description string
}

// LedgerService is the only way the coordinators change a balance. The Tx
// variants join the caller's transaction so a claim or status change commits
// together with the balance change it causes.
type LedgerService interface {
	CreditTx(ctx context.Context, tx Transaction, p LedgerPosting) (*domain.LedgerTransaction, error)
	DebitTx(ctx context.Context, tx Transaction, p LedgerPosting) (*domain.LedgerTransaction, error)
	TransactionByReference(ctx context.Context, userID, reference string, txnType domain.TransactionType) (*domain.LedgerTransaction, error)
}

// LedgerUseCase owns wallet balances and the transaction log.
type LedgerUseCase struct {
	txManager  TransactionManager
	walletRepo WalletRepository
	txnRepo    LedgerTransactionRepository
	idGen      IDGenerator
	retrier    Retrier
	metrics    *metrics.Metrics
	currency   string
}

// NewLedgerUseCase creates a new LedgerUseCase for a single-currency deployment.
func NewLedgerUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	txnRepo LedgerTransactionRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	currency string,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:  txManager,
		walletRepo: walletRepo,
		txnRepo:    txnRepo,
		idGen:      idGen,
		metrics:    metrics,
		currency:   currency,
	}
}

// WithRetrier retries standalone Credit and Debit calls on transient storage errors.
func (uc *LedgerUseCase) WithRetrier(r Retrier) *LedgerUseCase {
	uc.retrier = r
	return uc
}

// Currency returns the deployment currency.
func (uc *LedgerUseCase) Currency() string {
	return uc.currency
}

// Credit increases the user's balance by p.Amount and appends a +amount transaction.
func (uc *LedgerUseCase) Credit(ctx context.Context, p LedgerPosting) (*domain.LedgerTransaction, error) {
	return uc.post(ctx, "credit", p, uc.CreditTx)
}

// Debit decreases the user's balance by p.Amount only when the balance covers it.
func (uc *LedgerUseCase) Debit(ctx context.Context, p LedgerPosting) (*domain.LedgerTransaction, error) {
	return uc.post(ctx, "debit", p, uc.DebitTx)
}

type postFunc func(ctx context.Context, tx Transaction, p LedgerPosting) (*domain.LedgerTransaction, error)

func (uc *LedgerUseCase) post(ctx context.Context, direction string, p LedgerPosting, fn postFunc) (*domain.LedgerTransaction, error) {
	start := time.Now()

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	var txn *domain.LedgerTransaction

	operation := func() error {
		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		txn, err = fn(txCtx, tx, p)
		if err != nil {
			return err
		}

		return tx.Commit(txCtx)
	}

	var err error
	if uc.retrier != nil {
		err = uc.retrier.Retry(txCtx, operation)
	} else {
		err = operation()
	}

	if uc.metrics != nil {
		uc.metrics.LedgerDuration.WithLabelValues(direction).Observe(time.Since(start).Seconds())
		if err != nil {
			uc.metrics.LedgerErrors.WithLabelValues(direction, errorType(err)).Inc()
		}
	}

	if err != nil {
		return nil, err
	}

	return txn, nil
}

// CreditTx posts a credit inside tx. Frozen wallets still accept credits.
func (uc *LedgerUseCase) CreditTx(ctx context.Context, tx Transaction, p LedgerPosting) (*domain.LedgerTransaction, error) {
	if p.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	now := time.Now().UTC()

	wallet, err := uc.walletRepo.GetOrCreate(ctx, tx, p.UserID, uc.currency, now)
	if err != nil {
		return nil, err
	}

	if err := wallet.ValidateCredit(p.Amount); err != nil {
		return nil, err
	}

	if _, err := uc.walletRepo.Credit(ctx, tx, p.UserID, p.Amount, now); err != nil {
		return nil, err
	}

	txn, err := uc.appendTransaction(ctx, tx, wallet, p, p.Amount, now)
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.LedgerOperations.WithLabelValues("credit", string(p.Type)).Inc()
	}

	return txn, nil
}

// DebitTx posts a debit inside tx. The wallet repository applies the debit only
// if the stored balance still covers it, so a stale read here cannot overdraw.
func (uc *LedgerUseCase) DebitTx(ctx context.Context, tx Transaction, p LedgerPosting) (*domain.LedgerTransaction, error) {
	if p.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	now := time.Now().UTC()

	wallet, err := uc.walletRepo.GetOrCreate(ctx, tx, p.UserID, uc.currency, now)
	if err != nil {
		return nil, err
	}

	if err := wallet.ValidateDebit(p.Amount); err != nil {
		return nil, err
	}

	if _, err := uc.walletRepo.Debit(ctx, tx, p.UserID, p.Amount, now); err != nil {
		return nil, err
	}

	txn, err := uc.appendTransaction(ctx, tx, wallet, p, p.Amount.Neg(), now)
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.LedgerOperations.WithLabelValues("debit", string(p.Type)).Inc()
	}

	return txn, nil
}

func (uc *LedgerUseCase) appendTransaction(
	ctx context.Context,
	tx Transaction,
	wallet *domain.Wallet,
	p LedgerPosting,
	signed decimal.Decimal,
	now time.Time,
) (*domain.LedgerTransaction, error) {
	txn := &domain.LedgerTransaction{
		ID:          uc.idGen.Generate(),
		UserID:      p.UserID,
		Type:        p.Type,
		Amount:      signed,
		Currency:    wallet.Currency,
		Status:      domain.TransactionStatusCompleted,
		Reference:   domain.StringPtr(p.Reference),
		Description: p.Description,
		CreatedAt:   now,
	}

	if err := txn.Validate(); err != nil {
		return nil, err
	}

	if err := uc.txnRepo.Create(ctx, tx, txn); err != nil {
		return nil, err
	}

	return txn, nil
}

// GetBalance returns the user's wallet. A user without a wallet sees an active
// zero balance; nothing is written.
func (uc *LedgerUseCase) GetBalance(ctx context.Context, userID string) (*domain.Wallet, error) {
	wallet, err := uc.walletRepo.GetByUserID(ctx, userID)
	if errors.Is(err, domain.ErrWalletNotFound) {
		return &domain.Wallet{
			UserID:   userID,
			Balance:  decimal.Zero,
			Currency: uc.currency,
			Status:   domain.WalletStatusActive,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	return wallet, nil
}

// GetOrCreateWallet returns the user's wallet, creating it on first access.
func (uc *LedgerUseCase) GetOrCreateWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	wallet, err := uc.walletRepo.GetOrCreate(txCtx, tx, userID, uc.currency, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return wallet, nil
}

// ListTransactions returns the user's most recent transactions, newest first.
func (uc *LedgerUseCase) ListTransactions(ctx context.Context, userID string, limit int) ([]*domain.LedgerTransaction, error) {
	return uc.txnRepo.ListByUser(ctx, userID, domain.ValidatePagination(limit))
}

// TransactionByReference finds the transaction a deposit or withdrawal wrote.
func (uc *LedgerUseCase) TransactionByReference(
	ctx context.Context,
	userID, reference string,
	txnType domain.TransactionType,
) (*domain.LedgerTransaction, error) {
	return uc.txnRepo.GetByReference(ctx, userID, reference, txnType)
}

// FreezeWallet blocks debits for the user. Credits, including refunds, still apply.
func (uc *LedgerUseCase) FreezeWallet(ctx context.Context, userID string) error {
	return uc.setStatus(ctx, userID, domain.WalletStatusFrozen)
}

// UnfreezeWallet re-enables debits.
func (uc *LedgerUseCase) UnfreezeWallet(ctx context.Context, userID string) error {
	return uc.setStatus(ctx, userID, domain.WalletStatusActive)
}

func (uc *LedgerUseCase) setStatus(ctx context.Context, userID string, status domain.WalletStatus) error {
	if _, err := uc.walletRepo.GetByUserID(ctx, userID); err != nil {
		return err
	}
	return uc.walletRepo.UpdateStatus(ctx, userID, status, time.Now().UTC())
}

// CheckConsistency returns every wallet whose balance differs from the sum of
// its transactions. An empty result means the ledger is consistent.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) ([]domain.BalanceMismatch, error) {
	mismatches, err := uc.txnRepo.FindBalanceMismatches(ctx)
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.BalanceMismatches.Set(float64(len(mismatches)))
	}

	return mismatches, nil
}

func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, domain.ErrWalletFrozen):
		return "wallet_frozen"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "internal"
	}
}
