package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
)

// WalletRepository defines data access for wallets.
//
// Credit and Debit change the balance with a single statement evaluated by the
// store (balance = balance +/- amount), so concurrent callers never lose an
// update. Debit only applies when the stored balance covers the amount; when it
// does not, nothing changes and ErrInsufficientBalance is returned.
type WalletRepository interface {
	GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error)
	// GetOrCreate returns the user's wallet, inserting an active zero-balance
	// wallet first if none exists. Safe under concurrent first access.
	GetOrCreate(ctx context.Context, tx Transaction, userID, currency string, now time.Time) (*domain.Wallet, error)
	Credit(ctx context.Context, tx Transaction, userID string, amount decimal.Decimal, now time.Time) (*domain.Wallet, error)
	Debit(ctx context.Context, tx Transaction, userID string, amount decimal.Decimal, now time.Time) (*domain.Wallet, error)
	UpdateStatus(ctx context.Context, userID string, status domain.WalletStatus, now time.Time) error
}

// LedgerTransactionRepository defines data access for the append-only transaction log.
// Rows are only ever inserted, in the same transaction as the matching balance change.
type LedgerTransactionRepository interface {
	Create(ctx context.Context, tx Transaction, txn *domain.LedgerTransaction) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*domain.LedgerTransaction, error)
	GetByReference(ctx context.Context, userID, reference string, txnType domain.TransactionType) (*domain.LedgerTransaction, error)
	// FindBalanceMismatches returns every wallet whose balance differs from the
	// sum of its transactions.
	FindBalanceMismatches(ctx context.Context) ([]domain.BalanceMismatch, error)
}

// DepositRepository defines data access for deposit requests.
type DepositRepository interface {
	Create(ctx context.Context, deposit *domain.DepositRequest) error
	GetByReference(ctx context.Context, reference string) (*domain.DepositRequest, error)
	// Claim moves the deposit from pending to completed with one conditional
	// update (WHERE reference = $1 AND status = 'pending'). Exactly one caller can
	// observe claimed == true for a reference; every other caller gets the
	// current row with claimed == false. An unknown reference returns a nil
	// deposit. No change is made unless claimed is true.
	Claim(ctx context.Context, tx Transaction, reference string, gatewayReference *string, now time.Time) (deposit *domain.DepositRequest, claimed bool, err error)
	ListPending(ctx context.Context, createdAfter, createdBefore time.Time, limit int) ([]*domain.DepositRequest, error)
}

// WithdrawalRepository defines data access for withdrawal requests.
type WithdrawalRepository interface {
	Create(ctx context.Context, tx Transaction, withdrawal *domain.WithdrawalRequest) error
	GetByID(ctx context.Context, id string) (*domain.WithdrawalRequest, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*domain.WithdrawalRequest, error)
	SetTransferCode(ctx context.Context, id, transferCode string, now time.Time) error
	// Complete and Fail are conditional on status = 'processing'. They report
	// false, changing nothing, when the withdrawal was already resolved.
	Complete(ctx context.Context, tx Transaction, id string, transferCode *string, now time.Time) (bool, error)
	Fail(ctx context.Context, tx Transaction, id, reason string, now time.Time) (bool, error)
	ListProcessingBefore(ctx context.Context, before time.Time, limit int) ([]*domain.WithdrawalRequest, error)
}

// PayoutMethodRepository defines data access for payout methods.
type PayoutMethodRepository interface {
	// GetByUserID returns ErrPayoutMethodRequired when the user has none.
	GetByUserID(ctx context.Context, userID string) (*domain.PayoutMethod, error)
	// Replace deletes the user's existing method and inserts method.
	Replace(ctx context.Context, tx Transaction, method *domain.PayoutMethod) error
	ListByUser(ctx context.Context, userID string) ([]*domain.PayoutMethod, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Cache defines caching operations.
type Cache interface {
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops the key so a failed request can be retried.
	Release(ctx context.Context, key string) error
}

// IsIdempotencyProcessing reports whether a stored idempotency value is the
// in-flight marker rather than a finished response.
func IsIdempotencyProcessing(value []byte) bool {
	return string(value) == IdempotencyProcessing
}
