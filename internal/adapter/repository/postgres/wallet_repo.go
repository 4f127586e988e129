package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/postgres/generated"
	"github.com/iho/walletledger/internal/usecase"
)

const pgErrCheckViolation = "23514"

// WalletRepository implements usecase.WalletRepository.
type WalletRepository struct {
	queries *generated.Queries
	idGen   usecase.IDGenerator
}

// NewWalletRepository creates a new WalletRepository. db is usually a
// *pgxpool.Pool.
func NewWalletRepository(db generated.DBTX) *WalletRepository {
	return &WalletRepository{
		queries: generated.New(db),
		idGen:   NewULIDGenerator(),
	}
}

// GetByUserID retrieves a wallet without locking it.
func (r *WalletRepository) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	row, err := r.queries.GetWalletByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}

		return nil, err
	}

	return rowToWallet(row), nil
}

// GetOrCreate inserts the wallet if it is missing and returns it locked
// FOR UPDATE for the rest of the transaction.
func (r *WalletRepository) GetOrCreate(ctx context.Context, tx usecase.Transaction, userID, currency string, now time.Time) (*domain.Wallet, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	if err := queries.InsertWalletIfAbsent(ctx, generated.InsertWalletIfAbsentParams{
		ID:        r.idGen.Generate(),
		UserID:    userID,
		Currency:  currency,
		CreatedAt: timeToPgTimestamptz(now),
	}); err != nil {
		return nil, err
	}

	row, err := queries.GetWalletByUserIDForUpdate(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}

		return nil, err
	}

	return rowToWallet(row), nil
}

// Credit adds amount to the balance.
func (r *WalletRepository) Credit(ctx context.Context, tx usecase.Transaction, userID string, amount decimal.Decimal, now time.Time) (*domain.Wallet, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	row, err := queries.CreditWallet(ctx, generated.CreditWalletParams{
		UserID:    userID,
		Amount:    decimalToNumeric(amount),
		UpdatedAt: timeToPgTimestamptz(now),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}

		return nil, err
	}

	return rowToWallet(row), nil
}

// Debit subtracts amount from the balance. The UPDATE only matches when the
// balance covers the amount; no match means insufficient funds.
func (r *WalletRepository) Debit(ctx context.Context, tx usecase.Transaction, userID string, amount decimal.Decimal, now time.Time) (*domain.Wallet, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	row, err := queries.DebitWallet(ctx, generated.DebitWalletParams{
		UserID:    userID,
		Amount:    decimalToNumeric(amount),
		UpdatedAt: timeToPgTimestamptz(now),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.Is(err, pgx.ErrNoRows) || (errors.As(err, &pgErr) && pgErr.Code == pgErrCheckViolation) {
			return nil, domain.ErrInsufficientBalance
		}

		return nil, err
	}

	return rowToWallet(row), nil
}

// UpdateStatus freezes or unfreezes a wallet.
func (r *WalletRepository) UpdateStatus(ctx context.Context, userID string, status domain.WalletStatus, now time.Time) error {
	n, err := r.queries.UpdateWalletStatus(ctx, generated.UpdateWalletStatusParams{
		UserID:    userID,
		Status:    string(status),
		UpdatedAt: timeToPgTimestamptz(now),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrWalletNotFound
	}

	return nil
}

func rowToWallet(row generated.Wallet) *domain.Wallet {
	return &domain.Wallet{
		ID:        row.ID,
		UserID:    row.UserID,
		Balance:   numericToDecimal(row.Balance),
		Currency:  row.Currency,
		Status:    domain.WalletStatus(row.Status),
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}
