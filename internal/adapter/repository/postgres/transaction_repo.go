package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/postgres/generated"
	"github.com/iho/walletledger/internal/usecase"
)

const defaultTransactionPage = 50

// TransactionRepository implements usecase.LedgerTransactionRepository.
type TransactionRepository struct {
	queries *generated.Queries
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db generated.DBTX) *TransactionRepository {
	return &TransactionRepository{queries: generated.New(db)}
}

// Create appends a transaction row inside tx.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.LedgerTransaction) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	return queries.CreateTransaction(ctx, generated.CreateTransactionParams{
		ID:          txn.ID,
		UserID:      txn.UserID,
		Type:        string(txn.Type),
		Amount:      decimalToNumeric(txn.Amount),
		Currency:    txn.Currency,
		Status:      string(txn.Status),
		Reference:   ptrToText(txn.Reference),
		Description: txn.Description,
		CreatedAt:   timeToPgTimestamptz(txn.CreatedAt),
	})
}

// ListByUser returns the newest transactions first.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.LedgerTransaction, error) {
	rows, err := r.queries.ListTransactionsByUser(ctx, generated.ListTransactionsByUserParams{
		UserID: userID,
		Limit:  clampLimit(limit, defaultTransactionPage),
	})
	if err != nil {
		return nil, err
	}

	txns := make([]*domain.LedgerTransaction, 0, len(rows))
	for _, row := range rows {
		txns = append(txns, rowToTransaction(row))
	}

	return txns, nil
}

// GetByReference finds the latest transaction of txnType carrying reference.
func (r *TransactionRepository) GetByReference(ctx context.Context, userID, reference string, txnType domain.TransactionType) (*domain.LedgerTransaction, error) {
	row, err := r.queries.GetTransactionByReference(ctx, generated.GetTransactionByReferenceParams{
		UserID:    userID,
		Reference: stringToText(reference),
		Type:      string(txnType),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return rowToTransaction(row), nil
}

// FindBalanceMismatches compares every wallet balance with the sum of its
// completed transactions.
func (r *TransactionRepository) FindBalanceMismatches(ctx context.Context) ([]domain.BalanceMismatch, error) {
	rows, err := r.queries.FindBalanceMismatches(ctx)
	if err != nil {
		return nil, err
	}

	mismatches := make([]domain.BalanceMismatch, 0, len(rows))
	for _, row := range rows {
		mismatches = append(mismatches, domain.BalanceMismatch{
			UserID:          row.UserID,
			Balance:         numericToDecimal(row.Balance),
			TransactionSum:  numericToDecimal(row.TransactionSum),
			TransactionRows: row.TransactionRows,
		})
	}

	return mismatches, nil
}

func rowToTransaction(row generated.Transaction) *domain.LedgerTransaction {
	return &domain.LedgerTransaction{
		ID:          row.ID,
		UserID:      row.UserID,
		Type:        domain.TransactionType(row.Type),
		Amount:      numericToDecimal(row.Amount),
		Currency:    row.Currency,
		Status:      domain.TransactionStatus(row.Status),
		Reference:   textToPtr(row.Reference),
		Description: row.Description,
		CreatedAt:   row.CreatedAt.Time,
	}
}
