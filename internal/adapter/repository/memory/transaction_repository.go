package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// TransactionRepository implements usecase.LedgerTransactionRepository.
type TransactionRepository struct {
	store *Store
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

// Create appends a ledger transaction as part of tx.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.LedgerTransaction) error {
	t, err := r.store.txFrom(tx)
	if err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cp := *txn
	n := len(r.store.txns)
	r.store.txns = append(r.store.txns, &cp)
	t.onRollback(func() { r.store.txns = r.store.txns[:n] })
	return nil
}

// ListByUser returns newest first.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.LedgerTransaction, error) {
	limit = clampLimit(limit, defaultTransactionPage)

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*domain.LedgerTransaction
	for i := len(r.store.txns) - 1; i >= 0 && len(out) < limit; i-- {
		if r.store.txns[i].UserID == userID {
			cp := *r.store.txns[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

// GetByReference returns the transaction of txnType posted under reference.
func (r *TransactionRepository) GetByReference(ctx context.Context, userID, reference string, txnType domain.TransactionType) (*domain.LedgerTransaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i := len(r.store.txns) - 1; i >= 0; i-- {
		t := r.store.txns[i]
		if t.UserID == userID && t.Type == txnType && t.Reference != nil && *t.Reference == reference {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

// FindBalanceMismatches lists wallets whose balance differs from the sum of their transactions.
func (r *TransactionRepository) FindBalanceMismatches(ctx context.Context) ([]domain.BalanceMismatch, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	sums := make(map[string]decimal.Decimal)
	rows := make(map[string]int64)
	for _, t := range r.store.txns {
		sums[t.UserID] = sums[t.UserID].Add(t.Amount)
		rows[t.UserID]++
	}

	var out []domain.BalanceMismatch
	for userID, w := range r.store.wallets {
		if !w.Balance.Equal(sums[userID]) {
			out = append(out, domain.BalanceMismatch{
				UserID:          userID,
				Balance:         w.Balance,
				TransactionSum:  sums[userID],
				TransactionRows: rows[userID],
			})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}
