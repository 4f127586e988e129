// Package memory provides in-process repositories for local runs and tests.
//
// Transactions are serialized: Begin waits until no other transaction is open.
// Writes made through a transaction are undone on Rollback. Reads outside a
// transaction may observe uncommitted writes.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// ErrForeignTransaction is returned when a repository receives a transaction
// that was not started by this store.
var ErrForeignTransaction = errors.New("memory: transaction not started by this store")

// Page sizes used when a caller passes a non-positive limit, matching the
// postgres repositories.
const (
	defaultDepositPage     = 100
	defaultWithdrawalPage  = 50
	defaultTransactionPage = 50
	defaultOutboxPage      = 100
)

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}

// Store holds all in-memory state.
type Store struct {
	mu  sync.Mutex
	sem chan struct{}

	wallets     map[string]*domain.Wallet
	txns        []*domain.LedgerTransaction
	deposits    map[string]*domain.DepositRequest
	withdrawals map[string]*domain.WithdrawalRequest
	payouts     map[string]*domain.PayoutMethod
	outbox      []*domain.OutboxEvent
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		sem:         make(chan struct{}, 1),
		wallets:     make(map[string]*domain.Wallet),
		deposits:    make(map[string]*domain.DepositRequest),
		withdrawals: make(map[string]*domain.WithdrawalRequest),
		payouts:     make(map[string]*domain.PayoutMethod),
	}
}

// Tx is an open transaction on a Store.
type Tx struct {
	store *Store
	undo  []func()
	done  bool
}

// Commit keeps the transaction's writes.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.finish()
	return nil
}

// Rollback reverts the transaction's writes. It is a no-op after Commit.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}

	t.store.mu.Lock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.store.mu.Unlock()

	t.finish()
	return nil
}

func (t *Tx) finish() {
	t.undo = nil
	t.done = true
	<-t.store.sem
}

// onRollback registers fn to run on rollback. Callers hold store.mu.
func (t *Tx) onRollback(fn func()) {
	t.undo = append(t.undo, fn)
}

func (s *Store) txFrom(tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t.store != s || t.done {
		return nil, ErrForeignTransaction
	}
	return t, nil
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin waits for any open transaction to finish and starts a new one.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	select {
	case m.store.sem <- struct{}{}:
		return &Tx{store: m.store}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
