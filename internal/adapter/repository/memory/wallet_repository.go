package memory

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// WalletRepository implements usecase.WalletRepository.
type WalletRepository struct {
	store *Store
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(store *Store) *WalletRepository {
	return &WalletRepository{store: store}
}

// GetByUserID returns the user's wallet.
func (r *WalletRepository) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	w, ok := r.store.wallets[userID]
	if !ok {
		return nil, domain.ErrWalletNotFound
	}
	cp := *w
	return &cp, nil
}

// GetOrCreate returns the wallet of userID, opening an empty one if needed.
func (r *WalletRepository) GetOrCreate(ctx context.Context, tx usecase.Transaction, userID, currency string, now time.Time) (*domain.Wallet, error) {
	t, err := r.store.txFrom(tx)
	if err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	w, ok := r.store.wallets[userID]
	if !ok {
		w = &domain.Wallet{
			ID:        ulid.Make().String(),
			UserID:    userID,
			Balance:   decimal.Zero,
			Currency:  currency,
			Status:    domain.WalletStatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		r.store.wallets[userID] = w
		t.onRollback(func() { delete(r.store.wallets, userID) })
	}

	cp := *w
	return &cp, nil
}

// Credit adds amount to the balance.
func (r *WalletRepository) Credit(ctx context.Context, tx usecase.Transaction, userID string, amount decimal.Decimal, now time.Time) (*domain.Wallet, error) {
	return r.apply(tx, userID, amount, now)
}

// Debit subtracts amount, failing with ErrInsufficientBalance instead of going negative.
func (r *WalletRepository) Debit(ctx context.Context, tx usecase.Transaction, userID string, amount decimal.Decimal, now time.Time) (*domain.Wallet, error) {
	return r.apply(tx, userID, amount.Neg(), now)
}

// apply adds delta to the balance unless the result would be negative.
func (r *WalletRepository) apply(tx usecase.Transaction, userID string, delta decimal.Decimal, now time.Time) (*domain.Wallet, error) {
	t, err := r.store.txFrom(tx)
	if err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	w, ok := r.store.wallets[userID]
	if !ok {
		return nil, domain.ErrWalletNotFound
	}

	next := w.Balance.Add(delta)
	if next.IsNegative() {
		return nil, domain.ErrInsufficientBalance
	}

	prevBalance, prevUpdated := w.Balance, w.UpdatedAt
	w.Balance = next
	w.UpdatedAt = now
	t.onRollback(func() {
		w.Balance = prevBalance
		w.UpdatedAt = prevUpdated
	})

	cp := *w
	return &cp, nil
}

// UpdateStatus freezes or unfreezes the wallet.
func (r *WalletRepository) UpdateStatus(ctx context.Context, userID string, status domain.WalletStatus, now time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	w, ok := r.store.wallets[userID]
	if !ok {
		return domain.ErrWalletNotFound
	}
	w.Status = status
	w.UpdatedAt = now
	return nil
}
