package memory

import (
	"context"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// PayoutMethodRepository implements usecase.PayoutMethodRepository.
type PayoutMethodRepository struct {
	store *Store
}

// NewPayoutMethodRepository creates a new PayoutMethodRepository.
func NewPayoutMethodRepository(store *Store) *PayoutMethodRepository {
	return &PayoutMethodRepository{store: store}
}

// GetByUserID returns the user's current payout method.
func (r *PayoutMethodRepository) GetByUserID(ctx context.Context, userID string) (*domain.PayoutMethod, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	m, ok := r.store.payouts[userID]
	if !ok {
		return nil, domain.ErrPayoutMethodRequired
	}
	cp := *m
	return &cp, nil
}

// Replace swaps the user's payout method for method as part of tx.
func (r *PayoutMethodRepository) Replace(ctx context.Context, tx usecase.Transaction, method *domain.PayoutMethod) error {
	t, err := r.store.txFrom(tx)
	if err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	prev, had := r.store.payouts[method.UserID]
	cp := *method
	r.store.payouts[method.UserID] = &cp
	t.onRollback(func() {
		if had {
			r.store.payouts[method.UserID] = prev
			return
		}
		delete(r.store.payouts, method.UserID)
	})
	return nil
}

// ListByUser returns every payout method of the user.
func (r *PayoutMethodRepository) ListByUser(ctx context.Context, userID string) ([]*domain.PayoutMethod, error) {
	m, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return []*domain.PayoutMethod{}, nil
	}
	return []*domain.PayoutMethod{m}, nil
}
