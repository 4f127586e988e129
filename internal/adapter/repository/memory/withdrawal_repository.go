package memory

import (
	"context"
	"sort"
	"time"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// WithdrawalRepository implements usecase.WithdrawalRepository.
type WithdrawalRepository struct {
	store *Store
}

// NewWithdrawalRepository creates a new WithdrawalRepository.
func NewWithdrawalRepository(store *Store) *WithdrawalRepository {
	return &WithdrawalRepository{store: store}
}

// Create stores a new withdrawal request as part of tx.
func (r *WithdrawalRepository) Create(ctx context.Context, tx usecase.Transaction, withdrawal *domain.WithdrawalRequest) error {
	t, err := r.store.txFrom(tx)
	if err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cp := *withdrawal
	r.store.withdrawals[withdrawal.ID] = &cp
	t.onRollback(func() { delete(r.store.withdrawals, withdrawal.ID) })
	return nil
}

// GetByID returns a withdrawal request.
func (r *WithdrawalRepository) GetByID(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	w, ok := r.store.withdrawals[id]
	if !ok {
		return nil, domain.ErrWithdrawalNotFound
	}
	cp := *w
	return &cp, nil
}

// ListByUser returns newest first.
func (r *WithdrawalRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.WithdrawalRequest, error) {
	limit = clampLimit(limit, defaultWithdrawalPage)

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*domain.WithdrawalRequest
	for _, w := range r.store.withdrawals {
		if w.UserID == userID {
			cp := *w
			out = append(out, &cp)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SetTransferCode records the gateway transfer code.
func (r *WithdrawalRepository) SetTransferCode(ctx context.Context, id, transferCode string, now time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	w, ok := r.store.withdrawals[id]
	if !ok {
		return domain.ErrWithdrawalNotFound
	}
	w.GatewayTransferCode = &transferCode
	w.UpdatedAt = now
	return nil
}

// Complete moves a processing withdrawal to completed. It reports false otherwise.
func (r *WithdrawalRepository) Complete(ctx context.Context, tx usecase.Transaction, id string, transferCode *string, now time.Time) (bool, error) {
	return r.resolve(tx, id, func(w *domain.WithdrawalRequest) {
		w.Status = domain.WithdrawalStatusCompleted
		if transferCode != nil {
			w.GatewayTransferCode = transferCode
		}
		w.UpdatedAt = now
	})
}

// Fail moves a processing withdrawal to failed. It reports false otherwise.
func (r *WithdrawalRepository) Fail(ctx context.Context, tx usecase.Transaction, id, reason string, now time.Time) (bool, error) {
	return r.resolve(tx, id, func(w *domain.WithdrawalRequest) {
		w.Status = domain.WithdrawalStatusFailed
		w.FailureReason = &reason
		w.UpdatedAt = now
	})
}

// resolve applies fn only while the withdrawal is processing.
func (r *WithdrawalRepository) resolve(tx usecase.Transaction, id string, fn func(*domain.WithdrawalRequest)) (bool, error) {
	t, err := r.store.txFrom(tx)
	if err != nil {
		return false, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	w, ok := r.store.withdrawals[id]
	if !ok || w.Status != domain.WithdrawalStatusProcessing {
		return false, nil
	}

	prev := *w
	fn(w)
	t.onRollback(func() { *w = prev })
	return true, nil
}

// ListProcessingBefore returns oldest first.
func (r *WithdrawalRepository) ListProcessingBefore(ctx context.Context, before time.Time, limit int) ([]*domain.WithdrawalRequest, error) {
	limit = clampLimit(limit, defaultWithdrawalPage)

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*domain.WithdrawalRequest
	for _, w := range r.store.withdrawals {
		if w.Status == domain.WithdrawalStatusProcessing && w.CreatedAt.Before(before) {
			cp := *w
			out = append(out, &cp)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
