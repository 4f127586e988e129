package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// DepositRepository implements usecase.DepositRepository.
type DepositRepository struct {
	store *Store
}

// NewDepositRepository creates a new DepositRepository.
func NewDepositRepository(store *Store) *DepositRepository {
	return &DepositRepository{store: store}
}

// Create stores a new deposit request.
func (r *DepositRepository) Create(ctx context.Context, deposit *domain.DepositRequest) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.deposits[deposit.Reference]; ok {
		return fmt.Errorf("deposit reference %s already exists", deposit.Reference)
	}
	cp := *deposit
	r.store.deposits[deposit.Reference] = &cp
	return nil
}

// GetByReference returns the deposit with the given gateway reference.
func (r *DepositRepository) GetByReference(ctx context.Context, reference string) (*domain.DepositRequest, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	d, ok := r.store.deposits[reference]
	if !ok {
		return nil, domain.ErrDepositNotFound
	}
	cp := *d
	return &cp, nil
}

// Claim moves a pending deposit to completed. It reports false when the
// deposit is missing or already completed.
func (r *DepositRepository) Claim(
	ctx context.Context,
	tx usecase.Transaction,
	reference string,
	gatewayReference *string,
	now time.Time,
) (*domain.DepositRequest, bool, error) {
	t, err := r.store.txFrom(tx)
	if err != nil {
		return nil, false, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	d, ok := r.store.deposits[reference]
	if !ok {
		return nil, false, nil
	}

	if d.Status != domain.DepositStatusPending {
		cp := *d
		return &cp, false, nil
	}

	prev := *d
	d.Status = domain.DepositStatusCompleted
	d.GatewayReference = gatewayReference
	d.CompletedAt = &now
	d.UpdatedAt = now
	t.onRollback(func() { *d = prev })

	cp := *d
	return &cp, true, nil
}

// ListPending returns oldest first.
func (r *DepositRepository) ListPending(ctx context.Context, createdAfter, createdBefore time.Time, limit int) ([]*domain.DepositRequest, error) {
	limit = clampLimit(limit, defaultDepositPage)

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*domain.DepositRequest
	for _, d := range r.store.deposits {
		if d.Status == domain.DepositStatusPending && !d.CreatedAt.Before(createdAfter) && d.CreatedAt.Before(createdBefore) {
			cp := *d
			out = append(out, &cp)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
