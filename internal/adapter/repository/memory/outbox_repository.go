package memory

import (
	"context"
	"time"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	store *Store
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{store: store}
}

// Create stages an event as part of tx.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	t, err := r.store.txFrom(tx)
	if err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cp := *event
	r.store.outbox = append(r.store.outbox, &cp)
	t.onRollback(func() {
		for i, e := range r.store.outbox {
			if e.ID == event.ID {
				r.store.outbox = append(r.store.outbox[:i], r.store.outbox[i+1:]...)
				return
			}
		}
	})
	return nil
}

// GetUnpublished returns oldest first.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	limit = clampLimit(limit, defaultOutboxPage)

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*domain.OutboxEvent
	for _, e := range r.store.outbox {
		if len(out) == limit {
			break
		}
		if !e.Published {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

// MarkPublished flags an event as relayed.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, e := range r.store.outbox {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
			return nil
		}
	}
	return nil
}

// DeletePublished prunes events published before the cutoff.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	kept := r.store.outbox[:0]
	for _, e := range r.store.outbox {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	r.store.outbox = kept
	return nil
}
