package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/postgres/generated"
	"github.com/iho/walletledger/internal/usecase"
)

// PayoutMethodRepository implements usecase.PayoutMethodRepository.
// A user has at most one payout method (UNIQUE user_id).
type PayoutMethodRepository struct {
	queries *generated.Queries
}

// NewPayoutMethodRepository creates a new PayoutMethodRepository.
func NewPayoutMethodRepository(db generated.DBTX) *PayoutMethodRepository {
	return &PayoutMethodRepository{queries: generated.New(db)}
}

func (r *PayoutMethodRepository) GetByUserID(ctx context.Context, userID string) (*domain.PayoutMethod, error) {
	row, err := r.queries.GetPayoutMethodByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPayoutMethodRequired
		}

		return nil, err
	}

	return rowToPayoutMethod(row), nil
}

func (r *PayoutMethodRepository) Replace(ctx context.Context, tx usecase.Transaction, m *domain.PayoutMethod) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	if err := queries.DeletePayoutMethodsByUser(ctx, m.UserID); err != nil {
		return err
	}

	return queries.CreatePayoutMethod(ctx, generated.CreatePayoutMethodParams{
		ID:            m.ID,
		UserID:        m.UserID,
		Type:          string(m.Type),
		RecipientCode: m.RecipientCode,
		DisplayName:   m.DisplayName,
		AccountMasked: m.AccountMasked,
		BankCode:      ptrToText(m.BankCode),
		Provider:      ptrToText(m.Provider),
		Currency:      m.Currency,
		CreatedAt:     timeToPgTimestamptz(m.CreatedAt),
	})
}

func (r *PayoutMethodRepository) ListByUser(ctx context.Context, userID string) ([]*domain.PayoutMethod, error) {
	m, err := r.GetByUserID(ctx, userID)
	if errors.Is(err, domain.ErrPayoutMethodRequired) {
		return []*domain.PayoutMethod{}, nil
	}
	if err != nil {
		return nil, err
	}

	return []*domain.PayoutMethod{m}, nil
}

func rowToPayoutMethod(row generated.PayoutMethod) *domain.PayoutMethod {
	return &domain.PayoutMethod{
		ID:            row.ID,
		UserID:        row.UserID,
		Type:          domain.PayoutMethodType(row.Type),
		RecipientCode: row.RecipientCode,
		DisplayName:   row.DisplayName,
		AccountMasked: row.AccountMasked,
		BankCode:      textToPtr(row.BankCode),
		Provider:      textToPtr(row.Provider),
		Currency:      row.Currency,
		CreatedAt:     row.CreatedAt.Time,
	}
}
