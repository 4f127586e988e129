package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/postgres/generated"
	"github.com/iho/walletledger/internal/usecase"
)

const defaultDepositPage = 100

// DepositRepository implements usecase.DepositRepository.
type DepositRepository struct {
	queries *generated.Queries
}

// NewDepositRepository creates a new DepositRepository.
func NewDepositRepository(db generated.DBTX) *DepositRepository {
	return &DepositRepository{queries: generated.New(db)}
}

// Create stores a pending deposit request.
func (r *DepositRepository) Create(ctx context.Context, deposit *domain.DepositRequest) error {
	return r.queries.CreateDepositRequest(ctx, generated.CreateDepositRequestParams{
		ID:        deposit.ID,
		UserID:    deposit.UserID,
		Reference: deposit.Reference,
		Amount:    decimalToNumeric(deposit.Amount),
		Currency:  deposit.Currency,
		Status:    string(deposit.Status),
		CreatedAt: timeToPgTimestamptz(deposit.CreatedAt),
		UpdatedAt: timeToPgTimestamptz(deposit.UpdatedAt),
	})
}

// GetByReference retrieves a deposit request by its reference.
func (r *DepositRepository) GetByReference(ctx context.Context, reference string) (*domain.DepositRequest, error) {
	row, err := r.queries.GetDepositRequestByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDepositNotFound
		}

		return nil, err
	}

	return rowToDeposit(row), nil
}

// Claim completes a pending deposit. Only the caller whose UPDATE matched the
// pending row gets claimed == true.
func (r *DepositRepository) Claim(ctx context.Context, tx usecase.Transaction, reference string, gatewayReference *string, now time.Time) (*domain.DepositRequest, bool, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, false, err
	}

	row, err := queries.ClaimDepositRequest(ctx, generated.ClaimDepositRequestParams{
		Reference:        reference,
		GatewayReference: ptrToText(gatewayReference),
		CompletedAt:      timeToPgTimestamptz(now),
	})
	if err == nil {
		return rowToDeposit(row), true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	current, err := queries.GetDepositRequestByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, err
	}

	return rowToDeposit(current), false, nil
}

// ListPending returns pending deposits created in [createdAfter, createdBefore), oldest first.
func (r *DepositRepository) ListPending(ctx context.Context, createdAfter, createdBefore time.Time, limit int) ([]*domain.DepositRequest, error) {
	rows, err := r.queries.ListPendingDepositRequests(ctx, generated.ListPendingDepositRequestsParams{
		CreatedAfter:  timeToPgTimestamptz(createdAfter),
		CreatedBefore: timeToPgTimestamptz(createdBefore),
		Limit:         clampLimit(limit, defaultDepositPage),
	})
	if err != nil {
		return nil, err
	}

	deposits := make([]*domain.DepositRequest, 0, len(rows))
	for _, row := range rows {
		deposits = append(deposits, rowToDeposit(row))
	}

	return deposits, nil
}

func rowToDeposit(row generated.DepositRequest) *domain.DepositRequest {
	return &domain.DepositRequest{
		ID:               row.ID,
		UserID:           row.UserID,
		Reference:        row.Reference,
		Amount:           numericToDecimal(row.Amount),
		Currency:         row.Currency,
		Status:           domain.DepositStatus(row.Status),
		GatewayReference: textToPtr(row.GatewayReference),
		CreatedAt:        row.CreatedAt.Time,
		UpdatedAt:        row.UpdatedAt.Time,
		CompletedAt:      timestamptzToPtr(row.CompletedAt),
	}
}
