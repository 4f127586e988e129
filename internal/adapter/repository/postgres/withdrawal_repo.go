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

const defaultWithdrawalPage = 50

// WithdrawalRepository implements usecase.WithdrawalRepository.
type WithdrawalRepository struct {
	queries *generated.Queries
}

// NewWithdrawalRepository creates a new WithdrawalRepository.
func NewWithdrawalRepository(db generated.DBTX) *WithdrawalRepository {
	return &WithdrawalRepository{queries: generated.New(db)}
}

// Create stores a withdrawal request inside tx.
func (r *WithdrawalRepository) Create(ctx context.Context, tx usecase.Transaction, w *domain.WithdrawalRequest) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	return queries.CreateWithdrawalRequest(ctx, generated.CreateWithdrawalRequestParams{
		ID:             w.ID,
		UserID:         w.UserID,
		PayoutMethodID: w.PayoutMethodID,
		Amount:         decimalToNumeric(w.Amount),
		Currency:       w.Currency,
		Reference:      w.Reference,
		Status:         string(w.Status),
		CreatedAt:      timeToPgTimestamptz(w.CreatedAt),
		UpdatedAt:      timeToPgTimestamptz(w.UpdatedAt),
	})
}

// GetByID retrieves a withdrawal request.
func (r *WithdrawalRepository) GetByID(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	row, err := r.queries.GetWithdrawalRequestByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWithdrawalNotFound
		}

		return nil, err
	}

	return rowToWithdrawal(row), nil
}

// ListByUser returns a user's withdrawals, newest first.
func (r *WithdrawalRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.WithdrawalRequest, error) {
	rows, err := r.queries.ListWithdrawalRequestsByUser(ctx, generated.ListWithdrawalRequestsByUserParams{
		UserID: userID,
		Limit:  clampLimit(limit, defaultWithdrawalPage),
	})
	if err != nil {
		return nil, err
	}

	return rowsToWithdrawals(rows), nil
}

// SetTransferCode records the gateway transfer code.
func (r *WithdrawalRepository) SetTransferCode(ctx context.Context, id, transferCode string, now time.Time) error {
	return r.queries.SetWithdrawalTransferCode(ctx, generated.SetWithdrawalTransferCodeParams{
		ID:                  id,
		GatewayTransferCode: stringToText(transferCode),
		UpdatedAt:           timeToPgTimestamptz(now),
	})
}

// Complete marks a processing withdrawal completed.
func (r *WithdrawalRepository) Complete(ctx context.Context, tx usecase.Transaction, id string, transferCode *string, now time.Time) (bool, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return false, err
	}

	n, err := queries.CompleteWithdrawalRequest(ctx, generated.CompleteWithdrawalRequestParams{
		ID:                  id,
		GatewayTransferCode: ptrToText(transferCode),
		UpdatedAt:           timeToPgTimestamptz(now),
	})
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

// Fail marks a processing withdrawal failed with reason.
func (r *WithdrawalRepository) Fail(ctx context.Context, tx usecase.Transaction, id, reason string, now time.Time) (bool, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return false, err
	}

	n, err := queries.FailWithdrawalRequest(ctx, generated.FailWithdrawalRequestParams{
		ID:            id,
		FailureReason: stringToText(reason),
		UpdatedAt:     timeToPgTimestamptz(now),
	})
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

// ListProcessingBefore returns withdrawals still processing that were created before the cutoff.
func (r *WithdrawalRepository) ListProcessingBefore(ctx context.Context, before time.Time, limit int) ([]*domain.WithdrawalRequest, error) {
	rows, err := r.queries.ListProcessingWithdrawalRequestsBefore(ctx, generated.ListProcessingWithdrawalRequestsBeforeParams{
		CreatedBefore: timeToPgTimestamptz(before),
		Limit:         clampLimit(limit, defaultWithdrawalPage),
	})
	if err != nil {
		return nil, err
	}

	return rowsToWithdrawals(rows), nil
}

func rowsToWithdrawals(rows []generated.WithdrawalRequest) []*domain.WithdrawalRequest {
	out := make([]*domain.WithdrawalRequest, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowToWithdrawal(row))
	}
	return out
}

func rowToWithdrawal(row generated.WithdrawalRequest) *domain.WithdrawalRequest {
	return &domain.WithdrawalRequest{
		ID:                  row.ID,
		UserID:              row.UserID,
		PayoutMethodID:      row.PayoutMethodID,
		Amount:              numericToDecimal(row.Amount),
		Currency:            row.Currency,
		Reference:           row.Reference,
		Status:              domain.WithdrawalStatus(row.Status),
		GatewayTransferCode: textToPtr(row.GatewayTransferCode),
		FailureReason:       textToPtr(row.FailureReason),
		CreatedAt:           row.CreatedAt.Time,
		UpdatedAt:           row.UpdatedAt.Time,
	}
}
