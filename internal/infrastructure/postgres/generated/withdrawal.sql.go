
package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const completeWithdrawalRequest = `-- name: CompleteWithdrawalRequest :execrows
UPDATE withdrawal_requests
SET status = 'completed',
    gateway_transfer_code = COALESCE($2, gateway_transfer_code),
    updated_at = $3
WHERE id = $1 AND status = 'processing'
`

type CompleteWithdrawalRequestParams struct {
	ID                  string             `json:"id"`
	GatewayTransferCode pgtype.Text        `json:"gateway_transfer_code"`
	UpdatedAt           pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CompleteWithdrawalRequest(ctx context.Context, arg CompleteWithdrawalRequestParams) (int64, error) {
	result, err := q.db.Exec(ctx, completeWithdrawalRequest, arg.ID, arg.GatewayTransferCode, arg.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const createWithdrawalRequest = `-- name: CreateWithdrawalRequest :exec
INSERT INTO withdrawal_requests (id, user_id, payout_method_id, amount, currency, reference, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

type CreateWithdrawalRequestParams struct {
	ID             string             `json:"id"`
	UserID         string             `json:"user_id"`
	PayoutMethodID string             `json:"payout_method_id"`
	Amount         pgtype.Numeric     `json:"amount"`
	Currency       string             `json:"currency"`
	Reference      string             `json:"reference"`
	Status         string             `json:"status"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreateWithdrawalRequest(ctx context.Context, arg CreateWithdrawalRequestParams) error {
	_, err := q.db.Exec(ctx, createWithdrawalRequest,
		arg.ID,
		arg.UserID,
		arg.PayoutMethodID,
		arg.Amount,
		arg.Currency,
		arg.Reference,
		arg.Status,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const failWithdrawalRequest = `-- name: FailWithdrawalRequest :execrows
UPDATE withdrawal_requests
SET status = 'failed', failure_reason = $2, updated_at = $3
WHERE id = $1 AND status = 'processing'
`

type FailWithdrawalRequestParams struct {
	ID            string             `json:"id"`
	FailureReason pgtype.Text        `json:"failure_reason"`
	UpdatedAt     pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) FailWithdrawalRequest(ctx context.Context, arg FailWithdrawalRequestParams) (int64, error) {
	result, err := q.db.Exec(ctx, failWithdrawalRequest, arg.ID, arg.FailureReason, arg.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getWithdrawalRequestByID = `-- name: GetWithdrawalRequestByID :one
SELECT id, user_id, payout_method_id, amount, currency, reference, status, gateway_transfer_code, failure_reason, created_at, updated_at FROM withdrawal_requests WHERE id = $1
`

func (q *Queries) GetWithdrawalRequestByID(ctx context.Context, id string) (WithdrawalRequest, error) {
	row := q.db.QueryRow(ctx, getWithdrawalRequestByID, id)
	var i WithdrawalRequest
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.PayoutMethodID,
		&i.Amount,
		&i.Currency,
		&i.Reference,
		&i.Status,
		&i.GatewayTransferCode,
		&i.FailureReason,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listProcessingWithdrawalRequestsBefore = `-- name: ListProcessingWithdrawalRequestsBefore :many
SELECT id, user_id, payout_method_id, amount, currency, reference, status, gateway_transfer_code, failure_reason, created_at, updated_at FROM withdrawal_requests
WHERE status = 'processing' AND created_at < $1
ORDER BY created_at
LIMIT $2
`

type ListProcessingWithdrawalRequestsBeforeParams struct {
	CreatedBefore pgtype.Timestamptz `json:"created_before"`
	Limit         int32              `json:"limit"`
}

func (q *Queries) ListProcessingWithdrawalRequestsBefore(ctx context.Context, arg ListProcessingWithdrawalRequestsBeforeParams) ([]WithdrawalRequest, error) {
	rows, err := q.db.Query(ctx, listProcessingWithdrawalRequestsBefore, arg.CreatedBefore, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWithdrawalRequests(rows)
}

const listWithdrawalRequestsByUser = `-- name: ListWithdrawalRequestsByUser :many
SELECT id, user_id, payout_method_id, amount, currency, reference, status, gateway_transfer_code, failure_reason, created_at, updated_at FROM withdrawal_requests
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2
`

type ListWithdrawalRequestsByUserParams struct {
	UserID string `json:"user_id"`
	Limit  int32  `json:"limit"`
}

func (q *Queries) ListWithdrawalRequestsByUser(ctx context.Context, arg ListWithdrawalRequestsByUserParams) ([]WithdrawalRequest, error) {
	rows, err := q.db.Query(ctx, listWithdrawalRequestsByUser, arg.UserID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWithdrawalRequests(rows)
}

func scanWithdrawalRequests(rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}) ([]WithdrawalRequest, error) {
	items := []WithdrawalRequest{}
	for rows.Next() {
		var i WithdrawalRequest
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.PayoutMethodID,
			&i.Amount,
			&i.Currency,
			&i.Reference,
			&i.Status,
			&i.GatewayTransferCode,
			&i.FailureReason,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const setWithdrawalTransferCode = `-- name: SetWithdrawalTransferCode :exec
UPDATE withdrawal_requests SET gateway_transfer_code = $2, updated_at = $3 WHERE id = $1
`

type SetWithdrawalTransferCodeParams struct {
	ID                  string             `json:"id"`
	GatewayTransferCode pgtype.Text        `json:"gateway_transfer_code"`
	UpdatedAt           pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) SetWithdrawalTransferCode(ctx context.Context, arg SetWithdrawalTransferCodeParams) error {
	_, err := q.db.Exec(ctx, setWithdrawalTransferCode, arg.ID, arg.GatewayTransferCode, arg.UpdatedAt)
	return err
}
