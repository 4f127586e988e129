
package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const claimDepositRequest = `-- name: ClaimDepositRequest :one
UPDATE deposit_requests
SET status = 'completed',
    gateway_reference = COALESCE($2, gateway_reference),
    completed_at = $3,
    updated_at = $3
WHERE reference = $1 AND status = 'pending'
RETURNING id, user_id, reference, amount, currency, status, gateway_reference, created_at, updated_at, completed_at
`

type ClaimDepositRequestParams struct {
	Reference        string             `json:"reference"`
	GatewayReference pgtype.Text        `json:"gateway_reference"`
	CompletedAt      pgtype.Timestamptz `json:"completed_at"`
}

func (q *Queries) ClaimDepositRequest(ctx context.Context, arg ClaimDepositRequestParams) (DepositRequest, error) {
	row := q.db.QueryRow(ctx, claimDepositRequest, arg.Reference, arg.GatewayReference, arg.CompletedAt)
	var i DepositRequest
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Reference,
		&i.Amount,
		&i.Currency,
		&i.Status,
		&i.GatewayReference,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.CompletedAt,
	)
	return i, err
}

const createDepositRequest = `-- name: CreateDepositRequest :exec
INSERT INTO deposit_requests (id, user_id, reference, amount, currency, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

type CreateDepositRequestParams struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	Reference string             `json:"reference"`
	Amount    pgtype.Numeric     `json:"amount"`
	Currency  string             `json:"currency"`
	Status    string             `json:"status"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreateDepositRequest(ctx context.Context, arg CreateDepositRequestParams) error {
	_, err := q.db.Exec(ctx, createDepositRequest,
		arg.ID,
		arg.UserID,
		arg.Reference,
		arg.Amount,
		arg.Currency,
		arg.Status,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getDepositRequestByReference = `-- name: GetDepositRequestByReference :one
SELECT id, user_id, reference, amount, currency, status, gateway_reference, created_at, updated_at, completed_at FROM deposit_requests WHERE reference = $1
`

func (q *Queries) GetDepositRequestByReference(ctx context.Context, reference string) (DepositRequest, error) {
	row := q.db.QueryRow(ctx, getDepositRequestByReference, reference)
	var i DepositRequest
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Reference,
		&i.Amount,
		&i.Currency,
		&i.Status,
		&i.GatewayReference,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.CompletedAt,
	)
	return i, err
}

const listPendingDepositRequests = `-- name: ListPendingDepositRequests :many
SELECT id, user_id, reference, amount, currency, status, gateway_reference, created_at, updated_at, completed_at FROM deposit_requests
WHERE status = 'pending' AND created_at >= $1 AND created_at < $2
ORDER BY created_at
LIMIT $3
`

type ListPendingDepositRequestsParams struct {
	CreatedAfter  pgtype.Timestamptz `json:"created_after"`
	CreatedBefore pgtype.Timestamptz `json:"created_before"`
	Limit         int32              `json:"limit"`
}

func (q *Queries) ListPendingDepositRequests(ctx context.Context, arg ListPendingDepositRequestsParams) ([]DepositRequest, error) {
	rows, err := q.db.Query(ctx, listPendingDepositRequests, arg.CreatedAfter, arg.CreatedBefore, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []DepositRequest{}
	for rows.Next() {
		var i DepositRequest
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Reference,
			&i.Amount,
			&i.Currency,
			&i.Status,
			&i.GatewayReference,
			&i.CreatedAt,
			&i.UpdatedAt,
			&i.CompletedAt,
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
