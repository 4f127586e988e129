
package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createTransaction = `-- name: CreateTransaction :exec
INSERT INTO transactions (id, user_id, type, amount, currency, status, reference, description, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

type CreateTransactionParams struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	Type        string             `json:"type"`
	Amount      pgtype.Numeric     `json:"amount"`
	Currency    string             `json:"currency"`
	Status      string             `json:"status"`
	Reference   pgtype.Text        `json:"reference"`
	Description string             `json:"description"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) error {
	_, err := q.db.Exec(ctx, createTransaction,
		arg.ID,
		arg.UserID,
		arg.Type,
		arg.Amount,
		arg.Currency,
		arg.Status,
		arg.Reference,
		arg.Description,
		arg.CreatedAt,
	)
	return err
}

const findBalanceMismatches = `-- name: FindBalanceMismatches :many
SELECT w.user_id, w.balance, COALESCE(t.total, 0)::NUMERIC AS transaction_sum, COALESCE(t.rows, 0)::BIGINT AS transaction_rows
FROM wallets w
LEFT JOIN (
    SELECT user_id, SUM(amount) AS total, COUNT(*) AS rows
    FROM transactions
    WHERE status = 'completed'
    GROUP BY user_id
) t ON t.user_id = w.user_id
WHERE w.balance <> COALESCE(t.total, 0)
ORDER BY w.user_id
`

type FindBalanceMismatchesRow struct {
	UserID          string         `json:"user_id"`
	Balance         pgtype.Numeric `json:"balance"`
	TransactionSum  pgtype.Numeric `json:"transaction_sum"`
	TransactionRows int64          `json:"transaction_rows"`
}

func (q *Queries) FindBalanceMismatches(ctx context.Context) ([]FindBalanceMismatchesRow, error) {
	rows, err := q.db.Query(ctx, findBalanceMismatches)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []FindBalanceMismatchesRow{}
	for rows.Next() {
		var i FindBalanceMismatchesRow
		if err := rows.Scan(
			&i.UserID,
			&i.Balance,
			&i.TransactionSum,
			&i.TransactionRows,
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

const getTransactionByReference = `-- name: GetTransactionByReference :one
SELECT id, user_id, type, amount, currency, status, reference, description, created_at FROM transactions
WHERE user_id = $1 AND reference = $2 AND type = $3
ORDER BY created_at DESC
LIMIT 1
`

type GetTransactionByReferenceParams struct {
	UserID    string      `json:"user_id"`
	Reference pgtype.Text `json:"reference"`
	Type      string      `json:"type"`
}

func (q *Queries) GetTransactionByReference(ctx context.Context, arg GetTransactionByReferenceParams) (Transaction, error) {
	row := q.db.QueryRow(ctx, getTransactionByReference, arg.UserID, arg.Reference, arg.Type)
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Type,
		&i.Amount,
		&i.Currency,
		&i.Status,
		&i.Reference,
		&i.Description,
		&i.CreatedAt,
	)
	return i, err
}

const listTransactionsByUser = `-- name: ListTransactionsByUser :many
SELECT id, user_id, type, amount, currency, status, reference, description, created_at FROM transactions
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`

type ListTransactionsByUserParams struct {
	UserID string `json:"user_id"`
	Limit  int32  `json:"limit"`
}

func (q *Queries) ListTransactionsByUser(ctx context.Context, arg ListTransactionsByUserParams) ([]Transaction, error) {
	rows, err := q.db.Query(ctx, listTransactionsByUser, arg.UserID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Transaction{}
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Type,
			&i.Amount,
			&i.Currency,
			&i.Status,
			&i.Reference,
			&i.Description,
			&i.CreatedAt,
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
