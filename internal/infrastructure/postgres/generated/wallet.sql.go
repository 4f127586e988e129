
package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const creditWallet = `-- name: CreditWallet :one
UPDATE wallets
SET balance = balance + $2, updated_at = $3
WHERE user_id = $1
RETURNING id, user_id, balance, currency, status, created_at, updated_at
`

type CreditWalletParams struct {
	UserID    string             `json:"user_id"`
	Amount    pgtype.Numeric     `json:"amount"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreditWallet(ctx context.Context, arg CreditWalletParams) (Wallet, error) {
	row := q.db.QueryRow(ctx, creditWallet, arg.UserID, arg.Amount, arg.UpdatedAt)
	var i Wallet
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Balance,
		&i.Currency,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const debitWallet = `-- name: DebitWallet :one
UPDATE wallets
SET balance = balance - $2, updated_at = $3
WHERE user_id = $1 AND balance >= $2
RETURNING id, user_id, balance, currency, status, created_at, updated_at
`

type DebitWalletParams struct {
	UserID    string             `json:"user_id"`
	Amount    pgtype.Numeric     `json:"amount"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) DebitWallet(ctx context.Context, arg DebitWalletParams) (Wallet, error) {
	row := q.db.QueryRow(ctx, debitWallet, arg.UserID, arg.Amount, arg.UpdatedAt)
	var i Wallet
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Balance,
		&i.Currency,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getWalletByUserID = `-- name: GetWalletByUserID :one
SELECT id, user_id, balance, currency, status, created_at, updated_at FROM wallets WHERE user_id = $1
`

func (q *Queries) GetWalletByUserID(ctx context.Context, userID string) (Wallet, error) {
	row := q.db.QueryRow(ctx, getWalletByUserID, userID)
	var i Wallet
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Balance,
		&i.Currency,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getWalletByUserIDForUpdate = `-- name: GetWalletByUserIDForUpdate :one
SELECT id, user_id, balance, currency, status, created_at, updated_at FROM wallets WHERE user_id = $1 FOR UPDATE
`

func (q *Queries) GetWalletByUserIDForUpdate(ctx context.Context, userID string) (Wallet, error) {
	row := q.db.QueryRow(ctx, getWalletByUserIDForUpdate, userID)
	var i Wallet
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Balance,
		&i.Currency,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const insertWalletIfAbsent = `-- name: InsertWalletIfAbsent :exec
INSERT INTO wallets (id, user_id, balance, currency, status, created_at, updated_at)
VALUES ($1, $2, 0, $3, 'active', $4, $4)
ON CONFLICT (user_id) DO NOTHING
`

type InsertWalletIfAbsentParams struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	Currency  string             `json:"currency"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) InsertWalletIfAbsent(ctx context.Context, arg InsertWalletIfAbsentParams) error {
	_, err := q.db.Exec(ctx, insertWalletIfAbsent,
		arg.ID,
		arg.UserID,
		arg.Currency,
		arg.CreatedAt,
	)
	return err
}

const updateWalletStatus = `-- name: UpdateWalletStatus :execrows
UPDATE wallets SET status = $2, updated_at = $3 WHERE user_id = $1
`

type UpdateWalletStatusParams struct {
	UserID    string             `json:"user_id"`
	Status    string             `json:"status"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateWalletStatus(ctx context.Context, arg UpdateWalletStatusParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateWalletStatus, arg.UserID, arg.Status, arg.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
