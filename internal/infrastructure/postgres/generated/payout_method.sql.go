
package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createPayoutMethod = `-- name: CreatePayoutMethod :exec
INSERT INTO payout_methods (id, user_id, type, recipient_code, display_name, account_masked, bank_code, provider, currency, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

type CreatePayoutMethodParams struct {
	ID            string             `json:"id"`
	UserID        string             `json:"user_id"`
	Type          string             `json:"type"`
	RecipientCode string             `json:"recipient_code"`
	DisplayName   string             `json:"display_name"`
	AccountMasked string             `json:"account_masked"`
	BankCode      pgtype.Text        `json:"bank_code"`
	Provider      pgtype.Text        `json:"provider"`
	Currency      string             `json:"currency"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreatePayoutMethod(ctx context.Context, arg CreatePayoutMethodParams) error {
	_, err := q.db.Exec(ctx, createPayoutMethod,
		arg.ID,
		arg.UserID,
		arg.Type,
		arg.RecipientCode,
		arg.DisplayName,
		arg.AccountMasked,
		arg.BankCode,
		arg.Provider,
		arg.Currency,
		arg.CreatedAt,
	)
	return err
}

const deletePayoutMethodsByUser = `-- name: DeletePayoutMethodsByUser :exec
DELETE FROM payout_methods WHERE user_id = $1
`

func (q *Queries) DeletePayoutMethodsByUser(ctx context.Context, userID string) error {
	_, err := q.db.Exec(ctx, deletePayoutMethodsByUser, userID)
	return err
}

const getPayoutMethodByUserID = `-- name: GetPayoutMethodByUserID :one
SELECT id, user_id, type, recipient_code, display_name, account_masked, bank_code, provider, currency, created_at FROM payout_methods WHERE user_id = $1
`

func (q *Queries) GetPayoutMethodByUserID(ctx context.Context, userID string) (PayoutMethod, error) {
	row := q.db.QueryRow(ctx, getPayoutMethodByUserID, userID)
	var i PayoutMethod
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Type,
		&i.RecipientCode,
		&i.DisplayName,
		&i.AccountMasked,
		&i.BankCode,
		&i.Provider,
		&i.Currency,
		&i.CreatedAt,
	)
	return i, err
}
