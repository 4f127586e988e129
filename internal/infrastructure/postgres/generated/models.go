package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type DepositRequest struct {
	ID               string             `json:"id"`
	UserID           string             `json:"user_id"`
	Reference        string             `json:"reference"`
	Amount           pgtype.Numeric     `json:"amount"`
	Currency         string             `json:"currency"`
	Status           string             `json:"status"`
	GatewayReference pgtype.Text        `json:"gateway_reference"`
	CreatedAt        pgtype.Timestamptz `json:"created_at"`
	UpdatedAt        pgtype.Timestamptz `json:"updated_at"`
	CompletedAt      pgtype.Timestamptz `json:"completed_at"`
}

type OutboxEvent struct {
	ID            string             `json:"id"`
	AggregateID   string             `json:"aggregate_id"`
	AggregateType string             `json:"aggregate_type"`
	EventType     string             `json:"event_type"`
	Payload       []byte             `json:"payload"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	PublishedAt   pgtype.Timestamptz `json:"published_at"`
	Published     bool               `json:"published"`
}

type PayoutMethod struct {
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

type Transaction struct {
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

type Wallet struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	Balance   pgtype.Numeric     `json:"balance"`
	Currency  string             `json:"currency"`
	Status    string             `json:"status"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

type WithdrawalRequest struct {
	ID                  string             `json:"id"`
	UserID              string             `json:"user_id"`
	PayoutMethodID      string             `json:"payout_method_id"`
	Amount              pgtype.Numeric     `json:"amount"`
	Currency            string             `json:"currency"`
	Reference           string             `json:"reference"`
	Status              string             `json:"status"`
	GatewayTransferCode pgtype.Text        `json:"gateway_transfer_code"`
	FailureReason       pgtype.Text        `json:"failure_reason"`
	CreatedAt           pgtype.Timestamptz `json:"created_at"`
	UpdatedAt           pgtype.Timestamptz `json:"updated_at"`
}
