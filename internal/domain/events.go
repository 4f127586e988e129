package domain

import "time"

// Event types
const (
	EventTypeDepositCompleted    = "deposit.completed"
	EventTypeWithdrawalRequested = "withdrawal.requested"
	EventTypeWithdrawalCompleted = "withdrawal.completed"
	EventTypeWithdrawalFailed    = "withdrawal.failed"
)

// Aggregate types
const (
	AggregateTypeDeposit    = "deposit"
	AggregateTypeWithdrawal = "withdrawal"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// DepositCompletedEvent payload
type DepositCompletedEvent struct {
	DepositID string `json:"deposit_id"`
	UserID    string `json:"user_id"`
	Reference string `json:"reference"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Channel   string `json:"channel"`
}

// WithdrawalEvent payload, shared by requested, completed and failed events.
type WithdrawalEvent struct {
	WithdrawalID  string `json:"withdrawal_id"`
	UserID        string `json:"user_id"`
	Reference     string `json:"reference"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// ToMap flattens the payload for the outbox.
func (e DepositCompletedEvent) ToMap() map[string]any {
	return map[string]any{
		"deposit_id": e.DepositID,
		"user_id":    e.UserID,
		"reference":  e.Reference,
		"amount":     e.Amount,
		"currency":   e.Currency,
		"channel":    e.Channel,
	}
}

// ToMap flattens the payload for the outbox.
func (e WithdrawalEvent) ToMap() map[string]any {
	m := map[string]any{
		"withdrawal_id": e.WithdrawalID,
		"user_id":       e.UserID,
		"reference":     e.Reference,
		"amount":        e.Amount,
		"currency":      e.Currency,
		"status":        e.Status,
	}
	if e.FailureReason != "" {
		m["failure_reason"] = e.FailureReason
	}
	return m
}
