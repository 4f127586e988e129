package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type WithdrawalStatus string

const (
	WithdrawalStatusProcessing WithdrawalStatus = "processing"
	WithdrawalStatusCompleted  WithdrawalStatus = "completed"
	WithdrawalStatusFailed     WithdrawalStatus = "failed"
)

var withdrawalTransitions = map[WithdrawalStatus][]WithdrawalStatus{
	WithdrawalStatusProcessing: {WithdrawalStatusCompleted, WithdrawalStatusFailed},
}

// IsTerminal reports whether no further transitions are possible.
func (s WithdrawalStatus) IsTerminal() bool {
	return s == WithdrawalStatusCompleted || s == WithdrawalStatusFailed
}

// ValidateWithdrawalTransition returns ErrInvalidStatusTransition unless from -> to is allowed.
func ValidateWithdrawalTransition(from, to WithdrawalStatus) error {
	for _, allowed := range withdrawalTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, from, to)
}

// WithdrawalRequest is a payout saga: debit, gateway transfer, refund on failure.
// A failed request always has a refund transaction written for it.
type WithdrawalRequest struct {
	ID                  string
	UserID              string
	PayoutMethodID      string
	Amount              decimal.Decimal
	Currency            string
	Reference           string
	Status              WithdrawalStatus
	GatewayTransferCode *string
	FailureReason       *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Validate validates withdrawal request.
func (w *WithdrawalRequest) Validate() error {
	if w.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if w.PayoutMethodID == "" {
		return ErrPayoutMethodRequired
	}
	return nil
}
