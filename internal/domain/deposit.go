package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DepositStatus string

const (
	DepositStatusPending   DepositStatus = "pending"
	DepositStatusCompleted DepositStatus = "completed"
)

// DepositRequest tracks a gateway charge from initialization until it is credited.
// It moves from pending to completed exactly once and never regresses.
type DepositRequest struct {
	ID               string
	UserID           string
	Reference        string
	Amount           decimal.Decimal
	Currency         string
	Status           DepositStatus
	GatewayReference *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CompletedAt      *time.Time
}

// CanTransitionTo reports whether the deposit may move to next.
func (d *DepositRequest) CanTransitionTo(next DepositStatus) bool {
	return d.Status == DepositStatusPending && next == DepositStatusCompleted
}

// IsCompleted reports whether the deposit has been claimed.
func (d *DepositRequest) IsCompleted() bool {
	return d.Status == DepositStatusCompleted
}

// Validate checks if deposit is valid.
func (d *DepositRequest) Validate() error {
	if d.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return nil
}
