package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger transaction. The set is open; these are the
// types written by this service.
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeRefund     TransactionType = "refund"
	TransactionTypeAdjustment TransactionType = "adjustment"
)

// TransactionStatus is always completed once written.
type TransactionStatus string

const TransactionStatusCompleted TransactionStatus = "completed"

// LedgerTransaction is an immutable, signed balance change.
// Positive amounts are credits, negative amounts are debits.
type LedgerTransaction struct {
	ID          string
	UserID      string
	Type        TransactionType
	Amount      decimal.Decimal
	Currency    string
	Status      TransactionStatus
	Reference   *string
	Description string
	CreatedAt   time.Time
}

// IsCredit reports whether the transaction increased the balance.
func (t *LedgerTransaction) IsCredit() bool {
	return t.Amount.IsPositive()
}

// Validate checks if the transaction is well formed.
func (t *LedgerTransaction) Validate() error {
	if t.Amount.IsZero() {
		return ErrInvalidAmount
	}
	if t.UserID == "" {
		return ErrWalletNotFound
	}
	return nil
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
