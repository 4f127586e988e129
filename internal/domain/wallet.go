package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletStatus is the lifecycle state of a wallet.
type WalletStatus string

const (
	WalletStatusActive WalletStatus = "active"
	WalletStatusFrozen WalletStatus = "frozen"
)

// IsValid reports whether s is a known wallet status.
func (s WalletStatus) IsValid() bool {
	return s == WalletStatusActive || s == WalletStatusFrozen
}

// Wallet holds the spendable balance of a single user.
// Balance is only ever changed by the ledger service and never drops below zero.
type Wallet struct {
	ID        string
	UserID    string
	Balance   decimal.Decimal
	Currency  string
	Status    WalletStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateDebit checks if the wallet can be debited by amount.
func (w *Wallet) ValidateDebit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if w.Status == WalletStatusFrozen {
		return ErrWalletFrozen
	}
	if w.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	return nil
}

// ValidateCredit checks if the wallet can be credited by amount.
// Frozen wallets still accept credits so refunds are never blocked.
func (w *Wallet) ValidateCredit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return nil
}

// BalanceMismatch describes a wallet whose balance differs from the sum of its transactions.
type BalanceMismatch struct {
	UserID          string
	Balance         decimal.Decimal
	TransactionSum  decimal.Decimal
	TransactionRows int64
}

// Difference returns balance minus the transaction sum.
func (m BalanceMismatch) Difference() decimal.Decimal {
	return m.Balance.Sub(m.TransactionSum)
}
