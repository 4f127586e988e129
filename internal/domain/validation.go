package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	// MoneyScale is the number of decimal places kept in the ledger unit.
	MoneyScale       = 2
	MaxReferenceSize = 100
	MaxDescription   = 255
	DefaultPageSize  = 50
	MaxPageSize      = 100
)

// Valid currency codes (ISO 4217) the wallet can be deployed with.
var validCurrencies = map[string]bool{
	"GHS": true, "NGN": true, "KES": true, "ZAR": true,
	"USD": true, "EUR": true, "GBP": true, "XOF": true,
}

// ValidateCurrency validates currency code
func ValidateCurrency(currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	if !validCurrencies[currency] {
		return fmt.Errorf("%w: %s", ErrInvalidCurrency, currency)
	}

	return nil
}

// AmountLimits bounds the amount of a single deposit or withdrawal.
type AmountLimits struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// Validate checks that amount is positive, has at most two decimals and lies within the limits.
func (l AmountLimits) Validate(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}

	if !amount.Equal(amount.Round(MoneyScale)) {
		return fmt.Errorf("%w: at most %d decimal places", ErrInvalidAmount, MoneyScale)
	}

	if amount.LessThan(l.Min) || amount.GreaterThan(l.Max) {
		return fmt.Errorf("%w: amount must be between %s and %s", ErrInvalidAmount, l.Min.StringFixed(MoneyScale), l.Max.StringFixed(MoneyScale))
	}

	return nil
}

// ValidatePagination clamps a requested page size.
func ValidatePagination(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}

	if limit > MaxPageSize {
		return MaxPageSize
	}

	return limit
}
