package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

type PayoutMethodType string

const (
	PayoutMethodBank        PayoutMethodType = "bank"
	PayoutMethodMobileMoney PayoutMethodType = "mobile_money"
)

// PayoutMethod is where withdrawals are sent. A user has at most one.
type PayoutMethod struct {
	ID            string
	UserID        string
	Type          PayoutMethodType
	RecipientCode string
	DisplayName   string
	AccountMasked string
	BankCode      *string
	Provider      *string
	Currency      string
	CreatedAt     time.Time
}

// PayoutDetails is the unmasked input used to register a payout recipient.
type PayoutDetails struct {
	Type          PayoutMethodType
	Name          string
	Phone         string
	Provider      string
	AccountNumber string
	BankCode      string
	Currency      string
}

// Validate checks the fields each payout type requires.
func (d PayoutDetails) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPayoutMethod)
	}

	switch d.Type {
	case PayoutMethodMobileMoney:
		if digitsOnly(d.Phone) == "" || d.Provider == "" {
			return fmt.Errorf("%w: phone and provider required for mobile money", ErrInvalidPayoutMethod)
		}
	case PayoutMethodBank:
		if d.AccountNumber == "" || d.BankCode == "" {
			return fmt.Errorf("%w: account number and bank code required", ErrInvalidPayoutMethod)
		}
	default:
		return fmt.Errorf("%w: unsupported type %q", ErrInvalidPayoutMethod, d.Type)
	}

	return nil
}

// AccountIdentifier returns the phone digits or account number the gateway pays into.
func (d PayoutDetails) AccountIdentifier() string {
	if d.Type == PayoutMethodMobileMoney {
		return digitsOnly(d.Phone)
	}
	return strings.TrimSpace(d.AccountNumber)
}

// MaskAccount keeps the last four characters of an account identifier.
func MaskAccount(identifier string) string {
	if len(identifier) <= 4 {
		return "***" + identifier
	}
	return "***" + identifier[len(identifier)-4:]
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
