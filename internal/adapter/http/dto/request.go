package dto

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
)

// AmountRequest is the body of POST /deposits and POST /withdrawals.
// Amount is a decimal string in the wallet currency, e.g. "25.50".
type AmountRequest struct {
	Amount string `json:"amount"`
}

// ParseAmount parses the amount. Bounds and scale are checked by the use case.
func (r *AmountRequest) ParseAmount() (decimal.Decimal, error) {
	return parseAmount(r.Amount)
}

// AddPayoutMethodRequest represents a request to register a payout method.
type AddPayoutMethodRequest struct {
	Type          string `json:"type"`
	Name          string `json:"name"`
	Phone         string `json:"phone,omitempty"`
	Provider      string `json:"provider,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	BankCode      string `json:"bank_code,omitempty"`
	Currency      string `json:"currency,omitempty"`
}

// ToDetails converts to domain payout details.
func (r *AddPayoutMethodRequest) ToDetails() domain.PayoutDetails {
	return domain.PayoutDetails{
		Type:          domain.PayoutMethodType(strings.TrimSpace(r.Type)),
		Name:          r.Name,
		Phone:         r.Phone,
		Provider:      r.Provider,
		AccountNumber: r.AccountNumber,
		BankCode:      r.BankCode,
		Currency:      strings.ToUpper(strings.TrimSpace(r.Currency)),
	}
}

func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", domain.ErrInvalidAmount)
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a decimal", domain.ErrInvalidAmount, raw)
	}

	return amount, nil
}
