package dto

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
)

func TestAmountRequest_ParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    decimal.Decimal
		wantErr bool
	}{
		{name: "integer", raw: "25", want: decimal.NewFromInt(25)},
		{name: "two decimals", raw: "12.34", want: decimal.RequireFromString("12.34")},
		{name: "surrounding space", raw: " 5.00 ", want: decimal.NewFromInt(5)},
		{name: "empty", raw: "", wantErr: true},
		{name: "not a number", raw: "ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &AmountRequest{Amount: tt.raw}
			got, err := req.ParseAmount()

			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidAmount) {
					t.Fatalf("expected ErrInvalidAmount, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("ParseAmount() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAddPayoutMethodRequest_ToDetails(t *testing.T) {
	req := &AddPayoutMethodRequest{
		Type:     " mobile_money ",
		Name:     "Ama Mensah",
		Phone:    "+233 24 123 4567",
		Provider: "MTN",
		Currency: "ghs",
	}

	got := req.ToDetails()
	want := domain.PayoutDetails{
		Type:     domain.PayoutMethodMobileMoney,
		Name:     "Ama Mensah",
		Phone:    "+233 24 123 4567",
		Provider: "MTN",
		Currency: "GHS",
	}

	if got != want {
		t.Fatalf("ToDetails() = %+v, want %+v", got, want)
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("expected valid details, got %v", err)
	}
}
