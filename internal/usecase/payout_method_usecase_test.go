package usecase_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
	"github.com/iho/walletledger/internal/usecase/mocks"
)

func TestPayoutMethodUseCase_AddPayoutMethod(t *testing.T) {
	tests := []struct {
		name         string
		details      domain.PayoutDetails
		wantMasked   string
		wantProvider bool
		wantBankCode bool
	}{
		{
			name: "mobile money",
			details: domain.PayoutDetails{
				Type:     domain.PayoutMethodMobileMoney,
				Name:     " Ama Mensah ",
				Phone:    "+233 24 123 4567",
				Provider: "MTN",
			},
			wantMasked:   "***4567",
			wantProvider: true,
		},
		{
			name: "bank account",
			details: domain.PayoutDetails{
				Type:          domain.PayoutMethodBank,
				Name:          "Kofi Boateng",
				AccountNumber: "0012345678",
				BankCode:      "GCB",
			},
			wantMasked:   "***5678",
			wantBankCode: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			method, err := h.payoutUC.AddPayoutMethod(context.Background(), "user-1", tt.details)
			require.NoError(t, err)

			assert.NotEmpty(t, method.RecipientCode)
			assert.Equal(t, tt.wantMasked, method.AccountMasked)
			assert.Equal(t, testCurrency, method.Currency)
			assert.Equal(t, tt.wantProvider, method.Provider != nil)
			assert.Equal(t, tt.wantBankCode, method.BankCode != nil)
			assert.NotEqual(t, " Ama Mensah ", method.DisplayName)

			stored, err := h.payouts.GetByUserID(context.Background(), "user-1")
			require.NoError(t, err)
			assert.Equal(t, method.ID, stored.ID)
		})
	}
}

func TestPayoutMethodUseCase_ReplacesPrevious(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.addPayoutMethod(t, "user-1")
	second, err := h.payoutUC.AddPayoutMethod(ctx, "user-1", domain.PayoutDetails{
		Type:          domain.PayoutMethodBank,
		Name:          "Ama Mensah",
		AccountNumber: "99887766",
		BankCode:      "ECO",
	})
	require.NoError(t, err)

	methods, err := h.payoutUC.ListPayoutMethods(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, methods, 1)
	assert.Equal(t, second.ID, methods[0].ID)
	assert.Equal(t, domain.PayoutMethodBank, methods[0].Type)
}

func TestPayoutMethodUseCase_Validation(t *testing.T) {
	tests := []struct {
		name    string
		details domain.PayoutDetails
		wantErr error
	}{
		{
			name:    "missing name",
			details: domain.PayoutDetails{Type: domain.PayoutMethodMobileMoney, Phone: "0241234567", Provider: "MTN"},
			wantErr: domain.ErrInvalidPayoutMethod,
		},
		{
			name:    "mobile money without provider",
			details: domain.PayoutDetails{Type: domain.PayoutMethodMobileMoney, Name: "Ama", Phone: "0241234567"},
			wantErr: domain.ErrInvalidPayoutMethod,
		},
		{
			name:    "bank without code",
			details: domain.PayoutDetails{Type: domain.PayoutMethodBank, Name: "Ama", AccountNumber: "123"},
			wantErr: domain.ErrInvalidPayoutMethod,
		},
		{
			name:    "unknown type",
			details: domain.PayoutDetails{Type: "card", Name: "Ama"},
			wantErr: domain.ErrInvalidPayoutMethod,
		},
		{
			name:    "unsupported currency",
			details: domain.PayoutDetails{Type: domain.PayoutMethodMobileMoney, Name: "Ama", Phone: "0241234567", Provider: "MTN", Currency: "JPY"},
			wantErr: domain.ErrInvalidCurrency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			gw := mocks.NewMockGateway(ctrl)
			payouts := mocks.NewMockPayoutMethodRepository()

			uc := usecase.NewPayoutMethodUseCase(&mocks.MockTransactionManager{}, payouts, gw, mocks.NewMockIDGenerator(), zerolog.Nop(), testCurrency)

			_, err := uc.AddPayoutMethod(context.Background(), "user-1", tt.details)
			assert.ErrorIs(t, err, tt.wantErr)

			_, err = payouts.GetByUserID(context.Background(), "user-1")
			assert.ErrorIs(t, err, domain.ErrPayoutMethodRequired)
		})
	}
}

func TestPayoutMethodUseCase_GatewayRejectsRecipient(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := mocks.NewMockGateway(ctrl)
	payouts := mocks.NewMockPayoutMethodRepository()

	gw.EXPECT().CreatePayoutRecipient(gomock.Any(), gomock.Any()).Return("", domain.ErrGatewayRejected)

	uc := usecase.NewPayoutMethodUseCase(&mocks.MockTransactionManager{}, payouts, gw, mocks.NewMockIDGenerator(), zerolog.Nop(), testCurrency)

	_, err := uc.AddPayoutMethod(context.Background(), "user-1", domain.PayoutDetails{
		Type:     domain.PayoutMethodMobileMoney,
		Name:     "Ama",
		Phone:    "0241234567",
		Provider: "VOD",
	})
	assert.ErrorIs(t, err, domain.ErrGatewayRejected)

	methods, err := uc.ListPayoutMethods(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, methods)
}
