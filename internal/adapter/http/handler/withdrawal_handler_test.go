package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

type withdrawalServiceStub struct {
	requestFn func(ctx context.Context, userID string, amount decimal.Decimal) (*usecase.WithdrawalOutcome, error)
	list      []*domain.WithdrawalRequest
	get       *domain.WithdrawalRequest
	getErr    error
}

func (s *withdrawalServiceStub) Request(ctx context.Context, userID string, amount decimal.Decimal) (*usecase.WithdrawalOutcome, error) {
	return s.requestFn(ctx, userID, amount)
}

func (s *withdrawalServiceStub) ListWithdrawals(ctx context.Context, userID string, limit int) ([]*domain.WithdrawalRequest, error) {
	return s.list, nil
}

func (s *withdrawalServiceStub) GetWithdrawal(ctx context.Context, userID, id string) (*domain.WithdrawalRequest, error) {
	return s.get, s.getErr
}

func withdrawal(status domain.WithdrawalStatus) *domain.WithdrawalRequest {
	return &domain.WithdrawalRequest{
		ID:        "wd-1",
		UserID:    "user-1",
		Amount:    decimal.NewFromInt(20),
		Currency:  "GHS",
		Reference: "wdr_01",
		Status:    status,
	}
}

func TestWithdrawalHandler_Create(t *testing.T) {
	tests := []struct {
		name    string
		outcome *usecase.WithdrawalOutcome
		err     error
		status  int
		body    string
	}{
		{
			name:    "completed",
			outcome: &usecase.WithdrawalOutcome{Withdrawal: withdrawal(domain.WithdrawalStatusCompleted), Message: usecase.WithdrawalMessageCompleted},
			status:  http.StatusCreated,
			body:    `"status":"completed"`,
		},
		{
			name:    "processing",
			outcome: &usecase.WithdrawalOutcome{Withdrawal: withdrawal(domain.WithdrawalStatusProcessing), Message: usecase.WithdrawalMessageProcessing},
			status:  http.StatusAccepted,
			body:    `"message":"Withdrawal initiated. Funds will arrive shortly."`,
		},
		{
			name:   "insufficient balance",
			err:    domain.ErrInsufficientBalance,
			status: http.StatusUnprocessableEntity,
			body:   `"error":"insufficient_balance"`,
		},
		{
			name:   "refunded after rejection",
			err:    fmt.Errorf("withdrawal wdr_01 refunded: %w: invalid recipient", domain.ErrGatewayRejected),
			status: http.StatusUnprocessableEntity,
			body:   `"error":"gateway_rejected"`,
		},
		{
			name:   "no payout method",
			err:    domain.ErrPayoutMethodRequired,
			status: http.StatusBadRequest,
			body:   `"message":"add a payout method first"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewWithdrawalHandler(&withdrawalServiceStub{
				requestFn: func(ctx context.Context, userID string, amount decimal.Decimal) (*usecase.WithdrawalOutcome, error) {
					assert.Equal(t, "user-1", userID)
					assert.True(t, amount.Equal(decimal.NewFromInt(20)))
					return tt.outcome, tt.err
				},
			})

			rec := httptest.NewRecorder()
			h.Create(rec, newRequest(http.MethodPost, "/api/v1/withdrawals", `{"amount":"20"}`, "user-1"))

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestWithdrawalHandler_ListAndGet(t *testing.T) {
	stub := &withdrawalServiceStub{
		list: []*domain.WithdrawalRequest{withdrawal(domain.WithdrawalStatusFailed)},
		get:  withdrawal(domain.WithdrawalStatusProcessing),
	}
	h := NewWithdrawalHandler(stub)

	rec := httptest.NewRecorder()
	h.List(rec, newRequest(http.MethodGet, "/api/v1/withdrawals", "", "user-1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"failed"`)

	rec = httptest.NewRecorder()
	h.Get(rec, withURLParam(newRequest(http.MethodGet, "/api/v1/withdrawals/wd-1", "", "user-1"), "id", "wd-1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reference":"wdr_01"`)

	stub.get, stub.getErr = nil, domain.ErrWithdrawalNotFound
	rec = httptest.NewRecorder()
	h.Get(rec, withURLParam(newRequest(http.MethodGet, "/api/v1/withdrawals/other", "", "user-1"), "id", "other"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type payoutServiceStub struct {
	added   domain.PayoutDetails
	method  *domain.PayoutMethod
	err     error
	methods []*domain.PayoutMethod
}

func (s *payoutServiceStub) AddPayoutMethod(ctx context.Context, userID string, details domain.PayoutDetails) (*domain.PayoutMethod, error) {
	s.added = details
	return s.method, s.err
}

func (s *payoutServiceStub) ListPayoutMethods(ctx context.Context, userID string) ([]*domain.PayoutMethod, error) {
	return s.methods, nil
}

func TestPayoutHandler_Create(t *testing.T) {
	stub := &payoutServiceStub{method: &domain.PayoutMethod{
		ID:            "pm-1",
		Type:          domain.PayoutMethodBank,
		DisplayName:   "Kofi",
		AccountMasked: "***7890",
		RecipientCode: "RCP_secret",
		Currency:      "GHS",
	}}
	h := NewPayoutHandler(stub)

	body := `{"type":"bank","name":"Kofi","account_number":"1234567890","bank_code":"058"}`
	rec := httptest.NewRecorder()
	h.Create(rec, newRequest(http.MethodPost, "/api/v1/payout-methods", body, "user-1"))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "1234567890", stub.added.AccountNumber)
	assert.Contains(t, rec.Body.String(), `"account_masked":"***7890"`)
	assert.NotContains(t, rec.Body.String(), "RCP_secret")
	assert.NotContains(t, rec.Body.String(), "1234567890")
}

func TestPayoutHandler_CreateInvalid(t *testing.T) {
	h := NewPayoutHandler(&payoutServiceStub{err: fmt.Errorf("%w: unsupported type \"card\"", domain.ErrInvalidPayoutMethod)})

	rec := httptest.NewRecorder()
	h.Create(rec, newRequest(http.MethodPost, "/api/v1/payout-methods", `{"type":"card","name":"x"}`, "user-1"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_payout_method")
}
