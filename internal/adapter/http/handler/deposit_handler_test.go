package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

func testLogger() zerolog.Logger { return zerolog.Nop() }

type depositServiceStub struct {
	initializeFn func(ctx context.Context, input usecase.InitializeDepositInput) (*usecase.DepositSession, error)
	verifyFn     func(ctx context.Context, userID, reference string) (*usecase.VerifyResult, error)
	webhookFn    func(ctx context.Context, rawBody []byte, signature string) (*usecase.WebhookResult, error)
}

func (s *depositServiceStub) Initialize(ctx context.Context, input usecase.InitializeDepositInput) (*usecase.DepositSession, error) {
	return s.initializeFn(ctx, input)
}

func (s *depositServiceStub) VerifyByReference(ctx context.Context, userID, reference string) (*usecase.VerifyResult, error) {
	return s.verifyFn(ctx, userID, reference)
}

func (s *depositServiceStub) HandleWebhook(ctx context.Context, rawBody []byte, signature string) (*usecase.WebhookResult, error) {
	return s.webhookFn(ctx, rawBody, signature)
}

func TestDepositHandler_Initialize(t *testing.T) {
	var captured usecase.InitializeDepositInput
	h := NewDepositHandler(&depositServiceStub{
		initializeFn: func(ctx context.Context, input usecase.InitializeDepositInput) (*usecase.DepositSession, error) {
			captured = input
			return &usecase.DepositSession{
				Reference:        "dep_01",
				AuthorizationURL: "https://checkout.example/abc",
				Amount:           input.Amount,
				Currency:         "GHS",
			}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.Initialize(rec, newRequest(http.MethodPost, "/api/v1/deposits", `{"amount":"25.50"}`, "user-1"))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "user-1", captured.UserID)
	assert.Equal(t, "user-1@example.com", captured.Email)
	assert.True(t, captured.Amount.Equal(decimal.RequireFromString("25.50")))
	assert.Contains(t, rec.Body.String(), `"authorization_url":"https://checkout.example/abc"`)
	assert.Contains(t, rec.Body.String(), `"reference":"dep_01"`)
}

func TestDepositHandler_InitializeErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"malformed body", `{`, nil, http.StatusBadRequest},
		{"missing amount", `{}`, nil, http.StatusBadRequest},
		{"out of bounds", `{"amount":"0.50"}`, domain.ErrInvalidAmount, http.StatusBadRequest},
		{"gateway down", `{"amount":"10"}`, domain.ErrGatewayUnavailable, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewDepositHandler(&depositServiceStub{
				initializeFn: func(ctx context.Context, input usecase.InitializeDepositInput) (*usecase.DepositSession, error) {
					if tt.err == nil {
						t.Fatal("use case should not be reached")
					}
					return nil, tt.err
				},
			})

			rec := httptest.NewRecorder()
			h.Initialize(rec, newRequest(http.MethodPost, "/api/v1/deposits", tt.body, "user-1"))

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestDepositHandler_Verify(t *testing.T) {
	amount := decimal.NewFromInt(50)
	h := NewDepositHandler(&depositServiceStub{
		verifyFn: func(ctx context.Context, userID, reference string) (*usecase.VerifyResult, error) {
			assert.Equal(t, "user-1", userID)
			assert.Equal(t, "dep_01", reference)
			return &usecase.VerifyResult{Credited: true, Amount: &amount}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.Verify(rec, newRequest(http.MethodGet, "/api/v1/deposits/verify?reference=dep_01", "", "user-1"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"credited":true,"amount":"50.00"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.Verify(rec, newRequest(http.MethodGet, "/api/v1/deposits/verify", "", "user-1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookHandler_AlwaysAnswers200(t *testing.T) {
	tests := []struct {
		name     string
		result   *usecase.WebhookResult
		err      error
		received bool
	}{
		{"credited", &usecase.WebhookResult{Received: true, Credited: true}, nil, true},
		{"duplicate", &usecase.WebhookResult{Received: true}, nil, true},
		{"bad signature", &usecase.WebhookResult{Received: false}, nil, false},
		{"gateway failure", &usecase.WebhookResult{Received: true}, errors.New("verify timed out"), true},
		{"storage failure without result", nil, errors.New("db down"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotBody []byte
			var gotSig string
			h := NewWebhookHandler(&depositServiceStub{
				webhookFn: func(ctx context.Context, rawBody []byte, signature string) (*usecase.WebhookResult, error) {
					gotBody = rawBody
					gotSig = signature
					return tt.result, tt.err
				},
			}, testLogger())

			body := `{"event":"charge.success","data":{"reference":"dep_01"}}`
			req := newRequest(http.MethodPost, "/api/v1/webhooks/paystack", body, "")
			req.Header.Set(PaystackSignatureHeader, "abc123")
			rec := httptest.NewRecorder()

			h.Paystack(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, body, string(gotBody), "raw body is passed through untouched")
			assert.Equal(t, "abc123", gotSig)
			if tt.received {
				assert.JSONEq(t, `{"received":true}`, rec.Body.String())
			} else {
				assert.JSONEq(t, `{"received":false}`, rec.Body.String())
			}
		})
	}
}
