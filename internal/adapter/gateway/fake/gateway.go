// Package fake is an in-process payment gateway for local runs and tests.
// Charges stay pending until settled through Settle; transfers resolve with a
// configurable status.
package fake

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/adapter/gateway/paystack"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

type charge struct {
	amount    decimal.Decimal
	status    string
	gatewayID string
}

// Gateway implements usecase.Gateway in memory. Webhook signatures use the
// same scheme as Paystack so signed payloads are interchangeable.
type Gateway struct {
	mu        sync.Mutex
	secret    string
	seq       int
	charges   map[string]*charge
	transfers map[string]*usecase.TransferResult

	transferStatus string
	transferErr    error
	verifyErr      error

	verifyCalls int
	autoSettle  bool
}

// New creates a Gateway that signs webhooks with secret.
func New(secret string) *Gateway {
	return &Gateway{
		secret:         secret,
		charges:        make(map[string]*charge),
		transfers:      make(map[string]*usecase.TransferResult),
		transferStatus: usecase.TransferStatusSuccess,
	}
}

// WithAutoSettle makes every new charge settle immediately for its full amount.
func (g *Gateway) WithAutoSettle() *Gateway {
	g.autoSettle = true
	return g
}

// SetTransferOutcome makes subsequent InitiateTransfer calls report status, or fail with err when non-nil.
func (g *Gateway) SetTransferOutcome(status string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.transferStatus = status
	g.transferErr = err
}

// SetVerifyError makes VerifyCharge fail with err until reset with nil.
func (g *Gateway) SetVerifyError(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifyErr = err
}

// SetTransferStatus changes what VerifyTransfer reports for reference.
func (g *Gateway) SetTransferStatus(reference, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if t, ok := g.transfers[reference]; ok {
		t.Status = status
		return
	}
	g.transfers[reference] = &usecase.TransferResult{Status: status}
}

// Settle marks the charge for reference as paid with amount.
func (g *Gateway) Settle(reference string, amount decimal.Decimal) {
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.charges[reference]
	if !ok {
		c = &charge{}
		g.charges[reference] = c
	}
	g.seq++
	c.amount = amount
	c.status = usecase.ChargeStatusSuccess
	c.gatewayID = fmt.Sprintf("FAKE-%d", g.seq)
}

// VerifyCalls returns how many times VerifyCharge was called.
func (g *Gateway) VerifyCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.verifyCalls
}

// ChargeSuccessWebhook returns a signed charge.success payload for reference.
func (g *Gateway) ChargeSuccessWebhook(reference string) (body []byte, signature string) {
	body, _ = json.Marshal(map[string]any{
		"event": "charge.success",
		"data":  map[string]any{"reference": reference},
	})
	return body, paystack.Sign(g.secret, body)
}

// InitializeCharge registers a pending charge, or a settled one with WithAutoSettle.
func (g *Gateway) InitializeCharge(ctx context.Context, req usecase.ChargeRequest) (*usecase.ChargeSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.charges[req.Reference]; ok {
		return nil, fmt.Errorf("%w: duplicate reference", domain.ErrGatewayRejected)
	}
	c := &charge{amount: req.Amount, status: "pending"}
	if g.autoSettle {
		g.seq++
		c.status = usecase.ChargeStatusSuccess
		c.gatewayID = fmt.Sprintf("FAKE-%d", g.seq)
	}
	g.charges[req.Reference] = c

	return &usecase.ChargeSession{
		AuthorizationURL: "https://checkout.fake.local/" + req.Reference,
		AccessCode:       "fake_" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

// VerifyCharge reports the current state of the charge.
func (g *Gateway) VerifyCharge(ctx context.Context, reference string) (*usecase.ChargeVerification, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.verifyCalls++
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}

	c, ok := g.charges[reference]
	if !ok {
		return nil, fmt.Errorf("%w: transaction reference not found", domain.ErrGatewayRejected)
	}

	return &usecase.ChargeVerification{
		Status:    c.status,
		Amount:    c.amount,
		GatewayID: c.gatewayID,
	}, nil
}

// VerifyWebhookSignature checks the HMAC-SHA512 signature the way Paystack signs.
func (g *Gateway) VerifyWebhookSignature(rawBody []byte, signature string) bool {
	return signature != "" && paystack.Sign(g.secret, rawBody) == signature
}

// CreatePayoutRecipient returns a new recipient code.
func (g *Gateway) CreatePayoutRecipient(ctx context.Context, details domain.PayoutDetails) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.seq++
	return fmt.Sprintf("RCP_fake_%d", g.seq), nil
}

// InitiateTransfer answers with the outcome set by SetTransferOutcome.
func (g *Gateway) InitiateTransfer(ctx context.Context, req usecase.TransferRequest) (*usecase.TransferResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.transferErr != nil {
		return nil, g.transferErr
	}

	g.seq++
	result := &usecase.TransferResult{
		TransferCode: fmt.Sprintf("TRF_fake_%d", g.seq),
		Status:       g.transferStatus,
	}
	g.transfers[req.Reference] = result

	cp := *result
	return &cp, nil
}

// VerifyTransfer returns the last known state of the transfer.
func (g *Gateway) VerifyTransfer(ctx context.Context, reference string) (*usecase.TransferResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	t, ok := g.transfers[reference]
	if !ok {
		return nil, fmt.Errorf("%w: transfer not found", domain.ErrGatewayRejected)
	}
	cp := *t
	return &cp, nil
}
