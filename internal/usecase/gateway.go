package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
)

// Gateway charge and transfer statuses as reported by the payment provider.
const (
	ChargeStatusSuccess = "success"

	TransferStatusSuccess  = "success"
	TransferStatusPending  = "pending"
	TransferStatusOTP      = "otp"
	TransferStatusFailed   = "failed"
	TransferStatusReversed = "reversed"
)

// ChargeRequest asks the gateway to start a hosted checkout.
// Amount is in ledger units; the gateway client converts to minor units.
type ChargeRequest struct {
	Email       string
	Amount      decimal.Decimal
	Reference   string
	CallbackURL string
	Metadata    map[string]string
}

// ChargeSession is returned by InitializeCharge.
type ChargeSession struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// ChargeVerification is the gateway's view of a charge.
type ChargeVerification struct {
	Status    string
	Amount    decimal.Decimal
	Currency  string
	GatewayID string
}

// Succeeded reports whether the charge settled.
func (v *ChargeVerification) Succeeded() bool {
	return v != nil && v.Status == ChargeStatusSuccess
}

// TransferRequest asks the gateway to pay out to a registered recipient.
type TransferRequest struct {
	Amount        decimal.Decimal
	RecipientCode string
	Reference     string
	Reason        string
}

// TransferResult is the gateway's view of a transfer.
type TransferResult struct {
	TransferCode string
	Status       string
}

// Gateway is the outbound payment provider.
//
// Every error wraps domain.ErrGatewayRejected when the provider answered with a
// refusal, or domain.ErrGatewayUnavailable for transport failures, timeouts and
// 5xx responses.
type Gateway interface {
	InitializeCharge(ctx context.Context, req ChargeRequest) (*ChargeSession, error)
	VerifyCharge(ctx context.Context, reference string) (*ChargeVerification, error)
	// VerifyWebhookSignature checks the signature header against the exact raw body.
	VerifyWebhookSignature(rawBody []byte, signature string) bool
	CreatePayoutRecipient(ctx context.Context, details domain.PayoutDetails) (string, error)
	InitiateTransfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
	VerifyTransfer(ctx context.Context, reference string) (*TransferResult, error)
}
