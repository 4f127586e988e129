// Package paystack implements usecase.Gateway against the Paystack REST API.
//
// Amounts are converted between ledger units and the gateway's minor unit here
// and nowhere else.
package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/metrics"
	"github.com/iho/walletledger/internal/usecase"
)

// SignatureHeader carries the webhook HMAC.
const SignatureHeader = "x-paystack-signature"

const (
	defaultBaseURL  = "https://api.paystack.co"
	maxResponseSize = 1 << 20
)

// Config holds Paystack client settings.
type Config struct {
	SecretKey string
	BaseURL   string
	Currency  string
	// MinorUnitFactor converts one ledger unit to gateway minor units, 100 for GHS.
	MinorUnitFactor int64
	Timeout         time.Duration
}

// Client is a Paystack API client.
type Client struct {
	cfg        Config
	factor     decimal.Decimal
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// New creates a new Client.
func New(cfg Config, m *metrics.Metrics, logger zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.MinorUnitFactor <= 0 {
		cfg.MinorUnitFactor = 100
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		cfg:        cfg,
		factor:     decimal.NewFromInt(cfg.MinorUnitFactor),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		metrics:    m,
		logger:     logger.With().Str("component", "paystack").Logger(),
	}
}

// ToMinor converts a ledger amount to gateway minor units, rounding half away from zero.
func (c *Client) ToMinor(amount decimal.Decimal) int64 {
	return amount.Mul(c.factor).Round(0).IntPart()
}

// FromMinor converts gateway minor units to a ledger amount.
func (c *Client) FromMinor(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(c.factor)
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeRequest struct {
	Email       string            `json:"email"`
	Amount      int64             `json:"amount"`
	Reference   string            `json:"reference"`
	Currency    string            `json:"currency,omitempty"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// InitializeCharge opens a hosted checkout for req.
func (c *Client) InitializeCharge(ctx context.Context, req usecase.ChargeRequest) (*usecase.ChargeSession, error) {
	var data initializeData
	err := c.do(ctx, "initialize_charge", http.MethodPost, "/transaction/initialize", initializeRequest{
		Email:       req.Email,
		Amount:      c.ToMinor(req.Amount),
		Reference:   req.Reference,
		Currency:    c.cfg.Currency,
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
	}, &data)
	if err != nil {
		return nil, err
	}

	return &usecase.ChargeSession{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

type verifyData struct {
	ID       int64  `json:"id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// VerifyCharge fetches the gateway's view of a charge.
func (c *Client) VerifyCharge(ctx context.Context, reference string) (*usecase.ChargeVerification, error) {
	var data verifyData
	if err := c.do(ctx, "verify_charge", http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &data); err != nil {
		return nil, err
	}

	v := &usecase.ChargeVerification{
		Status:   data.Status,
		Amount:   c.FromMinor(data.Amount),
		Currency: data.Currency,
	}
	if data.ID != 0 {
		v.GatewayID = strconv.FormatInt(data.ID, 10)
	}
	return v, nil
}

// VerifyWebhookSignature checks signature, the hex HMAC-SHA512 of rawBody
// keyed with the secret key.
func (c *Client) VerifyWebhookSignature(rawBody []byte, signature string) bool {
	if c.cfg.SecretKey == "" || signature == "" {
		return false
	}
	expected := Sign(c.cfg.SecretKey, rawBody)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}

// Sign returns the hex HMAC-SHA512 of body keyed with secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

type recipientRequest struct {
	Type          string `json:"type"`
	Name          string `json:"name"`
	AccountNumber string `json:"account_number"`
	BankCode      string `json:"bank_code"`
	Currency      string `json:"currency"`
}

type recipientData struct {
	RecipientCode string `json:"recipient_code"`
}

// CreatePayoutRecipient registers a mobile money wallet or bank account and
// returns its recipient code.
func (c *Client) CreatePayoutRecipient(ctx context.Context, details domain.PayoutDetails) (string, error) {
	req := recipientRequest{
		Name:          details.Name,
		AccountNumber: details.AccountIdentifier(),
		Currency:      details.Currency,
	}

	switch details.Type {
	case domain.PayoutMethodMobileMoney:
		req.Type = "mobile_money"
		req.BankCode = details.Provider
	case domain.PayoutMethodBank:
		req.Type = "ghipss"
		req.BankCode = details.BankCode
	default:
		return "", fmt.Errorf("%w: unsupported type %q", domain.ErrInvalidPayoutMethod, details.Type)
	}

	if req.Currency == "" {
		req.Currency = c.cfg.Currency
	}

	var data recipientData
	if err := c.do(ctx, "create_recipient", http.MethodPost, "/transferrecipient", req, &data); err != nil {
		return "", err
	}
	return data.RecipientCode, nil
}

type transferRequest struct {
	Source    string `json:"source"`
	Amount    int64  `json:"amount"`
	Recipient string `json:"recipient"`
	Reference string `json:"reference"`
	Reason    string `json:"reason"`
	Currency  string `json:"currency,omitempty"`
}

type transferData struct {
	TransferCode string `json:"transfer_code"`
	Status       string `json:"status"`
}

// InitiateTransfer sends req.Amount from the integration balance to a recipient.
func (c *Client) InitiateTransfer(ctx context.Context, req usecase.TransferRequest) (*usecase.TransferResult, error) {
	reason := req.Reason
	if reason == "" {
		reason = "Withdrawal"
	}

	var data transferData
	err := c.do(ctx, "initiate_transfer", http.MethodPost, "/transfer", transferRequest{
		Source:    "balance",
		Amount:    c.ToMinor(req.Amount),
		Recipient: req.RecipientCode,
		Reference: req.Reference,
		Reason:    reason,
		Currency:  c.cfg.Currency,
	}, &data)
	if err != nil {
		return nil, err
	}

	return &usecase.TransferResult{TransferCode: data.TransferCode, Status: data.Status}, nil
}

// VerifyTransfer fetches the gateway's view of a transfer by our reference.
func (c *Client) VerifyTransfer(ctx context.Context, reference string) (*usecase.TransferResult, error) {
	var data transferData
	if err := c.do(ctx, "verify_transfer", http.MethodGet, "/transfer/verify/"+url.PathEscape(reference), nil, &data); err != nil {
		return nil, err
	}
	return &usecase.TransferResult{TransferCode: data.TransferCode, Status: data.Status}, nil
}

// do sends one API call and decodes the data field of the response into out.
// Transport errors, timeouts, 5xx and unreadable bodies are ErrGatewayUnavailable;
// any other refusal is ErrGatewayRejected.
func (c *Client) do(ctx context.Context, operation, method, path string, body, out any) (err error) {
	start := time.Now()
	defer func() { c.observe(operation, start, err) }()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", operation, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", operation, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrGatewayUnavailable, operation, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: %s: read body: %v", domain.ErrGatewayUnavailable, operation, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s: status %d", domain.ErrGatewayUnavailable, operation, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %s: decode response: %v", domain.ErrGatewayUnavailable, operation, err)
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Status {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("%w: %s: %s", domain.ErrGatewayRejected, operation, msg)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: %s: decode data: %v", domain.ErrGatewayUnavailable, operation, err)
		}
	}

	return nil
}

func (c *Client) observe(operation string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, domain.ErrGatewayRejected):
		outcome = "rejected"
	case err != nil:
		outcome = "unavailable"
	}

	if outcome != "ok" {
		c.logger.Warn().Err(err).Str("operation", operation).Dur("elapsed", time.Since(start)).Msg("gateway call failed")
	}

	if c.metrics == nil {
		return
	}
	c.metrics.GatewayRequests.WithLabelValues(operation, outcome).Inc()
	c.metrics.GatewayDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
