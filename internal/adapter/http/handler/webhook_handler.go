package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/usecase"
)

// PaystackSignatureHeader carries the HMAC-SHA512 of the raw webhook body.
const PaystackSignatureHeader = "x-paystack-signature"

// WebhookService defines the behavior needed by WebhookHandler.
type WebhookService interface {
	HandleWebhook(ctx context.Context, rawBody []byte, signature string) (*usecase.WebhookResult, error)
}

// WebhookHandler receives gateway push notifications.
type WebhookHandler struct {
	deposits WebhookService
	logger   zerolog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(deposits WebhookService, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		deposits: deposits,
		logger:   logger.With().Str("component", "webhook").Logger(),
	}
}

// Paystack always answers 200. The gateway retries on anything else, and no
// business outcome here is fixed by a retry; a failed verification leaves the
// deposit pending for the verify poll and the reconciliation sweep.
func (h *WebhookHandler) Paystack(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to read webhook body")
		writeJSON(w, http.StatusOK, dto.WebhookResponse{Received: false})
		return
	}

	result, err := h.deposits.HandleWebhook(r.Context(), body, r.Header.Get(PaystackSignatureHeader))
	if err != nil {
		h.logger.Error().Err(err).Msg("webhook processing failed")
	}

	received := true
	if result != nil {
		received = result.Received
	}

	writeJSON(w, http.StatusOK, dto.WebhookResponse{Received: received})
}
