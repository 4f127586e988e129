package handler

import (
	"context"
	"net/http"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/domain"
)

// PayoutService defines the behavior needed by PayoutHandler.
type PayoutService interface {
	AddPayoutMethod(ctx context.Context, userID string, details domain.PayoutDetails) (*domain.PayoutMethod, error)
	ListPayoutMethods(ctx context.Context, userID string) ([]*domain.PayoutMethod, error)
}

// PayoutHandler manages the caller's payout method.
type PayoutHandler struct {
	payouts PayoutService
}

// NewPayoutHandler creates a new PayoutHandler.
func NewPayoutHandler(payouts PayoutService) *PayoutHandler {
	return &PayoutHandler{payouts: payouts}
}

// Create registers a payout method, replacing the existing one.
func (h *PayoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req dto.AddPayoutMethodRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	method, err := h.payouts.AddPayoutMethod(r.Context(), caller.UserID, req.ToDetails())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PayoutMethodFromDomain(method))
}

// List returns the caller's payout methods.
func (h *PayoutHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	methods, err := h.payouts.ListPayoutMethods(r.Context(), caller.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"payout_methods": dto.PayoutMethodsFromDomain(methods),
	})
}
