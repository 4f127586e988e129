package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// WithdrawalService defines the behavior needed by WithdrawalHandler.
type WithdrawalService interface {
	Request(ctx context.Context, userID string, amount decimal.Decimal) (*usecase.WithdrawalOutcome, error)
	ListWithdrawals(ctx context.Context, userID string, limit int) ([]*domain.WithdrawalRequest, error)
	GetWithdrawal(ctx context.Context, userID, id string) (*domain.WithdrawalRequest, error)
}

// WithdrawalHandler handles withdrawal requests.
type WithdrawalHandler struct {
	withdrawals WithdrawalService
}

// NewWithdrawalHandler creates a new WithdrawalHandler.
func NewWithdrawalHandler(withdrawals WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawals: withdrawals}
}

// Create debits the wallet and starts the payout. A processing withdrawal is
// accepted with 202; a completed one returns 201.
func (h *WithdrawalHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req dto.AmountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	amount, err := req.ParseAmount()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	outcome, err := h.withdrawals.Request(r.Context(), caller.UserID, amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	status := http.StatusCreated
	if outcome.Withdrawal.Status == domain.WithdrawalStatusProcessing {
		status = http.StatusAccepted
	}

	writeJSON(w, status, dto.WithdrawalOutcomeFromUseCase(outcome))
}

// List returns the caller's withdrawals, newest first.
func (h *WithdrawalHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	withdrawals, err := h.withdrawals.ListWithdrawals(r.Context(), caller.UserID, parseIntQuery(r, "limit", domain.DefaultPageSize))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"withdrawals": dto.WithdrawalsFromDomain(withdrawals),
	})
}

// Get returns one of the caller's withdrawals.
func (h *WithdrawalHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing withdrawal ID")
		return
	}

	withdrawal, err := h.withdrawals.GetWithdrawal(r.Context(), caller.UserID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WithdrawalFromDomain(withdrawal))
}
