package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/usecase"
)

// DepositService defines the behavior needed by DepositHandler.
type DepositService interface {
	Initialize(ctx context.Context, input usecase.InitializeDepositInput) (*usecase.DepositSession, error)
	VerifyByReference(ctx context.Context, userID, reference string) (*usecase.VerifyResult, error)
}

// DepositHandler starts deposits and answers the client's verify poll.
type DepositHandler struct {
	deposits DepositService
}

// NewDepositHandler creates a new DepositHandler.
func NewDepositHandler(deposits DepositService) *DepositHandler {
	return &DepositHandler{deposits: deposits}
}

// Initialize opens a gateway checkout for the requested amount.
func (h *DepositHandler) Initialize(w http.ResponseWriter, r *http.Request) {
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

	session, err := h.deposits.Initialize(r.Context(), usecase.InitializeDepositInput{
		UserID: caller.UserID,
		Email:  caller.Email,
		Amount: amount,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.DepositSessionFromUseCase(session))
}

// Verify reports whether the deposit with the given reference was credited,
// crediting it first if the gateway confirms it.
func (h *DepositHandler) Verify(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	reference := strings.TrimSpace(r.URL.Query().Get("reference"))
	if reference == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "reference is required")
		return
	}

	result, err := h.deposits.VerifyByReference(r.Context(), caller.UserID, reference)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.VerifyDepositFromUseCase(result))
}
