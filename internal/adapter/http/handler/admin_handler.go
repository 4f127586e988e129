package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/adapter/http/middleware"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// WalletAdmin defines the ledger operations exposed to operators.
type WalletAdmin interface {
	CheckConsistency(ctx context.Context) ([]domain.BalanceMismatch, error)
	FreezeWallet(ctx context.Context, userID string) error
	UnfreezeWallet(ctx context.Context, userID string) error
}

// Reconciler runs a full reconciliation pass.
type Reconciler interface {
	Run(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// AdminHandler serves operator endpoints.
type AdminHandler struct {
	ledger     WalletAdmin
	reconciler Reconciler
	logger     zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(ledger WalletAdmin, reconciler Reconciler, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		ledger:     ledger,
		reconciler: reconciler,
		logger:     logger.With().Str("component", "admin").Logger(),
	}
}

// Consistency lists wallets whose balance disagrees with their transactions.
func (h *AdminHandler) Consistency(w http.ResponseWriter, r *http.Request) {
	mismatches, err := h.ledger.CheckConsistency(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ConsistencyFromDomain(mismatches))
}

// Reconcile runs the deposit and withdrawal sweeps and the consistency check.
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciler.Run(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromUseCase(report))
}

// Freeze blocks debits on a wallet.
func (h *AdminHandler) Freeze(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, domain.WalletStatusFrozen, h.ledger.FreezeWallet)
}

// Unfreeze re-enables debits on a wallet.
func (h *AdminHandler) Unfreeze(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, domain.WalletStatusActive, h.ledger.UnfreezeWallet)
}

func (h *AdminHandler) setStatus(
	w http.ResponseWriter,
	r *http.Request,
	status domain.WalletStatus,
	apply func(ctx context.Context, userID string) error,
) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing user ID")
		return
	}

	if err := apply(r.Context(), userID); err != nil {
		writeDomainError(w, err)
		return
	}

	event := h.logger.Info().Str("user_id", userID).Str("status", string(status))
	if caller, ok := middleware.CallerFromContext(r.Context()); ok {
		event = event.Str("operator", caller.UserID)
	}
	event.Msg("wallet status changed")

	writeJSON(w, http.StatusOK, map[string]string{
		"user_id": userID,
		"status":  string(status),
	})
}
