package handler

import (
	"context"
	"net/http"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/domain"
)

// WalletService defines the behavior needed by WalletHandler.
type WalletService interface {
	GetBalance(ctx context.Context, userID string) (*domain.Wallet, error)
	ListTransactions(ctx context.Context, userID string, limit int) ([]*domain.LedgerTransaction, error)
}

// WalletHandler serves the caller's balance and transaction history.
type WalletHandler struct {
	ledger WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(ledger WalletService) *WalletHandler {
	return &WalletHandler{ledger: ledger}
}

// Get returns the caller's wallet.
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	wallet, err := h.ledger.GetBalance(r.Context(), caller.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromDomain(wallet))
}

// Transactions lists the caller's most recent transactions.
func (h *WalletHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	limit := parseIntQuery(r, "limit", domain.DefaultPageSize)

	txns, err := h.ledger.ListTransactions(r.Context(), caller.UserID, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.TransactionsFromDomain(txns),
		Count:        len(txns),
	})
}
