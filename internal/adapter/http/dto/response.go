package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// money renders amounts as fixed two-decimal strings.
func money(d decimal.Decimal) string {
	return d.StringFixed(domain.MoneyScale)
}

// WalletResponse represents a wallet balance in API responses.
type WalletResponse struct {
	UserID    string    `json:"user_id"`
	Balance   string    `json:"balance"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WalletFromDomain converts domain wallet to response.
func WalletFromDomain(w *domain.Wallet) *WalletResponse {
	return &WalletResponse{
		UserID:    w.UserID,
		Balance:   money(w.Balance),
		Currency:  w.Currency,
		Status:    string(w.Status),
		UpdatedAt: w.UpdatedAt,
	}
}

// TransactionResponse represents a ledger transaction in API responses.
type TransactionResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Amount      string    `json:"amount"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	Reference   *string   `json:"reference,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TransactionFromDomain converts domain transaction to response.
func TransactionFromDomain(t *domain.LedgerTransaction) *TransactionResponse {
	return &TransactionResponse{
		ID:          t.ID,
		Type:        string(t.Type),
		Amount:      money(t.Amount),
		Currency:    t.Currency,
		Status:      string(t.Status),
		Reference:   t.Reference,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(txns []*domain.LedgerTransaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txns))
	for i, t := range txns {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// ListTransactionsResponse wraps a page of transactions.
type ListTransactionsResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Count        int                    `json:"count"`
}

// DepositSessionResponse tells the client where to send the payer.
type DepositSessionResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
	AccessCode       string `json:"access_code,omitempty"`
	Amount           string `json:"amount"`
	Currency         string `json:"currency"`
}

// DepositSessionFromUseCase converts a deposit session to response.
func DepositSessionFromUseCase(s *usecase.DepositSession) *DepositSessionResponse {
	return &DepositSessionResponse{
		AuthorizationURL: s.AuthorizationURL,
		Reference:        s.Reference,
		AccessCode:       s.AccessCode,
		Amount:           money(s.Amount),
		Currency:         s.Currency,
	}
}

// VerifyDepositResponse reports whether a deposit was credited.
type VerifyDepositResponse struct {
	Credited bool    `json:"credited"`
	Amount   *string `json:"amount,omitempty"`
	Pending  bool    `json:"pending,omitempty"`
}

// VerifyDepositFromUseCase converts a verify result to response.
func VerifyDepositFromUseCase(r *usecase.VerifyResult) *VerifyDepositResponse {
	resp := &VerifyDepositResponse{Credited: r.Credited, Pending: r.Pending}
	if r.Amount != nil {
		amount := money(*r.Amount)
		resp.Amount = &amount
	}
	return resp
}

// WebhookResponse is always returned with 200 so the gateway does not retry.
type WebhookResponse struct {
	Received bool `json:"received"`
}

// WithdrawalResponse represents a withdrawal in API responses.
type WithdrawalResponse struct {
	ID            string    `json:"id"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	Reference     string    `json:"reference"`
	Status        string    `json:"status"`
	FailureReason *string   `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// WithdrawalFromDomain converts domain withdrawal to response.
func WithdrawalFromDomain(w *domain.WithdrawalRequest) *WithdrawalResponse {
	return &WithdrawalResponse{
		ID:            w.ID,
		Amount:        money(w.Amount),
		Currency:      w.Currency,
		Reference:     w.Reference,
		Status:        string(w.Status),
		FailureReason: w.FailureReason,
		CreatedAt:     w.CreatedAt,
		UpdatedAt:     w.UpdatedAt,
	}
}

// WithdrawalsFromDomain converts domain withdrawals to responses.
func WithdrawalsFromDomain(ws []*domain.WithdrawalRequest) []*WithdrawalResponse {
	result := make([]*WithdrawalResponse, len(ws))
	for i, w := range ws {
		result[i] = WithdrawalFromDomain(w)
	}
	return result
}

// RequestWithdrawalResponse is returned when a withdrawal was accepted.
type RequestWithdrawalResponse struct {
	Withdrawal *WithdrawalResponse `json:"withdrawal"`
	Status     string              `json:"status"`
	Message    string              `json:"message"`
}

// WithdrawalOutcomeFromUseCase converts a withdrawal outcome to response.
func WithdrawalOutcomeFromUseCase(o *usecase.WithdrawalOutcome) *RequestWithdrawalResponse {
	return &RequestWithdrawalResponse{
		Withdrawal: WithdrawalFromDomain(o.Withdrawal),
		Status:     string(o.Withdrawal.Status),
		Message:    o.Message,
	}
}

// PayoutMethodResponse represents a payout method. The recipient code and full
// account number are never exposed.
type PayoutMethodResponse struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	DisplayName   string    `json:"display_name"`
	AccountMasked string    `json:"account_masked"`
	BankCode      *string   `json:"bank_code,omitempty"`
	Provider      *string   `json:"provider,omitempty"`
	Currency      string    `json:"currency"`
	CreatedAt     time.Time `json:"created_at"`
}

// PayoutMethodFromDomain converts domain payout method to response.
func PayoutMethodFromDomain(p *domain.PayoutMethod) *PayoutMethodResponse {
	return &PayoutMethodResponse{
		ID:            p.ID,
		Type:          string(p.Type),
		DisplayName:   p.DisplayName,
		AccountMasked: p.AccountMasked,
		BankCode:      p.BankCode,
		Provider:      p.Provider,
		Currency:      p.Currency,
		CreatedAt:     p.CreatedAt,
	}
}

// PayoutMethodsFromDomain converts domain payout methods to responses.
func PayoutMethodsFromDomain(ps []*domain.PayoutMethod) []*PayoutMethodResponse {
	result := make([]*PayoutMethodResponse, len(ps))
	for i, p := range ps {
		result[i] = PayoutMethodFromDomain(p)
	}
	return result
}

// BalanceMismatchResponse describes one inconsistent wallet.
type BalanceMismatchResponse struct {
	UserID          string `json:"user_id"`
	Balance         string `json:"balance"`
	TransactionSum  string `json:"transaction_sum"`
	Difference      string `json:"difference"`
	TransactionRows int64  `json:"transaction_rows"`
}

// ConsistencyResponse is the result of a balance invariant check.
type ConsistencyResponse struct {
	Consistent bool                       `json:"consistent"`
	Mismatches []*BalanceMismatchResponse `json:"mismatches"`
}

// ConsistencyFromDomain converts mismatches to response.
func ConsistencyFromDomain(mismatches []domain.BalanceMismatch) *ConsistencyResponse {
	resp := &ConsistencyResponse{
		Consistent: len(mismatches) == 0,
		Mismatches: make([]*BalanceMismatchResponse, len(mismatches)),
	}
	for i, m := range mismatches {
		resp.Mismatches[i] = &BalanceMismatchResponse{
			UserID:          m.UserID,
			Balance:         money(m.Balance),
			TransactionSum:  money(m.TransactionSum),
			Difference:      money(m.Difference()),
			TransactionRows: m.TransactionRows,
		}
	}
	return resp
}

// ReconciliationResponse summarizes a reconciliation pass.
type ReconciliationResponse struct {
	Deposits    usecase.SweepReport  `json:"deposits"`
	Withdrawals usecase.SweepReport  `json:"withdrawals"`
	Consistency *ConsistencyResponse `json:"consistency"`
	CheckedAt   time.Time            `json:"checked_at"`
}

// ReconciliationFromUseCase converts a reconciliation report to response.
func ReconciliationFromUseCase(r *usecase.ReconciliationReport) *ReconciliationResponse {
	return &ReconciliationResponse{
		Deposits:    r.Deposits,
		Withdrawals: r.Withdrawals,
		Consistency: ConsistencyFromDomain(r.Mismatches),
		CheckedAt:   r.CheckedAt,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
