package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/metrics"
)

// Messages returned with a successful withdrawal request.
const (
	WithdrawalMessageCompleted  = "Withdrawal completed."
	WithdrawalMessageProcessing = "Withdrawal initiated. Funds will arrive shortly."
)

// WithdrawalConfig holds withdrawal settings.
type WithdrawalConfig struct {
	Limits   domain.AmountLimits
	Currency string
}

// WithdrawalUseCase runs the withdrawal saga: debit, gateway transfer, refund on failure.
type WithdrawalUseCase struct {
	txManager      TransactionManager
	withdrawalRepo WithdrawalRepository
	payoutRepo     PayoutMethodRepository
	outboxRepo     OutboxRepository
	ledger         LedgerService
	gateway        Gateway
	idGen          IDGenerator
	metrics        *metrics.Metrics
	logger         zerolog.Logger
	cfg            WithdrawalConfig
}

// NewWithdrawalUseCase creates a new WithdrawalUseCase.
func NewWithdrawalUseCase(
	txManager TransactionManager,
	withdrawalRepo WithdrawalRepository,
	payoutRepo PayoutMethodRepository,
	outboxRepo OutboxRepository,
	ledger LedgerService,
	gateway Gateway,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
	cfg WithdrawalConfig,
) *WithdrawalUseCase {
	return &WithdrawalUseCase{
		txManager:      txManager,
		withdrawalRepo: withdrawalRepo,
		payoutRepo:     payoutRepo,
		outboxRepo:     outboxRepo,
		ledger:         ledger,
		gateway:        gateway,
		idGen:          idGen,
		metrics:        metrics,
		logger:         logger.With().Str("component", "withdrawals").Logger(),
		cfg:            cfg,
	}
}

// WithdrawalOutcome is returned when a withdrawal was accepted.
type WithdrawalOutcome struct {
	Withdrawal *domain.WithdrawalRequest
	Message    string
}

// Request debits the wallet, records a processing withdrawal and attempts the
// gateway transfer.
//
// The debit happens before the gateway is contacted, so insufficient funds fail
// with no external side effect. If the transfer fails, or the gateway call
// errors for any reason including a timeout, the withdrawal is marked failed and
// the amount refunded, and the returned error wraps the cause.
func (uc *WithdrawalUseCase) Request(ctx context.Context, userID string, amount decimal.Decimal) (*WithdrawalOutcome, error) {
	if err := uc.cfg.Limits.Validate(amount); err != nil {
		return nil, err
	}

	payout, err := uc.payoutRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	withdrawal, err := uc.debitAndRecord(ctx, userID, amount, payout)
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.WithdrawalsRequested.Inc()
		uc.metrics.WithdrawalAmount.Observe(amount.InexactFloat64())
	}

	uc.logger.Info().
		Str("withdrawal_id", withdrawal.ID).
		Str("reference", withdrawal.Reference).
		Str("user_id", userID).
		Str("amount", amount.StringFixed(domain.MoneyScale)).
		Msg("withdrawal debited")

	transfer, transferErr := uc.gateway.InitiateTransfer(ctx, TransferRequest{
		Amount:        amount,
		RecipientCode: payout.RecipientCode,
		Reference:     withdrawal.Reference,
		Reason:        "Wallet withdrawal",
	})

	withdrawal, err = uc.ApplyTransferOutcome(ctx, withdrawal, transfer, transferErr)
	if err != nil {
		return nil, err
	}

	switch withdrawal.Status {
	case domain.WithdrawalStatusCompleted:
		return &WithdrawalOutcome{Withdrawal: withdrawal, Message: WithdrawalMessageCompleted}, nil
	case domain.WithdrawalStatusFailed:
		if transferErr != nil {
			return nil, fmt.Errorf("withdrawal %s refunded: %w", withdrawal.Reference, transferErr)
		}
		return nil, fmt.Errorf("withdrawal %s refunded: %w: transfer %s", withdrawal.Reference, domain.ErrGatewayRejected, transfer.Status)
	default:
		return &WithdrawalOutcome{Withdrawal: withdrawal, Message: WithdrawalMessageProcessing}, nil
	}
}

func (uc *WithdrawalUseCase) debitAndRecord(
	ctx context.Context,
	userID string,
	amount decimal.Decimal,
	payout *domain.PayoutMethod,
) (*domain.WithdrawalRequest, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()
	withdrawal := &domain.WithdrawalRequest{
		ID:             uc.idGen.Generate(),
		UserID:         userID,
		PayoutMethodID: payout.ID,
		Amount:         amount,
		Currency:       uc.currencyFor(payout),
		Reference:      withdrawalReferencePrefix + strings.ToLower(uc.idGen.Generate()),
		Status:         domain.WithdrawalStatusProcessing,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := withdrawal.Validate(); err != nil {
		return nil, err
	}

	if _, err := uc.ledger.DebitTx(txCtx, tx, LedgerPosting{
		UserID:      userID,
		Amount:      amount,
		Type:        domain.TransactionTypeWithdrawal,
		Reference:   withdrawal.Reference,
		Description: "Withdrawal to " + payout.DisplayName,
	}); err != nil {
		return nil, err
	}

	if err := uc.withdrawalRepo.Create(txCtx, tx, withdrawal); err != nil {
		return nil, err
	}

	if err := uc.emit(txCtx, tx, withdrawal, domain.EventTypeWithdrawalRequested, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return withdrawal, nil
}

func (uc *WithdrawalUseCase) currencyFor(payout *domain.PayoutMethod) string {
	if payout.Currency != "" {
		return payout.Currency
	}
	return uc.cfg.Currency
}

// ApplyTransferOutcome moves a processing withdrawal according to what the
// gateway reported. A transfer error or a failed or reversed transfer fails the
// withdrawal and refunds it; success completes it; anything else leaves it
// processing with the transfer code recorded.
//
// Resolution is conditional on the withdrawal still being processing, so the
// request path and the reconciliation sweep can never both resolve it.
func (uc *WithdrawalUseCase) ApplyTransferOutcome(
	ctx context.Context,
	withdrawal *domain.WithdrawalRequest,
	transfer *TransferResult,
	transferErr error,
) (*domain.WithdrawalRequest, error) {
	if transferErr != nil {
		return uc.fail(ctx, withdrawal, transferErr.Error())
	}

	switch transfer.Status {
	case TransferStatusSuccess:
		return uc.complete(ctx, withdrawal, transfer.TransferCode)
	case TransferStatusFailed, TransferStatusReversed:
		return uc.fail(ctx, withdrawal, "transfer "+transfer.Status)
	}

	if transfer.TransferCode != "" {
		if err := uc.withdrawalRepo.SetTransferCode(ctx, withdrawal.ID, transfer.TransferCode, time.Now().UTC()); err != nil {
			return nil, err
		}
		withdrawal.GatewayTransferCode = domain.StringPtr(transfer.TransferCode)
	}

	uc.logger.Info().
		Str("reference", withdrawal.Reference).
		Str("transfer_status", transfer.Status).
		Msg("transfer not yet final, withdrawal left processing")

	return withdrawal, nil
}

func (uc *WithdrawalUseCase) complete(ctx context.Context, withdrawal *domain.WithdrawalRequest, transferCode string) (*domain.WithdrawalRequest, error) {
	if err := domain.ValidateWithdrawalTransition(withdrawal.Status, domain.WithdrawalStatusCompleted); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()
	code := domain.StringPtr(transferCode)

	ok, err := uc.withdrawalRepo.Complete(txCtx, tx, withdrawal.ID, code, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return uc.withdrawalRepo.GetByID(ctx, withdrawal.ID)
	}

	resolved := *withdrawal
	resolved.Status = domain.WithdrawalStatusCompleted
	resolved.UpdatedAt = now
	if code != nil {
		resolved.GatewayTransferCode = code
	}

	if err := uc.emit(txCtx, tx, &resolved, domain.EventTypeWithdrawalCompleted, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.WithdrawalsResolved.WithLabelValues(string(domain.WithdrawalStatusCompleted)).Inc()
	}

	uc.logger.Info().Str("reference", withdrawal.Reference).Msg("withdrawal completed")

	return &resolved, nil
}

func (uc *WithdrawalUseCase) fail(ctx context.Context, withdrawal *domain.WithdrawalRequest, reason string) (*domain.WithdrawalRequest, error) {
	if err := domain.ValidateWithdrawalTransition(withdrawal.Status, domain.WithdrawalStatusFailed); err != nil {
		return nil, err
	}

	if reason == "" {
		reason = "transfer failed"
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()

	ok, err := uc.withdrawalRepo.Fail(txCtx, tx, withdrawal.ID, reason, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return uc.withdrawalRepo.GetByID(ctx, withdrawal.ID)
	}

	if _, err := uc.ledger.CreditTx(txCtx, tx, LedgerPosting{
		UserID:      withdrawal.UserID,
		Amount:      withdrawal.Amount,
		Type:        domain.TransactionTypeRefund,
		Reference:   withdrawal.Reference,
		Description: "Withdrawal failed - refund",
	}); err != nil {
		return nil, err
	}

	resolved := *withdrawal
	resolved.Status = domain.WithdrawalStatusFailed
	resolved.FailureReason = &reason
	resolved.UpdatedAt = now

	if err := uc.emit(txCtx, tx, &resolved, domain.EventTypeWithdrawalFailed, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		uc.logger.Error().Err(err).
			Str("reference", withdrawal.Reference).
			Msg("refund not committed, withdrawal left processing for reconciliation")
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.WithdrawalsResolved.WithLabelValues(string(domain.WithdrawalStatusFailed)).Inc()
	}

	uc.logger.Warn().
		Str("reference", withdrawal.Reference).
		Str("reason", reason).
		Msg("withdrawal failed and refunded")

	return &resolved, nil
}

func (uc *WithdrawalUseCase) emit(ctx context.Context, tx Transaction, w *domain.WithdrawalRequest, eventType string, now time.Time) error {
	payload := domain.WithdrawalEvent{
		WithdrawalID: w.ID,
		UserID:       w.UserID,
		Reference:    w.Reference,
		Amount:       w.Amount.StringFixed(domain.MoneyScale),
		Currency:     w.Currency,
		Status:       string(w.Status),
	}
	if w.FailureReason != nil {
		payload.FailureReason = *w.FailureReason
	}

	return uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   w.ID,
		AggregateType: domain.AggregateTypeWithdrawal,
		EventType:     eventType,
		Payload:       payload.ToMap(),
		CreatedAt:     now,
	})
}

// ResolveStale asks the gateway about a withdrawal stuck in processing. Only a
// definite success, failure or reversal changes it; an unreachable gateway or a
// still-pending transfer leaves it for the next sweep or manual review. The
// transfer is never initiated again.
func (uc *WithdrawalUseCase) ResolveStale(ctx context.Context, withdrawal *domain.WithdrawalRequest) (*domain.WithdrawalRequest, error) {
	transfer, err := uc.gateway.VerifyTransfer(ctx, withdrawal.Reference)
	if err != nil {
		return withdrawal, err
	}

	switch transfer.Status {
	case TransferStatusSuccess, TransferStatusFailed, TransferStatusReversed:
		return uc.ApplyTransferOutcome(ctx, withdrawal, transfer, nil)
	default:
		return withdrawal, nil
	}
}

// ListWithdrawals returns the user's most recent withdrawals, newest first.
func (uc *WithdrawalUseCase) ListWithdrawals(ctx context.Context, userID string, limit int) ([]*domain.WithdrawalRequest, error) {
	limit = domain.ValidatePagination(limit)
	if limit > domain.DefaultPageSize {
		limit = domain.DefaultPageSize
	}
	return uc.withdrawalRepo.ListByUser(ctx, userID, limit)
}

// GetWithdrawal returns one of the user's withdrawals.
func (uc *WithdrawalUseCase) GetWithdrawal(ctx context.Context, userID, id string) (*domain.WithdrawalRequest, error) {
	withdrawal, err := uc.withdrawalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if withdrawal.UserID != userID {
		return nil, domain.ErrWithdrawalNotFound
	}

	return withdrawal, nil
}

// IsGatewayError reports whether err came from the payment gateway.
func IsGatewayError(err error) bool {
	return errors.Is(err, domain.ErrGatewayUnavailable) || errors.Is(err, domain.ErrGatewayRejected)
}
