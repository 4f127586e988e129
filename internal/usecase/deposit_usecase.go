package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/metrics"
)

const webhookEventChargeSuccess = "charge.success"

// DepositConfig holds deposit settings.
type DepositConfig struct {
	Limits   domain.AmountLimits
	Currency string
	// AppURL is where the gateway sends the payer after checkout.
	AppURL string
	// VerifyThrottle is the minimum gap between gateway verify calls for one
	// reference made through VerifyByReference. Zero disables throttling.
	VerifyThrottle time.Duration
}

// DepositUseCase coordinates deposits from initialization to the exactly-once credit.
type DepositUseCase struct {
	txManager   TransactionManager
	depositRepo DepositRepository
	outboxRepo  OutboxRepository
	ledger      LedgerService
	gateway     Gateway
	idGen       IDGenerator
	cache       Cache
	retrier     Retrier
	metrics     *metrics.Metrics
	logger      zerolog.Logger
	cfg         DepositConfig
}

// NewDepositUseCase creates a new DepositUseCase.
func NewDepositUseCase(
	txManager TransactionManager,
	depositRepo DepositRepository,
	outboxRepo OutboxRepository,
	ledger LedgerService,
	gateway Gateway,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
	cfg DepositConfig,
) *DepositUseCase {
	return &DepositUseCase{
		txManager:   txManager,
		depositRepo: depositRepo,
		outboxRepo:  outboxRepo,
		ledger:      ledger,
		gateway:     gateway,
		idGen:       idGen,
		metrics:     metrics,
		logger:      logger.With().Str("component", "deposits").Logger(),
		cfg:         cfg,
	}
}

// WithCache enables the verify throttle.
func (uc *DepositUseCase) WithCache(c Cache) *DepositUseCase {
	uc.cache = c
	return uc
}

// WithRetrier retries claims on transient storage errors.
func (uc *DepositUseCase) WithRetrier(r Retrier) *DepositUseCase {
	uc.retrier = r
	return uc
}

// InitializeDepositInput represents input for starting a deposit.
type InitializeDepositInput struct {
	UserID string
	Email  string
	Amount decimal.Decimal
}

// DepositSession is what the client needs to send the payer to checkout.
type DepositSession struct {
	Reference        string
	AuthorizationURL string
	AccessCode       string
	Amount           decimal.Decimal
	Currency         string
}

// Initialize records a pending deposit and opens a gateway checkout for it.
// The pending row is written before the gateway is contacted so that a webhook
// can never arrive for a reference the store does not know. If the gateway call
// fails the row stays pending as an abandoned attempt.
func (uc *DepositUseCase) Initialize(ctx context.Context, input InitializeDepositInput) (*DepositSession, error) {
	if err := uc.cfg.Limits.Validate(input.Amount); err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.Email) == "" {
		return nil, domain.ErrPayerEmailRequired
	}

	now := time.Now().UTC()
	reference := depositReferencePrefix + strings.ToLower(uc.idGen.Generate())

	deposit := &domain.DepositRequest{
		ID:        uc.idGen.Generate(),
		UserID:    input.UserID,
		Reference: reference,
		Amount:    input.Amount,
		Currency:  uc.cfg.Currency,
		Status:    domain.DepositStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := deposit.Validate(); err != nil {
		return nil, err
	}

	if err := uc.depositRepo.Create(ctx, deposit); err != nil {
		return nil, err
	}

	session, err := uc.gateway.InitializeCharge(ctx, ChargeRequest{
		Email:       input.Email,
		Amount:      input.Amount,
		Reference:   reference,
		CallbackURL: fmt.Sprintf("%s/wallet?deposit=success&ref=%s", strings.TrimRight(uc.cfg.AppURL, "/"), reference),
		Metadata:    map[string]string{"user_id": input.UserID},
	})
	if err != nil {
		uc.logger.Warn().Err(err).
			Str("reference", reference).
			Str("user_id", input.UserID).
			Msg("gateway charge initialization failed")
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.DepositsInitialized.Inc()
	}

	uc.logger.Info().
		Str("reference", reference).
		Str("user_id", input.UserID).
		Str("amount", input.Amount.StringFixed(domain.MoneyScale)).
		Msg("deposit initialized")

	return &DepositSession{
		Reference:        reference,
		AuthorizationURL: session.AuthorizationURL,
		AccessCode:       session.AccessCode,
		Amount:           input.Amount,
		Currency:         uc.cfg.Currency,
	}, nil
}

// ClaimResult is returned by a claim that won the pending -> completed transition.
type ClaimResult struct {
	Deposit     *domain.DepositRequest
	Transaction *domain.LedgerTransaction
}

// ClaimAndCredit is the single path through which a deposit is credited.
//
// The conditional claim, the ledger credit and the outbox event commit in one
// transaction. Of any number of concurrent callers for the same reference,
// exactly one gets a result; the rest get domain.ErrAlreadyProcessed and no
// side effect. An unknown reference yields domain.ErrDepositNotFound.
func (uc *DepositUseCase) ClaimAndCredit(
	ctx context.Context,
	reference string,
	confirmedAmount decimal.Decimal,
	gatewayID string,
	channel string,
) (*ClaimResult, error) {
	if confirmedAmount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	var result *ClaimResult

	operation := func() error {
		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		now := time.Now().UTC()

		deposit, claimed, err := uc.depositRepo.Claim(txCtx, tx, reference, domain.StringPtr(gatewayID), now)
		if err != nil {
			return err
		}
		if deposit == nil {
			return domain.ErrDepositNotFound
		}
		if !claimed {
			return domain.ErrAlreadyProcessed
		}

		if !confirmedAmount.Equal(deposit.Amount) {
			uc.logger.Warn().
				Str("reference", reference).
				Str("requested", deposit.Amount.String()).
				Str("confirmed", confirmedAmount.String()).
				Msg("gateway confirmed a different amount than requested, crediting confirmed amount")
		}

		txn, err := uc.ledger.CreditTx(txCtx, tx, LedgerPosting{
			UserID:      deposit.UserID,
			Amount:      confirmedAmount,
			Type:        domain.TransactionTypeDeposit,
			Reference:   reference,
			Description: "Wallet deposit",
		})
		if err != nil {
			return err
		}

		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   deposit.ID,
			AggregateType: domain.AggregateTypeDeposit,
			EventType:     domain.EventTypeDepositCompleted,
			Payload: domain.DepositCompletedEvent{
				DepositID: deposit.ID,
				UserID:    deposit.UserID,
				Reference: reference,
				Amount:    confirmedAmount.StringFixed(domain.MoneyScale),
				Currency:  deposit.Currency,
				Channel:   channel,
			}.ToMap(),
			CreatedAt: now,
		}
		if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
			return err
		}

		if err := tx.Commit(txCtx); err != nil {
			return err
		}

		result = &ClaimResult{Deposit: deposit, Transaction: txn}
		return nil
	}

	var err error
	if uc.retrier != nil {
		err = uc.retrier.Retry(txCtx, operation)
	} else {
		err = operation()
	}

	if errors.Is(err, domain.ErrAlreadyProcessed) {
		if uc.metrics != nil {
			uc.metrics.DepositClaimsLost.WithLabelValues(channel).Inc()
		}
		uc.logger.Debug().Str("reference", reference).Str("channel", channel).Msg("deposit already claimed")
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.DepositsCredited.WithLabelValues(channel).Inc()
		uc.metrics.DepositAmount.Observe(confirmedAmount.InexactFloat64())
	}

	uc.logger.Info().
		Str("reference", reference).
		Str("user_id", result.Deposit.UserID).
		Str("amount", confirmedAmount.StringFixed(domain.MoneyScale)).
		Str("channel", channel).
		Msg("deposit credited")

	return result, nil
}

// WebhookResult is the acknowledgement returned to the gateway.
type WebhookResult struct {
	Received bool
	Credited bool
}

type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		Reference string          `json:"reference"`
		ID        json.RawMessage `json:"id"`
	} `json:"data"`
}

// HandleWebhook processes a gateway push notification.
//
// An invalid signature is dropped with Received false. Every other business
// outcome, duplicates included, is Received true. A non-nil error is only
// returned when the gateway verification call itself failed; the deposit stays
// pending and is picked up by the verify poll or the reconciliation sweep.
func (uc *DepositUseCase) HandleWebhook(ctx context.Context, rawBody []byte, signature string) (*WebhookResult, error) {
	if !uc.gateway.VerifyWebhookSignature(rawBody, signature) {
		uc.webhookOutcome("invalid_signature")
		uc.logger.Warn().Err(domain.ErrInvalidSignature).Int("body_bytes", len(rawBody)).Msg("webhook dropped")
		return &WebhookResult{Received: false}, nil
	}

	var payload webhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		uc.webhookOutcome("malformed")
		uc.logger.Warn().Err(err).Msg("webhook body is not valid json")
		return &WebhookResult{Received: true}, nil
	}

	if payload.Event != webhookEventChargeSuccess {
		uc.webhookOutcome("ignored")
		uc.logger.Debug().Str("event", payload.Event).Msg("webhook event ignored")
		return &WebhookResult{Received: true}, nil
	}

	reference := payload.Data.Reference
	if reference == "" {
		uc.webhookOutcome("ignored")
		return &WebhookResult{Received: true}, nil
	}

	deposit, err := uc.depositRepo.GetByReference(ctx, reference)
	if errors.Is(err, domain.ErrDepositNotFound) {
		uc.webhookOutcome("unknown_reference")
		uc.logger.Warn().Str("reference", reference).Msg("webhook for unknown deposit reference")
		return &WebhookResult{Received: true}, nil
	}
	if err != nil {
		return &WebhookResult{Received: true}, err
	}

	if deposit.IsCompleted() {
		uc.webhookOutcome("duplicate")
		return &WebhookResult{Received: true}, nil
	}

	verification, err := uc.gateway.VerifyCharge(ctx, reference)
	if err != nil {
		uc.webhookOutcome("gateway_error")
		return &WebhookResult{Received: true}, err
	}

	if !verification.Succeeded() {
		uc.webhookOutcome("not_successful")
		uc.logger.Warn().Str("reference", reference).Msg("webhook reported success but gateway verification did not")
		return &WebhookResult{Received: true}, nil
	}

	gatewayID := verification.GatewayID
	if gatewayID == "" {
		gatewayID = strings.Trim(string(payload.Data.ID), `"`)
	}

	_, err = uc.ClaimAndCredit(ctx, reference, verification.Amount, gatewayID, ChannelWebhook)
	switch {
	case errors.Is(err, domain.ErrAlreadyProcessed):
		uc.webhookOutcome("duplicate")
		return &WebhookResult{Received: true}, nil
	case err != nil:
		uc.webhookOutcome("error")
		return &WebhookResult{Received: true}, err
	}

	uc.webhookOutcome("credited")
	return &WebhookResult{Received: true, Credited: true}, nil
}

func (uc *DepositUseCase) webhookOutcome(outcome string) {
	if uc.metrics != nil {
		uc.metrics.WebhooksReceived.WithLabelValues(outcome).Inc()
	}
}

// VerifyResult reports whether a deposit has been credited.
type VerifyResult struct {
	Credited bool
	Amount   *decimal.Decimal
	// Pending is set when the check was skipped by the verify throttle.
	Pending bool
}

// VerifyByReference is the client-driven fallback for a delayed webhook. It is
// safe to call any number of times; once credited it keeps returning the
// credited amount without contacting the gateway.
func (uc *DepositUseCase) VerifyByReference(ctx context.Context, userID, reference string) (*VerifyResult, error) {
	deposit, err := uc.depositRepo.GetByReference(ctx, reference)
	if errors.Is(err, domain.ErrDepositNotFound) {
		return &VerifyResult{Credited: false}, nil
	}
	if err != nil {
		return nil, err
	}

	if deposit.UserID != userID {
		return &VerifyResult{Credited: false}, nil
	}

	if deposit.IsCompleted() {
		return uc.creditedResult(ctx, deposit)
	}

	if uc.throttled(ctx, reference) {
		return &VerifyResult{Credited: false, Pending: true}, nil
	}

	verification, err := uc.gateway.VerifyCharge(ctx, reference)
	if err != nil {
		// The gateway never answered, so the next poll may ask again.
		uc.releaseThrottle(ctx, reference)
		return nil, err
	}

	if !verification.Succeeded() {
		return &VerifyResult{Credited: false}, nil
	}

	claim, err := uc.ClaimAndCredit(ctx, reference, verification.Amount, verification.GatewayID, ChannelVerify)
	if errors.Is(err, domain.ErrAlreadyProcessed) {
		return uc.creditedResult(ctx, deposit)
	}
	if err != nil {
		return nil, err
	}

	amount := claim.Transaction.Amount
	return &VerifyResult{Credited: true, Amount: &amount}, nil
}

func (uc *DepositUseCase) creditedResult(ctx context.Context, deposit *domain.DepositRequest) (*VerifyResult, error) {
	txn, err := uc.ledger.TransactionByReference(ctx, deposit.UserID, deposit.Reference, domain.TransactionTypeDeposit)
	if errors.Is(err, domain.ErrTransactionNotFound) {
		return &VerifyResult{Credited: true}, nil
	}
	if err != nil {
		return nil, err
	}

	amount := txn.Amount
	return &VerifyResult{Credited: true, Amount: &amount}, nil
}

// throttled reports whether the gateway was asked about reference within the
// throttle window. Cache errors never block verification.
func (uc *DepositUseCase) throttled(ctx context.Context, reference string) bool {
	if uc.cache == nil || uc.cfg.VerifyThrottle <= 0 {
		return false
	}

	ok, err := uc.cache.SetNX(ctx, verifyThrottleKey(reference), "1", uc.cfg.VerifyThrottle)
	if err != nil {
		uc.logger.Warn().Err(err).Str("reference", reference).Msg("verify throttle unavailable")
		return false
	}

	return !ok
}

func (uc *DepositUseCase) releaseThrottle(ctx context.Context, reference string) {
	if uc.cache == nil || uc.cfg.VerifyThrottle <= 0 {
		return
	}
	if err := uc.cache.Delete(ctx, verifyThrottleKey(reference)); err != nil {
		uc.logger.Warn().Err(err).Str("reference", reference).Msg("failed to release verify throttle")
	}
}

func verifyThrottleKey(reference string) string {
	return "deposit:verify:" + reference
}

// ReconcilePending asks the gateway about a deposit that no channel confirmed
// and claims it if the charge settled. It reports whether this call credited it.
func (uc *DepositUseCase) ReconcilePending(ctx context.Context, deposit *domain.DepositRequest) (bool, error) {
	verification, err := uc.gateway.VerifyCharge(ctx, deposit.Reference)
	if err != nil {
		return false, err
	}

	if !verification.Succeeded() {
		return false, nil
	}

	_, err = uc.ClaimAndCredit(ctx, deposit.Reference, verification.Amount, verification.GatewayID, ChannelReconcile)
	if errors.Is(err, domain.ErrAlreadyProcessed) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}
