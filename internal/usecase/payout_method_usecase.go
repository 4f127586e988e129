package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/domain"
)

// PayoutMethodUseCase registers where a user's withdrawals are paid.
type PayoutMethodUseCase struct {
	txManager  TransactionManager
	payoutRepo PayoutMethodRepository
	gateway    Gateway
	idGen      IDGenerator
	logger     zerolog.Logger
	currency   string
}

// NewPayoutMethodUseCase creates a new PayoutMethodUseCase.
func NewPayoutMethodUseCase(
	txManager TransactionManager,
	payoutRepo PayoutMethodRepository,
	gateway Gateway,
	idGen IDGenerator,
	logger zerolog.Logger,
	currency string,
) *PayoutMethodUseCase {
	return &PayoutMethodUseCase{
		txManager:  txManager,
		payoutRepo: payoutRepo,
		gateway:    gateway,
		idGen:      idGen,
		logger:     logger.With().Str("component", "payout_methods").Logger(),
		currency:   currency,
	}
}

// AddPayoutMethod registers details with the gateway and stores the masked
// result as the user's only payout method, replacing any previous one.
func (uc *PayoutMethodUseCase) AddPayoutMethod(ctx context.Context, userID string, details domain.PayoutDetails) (*domain.PayoutMethod, error) {
	if details.Currency == "" {
		details.Currency = uc.currency
	}
	details.Currency = strings.ToUpper(details.Currency)

	if err := domain.ValidateCurrency(details.Currency); err != nil {
		return nil, err
	}

	if err := details.Validate(); err != nil {
		return nil, err
	}

	recipientCode, err := uc.gateway.CreatePayoutRecipient(ctx, details)
	if err != nil {
		return nil, err
	}

	method := &domain.PayoutMethod{
		ID:            uc.idGen.Generate(),
		UserID:        userID,
		Type:          details.Type,
		RecipientCode: recipientCode,
		DisplayName:   strings.TrimSpace(details.Name),
		AccountMasked: domain.MaskAccount(details.AccountIdentifier()),
		Currency:      details.Currency,
		CreatedAt:     time.Now().UTC(),
	}

	switch details.Type {
	case domain.PayoutMethodBank:
		method.BankCode = domain.StringPtr(details.BankCode)
	case domain.PayoutMethodMobileMoney:
		method.Provider = domain.StringPtr(details.Provider)
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.payoutRepo.Replace(txCtx, tx, method); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("user_id", userID).
		Str("type", string(method.Type)).
		Str("account", method.AccountMasked).
		Msg("payout method registered")

	return method, nil
}

// ListPayoutMethods returns the user's payout methods.
func (uc *PayoutMethodUseCase) ListPayoutMethods(ctx context.Context, userID string) ([]*domain.PayoutMethod, error) {
	return uc.payoutRepo.ListByUser(ctx, userID)
}
