package domain

import "errors"

var (
	// Amount and balance errors
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")

	// Wallet errors
	ErrWalletNotFound  = errors.New("wallet not found")
	ErrWalletFrozen    = errors.New("wallet is frozen")
	ErrInvalidCurrency = errors.New("unsupported currency")

	ErrTransactionNotFound = errors.New("transaction not found")

	// Gateway errors
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrGatewayRejected    = errors.New("payment gateway rejected the request")
	ErrInvalidSignature   = errors.New("invalid webhook signature")

	// ErrAlreadyProcessed is an idempotent no-op result, not a failure.
	ErrAlreadyProcessed = errors.New("already processed")

	// Deposit and withdrawal errors
	ErrDepositNotFound         = errors.New("deposit not found")
	ErrPayerEmailRequired      = errors.New("payer email is required")
	ErrWithdrawalNotFound      = errors.New("withdrawal not found")
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// Payout method errors
	ErrPayoutMethodRequired = errors.New("add a payout method first")
	ErrInvalidPayoutMethod  = errors.New("invalid payout method")
)
