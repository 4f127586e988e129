package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds one ledger posting, including the row
	// locks it holds on the wallet
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long a replayable deposit or withdrawal response is kept
	IdempotencyKeyTTL = 24 * time.Hour

	// IdempotencyProcessing is stored under a key while its first request is running
	IdempotencyProcessing = "processing"

	// DefaultVerifyThrottle is the minimum gap between gateway verify calls for one reference
	DefaultVerifyThrottle = 3 * time.Second

	// Prefixes of references handed to the gateway
	depositReferencePrefix    = "dep_"
	withdrawalReferencePrefix = "wdr_"

	// Confirmation channels, used in logs, metrics and events
	ChannelWebhook   = "webhook"
	ChannelVerify    = "verify"
	ChannelReconcile = "reconcile"
)
