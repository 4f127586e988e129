package integration

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
	"github.com/iho/walletledger/tests/testutil"
)

func initDeposit(t *testing.T, svc *testutil.Services, userID string, amount decimal.Decimal) string {
	t.Helper()

	session, err := svc.Deposit.Initialize(context.Background(), usecase.InitializeDepositInput{
		UserID: userID,
		Email:  userID + "@example.com",
		Amount: amount,
	})
	if err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	return session.Reference
}

func TestDepositWebhookThenVerify(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	svc := testDB.NewServices()
	testDB.TruncateAll(ctx)

	amount := decimal.NewFromInt(250)
	ref := initDeposit(t, svc, "user-1", amount)

	pending, err := svc.Deposits.GetByReference(ctx, ref)
	if err != nil {
		t.Fatalf("get deposit failed: %v", err)
	}
	if pending.Status != domain.DepositStatusPending {
		t.Fatalf("expected pending deposit, got %s", pending.Status)
	}

	svc.Gateway.Settle(ref, amount)
	body, sig := svc.Gateway.ChargeSuccessWebhook(ref)

	res, err := svc.Deposit.HandleWebhook(ctx, body, sig)
	if err != nil {
		t.Fatalf("webhook failed: %v", err)
	}
	if !res.Credited {
		t.Fatal("expected webhook to credit the deposit")
	}

	verify, err := svc.Deposit.VerifyByReference(ctx, "user-1", ref)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !verify.Credited {
		t.Error("expected verify to report the deposit as credited")
	}

	if got := svc.Balance(t, "user-1"); !got.Equal(amount) {
		t.Errorf("expected balance %s, got %s", amount, got)
	}

	completed, err := svc.Deposits.GetByReference(ctx, ref)
	if err != nil {
		t.Fatalf("get deposit failed: %v", err)
	}
	if completed.Status != domain.DepositStatusCompleted || completed.CompletedAt == nil {
		t.Errorf("expected completed deposit with completed_at, got %+v", completed)
	}

	svc.RequireConsistent(t)
}

func TestDepositInvalidSignatureChangesNothing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	svc := testDB.NewServices()
	testDB.TruncateAll(ctx)

	ref := initDeposit(t, svc, "user-1", decimal.NewFromInt(40))
	svc.Gateway.Settle(ref, decimal.NewFromInt(40))
	body, _ := svc.Gateway.ChargeSuccessWebhook(ref)

	res, err := svc.Deposit.HandleWebhook(ctx, body, "forged")
	if err == nil && res.Credited {
		t.Fatal("forged webhook must not credit")
	}

	if got := svc.Balance(t, "user-1"); !got.IsZero() {
		t.Errorf("expected zero balance, got %s", got)
	}
}

func TestConcurrentDepositConfirmationsCreditOnce(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	svc := testDB.NewServices()
	testDB.TruncateAll(ctx)

	amount := decimal.NewFromInt(75)
	ref := initDeposit(t, svc, "user-1", amount)
	svc.Gateway.Settle(ref, amount)
	body, sig := svc.Gateway.ChargeSuccessWebhook(ref)

	const workers = 20

	var (
		wg       sync.WaitGroup
		credited atomic.Int32
	)
	wg.Add(workers)

	for i := range workers {
		go func() {
			defer wg.Done()

			// Half arrive as webhooks, half as client verify polls.
			if i%2 == 0 {
				res, err := svc.Deposit.HandleWebhook(ctx, body, sig)
				if err == nil && res.Credited {
					credited.Add(1)
				}
				return
			}
			res, err := svc.Deposit.VerifyByReference(ctx, "user-1", ref)
			if err == nil && res.Credited {
				credited.Add(1)
			}
		}()
	}

	wg.Wait()

	if credited.Load() == 0 {
		t.Fatal("expected at least one channel to report the credit")
	}
	if got := svc.Balance(t, "user-1"); !got.Equal(amount) {
		t.Errorf("expected exactly one credit of %s, balance is %s", amount, got)
	}

	txns, err := svc.Ledger.ListTransactions(ctx, "user-1", 100)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(txns) != 1 {
		t.Errorf("expected 1 deposit transaction, got %d", len(txns))
	}

	svc.RequireConsistent(t)
}
