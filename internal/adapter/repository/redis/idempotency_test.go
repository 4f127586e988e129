package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/iho/walletledger/internal/usecase"
)

func TestIdempotencyStore_CheckAndSetExisting(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if err := client.Set(ctx, store.prefix+"key", "cached", time.Minute).Err(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	exists, resp, err := store.CheckAndSet(ctx, "key", nil, time.Minute)
	if err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}

	if !exists || string(resp) != "cached" {
		t.Fatalf("expected existing cached response, got exists=%v resp=%s", exists, resp)
	}
}

func TestIdempotencyStore_CheckAndSetLocksNewKey(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	exists, resp, err := store.CheckAndSet(ctx, "pending", nil, time.Minute)
	if err != nil || exists || resp != nil {
		t.Fatalf("unexpected result: exists=%v resp=%v err=%v", exists, resp, err)
	}

	val, err := client.Get(ctx, store.prefix+"pending").Bytes()
	if err != nil || !usecase.IsIdempotencyProcessing(val) {
		t.Fatalf("expected placeholder lock, got val=%s err=%v", val, err)
	}

	if ttl := mr.TTL(store.prefix + "pending"); ttl != time.Minute {
		t.Fatalf("expected ttl of one minute, got %s", ttl)
	}
}

func TestIdempotencyStore_ConcurrentClaimsHaveOneWinner(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewIdempotencyStore(client)

	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			exists, _, err := store.CheckAndSet(context.Background(), "withdrawal-1", nil, time.Minute)
			if err != nil {
				t.Errorf("CheckAndSet failed: %v", err)
				return
			}
			if !exists {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := winners.Load(); got != 1 {
		t.Fatalf("expected exactly one winner, got %d", got)
	}
}

func TestIdempotencyStore_UpdateAndRelease(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if err := store.Update(ctx, "complete", []byte("done"), time.Minute); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	val, err := client.Get(ctx, store.prefix+"complete").Result()
	if err != nil || val != "done" {
		t.Fatalf("expected stored response, got val=%s err=%v", val, err)
	}

	if err := store.Release(ctx, "complete"); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	exists, _, err := store.CheckAndSet(ctx, "complete", nil, time.Minute)
	if err != nil || exists {
		t.Fatalf("expected released key to be claimable, got exists=%v err=%v", exists, err)
	}
}

// vanishingClient reports the key as missing on the first GET, as if it
// expired right after SETNX lost.
type vanishingClient struct {
	*redislib.Client
	gets int
}

func (c *vanishingClient) Get(ctx context.Context, key string) *redislib.StringCmd {
	c.gets++
	if c.gets == 1 {
		c.Client.Del(ctx, key)
		return redislib.NewStringResult("", redislib.Nil)
	}
	return c.Client.Get(ctx, key)
}

func TestIdempotencyStore_CheckAndSetReclaimsExpiredKey(t *testing.T) {
	client, _ := newTestRedisClient(t)
	ctx := context.Background()

	store := NewIdempotencyStore(client)
	if _, _, err := store.CheckAndSet(ctx, "wdr-key", nil, time.Minute); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}

	racing := NewIdempotencyStore(&vanishingClient{Client: client})
	exists, resp, err := racing.CheckAndSet(ctx, "wdr-key", nil, time.Minute)
	if err != nil || exists || resp != nil {
		t.Fatalf("expected key to be reclaimed, got exists=%v resp=%s err=%v", exists, resp, err)
	}

	val, err := client.Get(ctx, store.prefix+"wdr-key").Bytes()
	if err != nil || !usecase.IsIdempotencyProcessing(val) {
		t.Fatalf("expected processing marker after reclaim, got val=%s err=%v", val, err)
	}
}
