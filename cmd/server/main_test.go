package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/walletledger/internal/adapter/gateway/fake"
	"github.com/iho/walletledger/internal/adapter/gateway/paystack"
	"github.com/iho/walletledger/internal/adapter/http/middleware"
	"github.com/iho/walletledger/internal/infrastructure/config"
	"github.com/iho/walletledger/internal/infrastructure/eventpublisher"
	"github.com/iho/walletledger/internal/infrastructure/metrics"
)

func testConfig() *config.Config {
	return &config.Config{
		StorageDriver:       config.StorageDriverMemory,
		GatewayDriver:       config.GatewayDriverFake,
		EventPublisher:      config.EventPublisherLog,
		WalletCurrency:      "GHS",
		DepositMinAmount:    decimal.NewFromInt(1),
		DepositMaxAmount:    decimal.NewFromInt(10000),
		WithdrawalMinAmount: decimal.NewFromInt(5),
		WithdrawalMaxAmount: decimal.NewFromInt(5000),
		AppURL:              "http://localhost:3000",
		IdempotencyTTL:      time.Hour,
		RateLimitRPS:        1000,
		RateLimitBurst:      1000,
		ReconcileInterval:   time.Minute,
		OutboxPollInterval:  time.Second,
	}
}

func TestNewGateway(t *testing.T) {
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())

	cfg := testConfig()
	_, ok := newGateway(cfg, m, zerolog.Nop()).(*fake.Gateway)
	assert.True(t, ok)

	cfg.GatewayDriver = config.GatewayDriverPaystack
	cfg.PaystackSecretKey = "sk_test"
	_, ok = newGateway(cfg, m, zerolog.Nop()).(*paystack.Client)
	assert.True(t, ok)
}

func TestNewPublisher(t *testing.T) {
	cfg := testConfig()

	p, closeFn := newPublisher(cfg, zerolog.Nop())
	_, ok := p.(*eventpublisher.LogPublisher)
	assert.True(t, ok)
	closeFn()

	cfg.EventPublisher = config.EventPublisherKafka
	cfg.KafkaBrokers = []string{"localhost:9092"}
	cfg.KafkaTopic = "wallet-events"
	p, closeFn = newPublisher(cfg, zerolog.Nop())
	_, ok = p.(*eventpublisher.KafkaPublisher)
	assert.True(t, ok)
	closeFn()
}

func TestNewAuthenticator(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("header auth when disabled", func(t *testing.T) {
		h := newAuthenticator(testConfig())(ok)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.UserIDHeader, "user-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("jwt when enabled", func(t *testing.T) {
		cfg := testConfig()
		cfg.AuthEnabled = true
		cfg.JWTSecret = "secret"
		cfg.JWTExpiration = time.Hour
		h := newAuthenticator(cfg)(ok)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.UserIDHeader, "user-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestNewMemoryStorage(t *testing.T) {
	s := newMemoryStorage()

	assert.NotNil(t, s.txManager)
	assert.NotNil(t, s.outbox)
	assert.Nil(t, s.retrier)
	assert.Empty(t, s.checks)
}

// newApp registers metrics on the default registry, so it runs once per test binary.
func TestNewApp_DepositFlow(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig()
	cfg.RedisURL = "redis://" + mr.Addr()

	a, err := newApp(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	do := func(method, target string, body any, headers map[string]string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, target, &buf)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.UserIDHeader, "user-1")
		req.Header.Set(middleware.UserEmailHeader, "user-1@example.com")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		a.router.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodGet, "/ready", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(http.MethodPost, "/api/v1/deposits", map[string]string{"amount": "100"},
		map[string]string{middleware.IdempotencyKeyHeader: "dep-1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var session struct {
		Reference string `json:"reference"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	require.NotEmpty(t, session.Reference)

	replay := do(http.MethodPost, "/api/v1/deposits", map[string]string{"amount": "100"},
		map[string]string{middleware.IdempotencyKeyHeader: "dep-1"})
	assert.Equal(t, "true", replay.Header().Get("X-Idempotency-Replay"))
	assert.JSONEq(t, rec.Body.String(), replay.Body.String())

	rec = do(http.MethodGet, "/api/v1/deposits/verify?reference="+session.Reference, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var verify struct {
		Credited bool `json:"credited"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verify))
	assert.True(t, verify.Credited)

	rec = do(http.MethodGet, "/api/v1/wallet", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var wallet struct {
		Balance string `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &wallet))
	assert.Equal(t, "100.00", wallet.Balance)
}
