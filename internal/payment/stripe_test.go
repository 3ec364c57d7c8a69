package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"aroma-shop/internal/config"
	"aroma-shop/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

const testWebhookSecret = "whsec_test_secret"

func newTestProvider(t *testing.T, handler http.HandlerFunc) *StripeProvider {
	t.Helper()

	cfg := config.PaymentConfig{
		Provider:      ProviderStripe,
		SecretKey:     "sk_test_123",
		WebhookSecret: testWebhookSecret,
		Currency:      "INR",
	}

	if handler == nil {
		return NewStripeProvider(cfg, zerolog.Nop())
	}

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		HTTPClient:        srv.Client(),
		MaxNetworkRetries: stripe.Int64(0),
	})

	return NewStripeProvider(cfg, zerolog.Nop(), WithBackends(&stripe.Backends{API: backend}))
}

func TestStripeProvider_CreateIntent(t *testing.T) {
	var calls int32
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "checkout-order-7", r.Header.Get("Idempotency-Key"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "49900", r.PostForm.Get("amount"))
		assert.Equal(t, "inr", r.PostForm.Get("currency"))
		assert.Equal(t, "7", r.PostForm.Get("metadata[order_id]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "pi_123",
			"object": "payment_intent",
			"amount": 49900,
			"currency": "inr",
			"client_secret": "pi_123_secret_abc",
			"status": "requires_payment_method",
			"metadata": {"order_id": "7"}
		}`))
	})

	intent, err := provider.CreateIntent(context.Background(), IntentRequest{
		OrderID:        7,
		Amount:         decimal.RequireFromString("499.00"),
		Currency:       "INR",
		IdempotencyKey: "checkout-order-7",
	})

	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "pi_123_secret_abc", intent.ClientSecret)
	assert.Equal(t, int64(49900), intent.Amount)
	assert.Equal(t, "inr", intent.Currency)
}

func TestStripeProvider_CreateIntent_InvalidAmountSkipsProvider(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("provider must not be called for an invalid amount")
	})

	_, err := provider.CreateIntent(context.Background(), IntentRequest{
		OrderID:  1,
		Amount:   decimal.Zero,
		Currency: "INR",
	})

	assert.ErrorIs(t, err, model.ErrInvalidAmount)
}

func TestStripeProvider_CreateIntent_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected *model.DomainError
	}{
		{
			name:     "server error is retryable",
			status:   http.StatusInternalServerError,
			body:     `{"error": {"type": "api_error", "message": "boom"}}`,
			expected: model.ErrProviderUnavailable,
		},
		{
			name:     "rate limit is retryable",
			status:   http.StatusTooManyRequests,
			body:     `{"error": {"type": "invalid_request_error", "code": "rate_limit", "message": "slow down"}}`,
			expected: model.ErrProviderUnavailable,
		},
		{
			name:     "invalid request is rejected",
			status:   http.StatusBadRequest,
			body:     `{"error": {"type": "invalid_request_error", "code": "amount_too_small", "message": "too small"}}`,
			expected: model.ErrProviderRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := provider.CreateIntent(context.Background(), IntentRequest{
				OrderID:  9,
				Amount:   decimal.RequireFromString("10.00"),
				Currency: "INR",
			})

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestStripeProvider_GetIntent(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/payment_intents/pi_777", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "pi_777", "object": "payment_intent", "amount": 100, "currency": "inr", "client_secret": "pi_777_secret"}`))
	})

	intent, err := provider.GetIntent(context.Background(), "pi_777")

	require.NoError(t, err)
	assert.Equal(t, "pi_777_secret", intent.ClientSecret)
}

func eventPayload(t *testing.T, eventType string, object map[string]any) []byte {
	t.Helper()

	body, err := json.Marshal(map[string]any{
		"id":          "evt_1",
		"object":      "event",
		"type":        eventType,
		"created":     time.Now().Unix(),
		"api_version": stripe.APIVersion,
		"data":        map[string]any{"object": object},
	})
	require.NoError(t, err)
	return body
}

func TestStripeProvider_ParseEvent(t *testing.T) {
	provider := newTestProvider(t, nil)

	payload := eventPayload(t, "payment_intent.succeeded", map[string]any{
		"id":       "pi_123",
		"object":   "payment_intent",
		"amount":   49900,
		"currency": "inr",
		"metadata": map[string]string{"order_id": "7"},
	})
	signature := SignPayload(payload, testWebhookSecret, time.Now())

	event, err := provider.ParseEvent(payload, signature)

	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, EventPaymentSucceeded, event.Type)
	assert.Equal(t, "pi_123", event.PaymentID)
	assert.Equal(t, int64(49900), event.Amount)
	assert.Equal(t, "inr", event.Currency)
	assert.Equal(t, int64(7), event.OrderID)
}

func TestStripeProvider_ParseEvent_Rejections(t *testing.T) {
	provider := newTestProvider(t, nil)

	valid := eventPayload(t, "payment_intent.succeeded", map[string]any{"id": "pi_1", "object": "payment_intent"})
	tampered := eventPayload(t, "payment_intent.succeeded", map[string]any{"id": "pi_2", "object": "payment_intent"})

	tests := []struct {
		name      string
		payload   []byte
		signature string
		expected  *model.DomainError
	}{
		{
			name:      "missing header",
			payload:   valid,
			signature: "",
			expected:  model.ErrInvalidSignature,
		},
		{
			name:      "wrong secret",
			payload:   valid,
			signature: SignPayload(valid, "whsec_other", time.Now()),
			expected:  model.ErrInvalidSignature,
		},
		{
			name:      "body changed after signing",
			payload:   tampered,
			signature: SignPayload(valid, testWebhookSecret, time.Now()),
			expected:  model.ErrInvalidSignature,
		},
		{
			name:      "stale timestamp",
			payload:   valid,
			signature: SignPayload(valid, testWebhookSecret, time.Now().Add(-time.Hour)),
			expected:  model.ErrInvalidSignature,
		},
		{
			name:      "garbage header",
			payload:   valid,
			signature: "not-a-signature",
			expected:  model.ErrInvalidSignature,
		},
		{
			name:      "signed but not json",
			payload:   []byte("not json"),
			signature: SignPayload([]byte("not json"), testWebhookSecret, time.Now()),
			expected:  model.ErrInvalidPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := provider.ParseEvent(tt.payload, tt.signature)

			require.Error(t, err)
			assert.Nil(t, event)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestStripeProvider_ParseEvent_OtherTypesSkipDecoding(t *testing.T) {
	provider := newTestProvider(t, nil)

	payload := eventPayload(t, "customer.created", map[string]any{"id": "cus_1", "object": "customer"})
	event, err := provider.ParseEvent(payload, SignPayload(payload, testWebhookSecret, time.Now()))

	require.NoError(t, err)
	assert.Equal(t, EventType("customer.created"), event.Type)
	assert.Empty(t, event.PaymentID)
}
