package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"aroma-shop/internal/config"
	"aroma-shop/internal/model"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// ProviderStripe is the payments.provider value for Stripe.
const ProviderStripe = "stripe"

// StripeProvider implements Provider against the Stripe API.
type StripeProvider struct {
	api           *client.API
	backends      *stripe.Backends
	webhookSecret string
	tolerance     time.Duration
	logger        zerolog.Logger
}

// StripeOption customises a StripeProvider.
type StripeOption func(*StripeProvider)

// WithBackends points the client at custom backends, e.g. a test server.
func WithBackends(backends *stripe.Backends) StripeOption {
	return func(p *StripeProvider) {
		p.backends = backends
	}
}

// WithTolerance overrides the accepted webhook timestamp skew.
func WithTolerance(d time.Duration) StripeOption {
	return func(p *StripeProvider) {
		p.tolerance = d
	}
}

// NewStripeProvider creates a Stripe adapter from injected credentials.
func NewStripeProvider(cfg config.PaymentConfig, logger zerolog.Logger, opts ...StripeOption) *StripeProvider {
	p := &StripeProvider{
		webhookSecret: cfg.WebhookSecret,
		tolerance:     webhook.DefaultTolerance,
		logger:        logger.With().Str("provider", ProviderStripe).Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.api = client.New(cfg.SecretKey, p.backends)
	return p
}

func (p *StripeProvider) Name() string {
	return ProviderStripe
}

func (p *StripeProvider) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	amount, currency, err := ToMinorUnits(req.Amount, req.Currency)
	if err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
	}
	params.Context = ctx
	params.AddMetadata(MetadataOrderID, strconv.FormatInt(req.OrderID, 10))
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		p.logger.Error().Err(err).
			Int64("order_id", req.OrderID).
			Int64("amount", amount).
			Str("currency", currency).
			Msg("failed to create payment intent")
		return nil, classifyStripeError(err)
	}

	p.logger.Info().
		Int64("order_id", req.OrderID).
		Str("payment_intent", pi.ID).
		Int64("amount", amount).
		Str("currency", currency).
		Msg("payment intent created")

	return intentFrom(pi), nil
}

func (p *StripeProvider) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.Get(id, params)
	if err != nil {
		p.logger.Error().Err(err).Str("payment_intent", id).Msg("failed to retrieve payment intent")
		return nil, classifyStripeError(err)
	}

	return intentFrom(pi), nil
}

// ParseEvent verifies the signature before decoding anything, so a forged body is never parsed.
func (p *StripeProvider) ParseEvent(payload []byte, signature string) (*Event, error) {
	if signature == "" {
		return nil, model.ErrInvalidSignature.WithMessage("Missing Stripe-Signature header")
	}
	if err := webhook.ValidatePayloadWithTolerance(payload, signature, p.webhookSecret, p.tolerance); err != nil {
		p.logger.Warn().Err(err).Msg("webhook signature rejected")
		return nil, model.ErrInvalidSignature.Wrap(err)
	}

	var raw stripe.Event
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, model.ErrInvalidPayload.Wrap(err)
	}

	event := &Event{
		ID:      raw.ID,
		Type:    EventType(raw.Type),
		Created: time.Unix(raw.Created, 0).UTC(),
	}
	if !strings.HasPrefix(string(raw.Type), "payment_intent.") {
		return event, nil
	}

	if raw.Data == nil || len(raw.Data.Raw) == 0 {
		return nil, model.ErrInvalidPayload.WithMessage("Event has no data object")
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(raw.Data.Raw, &pi); err != nil {
		return nil, model.ErrInvalidPayload.Wrap(err)
	}
	if pi.ID == "" {
		return nil, model.ErrInvalidPayload.WithMessage("Payment intent id is missing")
	}

	event.PaymentID = pi.ID
	event.Amount = pi.Amount
	event.Currency = string(pi.Currency)
	if v, ok := pi.Metadata[MetadataOrderID]; ok {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			event.OrderID = id
		}
	}

	return event, nil
}

func intentFrom(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
	}
}

// classifyStripeError maps a client error to a retryable or terminal domain error.
func classifyStripeError(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		// Transport failures never reached Stripe.
		return model.ErrProviderUnavailable.Wrap(err)
	}

	switch {
	case stripeErr.HTTPStatusCode == http.StatusTooManyRequests,
		stripeErr.HTTPStatusCode >= http.StatusInternalServerError,
		stripeErr.Type == stripe.ErrorTypeAPI,
		string(stripeErr.Code) == "idempotency_key_in_use":
		return model.ErrProviderUnavailable.Wrap(err)
	default:
		return model.ErrProviderRejected.Wrap(fmt.Errorf("%s: %w", stripeErr.Type, err))
	}
}
