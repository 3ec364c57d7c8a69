// Package payment adapts external payment providers to the shop's checkout and
// reconciliation flows.
package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// EventType names a provider event the shop reacts to.
type EventType string

const (
	EventPaymentSucceeded EventType = "payment_intent.succeeded"
	EventPaymentFailed    EventType = "payment_intent.payment_failed"
)

// MetadataOrderID is the intent metadata key carrying the local order id.
const MetadataOrderID = "order_id"

// IntentRequest describes the payment intent to create for an order.
type IntentRequest struct {
	OrderID        int64
	Amount         decimal.Decimal
	Currency       string
	IdempotencyKey string
}

// Intent is the provider-side payment object.
type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64 // minor units
	Currency     string
	Status       string
}

// Event is a verified provider webhook event.
type Event struct {
	ID        string
	Type      EventType
	PaymentID string
	Amount    int64 // minor units
	Currency  string
	OrderID   int64 // from intent metadata, 0 when absent
	Created   time.Time
}

// Provider is the seam between the shop and a payment processor.
type Provider interface {
	// Name is stored in payments.provider.
	Name() string

	// CreateIntent creates a payment intent. Repeating a call with the same
	// IdempotencyKey returns the original intent.
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)

	// GetIntent retrieves an existing intent.
	GetIntent(ctx context.Context, id string) (*Intent, error)

	// ParseEvent verifies the signature header over the raw payload and decodes the event.
	ParseEvent(payload []byte, signature string) (*Event, error)
}
