package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the lifecycle state of a payment attempt.
type PaymentStatus string

const (
	PaymentStatusCreated   PaymentStatus = "created"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment is the local record of a provider-side payment intent.
type Payment struct {
	ID                int64           `json:"id" db:"id"`
	OrderID           int64           `json:"order_id" db:"order_id"`
	Provider          string          `json:"provider" db:"provider"`
	ProviderPaymentID string          `json:"provider_payment_id" db:"provider_payment_id"`
	Amount            decimal.Decimal `json:"amount" db:"amount"`
	Currency          string          `json:"currency" db:"currency"`
	Status            PaymentStatus   `json:"status" db:"status"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// CheckoutRequest is the payload for POST /payments/checkout.
type CheckoutRequest struct {
	AddressID      int64              `json:"address_id" validate:"required,gt=0"`
	Items          []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	IdempotencyKey string             `json:"-" validate:"omitempty,max=255"`
}

// CheckoutResponse carries what the client needs to confirm the payment.
type CheckoutResponse struct {
	OrderID           int64           `json:"order_id"`
	PaymentID         int64           `json:"payment_id"`
	Provider          string          `json:"provider"`
	ProviderPaymentID string          `json:"provider_payment_id"`
	ClientSecret      string          `json:"client_secret"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Status            PaymentStatus   `json:"status"`
}

// WebhookOutcome describes what a webhook delivery did to local state.
type WebhookOutcome string

const (
	WebhookApplied   WebhookOutcome = "applied"
	WebhookDuplicate WebhookOutcome = "duplicate"
	WebhookIgnored   WebhookOutcome = "ignored"
)

// WebhookResult is returned to the provider after a delivery is processed.
type WebhookResult struct {
	Status    string         `json:"status"`
	EventID   string         `json:"event_id"`
	EventType string         `json:"event_type"`
	Outcome   WebhookOutcome `json:"outcome"`
	OrderID   int64          `json:"order_id,omitempty"`
	PaymentID int64          `json:"payment_id,omitempty"`
}
