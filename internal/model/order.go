package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order represents a customer order.
type Order struct {
	ID             int64           `json:"id" db:"id"`
	UserID         int64           `json:"user_id" db:"user_id"`
	AddressID      int64           `json:"address_id" db:"address_id"`
	TotalAmount    decimal.Decimal `json:"total_amount" db:"total_amount"`
	Currency       string          `json:"currency" db:"currency"`
	Status         OrderStatus     `json:"status" db:"status"`
	IdempotencyKey *string         `json:"-" db:"idempotency_key"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// OrderItem represents a line item in an order. Price is the unit price at checkout time.
type OrderItem struct {
	ID        int64           `json:"id" db:"id"`
	OrderID   int64           `json:"order_id" db:"order_id"`
	ProductID int64           `json:"product_id" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Price     decimal.Decimal `json:"price" db:"price"`
}

// MaxItemQuantity caps the quantity of one product in a checkout, after merging lines.
const MaxItemQuantity = 1000

// OrderItemRequest represents a single item in a checkout request.
type OrderItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity"`
}

// OrderResponse represents the response payload for an order.
type OrderResponse struct {
	Order
	Items   []OrderItem `json:"items"`
	Payment *Payment    `json:"payment,omitempty"`
}

// OrderListResponse wraps a page of orders.
type OrderListResponse struct {
	Orders []Order `json:"orders"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}
