package repository

import (
	"context"

	"aroma-shop/internal/model"

	"github.com/jackc/pgx/v5"
)

// UserRepository defines the interface for user data access operations.
type UserRepository interface {
	// GetByID retrieves a user by ID. Returns nil, nil when no row exists.
	GetByID(ctx context.Context, id int64) (*model.User, error)

	// Create inserts a user and fills in the generated fields.
	Create(ctx context.Context, user *model.User) error
}

// AddressRepository defines the interface for address data access operations.
type AddressRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// LockOwner takes a row lock on the owning user so default switches for that user serialize.
	LockOwner(ctx context.Context, tx pgx.Tx, userID int64) error

	// Create inserts an address within the provided transaction.
	Create(ctx context.Context, tx pgx.Tx, address *model.Address) error

	// Update writes every mutable column except is_default.
	Update(ctx context.Context, tx pgx.Tx, address *model.Address) error

	// SetDefault marks addressID as the user's default, clearing any other default in the
	// same statement, or clears the flag on addressID when isDefault is false.
	SetDefault(ctx context.Context, tx pgx.Tx, userID, addressID int64, isDefault bool) error

	// GetByID retrieves a single address regardless of owner.
	GetByID(ctx context.Context, id int64) (*model.Address, error)

	// GetForUpdate retrieves and row-locks an address within the transaction.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*model.Address, error)

	// ListByUser returns the user's addresses, default first.
	ListByUser(ctx context.Context, userID int64) ([]model.Address, error)

	// Delete removes an owned address. Returns false when nothing matched.
	Delete(ctx context.Context, id, userID int64) (bool, error)
}

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves all products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs. Missing IDs are simply absent.
	GetByIDs(ctx context.Context, ids []int64) ([]model.Product, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction. It returns false,
	// without error, when an order with the same (user, idempotency key) already exists.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) (bool, error)

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items.
	GetByID(ctx context.Context, id int64) (*model.Order, []model.OrderItem, error)

	// GetByIdempotencyKey finds the order a user created with the given key.
	GetByIdempotencyKey(ctx context.Context, userID int64, key string) (*model.Order, error)

	// ListByUser returns a page of the user's orders, newest first.
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.Order, error)

	// TransitionStatus moves the order to `to` only if its current status is one of `from`.
	TransitionStatus(ctx context.Context, tx pgx.Tx, id int64, to model.OrderStatus, from ...model.OrderStatus) (bool, error)
}

// PaymentRepository defines the interface for payment data access operations.
type PaymentRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// Create inserts a payment. It returns false, without error, when the
	// (provider, provider_payment_id) pair is already recorded.
	Create(ctx context.Context, tx pgx.Tx, payment *model.Payment) (bool, error)

	// GetByProviderID retrieves a payment by its provider-side identifier.
	GetByProviderID(ctx context.Context, tx pgx.Tx, provider, providerPaymentID string) (*model.Payment, error)

	// GetLatestByOrderID retrieves the most recent payment for an order.
	GetLatestByOrderID(ctx context.Context, orderID int64) (*model.Payment, error)

	// TransitionStatus conditionally moves a payment to `to`. It returns the updated row, or
	// nil when no payment in one of the `from` states matched.
	TransitionStatus(ctx context.Context, tx pgx.Tx, provider, providerPaymentID string, to model.PaymentStatus, from ...model.PaymentStatus) (*model.Payment, error)
}
