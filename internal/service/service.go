package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"aroma-shop/internal/model"
	"aroma-shop/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// ProductService defines operations for the product catalogue.
type ProductService interface {
	// GetAll retrieves all products with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id int64) (*model.Product, error)
}

// AddressService defines address book operations scoped to one user.
type AddressService interface {
	Create(ctx context.Context, userID int64, req *model.CreateAddressRequest) (*model.Address, error)
	List(ctx context.Context, userID int64) ([]model.Address, error)
	Get(ctx context.Context, userID, id int64) (*model.Address, error)
	Update(ctx context.Context, userID, id int64, req *model.UpdateAddressRequest) (*model.Address, error)
	Delete(ctx context.Context, userID, id int64) error
}

// OrderService defines read operations over a user's order history.
type OrderService interface {
	// List returns a page of the user's orders, newest first.
	List(ctx context.Context, userID int64, limit, offset int) (*model.OrderListResponse, error)

	// Get returns an order with its items and latest payment.
	Get(ctx context.Context, userID, id int64) (*model.OrderResponse, error)
}

// CheckoutService turns a cart into an order and a provider payment intent.
type CheckoutService interface {
	Checkout(ctx context.Context, userID int64, req *model.CheckoutRequest) (*model.CheckoutResponse, error)
}

// WebhookService reconciles provider events with local order and payment state.
type WebhookService interface {
	HandleEvent(ctx context.Context, payload []byte, signature string) (*model.WebhookResult, error)
}

// MediaService stores and removes catalogue images.
type MediaService interface {
	Upload(ctx context.Context, folder string, file io.Reader) (*model.Image, error)
	Delete(ctx context.Context, publicID string) error
}

// normalizePage applies the default and maximum page size.
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// rollback aborts tx when the enclosing operation returned an error.
func rollback(ctx context.Context, tx pgx.Tx, err error, logger zerolog.Logger) {
	if err == nil {
		return
	}
	if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
		logger.Error().Err(rbErr).Msg("failed to rollback transaction")
	}
}

// commit commits tx, reporting a deferred default-address violation as a conflict.
func commit(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		if repository.IsExclusionViolation(err) {
			return model.ErrDefaultConflict.Wrap(err)
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
