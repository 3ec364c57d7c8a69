package repository

import (
	"context"
	"errors"
	"fmt"

	"aroma-shop/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const paymentColumns = `id, order_id, provider, provider_payment_id, amount, currency, status, created_at, updated_at`

type paymentRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPaymentRepository creates a new PostgreSQL-backed payment repository.
func NewPaymentRepository(pool *pgxpool.Pool, logger zerolog.Logger) PaymentRepository {
	return &paymentRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "payment").Logger(),
	}
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var p model.Payment
	err := row.Scan(
		&p.ID,
		&p.OrderID,
		&p.Provider,
		&p.ProviderPaymentID,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

func (r *paymentRepository) Create(ctx context.Context, tx pgx.Tx, p *model.Payment) (bool, error) {
	query := `
		INSERT INTO payments (order_id, provider, provider_payment_id, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (provider, provider_payment_id) DO NOTHING
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		p.OrderID, p.Provider, p.ProviderPaymentID, p.Amount, p.Currency, p.Status,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().
				Str("provider_payment_id", p.ProviderPaymentID).
				Msg("payment already recorded")
			return false, nil
		}
		r.logger.Error().Err(err).
			Int64("order_id", p.OrderID).
			Str("provider_payment_id", p.ProviderPaymentID).
			Msg("failed to create payment")
		return false, fmt.Errorf("failed to create payment: %w", err)
	}

	r.logger.Debug().
		Int64("payment_id", p.ID).
		Int64("order_id", p.OrderID).
		Msg("payment created successfully")

	return true, nil
}

func (r *paymentRepository) GetByProviderID(ctx context.Context, tx pgx.Tx, provider, providerPaymentID string) (*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE provider = $1 AND provider_payment_id = $2`

	p, err := scanPayment(tx.QueryRow(ctx, query, provider, providerPaymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("provider_payment_id", providerPaymentID).Msg("payment not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("provider_payment_id", providerPaymentID).Msg("failed to query payment")
		return nil, fmt.Errorf("failed to query payment: %w", err)
	}

	return p, nil
}

func (r *paymentRepository) GetLatestByOrderID(ctx context.Context, orderID int64) (*model.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE order_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	p, err := scanPayment(r.pool.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to query payment for order")
		return nil, fmt.Errorf("failed to query payment for order: %w", err)
	}

	return p, nil
}

// TransitionStatus relies on the row lock taken by UPDATE: a concurrent delivery for the
// same payment waits, then re-evaluates the status predicate and matches nothing.
func (r *paymentRepository) TransitionStatus(
	ctx context.Context,
	tx pgx.Tx,
	provider, providerPaymentID string,
	to model.PaymentStatus,
	from ...model.PaymentStatus,
) (*model.Payment, error) {
	query := `
		UPDATE payments
		SET status = $3, updated_at = NOW()
		WHERE provider = $1 AND provider_payment_id = $2 AND status = ANY($4::text[])
		RETURNING ` + paymentColumns

	p, err := scanPayment(tx.QueryRow(ctx, query, provider, providerPaymentID, to, statusStrings(from)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).
			Str("provider_payment_id", providerPaymentID).
			Str("to", string(to)).
			Msg("failed to update payment status")
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}

	r.logger.Debug().
		Int64("payment_id", p.ID).
		Str("to", string(to)).
		Msg("payment status transition")

	return p, nil
}
