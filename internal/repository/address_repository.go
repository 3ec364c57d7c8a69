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

const addressColumns = `id, user_id, full_name, phone, line1, line2, city, state, pincode, country, is_default, created_at, updated_at`

// addressRepository implements the AddressRepository interface using PostgreSQL.
type addressRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewAddressRepository creates a new PostgreSQL-backed address repository.
func NewAddressRepository(pool *pgxpool.Pool, logger zerolog.Logger) AddressRepository {
	return &addressRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "address").Logger(),
	}
}

func scanAddress(row pgx.Row) (*model.Address, error) {
	var a model.Address
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.FullName,
		&a.Phone,
		&a.Line1,
		&a.Line2,
		&a.City,
		&a.State,
		&a.Pincode,
		&a.Country,
		&a.IsDefault,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// BeginTx starts a new database transaction.
func (r *addressRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// LockOwner locks the user row. NO KEY UPDATE leaves concurrent foreign-key checks unblocked.
func (r *addressRepository) LockOwner(ctx context.Context, tx pgx.Tx, userID int64) error {
	var id int64
	err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR NO KEY UPDATE`, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrUnknownUser
		}
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to lock address owner")
		return fmt.Errorf("failed to lock address owner: %w", err)
	}
	return nil
}

// Create inserts an address within the provided transaction.
func (r *addressRepository) Create(ctx context.Context, tx pgx.Tx, a *model.Address) error {
	query := `
		INSERT INTO addresses (user_id, full_name, phone, line1, line2, city, state, pincode, country, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		a.UserID, a.FullName, a.Phone, a.Line1, a.Line2, a.City, a.State, a.Pincode, a.Country, a.IsDefault,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", a.UserID).Msg("failed to create address")
		return fmt.Errorf("failed to create address: %w", err)
	}

	r.logger.Debug().
		Int64("address_id", a.ID).
		Int64("user_id", a.UserID).
		Msg("address created successfully")

	return nil
}

// Update writes every mutable column except is_default.
func (r *addressRepository) Update(ctx context.Context, tx pgx.Tx, a *model.Address) error {
	query := `
		UPDATE addresses
		SET full_name = $2, phone = $3, line1 = $4, line2 = $5, city = $6,
		    state = $7, pincode = $8, country = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := tx.QueryRow(ctx, query,
		a.ID, a.FullName, a.Phone, a.Line1, a.Line2, a.City, a.State, a.Pincode, a.Country,
	).Scan(&a.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Int64("address_id", a.ID).Msg("failed to update address")
		return fmt.Errorf("failed to update address: %w", err)
	}

	return nil
}

// SetDefault switches the user's default in one statement: the target row becomes the
// default and any other default row of the same user is cleared. The deferred exclusion
// constraint is checked at commit, so the row order of the update does not matter.
func (r *addressRepository) SetDefault(ctx context.Context, tx pgx.Tx, userID, addressID int64, isDefault bool) error {
	query := `
		UPDATE addresses
		SET is_default = FALSE, updated_at = NOW()
		WHERE user_id = $1 AND id = $2 AND is_default
	`
	if isDefault {
		query = `
			UPDATE addresses
			SET is_default = (id = $2), updated_at = NOW()
			WHERE user_id = $1 AND (is_default OR id = $2)
		`
	}

	tag, err := tx.Exec(ctx, query, userID, addressID)
	if err != nil {
		r.logger.Error().Err(err).
			Int64("user_id", userID).
			Int64("address_id", addressID).
			Bool("is_default", isDefault).
			Msg("failed to switch default address")
		return fmt.Errorf("failed to switch default address: %w", err)
	}

	r.logger.Debug().
		Int64("user_id", userID).
		Int64("address_id", addressID).
		Bool("is_default", isDefault).
		Int64("rows", tag.RowsAffected()).
		Msg("default address switched")

	return nil
}

// GetByID retrieves a single address regardless of owner.
func (r *addressRepository) GetByID(ctx context.Context, id int64) (*model.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1`

	a, err := scanAddress(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("address_id", id).Msg("address not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("address_id", id).Msg("failed to query address")
		return nil, fmt.Errorf("failed to query address: %w", err)
	}

	return a, nil
}

// GetForUpdate retrieves and row-locks an address within the transaction.
func (r *addressRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*model.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1 FOR UPDATE`

	a, err := scanAddress(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("address_id", id).Msg("failed to lock address")
		return nil, fmt.Errorf("failed to lock address: %w", err)
	}

	return a, nil
}

// ListByUser returns the user's addresses, default first and then newest first.
func (r *addressRepository) ListByUser(ctx context.Context, userID int64) ([]model.Address, error) {
	query := `
		SELECT ` + addressColumns + `
		FROM addresses
		WHERE user_id = $1
		ORDER BY is_default DESC, created_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to query addresses")
		return nil, fmt.Errorf("failed to query addresses: %w", err)
	}
	defer rows.Close()

	addresses := []model.Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan address row")
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, *a)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating address rows")
		return nil, fmt.Errorf("error iterating addresses: %w", err)
	}

	return addresses, nil
}

// Delete removes an owned address. An address referenced by an order is reported as
// model.ErrAddressInUse.
func (r *addressRepository) Delete(ctx context.Context, id, userID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		if IsForeignKeyViolation(err) {
			r.logger.Warn().Int64("address_id", id).Msg("address still referenced by an order")
			return false, model.ErrAddressInUse
		}
		r.logger.Error().Err(err).Int64("address_id", id).Msg("failed to delete address")
		return false, fmt.Errorf("failed to delete address: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
