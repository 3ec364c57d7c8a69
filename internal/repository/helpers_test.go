package repository

import (
	"context"
	"testing"
	"time"

	"aroma-shop/internal/database"
	"aroma-shop/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a PostgreSQL container and applies the embedded migrations.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping repository test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	_, err = database.Migrate(ctx, pool, zerolog.Nop())
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

func seedUser(t *testing.T, pool *pgxpool.Pool, email string) int64 {
	t.Helper()

	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO users (email) VALUES ($1) RETURNING id`, email).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedProduct(t *testing.T, pool *pgxpool.Pool, name string, price string) int64 {
	t.Helper()

	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO products (name, price, category) VALUES ($1, $2, 'perfume') RETURNING id`,
		name, decimal.RequireFromString(price)).Scan(&id)
	require.NoError(t, err)
	return id
}

func newAddress(userID int64, name string) *model.Address {
	return &model.Address{
		UserID:   userID,
		FullName: name,
		Phone:    "9876543210",
		Line1:    "12 MG Road",
		City:     "Bengaluru",
		State:    "Karnataka",
		Pincode:  "560001",
		Country:  model.DefaultCountry,
	}
}

// seedAddress inserts a non-default address outside any service logic.
func seedAddress(t *testing.T, pool *pgxpool.Pool, userID int64) int64 {
	t.Helper()

	repo := NewAddressRepository(pool, zerolog.Nop())
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	addr := newAddress(userID, "Seed")
	require.NoError(t, repo.Create(ctx, tx, addr))
	require.NoError(t, tx.Commit(ctx))
	return addr.ID
}

// seedOrder inserts a pending order for the user at the address.
func seedOrder(t *testing.T, pool *pgxpool.Pool, userID, addressID int64, total string) int64 {
	t.Helper()

	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO orders (user_id, address_id, total_amount, currency)
		VALUES ($1, $2, $3, 'INR') RETURNING id`,
		userID, addressID, decimal.RequireFromString(total)).Scan(&id)
	require.NoError(t, err)
	return id
}

func countDefaults(t *testing.T, pool *pgxpool.Pool, userID int64) int {
	t.Helper()

	var n int
	err := pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM addresses WHERE user_id = $1 AND is_default`, userID).Scan(&n)
	require.NoError(t, err)
	return n
}
