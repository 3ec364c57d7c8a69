package main

import (
	"context"
	"fmt"

	"aroma-shop/internal/config"
	"aroma-shop/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// openPool connects using the DB_* environment.
func openPool(ctx context.Context) (*pgxpool.Pool, zerolog.Logger, error) {
	dbCfg, logCfg, err := config.LoadDatabase()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger := config.NewLogger(logCfg)

	pool, err := database.NewPool(ctx, dbCfg, logger)
	if err != nil {
		return nil, logger, err
	}
	return pool, logger, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, logger, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := database.Migrate(ctx, pool, logger)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
				return nil
			}
			for _, v := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %s\n", v)
			}
			return nil
		},
	}
}

func dbcheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dbcheck",
		Short: "Check database connectivity and list applied migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, _, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			var dbName string
			if err := pool.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
				return fmt.Errorf("query failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully connected to database: %s\n", dbName)

			versions, err := database.AppliedVersions(ctx, pool)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "\nApplied migrations:")
			for _, v := range versions {
				fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", v)
			}
			return nil
		},
	}
}
