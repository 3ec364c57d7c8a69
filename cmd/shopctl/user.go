package main

import (
	"fmt"
	"strconv"

	"aroma-shop/internal/auth"
	"aroma-shop/internal/config"
	"aroma-shop/internal/model"
	"aroma-shop/internal/repository"

	"github.com/spf13/cobra"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage API users",
	}
	cmd.AddCommand(userCreateCmd())
	return cmd
}

func userCreateCmd() *cobra.Command {
	var superuser bool

	cmd := &cobra.Command{
		Use:   "create [email]",
		Short: "Create an active user and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, logger, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			user := &model.User{Email: args[0], IsActive: true, IsSuperuser: superuser}
			if err := repository.NewUserRepository(pool, logger).Create(ctx, user); err != nil {
				if repository.IsUniqueViolation(err) {
					return fmt.Errorf("user %s already exists", args[0])
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created user %d (%s)\n", user.ID, user.Email)
			return nil
		},
	}

	cmd.Flags().BoolVar(&superuser, "superuser", false, "grant access to the media endpoints")
	return cmd
}

func tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token [user-id]",
		Short: "Issue a bearer token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || userID <= 0 {
				return fmt.Errorf("invalid user id: %s", args[0])
			}

			authCfg, err := config.LoadAuth()
			if err != nil {
				return err
			}

			token, err := auth.NewTokenManager(authCfg).Issue(userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}
