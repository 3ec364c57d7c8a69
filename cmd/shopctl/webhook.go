package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"aroma-shop/internal/payment"

	"github.com/spf13/cobra"
)

func webhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Webhook helpers for local testing",
	}
	cmd.AddCommand(webhookSignCmd())
	return cmd
}

func webhookSignCmd() *cobra.Command {
	var (
		secret string
		at     int64
	)

	cmd := &cobra.Command{
		Use:   "sign [payload-file]",
		Short: "Print a Stripe-Signature header for a payload (\"-\" reads stdin)",
		Long: `Sign a webhook payload the way Stripe does, so that a delivery can be replayed
against a local server:

  shopctl webhook sign event.json
  curl -H "Stripe-Signature: $(shopctl webhook sign event.json)" --data-binary @event.json \
    localhost:8080/payments/webhook`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("webhook secret is required (--secret or STRIPE_WEBHOOK_SECRET)")
			}

			var (
				payload []byte
				err     error
			)
			if args[0] == "-" {
				payload, err = io.ReadAll(cmd.InOrStdin())
			} else {
				payload, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to read payload: %w", err)
			}

			ts := time.Now()
			if at > 0 {
				ts = time.Unix(at, 0)
			}
			fmt.Fprintln(cmd.OutOrStdout(), payment.SignPayload(payload, secret, ts))
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", os.Getenv("STRIPE_WEBHOOK_SECRET"), "webhook signing secret")
	cmd.Flags().Int64Var(&at, "timestamp", 0, "unix timestamp to sign with (default now)")
	return cmd
}
