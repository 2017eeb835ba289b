package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/application/diagnostics"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/application/resolver"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/config"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/logging"
)

func inspectCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [payment-id]",
		Short: "Fetch a payment and show how its payer is identified",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			logger := logging.New(os.Stderr, cfg.LogLevel)
			client := newClient(cfg, logger)
			inspector := &diagnostics.Inspector{
				Client:   client,
				Resolver: resolver.New(selfIdentity(cmd.Context(), client, logger)),
			}

			report, err := inspector.Inspect(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("inspect %s: %w", args[0], err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}
