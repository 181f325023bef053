package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"recruit-intake/internal/secrets"
)

func newSecretsCmd(opts *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage the webhook bearer token in the OS keychain",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set-webhook-token <token>",
		Short: "Store the bearer token sent with every webhook call",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if err := secrets.SetWebhookToken(cfg.Webhook.KeyringAccount, args[0]); err != nil {
				return fmt.Errorf("store token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "webhook token stored")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete-webhook-token",
		Short: "Remove the stored webhook bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if err := secrets.DeleteWebhookToken(cfg.Webhook.KeyringAccount); err != nil {
				return fmt.Errorf("delete token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "webhook token removed")
			return nil
		},
	})
	return cmd
}
