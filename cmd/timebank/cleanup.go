package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"timebank-go/internal/app"
	"timebank-go/internal/config"
	"timebank-go/internal/domain/entries"
	"timebank-go/pkg/logger"
)

var (
	cleanupOlderThan string
	cleanupMode      string
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete time entries past the retention window",
	Long: `Delete time entries older than --older-than.

In reverse mode approved hours of deleted entries are taken back out of the
owners' balances. Archive mode keeps balances and only removes decided entries.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, ok := entries.ParseCleanupMode(cleanupMode)
		if !ok {
			return fmt.Errorf("cleanup: unknown mode %q", cleanupMode)
		}

		return withApp(func(log logger.Logger, application *app.App) error {
			age, err := config.ParseAge(cleanupOlderThan, application.Config().Cleanup.DefaultAge)
			if err != nil {
				return fmt.Errorf("cleanup: %w", err)
			}

			result, err := application.Cleanup(cmd.Context(), age, mode)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "mode=%s cutoff=%s deleted=%d users=%d balance_delta=%s\n",
				result.Mode, result.Cutoff.Format("2006-01-02T15:04:05Z07:00"),
				result.DeletedEntries, result.AffectedUsers, result.BalanceDelta.StringFixed(2))
			return nil
		})
	},
}

func init() {
	cleanupCmd.Flags().StringVar(&cleanupOlderThan, "older-than", "", "retention age such as 7d or 72h (defaults to cleanup.default_age)")
	cleanupCmd.Flags().StringVar(&cleanupMode, "mode", string(entries.CleanupReverse), "reverse or archive")
}
