package main

import (
	"github.com/spf13/cobra"

	"timebank-go/internal/app"
	"timebank-go/pkg/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending SQL migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(log logger.Logger, application *app.App) error {
			applied, err := application.Migrate()
			if err != nil {
				return err
			}
			log.Info("db: migrations complete", "applied", len(applied), "files", applied)
			return nil
		})
	},
}
