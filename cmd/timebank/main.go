package main

import (
	"os"

	"github.com/spf13/cobra"

	"timebank-go/internal/app"
	"timebank-go/pkg/logger"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:           "timebank",
	Short:         "Household time bank backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.AddCommand(serveCmd, migrateCmd, cleanupCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		newLogger().Critical("app: command failed", "err", err)
		os.Exit(1)
	}
}

func newLogger() logger.Logger {
	return logger.NewFromEnv("timebank", logLevel)
}

// withApp builds the application for one command and always releases it.
func withApp(run func(log logger.Logger, application *app.App) error) error {
	log := newLogger()
	application, err := app.New(log)
	if err != nil {
		return err
	}

	runErr := run(log, application)

	ctx, cancel := shutdownContext()
	defer cancel()
	if err := application.Close(ctx); err != nil {
		log.Error("app: close failed", "err", err)
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}
