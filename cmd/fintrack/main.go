package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
)

var (
	version  = "dev"
	logLevel string

	logger *log.Logger
	appCfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "fintrack",
		Short: "Personal finance and task tracker",
		Long: `fintrack keeps income, expenses, budgets and tasks in a local store
and serves them as a JSON API.

Configuration comes from the environment (or a .env file); see PORT,
DATA_BACKEND, SQLITE_DB_PATH, AMQP_URL and GOOGLE_SPREADSHEET_ID.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initApp,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(sheetsCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, stop := cli.SignalContext(context.Background())
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
		os.Exit(1)
	}
}

func initApp(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	cli.LoadEnvFile()

	level := logLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	logger = cli.SetupLogger(level)

	cfg, err := cli.LoadAndValidateConfig(logger)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	appCfg = cfg
	return nil
}

// openStore opens the configured backend for a short-lived command.
func openStore(ctx context.Context) (*backend.BackendResult, func(), error) {
	res, err := cli.OpenBackend(ctx, appCfg, logger, false)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := res.Cleanup(context.WithoutCancel(ctx)); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err.Error())
		}
	}
	return res, cleanup, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fintrack %s\n", version)
		},
	}
}
