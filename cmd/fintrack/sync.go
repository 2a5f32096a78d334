package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/store"
	"fintrack/internal/worker"
)

func syncCmd() *cobra.Command {
	var (
		queue  string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror transaction changes into Google Sheets",
		Long: `Consume change events from AMQP_URL and append each changed transaction's
month to the spreadsheet. The current and previous month are exported once
at start-up to catch up on changes missed while the worker was down.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !appCfg.AMQPEnabled() {
				return errors.New("sync needs AMQP_URL")
			}
			ctx := cmd.Context()

			bcfg, err := backend.FromAppConfig(appCfg)
			if err != nil {
				return err
			}
			exporter, err := backend.NewExporter(ctx, bcfg, logger, dryRun)
			if err != nil {
				return err
			}

			res, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			// The server writes the same storage; reload it for every change.
			load := func(ctx context.Context) ([]core.Transaction, error) {
				st, err := store.Open(ctx, res.KV, store.WithLogger(log.Discard()))
				if err != nil {
					return nil, err
				}
				return st.Transactions(), nil
			}

			w := worker.NewSyncWorker(load, exporter, logger)
			if err := w.StartupSync(ctx); err != nil {
				logger.Warn("Startup sync failed", log.FieldError, err.Error())
			}

			cli.Printf(cmd.OutOrStdout(), cli.FormatInfo, "Waiting for changes on %s", appCfg.AMQPExchange)
			return amqp.NewSubscriber(bcfg.AMQP, queue, logger).Consume(ctx, w.HandleChange)
		},
	}
	cmd.Flags().StringVar(&queue, "queue", "fintrack-sheets-sync", "durable queue name; empty for a temporary queue")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "export to memory instead of the spreadsheet")
	return cmd
}
