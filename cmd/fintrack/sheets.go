package main

import (
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
)

func sheetsCmd() *cobra.Command {
	var (
		pf     periodFlags
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "sheets-export",
		Short: "Append a month of transactions to Google Sheets",
		Long: `Append the selected month's transactions to the "<year> <GOOGLE_SHEET_NAME>"
sheet of GOOGLE_SPREADSHEET_ID. Rows whose id is already in the sheet are
skipped, so running the export twice is safe. --dry-run exports to memory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			period, err := pf.period(time.Now())
			if err != nil {
				return err
			}

			bcfg, err := backend.FromAppConfig(appCfg)
			if err != nil {
				return err
			}
			exporter, err := backend.NewExporter(cmd.Context(), bcfg, logger, dryRun)
			if err != nil {
				return err
			}

			res, cleanup, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := exporter.Export(cmd.Context(), period, res.Store.Transactions())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if dryRun {
				cli.Printf(w, cli.FormatInfo, "Dry run, nothing was written")
			}
			cli.Printf(w, cli.FormatSuccess, "%s %s: %d appended, %d already present",
				result.Sheet, period, result.Appended, result.Skipped)
			return nil
		},
	}
	pf.register(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "export to memory instead of the spreadsheet")
	return cmd
}
