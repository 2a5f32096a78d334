package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/log"
)

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write expenses, tasks and budgets to a JSON file",
		Long: `Export writes the portable data set to finance_task_tracker_data_<date>.json
in the current directory, or to --out. Use --out - for standard output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, cleanup, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			file := res.Store.Export()
			body, err := file.JSON()
			if err != nil {
				return fmt.Errorf("encode export: %w", err)
			}

			if out == "-" {
				_, err = cmd.OutOrStdout().Write(append(body, '\n'))
				return err
			}
			if out == "" {
				out = file.Name
			}
			if err := os.WriteFile(out, body, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			logger.Info("Exported data", log.FieldOperation, log.OpExport, "file", out)
			cli.Printf(cmd.OutOrStdout(), cli.FormatSuccess, "Exported %d transactions and %d tasks to %s",
				len(file.Data.Expenses), len(file.Data.Tasks), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: finance_task_tracker_data_<date>.json)")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace data with the contents of an export file",
		Long: `Import reads a file produced by export (or the web client) and replaces
each of expenses, tasks and budgets that the file contains. Collections
missing from the file are left alone. Use - to read standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}

			res, cleanup, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := res.Store.Import(cmd.Context(), data)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if result.Expenses {
				cli.Printf(w, cli.FormatSuccess, "Replaced expenses (%d transactions)", result.Transactions)
			}
			if result.Tasks {
				cli.Printf(w, cli.FormatSuccess, "Replaced tasks (%d tasks)", result.TaskCount)
			}
			if result.Budgets {
				cli.Printf(w, cli.FormatSuccess, "Replaced budgets")
			}
			return nil
		},
	}
}
