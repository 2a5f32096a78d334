package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/report"
)

// periodFlags selects a month with a human 1-12 --month flag.
type periodFlags struct {
	year  int
	month int
}

func (f *periodFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.year, "year", 0, "year (default: current)")
	cmd.Flags().IntVar(&f.month, "month", 0, "month 1-12 (default: current)")
}

func (f *periodFlags) period(now time.Time) (core.Period, error) {
	p := core.PeriodOf(now)
	if f.year != 0 {
		p.Year = f.year
	}
	if f.month != 0 {
		p.Month = f.month - 1
	}
	if err := p.Validate(); err != nil {
		return core.Period{}, fmt.Errorf("--year/--month: %w", err)
	}
	return p, nil
}

func reportCmd() *cobra.Command {
	var (
		pf     periodFlags
		search string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the monthly financial report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now()
			period, err := pf.period(now)
			if err != nil {
				return err
			}

			res, cleanup, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			snap := res.Store.Snapshot()
			d := analytics.Build(analytics.Input{
				Transactions: snap.Transactions,
				Tasks:        snap.Tasks,
				Budgets:      snap.Budgets,
				Period:       period,
				Search:       search,
				Today:        now,
			})
			fmt.Fprint(cmd.OutOrStdout(), report.Terminal(report.Build(d, snap.Settings.UseINR, now)))
			return nil
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVar(&search, "search", "", "only include matching transactions")
	return cmd
}
