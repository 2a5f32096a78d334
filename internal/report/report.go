// Package report builds the printable monthly financial report.
package report

import (
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/format"
)

const (
	TypeIncome  = "Income"
	TypeExpense = "Expense"
)

// Line is one labelled summary figure.
type Line struct {
	Label string
	Value string
}

// Row is one transaction of the report table.
type Row struct {
	Date        string
	Description string
	Category    string
	Amount      string
	Type        string
	IsIncome    bool
}

// Report is fully formatted and ready to render.
type Report struct {
	Title       string
	Month       string
	Period      core.Period
	Currency    string
	Summary     [][]Line
	Rows        []Row
	GeneratedAt string
}

// Build formats a dashboard into a report. Rows are the dashboard's month
// transactions, newest first.
func Build(d analytics.Dashboard, useINR bool, now time.Time) Report {
	money := func(m core.Money) string { return format.Currency(m, useINR) }
	month := format.MonthLabel(d.Period)

	r := Report{
		Title:    "Financial Report - " + month,
		Month:    month,
		Period:   d.Period,
		Currency: format.CurrencyName(useINR),
		Summary: [][]Line{
			{
				{"Income", money(d.Income)},
				{"Expenses", money(d.Expense)},
				{"Balance", money(d.Income.Sub(d.Expense))},
			},
			{
				{"Last Month Income", money(d.LastMonthIncome)},
				{"Last Month Expenses", money(d.LastMonthExpense)},
				{"Average Monthly Expenses", money(core.NewMoney(d.AvgMonthlyExpense))},
			},
			{
				{"Total Income", money(d.TotalIncome)},
				{"Total Expenses", money(d.TotalExpense)},
				{"Net Balance", money(d.TotalIncome.Sub(d.TotalExpense))},
			},
		},
		GeneratedAt: now.Format("Jan 2, 2006 15:04:05"),
	}

	for _, t := range analytics.SortByDateDesc(d.Transactions) {
		kind := TypeExpense
		if t.IsIncome {
			kind = TypeIncome
		}
		r.Rows = append(r.Rows, Row{
			Date:        format.Date(t.Date),
			Description: t.Description,
			Category:    core.CategoryOrPlaceholder(t.Category).Name,
			Amount:      money(t.Amount),
			Type:        kind,
			IsIncome:    t.IsIncome,
		})
	}
	return r
}
