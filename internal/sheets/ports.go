// Package sheets defines the spreadsheet export port and its row layout.
package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// Header is the first row of every export sheet. The ID column lets repeated
// exports skip rows that are already present.
var Header = []any{"Date", "Description", "Category", "Type", "Amount", "Tags", "Note", "ID"}

// IDColumn is the spreadsheet column letter holding record ids.
const IDColumn = "H"

// Result summarizes one export.
type Result struct {
	Sheet    string
	Appended int
	Skipped  int
}

// Exporter writes a month of transactions to a spreadsheet.
type Exporter interface {
	Export(ctx context.Context, period core.Period, ts []core.Transaction) (Result, error)
}

// Row renders one transaction in Header order.
func Row(t core.Transaction) []any {
	kind := "Expense"
	if t.IsIncome {
		kind = "Income"
	}
	return []any{
		string(t.Date),
		t.Description,
		core.CategoryOrPlaceholder(t.Category).Name,
		kind,
		t.Amount.Float64(),
		strings.Join(t.Tags, ", "),
		t.Note,
		string(t.ID),
	}
}

// SheetName returns "<year> <base>" unless base already starts with a
// four-digit year.
func SheetName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 && base[4] == ' ' {
		if y, err := strconv.Atoi(base[:4]); err == nil && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}

// Pending filters ts down to the month's transactions whose ids are not in
// existing.
func Pending(period core.Period, ts []core.Transaction, existing map[string]struct{}) (rows [][]any, skipped int) {
	for _, t := range ts {
		if !period.ContainsDate(t.Date) {
			continue
		}
		if _, ok := existing[string(t.ID)]; ok {
			skipped++
			continue
		}
		rows = append(rows, Row(t))
	}
	return rows, skipped
}
