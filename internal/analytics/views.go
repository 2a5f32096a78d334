package analytics

import (
	"slices"
	"sort"
	"strings"

	"fintrack/internal/core"
)

// CategoryAmount is a category with the amount spent in it.
type CategoryAmount struct {
	Category core.Category `json:"category"`
	Amount   core.Money    `json:"amount"`
	Share    float64       `json:"share,omitempty"`
}

// Search keeps transactions whose description, category or any tag
// contains term, ignoring case. An empty term keeps everything.
func Search(ts []core.Transaction, term string) []core.Transaction {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]core.Transaction, 0, len(ts))
	for _, t := range ts {
		if term == "" || matches(t, term) {
			out = append(out, t)
		}
	}
	return out
}

func matches(t core.Transaction, term string) bool {
	if strings.Contains(strings.ToLower(t.Description), term) ||
		strings.Contains(strings.ToLower(t.Category), term) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

// TopCategories returns the n largest spending categories, ties broken by id.
func TopCategories(byCategory map[string]core.Money, n int) []CategoryAmount {
	out := sortedCategories(byCategory)
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// CategoryShares returns every spending category with its percentage of the
// total, largest first.
func CategoryShares(byCategory map[string]core.Money) []CategoryAmount {
	out := sortedCategories(byCategory)
	var total core.Money
	for _, c := range out {
		total = total.Add(c.Amount)
	}
	for i := range out {
		out[i].Share = SafeRatio(out[i].Amount.Float64(), total.Float64(), 0) * 100
	}
	return out
}

func sortedCategories(byCategory map[string]core.Money) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(byCategory))
	for id, amount := range byCategory {
		out = append(out, CategoryAmount{Category: core.CategoryOrPlaceholder(id), Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Category.ID < out[j].Category.ID
	})
	return out
}

// SortByDateDesc returns a copy of ts, newest first. Unparseable dates sort last.
func SortByDateDesc(ts []core.Transaction) []core.Transaction {
	out := slices.Clone(ts)
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		ta, errA := a.Date.Time()
		tb, errB := b.Date.Time()
		switch {
		case errA != nil && errB != nil:
			return 0
		case errA != nil:
			return 1
		case errB != nil:
			return -1
		}
		return tb.Compare(ta)
	})
	return out
}

// Recent returns the n newest transactions.
func Recent(ts []core.Transaction, n int) []core.Transaction {
	out := SortByDateDesc(ts)
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// MonthlySeries returns totals for the n most recent months that have
// transactions, oldest first.
func MonthlySeries(ts []core.Transaction, n int) []MonthTotals {
	months := GroupByMonth(ts)
	out := make([]MonthTotals, 0, len(months))
	for p, tot := range months {
		out = append(out, MonthTotals{Period: p, Totals: tot})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Period, out[j].Period
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})
	if n >= 0 && len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}
