// Package analytics derives read-only summaries from transaction, task and
// budget snapshots. Every function is pure: inputs are never modified and
// results depend only on the arguments.
//
// Transactions whose date does not parse are skipped by every month- or
// day-scoped computation; flat sums still include them.
package analytics

import (
	"fintrack/internal/core"
)

// Totals is an income/expense pair.
type Totals struct {
	Income  core.Money `json:"income"`
	Expense core.Money `json:"expense"`
}

// MonthTotals is Totals for one calendar month.
type MonthTotals struct {
	Period core.Period `json:"period"`
	Totals
}

// WeekBucket accumulates one fixed seven-day slice of a month.
type WeekBucket struct {
	Label   string     `json:"week"`
	Income  core.Money `json:"income"`
	Expense core.Money `json:"expenses"`
}

// FilterByMonth returns the transactions dated in period, in input order.
func FilterByMonth(ts []core.Transaction, period core.Period) []core.Transaction {
	out := make([]core.Transaction, 0, len(ts))
	for _, t := range ts {
		if period.ContainsDate(t.Date) {
			out = append(out, t)
		}
	}
	return out
}

// SumByFlag sums the amounts of transactions whose IsIncome equals isIncome.
func SumByFlag(ts []core.Transaction, isIncome bool) core.Money {
	var sum core.Money
	for _, t := range ts {
		if t.IsIncome == isIncome {
			sum = sum.Add(t.Amount)
		}
	}
	return sum
}

// Balance is income minus expense.
func Balance(ts []core.Transaction) core.Money {
	return SumByFlag(ts, true).Sub(SumByFlag(ts, false))
}

// GroupByCategory sums expense amounts per category. Income entries are
// ignored and categories without spending are absent.
func GroupByCategory(ts []core.Transaction) map[string]core.Money {
	out := make(map[string]core.Money)
	for _, t := range ts {
		if t.IsIncome {
			continue
		}
		out[t.Category] = out[t.Category].Add(t.Amount)
	}
	return out
}

// GroupByMonth sums income and expense per calendar month present in ts.
func GroupByMonth(ts []core.Transaction) map[core.Period]Totals {
	out := make(map[core.Period]Totals)
	for _, t := range ts {
		d, err := t.Date.Time()
		if err != nil {
			continue
		}
		p := core.PeriodOf(d)
		tot := out[p]
		if t.IsIncome {
			tot.Income = tot.Income.Add(t.Amount)
		} else {
			tot.Expense = tot.Expense.Add(t.Amount)
		}
		out[p] = tot
	}
	return out
}

// MonthlyAverages averages income and expense over the distinct months
// present in ts. With no months the divisor is 1, so the result is zero.
func MonthlyAverages(ts []core.Transaction) (income, expense float64) {
	months := GroupByMonth(ts)
	var in, ex core.Money
	for _, tot := range months {
		in = in.Add(tot.Income)
		ex = ex.Add(tot.Expense)
	}
	n := float64(max(len(months), 1))
	return SafeRatio(in.Float64(), n, 0), SafeRatio(ex.Float64(), n, 0)
}

// WeekIndex maps a day of month to its bucket: min((day-1)/7, 4).
func WeekIndex(day int) int {
	return min((day-1)/7, 4)
}

// WeeklyBuckets splits a month's transactions into five fixed buckets by
// day of month. Days 29 to 31 always land in the last bucket.
func WeeklyBuckets(ts []core.Transaction) [5]WeekBucket {
	var buckets [5]WeekBucket
	for i := range buckets {
		buckets[i].Label = weekLabels[i]
	}
	for _, t := range ts {
		d, err := t.Date.Time()
		if err != nil {
			continue
		}
		b := &buckets[WeekIndex(d.Day())]
		if t.IsIncome {
			b.Income = b.Income.Add(t.Amount)
		} else {
			b.Expense = b.Expense.Add(t.Amount)
		}
	}
	return buckets
}

var weekLabels = [5]string{"Week 1", "Week 2", "Week 3", "Week 4", "Week 5"}

// WeeklyTrend compares expenses of the last bucket with the one before it,
// as an unrounded percentage. An empty previous bucket yields 100.
func WeeklyTrend(buckets [5]WeekBucket) float64 {
	last := len(buckets) - 1
	cur := buckets[last].Expense.Float64()
	prev := buckets[last-1].Expense.Float64()
	return SafeRatio(cur-prev, prev, 1) * 100
}
