package analytics

import (
	"math"
	"sort"

	"fintrack/internal/core"
)

// BudgetStatus is spending measured against a limit. Percentage is capped
// at 100; IsOverBudget is decided before capping.
type BudgetStatus struct {
	Percentage   float64    `json:"percentage"`
	Remaining    core.Money `json:"remaining"`
	Total        core.Money `json:"total"`
	IsOverBudget bool       `json:"isOverBudget"`
}

// CategoryBudgetLine is the status of one budgeted category.
type CategoryBudgetLine struct {
	Category core.Category `json:"category"`
	Spent    core.Money    `json:"spent"`
	BudgetStatus
}

// BudgetOverview measures totalExpense against the sum of every budget. A
// zero total reads as 100 percent when anything was spent, else 0.
func BudgetOverview(totalExpense core.Money, budgets core.Budgets) BudgetStatus {
	total := budgets.Total()
	spent := totalExpense.Float64()
	onZero := 0.0
	if spent > 0 {
		onZero = 1
	}
	pct := SafeRatio(spent, total.Float64(), onZero) * 100
	return BudgetStatus{
		Percentage:   math.Min(pct, 100),
		Remaining:    total.Sub(totalExpense),
		Total:        total,
		IsOverBudget: totalExpense.Cmp(total) > 0,
	}
}

// CategoryBudget measures categoryTotal against the category's limit. A
// missing or zero limit yields a zero status without computing a ratio.
func CategoryBudget(categoryID string, categoryTotal core.Money, budgets core.Budgets) BudgetStatus {
	limit := budgets.Get(categoryID)
	if limit.IsZero() {
		return BudgetStatus{}
	}
	pct := categoryTotal.Float64() / limit.Float64() * 100
	return BudgetStatus{
		Percentage:   math.Min(pct, 100),
		Remaining:    limit.Sub(categoryTotal),
		Total:        limit,
		IsOverBudget: pct > 100,
	}
}

// CategoryBudgets returns the status of every non-income catalog category
// plus any extra budgeted category ids, in catalog order then by id.
func CategoryBudgets(byCategory map[string]core.Money, budgets core.Budgets) []CategoryBudgetLine {
	cats := core.BudgetCategories()
	known := make(map[string]bool, len(cats))
	for _, c := range cats {
		known[c.ID] = true
	}
	var extra []string
	for id := range budgets {
		if !known[id] && id != core.IncomeCategory {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		cats = append(cats, core.CategoryOrPlaceholder(id))
	}

	out := make([]CategoryBudgetLine, 0, len(cats))
	for _, c := range cats {
		spent := byCategory[c.ID]
		out = append(out, CategoryBudgetLine{
			Category:     c,
			Spent:        spent,
			BudgetStatus: CategoryBudget(c.ID, spent, budgets),
		})
	}
	return out
}
