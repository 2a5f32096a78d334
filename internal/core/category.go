package core

import "strings"

// IncomeCategory is reserved for income entries and has no budget.
const IncomeCategory = "income"

// Category is an entry of the fixed category catalog.
type Category struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Icon   string `json:"icon"`
	Color  string `json:"color"`
	Budget Money  `json:"budget"`
}

// PriorityInfo is the display metadata of a task priority.
type PriorityInfo struct {
	ID    Priority `json:"id"`
	Name  string   `json:"name"`
	Color string   `json:"color"`
}

// Budgets maps category ids to spending limits. Limits are global, not per month.
type Budgets map[string]Money

var catalog = []Category{
	{ID: "food", Name: "Food & Dining", Icon: "🍔", Color: "#e57373", Budget: MoneyFromInt(500)},
	{ID: "bills", Name: "Bills & Utilities", Icon: "💡", Color: "#64b5f6", Budget: MoneyFromInt(300)},
	{ID: "transport", Name: "Transportation", Icon: "🚗", Color: "#81c784", Budget: MoneyFromInt(200)},
	{ID: "shopping", Name: "Shopping", Icon: "🛍️", Color: "#ba68c8", Budget: MoneyFromInt(400)},
	{ID: "entertainment", Name: "Entertainment", Icon: "🎬", Color: "#ffb74d", Budget: MoneyFromInt(200)},
	{ID: "housing", Name: "Housing", Icon: "🏠", Color: "#4fc3f7", Budget: MoneyFromInt(1000)},
	{ID: "health", Name: "Health & Medical", Icon: "⚕️", Color: "#ff8a65", Budget: MoneyFromInt(150)},
	{ID: "personal", Name: "Personal", Icon: "👤", Color: "#a1887f", Budget: MoneyFromInt(200)},
	{ID: "travel", Name: "Travel", Icon: "✈️", Color: "#9575cd", Budget: MoneyFromInt(500)},
	{ID: "education", Name: "Education", Icon: "📚", Color: "#7986cb", Budget: MoneyFromInt(250)},
	{ID: IncomeCategory, Name: "Income", Icon: "💰", Color: "#66bb6a", Budget: MoneyFromInt(0)},
	{ID: "other", Name: "Other", Icon: "📌", Color: "#bdbdbd", Budget: MoneyFromInt(100)},
}

var priorities = []PriorityInfo{
	{ID: PriorityHigh, Name: "High", Color: "#f44336"},
	{ID: PriorityMedium, Name: "Medium", Color: "#ff9800"},
	{ID: PriorityLow, Name: "Low", Color: "#4caf50"},
}

// Categories returns the full catalog in display order.
func Categories() []Category {
	out := make([]Category, len(catalog))
	copy(out, catalog)
	return out
}

// BudgetCategories returns the catalog without the income category.
func BudgetCategories() []Category {
	out := make([]Category, 0, len(catalog)-1)
	for _, c := range catalog {
		if c.ID != IncomeCategory {
			out = append(out, c)
		}
	}
	return out
}

// LookupCategory finds a catalog entry by id.
func LookupCategory(id string) (Category, bool) {
	for _, c := range catalog {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// CategoryOrPlaceholder returns the catalog entry for id, or a placeholder
// named after the raw id so unknown categories still render.
func CategoryOrPlaceholder(id string) Category {
	if c, ok := LookupCategory(id); ok {
		return c
	}
	name := strings.TrimSpace(id)
	if name == "" {
		name = "Unknown"
	}
	return Category{ID: id, Name: name, Icon: "📌", Color: "#bdbdbd"}
}

// Priorities returns priority display metadata, high first.
func Priorities() []PriorityInfo {
	out := make([]PriorityInfo, len(priorities))
	copy(out, priorities)
	return out
}

// PriorityDetails returns display metadata for p, falling back to medium.
func PriorityDetails(p Priority) PriorityInfo {
	for _, info := range priorities {
		if info.ID == p {
			return info
		}
	}
	return priorities[1]
}

// DefaultBudgets returns the catalog defaults for every category.
func DefaultBudgets() Budgets {
	b := make(Budgets, len(catalog))
	for _, c := range catalog {
		b[c.ID] = c.Budget
	}
	return b
}

// Total sums every limit, including any negative ones.
func (b Budgets) Total() Money {
	var total Money
	for _, v := range b {
		total = total.Add(v)
	}
	return total
}

// Get returns the limit for a category, zero when unset.
func (b Budgets) Get(categoryID string) Money {
	return b[categoryID]
}

func (b Budgets) Clone() Budgets {
	if b == nil {
		return nil
	}
	out := make(Budgets, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}
