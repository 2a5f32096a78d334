package analytics

import (
	"time"

	"fintrack/internal/core"
)

const (
	recentCount = 5
	topCount    = 3
)

// Input is the snapshot a dashboard is computed from.
type Input struct {
	Transactions []core.Transaction
	Tasks        []core.Task
	Budgets      core.Budgets
	Period       core.Period
	Search       string
	Today        time.Time
}

// Dashboard holds every figure shown for a selected period. Month-scoped
// figures honour the search term; lifetime figures and the previous month
// do not.
type Dashboard struct {
	Period       core.Period        `json:"period"`
	Search       string             `json:"search,omitempty"`
	Transactions []core.Transaction `json:"transactions"`

	Income  core.Money `json:"currentMonthIncome"`
	Expense core.Money `json:"currentMonthTotal"`
	Balance core.Money `json:"balance"`

	LastMonthIncome  core.Money `json:"lastMonthIncome"`
	LastMonthExpense core.Money `json:"lastMonthTotal"`

	AvgMonthlyIncome  float64 `json:"avgMonthlyIncome"`
	AvgMonthlyExpense float64 `json:"avgMonthlyExpense"`

	TotalIncome  core.Money `json:"totalIncome"`
	TotalExpense core.Money `json:"totalExpenses"`
	NetBalance   core.Money `json:"netBalance"`

	ExpensesByCategory map[string]core.Money `json:"expensesByCategory"`
	TopCategories      []CategoryAmount      `json:"topCategories"`
	Budget             BudgetStatus          `json:"budgetStatus"`
	CategoryBudgets    []CategoryBudgetLine  `json:"categoryBudgets"`

	Weekly      [5]WeekBucket `json:"weeklyData"`
	WeeklyTrend float64       `json:"weeklyTrend"`

	Tasks        TaskStats   `json:"taskStats"`
	PendingTasks []core.Task `json:"pendingTasks"`
	DoneTasks    []core.Task `json:"completedTasks"`

	Recent []core.Transaction `json:"recentTransactions"`

	ExpenseChange float64 `json:"expenseChangePercent"`
	IncomeChange  float64 `json:"incomeChangePercent"`
	ExpenseTrend  Trend   `json:"expenseTrend"`
	IncomeTrend   Trend   `json:"incomeTrend"`
}

// Build recomputes the dashboard from scratch.
func Build(in Input) Dashboard {
	month := Search(FilterByMonth(in.Transactions, in.Period), in.Search)
	prev := FilterByMonth(in.Transactions, in.Period.Previous())

	d := Dashboard{
		Period:       in.Period,
		Search:       in.Search,
		Transactions: SortByDateDesc(month),

		Income:  SumByFlag(month, true),
		Expense: SumByFlag(month, false),
		Balance: Balance(month),

		LastMonthIncome:  SumByFlag(prev, true),
		LastMonthExpense: SumByFlag(prev, false),

		TotalIncome:  SumByFlag(in.Transactions, true),
		TotalExpense: SumByFlag(in.Transactions, false),
		NetBalance:   Balance(in.Transactions),

		ExpensesByCategory: GroupByCategory(month),
		Weekly:             WeeklyBuckets(month),
		Recent:             Recent(in.Transactions, recentCount),
	}
	d.AvgMonthlyIncome, d.AvgMonthlyExpense = MonthlyAverages(in.Transactions)
	d.TopCategories = TopCategories(d.ExpensesByCategory, topCount)
	d.Budget = BudgetOverview(d.Expense, in.Budgets)
	d.CategoryBudgets = CategoryBudgets(d.ExpensesByCategory, in.Budgets)
	d.WeeklyTrend = WeeklyTrend(d.Weekly)

	tasks := SearchTasks(in.Tasks, in.Search)
	d.Tasks = TaskSummary(in.Tasks, in.Today)
	d.PendingTasks = SortPendingTasks(tasks)
	d.DoneTasks = SortCompletedTasks(tasks)

	d.ExpenseChange = PercentageChange(d.LastMonthExpense.Float64(), d.Expense.Float64())
	d.IncomeChange = PercentageChange(d.LastMonthIncome.Float64(), d.Income.Float64())
	d.ExpenseTrend = ExpenseTrend(d.ExpenseChange)
	d.IncomeTrend = IncomeTrend(d.IncomeChange)
	return d
}
