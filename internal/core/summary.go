package core

// CategoryAmount is an expense total aggregated per category.
type CategoryAmount struct {
	Category string
	Amount   Money
}

// Totals are the all-time aggregates shown on the dashboard.
type Totals struct {
	Income  Money
	Expense Money
	Balance Money
}

// MonthReport summarizes a single month against the user's budget.
type MonthReport struct {
	Month      string // canonical "YYYY-MM"
	Start      Date
	End        Date // inclusive
	Income     Money
	Expense    Money
	Budget     *Money // nil when no budget is set for the month
	Remaining  *Money // budget minus expenses, nil without a budget
	ByCategory []CategoryAmount
}
