package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

// UncategorizedName labels expenses whose category was deleted.
const UncategorizedName = "Uncategorized"

// Window selects the transactions an aggregate covers. Both bounds are inclusive.
type Window struct {
	Start       time.Time
	End         time.Time
	CategoryIDs []int64
}

type Totals struct {
	Income   decimal.Decimal
	Expenses decimal.Decimal
}

type CategoryTotal struct {
	Name  string
	Total decimal.Decimal
}

type Summary struct {
	Window             Window
	TotalIncome        decimal.Decimal
	TotalExpenses      decimal.Decimal
	NetBalance         decimal.Decimal
	ExpensesByCategory []CategoryTotal
}
