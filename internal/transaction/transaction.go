package transaction

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fintrack/internal/category"
)

// Type is the income/expense flag, shared with categories.
type Type = category.Type

const (
	TypeIncome  = category.TypeIncome
	TypeExpense = category.TypeExpense
)

type Transaction struct {
	ID     int64
	UserID int64
	// CategoryID is nil once the referenced category has been deleted.
	CategoryID        *int64
	Amount            decimal.Decimal
	Description       *string
	Date              time.Time
	Type              Type
	IsRecurring       bool
	RecurrencePattern *string
	CreatedAt         time.Time
}
