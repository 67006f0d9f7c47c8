package budget

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is a savings or spending goal over a date window.
type Budget struct {
	ID            int64
	UserID        int64
	CategoryID    *int64
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	StartDate     time.Time
	EndDate       time.Time
	Name          *string
	IsActive      bool
}
