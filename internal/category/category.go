package category

import (
	"strings"

	"github.com/MrJamesThe3rd/fintrack/internal/errs"
)

// Type is shared by categories and transactions.
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

// ParseType lower-cases s and checks it names a known type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))

	switch t {
	case TypeIncome, TypeExpense:
		return t, nil
	default:
		return "", errs.Invalid("type must be income or expense, got %q", s)
	}
}

// Category is either predefined (no owner, visible to everyone) or owned by one user.
type Category struct {
	ID           int64
	Name         string
	Type         Type
	IsPredefined bool
	UserID       *int64
}
