package client

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fintrack/internal/optional"
)

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsLocked  bool      `json:"is_locked"`
	CreatedAt time.Time `json:"created_at"`
}

type Category struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	IsPredefined bool   `json:"is_predefined"`
	UserID       *int64 `json:"user_id"`
}

type NewCategory struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	IsPredefined bool   `json:"is_predefined"`
}

type Transaction struct {
	ID                int64           `json:"id"`
	UserID            int64           `json:"user_id"`
	CategoryID        *int64          `json:"category_id"`
	Amount            decimal.Decimal `json:"amount"`
	Description       *string         `json:"description"`
	Date              time.Time       `json:"date"`
	Type              string          `json:"type"`
	IsRecurring       bool            `json:"is_recurring"`
	RecurrencePattern *string         `json:"recurrence_pattern"`
	CreatedAt         time.Time       `json:"created_at"`
}

type NewTransaction struct {
	CategoryID        int64           `json:"category_id"`
	Amount            decimal.Decimal `json:"amount"`
	Description       *string         `json:"description"`
	Date              time.Time       `json:"date"`
	Type              string          `json:"type"`
	IsRecurring       bool            `json:"is_recurring"`
	RecurrencePattern *string         `json:"recurrence_pattern"`
}

// TransactionPatch sends only the fields that are set. A null field clears the column.
type TransactionPatch struct {
	Amount            optional.Field[decimal.Decimal] `json:"amount,omitzero"`
	Description       optional.Field[string]          `json:"description,omitzero"`
	Date              optional.Field[time.Time]       `json:"date,omitzero"`
	CategoryID        optional.Field[int64]           `json:"category_id,omitzero"`
	Type              optional.Field[string]          `json:"type,omitzero"`
	IsRecurring       optional.Field[bool]            `json:"is_recurring,omitzero"`
	RecurrencePattern optional.Field[string]          `json:"recurrence_pattern,omitzero"`
}

type TransactionFilter struct {
	StartDate   *time.Time
	EndDate     *time.Time
	CategoryIDs []int64
	Type        string
}

type Budget struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	CategoryID    *int64          `json:"category_id"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	Name          *string         `json:"name"`
	IsActive      bool            `json:"is_active"`
}

type NewBudget struct {
	CategoryID   *int64          `json:"category_id"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	StartDate    time.Time       `json:"start_date"`
	EndDate      time.Time       `json:"end_date"`
	Name         *string         `json:"name"`
}

type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type CategoryTotal struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

type Summary struct {
	Period             Period          `json:"period"`
	TotalIncome        decimal.Decimal `json:"total_income"`
	TotalExpenses      decimal.Decimal `json:"total_expenses"`
	NetBalance         decimal.Decimal `json:"net_balance"`
	ExpensesByCategory []CategoryTotal `json:"expenses_by_category"`
}

type SummaryFilter struct {
	StartDate   *time.Time
	EndDate     *time.Time
	CategoryIDs []int64
}

type ImportResult struct {
	Imported     int           `json:"imported"`
	Format       string        `json:"format"`
	Charset      string        `json:"charset"`
	Transactions []Transaction `json:"transactions"`
}

type Conflict struct {
	Incoming NewTransaction `json:"incoming"`
	Existing Transaction    `json:"existing"`
}

type Rule struct {
	ID         int64     `json:"id"`
	Pattern    string    `json:"pattern"`
	CategoryID int64     `json:"category_id"`
	CreatedAt  time.Time `json:"created_at"`
}
