package transaction

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fintrack/internal/http/request"
	"github.com/MrJamesThe3rd/fintrack/internal/transaction"
)

type Response struct {
	ID                int64            `json:"id"`
	UserID            int64            `json:"user_id"`
	CategoryID        *int64           `json:"category_id"`
	Amount            decimal.Decimal  `json:"amount"`
	Description       *string          `json:"description"`
	Date              time.Time        `json:"date"`
	Type              transaction.Type `json:"type"`
	IsRecurring       bool             `json:"is_recurring"`
	RecurrencePattern *string          `json:"recurrence_pattern"`
	CreatedAt         time.Time        `json:"created_at"`
}

func ToResponse(tx *transaction.Transaction) Response {
	return Response{
		ID:                tx.ID,
		UserID:            tx.UserID,
		CategoryID:        tx.CategoryID,
		Amount:            tx.Amount,
		Description:       tx.Description,
		Date:              tx.Date,
		Type:              tx.Type,
		IsRecurring:       tx.IsRecurring,
		RecurrencePattern: tx.RecurrencePattern,
		CreatedAt:         tx.CreatedAt,
	}
}

func ToResponseList(txs []*transaction.Transaction) []Response {
	resp := make([]Response, len(txs))
	for i, tx := range txs {
		resp[i] = ToResponse(tx)
	}

	return resp
}

// CreateRequest is the body of a new transaction. Import conflicts echo it back so the
// client can confirm the same rows.
type CreateRequest struct {
	CategoryID        int64            `json:"category_id"`
	Amount            decimal.Decimal  `json:"amount"`
	Description       *string          `json:"description"`
	Date              request.Date     `json:"date"`
	Type              transaction.Type `json:"type"`
	IsRecurring       bool             `json:"is_recurring"`
	RecurrencePattern *string          `json:"recurrence_pattern"`
}

func (c CreateRequest) Params() transaction.CreateParams {
	return transaction.CreateParams{
		CategoryID:        c.CategoryID,
		Amount:            c.Amount,
		Description:       c.Description,
		Date:              c.Date.Time,
		Type:              c.Type,
		IsRecurring:       c.IsRecurring,
		RecurrencePattern: c.RecurrencePattern,
	}
}

func FromParams(p transaction.CreateParams) CreateRequest {
	return CreateRequest{
		CategoryID:        p.CategoryID,
		Amount:            p.Amount,
		Description:       p.Description,
		Date:              request.Date{Time: p.Date},
		Type:              p.Type,
		IsRecurring:       p.IsRecurring,
		RecurrencePattern: p.RecurrencePattern,
	}
}
