package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/MrJamesThe3rd/fintrack/internal/transaction"
)

// Header is the column layout of exported files. The importer recognises it.
var Header = []string{
	"id", "date", "type", "amount", "category_id", "description", "is_recurring", "recurrence_pattern",
}

type Lister interface {
	List(ctx context.Context, userID int64, filter transaction.ListFilter) ([]*transaction.Transaction, error)
}

// Service writes a user's transactions as CSV.
type Service struct {
	transactions Lister
}

func NewService(transactions Lister) *Service {
	return &Service{transactions: transactions}
}

// Filename is the suggested download name for an export taken at now.
func Filename(now time.Time) string {
	return fmt.Sprintf("transactions_%s.csv", now.Format("20060102"))
}

// WriteCSV writes the header followed by one row per transaction, newest first.
func (s *Service) WriteCSV(ctx context.Context, userID int64, filter transaction.ListFilter, w io.Writer) error {
	transactions, err := s.transactions.List(ctx, userID, filter)
	if err != nil {
		return fmt.Errorf("listing transactions: %w", err)
	}

	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, t := range transactions {
		if err := cw.Write(record(t)); err != nil {
			return fmt.Errorf("writing transaction %d: %w", t.ID, err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	return nil
}

func record(t *transaction.Transaction) []string {
	var categoryID, description, pattern string

	if t.CategoryID != nil {
		categoryID = strconv.FormatInt(*t.CategoryID, 10)
	}

	if t.Description != nil {
		description = *t.Description
	}

	if t.RecurrencePattern != nil {
		pattern = *t.RecurrencePattern
	}

	return []string{
		strconv.FormatInt(t.ID, 10),
		formatDate(t.Date),
		string(t.Type),
		t.Amount.StringFixed(2),
		categoryID,
		description,
		strconv.FormatBool(t.IsRecurring),
		pattern,
	}
}

// formatDate drops the time of day when it is UTC midnight.
func formatDate(d time.Time) string {
	d = d.UTC()
	if d.Equal(d.Truncate(24 * time.Hour)) {
		return d.Format(time.DateOnly)
	}

	return d.Format(time.RFC3339)
}
