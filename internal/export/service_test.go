package export

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/fintrack/internal/transaction"
)

type mockLister struct {
	listFunc func(ctx context.Context, userID int64, filter transaction.ListFilter) ([]*transaction.Transaction, error)
}

func (m *mockLister) List(ctx context.Context, userID int64, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	return m.listFunc(ctx, userID, filter)
}

func TestService_WriteCSV(t *testing.T) {
	food := int64(5)
	desc := "Lunch, with \"friends\""
	monthly := "monthly"

	lister := &mockLister{
		listFunc: func(_ context.Context, userID int64, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
			assert.Equal(t, int64(1), userID)
			assert.Equal(t, []int64{5}, filter.CategoryIDs)

			return []*transaction.Transaction{
				{
					ID:          2,
					CategoryID:  &food,
					Amount:      decimal.RequireFromString("12.5"),
					Description: &desc,
					Date:        time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
					Type:        transaction.TypeExpense,
				},
				{
					ID:                1,
					Amount:            decimal.NewFromInt(1000),
					Date:              time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC),
					Type:              transaction.TypeIncome,
					IsRecurring:       true,
					RecurrencePattern: &monthly,
				},
			}, nil
		},
	}

	var buf bytes.Buffer

	err := NewService(lister).WriteCSV(context.Background(), 1, transaction.ListFilter{CategoryIDs: []int64{5}}, &buf)
	require.NoError(t, err)

	want := "id,date,type,amount,category_id,description,is_recurring,recurrence_pattern\n" +
		"2,2025-01-05,expense,12.50,5,\"Lunch, with \"\"friends\"\"\",false,\n" +
		"1,2025-01-01T09:30:00Z,income,1000.00,,,true,monthly\n"
	assert.Equal(t, want, buf.String())
}

func TestService_WriteCSV_ListError(t *testing.T) {
	lister := &mockLister{
		listFunc: func(context.Context, int64, transaction.ListFilter) ([]*transaction.Transaction, error) {
			return nil, errors.New("db down")
		},
	}

	var buf bytes.Buffer

	err := NewService(lister).WriteCSV(context.Background(), 1, transaction.ListFilter{}, &buf)
	assert.Error(t, err)
	assert.Empty(t, buf.String())
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "transactions_20250105.csv", Filename(time.Date(2025, 1, 5, 13, 0, 0, 0, time.UTC)))
}
