package store

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/fintrack/internal/optional"
	"github.com/MrJamesThe3rd/fintrack/internal/transaction"
)

func TestBuildUpdate(t *testing.T) {
	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	type testCase struct {
		name     string
		params   transaction.UpdateParams
		wantSet  string
		wantArgs int
		verify   func(t *testing.T, args []any)
	}

	tests := []testCase{
		{
			name:    "Empty",
			params:  transaction.UpdateParams{},
			wantSet: "",
		},
		{
			name:     "DescriptionOnly",
			params:   transaction.UpdateParams{Description: optional.Of("Rent")},
			wantSet:  "description = $1",
			wantArgs: 1,
			verify: func(t *testing.T, args []any) {
				desc, ok := args[0].(*string)
				require.True(t, ok)
				assert.Equal(t, "Rent", *desc)
			},
		},
		{
			name:     "NullClearsColumn",
			params:   transaction.UpdateParams{RecurrencePattern: optional.Null[string]()},
			wantSet:  "recurrence_pattern = $1",
			wantArgs: 1,
			verify: func(t *testing.T, args []any) {
				assert.Nil(t, args[0])
			},
		},
		{
			name: "NumbersInColumnOrder",
			params: transaction.UpdateParams{
				Type:        optional.Of(transaction.TypeIncome),
				Amount:      optional.Of(decimal.RequireFromString("9.99")),
				Date:        optional.Of(date),
				IsRecurring: optional.Of(true),
			},
			wantSet:  "amount = $1, date = $2, type = $3, is_recurring = $4",
			wantArgs: 4,
			verify: func(t *testing.T, args []any) {
				amount, ok := args[0].(*decimal.Decimal)
				require.True(t, ok)
				assert.True(t, amount.Equal(decimal.RequireFromString("9.99")))

				d, ok := args[1].(*time.Time)
				require.True(t, ok)
				assert.Equal(t, date, *d)

				typ, ok := args[2].(*transaction.Type)
				require.True(t, ok)
				assert.Equal(t, transaction.TypeIncome, *typ)
			},
		},
		{
			name: "EveryColumn",
			params: transaction.UpdateParams{
				Amount:            optional.Of(decimal.NewFromInt(1)),
				Description:       optional.Null[string](),
				Date:              optional.Of(date),
				CategoryID:        optional.Of(int64(4)),
				Type:              optional.Of(transaction.TypeExpense),
				IsRecurring:       optional.Of(false),
				RecurrencePattern: optional.Of("monthly"),
			},
			wantSet: "amount = $1, description = $2, date = $3, category_id = $4, " +
				"type = $5, is_recurring = $6, recurrence_pattern = $7",
			wantArgs: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, args := buildUpdate(tt.params)

			assert.Equal(t, tt.wantSet, set)
			assert.Len(t, args, tt.wantArgs)

			if tt.verify != nil {
				tt.verify(t, args)
			}
		})
	}
}

func TestListQuery(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 23, 59, 59, 999999000, time.UTC)
	expense := transaction.TypeExpense

	type testCase struct {
		name     string
		filter   transaction.ListFilter
		wantPart []string
		wantArgs []any
	}

	tests := []testCase{
		{
			name:     "NoFilters",
			filter:   transaction.ListFilter{},
			wantPart: []string{"WHERE user_id = $1 ORDER BY date DESC, id DESC"},
			wantArgs: []any{int64(3)},
		},
		{
			name:     "EndDateAlone",
			filter:   transaction.ListFilter{EndDate: &end},
			wantPart: []string{"AND date <= $2"},
			wantArgs: []any{int64(3), end},
		},
		{
			name:     "CategoriesAndType",
			filter:   transaction.ListFilter{CategoryIDs: []int64{5, 6}, Type: &expense},
			wantPart: []string{"AND category_id IN ($2, $3)", "AND type = $4"},
			wantArgs: []any{int64(3), int64(5), int64(6), expense},
		},
		{
			name: "Everything",
			filter: transaction.ListFilter{
				StartDate:   &start,
				EndDate:     &end,
				CategoryIDs: []int64{9},
				Type:        &expense,
			},
			wantPart: []string{
				"AND date >= $2 AND date <= $3 AND category_id IN ($4) AND type = $5 ORDER BY date DESC, id DESC",
			},
			wantArgs: []any{int64(3), start, end, int64(9), expense},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := listQuery(3, tt.filter)

			for _, part := range tt.wantPart {
				assert.Contains(t, query, part)
			}

			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestImportLockKey(t *testing.T) {
	jan := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, importLockKey(1, jan, feb), importLockKey(1, jan.Add(10*time.Hour), feb))
	assert.NotEqual(t, importLockKey(1, jan, feb), importLockKey(2, jan, feb))
	assert.NotEqual(t, importLockKey(1, jan, feb), importLockKey(1, jan, jan))
}
