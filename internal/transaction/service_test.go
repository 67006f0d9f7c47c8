package transaction_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/fintrack/internal/errs"
	"github.com/MrJamesThe3rd/fintrack/internal/optional"
	"github.com/MrJamesThe3rd/fintrack/internal/transaction"
)

const (
	alice  = int64(1)
	bob    = int64(2)
	foodID = int64(5)
)

type mocks struct {
	repo       *transaction.MockRepository
	categories *transaction.MockCategories
}

func newService(t *testing.T) (*transaction.Service, mocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	m := mocks{
		repo:       transaction.NewMockRepository(ctrl),
		categories: transaction.NewMockCategories(ctrl),
	}

	return transaction.NewService(m.repo, m.categories), m
}

func TestService_Create(t *testing.T) {
	date := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	desc := "groceries"

	type testCase struct {
		name      string
		params    transaction.CreateParams
		setupMock func(m mocks)
		wantErr   error
	}

	valid := transaction.CreateParams{
		CategoryID:  foodID,
		Amount:      decimal.NewFromInt(50),
		Description: &desc,
		Date:        date,
		Type:        "EXPENSE",
	}

	tests := []testCase{
		{
			name:   "Success",
			params: valid,
			setupMock: func(m mocks) {
				m.categories.EXPECT().Visible(gomock.Any(), alice, foodID).Return(true, nil)
				m.repo.EXPECT().
					CreateTransaction(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
						tx.ID = 100
						tx.CreatedAt = time.Now()
						return nil
					})
			},
		},
		{
			name: "ZeroAmount",
			params: func() transaction.CreateParams {
				p := valid
				p.Amount = decimal.Zero
				return p
			}(),
			wantErr: errs.ErrInvalidInput,
		},
		{
			name: "TooManyDecimals",
			params: func() transaction.CreateParams {
				p := valid
				p.Amount = decimal.RequireFromString("1.005")
				return p
			}(),
			wantErr: errs.ErrInvalidInput,
		},
		{
			name: "BadType",
			params: func() transaction.CreateParams {
				p := valid
				p.Type = "transfer"
				return p
			}(),
			wantErr: errs.ErrInvalidInput,
		},
		{
			name:   "CategoryNotVisible",
			params: valid,
			setupMock: func(m mocks) {
				m.categories.EXPECT().Visible(gomock.Any(), alice, foodID).Return(false, nil)
			},
			wantErr: errs.ErrInvalidReference,
		},
		{
			name:   "RepoError",
			params: valid,
			setupMock: func(m mocks) {
				m.categories.EXPECT().Visible(gomock.Any(), alice, foodID).Return(true, nil)
				m.repo.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(errors.New("db error"))
			},
			wantErr: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService(t)
			if tt.setupMock != nil {
				tt.setupMock(m)
			}

			got, err := svc.Create(context.Background(), alice, tt.params)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Nil(t, got)

				if kind := errs.Kind(tt.wantErr); kind != nil {
					assert.ErrorIs(t, err, kind)
				}

				return
			}

			require.NoError(t, err)
			assert.Equal(t, int64(100), got.ID)
			assert.Equal(t, alice, got.UserID)
			assert.Equal(t, transaction.TypeExpense, got.Type)
			assert.True(t, got.Amount.Equal(decimal.NewFromInt(50)))
			assert.Equal(t, foodID, *got.CategoryID)
			assert.Equal(t, date, got.Date)
			assert.Equal(t, "groceries", *got.Description)
		})
	}
}

func TestParseCategoryIDs(t *testing.T) {
	type testCase struct {
		name    string
		raw     string
		want    []int64
		wantErr bool
	}

	tests := []testCase{
		{name: "Empty", raw: "", want: nil},
		{name: "Single", raw: "3", want: []int64{3}},
		{name: "Spaces", raw: "1, 2 ,3", want: []int64{1, 2, 3}},
		{name: "NotInteger", raw: "1,food", wantErr: true},
		{name: "EmptyToken", raw: "1,,2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := transaction.ParseCategoryIDs(tt.raw)

			if tt.wantErr {
				assert.ErrorIs(t, err, errs.ErrMalformedFilter)
				assert.ErrorIs(t, err, errs.ErrInvalidInput)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_List(t *testing.T) {
	svc, m := newService(t)

	expense := transaction.TypeExpense
	upper := transaction.Type("Expense")

	m.repo.EXPECT().
		ListTransactions(gomock.Any(), bob, transaction.ListFilter{Type: &expense, CategoryIDs: []int64{foodID}}).
		Return(nil, nil)

	got, err := svc.List(context.Background(), bob, transaction.ListFilter{Type: &upper, CategoryIDs: []int64{foodID}})
	require.NoError(t, err)
	assert.Empty(t, got)

	bad := transaction.Type("savings")
	_, err = svc.List(context.Background(), bob, transaction.ListFilter{Type: &bad})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestService_Update(t *testing.T) {
	existing := &transaction.Transaction{ID: 10, UserID: alice, Amount: decimal.NewFromInt(50), Type: transaction.TypeExpense}

	type testCase struct {
		name      string
		userID    int64
		params    transaction.UpdateParams
		setupMock func(m mocks)
		wantErr   error
	}

	tests := []testCase{
		{
			name:   "DescriptionOnly",
			userID: alice,
			params: transaction.UpdateParams{Description: optional.Of("x")},
			setupMock: func(m mocks) {
				m.repo.EXPECT().GetTransaction(gomock.Any(), alice, int64(10)).Return(existing, nil)
				m.repo.EXPECT().
					UpdateTransaction(gomock.Any(), alice, int64(10), transaction.UpdateParams{Description: optional.Of("x")}).
					DoAndReturn(func(_ context.Context, _, _ int64, p transaction.UpdateParams) (*transaction.Transaction, error) {
						updated := *existing
						updated.Description = p.Description.Ptr()

						return &updated, nil
					})
			},
		},
		{
			name:   "TypeNormalized",
			userID: alice,
			params: transaction.UpdateParams{Type: optional.Of(transaction.Type("INCOME"))},
			setupMock: func(m mocks) {
				m.repo.EXPECT().GetTransaction(gomock.Any(), alice, int64(10)).Return(existing, nil)
				m.repo.EXPECT().
					UpdateTransaction(gomock.Any(), alice, int64(10), transaction.UpdateParams{Type: optional.Of(transaction.TypeIncome)}).
					Return(existing, nil)
			},
		},
		{
			name:   "ClearDescription",
			userID: alice,
			params: transaction.UpdateParams{Description: optional.Null[string]()},
			setupMock: func(m mocks) {
				m.repo.EXPECT().GetTransaction(gomock.Any(), alice, int64(10)).Return(existing, nil)
				m.repo.EXPECT().
					UpdateTransaction(gomock.Any(), alice, int64(10), transaction.UpdateParams{Description: optional.Null[string]()}).
					Return(existing, nil)
			},
		},
		{
			name:    "Empty",
			userID:  alice,
			params:  transaction.UpdateParams{},
			wantErr: errs.ErrEmptyUpdate,
		},
		{
			name:    "NullAmount",
			userID:  alice,
			params:  transaction.UpdateParams{Amount: optional.Null[decimal.Decimal]()},
			wantErr: errs.ErrInvalidInput,
		},
		{
			name:    "NegativeAmount",
			userID:  alice,
			params:  transaction.UpdateParams{Amount: optional.Of(decimal.NewFromInt(-1))},
			wantErr: errs.ErrInvalidInput,
		},
		{
			name:   "ForeignTransaction",
			userID: bob,
			params: transaction.UpdateParams{Description: optional.Of("x")},
			setupMock: func(m mocks) {
				m.repo.EXPECT().GetTransaction(gomock.Any(), bob, int64(10)).Return(nil, errs.ErrNotFound)
			},
			wantErr: errs.ErrNotFound,
		},
		{
			name:   "InvisibleCategory",
			userID: alice,
			params: transaction.UpdateParams{CategoryID: optional.Of(int64(99))},
			setupMock: func(m mocks) {
				m.repo.EXPECT().GetTransaction(gomock.Any(), alice, int64(10)).Return(existing, nil)
				m.categories.EXPECT().Visible(gomock.Any(), alice, int64(99)).Return(false, nil)
			},
			wantErr: errs.ErrInvalidReference,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService(t)
			if tt.setupMock != nil {
				tt.setupMock(m)
			}

			got, err := svc.Update(context.Background(), tt.userID, 10, tt.params)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.True(t, got.Amount.Equal(existing.Amount))
			assert.Equal(t, existing.Type, got.Type)
		})
	}
}

func TestService_Delete(t *testing.T) {
	svc, m := newService(t)

	m.repo.EXPECT().DeleteTransaction(gomock.Any(), alice, int64(10)).Return(nil)
	m.repo.EXPECT().DeleteTransaction(gomock.Any(), alice, int64(10)).Return(errs.ErrNotFound)
	m.repo.EXPECT().DeleteTransaction(gomock.Any(), bob, int64(11)).Return(errs.ErrNotFound)

	require.NoError(t, svc.Delete(context.Background(), alice, 10))
	assert.ErrorIs(t, svc.Delete(context.Background(), alice, 10), errs.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), bob, 11), errs.ErrNotFound)
}

func importParams(date time.Time) []transaction.CreateParams {
	desc := "COFFEE SHOP"

	return []transaction.CreateParams{
		{
			CategoryID:  foodID,
			Amount:      decimal.RequireFromString("3.50"),
			Description: &desc,
			Date:        date,
			Type:        transaction.TypeExpense,
		},
	}
}

func TestService_ImportBatch_NoConflicts(t *testing.T) {
	svc, m := newService(t)
	itx := transaction.NewMockImportTx(gomock.NewController(t))

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	params := importParams(date)

	m.categories.EXPECT().Visible(gomock.Any(), alice, foodID).Return(true, nil)
	m.repo.EXPECT().BeginImport(gomock.Any(), alice, date, date).Return(itx, nil)
	itx.EXPECT().FindDuplicates(gomock.Any(), params).Return(nil, nil)
	itx.EXPECT().CreateTransactions(gomock.Any(), gomock.Any()).Return(nil)
	itx.EXPECT().Commit().Return(nil)
	itx.EXPECT().Rollback().Return(nil)

	result, err := svc.ImportBatch(context.Background(), alice, params)
	require.NoError(t, err)
	require.Len(t, result.Imported, 1)
	assert.Equal(t, alice, result.Imported[0].UserID)
	assert.Empty(t, result.Conflicts)
	assert.Empty(t, result.New)
}

func TestService_ImportBatch_WithConflicts(t *testing.T) {
	svc, m := newService(t)
	itx := transaction.NewMockImportTx(gomock.NewController(t))

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	params := importParams(date)

	other := "BAKERY"
	params = append(params, transaction.CreateParams{
		CategoryID:  foodID,
		Amount:      decimal.NewFromInt(2),
		Description: &other,
		Date:        date.AddDate(0, 0, 1),
		Type:        transaction.TypeExpense,
	})

	existing := &transaction.Transaction{
		ID:          44,
		UserID:      alice,
		Amount:      decimal.RequireFromString("3.5"),
		Description: params[0].Description,
		Date:        date.Add(9 * time.Hour),
		Type:        transaction.TypeExpense,
	}

	m.categories.EXPECT().Visible(gomock.Any(), alice, foodID).Return(true, nil)
	m.repo.EXPECT().BeginImport(gomock.Any(), alice, date, date.AddDate(0, 0, 1)).Return(itx, nil)
	itx.EXPECT().FindDuplicates(gomock.Any(), params).Return([]*transaction.Transaction{existing}, nil)
	itx.EXPECT().Rollback().Return(nil)

	result, err := svc.ImportBatch(context.Background(), alice, params)
	require.NoError(t, err)
	assert.Empty(t, result.Imported)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, existing, result.Conflicts[0].Existing)
	require.Len(t, result.New, 1)
	assert.Equal(t, "BAKERY", *result.New[0].Description)
}

func TestService_ImportBatch_InvisibleCategory(t *testing.T) {
	svc, m := newService(t)

	params := importParams(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))

	m.categories.EXPECT().Visible(gomock.Any(), bob, foodID).Return(false, nil)

	_, err := svc.ImportBatch(context.Background(), bob, params)
	assert.ErrorIs(t, err, errs.ErrInvalidReference)
}

func TestService_CreateBatch(t *testing.T) {
	svc, m := newService(t)
	itx := transaction.NewMockImportTx(gomock.NewController(t))

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	params := importParams(date)

	m.categories.EXPECT().Visible(gomock.Any(), alice, foodID).Return(true, nil)
	m.repo.EXPECT().BeginImport(gomock.Any(), alice, date, date).Return(itx, nil)
	itx.EXPECT().CreateTransactions(gomock.Any(), gomock.Len(1)).Return(nil)
	itx.EXPECT().Commit().Return(nil)
	itx.EXPECT().Rollback().Return(nil)

	got, err := svc.CreateBatch(context.Background(), alice, params)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
