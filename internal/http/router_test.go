package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrJamesThe3rd/fintrack/internal/analytics"
	"github.com/MrJamesThe3rd/fintrack/internal/auth"
	"github.com/MrJamesThe3rd/fintrack/internal/budget"
	"github.com/MrJamesThe3rd/fintrack/internal/category"
	"github.com/MrJamesThe3rd/fintrack/internal/errs"
	"github.com/MrJamesThe3rd/fintrack/internal/export"
	api "github.com/MrJamesThe3rd/fintrack/internal/http"
	analyticshttp "github.com/MrJamesThe3rd/fintrack/internal/http/analytics"
	authhttp "github.com/MrJamesThe3rd/fintrack/internal/http/auth"
	budgethttp "github.com/MrJamesThe3rd/fintrack/internal/http/budget"
	categoryhttp "github.com/MrJamesThe3rd/fintrack/internal/http/category"
	exporthttp "github.com/MrJamesThe3rd/fintrack/internal/http/export"
	"github.com/MrJamesThe3rd/fintrack/internal/http/importcsv"
	matchinghttp "github.com/MrJamesThe3rd/fintrack/internal/http/matching"
	txhttp "github.com/MrJamesThe3rd/fintrack/internal/http/transaction"
	"github.com/MrJamesThe3rd/fintrack/internal/importer"
	"github.com/MrJamesThe3rd/fintrack/internal/matching"
	"github.com/MrJamesThe3rd/fintrack/internal/transaction"
	"github.com/MrJamesThe3rd/fintrack/internal/user"
)

const (
	aliceID = int64(1)
	foodID  = int64(5)
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

type fakeHealth struct {
	err error
}

func (f fakeHealth) Check(context.Context) error {
	return f.err
}

type mocks struct {
	users        *user.MockRepository
	categories   *category.MockRepository
	transactions *transaction.MockRepository
	budgets      *budget.MockRepository
	analytics    *analytics.MockRepository
	rules        *matching.MockRepository
}

type fixture struct {
	mocks
	handler http.Handler
	tokens  *auth.Tokens
}

func newFixture(t *testing.T, health error) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	m := mocks{
		users:        user.NewMockRepository(ctrl),
		categories:   category.NewMockRepository(ctrl),
		transactions: transaction.NewMockRepository(ctrl),
		budgets:      budget.NewMockRepository(ctrl),
		analytics:    analytics.NewMockRepository(ctrl),
		rules:        matching.NewMockRepository(ctrl),
	}

	tokens := auth.NewTokens(bytes.Repeat([]byte("k"), 32), 30*time.Minute)

	userSvc := user.NewService(m.users).WithHashCost(bcrypt.MinCost)
	authSvc := auth.NewService(userSvc, tokens)
	categorySvc := category.NewService(m.categories)
	txSvc := transaction.NewService(m.transactions, categorySvc)
	budgetSvc := budget.NewService(m.budgets, categorySvc).WithClock(func() time.Time { return fixedNow })
	analyticsSvc := analytics.NewService(m.analytics).WithClock(func() time.Time { return fixedNow })
	matchSvc := matching.NewService(m.rules, categorySvc)

	handler := api.New(api.Handlers{
		Auth:         authhttp.NewHandler(authSvc, userSvc),
		Transactions: txhttp.NewHandler(txSvc),
		Import:       importcsv.NewHandler(importer.NewService(), txSvc, matchSvc),
		Export:       exporthttp.NewHandler(export.NewService(txSvc)),
		Categories:   categoryhttp.NewHandler(categorySvc),
		Budgets:      budgethttp.NewHandler(budgetSvc),
		Analytics:    analyticshttp.NewHandler(analyticsSvc),
		Matching:     matchinghttp.NewHandler(matchSvc),
	}, api.Options{
		AllowedOrigins: []string{"http://localhost:8501"},
		Resolver:       authSvc,
		Health:         fakeHealth{err: health},
	})

	return &fixture{mocks: m, handler: handler, tokens: tokens}
}

// signIn makes the fixture's bearer token resolve to alice.
func (f *fixture) signIn(t *testing.T) string {
	t.Helper()

	f.users.EXPECT().GetUserByUsername(gomock.Any(), "alice").
		Return(&user.User{ID: aliceID, Username: "alice"}, nil).AnyTimes()

	token, err := f.tokens.Issue("alice")
	require.NoError(t, err)

	return token
}

func (f *fixture) do(t *testing.T, req *http.Request, token string) *httptest.ResponseRecorder {
	t.Helper()

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())

	return v
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	return decode[map[string]string](t, rec)["detail"]
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	f = newFixture(t, errors.New("connection refused"))
	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil), "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthentication(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	stored := &user.User{ID: aliceID, Username: "alice", PasswordHash: string(hash)}

	t.Run("LoginIssuesBearerToken", func(t *testing.T) {
		f := newFixture(t, nil)
		f.users.EXPECT().GetUserByUsername(gomock.Any(), "alice").Return(stored, nil).Times(2)

		form := url.Values{"username": {"alice"}, "password": {"s3cret"}}
		req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		rec := f.do(t, req, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		resp := decode[map[string]any](t, rec)
		assert.Equal(t, "bearer", resp["token_type"])
		assert.Equal(t, float64(1800), resp["expires_in"])

		token, ok := resp["access_token"].(string)
		require.True(t, ok)

		f.categories.EXPECT().ListCategories(gomock.Any(), aliceID, gomock.Nil()).Return(nil, nil)

		rec = f.do(t, httptest.NewRequest(http.MethodGet, "/categories/", nil), token)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		f := newFixture(t, nil)
		f.users.EXPECT().GetUserByUsername(gomock.Any(), "alice").Return(stored, nil)

		form := url.Values{"username": {"alice"}, "password": {"nope"}}
		req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		rec := f.do(t, req, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
		assert.Equal(t, "Incorrect username or password", detail(t, rec))
	})

	t.Run("MissingToken", func(t *testing.T) {
		f := newFixture(t, nil)

		rec := f.do(t, httptest.NewRequest(http.MethodGet, "/transactions/", nil), "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
		assert.Equal(t, "Could not validate credentials", detail(t, rec))
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		f := newFixture(t, nil)

		old := auth.NewTokens(bytes.Repeat([]byte("k"), 32), time.Minute).
			WithClock(func() time.Time { return time.Now().Add(-time.Hour) })
		token, err := old.Issue("alice")
		require.NoError(t, err)

		rec := f.do(t, httptest.NewRequest(http.MethodGet, "/transactions/", nil), token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Register", func(t *testing.T) {
		f := newFixture(t, nil)
		f.users.EXPECT().CreateUser(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *user.User) error {
			u.ID = 9
			u.CreatedAt = fixedNow
			return nil
		})

		rec := f.do(t, jsonRequest(http.MethodPost, "/register",
			`{"username":"carol","email":"carol@example.com","password":"pw"}`), "")
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		resp := decode[map[string]any](t, rec)
		assert.Equal(t, float64(9), resp["id"])
		assert.Equal(t, "carol", resp["username"])
		assert.NotContains(t, resp, "password")
		assert.NotContains(t, resp, "password_hash")
	})
}

func TestTransactions(t *testing.T) {
	created := &transaction.Transaction{
		ID:          11,
		UserID:      aliceID,
		CategoryID:  new(foodID),
		Amount:      decimal.RequireFromString("12.50"),
		Description: new("lunch"),
		Date:        time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Type:        transaction.TypeExpense,
		CreatedAt:   fixedNow,
	}

	t.Run("Create", func(t *testing.T) {
		f := newFixture(t, nil)
		token := f.signIn(t)

		f.categories.EXPECT().CategoryVisible(gomock.Any(), aliceID, foodID).Return(true, nil)
		f.transactions.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
				assert.Equal(t, aliceID, tx.UserID)
				assert.True(t, tx.Amount.Equal(decimal.RequireFromString("12.5")))
				assert.Equal(t, transaction.TypeExpense, tx.Type)
				tx.ID = 11
				return nil
			})

		rec := f.do(t, jsonRequest(http.MethodPost, "/transactions/",
			`{"category_id":5,"amount":12.50,"description":"lunch","date":"2024-03-10","type":"Expense"}`), token)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		resp := decode[map[string]any](t, rec)
		assert.Equal(t, float64(11), resp["id"])
		assert.Equal(t, 12.5, resp["amount"])
		assert.Equal(t, "expense", resp["type"])
	})

	t.Run("CreateRejectsNonPositiveAmount", func(t *testing.T) {
		f := newFixture(t, nil)
		token := f.signIn(t)

		rec := f.do(t, jsonRequest(http.MethodPost, "/transactions/",
			`{"category_id":5,"amount":0,"date":"2024-03-10","type":"expense"}`), token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("CreateRejectsForeignCategory", func(t *testing.T) {
		f := newFixture(t, nil)
		token := f.signIn(t)

		f.categories.EXPECT().CategoryVisible(gomock.Any(), aliceID, int64(77)).Return(false, nil)

		rec := f.do(t, jsonRequest(http.MethodPost, "/transactions/",
			`{"category_id":77,"amount":3,"date":"2024-03-10","type":"expense"}`), token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("ListFilters", func(t *testing.T) {
		f := newFixture(t, nil)
		token := f.signIn(t)

		f.transactions.EXPECT().ListTransactions(gomock.Any(), aliceID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ int64, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
				require.NotNil(t, filter.StartDate)
				require.NotNil(t, filter.EndDate)
				assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *filter.StartDate)
				assert.Equal(t, time.Date(2024, 3, 31, 23, 59, 59, 999999000, time.UTC), *filter.EndDate)
				assert.Equal(t, []int64{5, 6}, filter.CategoryIDs)
				require.NotNil(t, filter.Type)
				assert.Equal(t, transaction.TypeExpense, *filter.Type)

				return []*transaction.Transaction{created}, nil
			})

		rec := f.do(t, httptest.NewRequest(http.MethodGet,
			"/transactions/?start_date=2024-03-01&end_date=2024-03-31&category_id=5,6&type_=expense", nil), token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Len(t, decode[[]map[string]any](t, rec), 1)
	})

	t.Run("ListMalformedFilter", func(t *testing.T) {
		f := newFixture(t, nil)
		token := f.signIn(t)

		rec := f.do(t, httptest.NewRequest(http.MethodGet, "/transactions/?category_id=5,x", nil), token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = f.do(t, httptest.NewRequest(http.MethodGet, "/transactions/?start_date=March", nil), token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("GetNotFound", func(t *testing.T) {
		f := newFixture(t, nil)
		token := f.signIn(t)

		f.transactions.EXPECT().GetTransaction(gomock.Any(), aliceID, int64(404)).
			Return(nil, errs.ErrNotFound)

		rec := f.do(t, httptest.NewRequest(http.MethodGet, "/transactions/404", nil), token)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("PatchEmptyBody", func(t *testing.T) {
		f := newFixture(t, nil)
		token := f.signIn(t)

		rec := f.do(t, jsonRequest(http.MethodPatch, "/transactions/11", `{}`), token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, detail(t, rec), "no fields to update")
	})

	t.Run("PatchPartial", func(t *testing.T) {
		f := newFixture(t, nil)
		token := f.signIn(t)

		updated := *created
		updated.Amount = decimal.RequireFromString("20")
		updated.Description = nil

		f.transactions.EXPECT().GetTransaction(gomock.Any(), aliceID, int64(11)).Return(created, nil)
		f.transactions.EXPECT().UpdateTransaction(gomock.Any(), aliceID, int64(11), gomock.Any()).
			DoAndReturn(func(_ context.Context, _, _ int64, p transaction.UpdateParams) (*transaction.Transaction, error) {
				amount, ok := p.Amount.Value()
				require.True(t, ok)
				assert.True(t, amount.Equal(decimal.NewFromInt(20)))
				assert.True(t, p.Description.IsNull())
				assert.False(t, p.Date.IsSet())
				assert.False(t, p.CategoryID.IsSet())

				return &updated, nil
			})

		rec := f.do(t, jsonRequest(http.MethodPatch, "/transactions/11", `{"amount":20,"description":null}`), token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		resp := decode[map[string]any](t, rec)
		assert.Equal(t, float64(20), resp["amount"])
		assert.Nil(t, resp["description"])
	})

	t.Run("Delete", func(t *testing.T) {
		f := newFixture(t, nil)
		token := f.signIn(t)

		f.transactions.EXPECT().DeleteTransaction(gomock.Any(), aliceID, int64(11)).Return(nil)

		rec := f.do(t, httptest.NewRequest(http.MethodDelete, "/transactions/11", nil), token)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("Export", func(t *testing.T) {
		f := newFixture(t, nil)
		token := f.signIn(t)

		f.transactions.EXPECT().ListTransactions(gomock.Any(), aliceID, gomock.Any()).
			Return([]*transaction.Transaction{created}, nil)

		rec := f.do(t, httptest.NewRequest(http.MethodGet, "/transactions/export", nil), token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="transactions_`)

		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, strings.Join(export.Header, ","), lines[0])
	})
}

func multipartUpload(t *testing.T, csv string, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)

	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}

	fw, err := mw.CreateFormFile("file", "statement.csv")
	require.NoError(t, err)

	_, err = io.WriteString(fw, csv)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/transactions/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return req
}

func TestImport(t *testing.T) {
	const statement = "date,description,amount\n2024-03-01,SUPERMARKET 42,-30.10\n2024-03-02,Salary,1500\n"

	t.Run("RowsWithoutCategoryAreRejected", func(t *testing.T) {
		f := newFixture(t, nil)
		token := f.signIn(t)

		f.rules.EXPECT().FindMatch(gomock.Any(), aliceID, "SUPERMARKET 42").Return(foodID, true, nil)
		f.rules.EXPECT().FindMatch(gomock.Any(), aliceID, "Salary").Return(int64(0), false, nil)

		rec := f.do(t, multipartUpload(t, statement, nil), token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, detail(t, rec), "row 2")
	})

	t.Run("ImportsWithSuggestionsAndDefault", func(t *testing.T) {
		f := newFixture(t, nil)
		token := f.signIn(t)
		ctrl := gomock.NewController(t)
		itx := transaction.NewMockImportTx(ctrl)

		f.rules.EXPECT().FindMatch(gomock.Any(), aliceID, "SUPERMARKET 42").Return(foodID, true, nil)
		f.rules.EXPECT().FindMatch(gomock.Any(), aliceID, "Salary").Return(int64(0), false, nil)
		f.categories.EXPECT().CategoryVisible(gomock.Any(), aliceID, foodID).Return(true, nil)
		f.categories.EXPECT().CategoryVisible(gomock.Any(), aliceID, int64(1)).Return(true, nil)
		f.transactions.EXPECT().BeginImport(gomock.Any(), aliceID, gomock.Any(), gomock.Any()).Return(itx, nil)
		itx.EXPECT().FindDuplicates(gomock.Any(), gomock.Len(2)).Return(nil, nil)
		itx.EXPECT().CreateTransactions(gomock.Any(), gomock.Len(2)).
			DoAndReturn(func(_ context.Context, txs []*transaction.Transaction) error {
				assert.Equal(t, foodID, *txs[0].CategoryID)
				assert.Equal(t, transaction.TypeExpense, txs[0].Type)
				assert.Equal(t, int64(1), *txs[1].CategoryID)
				assert.Equal(t, transaction.TypeIncome, txs[1].Type)

				for i, tx := range txs {
					tx.ID = int64(100 + i)
				}

				return nil
			})
		itx.EXPECT().Commit().Return(nil)
		itx.EXPECT().Rollback().Return(nil)

		rec := f.do(t, multipartUpload(t, statement, map[string]string{"category_id": "1"}), token)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		resp := decode[map[string]any](t, rec)
		assert.Equal(t, float64(2), resp["imported"])
		assert.Equal(t, "statement", resp["format"])
	})

	t.Run("DuplicatesConflict", func(t *testing.T) {
		f := newFixture(t, nil)
		token := f.signIn(t)
		ctrl := gomock.NewController(t)
		itx := transaction.NewMockImportTx(ctrl)

		existing := &transaction.Transaction{
			ID:          7,
			UserID:      aliceID,
			CategoryID:  new(foodID),
			Amount:      decimal.RequireFromString("30.10"),
			Description: new("SUPERMARKET 42"),
			Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Type:        transaction.TypeExpense,
		}

		f.rules.EXPECT().FindMatch(gomock.Any(), aliceID, gomock.Any()).Return(foodID, true, nil).Times(2)
		f.categories.EXPECT().CategoryVisible(gomock.Any(), aliceID, foodID).Return(true, nil)
		f.transactions.EXPECT().BeginImport(gomock.Any(), aliceID, gomock.Any(), gomock.Any()).Return(itx, nil)
		itx.EXPECT().FindDuplicates(gomock.Any(), gomock.Len(2)).Return([]*transaction.Transaction{existing}, nil)
		itx.EXPECT().Rollback().Return(nil)

		rec := f.do(t, multipartUpload(t, statement, nil), token)
		require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

		resp := decode[struct {
			New       []map[string]any `json:"new"`
			Conflicts []struct {
				Existing map[string]any `json:"existing"`
			} `json:"conflicts"`
		}](t, rec)
		assert.Len(t, resp.New, 1)
		require.Len(t, resp.Conflicts, 1)
		assert.Equal(t, float64(7), resp.Conflicts[0].Existing["id"])
	})
}

func TestCategoriesAndBudgets(t *testing.T) {
	t.Run("ListCategoriesByType", func(t *testing.T) {
		f := newFixture(t, nil)
		token := f.signIn(t)

		f.categories.EXPECT().ListCategories(gomock.Any(), aliceID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ int64, typ *category.Type) ([]*category.Category, error) {
				require.NotNil(t, typ)
				assert.Equal(t, category.TypeIncome, *typ)

				return []*category.Category{{ID: 1, Name: "Salary", Type: category.TypeIncome, IsPredefined: true}}, nil
			})

		rec := f.do(t, httptest.NewRequest(http.MethodGet, "/categories?type_=INCOME", nil), token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		resp := decode[[]map[string]any](t, rec)
		require.Len(t, resp, 1)
		assert.Nil(t, resp[0]["user_id"])
	})

	t.Run("CreateDuplicateCategory", func(t *testing.T) {
		f := newFixture(t, nil)
		token := f.signIn(t)

		f.categories.EXPECT().CreateCategory(gomock.Any(), gomock.Any()).Return(errs.ErrDuplicateCategory)

		rec := f.do(t, jsonRequest(http.MethodPost, "/categories/", `{"name":"Food","type":"expense"}`), token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("DeleteCategory", func(t *testing.T) {
		f := newFixture(t, nil)
		token := f.signIn(t)

		f.categories.EXPECT().DeleteCategory(gomock.Any(), aliceID, int64(3)).Return(nil)

		rec := f.do(t, httptest.NewRequest(http.MethodDelete, "/categories/3", nil), token)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("CreateBudget", func(t *testing.T) {
		f := newFixture(t, nil)
		token := f.signIn(t)

		f.budgets.EXPECT().CreateBudget(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, b *budget.Budget) error {
			b.ID = 4
			return nil
		})

		rec := f.do(t, jsonRequest(http.MethodPost, "/budgets/",
			`{"target_amount":500,"start_date":"2024-03-01","end_date":"2024-03-31","name":"March"}`), token)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		resp := decode[map[string]any](t, rec)
		assert.Equal(t, float64(0), resp["current_amount"])
		assert.Equal(t, true, resp["is_active"])
	})

	t.Run("ListBudgetsActiveOnlyDefault", func(t *testing.T) {
		f := newFixture(t, nil)
		token := f.signIn(t)

		f.budgets.EXPECT().ListBudgets(gomock.Any(), aliceID, gomock.Eq(&fixedNow)).Return(nil, nil)

		rec := f.do(t, httptest.NewRequest(http.MethodGet, "/budgets/", nil), token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("ListAllBudgets", func(t *testing.T) {
		f := newFixture(t, nil)
		token := f.signIn(t)

		f.budgets.EXPECT().ListBudgets(gomock.Any(), aliceID, gomock.Nil()).Return(nil, nil)

		rec := f.do(t, httptest.NewRequest(http.MethodGet, "/budgets/?active_only=false", nil), token)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestSummary(t *testing.T) {
	f := newFixture(t, nil)
	token := f.signIn(t)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 23, 59, 59, 999999000, time.UTC)
	window := analytics.Window{Start: start, End: end}

	f.analytics.EXPECT().Totals(gomock.Any(), aliceID, window).Return(analytics.Totals{
		Income:   decimal.NewFromInt(1000),
		Expenses: decimal.RequireFromString("250.50"),
	}, nil)
	f.analytics.EXPECT().ExpensesByCategory(gomock.Any(), aliceID, window).Return([]analytics.CategoryTotal{
		{Name: "Food", Total: decimal.RequireFromString("200.50")},
		{Name: analytics.UncategorizedName, Total: decimal.NewFromInt(50)},
	}, nil)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/analytics/summary", nil), token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.JSONEq(t, `{
		"period": {"start": "2024-03-01T00:00:00Z", "end": "2024-03-31T23:59:59.999999Z"},
		"total_income": 1000,
		"total_expenses": 250.5,
		"net_balance": 749.5,
		"expenses_by_category": [
			{"name": "Food", "total": 200.5},
			{"name": "Uncategorized", "total": 50}
		]
	}`, rec.Body.String())
}

func TestMatching(t *testing.T) {
	f := newFixture(t, nil)
	token := f.signIn(t)

	f.rules.EXPECT().FindMatch(gomock.Any(), aliceID, "Coffee shop").Return(foodID, true, nil)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/matching/suggest?description=Coffee+shop", nil), token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(foodID), decode[map[string]any](t, rec)["category_id"])

	f.categories.EXPECT().CategoryVisible(gomock.Any(), aliceID, foodID).Return(true, nil)
	f.rules.EXPECT().UpsertRule(gomock.Any(), gomock.Any()).Return(nil)

	rec = f.do(t, jsonRequest(http.MethodPost, "/matching", `{"pattern":"coffee","category_id":5}`), token)
	assert.Equal(t, http.StatusCreated, rec.Code)
}
