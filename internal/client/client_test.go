package client_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/fintrack/internal/client"
	"github.com/MrJamesThe3rd/fintrack/internal/optional"
)

func newServer(t *testing.T, handler http.HandlerFunc) *client.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return client.New(srv.URL, client.WithHTTPClient(srv.Client()))
}

func TestLogin_StoresToken(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "alice", r.PostFormValue("username"))
			assert.Equal(t, "pw", r.PostFormValue("password"))

			_, _ = io.WriteString(w, `{"access_token":"abc","token_type":"bearer","expires_in":1800}`)
		case "/categories/":
			assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
			assert.Equal(t, "expense", r.URL.Query().Get("type_"))

			_, _ = io.WriteString(w, `[{"id":1,"name":"Food","type":"expense","is_predefined":true,"user_id":null}]`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	tok, err := c.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.AccessToken)
	assert.Equal(t, "abc", c.Token())

	cats, err := c.ListCategories(context.Background(), "expense")
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Nil(t, cats[0].UserID)
}

func TestAPIError(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("WWW-Authenticate", "Bearer")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"Could not validate credentials"}`)
	})

	_, err := c.ListTransactions(context.Background(), client.TransactionFilter{})
	require.Error(t, err)
	assert.True(t, client.IsUnauthorized(err))

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Could not validate credentials", apiErr.Message)
}

func TestListTransactions_Query(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2024-03-01T00:00:00Z", q.Get("start_date"))
		assert.Empty(t, q.Get("end_date"))
		assert.Equal(t, "5,6", q.Get("category_id"))
		assert.Equal(t, "income", q.Get("type_"))

		_, _ = io.WriteString(w, `[{"id":3,"amount":12.5,"type":"income","date":"2024-03-02T00:00:00Z"}]`)
	})

	txs, err := c.ListTransactions(context.Background(), client.TransactionFilter{
		StartDate:   &start,
		CategoryIDs: []int64{5, 6},
		Type:        "income",
	})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("12.5")))
}

func TestUpdateTransaction_SendsOnlySetFields(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/transactions/7", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body, 2)
		assert.Contains(t, body, "description")
		assert.Nil(t, body["description"])
		assert.Equal(t, "expense", body["type"])

		_, _ = io.WriteString(w, `{"id":7,"type":"expense"}`)
	})

	tx, err := c.UpdateTransaction(context.Background(), 7, client.TransactionPatch{
		Description: optional.Null[string](),
		Type:        optional.Of("expense"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), tx.ID)
}

func TestDeleteTransaction_NoContent(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, c.DeleteTransaction(context.Background(), 7))
}

func TestExportTransactions(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="transactions_20240315.csv"`)
		_, _ = io.WriteString(w, "id,date\n1,2024-03-01\n")
	})

	data, name, err := c.ExportTransactions(context.Background(), client.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, "transactions_20240315.csv", name)
	assert.Equal(t, "id,date\n1,2024-03-01\n", string(data))
}

func TestImportTransactions(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "3", r.FormValue("category_id"))

			f, _, err := r.FormFile("file")
			require.NoError(t, err)

			content, err := io.ReadAll(f)
			require.NoError(t, err)
			assert.Equal(t, "date,description,amount\n", string(content))

			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"imported":0,"format":"statement","transactions":[]}`)
		})

		res, err := c.ImportTransactions(context.Background(), "s.csv",
			strings.NewReader("date,description,amount\n"), "", 3)
		require.NoError(t, err)
		assert.Equal(t, "statement", res.Format)
	})

	t.Run("Conflict", func(t *testing.T) {
		c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = io.WriteString(w, `{"new":[{"category_id":1,"amount":5,"type":"income","date":"2024-03-02T00:00:00Z"}],
				"conflicts":[{"incoming":{"category_id":1,"amount":3,"type":"expense","date":"2024-03-01T00:00:00Z"},
				"existing":{"id":9,"amount":3,"type":"expense","date":"2024-03-01T00:00:00Z"}}]}`)
		})

		_, err := c.ImportTransactions(context.Background(), "s.csv", strings.NewReader(""), "", 0)

		var conflict *client.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Len(t, conflict.New, 1)
		require.Len(t, conflict.Conflicts, 1)
		assert.Equal(t, int64(9), conflict.Conflicts[0].Existing.ID)
	})
}

func TestSummary(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analytics/summary", r.URL.Path)
		assert.Equal(t, "4", r.URL.Query().Get("category_id"))

		_, _ = io.WriteString(w, `{"period":{"start":"2024-03-01T00:00:00Z","end":"2024-03-31T23:59:59.999999Z"},
			"total_income":100,"total_expenses":40.5,"net_balance":59.5,
			"expenses_by_category":[{"name":"Food","total":40.5}]}`)
	})

	s, err := c.Summary(context.Background(), client.SummaryFilter{CategoryIDs: []int64{4}})
	require.NoError(t, err)
	assert.True(t, s.NetBalance.Equal(decimal.RequireFromString("59.5")))
	require.Len(t, s.ExpensesByCategory, 1)
	assert.Equal(t, "Food", s.ExpensesByCategory[0].Name)
}
