package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Login exchanges credentials for a token and keeps it for subsequent calls.
func (c *Client) Login(ctx context.Context, username, password string) (*Token, error) {
	form := url.Values{"username": {username}, "password": {password}}

	req, err := c.newRequest(ctx, http.MethodPost, "/token", nil, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tok Token
	if err := c.send(req, &tok); err != nil {
		return nil, err
	}

	c.token = tok.AccessToken

	return &tok, nil
}

func (c *Client) Register(ctx context.Context, username, email, password string) (*User, error) {
	in := map[string]string{"username": username, "email": email, "password": password}

	var u User
	if err := c.doJSON(ctx, http.MethodPost, "/register", nil, in, &u); err != nil {
		return nil, err
	}

	return &u, nil
}

// ListCategories returns the visible categories, optionally only those of typ.
func (c *Client) ListCategories(ctx context.Context, typ string) ([]Category, error) {
	q := url.Values{}
	if typ != "" {
		q.Set("type_", typ)
	}

	var out []Category
	if err := c.doJSON(ctx, http.MethodGet, "/categories/", q, nil, &out); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *Client) CreateCategory(ctx context.Context, in NewCategory) (*Category, error) {
	var out Category
	if err := c.doJSON(ctx, http.MethodPost, "/categories/", nil, in, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, "/categories/"+strconv.FormatInt(id, 10), nil, nil, nil)
}

func dateRange(q url.Values, start, end *time.Time) {
	if start != nil {
		q.Set("start_date", start.Format(time.RFC3339))
	}

	if end != nil {
		q.Set("end_date", end.Format(time.RFC3339))
	}
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}

	return strings.Join(parts, ",")
}

func (f TransactionFilter) query() url.Values {
	q := url.Values{}
	dateRange(q, f.StartDate, f.EndDate)

	if len(f.CategoryIDs) > 0 {
		q.Set("category_id", joinIDs(f.CategoryIDs))
	}

	if f.Type != "" {
		q.Set("type_", f.Type)
	}

	return q
}

func (c *Client) ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error) {
	var out []Transaction
	if err := c.doJSON(ctx, http.MethodGet, "/transactions/", filter.query(), nil, &out); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *Client) GetTransaction(ctx context.Context, id int64) (*Transaction, error) {
	var out Transaction
	if err := c.doJSON(ctx, http.MethodGet, "/transactions/"+strconv.FormatInt(id, 10), nil, nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) CreateTransaction(ctx context.Context, in NewTransaction) (*Transaction, error) {
	var out Transaction
	if err := c.doJSON(ctx, http.MethodPost, "/transactions/", nil, in, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) UpdateTransaction(ctx context.Context, id int64, patch TransactionPatch) (*Transaction, error) {
	var out Transaction
	if err := c.doJSON(ctx, http.MethodPatch, "/transactions/"+strconv.FormatInt(id, 10), nil, patch, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) DeleteTransaction(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, "/transactions/"+strconv.FormatInt(id, 10), nil, nil, nil)
}

// ExportTransactions downloads the filtered transactions as CSV and returns the file name
// the server suggested.
func (c *Client) ExportTransactions(ctx context.Context, filter TransactionFilter) ([]byte, string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/transactions/export", filter.query(), nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("export transactions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, "", decodeError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read export: %w", err)
	}

	name := "transactions.csv"
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}

	return data, name, nil
}

// ConflictError is returned by ImportTransactions when some rows duplicate existing
// transactions. Nothing was written; New and the confirmed conflicts can be sent to
// ConfirmImport.
type ConflictError struct {
	New       []NewTransaction `json:"new"`
	Conflicts []Conflict       `json:"conflicts"`
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%d of the imported rows duplicate existing transactions", len(e.Conflicts))
}

// ImportTransactions uploads a CSV file. defaultCategory is used for rows no rule matches;
// zero sends none.
func (c *Client) ImportTransactions(ctx context.Context, filename string, r io.Reader, format string, defaultCategory int64) (*ImportResult, error) {
	var body bytes.Buffer

	mw := multipart.NewWriter(&body)

	if format != "" {
		if err := mw.WriteField("format", format); err != nil {
			return nil, fmt.Errorf("write format: %w", err)
		}
	}

	if defaultCategory != 0 {
		if err := mw.WriteField("category_id", strconv.FormatInt(defaultCategory, 10)); err != nil {
			return nil, fmt.Errorf("write category: %w", err)
		}
	}

	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}

	if _, err := io.Copy(fw, r); err != nil {
		return nil, fmt.Errorf("copy file: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/transactions/import", nil, &body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("import transactions: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		var conflict ConflictError
		if err := json.NewDecoder(resp.Body).Decode(&conflict); err != nil {
			return nil, fmt.Errorf("decode conflicts: %w", err)
		}

		return nil, &conflict
	case resp.StatusCode >= 300:
		return nil, decodeError(resp)
	}

	var out ImportResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &out, nil
}

func (c *Client) ConfirmImport(ctx context.Context, txs []NewTransaction) (*ImportResult, error) {
	in := map[string][]NewTransaction{"transactions": txs}

	var out ImportResult
	if err := c.doJSON(ctx, http.MethodPost, "/transactions/import/confirm", nil, in, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) ListBudgets(ctx context.Context, activeOnly bool) ([]Budget, error) {
	q := url.Values{"active_only": {strconv.FormatBool(activeOnly)}}

	var out []Budget
	if err := c.doJSON(ctx, http.MethodGet, "/budgets/", q, nil, &out); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *Client) CreateBudget(ctx context.Context, in NewBudget) (*Budget, error) {
	var out Budget
	if err := c.doJSON(ctx, http.MethodPost, "/budgets/", nil, in, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) Summary(ctx context.Context, filter SummaryFilter) (*Summary, error) {
	q := url.Values{}
	dateRange(q, filter.StartDate, filter.EndDate)

	if len(filter.CategoryIDs) > 0 {
		q.Set("category_id", joinIDs(filter.CategoryIDs))
	}

	var out Summary
	if err := c.doJSON(ctx, http.MethodGet, "/analytics/summary", q, nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// SuggestCategory returns the category the caller's rules pick for description, or nil.
func (c *Client) SuggestCategory(ctx context.Context, description string) (*int64, error) {
	var out struct {
		CategoryID *int64 `json:"category_id"`
	}

	q := url.Values{"description": {description}}
	if err := c.doJSON(ctx, http.MethodGet, "/matching/suggest", q, nil, &out); err != nil {
		return nil, err
	}

	return out.CategoryID, nil
}

func (c *Client) LearnRule(ctx context.Context, pattern string, categoryID int64) (*Rule, error) {
	in := map[string]any{"pattern": pattern, "category_id": categoryID}

	var out Rule
	if err := c.doJSON(ctx, http.MethodPost, "/matching", nil, in, &out); err != nil {
		return nil, err
	}

	return &out, nil
}
