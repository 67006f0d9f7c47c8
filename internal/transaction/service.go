package transaction

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fintrack/internal/category"
	"github.com/MrJamesThe3rd/fintrack/internal/errs"
	"github.com/MrJamesThe3rd/fintrack/internal/optional"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	CreateTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, userID, id int64) (*Transaction, error)
	ListTransactions(ctx context.Context, userID int64, filter ListFilter) ([]*Transaction, error)
	UpdateTransaction(ctx context.Context, userID, id int64, params UpdateParams) (*Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id int64) error

	BeginImport(ctx context.Context, userID int64, minDate, maxDate time.Time) (ImportTx, error)
}

type ImportTx interface {
	FindDuplicates(ctx context.Context, params []CreateParams) ([]*Transaction, error)
	CreateTransactions(ctx context.Context, txs []*Transaction) error
	Commit() error
	Rollback() error
}

// Categories answers whether a user may reference a category.
type Categories interface {
	Visible(ctx context.Context, userID, categoryID int64) (bool, error)
}

type Service struct {
	repo       Repository
	categories Categories
}

func NewService(repo Repository, categories Categories) *Service {
	return &Service{repo: repo, categories: categories}
}

type CreateParams struct {
	CategoryID        int64
	Amount            decimal.Decimal
	Description       *string
	Date              time.Time
	Type              Type
	IsRecurring       bool
	RecurrencePattern *string
}

// normalize validates p and returns a copy with the type lower-cased.
func (p CreateParams) normalize() (CreateParams, error) {
	if err := validateAmount(p.Amount); err != nil {
		return p, err
	}

	typ, err := category.ParseType(string(p.Type))
	if err != nil {
		return p, err
	}

	if p.Date.IsZero() {
		return p, errs.Invalid("date is required")
	}

	if p.CategoryID <= 0 {
		return p, errs.Invalid("category_id is required")
	}

	p.Type = typ

	return p, nil
}

// UpdateParams carries one field per column. Absent fields are left untouched and an
// explicit null clears the nullable ones.
type UpdateParams struct {
	Amount            optional.Field[decimal.Decimal]
	Description       optional.Field[string]
	Date              optional.Field[time.Time]
	CategoryID        optional.Field[int64]
	Type              optional.Field[Type]
	IsRecurring       optional.Field[bool]
	RecurrencePattern optional.Field[string]
}

func (p UpdateParams) IsEmpty() bool {
	return !p.Amount.IsSet() &&
		!p.Description.IsSet() &&
		!p.Date.IsSet() &&
		!p.CategoryID.IsSet() &&
		!p.Type.IsSet() &&
		!p.IsRecurring.IsSet() &&
		!p.RecurrencePattern.IsSet()
}

func (p UpdateParams) normalize() (UpdateParams, error) {
	if p.IsEmpty() {
		return p, errs.ErrEmptyUpdate
	}

	required := []struct {
		name string
		null bool
	}{
		{"amount", p.Amount.IsNull()},
		{"date", p.Date.IsNull()},
		{"category_id", p.CategoryID.IsNull()},
		{"type", p.Type.IsNull()},
		{"is_recurring", p.IsRecurring.IsNull()},
	}

	for _, f := range required {
		if f.null {
			return p, errs.Invalid("%s cannot be null", f.name)
		}
	}

	if amount, ok := p.Amount.Value(); ok {
		if err := validateAmount(amount); err != nil {
			return p, err
		}
	}

	if raw, ok := p.Type.Value(); ok {
		typ, err := category.ParseType(string(raw))
		if err != nil {
			return p, err
		}

		p.Type = optional.Of(typ)
	}

	if date, ok := p.Date.Value(); ok && date.IsZero() {
		return p, errs.Invalid("date is required")
	}

	return p, nil
}

type ListFilter struct {
	StartDate   *time.Time
	EndDate     *time.Time
	CategoryIDs []int64
	Type        *Type
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errs.Invalid("amount must be greater than zero")
	}

	if !amount.Equal(amount.Round(2)) {
		return errs.Invalid("amount must have at most two decimal places")
	}

	return nil
}

// ParseCategoryIDs parses the comma separated wire form of the category filter.
// An empty string means no filter.
func ParseCategoryIDs(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))

	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: category_id %q is not an integer", errs.ErrMalformedFilter, part)
		}

		ids = append(ids, id)
	}

	return ids, nil
}

func (s *Service) checkCategory(ctx context.Context, userID, categoryID int64) error {
	visible, err := s.categories.Visible(ctx, userID, categoryID)
	if err != nil {
		return fmt.Errorf("checking category: %w", err)
	}

	if !visible {
		return fmt.Errorf("%w: category %d", errs.ErrInvalidReference, categoryID)
	}

	return nil
}

func (s *Service) Create(ctx context.Context, userID int64, params CreateParams) (*Transaction, error) {
	params, err := params.normalize()
	if err != nil {
		return nil, err
	}

	if err := s.checkCategory(ctx, userID, params.CategoryID); err != nil {
		return nil, err
	}

	tx := newTransaction(userID, params)
	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

func (s *Service) Get(ctx context.Context, userID, id int64) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, userID, id)
}

func (s *Service) List(ctx context.Context, userID int64, filter ListFilter) ([]*Transaction, error) {
	if filter.Type != nil {
		typ, err := category.ParseType(string(*filter.Type))
		if err != nil {
			return nil, err
		}

		filter.Type = &typ
	}

	return s.repo.ListTransactions(ctx, userID, filter)
}

// Update applies the fields present in params to the caller's transaction and returns the
// stored result.
func (s *Service) Update(ctx context.Context, userID, id int64, params UpdateParams) (*Transaction, error) {
	params, err := params.normalize()
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.GetTransaction(ctx, userID, id); err != nil {
		return nil, err
	}

	if categoryID, ok := params.CategoryID.Value(); ok {
		if err := s.checkCategory(ctx, userID, categoryID); err != nil {
			return nil, err
		}
	}

	return s.repo.UpdateTransaction(ctx, userID, id, params)
}

func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	return s.repo.DeleteTransaction(ctx, userID, id)
}

type ImportResult struct {
	Imported  []*Transaction
	New       []CreateParams
	Conflicts []Conflict
}

type Conflict struct {
	Incoming CreateParams
	Existing *Transaction
}

type dupKey struct {
	Date        string
	Amount      string
	Type        Type
	Description string
}

func keyOf(date time.Time, amount decimal.Decimal, typ Type, description *string) dupKey {
	k := dupKey{
		Date:   date.UTC().Format(time.DateOnly),
		Amount: amount.StringFixed(2),
		Type:   typ,
	}

	if description != nil {
		k.Description = *description
	}

	return k
}

// prepareBatch normalizes every row and checks each distinct category once.
func (s *Service) prepareBatch(ctx context.Context, userID int64, params []CreateParams) ([]CreateParams, error) {
	normalized := make([]CreateParams, len(params))

	var categoryIDs []int64

	for i, p := range params {
		n, err := p.normalize()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		normalized[i] = n

		if !slices.Contains(categoryIDs, n.CategoryID) {
			categoryIDs = append(categoryIDs, n.CategoryID)
		}
	}

	for _, id := range categoryIDs {
		if err := s.checkCategory(ctx, userID, id); err != nil {
			return nil, err
		}
	}

	return normalized, nil
}

// ImportBatch writes params unless some of them match existing transactions on date,
// amount, type and description. With matches nothing is written and the result carries
// the conflicts alongside the rows that would have been new.
func (s *Service) ImportBatch(ctx context.Context, userID int64, params []CreateParams) (*ImportResult, error) {
	if len(params) == 0 {
		return &ImportResult{}, nil
	}

	params, err := s.prepareBatch(ctx, userID, params)
	if err != nil {
		return nil, err
	}

	minDate, maxDate := dateRange(params)

	itx, err := s.repo.BeginImport(ctx, userID, minDate, maxDate)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	duplicates, err := itx.FindDuplicates(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("find duplicates: %w", err)
	}

	lookup := make(map[dupKey]*Transaction, len(duplicates))
	for _, d := range duplicates {
		lookup[keyOf(d.Date, d.Amount, d.Type, d.Description)] = d
	}

	var newParams []CreateParams

	var conflicts []Conflict

	for _, p := range params {
		existing, found := lookup[keyOf(p.Date, p.Amount, p.Type, p.Description)]
		if found {
			conflicts = append(conflicts, Conflict{Incoming: p, Existing: existing})
			continue
		}

		newParams = append(newParams, p)
	}

	if len(conflicts) > 0 {
		return &ImportResult{New: newParams, Conflicts: conflicts}, nil
	}

	txs := paramsToTransactions(userID, newParams)
	if err := itx.CreateTransactions(ctx, txs); err != nil {
		return nil, fmt.Errorf("create transactions: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	return &ImportResult{Imported: txs}, nil
}

// CreateBatch writes params without duplicate detection, typically after the caller has
// reviewed the conflicts reported by ImportBatch.
func (s *Service) CreateBatch(ctx context.Context, userID int64, params []CreateParams) ([]*Transaction, error) {
	if len(params) == 0 {
		return nil, nil
	}

	params, err := s.prepareBatch(ctx, userID, params)
	if err != nil {
		return nil, err
	}

	minDate, maxDate := dateRange(params)

	itx, err := s.repo.BeginImport(ctx, userID, minDate, maxDate)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	txs := paramsToTransactions(userID, params)
	if err := itx.CreateTransactions(ctx, txs); err != nil {
		return nil, fmt.Errorf("create transactions: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	return txs, nil
}

func dateRange(params []CreateParams) (time.Time, time.Time) {
	minDate := params[0].Date
	maxDate := params[0].Date

	for _, p := range params[1:] {
		if p.Date.Before(minDate) {
			minDate = p.Date
		}

		if p.Date.After(maxDate) {
			maxDate = p.Date
		}
	}

	return minDate, maxDate
}

func newTransaction(userID int64, p CreateParams) *Transaction {
	return &Transaction{
		UserID:            userID,
		CategoryID:        &p.CategoryID,
		Amount:            p.Amount,
		Description:       p.Description,
		Date:              p.Date,
		Type:              p.Type,
		IsRecurring:       p.IsRecurring,
		RecurrencePattern: p.RecurrencePattern,
	}
}

func paramsToTransactions(userID int64, params []CreateParams) []*Transaction {
	txs := make([]*Transaction, len(params))
	for i, p := range params {
		txs[i] = newTransaction(userID, p)
	}

	return txs
}
