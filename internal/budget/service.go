package budget

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fintrack/internal/errs"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=budget
type Repository interface {
	CreateBudget(ctx context.Context, b *Budget) error
	// ListBudgets returns every budget when activeOn is nil, otherwise only active budgets
	// whose start and end days include the UTC day of activeOn.
	ListBudgets(ctx context.Context, userID int64, activeOn *time.Time) ([]*Budget, error)
}

type Categories interface {
	Visible(ctx context.Context, userID, categoryID int64) (bool, error)
}

type Service struct {
	repo       Repository
	categories Categories
	now        func() time.Time
}

func NewService(repo Repository, categories Categories) *Service {
	return &Service{repo: repo, categories: categories, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type CreateParams struct {
	CategoryID   *int64
	TargetAmount decimal.Decimal
	StartDate    time.Time
	EndDate      time.Time
	Name         *string
}

func (p CreateParams) validate() error {
	if !p.TargetAmount.IsPositive() {
		return errs.Invalid("target_amount must be greater than zero")
	}

	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return errs.Invalid("start_date and end_date are required")
	}

	if !p.EndDate.After(p.StartDate) {
		return errs.Invalid("end_date must be after start_date")
	}

	return nil
}

// Create stores an active budget with nothing accumulated yet.
func (s *Service) Create(ctx context.Context, userID int64, params CreateParams) (*Budget, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	if params.CategoryID != nil {
		visible, err := s.categories.Visible(ctx, userID, *params.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("checking category: %w", err)
		}

		if !visible {
			return nil, fmt.Errorf("%w: category %d", errs.ErrInvalidReference, *params.CategoryID)
		}
	}

	b := &Budget{
		UserID:        userID,
		CategoryID:    params.CategoryID,
		TargetAmount:  params.TargetAmount,
		CurrentAmount: decimal.Zero,
		StartDate:     params.StartDate,
		EndDate:       params.EndDate,
		Name:          params.Name,
		IsActive:      true,
	}
	if err := s.repo.CreateBudget(ctx, b); err != nil {
		return nil, err
	}

	return b, nil
}

func (s *Service) List(ctx context.Context, userID int64, activeOnly bool) ([]*Budget, error) {
	var activeOn *time.Time

	if activeOnly {
		now := s.now().UTC()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		activeOn = &today
	}

	return s.repo.ListBudgets(ctx, userID, activeOn)
}
