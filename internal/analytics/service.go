package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/MrJamesThe3rd/fintrack/internal/errs"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=analytics
type Repository interface {
	Totals(ctx context.Context, userID int64, w Window) (Totals, error)
	ExpensesByCategory(ctx context.Context, userID int64, w Window) ([]CategoryTotal, error)
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type SummaryParams struct {
	Start       *time.Time
	End         *time.Time
	CategoryIDs []int64
}

// CurrentMonth returns the window from the first instant of the month containing now to
// the last microsecond of its final day.
func CurrentMonth(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Microsecond)

	return start, end
}

// Summarize aggregates the caller's transactions. When either bound is missing the
// window is the current calendar month.
func (s *Service) Summarize(ctx context.Context, userID int64, params SummaryParams) (*Summary, error) {
	w := Window{CategoryIDs: params.CategoryIDs}

	if params.Start == nil || params.End == nil {
		w.Start, w.End = CurrentMonth(s.now())
	} else {
		w.Start, w.End = *params.Start, *params.End
	}

	if w.End.Before(w.Start) {
		return nil, errs.Invalid("end_date must not be before start_date")
	}

	totals, err := s.repo.Totals(ctx, userID, w)
	if err != nil {
		return nil, fmt.Errorf("computing totals: %w", err)
	}

	byCategory, err := s.repo.ExpensesByCategory(ctx, userID, w)
	if err != nil {
		return nil, fmt.Errorf("computing category totals: %w", err)
	}

	if byCategory == nil {
		byCategory = []CategoryTotal{}
	}

	return &Summary{
		Window:             w,
		TotalIncome:        totals.Income,
		TotalExpenses:      totals.Expenses,
		NetBalance:         totals.Income.Sub(totals.Expenses),
		ExpensesByCategory: byCategory,
	}, nil
}
