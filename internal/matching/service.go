package matching

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/fintrack/internal/errs"
)

// Rule assigns CategoryID to transactions whose description contains Pattern,
// case-insensitively.
type Rule struct {
	ID         int64
	UserID     int64
	Pattern    string
	CategoryID int64
	CreatedAt  time.Time
}

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=matching
type Repository interface {
	// FindMatch returns the category of the longest of the user's patterns contained in
	// description, and false when none matches.
	FindMatch(ctx context.Context, userID int64, description string) (int64, bool, error)
	UpsertRule(ctx context.Context, r *Rule) error
}

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

// Suggest returns the category the user's rules pick for description.
func (s *Service) Suggest(ctx context.Context, userID int64, description string) (int64, bool, error) {
	if strings.TrimSpace(description) == "" {
		return 0, false, nil
	}

	return s.repo.FindMatch(ctx, userID, description)
}

// Learn remembers that descriptions containing pattern belong to categoryID. Learning the
// same pattern again replaces its category.
func (s *Service) Learn(ctx context.Context, userID int64, pattern string, categoryID int64) (*Rule, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, errs.Invalid("pattern is required")
	}

	visible, err := s.categories.Visible(ctx, userID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("checking category: %w", err)
	}

	if !visible {
		return nil, fmt.Errorf("%w: category %d", errs.ErrInvalidReference, categoryID)
	}

	r := &Rule{UserID: userID, Pattern: pattern, CategoryID: categoryID}
	if err := s.repo.UpsertRule(ctx, r); err != nil {
		return nil, err
	}

	return r, nil
}
