package category

import (
	"context"
	"strings"

	"github.com/MrJamesThe3rd/fintrack/internal/errs"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=category
type Repository interface {
	CreateCategory(ctx context.Context, c *Category) error
	ListCategories(ctx context.Context, userID int64, typ *Type) ([]*Category, error)
	DeleteCategory(ctx context.Context, userID, id int64) error
	CategoryVisible(ctx context.Context, userID, id int64) (bool, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	Name         string
	Type         Type
	IsPredefined bool
}

// Create stores a category owned by userID. The is_predefined flag is stored as given;
// ownership still makes the category private to its creator.
func (s *Service) Create(ctx context.Context, userID int64, params CreateParams) (*Category, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, errs.Invalid("name is required")
	}

	typ, err := ParseType(string(params.Type))
	if err != nil {
		return nil, err
	}

	c := &Category{
		Name:         name,
		Type:         typ,
		IsPredefined: params.IsPredefined,
		UserID:       &userID,
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// List returns the predefined categories plus the ones userID owns.
func (s *Service) List(ctx context.Context, userID int64, typ *Type) ([]*Category, error) {
	if typ != nil {
		parsed, err := ParseType(string(*typ))
		if err != nil {
			return nil, err
		}

		typ = &parsed
	}

	return s.repo.ListCategories(ctx, userID, typ)
}

// Delete removes a category owned by userID. Predefined and foreign categories are reported
// as not found. Transactions and budgets that referenced it become uncategorized.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	return s.repo.DeleteCategory(ctx, userID, id)
}

// Visible reports whether userID may reference the category.
func (s *Service) Visible(ctx context.Context, userID, id int64) (bool, error) {
	return s.repo.CategoryVisible(ctx, userID, id)
}
