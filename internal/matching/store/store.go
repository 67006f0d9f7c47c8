package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/fintrack/internal/database"
	"github.com/MrJamesThe3rd/fintrack/internal/errs"
	"github.com/MrJamesThe3rd/fintrack/internal/matching"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindMatch(ctx context.Context, userID int64, description string) (int64, bool, error) {
	query := `
		SELECT category_id
		FROM category_rules
		WHERE user_id = $1 AND position(lower(pattern) IN lower($2)) > 0
		ORDER BY LENGTH(pattern) DESC, created_at DESC
		LIMIT 1
	`

	var categoryID int64

	err := s.db.QueryRowContext(ctx, query, userID, description).Scan(&categoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}

		return 0, false, fmt.Errorf("finding match: %w", err)
	}

	return categoryID, true, nil
}

func (s *Store) UpsertRule(ctx context.Context, r *matching.Rule) error {
	query := `
		INSERT INTO category_rules (user_id, pattern, category_id, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, pattern) DO UPDATE SET category_id = EXCLUDED.category_id, created_at = NOW()
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query, r.UserID, r.Pattern, r.CategoryID).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: category does not exist", errs.ErrInvalidReference)
		}

		return fmt.Errorf("upserting rule: %w", err)
	}

	return nil
}
