package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MrJamesThe3rd/fintrack/internal/category"
	"github.com/MrJamesThe3rd/fintrack/internal/database"
	"github.com/MrJamesThe3rd/fintrack/internal/errs"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const selectCategoryColumns = `id, name, type, is_predefined, user_id`

func scanCategory(s scanner) (*category.Category, error) {
	var c category.Category

	var typeStr string

	var userID sql.NullInt64

	if err := s.Scan(&c.ID, &c.Name, &typeStr, &c.IsPredefined, &userID); err != nil {
		return nil, err
	}

	c.Type = category.Type(typeStr)

	if userID.Valid {
		c.UserID = &userID.Int64
	}

	return &c, nil
}

func (s *Store) CreateCategory(ctx context.Context, c *category.Category) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	var id int64

	err = dbTx.QueryRowContext(ctx,
		`INSERT INTO categories (name, type, is_predefined, user_id) VALUES ($1, $2, $3, $4) RETURNING id`,
		c.Name, c.Type, c.IsPredefined, c.UserID,
	).Scan(&id)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return errs.ErrDuplicateCategory
		}

		return fmt.Errorf("inserting category: %w", err)
	}

	stored, err := scanCategory(dbTx.QueryRowContext(ctx,
		`SELECT `+selectCategoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		return fmt.Errorf("reselecting category: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	*c = *stored

	return nil
}

func (s *Store) ListCategories(ctx context.Context, userID int64, typ *category.Type) ([]*category.Category, error) {
	query := `SELECT ` + selectCategoryColumns + `
		FROM categories
		WHERE (user_id = $1 OR user_id IS NULL)`

	args := []any{userID}

	if typ != nil {
		query += " AND type = $2"

		args = append(args, *typ)
	}

	query += " ORDER BY user_id IS NULL DESC, name ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []*category.Category

	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}

		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating category rows: %w", err)
	}

	return categories, nil
}

func (s *Store) DeleteCategory(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deleted rows: %w", err)
	}

	if n == 0 {
		return errs.ErrNotFound
	}

	return nil
}

func (s *Store) CategoryVisible(ctx context.Context, userID, id int64) (bool, error) {
	var visible bool

	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1 AND (user_id = $2 OR user_id IS NULL))`,
		id, userID,
	).Scan(&visible)
	if err != nil {
		return false, fmt.Errorf("checking category visibility: %w", err)
	}

	return visible, nil
}
