package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/MrJamesThe3rd/fintrack/internal/budget"
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

const selectBudgetColumns = `
	id, user_id, category_id, target_amount, current_amount,
	start_date, end_date, name, is_active
`

func scanBudget(s scanner) (*budget.Budget, error) {
	var b budget.Budget

	var categoryID sql.NullInt64

	var name sql.NullString

	if err := s.Scan(
		&b.ID, &b.UserID, &categoryID, &b.TargetAmount, &b.CurrentAmount,
		&b.StartDate, &b.EndDate, &name, &b.IsActive,
	); err != nil {
		return nil, err
	}

	if categoryID.Valid {
		b.CategoryID = &categoryID.Int64
	}

	if name.Valid {
		b.Name = &name.String
	}

	return &b, nil
}

func (s *Store) CreateBudget(ctx context.Context, b *budget.Budget) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	var id int64

	err = dbTx.QueryRowContext(ctx, `
		INSERT INTO budgets (user_id, category_id, target_amount, current_amount, start_date, end_date, name, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		b.UserID, b.CategoryID, b.TargetAmount, b.CurrentAmount, b.StartDate, b.EndDate, b.Name, b.IsActive,
	).Scan(&id)
	if err != nil {
		switch {
		case database.IsForeignKeyViolation(err):
			return fmt.Errorf("%w: category does not exist", errs.ErrInvalidReference)
		case database.IsCheckViolation(err):
			return errs.Invalid("constraint %s violated", database.ConstraintName(err))
		}

		return fmt.Errorf("inserting budget: %w", err)
	}

	stored, err := scanBudget(dbTx.QueryRowContext(ctx,
		`SELECT `+selectBudgetColumns+` FROM budgets WHERE id = $1`, id))
	if err != nil {
		return fmt.Errorf("reselecting budget: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	*b = *stored

	return nil
}

// listBudgetsQuery compares whole UTC days, so a budget stays active through its end day.
func listBudgetsQuery(userID int64, activeOn *time.Time) (string, []any) {
	query := `SELECT ` + selectBudgetColumns + `
		FROM budgets
		WHERE user_id = $1`

	args := []any{userID}

	if activeOn != nil {
		query += ` AND is_active
			AND $2::date BETWEEN (start_date AT TIME ZONE 'UTC')::date AND (end_date AT TIME ZONE 'UTC')::date`

		args = append(args, activeOn.UTC().Format(time.DateOnly))
	}

	query += " ORDER BY start_date DESC, id DESC"

	return query, args
}

func (s *Store) ListBudgets(ctx context.Context, userID int64, activeOn *time.Time) ([]*budget.Budget, error) {
	query, args := listBudgetsQuery(userID, activeOn)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing budgets: %w", err)
	}
	defer rows.Close()

	var budgets []*budget.Budget

	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning budget: %w", err)
		}

		budgets = append(budgets, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating budget rows: %w", err)
	}

	return budgets, nil
}
