package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/MrJamesThe3rd/fintrack/internal/analytics"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// windowClause scopes t (the transactions alias) to the caller and window.
// Placeholders start at $1.
func windowClause(userID int64, w analytics.Window) (string, []any) {
	clause := "t.user_id = $1 AND t.date >= $2 AND t.date <= $3"
	args := []any{userID, w.Start, w.End}

	if len(w.CategoryIDs) > 0 {
		placeholders := make([]string, len(w.CategoryIDs))
		for i, id := range w.CategoryIDs {
			args = append(args, id)
			placeholders[i] = "$" + strconv.Itoa(len(args))
		}

		clause += " AND t.category_id IN (" + strings.Join(placeholders, ", ") + ")"
	}

	return clause, args
}

func (s *Store) Totals(ctx context.Context, userID int64, w analytics.Window) (analytics.Totals, error) {
	where, args := windowClause(userID, w)

	query := `
		SELECT
			COALESCE(SUM(t.amount) FILTER (WHERE t.type = 'income'), 0),
			COALESCE(SUM(t.amount) FILTER (WHERE t.type = 'expense'), 0)
		FROM transactions t
		WHERE ` + where

	var totals analytics.Totals
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&totals.Income, &totals.Expenses); err != nil {
		return analytics.Totals{}, fmt.Errorf("summing transactions: %w", err)
	}

	return totals, nil
}

// expensesQuery groups expenses by category name, labelling deleted categories with
// analytics.UncategorizedName.
func expensesQuery(userID int64, w analytics.Window) (string, []any) {
	where, args := windowClause(userID, w)
	args = append(args, analytics.UncategorizedName)

	query := fmt.Sprintf(`
		SELECT COALESCE(c.name, $%d) AS name, SUM(t.amount) AS total
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE %s AND t.type = 'expense'
		GROUP BY 1
		ORDER BY total DESC, name ASC`, len(args), where)

	return query, args
}

func (s *Store) ExpensesByCategory(ctx context.Context, userID int64, w analytics.Window) ([]analytics.CategoryTotal, error) {
	query, args := expensesQuery(userID, w)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("grouping expenses: %w", err)
	}
	defer rows.Close()

	var totals []analytics.CategoryTotal

	for rows.Next() {
		var ct analytics.CategoryTotal
		if err := rows.Scan(&ct.Name, &ct.Total); err != nil {
			return nil, fmt.Errorf("scanning category total: %w", err)
		}

		totals = append(totals, ct)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating category totals: %w", err)
	}

	return totals, nil
}
