package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/fintrack/internal/database"
	"github.com/MrJamesThe3rd/fintrack/internal/errs"
	"github.com/MrJamesThe3rd/fintrack/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanTransaction reads a row in selectTransactionColumns order.
func scanTransaction(s scanner) (*transaction.Transaction, error) {
	var tx transaction.Transaction

	var typeStr string

	var categoryID sql.NullInt64

	var description, pattern sql.NullString

	if err := s.Scan(
		&tx.ID, &tx.UserID, &categoryID, &tx.Amount, &description, &tx.Date,
		&typeStr, &tx.IsRecurring, &pattern, &tx.CreatedAt,
	); err != nil {
		return nil, err
	}

	tx.Type = transaction.Type(typeStr)

	if categoryID.Valid {
		tx.CategoryID = &categoryID.Int64
	}

	if description.Valid {
		tx.Description = &description.String
	}

	if pattern.Valid {
		tx.RecurrencePattern = &pattern.String
	}

	return &tx, nil
}

const selectTransactionColumns = `
	id, user_id, category_id, amount, description, date,
	type, is_recurring, recurrence_pattern, created_at
`

const insertTransaction = `
	INSERT INTO transactions (user_id, category_id, amount, description, date, type, is_recurring, recurrence_pattern)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id
`

// classify translates constraint violations into domain errors.
func classify(err error, action string) error {
	switch {
	case database.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: category does not exist", errs.ErrInvalidReference)
	case database.IsCheckViolation(err):
		return errs.Invalid("constraint %s violated", database.ConstraintName(err))
	default:
		return fmt.Errorf("%s: %w", action, err)
	}
}

func insertAndReselect(ctx context.Context, q queryer, tx *transaction.Transaction) error {
	var id int64

	err := q.QueryRowContext(ctx, insertTransaction,
		tx.UserID,
		tx.CategoryID,
		tx.Amount,
		tx.Description,
		tx.Date,
		tx.Type,
		tx.IsRecurring,
		tx.RecurrencePattern,
	).Scan(&id)
	if err != nil {
		return classify(err, "creating transaction")
	}

	stored, err := scanTransaction(q.QueryRowContext(ctx,
		`SELECT `+selectTransactionColumns+` FROM transactions WHERE id = $1`, id))
	if err != nil {
		return fmt.Errorf("reselecting transaction: %w", err)
	}

	*tx = *stored

	return nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	if err := insertAndReselect(ctx, dbTx, tx); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func getScoped(ctx context.Context, q queryer, userID, id int64) (*transaction.Transaction, error) {
	tx, err := scanTransaction(q.QueryRowContext(ctx,
		`SELECT `+selectTransactionColumns+` FROM transactions WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return tx, nil
}

func (s *Store) GetTransaction(ctx context.Context, userID, id int64) (*transaction.Transaction, error) {
	return getScoped(ctx, s.db, userID, id)
}

// listQuery composes the caller-scoped SELECT for filter, numbering placeholders in the
// order the filters are applied.
func listQuery(userID int64, filter transaction.ListFilter) (string, []any) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions
		WHERE user_id = $1`

	args := []any{userID}

	argIdx := 2

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND date >= $%d", argIdx)

		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND date <= $%d", argIdx)

		args = append(args, *filter.EndDate)
		argIdx++
	}

	if len(filter.CategoryIDs) > 0 {
		placeholders := make([]string, len(filter.CategoryIDs))
		for i, id := range filter.CategoryIDs {
			placeholders[i] = "$" + strconv.Itoa(argIdx)

			args = append(args, id)
			argIdx++
		}

		query += " AND category_id IN (" + strings.Join(placeholders, ", ") + ")"
	}

	if filter.Type != nil {
		query += fmt.Sprintf(" AND type = $%d", argIdx)

		args = append(args, *filter.Type)
	}

	query += " ORDER BY date DESC, id DESC"

	return query, args
}

func (s *Store) ListTransactions(ctx context.Context, userID int64, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	query, args := listQuery(userID, filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transaction rows: %w", err)
	}

	return txs, nil
}

// buildUpdate returns the SET clause and its arguments for the fields present in params.
// Placeholders start at $1.
func buildUpdate(params transaction.UpdateParams) (string, []any) {
	var sets []string

	var args []any

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Amount.IsSet() {
		add("amount", params.Amount.Ptr())
	}

	if params.Description.IsSet() {
		add("description", params.Description.Ptr())
	}

	if params.Date.IsSet() {
		add("date", params.Date.Ptr())
	}

	if params.CategoryID.IsSet() {
		add("category_id", params.CategoryID.Ptr())
	}

	if params.Type.IsSet() {
		add("type", params.Type.Ptr())
	}

	if params.IsRecurring.IsSet() {
		add("is_recurring", params.IsRecurring.Ptr())
	}

	if params.RecurrencePattern.IsSet() {
		add("recurrence_pattern", params.RecurrencePattern.Ptr())
	}

	return strings.Join(sets, ", "), args
}

func (s *Store) UpdateTransaction(ctx context.Context, userID, id int64, params transaction.UpdateParams) (*transaction.Transaction, error) {
	set, args := buildUpdate(params)
	if set == "" {
		return nil, errs.ErrEmptyUpdate
	}

	query := fmt.Sprintf("UPDATE transactions SET %s WHERE id = $%d AND user_id = $%d",
		set, len(args)+1, len(args)+2)
	args = append(args, id, userID)

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	res, err := dbTx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "updating transaction")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking updated rows: %w", err)
	}

	if n == 0 {
		return nil, errs.ErrNotFound
	}

	tx, err := getScoped(ctx, dbTx, userID, id)
	if err != nil {
		return nil, err
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return tx, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
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

// importLockKey serializes imports of the same user over the same date range.
func importLockKey(userID int64, minDate, maxDate time.Time) int64 {
	h := fnv.New64a()
	h.Write([]byte(strconv.FormatInt(userID, 10)))
	h.Write([]byte{0})
	h.Write([]byte(minDate.UTC().Format(time.DateOnly)))
	h.Write([]byte{0})
	h.Write([]byte(maxDate.UTC().Format(time.DateOnly)))

	return int64(h.Sum64())
}

type importTx struct {
	tx     *sql.Tx
	userID int64
}

func (s *Store) BeginImport(ctx context.Context, userID int64, minDate, maxDate time.Time) (transaction.ImportTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning import tx: %w", err)
	}

	lockKey := importLockKey(userID, minDate, maxDate)
	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", lockKey); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring import lock: %w", err)
	}

	return &importTx{tx: dbTx, userID: userID}, nil
}

func (itx *importTx) Commit() error   { return itx.tx.Commit() }
func (itx *importTx) Rollback() error { return itx.tx.Rollback() }

// FindDuplicates returns the caller's stored transactions that share day, amount, type and
// description with one of params.
func (itx *importTx) FindDuplicates(ctx context.Context, params []transaction.CreateParams) ([]*transaction.Transaction, error) {
	if len(params) == 0 {
		return nil, nil
	}

	type lookupKey struct {
		Date        string
		Amount      string
		Type        transaction.Type
		Description string
	}

	keyOf := func(date time.Time, amount string, typ transaction.Type, description *string) lookupKey {
		k := lookupKey{Date: date.UTC().Format(time.DateOnly), Amount: amount, Type: typ}
		if description != nil {
			k.Description = *description
		}

		return k
	}

	minDate := params[0].Date
	maxDate := params[0].Date
	keySet := make(map[lookupKey]struct{}, len(params))

	for _, p := range params {
		if p.Date.Before(minDate) {
			minDate = p.Date
		}

		if p.Date.After(maxDate) {
			maxDate = p.Date
		}

		keySet[keyOf(p.Date, p.Amount.StringFixed(2), p.Type, p.Description)] = struct{}{}
	}

	// Whole days, since stored rows may carry a time of day.
	start := minDate.UTC().Truncate(24 * time.Hour)
	end := maxDate.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)

	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND date >= $2 AND date < $3
		ORDER BY date ASC, id ASC`

	rows, err := itx.tx.QueryContext(ctx, query, itx.userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("finding duplicates: %w", err)
	}
	defer rows.Close()

	var duplicates []*transaction.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		_, found := keySet[keyOf(tx.Date, tx.Amount.StringFixed(2), tx.Type, tx.Description)]
		if !found {
			continue
		}

		duplicates = append(duplicates, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating duplicate rows: %w", err)
	}

	return duplicates, nil
}

func (itx *importTx) CreateTransactions(ctx context.Context, txs []*transaction.Transaction) error {
	for _, tx := range txs {
		if err := insertAndReselect(ctx, itx.tx, tx); err != nil {
			return err
		}
	}

	return nil
}
