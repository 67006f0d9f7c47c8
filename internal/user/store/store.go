package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/fintrack/internal/database"
	"github.com/MrJamesThe3rd/fintrack/internal/errs"
	"github.com/MrJamesThe3rd/fintrack/internal/user"
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

const selectUserColumns = `id, username, email, password, is_locked, created_at`

func scanUser(s scanner) (*user.User, error) {
	var u user.User
	if err := s.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsLocked, &u.CreatedAt); err != nil {
		return nil, err
	}

	return &u, nil
}

// CreateUser inserts u and refreshes it with the stored row.
func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	var id int64

	err = dbTx.QueryRowContext(ctx,
		`INSERT INTO users (username, email, password) VALUES ($1, $2, $3) RETURNING id`,
		u.Username, u.Email, u.PasswordHash,
	).Scan(&id)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return errs.ErrDuplicateIdentity
		}

		return fmt.Errorf("inserting user: %w", err)
	}

	stored, err := scanUser(dbTx.QueryRowContext(ctx, `SELECT `+selectUserColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return fmt.Errorf("reselecting user: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	*u = *stored

	return nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+selectUserColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}

		return nil, fmt.Errorf("getting user: %w", err)
	}

	return u, nil
}
