package user

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/MrJamesThe3rd/fintrack/internal/errs"
)

// bcrypt ignores everything past 72 bytes, newer x/crypto versions reject it outright.
const maxPasswordBytes = 72

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=user
type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

type Service struct {
	repo Repository
	cost int
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, cost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost, tests use bcrypt.MinCost.
func (s *Service) WithHashCost(cost int) *Service {
	s.cost = cost
	return s
}

type RegisterParams struct {
	Username string
	Email    string
	Password string
}

func (p RegisterParams) validate() error {
	if strings.TrimSpace(p.Username) == "" {
		return errs.Invalid("username is required")
	}

	if _, err := mail.ParseAddress(p.Email); err != nil {
		return errs.Invalid("email %q is not a valid address", p.Email)
	}

	if p.Password == "" {
		return errs.Invalid("password is required")
	}

	if len(p.Password) > maxPasswordBytes {
		return errs.Invalid("password must be at most %d bytes", maxPasswordBytes)
	}

	return nil
}

func (s *Service) Register(ctx context.Context, params RegisterParams) (*User, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &User{
		Username:     strings.TrimSpace(params.Username),
		Email:        params.Email,
		PasswordHash: string(hash),
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.repo.GetUserByUsername(ctx, username)
}
