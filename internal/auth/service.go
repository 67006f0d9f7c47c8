package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrJamesThe3rd/fintrack/internal/errs"
	"github.com/MrJamesThe3rd/fintrack/internal/user"
)

//go:generate mockgen -source=service.go -destination=users_mock.go -package=auth
type Users interface {
	GetByUsername(ctx context.Context, username string) (*user.User, error)
}

type Service struct {
	users  Users
	tokens *Tokens
}

func NewService(users Users, tokens *Tokens) *Service {
	return &Service{users: users, tokens: tokens}
}

// TokenTTL is the lifetime of tokens returned by Login.
func (s *Service) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

// Authenticate checks the credentials. A missing user, a wrong password and a locked
// account all produce the same error.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*user.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.ErrInvalidCredentials
		}

		return nil, fmt.Errorf("loading user: %w", err)
	}

	if u.IsLocked || !u.PasswordMatches(password) {
		return nil, errs.ErrInvalidCredentials
	}

	return u, nil
}

// Login authenticates and issues a bearer token for the user.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}

	return s.tokens.Issue(u.Username)
}

// Resolve maps a bearer token to the user it was issued for.
func (s *Service) Resolve(ctx context.Context, token string) (*user.User, error) {
	subject, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown subject", errs.ErrUnauthenticated)
		}

		return nil, fmt.Errorf("loading user: %w", err)
	}

	if u.IsLocked {
		return nil, fmt.Errorf("%w: account locked", errs.ErrUnauthenticated)
	}

	return u, nil
}
