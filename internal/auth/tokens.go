package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fintrack/internal/errs"
)

const secretBytes = 32

// NumericDate claims default to whole seconds, which would end a token up to a second
// before its TTL.
func init() {
	jwt.TimePrecision = time.Millisecond
}

// NewSecret returns the configured signing secret, or a random one when none is configured.
// A random secret lives only as long as the process, so tokens stop validating on restart.
func NewSecret(configured string) ([]byte, error) {
	if configured != "" {
		return []byte(configured), nil
	}

	secret := make([]byte, secretBytes)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generating token secret: %w", err)
	}

	return secret, nil
}

// Tokens issues and verifies HS256 bearer tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret []byte, ttl time.Duration) *Tokens {
	return &Tokens{secret: secret, ttl: ttl, now: time.Now}
}

// WithClock replaces the time source used for issuing and validating.
func (t *Tokens) WithClock(now func() time.Time) *Tokens {
	t.now = now
	return t
}

func (t *Tokens) TTL() time.Duration {
	return t.ttl
}

func (t *Tokens) Issue(subject string) (string, error) {
	now := t.now()

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return signed, nil
}

// Parse verifies the token and returns its subject.
func (t *Tokens) Parse(token string) (string, error) {
	var claims jwt.RegisteredClaims

	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: token expired", errs.ErrUnauthenticated)
		}

		return "", fmt.Errorf("%w: %v", errs.ErrUnauthenticated, err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", errs.ErrUnauthenticated)
	}

	return claims.Subject, nil
}
