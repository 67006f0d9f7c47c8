// Package errs holds the error taxonomy shared by every service.
//
// Services wrap these sentinels with context (fmt.Errorf("%w: ...", errs.ErrInvalidInput))
// and the HTTP layer maps them to status codes with errors.Is. Anything that does not
// wrap one of them is treated as a store failure.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidReference   = errors.New("invalid reference")
	ErrDuplicateIdentity  = errors.New("username or email already exists")
	ErrDuplicateCategory  = errors.New("category already exists")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrUnauthenticated    = errors.New("could not validate credentials")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")

	// ErrMalformedFilter and ErrEmptyUpdate are both reported as invalid input.
	ErrMalformedFilter = fmt.Errorf("%w: malformed filter", ErrInvalidInput)
	ErrEmptyUpdate     = fmt.Errorf("%w: no fields to update", ErrInvalidInput)
)

// Invalid wraps ErrInvalidInput with a formatted reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Kind returns the taxonomy sentinel err belongs to, or nil for store failures.
// The more specific sentinels are checked first.
func Kind(err error) error {
	for _, kind := range []error{
		ErrMalformedFilter,
		ErrEmptyUpdate,
		ErrInvalidInput,
		ErrInvalidReference,
		ErrDuplicateIdentity,
		ErrDuplicateCategory,
		ErrInvalidCredentials,
		ErrUnauthenticated,
		ErrNotFound,
		ErrConflict,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}

	return nil
}
