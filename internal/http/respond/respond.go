// Package respond writes JSON bodies and maps service errors to HTTP statuses.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fintrack/internal/errs"
)

func init() {
	// Amounts go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Detail writes an error body with an explicit status.
func Detail(w http.ResponseWriter, status int, detail string) {
	JSON(w, status, errorResponse{Detail: detail})
}

// Status returns the HTTP status for err.
func Status(err error) int {
	switch errs.Kind(err) {
	case errs.ErrMalformedFilter, errs.ErrEmptyUpdate, errs.ErrInvalidInput, errs.ErrInvalidReference,
		errs.ErrDuplicateIdentity, errs.ErrDuplicateCategory:
		return http.StatusBadRequest
	case errs.ErrInvalidCredentials, errs.ErrUnauthenticated:
		return http.StatusUnauthorized
	case errs.ErrNotFound:
		return http.StatusNotFound
	case errs.ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as a detail body. Store failures are logged and reported generically,
// and authentication failures never reveal why the token was rejected.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := Status(err)

	switch status {
	case http.StatusInternalServerError:
		slog.Error("failed to handle request",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
		)
		Detail(w, status, "internal server error")
	case http.StatusUnauthorized:
		w.Header().Set("WWW-Authenticate", "Bearer")

		kind := errs.Kind(err)
		if errors.Is(kind, errs.ErrUnauthenticated) {
			Detail(w, status, "Could not validate credentials")
		} else {
			Detail(w, status, "Incorrect username or password")
		}
	default:
		Detail(w, status, err.Error())
	}
}
