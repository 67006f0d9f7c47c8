// Package request decodes path, query and body values shared by the handlers.
package request

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/fintrack/internal/errs"
)

const maxBodyBytes = 1 << 20

var layouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateOnly,
}

// ParseTime accepts RFC 3339, a timestamp without zone (read as UTC) or a bare date.
// dateOnly reports the last form.
func ParseTime(s string) (t time.Time, dateOnly bool, err error) {
	s = strings.TrimSpace(s)

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, layout == time.DateOnly, nil
		}
	}

	return time.Time{}, false, errs.Invalid("%q is not a date, expected YYYY-MM-DD or an ISO 8601 timestamp", s)
}

// EndOfDay returns the last microsecond of t's day, the resolution Postgres stores.
func EndOfDay(t time.Time) time.Time {
	return t.AddDate(0, 0, 1).Add(-time.Microsecond)
}

// Date is a JSON date in any of the forms ParseTime accepts.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errs.Invalid("date must be a string")
	}

	t, _, err := ParseTime(s)
	if err != nil {
		return err
	}

	d.Time = t

	return nil
}

// QueryTime reads an optional date query parameter. A bare date used as an upper bound
// covers the whole day.
func QueryTime(r *http.Request, key string, upperBound bool) (*time.Time, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return nil, nil
	}

	t, dateOnly, err := ParseTime(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q is not a date", errs.ErrMalformedFilter, key, r.URL.Query().Get(key))
	}

	if dateOnly && upperBound {
		t = EndOfDay(t)
	}

	return &t, nil
}

// FirstQuery returns the first non-empty value among keys.
func FirstQuery(r *http.Request, keys ...string) string {
	q := r.URL.Query()

	for _, k := range keys {
		if v := q.Get(k); v != "" {
			return v
		}
	}

	return ""
}

func IDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.Invalid("%s %q is not a valid id", name, raw)
	}

	return id, nil
}

// DecodeJSON reads a size-limited JSON body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errs.Kind(err) != nil {
			return err
		}

		return errs.Invalid("invalid request body: %v", err)
	}

	return nil
}
