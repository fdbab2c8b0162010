package gateway

import (
	"strings"
	"time"

	"github.com/reyhansunduk/efatura-mcp-server/internal/model"
)

const (
	// DefaultLimit applies when a list query leaves Limit at zero
	DefaultLimit = 10
	// MaxLimit caps every list query
	MaxLimit = 1000
)

// Window is a validated ListQuery. Nil bounds are open.
type Window struct {
	Start *time.Time
	End   *time.Time
	Limit int
}

// Normalize validates the query and applies the limit defaults.
func (q ListQuery) Normalize() (Window, error) {
	w := Window{Limit: q.Limit}

	switch {
	case q.Limit < 0:
		return Window{}, model.NewValidationError("limit", q.Limit, "min", "must not be negative")
	case q.Limit == 0:
		w.Limit = DefaultLimit
	case q.Limit > MaxLimit:
		w.Limit = MaxLimit
	}

	var err error
	if w.Start, err = parseDate("start_date", q.StartDate); err != nil {
		return Window{}, err
	}
	if w.End, err = parseDate("end_date", q.EndDate); err != nil {
		return Window{}, err
	}
	if w.Start != nil && w.End != nil && w.Start.After(*w.End) {
		return Window{}, model.NewValidationError("start_date", q.StartDate, "range", "must not be after end_date")
	}

	return w, nil
}

// Contains reports whether the calendar day of t falls inside the window
func (w Window) Contains(t time.Time) bool {
	day := DateOnly(t)
	if w.Start != nil && day.Before(*w.Start) {
		return false
	}
	if w.End != nil && day.After(*w.End) {
		return false
	}
	return true
}

// DateOnly truncates t to midnight UTC of its calendar day
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD value into midnight UTC
func ParseDate(field, raw string) (time.Time, error) {
	t, err := time.Parse(model.DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, model.NewValidationError(field, raw, "date", "must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

func parseDate(field, raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := ParseDate(field, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ValidateInvoiceID rejects blank identifiers
func ValidateInvoiceID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", model.NewValidationError("invoice_id", nil, "required", "is required")
	}
	return id, nil
}

// ValidateCancel checks cancel_invoice arguments
func ValidateCancel(id, reason string) (string, string, error) {
	id, err := ValidateInvoiceID(id)
	if err != nil {
		return "", "", err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", "", model.NewValidationError("reason", nil, "required", "a cancellation reason is required")
	}
	return id, reason, nil
}
