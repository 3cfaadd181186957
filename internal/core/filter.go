package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format produced by date inputs.
const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("date must be YYYY-MM-DD")

// DateRange bounds a listing by calendar date. Empty bounds are open.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return strings.TrimSpace(r.From) == "" && strings.TrimSpace(r.To) == ""
}

// Validate checks that set bounds are calendar dates. A range with from after to
// is valid and matches nothing.
func (r DateRange) Validate() error {
	if _, _, err := parseBound(r.From); err != nil {
		return NewValidationError("from", err)
	}
	if _, _, err := parseBound(r.To); err != nil {
		return NewValidationError("to", err)
	}
	return nil
}

// Normalize trims both bounds.
func (r DateRange) Normalize() DateRange {
	return DateRange{From: strings.TrimSpace(r.From), To: strings.TrimSpace(r.To)}
}

// ParseDate parses a calendar date in DateLayout.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

func parseBound(s string) (time.Time, bool, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, false, nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// Contains reports whether date falls inside the inclusive range. With no bounds
// every record matches, including ones whose date does not parse; with any bound
// set an unparseable date never matches. Unparseable bounds are treated as unset.
func (r DateRange) Contains(date string) bool {
	from, hasFrom, errFrom := parseBound(r.From)
	to, hasTo, errTo := parseBound(r.To)
	hasFrom = hasFrom && errFrom == nil
	hasTo = hasTo && errTo == nil
	if !hasFrom && !hasTo {
		return true
	}
	d, err := ParseDate(date)
	if err != nil {
		return false
	}
	if hasFrom && d.Before(from) {
		return false
	}
	if hasTo && d.After(to) {
		return false
	}
	return true
}

// FilterRecords returns the records matching r, preserving order.
func FilterRecords(records []Record, r DateRange) []Record {
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if r.Contains(rec.Date) {
			out = append(out, rec)
		}
	}
	return out
}

// ForCustomer returns the records belonging to customerID, preserving order.
func ForCustomer(records []Record, customerID int64) []Record {
	out := make([]Record, 0)
	for _, rec := range records {
		if rec.CustomerID == customerID {
			out = append(out, rec)
		}
	}
	return out
}

// Total sums the record amounts.
func Total(records []Record) decimal.Decimal {
	total := decimal.Zero
	for _, rec := range records {
		total = total.Add(rec.Amount)
	}
	return total
}
