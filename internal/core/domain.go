package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type (
	Customer struct {
		ID         int64  `json:"id"`
		Name       string `json:"name"`
		Phone      string `json:"phone"`
		ProfilePic string `json:"profilePic,omitempty"`
	}

	Record struct {
		ID          int64           `json:"id"`
		CustomerID  int64           `json:"customerId"`
		Date        string          `json:"date"` // as entered, normally YYYY-MM-DD
		Vehicle     string          `json:"vehicle"`
		Place       string          `json:"place"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
	}

	// CustomerInput is the customer form as submitted.
	CustomerInput struct {
		Name       string `json:"name"`
		Phone      string `json:"phone"`
		ProfilePic string `json:"profilePic"`
	}

	// RecordInput is one row of the record form. Amount is kept as text until validated.
	RecordInput struct {
		Date        string `json:"date"`
		Vehicle     string `json:"vehicle"`
		Place       string `json:"place"`
		Amount      string `json:"amount"`
		Description string `json:"description"`
	}

	// RecordFields is a validated RecordInput.
	RecordFields struct {
		Date        string
		Vehicle     string
		Place       string
		Amount      decimal.Decimal
		Description string
	}
)

var (
	ErrEmptyName   = errors.New("name is required")
	ErrEmptyPhone  = errors.New("phone is required")
	ErrEmptyDate   = errors.New("date is required")
	ErrNoValidRows = errors.New("no valid records to add")
)

// ValidationError reports user input that was rejected before any state changed.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError wraps err as a ValidationError on field.
func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

// IsValidationError reports whether err is, or wraps, a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks the customer form. Whitespace-only name or phone counts as empty.
func (in CustomerInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return NewValidationError("name", ErrEmptyName)
	}
	if strings.TrimSpace(in.Phone) == "" {
		return NewValidationError("phone", ErrEmptyPhone)
	}
	return nil
}

// Apply copies the form into c, leaving the id untouched.
func (in CustomerInput) Apply(c *Customer) {
	c.Name = strings.TrimSpace(in.Name)
	c.Phone = strings.TrimSpace(in.Phone)
	c.ProfilePic = in.ProfilePic
}

// Input returns the customer as a prefilled form.
func (c Customer) Input() CustomerInput {
	return CustomerInput{Name: c.Name, Phone: c.Phone, ProfilePic: c.ProfilePic}
}

// Validate checks a record row: the date must be present and the amount must be a
// non-negative number. Free-text fields are never validated.
func (in RecordInput) Validate() (RecordFields, error) {
	date := strings.TrimSpace(in.Date)
	if date == "" {
		return RecordFields{}, NewValidationError("date", ErrEmptyDate)
	}
	amount, err := ParseAmount(in.Amount)
	if err != nil {
		return RecordFields{}, NewValidationError("amount", err)
	}
	return RecordFields{
		Date:        date,
		Vehicle:     in.Vehicle,
		Place:       in.Place,
		Amount:      amount,
		Description: in.Description,
	}, nil
}

// IsValid reports whether the row would be accepted by a batch insert.
func (in RecordInput) IsValid() bool {
	_, err := in.Validate()
	return err == nil
}

// ValidRows keeps the rows that pass validation, in input order. Invalid rows are
// dropped silently; an empty result is a ValidationError.
func ValidRows(rows []RecordInput) ([]RecordFields, error) {
	valid := make([]RecordFields, 0, len(rows))
	for _, row := range rows {
		f, err := row.Validate()
		if err != nil {
			continue
		}
		valid = append(valid, f)
	}
	if len(valid) == 0 {
		return nil, NewValidationError("records", ErrNoValidRows)
	}
	return valid, nil
}

// Apply overwrites every editable field of r. ID and CustomerID never change.
func (f RecordFields) Apply(r *Record) {
	r.Date = f.Date
	r.Vehicle = f.Vehicle
	r.Place = f.Place
	r.Amount = f.Amount
	r.Description = f.Description
}

// Input returns the record as an editable row.
func (r Record) Input() RecordInput {
	return RecordInput{
		Date:        r.Date,
		Vehicle:     r.Vehicle,
		Place:       r.Place,
		Amount:      r.Amount.String(),
		Description: r.Description,
	}
}
