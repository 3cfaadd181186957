package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCustomerInputValidate(t *testing.T) {
	cases := []struct {
		name    string
		in      CustomerInput
		wantErr error
	}{
		{"ok", CustomerInput{Name: "Ravi", Phone: "555"}, nil},
		{"empty name", CustomerInput{Name: "", Phone: "555"}, ErrEmptyName},
		{"whitespace name", CustomerInput{Name: "   ", Phone: "555"}, ErrEmptyName},
		{"empty phone", CustomerInput{Name: "Ravi", Phone: ""}, ErrEmptyPhone},
		{"picture optional", CustomerInput{Name: "Ravi", Phone: "555", ProfilePic: ""}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.in.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("expected ok, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if !IsValidationError(err) {
				t.Fatalf("expected a ValidationError, got %T", err)
			}
		})
	}
}

func TestCustomerInputApplyKeepsID(t *testing.T) {
	c := Customer{ID: 7, Name: "Old", Phone: "1"}
	CustomerInput{Name: " New ", Phone: "2", ProfilePic: "blob:pic"}.Apply(&c)
	if c.ID != 7 || c.Name != "New" || c.Phone != "2" || c.ProfilePic != "blob:pic" {
		t.Fatalf("unexpected customer after apply: %+v", c)
	}
}

func TestRecordInputValidate(t *testing.T) {
	cases := []struct {
		name   string
		in     RecordInput
		ok     bool
		amount string
	}{
		{"ok", RecordInput{Date: "2024-01-01", Amount: "10"}, true, "10"},
		{"zero amount", RecordInput{Date: "2024-01-01", Amount: "0"}, true, "0"},
		{"decimal comma", RecordInput{Date: "2024-01-01", Amount: "12,5"}, true, "12.5"},
		{"empty date", RecordInput{Date: "", Amount: "5"}, false, ""},
		{"non numeric", RecordInput{Date: "2024-01-02", Amount: "abc"}, false, ""},
		{"negative", RecordInput{Date: "2024-01-02", Amount: "-1"}, false, ""},
		{"empty amount", RecordInput{Date: "2024-01-02", Amount: ""}, false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := tc.in.Validate()
			if tc.ok != (err == nil) {
				t.Fatalf("ok=%v, got err %v", tc.ok, err)
			}
			if !tc.ok {
				if !IsValidationError(err) {
					t.Fatalf("expected ValidationError, got %T", err)
				}
				return
			}
			if !f.Amount.Equal(decimal.RequireFromString(tc.amount)) {
				t.Fatalf("amount = %s, want %s", f.Amount, tc.amount)
			}
		})
	}
}

func TestValidRowsDropsInvalid(t *testing.T) {
	rows := []RecordInput{
		{Date: "2024-01-01", Amount: "10", Vehicle: "KA-01"},
		{Date: "", Amount: "5"},
		{Date: "2024-01-02", Amount: "abc"},
	}
	valid, err := ValidRows(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(valid) != 1 {
		t.Fatalf("expected 1 valid row, got %d", len(valid))
	}
	if valid[0].Date != "2024-01-01" || valid[0].Vehicle != "KA-01" {
		t.Fatalf("unexpected row: %+v", valid[0])
	}
}

func TestValidRowsNoneValid(t *testing.T) {
	_, err := ValidRows([]RecordInput{{Date: "", Amount: ""}})
	if !errors.Is(err, ErrNoValidRows) {
		t.Fatalf("expected ErrNoValidRows, got %v", err)
	}
	if _, err := ValidRows(nil); !IsValidationError(err) {
		t.Fatalf("expected ValidationError for empty batch, got %v", err)
	}
}

func TestRecordFieldsApplyKeepsIdentity(t *testing.T) {
	r := Record{ID: 3, CustomerID: 9, Date: "2024-01-01", Amount: decimal.NewFromInt(1)}
	RecordFields{Date: "2024-03-03", Place: "Pune", Amount: decimal.NewFromInt(4)}.Apply(&r)
	if r.ID != 3 || r.CustomerID != 9 {
		t.Fatalf("identity changed: %+v", r)
	}
	if r.Date != "2024-03-03" || r.Place != "Pune" || !r.Amount.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("fields not replaced: %+v", r)
	}
}
