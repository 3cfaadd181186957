package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func rec(id int64, customer int64, date, amount string) Record {
	return Record{ID: id, CustomerID: customer, Date: date, Amount: decimal.RequireFromString(amount)}
}

func TestFilterRecordsInclusiveBounds(t *testing.T) {
	records := []Record{
		rec(1, 1, "2024-01-01", "5"),
		rec(2, 1, "2024-02-01", "7"),
	}

	got := FilterRecords(records, DateRange{From: "2024-01-15"})
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("expected only record 2, got %+v", got)
	}
	if total := FormatTotal(Total(got)); total != "7.00" {
		t.Fatalf("total = %s, want 7.00", total)
	}

	got = FilterRecords(records, DateRange{From: "2024-01-01", To: "2024-01-01"})
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("bounds must be inclusive, got %+v", got)
	}

	got = FilterRecords(records, DateRange{To: "2024-02-01"})
	if len(got) != 2 {
		t.Fatalf("expected both records with only an upper bound, got %d", len(got))
	}
}

func TestFilterRecordsNoBoundsPassesAll(t *testing.T) {
	records := []Record{
		rec(1, 1, "2024-01-01", "5"),
		rec(2, 1, "someday", "1"),
	}
	got := FilterRecords(records, DateRange{})
	if len(got) != 2 {
		t.Fatalf("expected all records, got %d", len(got))
	}
}

func TestFilterRecordsUnparseableDateExcludedWhenBounded(t *testing.T) {
	records := []Record{
		rec(1, 1, "2024-01-10", "5"),
		rec(2, 1, "10/01/2024", "1"),
	}
	got := FilterRecords(records, DateRange{From: "2024-01-01"})
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("expected record with unparseable date to be excluded, got %+v", got)
	}
}

func TestFilterRecordsPreservesOrder(t *testing.T) {
	records := []Record{
		rec(3, 1, "2024-03-01", "1"),
		rec(1, 1, "2024-01-01", "1"),
		rec(2, 1, "2024-02-01", "1"),
	}
	got := FilterRecords(records, DateRange{From: "2024-01-01"})
	for i, want := range []int64{3, 1, 2} {
		if got[i].ID != want {
			t.Fatalf("position %d: got %d, want %d", i, got[i].ID, want)
		}
	}
}

func TestInvertedRangeMatchesNothing(t *testing.T) {
	r := DateRange{From: "2024-03-01", To: "2024-01-01"}
	if err := r.Validate(); err != nil {
		t.Fatalf("inverted range should validate, got %v", err)
	}
	if got := FilterRecords([]Record{rec(1, 1, "2024-02-01", "1")}, r); len(got) != 0 {
		t.Fatalf("expected no matches, got %d", len(got))
	}
}

func TestDateRangeValidate(t *testing.T) {
	if err := (DateRange{From: "2024-13-01"}).Validate(); !IsValidationError(err) {
		t.Fatalf("expected ValidationError for bad from, got %v", err)
	}
	if err := (DateRange{To: "tomorrow"}).Validate(); !IsValidationError(err) {
		t.Fatalf("expected ValidationError for bad to, got %v", err)
	}
	if err := (DateRange{}).Validate(); err != nil {
		t.Fatalf("empty range should validate, got %v", err)
	}
}

func TestTotalIsOrderInsensitive(t *testing.T) {
	a := []Record{rec(1, 1, "2024-01-01", "0.1"), rec(2, 1, "2024-01-02", "0.2"), rec(3, 1, "2024-01-03", "10.333")}
	b := []Record{a[2], a[0], a[1]}
	if !Total(a).Equal(Total(b)) {
		t.Fatalf("totals differ: %s vs %s", Total(a), Total(b))
	}
	if got := FormatTotal(Total(a)); got != "10.63" {
		t.Fatalf("total = %s, want 10.63", got)
	}
}

func TestSummarizeCustomers(t *testing.T) {
	customers := []Customer{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}
	records := []Record{
		rec(1, 1, "2024-01-01", "5"),
		rec(2, 2, "2024-01-01", "3"),
		rec(3, 1, "2024-01-02", "2.5"),
		rec(4, 99, "2024-01-02", "100"),
	}
	got := SummarizeCustomers(customers, records)
	if got[0].RecordCount != 2 || !got[0].Total.Equal(decimal.RequireFromString("7.5")) {
		t.Fatalf("unexpected summary for A: %+v", got[0])
	}
	if got[1].RecordCount != 1 || !got[1].Total.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("unexpected summary for B: %+v", got[1])
	}
}

func TestBuildRecordView(t *testing.T) {
	c := Customer{ID: 1, Name: "A"}
	records := []Record{
		rec(1, 1, "2024-01-01", "5"),
		rec(2, 2, "2024-02-01", "9"),
		rec(3, 1, "2024-02-01", "7"),
	}
	view := BuildRecordView(c, records, DateRange{From: "2024-01-15"})
	if len(view.Records) != 1 || view.Records[0].ID != 3 {
		t.Fatalf("unexpected records %+v", view.Records)
	}
	if view.Total != "7.00" {
		t.Fatalf("total = %s, want 7.00", view.Total)
	}
}
