package report

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

func testInput(n int) Input {
	records := make([]core.Record, n)
	for i := range records {
		records[i] = core.Record{
			ID:          int64(i + 1),
			CustomerID:  1,
			Date:        fmt.Sprintf("2024-01-%02d", i%28+1),
			Vehicle:     "KA-01-1234",
			Place:       "Bengaluru",
			Amount:      decimal.NewFromInt(int64(i + 1)),
			Description: "Diesel top-up and a fairly long description that should wrap inside its cell",
		}
	}
	return Input{
		Customer: core.Customer{ID: 1, Name: "Ravi Kumar"},
		Records:  records,
		Total:    core.FormatTotal(core.Total(records)),
		Currency: core.Currency{Code: "USD", Symbol: "$"},
	}
}

func newTestRenderer() *Renderer {
	return &Renderer{now: func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }}
}

func TestBuildTable(t *testing.T) {
	in := testInput(2)
	in.Records[0].Date, in.Records[1].Date = "2024-02-01", "2024-01-01"
	tbl := BuildTable(in)

	if tbl.Title != "Ravi Kumar's Records" {
		t.Fatalf("title = %q", tbl.Title)
	}
	wantHeader := []string{"Date", "Vehicle No", "Place", "Amount ($)", "Description"}
	for i, h := range wantHeader {
		if tbl.Header[i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, tbl.Header[i], h)
		}
	}
	if len(tbl.Rows) != 2 || tbl.Rows[0][0] != "2024-02-01" || tbl.Rows[1][0] != "2024-01-01" {
		t.Fatalf("rows must follow the supplied order, got %+v", tbl.Rows)
	}
	if tbl.Rows[1][3] != "2" {
		t.Fatalf("amount cell = %q, want 2", tbl.Rows[1][3])
	}
	wantSummary := []string{"", "", "Total", "3.00", ""}
	for i, s := range wantSummary {
		if tbl.Summary[i] != s {
			t.Fatalf("summary[%d] = %q, want %q", i, tbl.Summary[i], s)
		}
	}
}

func TestFilename(t *testing.T) {
	cases := map[string]string{
		"Ravi Kumar":       "Ravi_Kumar_records.pdf",
		"Ravi   Kumar":     "Ravi_Kumar_records.pdf",
		"Ana\tMaria Lopez": "Ana_Maria_Lopez_records.pdf",
		"Solo":             "Solo_records.pdf",
	}
	for name, want := range cases {
		if got := Filename(name); got != want {
			t.Fatalf("Filename(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestExportProducesPDF(t *testing.T) {
	doc, err := newTestRenderer().Export(context.Background(), testInput(3))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if doc.Filename != "Ravi_Kumar_records.pdf" {
		t.Fatalf("filename = %q", doc.Filename)
	}
	if !bytes.HasPrefix(doc.Content, []byte("%PDF-")) {
		t.Fatalf("content is not a PDF: %q", doc.Content[:min(len(doc.Content), 16)])
	}
}

func TestExportPaginates(t *testing.T) {
	r := newTestRenderer()
	small, err := r.Export(context.Background(), testInput(1))
	if err != nil {
		t.Fatalf("Export small: %v", err)
	}
	large, err := r.Export(context.Background(), testInput(200))
	if err != nil {
		t.Fatalf("Export large: %v", err)
	}
	if small.Pages != 1 {
		t.Fatalf("expected a single page, got %d", small.Pages)
	}
	if large.Pages < 2 {
		t.Fatalf("expected several pages for 200 rows, got %d", large.Pages)
	}
}

func TestExportEmptyRecords(t *testing.T) {
	in := testInput(0)
	in.Total = "0.00"
	if _, err := newTestRenderer().Export(context.Background(), in); err != nil {
		t.Fatalf("empty report should export, got %v", err)
	}
}

func TestExportCurrencyFallsBackToCode(t *testing.T) {
	in := testInput(1)
	in.Currency = core.Currency{Code: "INR", Symbol: "₹"}
	if _, err := newTestRenderer().Export(context.Background(), in); err != nil {
		t.Fatalf("unprintable currency symbol should fall back, got %v", err)
	}
	if BuildTable(in).Header[3] != "Amount (₹)" {
		t.Fatal("table keeps the symbol; only rendering falls back")
	}
}

func TestExportUnprintableTextIsExportError(t *testing.T) {
	in := testInput(1)
	in.Records[0].Description = "貨物"
	_, err := newTestRenderer().Export(context.Background(), in)
	if !IsExportError(err) {
		t.Fatalf("expected ExportError, got %v", err)
	}
}

func TestExportCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestRenderer().Export(ctx, testInput(5))
	if !IsExportError(err) {
		t.Fatalf("expected ExportError on cancelled context, got %v", err)
	}
}

func TestEuroAndPoundArePrintable(t *testing.T) {
	for _, sym := range []string{"€", "£", "¥", "$"} {
		if !encodable("Amount (" + sym + ")") {
			t.Fatalf("%s should be printable", sym)
		}
	}
}
