// Package report renders a customer's filtered records as a paginated PDF table.
package report

import (
	"errors"
	"fmt"
	"regexp"

	"ledger/internal/core"
)

// Header labels, in column order. The amount label carries the currency.
var columnLabels = [...]string{"Date", "Vehicle No", "Place", "Amount (%s)", "Description"}

const totalLabel = "Total"

var whitespaceRun = regexp.MustCompile(`\s+`)

// Input is everything the exporter needs. Records are already filtered and in
// display order; Total is the aggregation total of exactly those records.
type Input struct {
	Customer core.Customer
	Records  []core.Record
	Total    string
	Currency core.Currency
}

// Table is the report content before layout.
type Table struct {
	Title   string
	Header  []string
	Rows    [][]string
	Summary []string
}

// Document is a rendered report.
type Document struct {
	Filename string
	Content  []byte
	Pages    int
}

// ExportError reports a report that could not be produced. No partial
// document accompanies it.
type ExportError struct {
	Customer string
	Err      error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export report for %q: %v", e.Customer, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// IsExportError reports whether err is, or wraps, an ExportError.
func IsExportError(err error) bool {
	var ee *ExportError
	return errors.As(err, &ee)
}

// BuildTable lays out the title, header, one row per record and the summary row.
func BuildTable(in Input) Table {
	header := make([]string, len(columnLabels))
	for i, l := range columnLabels {
		header[i] = l
	}
	header[3] = fmt.Sprintf(columnLabels[3], in.Currency.Symbol)

	rows := make([][]string, 0, len(in.Records))
	for _, r := range in.Records {
		rows = append(rows, []string{r.Date, r.Vehicle, r.Place, r.Amount.String(), r.Description})
	}

	return Table{
		Title:   in.Customer.Name + "'s Records",
		Header:  header,
		Rows:    rows,
		Summary: []string{"", "", totalLabel, in.Total, ""},
	}
}

// Filename replaces every whitespace run in name with "_" and appends "_records.pdf".
func Filename(name string) string {
	return whitespaceRun.ReplaceAllString(name, "_") + "_records.pdf"
}
