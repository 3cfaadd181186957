package sheets

import (
	"context"

	"ledger/internal/core"
)

// Header is the first row of the mirrored sheet.
var Header = []string{"Customer", "Phone", "Date", "Vehicle No", "Place", "Amount", "Description"}

// Row is one record as it appears in the spreadsheet mirror.
type Row struct {
	Customer    string
	Phone       string
	Date        string
	Vehicle     string
	Place       string
	Amount      string
	Description string
}

// Ports for outbound adapters.
type (
	// RecordMirror replaces the mirrored rows with the given set.
	RecordMirror interface {
		ReplaceRows(ctx context.Context, rows []Row) error
	}
)

// Cells returns the row in Header order.
func (r Row) Cells() []string {
	return []string{r.Customer, r.Phone, r.Date, r.Vehicle, r.Place, r.Amount, r.Description}
}

// BuildRows lists every visible record grouped by customer, customers in list
// order and records in display order. Records of unknown customers are skipped.
func BuildRows(customers []core.Customer, records []core.Record) []Row {
	rows := make([]Row, 0, len(records))
	for _, c := range customers {
		for _, r := range core.ForCustomer(records, c.ID) {
			rows = append(rows, Row{
				Customer:    c.Name,
				Phone:       c.Phone,
				Date:        r.Date,
				Vehicle:     r.Vehicle,
				Place:       r.Place,
				Amount:      r.Amount.StringFixed(2),
				Description: r.Description,
			})
		}
	}
	return rows
}
