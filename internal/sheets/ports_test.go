package sheets

import (
	"testing"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

func TestBuildRows(t *testing.T) {
	customers := []core.Customer{
		{ID: 2, Name: "Bo", Phone: "222"},
		{ID: 1, Name: "Al", Phone: "111"},
	}
	records := []core.Record{
		{ID: 1, CustomerID: 1, Date: "2024-01-01", Vehicle: "KA-01", Amount: decimal.RequireFromString("5")},
		{ID: 2, CustomerID: 2, Date: "2024-01-02", Place: "Depot", Amount: decimal.RequireFromString("7.5")},
		{ID: 3, CustomerID: 9, Date: "2024-01-03", Amount: decimal.RequireFromString("1")},
	}

	rows := BuildRows(customers, records)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %+v", len(rows), rows)
	}
	if rows[0].Customer != "Bo" || rows[0].Amount != "7.50" || rows[0].Place != "Depot" {
		t.Errorf("first row = %+v", rows[0])
	}
	if rows[1].Customer != "Al" || rows[1].Phone != "111" || rows[1].Vehicle != "KA-01" {
		t.Errorf("second row = %+v", rows[1])
	}
	if got := rows[1].Cells(); len(got) != len(Header) || got[2] != "2024-01-01" {
		t.Errorf("Cells() = %v", got)
	}
}
