package core

import "github.com/shopspring/decimal"

// CustomerSummary is a customer with the size and total of its ledger.
type CustomerSummary struct {
	Customer
	RecordCount int             `json:"recordCount"`
	Total       decimal.Decimal `json:"total"`
}

// RecordView is the filtered record listing for one customer.
type RecordView struct {
	Customer Customer  `json:"customer"`
	Range    DateRange `json:"range"`
	Records  []Record  `json:"records"`
	Total    string    `json:"total"`
}

// SummarizeCustomers pairs each customer with its record count and total. Records
// whose customer is unknown are ignored.
func SummarizeCustomers(customers []Customer, records []Record) []CustomerSummary {
	idx := make(map[int64]int, len(customers))
	out := make([]CustomerSummary, len(customers))
	for i, c := range customers {
		idx[c.ID] = i
		out[i] = CustomerSummary{Customer: c, Total: decimal.Zero}
	}
	for _, r := range records {
		i, ok := idx[r.CustomerID]
		if !ok {
			continue
		}
		out[i].RecordCount++
		out[i].Total = out[i].Total.Add(r.Amount)
	}
	return out
}

// BuildRecordView filters the customer's records by r and totals them.
func BuildRecordView(c Customer, records []Record, r DateRange) RecordView {
	filtered := FilterRecords(ForCustomer(records, c.ID), r)
	return RecordView{
		Customer: c,
		Range:    r,
		Records:  filtered,
		Total:    FormatTotal(Total(filtered)),
	}
}
