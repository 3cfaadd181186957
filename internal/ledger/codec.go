package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// Snapshot entries are JSON arrays. Decoding is lenient: an element that is not an
// object is skipped, an id that is missing, fractional or repeated is reassigned,
// and an amount that does not parse loads as zero.

type wireCustomer struct {
	ID         json.Number `json:"id"`
	Name       string      `json:"name"`
	Phone      string      `json:"phone"`
	ProfilePic string      `json:"profilePic"`
}

type wireRecord struct {
	ID          json.Number     `json:"id"`
	CustomerID  json.Number     `json:"customerId"`
	Date        string          `json:"date"`
	Vehicle     string          `json:"vehicle"`
	Place       string          `json:"place"`
	Amount      json.RawMessage `json:"amount"`
	Description string          `json:"description"`
}

func decodeArray[T any](raw []byte) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("decode snapshot array: %w", err)
	}
	out := make([]T, 0, len(elems))
	for _, e := range elems {
		var v T
		if err := json.Unmarshal(e, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeCustomers(raw []byte) ([]core.Customer, error) {
	wire, err := decodeArray[wireCustomer](raw)
	if err != nil {
		return nil, err
	}
	out := make([]core.Customer, 0, len(wire))
	for _, w := range wire {
		id, _ := parseID(w.ID)
		out = append(out, core.Customer{
			ID:         id,
			Name:       w.Name,
			Phone:      w.Phone,
			ProfilePic: w.ProfilePic,
		})
	}
	return out, nil
}

func decodeRecords(raw []byte) ([]core.Record, error) {
	wire, err := decodeArray[wireRecord](raw)
	if err != nil {
		return nil, err
	}
	out := make([]core.Record, 0, len(wire))
	for _, w := range wire {
		customerID, ok := parseID(w.CustomerID)
		if !ok {
			// cannot be attached to any customer
			continue
		}
		id, _ := parseID(w.ID)
		out = append(out, core.Record{
			ID:          id,
			CustomerID:  customerID,
			Date:        w.Date,
			Vehicle:     w.Vehicle,
			Place:       w.Place,
			Amount:      parseStoredAmount(w.Amount),
			Description: w.Description,
		})
	}
	return out, nil
}

// parseID accepts positive integral JSON numbers. Zero means "reassign".
func parseID(n json.Number) (int64, bool) {
	if n == "" {
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		return i, i > 0
	}
	f, err := n.Float64()
	if err != nil || f <= 0 || f != math.Trunc(f) || f > math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// parseStoredAmount loads an amount leniently: missing, unparseable, negative or
// out-of-range values become zero.
func parseStoredAmount(raw json.RawMessage) decimal.Decimal {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return decimal.Zero
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return decimal.Zero
		}
		s = strings.ReplaceAll(strings.TrimSpace(str), ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() || !core.AmountInRange(d) {
		return decimal.Zero
	}
	return d
}

func assignCustomerIDs(customers []core.Customer) []core.Customer {
	return assignIDs(customers,
		func(c core.Customer) int64 { return c.ID },
		func(c *core.Customer, id int64) { c.ID = id })
}

func assignRecordIDs(records []core.Record) []core.Record {
	return assignIDs(records,
		func(r core.Record) int64 { return r.ID },
		func(r *core.Record, id int64) { r.ID = id })
}

// assignIDs keeps the first occurrence of every positive id and gives the rest
// fresh ids above the current maximum.
func assignIDs[T any](items []T, get func(T) int64, set func(*T, int64)) []T {
	var maxID int64
	for _, it := range items {
		maxID = max(maxID, get(it))
	}
	seen := make(map[int64]bool, len(items))
	for i := range items {
		id := get(items[i])
		if id > 0 && !seen[id] {
			seen[id] = true
			continue
		}
		maxID++
		set(&items[i], maxID)
		seen[maxID] = true
	}
	return items
}

func encodeEntry(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot entry: %w", err)
	}
	if bytes.Equal(b, []byte("null")) {
		return []byte("[]"), nil
	}
	return b, nil
}
