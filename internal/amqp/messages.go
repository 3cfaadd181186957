package amqp

import (
	"encoding/json"
	"time"

	"ledger/internal/ledger"
)

// LedgerEvent announces one applied ledger command. It carries ids only; the
// consumer reads the current snapshot from the shared medium.
type LedgerEvent struct {
	Kind       ledger.ChangeKind `json:"kind"`
	CustomerID int64             `json:"customerId"`
	RecordIDs  []int64           `json:"recordIds,omitempty"`
	Revision   uint64            `json:"revision"`
	Timestamp  time.Time         `json:"timestamp"`
}

// NewLedgerEvent stamps c with the current time.
func NewLedgerEvent(c ledger.Change) *LedgerEvent {
	return &LedgerEvent{
		Kind:       c.Kind,
		CustomerID: c.CustomerID,
		RecordIDs:  c.RecordIDs,
		Revision:   c.Revision,
		Timestamp:  time.Now(),
	}
}

func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
