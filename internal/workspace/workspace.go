// Package workspace keeps the per-session view state: which customer is open,
// which one is being edited, the date filter, the display currency and the
// pending delete confirmation.
package workspace

import (
	"errors"
	"sync"
	"time"

	"ledger/internal/cache"
	"ledger/internal/confirm"
	"ledger/internal/core"
)

var ErrNoActiveCustomer = errors.New("no customer selected")

// View names which screen the session is on.
type View string

const (
	CustomerList View = "customers"
	RecordList   View = "records"
)

// State is a copy of a workspace for rendering.
type State struct {
	View           View             `json:"view"`
	SelectedID     int64            `json:"selectedCustomerId,omitempty"`
	EditingID      int64            `json:"editingCustomerId,omitempty"`
	PendingRange   core.DateRange   `json:"pendingRange"`
	AppliedRange   core.DateRange   `json:"appliedRange"`
	Currency       core.Currency    `json:"currency"`
	PendingConfirm *confirm.Pending `json:"pendingConfirmation,omitempty"`
}

// Workspace is one session's state. Zero ids mean "none".
type Workspace struct {
	mu        sync.Mutex
	selected  int64
	editing   int64
	pending   core.DateRange
	applied   core.DateRange
	currency  core.Currency
	Confirmer confirm.Protocol
}

func New() *Workspace {
	return &Workspace{currency: core.DefaultCurrency()}
}

func (w *Workspace) State() State {
	w.mu.Lock()
	st := State{
		View:         CustomerList,
		SelectedID:   w.selected,
		EditingID:    w.editing,
		PendingRange: w.pending,
		AppliedRange: w.applied,
		Currency:     w.currency,
	}
	w.mu.Unlock()

	if st.SelectedID != 0 {
		st.View = RecordList
	}
	if p, ok := w.Confirmer.Current(); ok {
		st.PendingConfirm = &p
	}
	return st
}

// Select opens the record view of customer id. Opening a different customer
// clears the date filter.
func (w *Workspace) Select(id int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.selected != id {
		w.pending = core.DateRange{}
		w.applied = core.DateRange{}
	}
	w.selected = id
}

// Back returns to the customer list.
func (w *Workspace) Back() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.selected = 0
}

// Selected returns the open customer.
func (w *Workspace) Selected() (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.selected == 0 {
		return 0, ErrNoActiveCustomer
	}
	return w.selected, nil
}

// StartEdit puts customer id into edit mode for the next save.
func (w *Workspace) StartEdit(id int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.editing = id
}

// CancelEdit leaves edit mode.
func (w *Workspace) CancelEdit() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.editing = 0
}

// Editing returns the customer in edit mode, if any.
func (w *Workspace) Editing() (int64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.editing, w.editing != 0
}

// CustomerDeleted resets every piece of state that referred to customer id.
func (w *Workspace) CustomerDeleted(id int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.selected == id {
		w.selected = 0
		w.pending = core.DateRange{}
		w.applied = core.DateRange{}
	}
	if w.editing == id {
		w.editing = 0
	}
}

// SetPendingRange records the filter bounds as typed. They take effect on ApplyRange.
func (w *Workspace) SetPendingRange(r core.DateRange) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = r.Normalize()
}

// ApplyRange validates the pending bounds and makes them the active filter.
func (w *Workspace) ApplyRange() (core.DateRange, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.pending.Validate(); err != nil {
		return w.applied, err
	}
	w.applied = w.pending
	return w.applied, nil
}

// ClearRange empties both the pending and the active filter.
func (w *Workspace) ClearRange() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = core.DateRange{}
	w.applied = core.DateRange{}
}

// AppliedRange returns the active filter.
func (w *Workspace) AppliedRange() core.DateRange {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.applied
}

// SetCurrency changes the display currency. Stored amounts are untouched.
func (w *Workspace) SetCurrency(c core.Currency) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.currency = c
}

func (w *Workspace) Currency() core.Currency {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currency
}

// Manager hands out one Workspace per session id. Idle workspaces expire.
type Manager struct {
	sessions *cache.LRUCache[*Workspace]
}

func NewManager(maxSessions int, idle time.Duration) *Manager {
	return &Manager{sessions: cache.NewSlidingCache[*Workspace](maxSessions, idle)}
}

// Get returns the workspace of sessionID, creating it on first use.
func (m *Manager) Get(sessionID string) *Workspace {
	return m.sessions.GetOrCreate(sessionID, New)
}

// Drop forgets the workspace of sessionID.
func (m *Manager) Drop(sessionID string) {
	m.sessions.Delete(sessionID)
}

// Cache exposes the session cache for registration with a cache.Manager.
func (m *Manager) Cache() cache.Cleaner {
	return m.sessions
}
