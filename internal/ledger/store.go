// Package ledger owns the in-memory customers and records and writes them back
// to the snapshot medium after every command.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"ledger/internal/core"
	"ledger/internal/storage"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrRecordNotFound   = errors.New("record not found")
)

// ChangeKind names what a command did to the ledger.
type ChangeKind string

const (
	CustomerAdded   ChangeKind = "customer.added"
	CustomerUpdated ChangeKind = "customer.updated"
	CustomerDeleted ChangeKind = "customer.deleted"
	RecordsAdded    ChangeKind = "records.added"
	RecordUpdated   ChangeKind = "record.updated"
	RecordDeleted   ChangeKind = "record.deleted"
)

// Change describes one applied command.
type Change struct {
	Kind       ChangeKind
	CustomerID int64
	RecordIDs  []int64
	Revision   uint64
}

// Store is the ledger. All methods are safe for concurrent use; each command and
// its persist run under one lock.
type Store struct {
	mu        sync.RWMutex
	medium    storage.Store
	customers []core.Customer
	records   []core.Record

	nextCustomerID int64
	nextRecordID   int64
	revision       uint64

	logger *slog.Logger
}

// New returns an empty store backed by medium. Call Load to read the persisted snapshot.
func New(medium storage.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		medium:         medium,
		nextCustomerID: 1,
		nextRecordID:   1,
		logger:         logger,
	}
}

// Load replaces the in-memory ledger with the persisted snapshot. Missing entries
// load as empty. Entries that cannot be read or parsed also load as empty; the
// returned error then joins one PersistenceError per entry and the store is
// still usable.
func (s *Store) Load(ctx context.Context) error {
	var errs []error

	customers, err := readEntry(ctx, s, storage.KeyCustomers, decodeCustomers)
	if err != nil {
		errs = append(errs, err)
	}
	records, err := readEntry(ctx, s, storage.KeyRecords, decodeRecords)
	if err != nil {
		errs = append(errs, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.customers = assignCustomerIDs(customers)
	s.records = assignRecordIDs(records)
	s.nextCustomerID = 1
	for _, c := range s.customers {
		s.nextCustomerID = max(s.nextCustomerID, c.ID+1)
	}
	s.nextRecordID = 1
	for _, r := range s.records {
		s.nextRecordID = max(s.nextRecordID, r.ID+1)
	}
	s.revision++

	s.logger.InfoContext(ctx, "Ledger loaded",
		"customers", len(s.customers),
		"records", len(s.records),
		"revision", s.revision)

	return errors.Join(errs...)
}

func readEntry[T any](ctx context.Context, s *Store, key string, decode func([]byte) ([]T, error)) ([]T, error) {
	raw, err := s.medium.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.WarnContext(ctx, "Snapshot entry unreadable, starting empty", "snapshot_key", key, "error", err)
		return nil, &storage.PersistenceError{Op: "load", Key: key, Err: err}
	}
	v, err := decode(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "Snapshot entry corrupt, starting empty", "snapshot_key", key, "error", err)
		return nil, &storage.PersistenceError{Op: "load", Key: key, Err: err}
	}
	return v, nil
}

// Revision increases by one on every load and every applied command.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Customers returns all customers in insertion order.
func (s *Store) Customers() []core.Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.customers)
}

// Snapshot returns copies of both collections and the revision they belong to.
func (s *Store) Snapshot() ([]core.Customer, []core.Record, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.customers), slices.Clone(s.records), s.revision
}

// Customer returns the customer with id.
func (s *Store) Customer(id int64) (core.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.customerIndex(id)
	if i < 0 {
		return core.Customer{}, ErrCustomerNotFound
	}
	return s.customers[i], nil
}

// Records returns the records of an existing customer in insertion order.
func (s *Store) Records(customerID int64) ([]core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.customerIndex(customerID) < 0 {
		return nil, ErrCustomerNotFound
	}
	return core.ForCustomer(s.records, customerID), nil
}

// Record returns the record with id. Records of deleted customers are not found.
func (s *Store) Record(id int64) (core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.recordIndex(id)
	if i < 0 || s.customerIndex(s.records[i].CustomerID) < 0 {
		return core.Record{}, ErrRecordNotFound
	}
	return s.records[i], nil
}

// AddCustomer validates in and appends a new customer with a fresh id.
func (s *Store) AddCustomer(ctx context.Context, in core.CustomerInput) (core.Customer, Change, error) {
	if err := in.Validate(); err != nil {
		return core.Customer{}, Change{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := core.Customer{ID: s.nextCustomerID}
	in.Apply(&c)
	s.nextCustomerID++
	s.customers = append(s.customers, c)

	ch := s.commit(CustomerAdded, c.ID)
	return c, ch, s.persistCustomers(ctx)
}

// UpdateCustomer validates in and replaces the fields of customer id in place.
func (s *Store) UpdateCustomer(ctx context.Context, id int64, in core.CustomerInput) (core.Customer, Change, error) {
	if err := in.Validate(); err != nil {
		return core.Customer{}, Change{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.customerIndex(id)
	if i < 0 {
		return core.Customer{}, Change{}, ErrCustomerNotFound
	}
	in.Apply(&s.customers[i])

	ch := s.commit(CustomerUpdated, id)
	return s.customers[i], ch, s.persistCustomers(ctx)
}

// DeleteCustomer removes customer id and every record that references it.
func (s *Store) DeleteCustomer(ctx context.Context, id int64) (Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.customerIndex(id)
	if i < 0 {
		return Change{}, ErrCustomerNotFound
	}
	s.customers = slices.Delete(s.customers, i, i+1)

	var removed []int64
	s.records = slices.DeleteFunc(s.records, func(r core.Record) bool {
		if r.CustomerID == id {
			removed = append(removed, r.ID)
			return true
		}
		return false
	})

	ch := s.commit(CustomerDeleted, id, removed...)
	return ch, errors.Join(s.persistCustomers(ctx), s.persistRecords(ctx))
}

// AddRecords inserts the valid rows for customerID in input order. Invalid rows
// are dropped; if none is valid nothing is inserted and a ValidationError is returned.
func (s *Store) AddRecords(ctx context.Context, customerID int64, rows []core.RecordInput) ([]core.Record, Change, error) {
	valid, err := core.ValidRows(rows)
	if err != nil {
		return nil, Change{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.customerIndex(customerID) < 0 {
		return nil, Change{}, ErrCustomerNotFound
	}

	added := make([]core.Record, 0, len(valid))
	ids := make([]int64, 0, len(valid))
	for _, f := range valid {
		r := core.Record{ID: s.nextRecordID, CustomerID: customerID}
		f.Apply(&r)
		s.nextRecordID++
		added = append(added, r)
		ids = append(ids, r.ID)
	}
	s.records = append(s.records, added...)

	if dropped := len(rows) - len(valid); dropped > 0 {
		s.logger.DebugContext(ctx, "Dropped invalid record rows", "customer_id", customerID, "dropped", dropped)
	}

	ch := s.commit(RecordsAdded, customerID, ids...)
	return added, ch, s.persistRecords(ctx)
}

// UpdateRecord replaces every editable field of record id. The row must pass
// the same validation as a batch row.
func (s *Store) UpdateRecord(ctx context.Context, id int64, in core.RecordInput) (core.Record, Change, error) {
	f, err := in.Validate()
	if err != nil {
		return core.Record{}, Change{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.recordIndex(id)
	if i < 0 || s.customerIndex(s.records[i].CustomerID) < 0 {
		return core.Record{}, Change{}, ErrRecordNotFound
	}
	f.Apply(&s.records[i])

	ch := s.commit(RecordUpdated, s.records[i].CustomerID, id)
	return s.records[i], ch, s.persistRecords(ctx)
}

// DeleteRecord removes record id.
func (s *Store) DeleteRecord(ctx context.Context, id int64) (Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.recordIndex(id)
	if i < 0 {
		return Change{}, ErrRecordNotFound
	}
	customerID := s.records[i].CustomerID
	s.records = slices.Delete(s.records, i, i+1)

	ch := s.commit(RecordDeleted, customerID, id)
	return ch, s.persistRecords(ctx)
}

// commit bumps the revision. Callers hold the write lock.
func (s *Store) commit(kind ChangeKind, customerID int64, recordIDs ...int64) Change {
	s.revision++
	return Change{Kind: kind, CustomerID: customerID, RecordIDs: recordIDs, Revision: s.revision}
}

func (s *Store) persistCustomers(ctx context.Context) error {
	return s.persist(ctx, storage.KeyCustomers, s.customers)
}

func (s *Store) persistRecords(ctx context.Context) error {
	return s.persist(ctx, storage.KeyRecords, s.records)
}

// persist overwrites one snapshot entry. A failed write keeps the in-memory
// mutation; the next successful write of the entry catches up.
func (s *Store) persist(ctx context.Context, key string, v any) error {
	payload, err := encodeEntry(v)
	if err != nil {
		return &storage.PersistenceError{Op: "persist", Key: key, Err: err}
	}
	if err := s.medium.Put(ctx, key, payload); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist snapshot entry", "snapshot_key", key, "error", err)
		return &storage.PersistenceError{Op: "persist", Key: key, Err: fmt.Errorf("write: %w", err)}
	}
	return nil
}

func (s *Store) customerIndex(id int64) int {
	return slices.IndexFunc(s.customers, func(c core.Customer) bool { return c.ID == id })
}

func (s *Store) recordIndex(id int64) int {
	return slices.IndexFunc(s.records, func(r core.Record) bool { return r.ID == id })
}
