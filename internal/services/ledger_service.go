package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ledger/internal/cache"
	"ledger/internal/confirm"
	"ledger/internal/core"
	"ledger/internal/ledger"
	applog "ledger/internal/log"
	"ledger/internal/metrics"
	"ledger/internal/report"
	"ledger/internal/storage"
	"ledger/internal/workspace"
)

// EventPublisher announces applied ledger changes.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, change ledger.Change) error
}

// LedgerService runs the customer and record commands of one session's
// workspace against the shared store, then announces each applied change.
type LedgerService struct {
	store     *ledger.Store
	renderer  *report.Renderer
	reports   *cache.LRUCache[report.Document]
	publisher EventPublisher
	metrics   *metrics.Metrics
	events    *applog.StructuredLogger
}

// Options holds the optional collaborators of a LedgerService.
type Options struct {
	Publisher   EventPublisher
	Metrics     *metrics.Metrics
	Logger      *applog.Logger
	ReportCache int
	ReportTTL   time.Duration
}

func NewLedgerService(store *ledger.Store, opts Options) *LedgerService {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.ReportCache <= 0 {
		opts.ReportCache = 32
	}
	if opts.ReportTTL <= 0 {
		opts.ReportTTL = 10 * time.Minute
	}
	s := &LedgerService{
		store:     store,
		renderer:  report.NewRenderer(),
		reports:   cache.NewLRUCache[report.Document](opts.ReportCache, opts.ReportTTL),
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		events:    applog.NewStructuredLogger(opts.Logger.WithComponent(applog.ComponentLedger)),
	}
	s.refreshGauges()
	return s
}

// ReportCache exposes the rendered report cache for periodic cleanup.
func (s *LedgerService) ReportCache() cache.Cleaner {
	return s.reports
}

// Customers lists every customer with its record count and total.
func (s *LedgerService) Customers() []core.CustomerSummary {
	customers, records, _ := s.store.Snapshot()
	return core.SummarizeCustomers(customers, records)
}

// SaveCustomer adds a customer, or updates the one in edit mode and leaves edit mode.
func (s *LedgerService) SaveCustomer(ctx context.Context, ws *workspace.Workspace, in core.CustomerInput) (core.Customer, error) {
	var (
		c   core.Customer
		ch  ledger.Change
		err error
		op  string
	)
	if id, editing := ws.Editing(); editing {
		op = "customer.update"
		c, ch, err = s.store.UpdateCustomer(ctx, id, in)
		if errors.Is(err, ledger.ErrCustomerNotFound) {
			ws.CancelEdit()
		}
	} else {
		op = "customer.add"
		c, ch, err = s.store.AddCustomer(ctx, in)
	}
	s.afterCommand(ctx, op, ch, err)
	if applied(ch) {
		ws.CancelEdit()
	}
	return c, err
}

// StartEdit puts customer id into edit mode and returns it for the form.
func (s *LedgerService) StartEdit(ws *workspace.Workspace, id int64) (core.Customer, error) {
	c, err := s.store.Customer(id)
	if err != nil {
		return core.Customer{}, err
	}
	ws.StartEdit(id)
	return c, nil
}

func (s *LedgerService) CancelEdit(ws *workspace.Workspace) {
	ws.CancelEdit()
}

// Select opens the record view of customer id.
func (s *LedgerService) Select(ws *workspace.Workspace, id int64) error {
	if _, err := s.store.Customer(id); err != nil {
		return err
	}
	ws.Select(id)
	return nil
}

func (s *LedgerService) Back(ws *workspace.Workspace) {
	ws.Back()
}

// RequestDeleteCustomer asks for confirmation before deleting customer id.
func (s *LedgerService) RequestDeleteCustomer(ws *workspace.Workspace, id int64) (confirm.Pending, error) {
	if _, err := s.store.Customer(id); err != nil {
		return confirm.Pending{}, err
	}
	return ws.Confirmer.Request(confirm.Target{Kind: confirm.DeleteCustomer, ID: id}), nil
}

// RequestDeleteRecord asks for confirmation before deleting record id.
func (s *LedgerService) RequestDeleteRecord(ws *workspace.Workspace, id int64) (confirm.Pending, error) {
	if _, err := s.store.Record(id); err != nil {
		return confirm.Pending{}, err
	}
	return ws.Confirmer.Request(confirm.Target{Kind: confirm.DeleteRecord, ID: id}), nil
}

// Confirm runs the pending delete identified by token.
func (s *LedgerService) Confirm(ctx context.Context, ws *workspace.Workspace, token string) (confirm.Target, error) {
	return ws.Confirmer.Confirm(ctx, token, func(ctx context.Context, t confirm.Target) error {
		switch t.Kind {
		case confirm.DeleteCustomer:
			ch, err := s.store.DeleteCustomer(ctx, t.ID)
			s.afterCommand(ctx, "customer.delete", ch, err)
			if applied(ch) {
				ws.CustomerDeleted(t.ID)
			}
			return err
		case confirm.DeleteRecord:
			ch, err := s.store.DeleteRecord(ctx, t.ID)
			s.afterCommand(ctx, "record.delete", ch, err)
			return err
		default:
			return fmt.Errorf("unknown confirmation kind %q", t.Kind)
		}
	})
}

// Cancel drops the pending delete. It reports whether one existed.
func (s *LedgerService) Cancel(ws *workspace.Workspace) bool {
	return ws.Confirmer.Cancel()
}

// RecordView returns the open customer's records under the applied filter.
// A selection whose customer no longer exists is reset.
func (s *LedgerService) RecordView(ws *workspace.Workspace) (core.RecordView, error) {
	view, _, err := s.recordView(ws)
	return view, err
}

func (s *LedgerService) recordView(ws *workspace.Workspace) (core.RecordView, uint64, error) {
	id, err := ws.Selected()
	if err != nil {
		return core.RecordView{}, 0, err
	}
	customers, records, rev := s.store.Snapshot()
	for _, c := range customers {
		if c.ID == id {
			return core.BuildRecordView(c, records, ws.AppliedRange()), rev, nil
		}
	}
	ws.CustomerDeleted(id)
	return core.RecordView{}, 0, workspace.ErrNoActiveCustomer
}

// AddRecords inserts the valid rows for the open customer.
func (s *LedgerService) AddRecords(ctx context.Context, ws *workspace.Workspace, rows []core.RecordInput) ([]core.Record, error) {
	id, err := ws.Selected()
	if err != nil {
		return nil, err
	}
	added, ch, err := s.store.AddRecords(ctx, id, rows)
	s.afterCommand(ctx, "record.add", ch, err)
	return added, err
}

// UpdateRecord edits a record of the open customer.
func (s *LedgerService) UpdateRecord(ctx context.Context, ws *workspace.Workspace, id int64, in core.RecordInput) (core.Record, error) {
	customerID, err := ws.Selected()
	if err != nil {
		return core.Record{}, err
	}
	existing, err := s.store.Record(id)
	if err != nil {
		return core.Record{}, err
	}
	if existing.CustomerID != customerID {
		return core.Record{}, ledger.ErrRecordNotFound
	}
	r, ch, err := s.store.UpdateRecord(ctx, id, in)
	s.afterCommand(ctx, "record.update", ch, err)
	return r, err
}

// SetFilter stores the bounds as typed; ApplyFilter makes them effective.
func (s *LedgerService) SetFilter(ws *workspace.Workspace, r core.DateRange) {
	ws.SetPendingRange(r)
}

func (s *LedgerService) ApplyFilter(ws *workspace.Workspace) (core.RecordView, error) {
	if _, err := ws.ApplyRange(); err != nil {
		return core.RecordView{}, err
	}
	return s.RecordView(ws)
}

func (s *LedgerService) ClearFilter(ws *workspace.Workspace) {
	ws.ClearRange()
}

// SetCurrency switches the display currency. Stored amounts do not change.
func (s *LedgerService) SetCurrency(ws *workspace.Workspace, code string) (core.Currency, error) {
	c, err := core.ParseCurrency(code)
	if err != nil {
		return core.Currency{}, err
	}
	ws.SetCurrency(c)
	return c, nil
}

// ExportReport renders the open customer's filtered records as a PDF. Documents
// are cached per customer, range, currency and ledger revision.
func (s *LedgerService) ExportReport(ctx context.Context, ws *workspace.Workspace) (report.Document, error) {
	view, rev, err := s.recordView(ws)
	if err != nil {
		return report.Document{}, err
	}
	cur := ws.Currency()
	key := fmt.Sprintf("%d|%s|%s|%s|%d", view.Customer.ID, view.Range.From, view.Range.To, cur.Code, rev)
	if doc, ok := s.reports.Get(key); ok {
		return doc, nil
	}

	doc, err := s.renderer.Export(ctx, report.Input{
		Customer: view.Customer,
		Records:  view.Records,
		Total:    view.Total,
		Currency: cur,
	})
	s.metrics.Export(err)
	if err != nil {
		slog.ErrorContext(ctx, "Report export failed",
			applog.FieldCustomerID, view.Customer.ID,
			applog.FieldError, err)
		return report.Document{}, err
	}
	s.reports.Set(key, doc)

	slog.InfoContext(ctx, "Report exported",
		applog.FieldCustomerID, view.Customer.ID,
		applog.FieldRecordCount, len(view.Records),
		applog.FieldCurrency, cur.Code,
		"pages", doc.Pages)
	return doc, nil
}

// applied reports whether ch describes a mutation that took effect in memory.
func applied(ch ledger.Change) bool {
	return ch.Revision != 0
}

// afterCommand records the outcome of a command and publishes the change once it
// is persisted. A failed publish does not fail the command.
func (s *LedgerService) afterCommand(ctx context.Context, op string, ch ledger.Change, err error) {
	s.metrics.Command(op, err)
	if !applied(ch) {
		return
	}
	s.refreshGauges()
	if err != nil {
		if storage.IsPersistenceError(err) {
			slog.WarnContext(ctx, "Ledger change kept in memory but not persisted",
				applog.FieldOperation, op,
				applog.FieldRevision, ch.Revision,
				applog.FieldError, err)
		}
		return
	}
	s.events.LogLedgerCommand(ctx, op, ch.CustomerID, ch.Revision, ch.RecordIDs...)

	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping ledger event", applog.FieldOperation, op)
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, ch); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			applog.FieldOperation, op,
			applog.FieldRevision, ch.Revision,
			applog.FieldError, err)
	}
}

func (s *LedgerService) refreshGauges() {
	if s.metrics == nil {
		return
	}
	customers, records, _ := s.store.Snapshot()
	visible := 0
	for _, sum := range core.SummarizeCustomers(customers, records) {
		visible += sum.RecordCount
	}
	s.metrics.SetLedgerSize(len(customers), visible)
}
