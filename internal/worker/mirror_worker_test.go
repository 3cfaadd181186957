package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/ledger"
)

type fakeSyncer struct {
	mu     sync.Mutex
	syncs  []bool
	err    error
	runErr error
}

func (f *fakeSyncer) Sync(_ context.Context, force bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncs = append(f.syncs, force)
	return f.err
}

func (f *fakeSyncer) Run(ctx context.Context) error {
	if f.runErr != nil {
		return f.runErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeSyncer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.syncs)
}

type fakeEvents struct {
	events []*amqp.LedgerEvent
	errs   []error
}

func (f *fakeEvents) ConsumeLedgerEvents(ctx context.Context, handler func(context.Context, *amqp.LedgerEvent) error) error {
	for _, ev := range f.events {
		f.errs = append(f.errs, handler(ctx, ev))
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestHandleEventSyncsWithoutForce(t *testing.T) {
	s := &fakeSyncer{}
	w := NewMirrorWorker(s, nil)
	ev := amqp.NewLedgerEvent(ledger.Change{Kind: ledger.RecordsAdded, CustomerID: 1, Revision: 3})

	if err := w.HandleEvent(context.Background(), ev); err != nil {
		t.Fatal(err)
	}
	if len(s.syncs) != 1 || s.syncs[0] {
		t.Fatalf("syncs = %v", s.syncs)
	}

}

func TestFailedSyncDoesNotRequeueEvent(t *testing.T) {
	s := &fakeSyncer{err: errors.New("sheets down")}
	events := &fakeEvents{events: []*amqp.LedgerEvent{
		amqp.NewLedgerEvent(ledger.Change{Kind: ledger.RecordsAdded, CustomerID: 1, Revision: 3}),
	}}
	w := NewMirrorWorker(s, events)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for s.count() < 1 {
		select {
		case <-deadline:
			t.Fatal("event was not handled")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() = %v, want clean stop", err)
	}

	if len(events.errs) != 1 || events.errs[0] != nil {
		t.Fatalf("handler results = %v, want a single acknowledged event", events.errs)
	}
	if s.count() != 1 {
		t.Fatalf("syncs = %d, want 1", s.count())
	}
}

func TestRunDeliversEventsAndStopsCleanly(t *testing.T) {
	s := &fakeSyncer{}
	events := &fakeEvents{events: []*amqp.LedgerEvent{
		amqp.NewLedgerEvent(ledger.Change{Kind: ledger.CustomerAdded, CustomerID: 1, Revision: 1}),
		amqp.NewLedgerEvent(ledger.Change{Kind: ledger.CustomerDeleted, CustomerID: 1, Revision: 2}),
	}}
	w := NewMirrorWorker(s, events)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for s.count() < 2 {
		select {
		case <-deadline:
			t.Fatal("events were not handled")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() = %v, want clean stop", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestRunReturnsSyncerFailure(t *testing.T) {
	boom := errors.New("already running")
	w := NewMirrorWorker(&fakeSyncer{runErr: boom}, &fakeEvents{})
	if err := w.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Run() = %v, want %v", err, boom)
	}
}
