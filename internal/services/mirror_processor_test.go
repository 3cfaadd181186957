package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"ledger/internal/core"
	"ledger/internal/ledger"
	"ledger/internal/sheets/memory"
	"ledger/internal/storage"
)

func testMirrorConfig() MirrorProcessorConfig {
	return MirrorProcessorConfig{
		ResyncInterval: time.Hour,
		MaxRetries:     2,
		RetryDelay:     time.Millisecond,
	}
}

func seedLedger(t *testing.T, medium storage.Store) *ledger.Store {
	t.Helper()
	ctx := context.Background()
	store := ledger.New(medium, nil)
	if err := store.Load(ctx); err != nil {
		t.Fatal(err)
	}
	c, _, err := store.AddCustomer(ctx, core.CustomerInput{Name: "Ann", Phone: "555"})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := store.AddRecords(ctx, c.ID, []core.RecordInput{
		{Date: "2024-01-01", Vehicle: "KA-01", Amount: "10"},
		{Date: "2024-01-02", Amount: "2.5"},
	}); err != nil {
		t.Fatal(err)
	}
	return store
}

func TestMirrorProcessor_SyncWritesSnapshot(t *testing.T) {
	medium := storage.NewMemoryStore()
	store := seedLedger(t, medium)
	mirror := memory.New()
	p := NewMirrorProcessor(medium, mirror, nil, testMirrorConfig())
	ctx := context.Background()

	if err := p.Sync(ctx, false); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	rows := mirror.Rows()
	if len(rows) != 2 || rows[0].Customer != "Ann" || rows[0].Amount != "10.00" || rows[1].Amount != "2.50" {
		t.Fatalf("rows = %+v", rows)
	}

	if err := p.Sync(ctx, false); err != nil {
		t.Fatal(err)
	}
	if mirror.Writes() != 1 {
		t.Fatalf("unchanged snapshot should be skipped, writes=%d", mirror.Writes())
	}
	if err := p.Sync(ctx, true); err != nil {
		t.Fatal(err)
	}
	if mirror.Writes() != 2 {
		t.Fatalf("forced sync should write, writes=%d", mirror.Writes())
	}

	customers := store.Customers()
	if _, err := store.DeleteCustomer(ctx, customers[0].ID); err != nil {
		t.Fatal(err)
	}
	if err := p.Sync(ctx, false); err != nil {
		t.Fatal(err)
	}
	if len(mirror.Rows()) != 0 || mirror.Writes() != 3 {
		t.Fatalf("deletion should be mirrored, rows=%v writes=%d", mirror.Rows(), mirror.Writes())
	}
}

func TestMirrorProcessor_CorruptSnapshotIsNotWritten(t *testing.T) {
	medium := storage.NewMemoryStore()
	seedLedger(t, medium)
	mirror := memory.New()
	p := NewMirrorProcessor(medium, mirror, nil, testMirrorConfig())
	ctx := context.Background()

	if err := p.Sync(ctx, false); err != nil {
		t.Fatal(err)
	}
	if err := medium.Put(ctx, storage.KeyRecords, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	if err := p.Sync(ctx, true); err == nil {
		t.Fatal("expected a load error")
	}
	if len(mirror.Rows()) != 2 {
		t.Fatal("a corrupt snapshot must not blank the mirror")
	}
}

func TestMirrorProcessor_RetriesThenFails(t *testing.T) {
	medium := storage.NewMemoryStore()
	seedLedger(t, medium)
	mirror := memory.New()
	boom := errors.New("rate limited")
	mirror.FailWith(boom)
	p := NewMirrorProcessor(medium, mirror, nil, testMirrorConfig())

	err := p.Sync(context.Background(), false)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped mirror error, got %v", err)
	}

	mirror.FailWith(nil)
	if err := p.Sync(context.Background(), false); err != nil || mirror.Writes() != 1 {
		t.Fatalf("recovery sync: err=%v writes=%d", err, mirror.Writes())
	}
}

func TestMirrorProcessor_RunStopsWithContext(t *testing.T) {
	medium := storage.NewMemoryStore()
	mirror := memory.New()
	p := NewMirrorProcessor(medium, mirror, nil, testMirrorConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for mirror.Writes() == 0 {
		select {
		case <-deadline:
			t.Fatal("initial sync never happened")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if !p.IsRunning() {
		t.Fatal("processor should report running")
	}
	if err := p.Run(ctx); err == nil {
		t.Fatal("second Run should fail while running")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
	if p.IsRunning() {
		t.Fatal("processor should not be running after stop")
	}
}

func TestDefaultMirrorProcessorConfig(t *testing.T) {
	c := DefaultMirrorProcessorConfig()
	if c.ResyncInterval != 5*time.Minute || c.MaxRetries != 3 || c.RetryDelay != 2*time.Second {
		t.Fatalf("unexpected defaults %+v", c)
	}
}
