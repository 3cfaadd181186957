// Package worker runs the spreadsheet mirror: it reacts to ledger events and
// resyncs on a timer.
package worker

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"ledger/internal/amqp"
)

// EventSource delivers ledger events until ctx is done.
type EventSource interface {
	ConsumeLedgerEvents(ctx context.Context, handler func(context.Context, *amqp.LedgerEvent) error) error
}

// Syncer copies the persisted ledger to the mirror.
type Syncer interface {
	Sync(ctx context.Context, force bool) error
	Run(ctx context.Context) error
}

type MirrorWorker struct {
	syncer Syncer
	events EventSource
}

// NewMirrorWorker wires syncer to events. A nil events source leaves only the
// periodic resync.
func NewMirrorWorker(syncer Syncer, events EventSource) *MirrorWorker {
	return &MirrorWorker{syncer: syncer, events: events}
}

// HandleEvent resyncs the mirror for a ledger event. A failed sync is logged and
// the event acknowledged; the periodic forced resync catches up.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"kind", ev.Kind,
		"customer_id", ev.CustomerID,
		"revision", ev.Revision,
		"published_at", ev.Timestamp)
	if err := w.syncer.Sync(ctx, false); err != nil {
		slog.ErrorContext(ctx, "Mirror sync for ledger event failed, waiting for the periodic resync",
			"revision", ev.Revision,
			"error", err)
	}
	return nil
}

// Run consumes events and resyncs periodically until ctx is cancelled or one
// of them fails. Cancellation is a clean stop.
func (w *MirrorWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if w.events != nil {
		g.Go(func() error {
			return w.events.ConsumeLedgerEvents(ctx, w.HandleEvent)
		})
	} else {
		slog.WarnContext(ctx, "No event source configured, relying on periodic resync")
	}
	g.Go(func() error {
		return w.syncer.Run(ctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
