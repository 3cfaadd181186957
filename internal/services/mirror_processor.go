package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"ledger/internal/ledger"
	"ledger/internal/metrics"
	"ledger/internal/sheets"
	"ledger/internal/storage"
)

// MirrorProcessorConfig holds configuration for the mirror processor
type MirrorProcessorConfig struct {
	// ResyncInterval is how often the whole sheet is rewritten even without
	// events (default: 5m)
	ResyncInterval time.Duration

	// MaxRetries is how many times a failed write is retried before giving up
	// until the next trigger (default: 3)
	MaxRetries int

	// RetryDelay is the wait before the first retry; it doubles per attempt (default: 2s)
	RetryDelay time.Duration
}

func DefaultMirrorProcessorConfig() MirrorProcessorConfig {
	return MirrorProcessorConfig{
		ResyncInterval: 5 * time.Minute,
		MaxRetries:     3,
		RetryDelay:     2 * time.Second,
	}
}

// MirrorProcessor copies the persisted ledger into a spreadsheet. Every sync
// reads the snapshot fresh from the medium, so it sees what the service
// processes wrote.
type MirrorProcessor struct {
	medium  storage.Store
	mirror  sheets.RecordMirror
	metrics *metrics.Metrics
	config  MirrorProcessorConfig
	logger  *slog.Logger

	syncMu   sync.Mutex
	lastRows []sheets.Row
	synced   bool

	mu      sync.Mutex
	running bool
}

func NewMirrorProcessor(medium storage.Store, mirror sheets.RecordMirror, m *metrics.Metrics, config MirrorProcessorConfig) *MirrorProcessor {
	return &MirrorProcessor{
		medium:  medium,
		mirror:  mirror,
		metrics: m,
		config:  config,
		logger:  slog.Default().With("component", "mirror"),
	}
}

// Sync writes the current snapshot to the mirror. Unless force is set, a
// snapshot identical to the last written one is skipped. A snapshot that
// cannot be read is never written, so a storage fault cannot blank the sheet.
func (p *MirrorProcessor) Sync(ctx context.Context, force bool) error {
	p.syncMu.Lock()
	defer p.syncMu.Unlock()

	store := ledger.New(p.medium, p.logger)
	if err := store.Load(ctx); err != nil {
		p.metrics.MirrorSync(err)
		return fmt.Errorf("load snapshot: %w", err)
	}
	customers, records, _ := store.Snapshot()
	rows := sheets.BuildRows(customers, records)

	if !force && p.synced && slices.Equal(rows, p.lastRows) {
		p.logger.DebugContext(ctx, "Mirror already up to date", "rows", len(rows))
		return nil
	}

	if err := p.writeWithRetry(ctx, rows); err != nil {
		p.metrics.MirrorSync(err)
		return err
	}
	p.metrics.MirrorSync(nil)
	p.lastRows = rows
	p.synced = true

	p.logger.InfoContext(ctx, "Mirrored ledger to spreadsheet",
		"customers", len(customers),
		"rows", len(rows),
		"forced", force)
	return nil
}

func (p *MirrorProcessor) writeWithRetry(ctx context.Context, rows []sheets.Row) error {
	delay := p.config.RetryDelay
	var err error
	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if err = p.mirror.ReplaceRows(ctx, rows); err == nil {
			return nil
		}
		if attempt == p.config.MaxRetries {
			break
		}
		p.logger.WarnContext(ctx, "Mirror write failed, retrying",
			"attempt", attempt+1,
			"retry_in", delay,
			"error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("write mirror after %d attempts: %w", p.config.MaxRetries+1, err)
}

// Run syncs once, then forces a full resync every ResyncInterval until ctx is
// done. Returns an error if already running.
func (p *MirrorProcessor) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("mirror processor is already running")
	}
	p.running = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	p.logger.InfoContext(ctx, "Mirror processor started", "resync_interval", p.config.ResyncInterval)

	if err := p.Sync(ctx, true); err != nil {
		p.logger.ErrorContext(ctx, "Initial mirror sync failed", "error", err)
	}

	ticker := time.NewTicker(p.config.ResyncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.logger.InfoContext(ctx, "Mirror processor stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := p.Sync(ctx, true); err != nil {
				p.logger.ErrorContext(ctx, "Periodic mirror sync failed", "error", err)
			}
		}
	}
}

// IsRunning returns whether Run is active
func (p *MirrorProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
