// Package sync reconciles the local store with the remote store: push drains
// the outbox, pull mirrors remote state back. Local state stays authoritative
// and usable whether or not sync ever succeeds.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/therobotcowboy/inventory-manager/internal/domain"
	"github.com/therobotcowboy/inventory-manager/internal/remote"
)

// outbox is the subset of store.OutboxStore that Engine requires.
type outbox interface {
	Pending(ctx context.Context) ([]*domain.OutboxEntry, error)
	MarkSynced(ctx context.Context, seq int64) error
	PendingRowIDs(ctx context.Context, table string) (map[string]struct{}, error)
}

type itemWriter interface {
	BulkUpsert(ctx context.Context, items []*domain.Item) error
}

type locationWriter interface {
	BulkUpsert(ctx context.Context, locs []*domain.Location) error
}

type Engine struct {
	outbox    outbox
	items     itemWriter
	locations locationWriter
	remote    remote.Store
	logger    *slog.Logger
}

func NewEngine(outbox outbox, items itemWriter, locations locationWriter, remote remote.Store, logger *slog.Logger) *Engine {
	return &Engine{
		outbox:    outbox,
		items:     items,
		locations: locations,
		remote:    remote,
		logger:    logger,
	}
}

// Push sends pending outbox entries to the remote store in enqueue order and
// returns the number of entries attempted. A failed entry is logged, left
// unsynced for the next pass, and never blocks the entries after it.
func (e *Engine) Push(ctx context.Context) (int, error) {
	entries, err := e.outbox.Pending(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read outbox: %w", err)
	}

	for _, entry := range entries {
		if err := e.dispatch(ctx, entry); err != nil {
			e.logger.Error("push failed", "seq", entry.Seq, "table", entry.Table, "action", entry.Action, "error", err)
			continue
		}
		if err := e.outbox.MarkSynced(ctx, entry.Seq); err != nil {
			// The remote write landed; the entry will be retried and the
			// remote must absorb the duplicate.
			e.logger.Error("failed to mark entry synced", "seq", entry.Seq, "error", err)
			continue
		}
		e.logger.Debug("pushed", "seq", entry.Seq, "table", entry.Table, "action", entry.Action)
	}

	return len(entries), nil
}

func (e *Engine) dispatch(ctx context.Context, entry *domain.OutboxEntry) error {
	switch entry.Action {
	case domain.OutboxInsert:
		return e.remote.Insert(ctx, entry.Table, entry.Payload)
	case domain.OutboxUpdate:
		return e.remote.Update(ctx, entry.Table, entry.RowID, entry.Payload)
	case domain.OutboxDelete:
		return e.remote.Delete(ctx, entry.Table, entry.RowID)
	default:
		return fmt.Errorf("unknown outbox action %q", entry.Action)
	}
}

// Pull mirrors the full remote location and item sets into the local store,
// overwriting local rows by id. Rows with a pending unsynced outbox entry are
// skipped so an unpushed local edit is never clobbered by a stale pull. On
// error the local store keeps its prior, self-consistent state.
func (e *Engine) Pull(ctx context.Context) error {
	if err := e.pullLocations(ctx); err != nil {
		return err
	}
	return e.pullItems(ctx)
}

func (e *Engine) pullLocations(ctx context.Context) error {
	pending, err := e.outbox.PendingRowIDs(ctx, domain.TableLocations)
	if err != nil {
		return err
	}

	rows, err := e.remote.SelectAll(ctx, domain.TableLocations)
	if err != nil {
		return fmt.Errorf("failed to fetch locations: %w", err)
	}

	locs := make([]*domain.Location, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		loc := &domain.Location{}
		if err := json.Unmarshal(row, loc); err != nil {
			return fmt.Errorf("failed to decode location row: %w", err)
		}
		if _, ok := pending[loc.ID]; ok {
			skipped++
			continue
		}
		locs = append(locs, loc)
	}

	if err := e.locations.BulkUpsert(ctx, locs); err != nil {
		return fmt.Errorf("failed to store pulled locations: %w", err)
	}

	e.logger.Debug("pulled locations", "count", len(locs), "skipped_pending", skipped)
	return nil
}

func (e *Engine) pullItems(ctx context.Context) error {
	pending, err := e.outbox.PendingRowIDs(ctx, domain.TableItems)
	if err != nil {
		return err
	}

	rows, err := e.remote.SelectAll(ctx, domain.TableItems)
	if err != nil {
		return fmt.Errorf("failed to fetch items: %w", err)
	}

	items := make([]*domain.Item, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		item := &domain.Item{}
		if err := json.Unmarshal(row, item); err != nil {
			return fmt.Errorf("failed to decode item row: %w", err)
		}
		if _, ok := pending[item.ID]; ok {
			skipped++
			continue
		}
		items = append(items, item)
	}

	if err := e.items.BulkUpsert(ctx, items); err != nil {
		return fmt.Errorf("failed to store pulled items: %w", err)
	}

	e.logger.Debug("pulled items", "count", len(items), "skipped_pending", skipped)
	return nil
}

// Run drives the sync loop: one push+pull immediately, then on every tick and
// on every signal from online (e.g. a network-reconnect event). A nil online
// channel is valid and simply never fires. Run returns when ctx is done.
func (e *Engine) Run(ctx context.Context, interval time.Duration, online <-chan struct{}) {
	e.syncOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.syncOnce(ctx)
		case <-online:
			e.logger.Info("network restored, syncing")
			e.syncOnce(ctx)
		}
	}
}

// syncOnce pushes then pulls. Failures are logged and never fatal; the next
// trigger retries.
func (e *Engine) syncOnce(ctx context.Context) {
	if n, err := e.Push(ctx); err != nil {
		e.logger.Error("sync push failed", "error", err)
	} else if n > 0 {
		e.logger.Info("sync push complete", "entries", n)
	}

	if err := e.Pull(ctx); err != nil {
		e.logger.Error("sync pull failed", "error", err)
	}
}
