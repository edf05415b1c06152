package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/therobotcowboy/inventory-manager/internal/domain"
)

// OutboxStore reads and settles the pending-mutation queue. Entries are only
// ever created through the entity stores, inside their transactions.
type OutboxStore struct {
	db *sql.DB
}

func NewOutboxStore(db *sql.DB) *OutboxStore {
	return &OutboxStore{db: db}
}

// Pending returns all unsynced entries in enqueue order.
func (s *OutboxStore) Pending(ctx context.Context) ([]*domain.OutboxEntry, error) {
	return s.queryEntries(ctx, `
		SELECT seq, id, timestamp, table_name, action, row_id, payload, synced
		FROM outbox_queue
		WHERE synced = 0
		ORDER BY seq ASC
	`)
}

// All returns every entry, synced or not, in enqueue order. Entries are kept
// after syncing for audit.
func (s *OutboxStore) All(ctx context.Context) ([]*domain.OutboxEntry, error) {
	return s.queryEntries(ctx, `
		SELECT seq, id, timestamp, table_name, action, row_id, payload, synced
		FROM outbox_queue
		ORDER BY seq ASC
	`)
}

// MarkSynced records a confirmed remote acknowledgement for one entry.
func (s *OutboxStore) MarkSynced(ctx context.Context, seq int64) error {
	result, err := s.db.ExecContext(ctx, `UPDATE outbox_queue SET synced = 1 WHERE seq = ?`, seq)
	if err != nil {
		return fmt.Errorf("failed to mark outbox entry synced: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("outbox entry %d: %w", seq, ErrNotFound)
	}
	return nil
}

// PendingRowIDs returns the set of row identifiers in table with at least one
// unsynced entry. The pull path uses this to avoid clobbering unpushed edits.
func (s *OutboxStore) PendingRowIDs(ctx context.Context, table string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT row_id FROM outbox_queue WHERE table_name = ? AND synced = 0
	`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending row ids: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan row id: %w", err)
		}
		ids[id] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating row ids: %w", err)
	}

	return ids, nil
}

func (s *OutboxStore) queryEntries(ctx context.Context, query string, args ...any) ([]*domain.OutboxEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var entries []*domain.OutboxEntry
	for rows.Next() {
		entry := &domain.OutboxEntry{}
		var (
			action  string
			payload string
		)
		if err := rows.Scan(&entry.Seq, &entry.ID, &entry.Timestamp, &entry.Table, &action, &entry.RowID, &payload, &entry.Synced); err != nil {
			return nil, fmt.Errorf("failed to scan outbox entry: %w", err)
		}
		entry.Action = domain.OutboxAction(action)
		entry.Payload = []byte(payload)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox: %w", err)
	}

	return entries, nil
}
