package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/therobotcowboy/inventory-manager/internal/domain"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// enqueueOutbox appends one pending remote mutation. It must run inside the
// same transaction as the entity write it shadows.
func enqueueOutbox(ctx context.Context, ex execer, table string, action domain.OutboxAction, rowID string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	_, err = ex.ExecContext(ctx, `
		INSERT INTO outbox_queue (id, timestamp, table_name, action, row_id, payload, synced)
		VALUES (?, ?, ?, ?, ?, ?, 0)
	`, uuid.NewString(), time.Now().UTC(), table, string(action), rowID, string(data))
	if err != nil {
		return fmt.Errorf("failed to enqueue outbox entry: %w", err)
	}

	return nil
}

// insertTransaction appends an immutable ledger record. Missing id/timestamp
// are filled in.
func insertTransaction(ctx context.Context, ex execer, txn *domain.InventoryTransaction) error {
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	if txn.Timestamp.IsZero() {
		txn.Timestamp = time.Now().UTC()
	}

	_, err := ex.ExecContext(ctx, `
		INSERT INTO inventory_transactions (id, item_id, transaction_type, change_amount, job_reference, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`, txn.ID, txn.ItemID, string(txn.TransactionType), txn.ChangeAmount.String(), nullString(txn.JobReference), txn.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad decimal %q: %w", s, err)
	}
	return d, nil
}

func parseNullDecimal(s sql.NullString) (decimal.NullDecimal, error) {
	if !s.Valid {
		return decimal.NullDecimal{}, nil
	}
	d, err := parseDecimal(s.String)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

func nullDecimalString(d decimal.NullDecimal) sql.NullString {
	if !d.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Decimal.String(), Valid: true}
}
