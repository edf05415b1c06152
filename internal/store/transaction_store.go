package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/therobotcowboy/inventory-manager/internal/domain"
)

// TransactionStore appends and reads the local audit ledger. Records are
// append-only; there are no update or delete methods.
type TransactionStore struct {
	db *sql.DB
}

func NewTransactionStore(db *sql.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

func (s *TransactionStore) Append(ctx context.Context, txn *domain.InventoryTransaction) error {
	return insertTransaction(ctx, s.db, txn)
}

func (s *TransactionStore) ListByItemID(ctx context.Context, itemID string) ([]*domain.InventoryTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_id, transaction_type, change_amount, job_reference, timestamp
		FROM inventory_transactions
		WHERE item_id = ?
		ORDER BY timestamp ASC, id ASC
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var txns []*domain.InventoryTransaction
	for rows.Next() {
		txn := &domain.InventoryTransaction{}
		var (
			txnType, change string
			jobRef          sql.NullString
		)
		if err := rows.Scan(&txn.ID, &txn.ItemID, &txnType, &change, &jobRef, &txn.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.TransactionType = domain.TransactionType(txnType)
		txn.JobReference = jobRef.String
		if txn.ChangeAmount, err = parseDecimal(change); err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txns, nil
}
