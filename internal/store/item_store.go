package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/therobotcowboy/inventory-manager/internal/domain"
)

const itemColumns = `id, name, item_type, is_asset, quantity, base_unit, purchase_unit, conversion_rate, location_id, low_stock_threshold, updated_at`

type ItemStore struct {
	db *sql.DB
}

func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db}
}

// ItemUpdate carries the fields to merge into an item. Nil pointers leave the
// current value untouched.
type ItemUpdate struct {
	Name              *string
	ItemType          *domain.ItemType
	IsAsset           *bool
	Quantity          *decimal.Decimal
	BaseUnit          *string
	PurchaseUnit      *string
	ConversionRate    *decimal.Decimal
	LocationID        *string
	LowStockThreshold *decimal.NullDecimal

	// TxnType overrides the ledger classification heuristic (RESTOCK on
	// increase, JOB_USAGE on decrease). With TxnType set a record is written
	// even when the quantity delta is zero, e.g. a TRANSFER.
	TxnType      domain.TransactionType
	JobReference string
}

// Create inserts a new item and its outbox INSERT as one transaction.
// Missing id and defaults are filled in; asset quantities are clamped.
func (s *ItemStore) Create(ctx context.Context, item *domain.Item) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.ItemType == "" {
		item.ItemType = domain.ItemTypePart
	}
	if item.BaseUnit == "" {
		item.BaseUnit = "Ea"
	}
	if item.ConversionRate.IsZero() {
		item.ConversionRate = decimal.NewFromInt(1)
	}
	item.UpdatedAt = time.Now().UTC()
	item.ClampQuantity()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.Name, string(item.ItemType), item.IsAsset, item.Quantity.String(),
		item.BaseUnit, nullString(item.PurchaseUnit), item.ConversionRate.String(),
		nullString(item.LocationID), nullDecimalString(item.LowStockThreshold), item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	if err := enqueueOutbox(ctx, tx, domain.TableItems, domain.OutboxInsert, item.ID, item); err != nil {
		return err
	}

	return tx.Commit()
}

// Update re-reads the item, merges upd, stamps updated_at, and writes the
// item, its outbox UPDATE, and any ledger record as one transaction. The
// ledger change amount is the actual (post-clamp) delta.
func (s *ItemStore) Update(ctx context.Context, id string, upd ItemUpdate) (*domain.Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	item, err := scanItem(tx.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	oldQty := item.Quantity

	if upd.Name != nil {
		item.Name = *upd.Name
	}
	if upd.ItemType != nil {
		item.ItemType = *upd.ItemType
	}
	if upd.IsAsset != nil {
		item.IsAsset = *upd.IsAsset
	}
	if upd.Quantity != nil {
		item.Quantity = *upd.Quantity
	}
	if upd.BaseUnit != nil {
		item.BaseUnit = *upd.BaseUnit
	}
	if upd.PurchaseUnit != nil {
		item.PurchaseUnit = *upd.PurchaseUnit
	}
	if upd.ConversionRate != nil {
		item.ConversionRate = *upd.ConversionRate
	}
	if upd.LocationID != nil {
		item.LocationID = *upd.LocationID
	}
	if upd.LowStockThreshold != nil {
		item.LowStockThreshold = *upd.LowStockThreshold
	}
	item.UpdatedAt = time.Now().UTC()
	item.ClampQuantity()

	_, err = tx.ExecContext(ctx, `
		UPDATE items
		SET name = ?, item_type = ?, is_asset = ?, quantity = ?, base_unit = ?,
		    purchase_unit = ?, conversion_rate = ?, location_id = ?, low_stock_threshold = ?, updated_at = ?
		WHERE id = ?
	`, item.Name, string(item.ItemType), item.IsAsset, item.Quantity.String(), item.BaseUnit,
		nullString(item.PurchaseUnit), item.ConversionRate.String(), nullString(item.LocationID),
		nullDecimalString(item.LowStockThreshold), item.UpdatedAt, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	if err := enqueueOutbox(ctx, tx, domain.TableItems, domain.OutboxUpdate, item.ID, item); err != nil {
		return nil, err
	}

	delta := item.Quantity.Sub(oldQty)
	if !delta.IsZero() || upd.TxnType != "" {
		txnType := upd.TxnType
		if txnType == "" {
			txnType = domain.TransactionRestock
			if delta.IsNegative() {
				txnType = domain.TransactionJobUsage
			}
		}
		err := insertTransaction(ctx, tx, &domain.InventoryTransaction{
			ItemID:          item.ID,
			TransactionType: txnType,
			ChangeAmount:    delta,
			JobReference:    upd.JobReference,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return item, nil
}

// Delete writes a closing LOSS record for the remaining quantity, removes the
// item, and queues the remote DELETE, all as one transaction.
func (s *ItemStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	item, err := scanItem(tx.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id))
	if err != nil {
		return err
	}

	err = insertTransaction(ctx, tx, &domain.InventoryTransaction{
		ItemID:          item.ID,
		TransactionType: domain.TransactionLoss,
		ChangeAmount:    item.Quantity.Neg(),
	})
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	payload := struct {
		ID string `json:"id"`
	}{ID: id}
	if err := enqueueOutbox(ctx, tx, domain.TableItems, domain.OutboxDelete, id, payload); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *ItemStore) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	return scanItem(s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id))
}

func (s *ItemStore) List(ctx context.Context) ([]*domain.Item, error) {
	return s.queryItems(ctx, `SELECT `+itemColumns+` FROM items ORDER BY name ASC`)
}

// FindByName returns all items whose name matches exactly, case-insensitively.
func (s *ItemStore) FindByName(ctx context.Context, name string) ([]*domain.Item, error) {
	return s.queryItems(ctx, `SELECT `+itemColumns+` FROM items WHERE name = ? COLLATE NOCASE ORDER BY name ASC`, name)
}

// FindByNameInLocation is FindByName scoped to one location.
func (s *ItemStore) FindByNameInLocation(ctx context.Context, name, locationID string) ([]*domain.Item, error) {
	return s.queryItems(ctx, `
		SELECT `+itemColumns+` FROM items
		WHERE name = ? COLLATE NOCASE AND location_id = ?
		ORDER BY name ASC
	`, name, locationID)
}

// BulkUpsert overwrites local copies with remote rows, keyed by id. No outbox
// entries are written; this is the pull path.
func (s *ItemStore) BulkUpsert(ctx context.Context, items []*domain.Item) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, item := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO items (`+itemColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name, item_type = excluded.item_type, is_asset = excluded.is_asset,
				quantity = excluded.quantity, base_unit = excluded.base_unit,
				purchase_unit = excluded.purchase_unit, conversion_rate = excluded.conversion_rate,
				location_id = excluded.location_id, low_stock_threshold = excluded.low_stock_threshold,
				updated_at = excluded.updated_at
		`, item.ID, item.Name, string(item.ItemType), item.IsAsset, item.Quantity.String(),
			item.BaseUnit, nullString(item.PurchaseUnit), item.ConversionRate.String(),
			nullString(item.LocationID), nullDecimalString(item.LowStockThreshold), item.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert item %s: %w", item.ID, err)
		}
	}

	return tx.Commit()
}

func (s *ItemStore) queryItems(ctx context.Context, query string, args ...any) ([]*domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var items []*domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.Item, error) {
	item := &domain.Item{}
	var (
		itemType, quantity, conversionRate string
		purchaseUnit, locationID, lowStock sql.NullString
	)

	err := row.Scan(&item.ID, &item.Name, &itemType, &item.IsAsset, &quantity, &item.BaseUnit,
		&purchaseUnit, &conversionRate, &locationID, &lowStock, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}

	item.ItemType = domain.ItemType(itemType)
	item.PurchaseUnit = purchaseUnit.String
	item.LocationID = locationID.String
	if item.Quantity, err = parseDecimal(quantity); err != nil {
		return nil, err
	}
	if item.ConversionRate, err = parseDecimal(conversionRate); err != nil {
		return nil, err
	}
	if item.LowStockThreshold, err = parseNullDecimal(lowStock); err != nil {
		return nil, err
	}

	return item, nil
}
