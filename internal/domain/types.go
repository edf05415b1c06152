package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type ItemType string

const (
	ItemTypeTool       ItemType = "Tool"
	ItemTypePart       ItemType = "Part"
	ItemTypeConsumable ItemType = "Consumable"
)

type LocationType string

const (
	LocationTypeRoot      LocationType = "ROOT"
	LocationTypeLocation  LocationType = "LOCATION"
	LocationTypeArea      LocationType = "AREA"
	LocationTypeContainer LocationType = "CONTAINER"
)

type TransactionType string

const (
	TransactionRestock      TransactionType = "RESTOCK"
	TransactionJobUsage     TransactionType = "JOB_USAGE"
	TransactionLoss         TransactionType = "LOSS"
	TransactionAdjustment   TransactionType = "ADJUSTMENT"
	TransactionInitialStock TransactionType = "INITIAL_STOCK"
	TransactionPurchase     TransactionType = "PURCHASE"
	TransactionTransfer     TransactionType = "TRANSFER"
)

// Remote table names mirrored by the outbox.
const (
	TableItems     = "items"
	TableLocations = "locations"
)

// Item is a trackable thing. Quantity is always in base units; a purchase
// unit (e.g. "Box") converts into base units via ConversionRate.
type Item struct {
	ID                string              `json:"id"`
	Name              string              `json:"name"`
	ItemType          ItemType            `json:"item_type"`
	IsAsset           bool                `json:"is_asset"`
	Quantity          decimal.Decimal     `json:"quantity"`
	BaseUnit          string              `json:"base_unit"`
	PurchaseUnit      string              `json:"purchase_unit,omitempty"`
	ConversionRate    decimal.Decimal     `json:"conversion_rate"`
	LocationID        string              `json:"location_id,omitempty"`
	LowStockThreshold decimal.NullDecimal `json:"low_stock_threshold"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// ClampQuantity enforces the quantity invariants in place: never negative,
// and exactly 0 or 1 for assets.
func (i *Item) ClampQuantity() {
	if i.Quantity.IsNegative() {
		i.Quantity = decimal.Zero
	}
	if i.IsAsset && i.Quantity.GreaterThan(decimal.NewFromInt(1)) {
		i.Quantity = decimal.NewFromInt(1)
	}
}

// Location is a node in a strict tree. ParentID == "" means root-level.
type Location struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Type            LocationType `json:"type"`
	ParentID        string       `json:"parent_id,omitempty"`
	IsSystemDefault bool         `json:"is_system_default,omitempty"`
}

// InventoryTransaction is an immutable ledger record of a quantity change
// and its cause. Records are never updated or deleted.
type InventoryTransaction struct {
	ID              string          `json:"id"`
	ItemID          string          `json:"item_id"`
	TransactionType TransactionType `json:"transaction_type"`
	ChangeAmount    decimal.Decimal `json:"change_amount"`
	JobReference    string          `json:"job_reference,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
}

type OutboxAction string

const (
	OutboxInsert OutboxAction = "INSERT"
	OutboxUpdate OutboxAction = "UPDATE"
	OutboxDelete OutboxAction = "DELETE"
)

// OutboxEntry is one pending remote mutation. Seq preserves enqueue order
// for FIFO draining; RowID is the identifier of the payload record.
type OutboxEntry struct {
	Seq       int64
	ID        string
	Timestamp time.Time
	Table     string
	Action    OutboxAction
	RowID     string
	Payload   json.RawMessage
	Synced    bool
}
