package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/therobotcowboy/inventory-manager/internal/classify"
	"github.com/therobotcowboy/inventory-manager/internal/domain"
	"github.com/therobotcowboy/inventory-manager/internal/resolver"
	"github.com/therobotcowboy/inventory-manager/internal/store"
)

var (
	// ErrItemNotFound means no item matched the command's name.
	ErrItemNotFound = errors.New("item not found")
	// ErrNeedsClarification means the parser flagged the command as ambiguous
	// and the processor refused to act on it.
	ErrNeedsClarification = errors.New("command requires clarification")
)

// AmbiguousItemError means more than one item matched by name. The processor
// never guesses; the caller must disambiguate and retry.
type AmbiguousItemError struct {
	Query   string
	Matches []string
}

func (e *AmbiguousItemError) Error() string {
	return fmt.Sprintf("ambiguous item %q: %d matches (%s)", e.Query, len(e.Matches), strings.Join(e.Matches, ", "))
}

// itemStore is the subset of store.ItemStore that Processor requires.
type itemStore interface {
	List(ctx context.Context) ([]*domain.Item, error)
	FindByName(ctx context.Context, name string) ([]*domain.Item, error)
	FindByNameInLocation(ctx context.Context, name, locationID string) ([]*domain.Item, error)
	Create(ctx context.Context, item *domain.Item) error
	Update(ctx context.Context, id string, upd store.ItemUpdate) (*domain.Item, error)
}

type transactionLog interface {
	Append(ctx context.Context, txn *domain.InventoryTransaction) error
}

type locationResolver interface {
	ResolvePath(ctx context.Context, pathText string) (string, error)
	ResolveLocation(ctx context.Context, name string) (string, bool, error)
}

type Processor struct {
	items           itemStore
	txns            transactionLog
	locations       locationResolver
	matcher         resolver.Matcher
	defaultLocation string
	logger          *slog.Logger
}

// NewProcessor creates a Processor. defaultLocation names the location path
// used for ADD commands that carry none (e.g. "Workshop"). A nil matcher
// falls back to ContainsMatcher.
func NewProcessor(items itemStore, txns transactionLog, locations locationResolver, matcher resolver.Matcher, defaultLocation string, logger *slog.Logger) *Processor {
	if matcher == nil {
		matcher = resolver.ContainsMatcher{}
	}
	return &Processor{
		items:           items,
		txns:            txns,
		locations:       locations,
		matcher:         matcher,
		defaultLocation: defaultLocation,
		logger:          logger,
	}
}

// Result is the outcome of a processed command. Item is the created or
// mutated item; Items carries QUERY matches; IsNew marks implicit creation.
type Result struct {
	Item  *domain.Item
	Items []*domain.Item
	IsNew bool
}

// Process applies one command against the local store. Commands flagged for
// clarification are rejected before any read or write.
func (p *Processor) Process(ctx context.Context, cmd Command) (*Result, error) {
	if c := cmd.clarification(); c.Required {
		if c.Question != "" {
			return nil, fmt.Errorf("%w: %s", ErrNeedsClarification, c.Question)
		}
		return nil, ErrNeedsClarification
	}

	switch c := cmd.(type) {
	case *Add:
		return p.processAdd(ctx, c)
	case *Remove:
		return p.processRemove(ctx, c)
	case *Move:
		return p.processMove(ctx, c)
	case *Query:
		return p.processQuery(ctx, c)
	default:
		return nil, fmt.Errorf("unsupported command type %T", cmd)
	}
}

func (p *Processor) processAdd(ctx context.Context, cmd *Add) (*Result, error) {
	locText := cmd.Location
	if strings.TrimSpace(locText) == "" {
		locText = p.defaultLocation
	}
	locationID, err := p.locations.ResolvePath(ctx, locText)
	if err != nil {
		return nil, err
	}

	qty := defaultQuantity(cmd.Quantity)
	name := strings.TrimSpace(cmd.Item)

	existing, err := p.findInScope(ctx, name, locationID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		converted := convertQuantity(qty, cmd.Unit, existing)
		newQty := existing.Quantity.Add(converted)
		updated, err := p.items.Update(ctx, existing.ID, store.ItemUpdate{
			Quantity:     &newQty,
			TxnType:      domain.TransactionRestock,
			JobReference: cmd.JobReference,
		})
		if err != nil {
			return nil, err
		}
		p.logger.Info("added stock", "item", updated.Name, "quantity", updated.Quantity)
		return &Result{Item: updated}, nil
	}

	cls := classify.Classify(name)
	item := &domain.Item{
		Name:              name,
		ItemType:          cls.Type,
		IsAsset:           cls.IsAsset,
		Quantity:          qty,
		LocationID:        locationID,
		LowStockThreshold: cls.DefaultThreshold,
	}
	if err := p.items.Create(ctx, item); err != nil {
		return nil, err
	}
	err = p.txns.Append(ctx, &domain.InventoryTransaction{
		ItemID:          item.ID,
		TransactionType: domain.TransactionInitialStock,
		ChangeAmount:    item.Quantity,
		JobReference:    cmd.JobReference,
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("created item", "item", item.Name, "type", item.ItemType, "quantity", item.Quantity)
	return &Result{Item: item, IsNew: true}, nil
}

func (p *Processor) processRemove(ctx context.Context, cmd *Remove) (*Result, error) {
	locationID := ""
	if strings.TrimSpace(cmd.Location) != "" {
		// Lookup only; a REMOVE never creates locations.
		if id, ok, err := p.locations.ResolveLocation(ctx, cmd.Location); err != nil {
			return nil, err
		} else if ok {
			locationID = id
		}
	}

	name := strings.TrimSpace(cmd.Item)
	existing, err := p.findInScope(ctx, name, locationID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("remove %q: %w", name, ErrItemNotFound)
	}

	qty := defaultQuantity(cmd.Quantity)
	converted := convertQuantity(qty, cmd.Unit, existing)
	// May go negative here; the store floors it at zero and records the
	// actual delta, not the requested amount.
	newQty := existing.Quantity.Sub(converted)
	updated, err := p.items.Update(ctx, existing.ID, store.ItemUpdate{
		Quantity:     &newQty,
		TxnType:      domain.TransactionJobUsage,
		JobReference: cmd.JobReference,
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("removed stock", "item", updated.Name, "quantity", updated.Quantity, "job", cmd.JobReference)
	return &Result{Item: updated}, nil
}

func (p *Processor) processMove(ctx context.Context, cmd *Move) (*Result, error) {
	if strings.TrimSpace(cmd.To) == "" {
		return nil, fmt.Errorf("move %q: no destination", cmd.Item)
	}

	matches, err := p.matchItems(ctx, cmd.Item)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("move %q: %w", cmd.Item, ErrItemNotFound)
	}
	if len(matches) > 1 {
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Name
		}
		return nil, &AmbiguousItemError{Query: cmd.Item, Matches: names}
	}

	destID, err := p.locations.ResolvePath(ctx, cmd.To)
	if err != nil {
		return nil, err
	}

	// Location change only; the TRANSFER record carries a zero amount.
	updated, err := p.items.Update(ctx, matches[0].ID, store.ItemUpdate{
		LocationID: &destID,
		TxnType:    domain.TransactionTransfer,
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("moved item", "item", updated.Name, "location_id", destID)
	return &Result{Item: updated}, nil
}

func (p *Processor) processQuery(ctx context.Context, cmd *Query) (*Result, error) {
	matches, err := p.matchItems(ctx, cmd.Item)
	if err != nil {
		return nil, err
	}
	return &Result{Items: matches}, nil
}

// findInScope returns the first exact name match, scoped to locationID when
// one is known and searched globally otherwise. Nil means no match.
func (p *Processor) findInScope(ctx context.Context, name, locationID string) (*domain.Item, error) {
	var (
		candidates []*domain.Item
		err        error
	)
	if locationID != "" {
		candidates, err = p.items.FindByNameInLocation(ctx, name, locationID)
	} else {
		candidates, err = p.items.FindByName(ctx, name)
	}
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return candidates[0], nil
}

// matchItems resolves a name against all items: exact case-insensitive
// matches first, falling back to the fuzzy matcher only when there are none.
func (p *Processor) matchItems(ctx context.Context, name string) ([]*domain.Item, error) {
	all, err := p.items.List(ctx)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(name))
	var exact, fuzzy []*domain.Item
	for _, item := range all {
		itemName := strings.ToLower(item.Name)
		if itemName == query {
			exact = append(exact, item)
		} else if p.matcher.Match(itemName, query) {
			fuzzy = append(fuzzy, item)
		}
	}

	if len(exact) > 0 {
		return exact, nil
	}
	return fuzzy, nil
}

func defaultQuantity(qty decimal.Decimal) decimal.Decimal {
	if qty.IsPositive() {
		return qty
	}
	return decimal.NewFromInt(1)
}

// convertQuantity converts a commanded quantity into base units. It applies
// the item's conversion rate only when the spoken unit matches the item's
// purchase unit, tolerating case and simple plurals ("boxes" == "Box").
func convertQuantity(qty decimal.Decimal, unit string, item *domain.Item) decimal.Decimal {
	if unit == "" || item.PurchaseUnit == "" {
		return qty
	}
	if !unitsMatch(unit, item.PurchaseUnit) {
		return qty
	}
	return qty.Mul(item.ConversionRate)
}

func unitsMatch(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	return a == b || a == b+"s" || a == b+"es" || b == a+"s" || b == a+"es"
}
