// Package remote talks to the remote row store: a table service addressable
// by table name and row id. The sync engine is its only caller.
package remote

import (
	"context"
	"encoding/json"
)

// Store is the contract with the remote table service. Pushes are delivered
// at least once, so Insert MUST behave as an upsert: re-inserting an existing
// row id succeeds instead of failing on a duplicate key.
type Store interface {
	Insert(ctx context.Context, table string, row json.RawMessage) error
	Update(ctx context.Context, table, id string, row json.RawMessage) error
	Delete(ctx context.Context, table, id string) error
	SelectAll(ctx context.Context, table string) ([]json.RawMessage, error)
}
