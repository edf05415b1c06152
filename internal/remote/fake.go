package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Fake is an in-memory Store for tests. FailOn, when set, is consulted before
// every operation and lets tests inject per-call failures.
type Fake struct {
	mu     sync.Mutex
	tables map[string]map[string]json.RawMessage

	FailOn func(op, table, id string) error
}

func NewFake() *Fake {
	return &Fake{tables: make(map[string]map[string]json.RawMessage)}
}

func (f *Fake) Insert(_ context.Context, table string, row json.RawMessage) error {
	id, err := rowID(row)
	if err != nil {
		return err
	}
	if err := f.fail("INSERT", table, id); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	// Upsert, matching the Store contract for at-least-once pushes.
	f.table(table)[id] = row
	return nil
}

func (f *Fake) Update(_ context.Context, table, id string, row json.RawMessage) error {
	if err := f.fail("UPDATE", table, id); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.table(table)[id]; !ok {
		return fmt.Errorf("row %s/%s not found", table, id)
	}
	f.table(table)[id] = row
	return nil
}

func (f *Fake) Delete(_ context.Context, table, id string) error {
	if err := f.fail("DELETE", table, id); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.table(table), id)
	return nil
}

func (f *Fake) SelectAll(_ context.Context, table string) ([]json.RawMessage, error) {
	if err := f.fail("SELECT", table, ""); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	rows := make([]json.RawMessage, 0, len(f.table(table)))
	for _, row := range f.table(table) {
		rows = append(rows, row)
	}
	return rows, nil
}

// Put seeds a row directly, bypassing FailOn.
func (f *Fake) Put(table, id string, row json.RawMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.table(table)[id] = row
}

// Row returns the stored row and whether it exists.
func (f *Fake) Row(table, id string) (json.RawMessage, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.table(table)[id]
	return row, ok
}

// Len returns the number of rows in table.
func (f *Fake) Len(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.table(table))
}

func (f *Fake) table(name string) map[string]json.RawMessage {
	if f.tables[name] == nil {
		f.tables[name] = make(map[string]json.RawMessage)
	}
	return f.tables[name]
}

func (f *Fake) fail(op, table, id string) error {
	if f.FailOn == nil {
		return nil
	}
	return f.FailOn(op, table, id)
}

func rowID(row json.RawMessage) (string, error) {
	var v struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(row, &v); err != nil {
		return "", fmt.Errorf("failed to read row id: %w", err)
	}
	if v.ID == "" {
		return "", fmt.Errorf("row has no id")
	}
	return v.ID, nil
}
