package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therobotcowboy/inventory-manager/internal/db"
	"github.com/therobotcowboy/inventory-manager/internal/domain"
	"github.com/therobotcowboy/inventory-manager/internal/remote"
	"github.com/therobotcowboy/inventory-manager/internal/store"
)

type engineEnv struct {
	engine    *Engine
	fake      *remote.Fake
	items     *store.ItemStore
	locations *store.LocationStore
	outbox    *store.OutboxStore
}

func newEngineEnv(t *testing.T) *engineEnv {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	items := store.NewItemStore(d)
	locations := store.NewLocationStore(d)
	outbox := store.NewOutboxStore(d)
	fake := remote.NewFake()

	return &engineEnv{
		engine:    NewEngine(outbox, items, locations, fake, slog.Default()),
		fake:      fake,
		items:     items,
		locations: locations,
		outbox:    outbox,
	}
}

func (e *engineEnv) createItem(t *testing.T, name string, qty int64) *domain.Item {
	t.Helper()
	item := &domain.Item{Name: name, Quantity: decimal.NewFromInt(qty)}
	require.NoError(t, e.items.Create(context.Background(), item))
	return item
}

func TestPushDrainsOutboxInOrder(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	loc := &domain.Location{Name: "Van", Type: domain.LocationTypeArea}
	require.NoError(t, env.locations.Create(ctx, loc))
	item := env.createItem(t, "Screws", 5)

	var ops []string
	env.fake.FailOn = func(op, table, id string) error {
		ops = append(ops, fmt.Sprintf("%s %s %s", op, table, id))
		return nil
	}

	n, err := env.engine.Push(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Equal(t, []string{
		"INSERT locations " + loc.ID,
		"INSERT items " + item.ID,
	}, ops)

	pending, err := env.outbox.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Equal(t, 1, env.fake.Len(domain.TableLocations))
	assert.Equal(t, 1, env.fake.Len(domain.TableItems))
}

// One failing entry is skipped and retried later; the entries around it land.
func TestPushPartialFailure(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	env.createItem(t, "First", 1)
	second := env.createItem(t, "Second", 2)
	env.createItem(t, "Third", 3)

	env.fake.FailOn = func(op, table, id string) error {
		if id == second.ID {
			return errors.New("connection reset")
		}
		return nil
	}

	n, err := env.engine.Push(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n, "all entries are attempted")

	pending, err := env.outbox.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].RowID)
	assert.Equal(t, 2, env.fake.Len(domain.TableItems))

	// Next pass retries only the failed entry.
	env.fake.FailOn = nil
	n, err = env.engine.Push(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pending, err = env.outbox.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Equal(t, 3, env.fake.Len(domain.TableItems))
}

func TestPushReplaysUpdateAndDelete(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	item := env.createItem(t, "Screws", 5)
	qty := decimal.NewFromInt(9)
	_, err := env.items.Update(ctx, item.ID, store.ItemUpdate{Quantity: &qty})
	require.NoError(t, err)

	doomed := env.createItem(t, "Old Tape", 1)
	require.NoError(t, env.items.Delete(ctx, doomed.ID))

	n, err := env.engine.Push(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	row, ok := env.fake.Row(domain.TableItems, item.ID)
	require.True(t, ok)
	var got domain.Item
	require.NoError(t, json.Unmarshal(row, &got))
	assert.Equal(t, "9", got.Quantity.String(), "update replayed after insert")

	_, ok = env.fake.Row(domain.TableItems, doomed.ID)
	assert.False(t, ok, "delete replayed after insert")
}

func TestPullUpsertsRemoteRows(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	seedRemote(t, env.fake, domain.TableLocations, &domain.Location{
		ID: "loc-1", Name: "Garage", Type: domain.LocationTypeArea,
	})
	seedRemote(t, env.fake, domain.TableItems, &domain.Item{
		ID: "item-1", Name: "Pipe Fittings", ItemType: domain.ItemTypePart,
		Quantity: decimal.NewFromInt(12), BaseUnit: "Ea",
		ConversionRate: decimal.NewFromInt(1), LocationID: "loc-1",
	})

	require.NoError(t, env.engine.Pull(ctx))

	loc, err := env.locations.GetByID(ctx, "loc-1")
	require.NoError(t, err)
	assert.Equal(t, "Garage", loc.Name)

	item, err := env.items.GetByID(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, "Pipe Fittings", item.Name)
	assert.Equal(t, "12", item.Quantity.String())
	assert.Equal(t, "loc-1", item.LocationID)

	// No pull writes flow back into the outbox.
	pending, err := env.outbox.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

// A row with a pending unsynced outbox entry keeps its local edit; the stale
// remote copy must not clobber it before the push lands.
func TestPullSkipsPendingLocalEdits(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	item := env.createItem(t, "Screws", 7)
	stale := *item
	stale.Quantity = decimal.NewFromInt(2)
	seedRemote(t, env.fake, domain.TableItems, &stale)

	require.NoError(t, env.engine.Pull(ctx))

	got, err := env.items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "7", got.Quantity.String())

	// Once pushed, the remote copy is current and pulls apply again.
	_, err = env.engine.Push(ctx)
	require.NoError(t, err)
	env.fake.Put(domain.TableItems, item.ID, mustMarshal(t, &stale))

	require.NoError(t, env.engine.Pull(ctx))
	got, err = env.items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "2", got.Quantity.String())
}

func TestPullFailureLeavesLocalUnchanged(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	item := env.createItem(t, "Screws", 7)
	_, err := env.engine.Push(ctx)
	require.NoError(t, err)

	env.fake.FailOn = func(op, table, id string) error {
		return errors.New("network unreachable")
	}

	err = env.engine.Pull(ctx)
	require.Error(t, err)

	got, err := env.items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "7", got.Quantity.String())
}

func TestRunSyncsImmediatelyAndStopsOnCancel(t *testing.T) {
	env := newEngineEnv(t)
	env.createItem(t, "Screws", 5)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		env.engine.Run(ctx, time.Hour, nil)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return env.fake.Len(domain.TableItems) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func seedRemote(t *testing.T, fake *remote.Fake, table string, row any) {
	t.Helper()
	var id string
	switch v := row.(type) {
	case *domain.Item:
		id = v.ID
	case *domain.Location:
		id = v.ID
	default:
		t.Fatalf("unsupported row type %T", row)
	}
	fake.Put(table, id, mustMarshal(t, row))
}

func mustMarshal(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
