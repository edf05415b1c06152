package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/therobotcowboy/inventory-manager/internal/domain"
)

type LocationStore struct {
	db *sql.DB
}

func NewLocationStore(db *sql.DB) *LocationStore {
	return &LocationStore{db: db}
}

// Create inserts a new location and its outbox INSERT as one transaction.
func (s *LocationStore) Create(ctx context.Context, loc *domain.Location) error {
	if loc.ID == "" {
		loc.ID = uuid.NewString()
	}
	if loc.Type == "" {
		loc.Type = domain.LocationTypeLocation
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO locations (id, name, type, parent_id, is_system_default)
		VALUES (?, ?, ?, ?, ?)
	`, loc.ID, loc.Name, string(loc.Type), nullString(loc.ParentID), loc.IsSystemDefault)
	if err != nil {
		return fmt.Errorf("failed to create location: %w", err)
	}

	if err := enqueueOutbox(ctx, tx, domain.TableLocations, domain.OutboxInsert, loc.ID, loc); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *LocationStore) GetByID(ctx context.Context, id string) (*domain.Location, error) {
	return scanLocation(s.db.QueryRowContext(ctx, `
		SELECT id, name, type, parent_id, is_system_default FROM locations WHERE id = ?
	`, id))
}

func (s *LocationStore) List(ctx context.Context) ([]*domain.Location, error) {
	return s.queryLocations(ctx, `
		SELECT id, name, type, parent_id, is_system_default FROM locations ORDER BY name ASC
	`)
}

// ListChildren returns the direct children of parentID; parentID == ""
// returns root-level locations.
func (s *LocationStore) ListChildren(ctx context.Context, parentID string) ([]*domain.Location, error) {
	if parentID == "" {
		return s.queryLocations(ctx, `
			SELECT id, name, type, parent_id, is_system_default FROM locations
			WHERE parent_id IS NULL ORDER BY name ASC
		`)
	}
	return s.queryLocations(ctx, `
		SELECT id, name, type, parent_id, is_system_default FROM locations
		WHERE parent_id = ? ORDER BY name ASC
	`, parentID)
}

// Delete removes a location and queues the remote DELETE. It refuses with
// LocationNotEmptyError while any child location or item still references the
// location, performing no writes.
func (s *LocationStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var children, items int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM locations WHERE parent_id = ?`, id).Scan(&children); err != nil {
		return fmt.Errorf("failed to count child locations: %w", err)
	}
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE location_id = ?`, id).Scan(&items); err != nil {
		return fmt.Errorf("failed to count items in location: %w", err)
	}
	if children > 0 || items > 0 {
		return &LocationNotEmptyError{LocationID: id, Children: children, Items: items}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM locations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("location: %w", ErrNotFound)
	}

	payload := struct {
		ID string `json:"id"`
	}{ID: id}
	if err := enqueueOutbox(ctx, tx, domain.TableLocations, domain.OutboxDelete, id, payload); err != nil {
		return err
	}

	return tx.Commit()
}

// BulkUpsert overwrites local copies with remote rows, keyed by id. No outbox
// entries are written; this is the pull path.
func (s *LocationStore) BulkUpsert(ctx context.Context, locs []*domain.Location) error {
	if len(locs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, loc := range locs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO locations (id, name, type, parent_id, is_system_default)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name, type = excluded.type,
				parent_id = excluded.parent_id, is_system_default = excluded.is_system_default
		`, loc.ID, loc.Name, string(loc.Type), nullString(loc.ParentID), loc.IsSystemDefault)
		if err != nil {
			return fmt.Errorf("failed to upsert location %s: %w", loc.ID, err)
		}
	}

	return tx.Commit()
}

func (s *LocationStore) queryLocations(ctx context.Context, query string, args ...any) ([]*domain.Location, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var locs []*domain.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locs = append(locs, loc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locations: %w", err)
	}

	return locs, nil
}

func scanLocation(row rowScanner) (*domain.Location, error) {
	loc := &domain.Location{}
	var (
		locType  string
		parentID sql.NullString
	)

	err := row.Scan(&loc.ID, &loc.Name, &locType, &parentID, &loc.IsSystemDefault)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("location: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan location: %w", err)
	}

	loc.Type = domain.LocationType(locType)
	loc.ParentID = parentID.String
	return loc, nil
}
