package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by lookups and mutations targeting a missing row.
var ErrNotFound = errors.New("not found")

// LocationNotEmptyError blocks deletion of a location that still has child
// locations or items assigned to it.
type LocationNotEmptyError struct {
	LocationID string
	Children   int
	Items      int
}

func (e *LocationNotEmptyError) Error() string {
	return fmt.Sprintf("location %s is not empty: %d child locations, %d items", e.LocationID, e.Children, e.Items)
}
