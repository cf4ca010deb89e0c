package bed

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// CreateBatch persists the full bed grid of a newly initialized ward.
	CreateBatch(ctx context.Context, beds []*Bed) error

	// GetByID retrieves a bed by primary key. Returns ErrBedNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Bed, error)

	// GetBySlot retrieves the bed at (row, col) within a ward.
	GetBySlot(ctx context.Context, wardID uuid.UUID, row, col int) (*Bed, error)

	// ListByWard returns a ward's beds ordered by (row, col). A nil status
	// filter returns all beds.
	ListByWard(ctx context.Context, wardID uuid.UUID, status *Status) ([]*Bed, error)

	// ListNeighbors returns beds at the given (row, col) coordinates within a
	// ward, filtered to the given status. Coordinates that match no bed are
	// silently skipped.
	ListNeighbors(ctx context.Context, wardID uuid.UUID, coords []Coordinate, status Status) ([]*Bed, error)

	// Save writes a bed's current state. Implementations check the bed's
	// Version against the stored row and return ErrVersionConflict on
	// mismatch; on success the version is incremented.
	Save(ctx context.Context, b *Bed) error

	// CountByStatus returns the number of beds in the given status, across
	// all wards when wardID is nil.
	CountByStatus(ctx context.Context, wardID *uuid.UUID, status Status) (int64, error)
}

// Coordinate addresses one grid slot.
type Coordinate struct {
	Row int
	Col int
}
