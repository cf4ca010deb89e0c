package ward

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new ward.
	Create(ctx context.Context, w *Ward) error

	// GetByID retrieves a ward by primary key. Returns ErrWardNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Ward, error)

	// List returns all wards ordered by creation time.
	List(ctx context.Context) ([]*Ward, error)

	// Count returns the total number of wards.
	Count(ctx context.Context) (int64, error)

	// Delete removes a ward. Bed cleanup cascades at the storage layer.
	Delete(ctx context.Context, id uuid.UUID) error
}
