package booking

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create opens a new occupancy episode. Returns ErrActiveBookingExists
	// when the bed or patient already has an ACTIVE booking.
	Create(ctx context.Context, b *Booking) error

	// GetActive returns the single ACTIVE booking for (patient, bed), or
	// ErrBookingNotFound.
	GetActive(ctx context.Context, patientID, bedID uuid.UUID) (*Booking, error)

	// CloseActive flips the ACTIVE booking for (patient, bed) to DISCHARGED
	// and stamps its end date. Returns ErrBookingNotFound when no active
	// episode exists.
	CloseActive(ctx context.Context, patientID, bedID uuid.UUID) (*Booking, error)

	// List returns booking history, newest first.
	List(ctx context.Context, patientID *uuid.UUID) ([]*Booking, error)
}
