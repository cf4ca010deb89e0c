package bed

import "errors"

var (
	ErrBedNotFound             = errors.New("bed not found")
	ErrBedUnavailable          = errors.New("bed is not available")
	ErrBedOccupied             = errors.New("bed is occupied")
	ErrBedNotOccupied          = errors.New("bed has no occupant")
	ErrInvalidStatusTransition = errors.New("invalid bed status transition")
	ErrInvalidStatus           = errors.New("invalid bed status value")
	// ErrVersionConflict means a status write lost a race: the bed row changed
	// between read and write. Callers should retry or surface a conflict.
	ErrVersionConflict = errors.New("bed was modified concurrently")
)
