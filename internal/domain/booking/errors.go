package booking

import "errors"

var (
	ErrBookingNotFound  = errors.New("booking not found")
	ErrBookingNotActive = errors.New("booking is not active")
	// ErrActiveBookingExists means the bed or patient already has an ACTIVE
	// episode; the partial unique indexes surface as this error.
	ErrActiveBookingExists = errors.New("an active booking already exists")
)
