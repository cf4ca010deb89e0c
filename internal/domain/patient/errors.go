package patient

import "errors"

var (
	ErrPatientNotFound  = errors.New("patient not found")
	ErrPatientNotBedded = errors.New("patient does not occupy a bed")
	ErrInvalidCondition = errors.New("invalid patient condition")
	ErrNameRequired     = errors.New("patient name is required")
	ErrInvalidAge       = errors.New("patient age must be non-negative")
)
