package ward

import "errors"

var (
	ErrWardNotFound     = errors.New("ward not found")
	ErrNameRequired     = errors.New("ward name is required")
	ErrInvalidGridShape = errors.New("ward grid dimensions must be positive")
)
