package service

import (
	"errors"
	"strings"
)

var (
	// ErrAdjacencyRisk means the placement would put an infectious and a
	// non-infectious patient in orthogonally neighboring beds.
	ErrAdjacencyRisk = errors.New("placement violates infection adjacency constraint")

	// ErrBedLockTimeout means the operation lost the race for per-bed mutual
	// exclusion. State is unchanged; the caller may retry.
	ErrBedLockTimeout = errors.New("timed out waiting for bed lock")

	ErrNoAvailableBeds = errors.New("ward has no available beds")
	ErrNoSafeBed       = errors.New("no available bed passes the adjacency check")
)

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}
