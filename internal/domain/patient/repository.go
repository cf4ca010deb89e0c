package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new patient record.
	Create(ctx context.Context, p *Patient) error

	// GetByID retrieves a patient by primary key. Returns ErrPatientNotFound
	// if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	// GetByBed returns the current occupant of a bed, or ErrPatientNotFound
	// when the bed is vacant.
	GetByBed(ctx context.Context, bedID uuid.UUID) (*Patient, error)

	// ListByWard returns patients currently bedded in the given ward.
	ListByWard(ctx context.Context, wardID uuid.UUID) ([]*Patient, error)

	// List returns patients matching the query, newest first.
	List(ctx context.Context, q *ListPatientsQuery) ([]*Patient, error)

	// Save writes the patient's current state.
	Save(ctx context.Context, p *Patient) error

	// CountBedded returns how many patients currently occupy a bed,
	// optionally restricted to one condition.
	CountBedded(ctx context.Context, condition *Condition) (int64, error)
}
