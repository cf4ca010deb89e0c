package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/isoward/isoward/internal/domain/bed"
	"github.com/isoward/isoward/internal/domain/patient"
)

// RiskEvaluator decides whether placing (or keeping) a candidate patient at
// a grid slot violates the isolation constraint. The rule: infectious and
// non-infectious occupants must not be orthogonal neighbors; two infectious
// occupants may cohort.
//
// Every call inspects the live grid. Results are never cached: the check
// must reflect the state at the instant of placement.
type RiskEvaluator struct {
	beds     bed.Repository
	patients patient.Repository
}

func NewRiskEvaluator(beds bed.Repository, patients patient.Repository) *RiskEvaluator {
	return &RiskEvaluator{beds: beds, patients: patients}
}

// HasAdjacencyRisk reports whether a candidate with the given infection
// status may not be placed at (row, col) in the ward. Neighbor coordinates
// with a negative component are discarded; coordinates beyond the grid
// simply match no bed. Returns true as soon as one qualifying neighbor is
// found.
func (e *RiskEvaluator) HasAdjacencyRisk(ctx context.Context, wardID uuid.UUID, row, col int, candidateInfectious bool) (bool, error) {
	coords := neighborCoords(row, col)

	occupied, err := e.beds.ListNeighbors(ctx, wardID, coords, bed.StatusOccupied)
	if err != nil {
		return false, fmt.Errorf("listing neighbor beds: %w", err)
	}

	for _, neighbor := range occupied {
		occupant, err := e.patients.GetByBed(ctx, neighbor.ID)
		if err != nil {
			if errors.Is(err, patient.ErrPatientNotFound) {
				continue
			}
			return false, fmt.Errorf("looking up occupant of bed %s: %w", neighbor.ID, err)
		}

		if occupant.Condition.IsInfectious() != candidateInfectious {
			return true, nil
		}
	}

	return false, nil
}

// BlockedBeds returns the IDs of AVAILABLE beds in the ward that currently
// fail the adjacency check for a hypothetical candidate. This backs the
// view-only BLOCKED annotation; it never persists anything.
func (e *RiskEvaluator) BlockedBeds(ctx context.Context, wardID uuid.UUID, candidateInfectious bool) (map[uuid.UUID]bool, error) {
	status := bed.StatusAvailable
	available, err := e.beds.ListByWard(ctx, wardID, &status)
	if err != nil {
		return nil, fmt.Errorf("listing available beds: %w", err)
	}

	blocked := make(map[uuid.UUID]bool, len(available))
	for _, b := range available {
		risky, err := e.HasAdjacencyRisk(ctx, wardID, b.Row, b.Col, candidateInfectious)
		if err != nil {
			return nil, err
		}
		if risky {
			blocked[b.ID] = true
		}
	}
	return blocked, nil
}

func neighborCoords(row, col int) []bed.Coordinate {
	candidates := []bed.Coordinate{
		{Row: row - 1, Col: col},
		{Row: row + 1, Col: col},
		{Row: row, Col: col - 1},
		{Row: row, Col: col + 1},
	}

	coords := candidates[:0]
	for _, c := range candidates {
		if c.Row >= 0 && c.Col >= 0 {
			coords = append(coords, c)
		}
	}
	return coords
}
