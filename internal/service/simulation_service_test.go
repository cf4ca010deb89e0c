package service

import (
	"context"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/isoward/isoward/internal/domain/patient"
	"github.com/isoward/isoward/internal/domain/ward"
)

func newSimulation(f *fixture, seed int64) *SimulationService {
	return NewSimulationService(f.alloc, f.patients, rand.New(rand.NewSource(seed)), zap.NewNop())
}

func TestSimulationStepOnEmptyWard(t *testing.T) {
	f := newFixture(t)
	sim := newSimulation(f, 1)
	w := f.createWard(t, 3, 3)

	result, err := sim.RunStep(context.Background(), w.ID)
	require.NoError(t, err)

	assert.Empty(t, result.Discharged)
	total := len(result.Admitted) + result.Skipped
	assert.GreaterOrEqual(t, total, 1)
	assert.LessOrEqual(t, total, 3)
}

func TestSimulationStepNeverViolatesAdjacency(t *testing.T) {
	f := newFixture(t)
	sim := newSimulation(f, 42)
	w := f.createWard(t, 4, 4)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		_, err := sim.RunStep(ctx, w.ID)
		require.NoError(t, err)
		assertNoMixedNeighbors(t, f, w)
	}
}

func TestSimulationStepDischargesBeddedPatients(t *testing.T) {
	f := newFixture(t)
	sim := newSimulation(f, 7)
	w := f.createWard(t, 2, 2)
	ctx := context.Background()

	for _, name := range []string{"Ada", "Ben", "Cleo", "Dev"} {
		_, _, err := f.alloc.AutoAdmit(ctx, w.ID, &patient.AdmitPatientCommand{
			Name:      name,
			Age:       40,
			Condition: patient.ConditionNonInfectious,
		})
		require.NoError(t, err)
	}

	result, err := sim.RunStep(ctx, w.ID)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(result.Discharged), 1)
	assert.LessOrEqual(t, len(result.Discharged), 3)
}

func TestSimulationUnknownWard(t *testing.T) {
	f := newFixture(t)
	sim := newSimulation(f, 3)

	// An empty ward listing means no discharges; the auto-admit then hits
	// the ward existence check.
	_, err := sim.RunStep(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ward.ErrWardNotFound)
}

func assertNoMixedNeighbors(t *testing.T, f *fixture, w *ward.Ward) {
	t.Helper()
	ctx := context.Background()

	occupants := make(map[[2]int]patient.Condition)
	bedded, err := f.patients.ListByWard(ctx, w.ID)
	require.NoError(t, err)
	for _, p := range bedded {
		b, err := f.beds.GetByID(ctx, *p.BedID)
		require.NoError(t, err)
		occupants[[2]int{b.Row, b.Col}] = p.Condition
	}

	for slot, cond := range occupants {
		for _, d := range [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
			neighbor, ok := occupants[[2]int{slot[0] + d[0], slot[1] + d[1]}]
			if ok && neighbor.IsInfectious() != cond.IsInfectious() {
				t.Fatalf("mixed neighbors at %v: %s next to %s", slot, cond, neighbor)
			}
		}
	}
}
