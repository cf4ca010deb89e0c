package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/isoward/isoward/internal/domain/patient"
)

// SimulationService drives the allocation engine with randomized traffic for
// demos and load checks. It is a scripted client: every mutation goes
// through the AllocationService, so all safety rules apply.
type SimulationService struct {
	alloc    *AllocationService
	patients patient.Repository
	log      *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

var simulationNames = []string{"Alex", "Sam", "Jordan", "Taylor", "Casey", "Morgan", "Riley", "Quinn"}

func NewSimulationService(alloc *AllocationService, patients patient.Repository, rng *rand.Rand, log *zap.Logger) *SimulationService {
	return &SimulationService{
		alloc:    alloc,
		patients: patients,
		rng:      rng,
		log:      log,
	}
}

// StepResult summarizes one simulation step.
type StepResult struct {
	Discharged []string `json:"discharged"`
	Admitted   []string `json:"admitted"`
	Skipped    int      `json:"skipped"`
}

// RunStep discharges between one and three randomly chosen bedded patients
// in the ward, then auto-admits between one and three new patients, a
// quarter of them infectious. Admissions that find no safe bed are counted
// as skipped, never forced.
func (s *SimulationService) RunStep(ctx context.Context, wardID uuid.UUID) (*StepResult, error) {
	result := &StepResult{Discharged: []string{}, Admitted: []string{}}

	bedded, err := s.patients.ListByWard(ctx, wardID)
	if err != nil {
		return nil, fmt.Errorf("listing ward patients: %w", err)
	}

	s.mu.Lock()
	dischargeCount := min(len(bedded), s.rng.Intn(3)+1)
	s.rng.Shuffle(len(bedded), func(i, j int) {
		bedded[i], bedded[j] = bedded[j], bedded[i]
	})
	s.mu.Unlock()

	for _, p := range bedded[:dischargeCount] {
		if err := s.alloc.Discharge(ctx, p.ID); err != nil {
			s.log.Warn("simulation discharge failed", zap.Error(err),
				zap.String("patient_id", p.ID.String()))
			continue
		}
		result.Discharged = append(result.Discharged, p.Name)
	}

	s.mu.Lock()
	admitCount := s.rng.Intn(3) + 1
	s.mu.Unlock()

	for i := 0; i < admitCount; i++ {
		cmd := s.randomPatient()
		p, _, err := s.alloc.AutoAdmit(ctx, wardID, cmd)
		if err != nil {
			if errors.Is(err, ErrNoAvailableBeds) || errors.Is(err, ErrNoSafeBed) {
				result.Skipped++
				continue
			}
			return nil, err
		}
		result.Admitted = append(result.Admitted, fmt.Sprintf("%s (%s)", p.Name, p.Condition))
	}

	return result, nil
}

func (s *SimulationService) randomPatient() *patient.AdmitPatientCommand {
	s.mu.Lock()
	defer s.mu.Unlock()

	condition := patient.ConditionNonInfectious
	if s.rng.Intn(4) == 0 {
		condition = patient.ConditionInfectious
	}

	return &patient.AdmitPatientCommand{
		Name:      fmt.Sprintf("%s %d", simulationNames[s.rng.Intn(len(simulationNames))], s.rng.Intn(100)),
		Age:       s.rng.Intn(60) + 20,
		Condition: condition,
	}
}
