package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/isoward/isoward/internal/domain"
	"github.com/isoward/isoward/internal/domain/bed"
	"github.com/isoward/isoward/internal/domain/patient"
	"github.com/isoward/isoward/internal/domain/ward"
)

type WardService struct {
	wards    ward.Repository
	beds     bed.Repository
	patients patient.Repository
	risk     *RiskEvaluator
	activity *ActivityService
	log      *zap.Logger
}

func NewWardService(
	wards ward.Repository,
	beds bed.Repository,
	patients patient.Repository,
	risk *RiskEvaluator,
	activity *ActivityService,
	log *zap.Logger,
) *WardService {
	return &WardService{
		wards:    wards,
		beds:     beds,
		patients: patients,
		risk:     risk,
		activity: activity,
		log:      log,
	}
}

// CreateWard persists a ward and bulk-creates its full bed grid: one
// AVAILABLE REGULAR bed per (row, col) slot, exactly tiling the rectangle.
func (s *WardService) CreateWard(ctx context.Context, cmd *ward.CreateWardCommand) (*ward.Ward, error) {
	if err := validateWardCommand(cmd); err != nil {
		return nil, err
	}

	w := &ward.Ward{
		Name:     strings.TrimSpace(cmd.Name),
		Type:     strings.TrimSpace(cmd.Type),
		RowCount: cmd.RowCount,
		ColCount: cmd.ColCount,
	}
	if w.Type == "" {
		w.Type = "general"
	}

	if err := s.wards.Create(ctx, w); err != nil {
		s.log.Error("failed to create ward", zap.Error(err))
		return nil, fmt.Errorf("creating ward: %w", err)
	}

	beds := make([]*bed.Bed, 0, w.Capacity())
	for r := 0; r < w.RowCount; r++ {
		for c := 0; c < w.ColCount; c++ {
			beds = append(beds, &bed.Bed{
				WardID: w.ID,
				Row:    r,
				Col:    c,
				Status: bed.StatusAvailable,
				Type:   bed.TypeRegular,
			})
		}
	}
	if err := s.beds.CreateBatch(ctx, beds); err != nil {
		s.log.Error("failed to create bed grid", zap.Error(err),
			zap.String("ward_id", w.ID.String()))
		return nil, fmt.Errorf("creating bed grid: %w", err)
	}

	s.activity.Record(domain.ActivitySystem,
		fmt.Sprintf("Ward %s initialized with %d beds", w.Name, w.Capacity()),
		&w.ID)

	s.log.Info("ward created",
		zap.String("ward_id", w.ID.String()),
		zap.Int("rows", w.RowCount),
		zap.Int("cols", w.ColCount),
	)

	return w, nil
}

func (s *WardService) GetWard(ctx context.Context, id uuid.UUID) (*ward.Ward, error) {
	return s.wards.GetByID(ctx, id)
}

// WardWithBeds pairs a ward with its full bed grid for dashboard views.
type WardWithBeds struct {
	Ward *ward.Ward
	Beds []*bed.Bed
}

func (s *WardService) ListWards(ctx context.Context) ([]*WardWithBeds, error) {
	wards, err := s.wards.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing wards: %w", err)
	}

	result := make([]*WardWithBeds, 0, len(wards))
	for _, w := range wards {
		beds, err := s.beds.ListByWard(ctx, w.ID, nil)
		if err != nil {
			return nil, fmt.Errorf("listing beds of ward %s: %w", w.ID, err)
		}
		result = append(result, &WardWithBeds{Ward: w, Beds: beds})
	}
	return result, nil
}

// BedView is a bed plus its view-level annotations: the current occupant and
// the derived BLOCKED flag for an optional hypothetical candidate.
type BedView struct {
	Bed      *bed.Bed
	Occupant *patient.Patient
	// Blocked is set on AVAILABLE beds that currently fail the adjacency
	// check for the candidate condition passed to ListBeds. Never persisted.
	Blocked bool
}

// ListBeds returns a ward's beds in (row, col) order with occupants joined.
// When candidate is non-nil, vacant beds failing the adjacency check for
// that condition are annotated as blocked.
func (s *WardService) ListBeds(ctx context.Context, wardID uuid.UUID, status *bed.Status, candidate *patient.Condition) ([]*BedView, error) {
	if _, err := s.wards.GetByID(ctx, wardID); err != nil {
		return nil, err
	}

	beds, err := s.beds.ListByWard(ctx, wardID, status)
	if err != nil {
		return nil, fmt.Errorf("listing beds: %w", err)
	}

	occupants := make(map[uuid.UUID]*patient.Patient)
	bedded, err := s.patients.ListByWard(ctx, wardID)
	if err != nil {
		return nil, fmt.Errorf("listing ward patients: %w", err)
	}
	for _, p := range bedded {
		if p.BedID != nil {
			occupants[*p.BedID] = p
		}
	}

	var blocked map[uuid.UUID]bool
	if candidate != nil {
		blocked, err = s.risk.BlockedBeds(ctx, wardID, candidate.IsInfectious())
		if err != nil {
			return nil, err
		}
	}

	views := make([]*BedView, 0, len(beds))
	for _, b := range beds {
		views = append(views, &BedView{
			Bed:      b,
			Occupant: occupants[b.ID],
			Blocked:  blocked[b.ID],
		})
	}
	return views, nil
}

func (s *WardService) ListPatients(ctx context.Context, q *patient.ListPatientsQuery) ([]*patient.Patient, error) {
	return s.patients.List(ctx, q)
}

// Stats is the dashboard projection over the grid model.
type Stats struct {
	TotalWards     int64  `json:"totalWards"`
	ActivePatients int64  `json:"activePatients"`
	CriticalAlerts int64  `json:"criticalAlerts"`
	SystemStatus   string `json:"systemStatus"`
}

func (s *WardService) GetStats(ctx context.Context) (*Stats, error) {
	totalWards, err := s.wards.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting wards: %w", err)
	}

	active, err := s.patients.CountBedded(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("counting bedded patients: %w", err)
	}

	infectious := patient.ConditionInfectious
	critical, err := s.patients.CountBedded(ctx, &infectious)
	if err != nil {
		return nil, fmt.Errorf("counting infectious patients: %w", err)
	}

	return &Stats{
		TotalWards:     totalWards,
		ActivePatients: active,
		CriticalAlerts: critical,
		SystemStatus:   "Optimal",
	}, nil
}

func validateWardCommand(cmd *ward.CreateWardCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.Name) == "" {
		errs = append(errs, "name is required")
	}
	if cmd.RowCount <= 0 || cmd.ColCount <= 0 {
		errs = append(errs, "rowCount and colCount must be positive")
	}
	if cmd.RowCount*cmd.ColCount > 10_000 {
		errs = append(errs, "ward grid is too large")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
