package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/isoward/isoward/internal/domain"
	"github.com/isoward/isoward/internal/domain/bed"
	"github.com/isoward/isoward/internal/domain/booking"
	"github.com/isoward/isoward/internal/domain/patient"
	"github.com/isoward/isoward/internal/domain/ward"
	"github.com/isoward/isoward/pkg/keylock"
	"github.com/isoward/isoward/pkg/metrics"
)

// AllocationService orchestrates admissions, discharges, transfers and
// maintenance toggles as atomic multi-entity operations.
//
// Every operation that reads a bed's status as a precondition and later
// writes that bed does so holding that bed's entry in the key lock, so two
// concurrent admits cannot both observe AVAILABLE and both write OCCUPIED.
// Transfers lock both beds; the locker acquires keys in sorted order to keep
// crossing transfers deadlock-free. Lock acquisition is bounded by
// lockTimeout and fails with ErrBedLockTimeout, leaving state unchanged.
//
// Ledger appends and ward-changed notifications happen after the mutation
// has committed and outside the critical section.
type AllocationService struct {
	beds     bed.Repository
	patients patient.Repository
	bookings booking.Repository
	wards    ward.Repository

	risk     *RiskEvaluator
	activity *ActivityService
	notifier Notifier

	locks       *keylock.Locker
	lockTimeout time.Duration

	metrics *metrics.Collector // optional
	log     *zap.Logger
}

func NewAllocationService(
	beds bed.Repository,
	patients patient.Repository,
	bookings booking.Repository,
	wards ward.Repository,
	risk *RiskEvaluator,
	activity *ActivityService,
	notifier Notifier,
	locks *keylock.Locker,
	lockTimeout time.Duration,
	collector *metrics.Collector,
	log *zap.Logger,
) *AllocationService {
	if lockTimeout <= 0 {
		lockTimeout = 3 * time.Second
	}
	return &AllocationService{
		beds:        beds,
		patients:    patients,
		bookings:    bookings,
		wards:       wards,
		risk:        risk,
		activity:    activity,
		notifier:    notifier,
		locks:       locks,
		lockTimeout: lockTimeout,
		metrics:     collector,
		log:         log,
	}
}

// Admit places a new patient into the given bed. The bed must be AVAILABLE
// and the placement must pass the adjacency check; otherwise the operation
// fails without touching any state.
func (s *AllocationService) Admit(ctx context.Context, bedID uuid.UUID, cmd *patient.AdmitPatientCommand) (*patient.Patient, error) {
	p, _, err := s.admit(ctx, bedID, cmd, "direct")
	return p, err
}

func (s *AllocationService) admit(ctx context.Context, bedID uuid.UUID, cmd *patient.AdmitPatientCommand, mode string) (*patient.Patient, *bed.Bed, error) {
	if err := validateAdmitCommand(cmd); err != nil {
		return nil, nil, err
	}

	release, err := s.lockBed(ctx, bedID)
	if err != nil {
		return nil, nil, err
	}

	p, b, err := s.admitLocked(ctx, bedID, cmd)
	release()
	if err != nil {
		return nil, nil, err
	}

	s.incAdmission(mode)
	s.activity.Record(domain.ActivityAdmission,
		fmt.Sprintf("Patient %s admitted to Bed %s (%s)", p.Name, b.Slot(), p.Condition),
		&b.WardID)
	s.notifier.NotifyWardChanged(b.WardID)

	s.log.Info("patient admitted",
		zap.String("patient_id", p.ID.String()),
		zap.String("bed_id", b.ID.String()),
		zap.String("ward_id", b.WardID.String()),
		zap.String("condition", string(p.Condition)),
	)

	return p, b, nil
}

// admitLocked runs the read-check-write sequence under the bed lock.
func (s *AllocationService) admitLocked(ctx context.Context, bedID uuid.UUID, cmd *patient.AdmitPatientCommand) (*patient.Patient, *bed.Bed, error) {
	b, err := s.beds.GetByID(ctx, bedID)
	if err != nil {
		return nil, nil, err
	}

	if b.Status != bed.StatusAvailable {
		return nil, nil, bed.ErrBedUnavailable
	}

	risky, err := s.risk.HasAdjacencyRisk(ctx, b.WardID, b.Row, b.Col, cmd.Condition.IsInfectious())
	if err != nil {
		return nil, nil, err
	}
	if risky {
		s.incAdjacencyRejection()
		return nil, nil, ErrAdjacencyRisk
	}

	if err := b.Occupy(); err != nil {
		return nil, nil, err
	}
	if err := s.beds.Save(ctx, b); err != nil {
		return nil, nil, fmt.Errorf("saving bed: %w", err)
	}

	p := &patient.Patient{
		Name:      strings.TrimSpace(cmd.Name),
		Age:       cmd.Age,
		Condition: cmd.Condition,
		BedID:     &b.ID,
	}
	if err := s.patients.Create(ctx, p); err != nil {
		s.revertBed(ctx, b)
		return nil, nil, fmt.Errorf("creating patient: %w", err)
	}

	bk := &booking.Booking{
		PatientID: p.ID,
		BedID:     b.ID,
		StartDate: time.Now(),
		Status:    booking.StatusActive,
	}
	if err := s.bookings.Create(ctx, bk); err != nil {
		p.BedID = nil
		if saveErr := s.patients.Save(ctx, p); saveErr != nil {
			s.log.Error("failed to unwind patient after booking failure", zap.Error(saveErr))
		}
		s.revertBed(ctx, b)
		return nil, nil, fmt.Errorf("creating booking: %w", err)
	}

	s.bumpOccupied(1)
	return p, b, nil
}

// Discharge frees the patient's bed and closes the active booking. A patient
// without a bed is a successful no-op: nothing changed, nothing is logged.
func (s *AllocationService) Discharge(ctx context.Context, patientID uuid.UUID) error {
	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return err
	}
	if !p.IsBedded() {
		return nil
	}

	bedID := *p.BedID
	release, err := s.lockBed(ctx, bedID)
	if err != nil {
		return err
	}

	b, err := s.dischargeLocked(ctx, patientID, bedID)
	release()
	if err != nil {
		return err
	}
	if b == nil {
		// Lost a race with another discharge; the patient is already out.
		return nil
	}

	s.incDischarge()
	s.activity.Record(domain.ActivityDischarge,
		fmt.Sprintf("Patient %s discharged from Bed %s", p.Name, b.Slot()),
		&b.WardID)
	s.notifier.NotifyWardChanged(b.WardID)

	s.log.Info("patient discharged",
		zap.String("patient_id", patientID.String()),
		zap.String("bed_id", b.ID.String()),
	)

	return nil
}

func (s *AllocationService) dischargeLocked(ctx context.Context, patientID, bedID uuid.UUID) (*bed.Bed, error) {
	// Re-read under the lock: the precondition may have changed.
	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if p.BedID == nil || *p.BedID != bedID {
		return nil, nil
	}

	b, err := s.beds.GetByID(ctx, bedID)
	if err != nil {
		return nil, err
	}

	if err := b.Release(); err != nil {
		return nil, err
	}
	if err := s.beds.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("saving bed: %w", err)
	}

	if _, err := s.bookings.CloseActive(ctx, p.ID, bedID); err != nil && !errors.Is(err, booking.ErrBookingNotFound) {
		s.log.Error("failed to close booking on discharge", zap.Error(err),
			zap.String("patient_id", p.ID.String()))
	}

	p.BedID = nil
	if err := s.patients.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("saving patient: %w", err)
	}

	s.bumpOccupied(-1)
	return b, nil
}

// Transfer moves a bedded patient to the target bed. On any failure the
// patient stays in the original bed with the original booking still active.
func (s *AllocationService) Transfer(ctx context.Context, patientID, targetBedID uuid.UUID) (*patient.Patient, error) {
	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if !p.IsBedded() {
		return nil, patient.ErrPatientNotBedded
	}

	sourceBedID := *p.BedID
	if sourceBedID == targetBedID {
		return nil, bed.ErrBedUnavailable
	}

	release, err := s.lockBeds(ctx, sourceBedID, targetBedID)
	if err != nil {
		return nil, err
	}

	result, err := s.transferLocked(ctx, patientID, sourceBedID, targetBedID)
	release()
	if err != nil {
		return nil, err
	}

	s.incTransfer()
	s.activity.Record(domain.ActivityAdmission,
		fmt.Sprintf("Patient %s transferred to Bed %s (%s)", result.patient.Name, result.target.Slot(), result.patient.Condition),
		&result.target.WardID)

	// Subscribers of both grids must refresh when the wards differ.
	s.notifier.NotifyWardChanged(result.target.WardID)
	if result.source.WardID != result.target.WardID {
		s.notifier.NotifyWardChanged(result.source.WardID)
	}

	s.log.Info("patient transferred",
		zap.String("patient_id", patientID.String()),
		zap.String("from_bed", result.source.ID.String()),
		zap.String("to_bed", result.target.ID.String()),
	)

	return result.patient, nil
}

type transferResult struct {
	patient *patient.Patient
	source  *bed.Bed
	target  *bed.Bed
}

func (s *AllocationService) transferLocked(ctx context.Context, patientID, sourceBedID, targetBedID uuid.UUID) (*transferResult, error) {
	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if p.BedID == nil || *p.BedID != sourceBedID {
		return nil, ErrBedLockTimeout
	}

	target, err := s.beds.GetByID(ctx, targetBedID)
	if err != nil {
		return nil, err
	}
	if target.Status != bed.StatusAvailable {
		return nil, bed.ErrBedUnavailable
	}

	risky, err := s.risk.HasAdjacencyRisk(ctx, target.WardID, target.Row, target.Col, p.Condition.IsInfectious())
	if err != nil {
		return nil, err
	}
	if risky {
		s.incAdjacencyRejection()
		return nil, ErrAdjacencyRisk
	}

	source, err := s.beds.GetByID(ctx, sourceBedID)
	if err != nil {
		return nil, err
	}

	// All preconditions verified; mutate target first so a failure leaves
	// the patient untouched in the source bed.
	if err := target.Occupy(); err != nil {
		return nil, err
	}
	if err := s.beds.Save(ctx, target); err != nil {
		return nil, fmt.Errorf("saving target bed: %w", err)
	}

	if err := source.Release(); err != nil {
		s.revertBed(ctx, target)
		return nil, err
	}
	if err := s.beds.Save(ctx, source); err != nil {
		s.revertBed(ctx, target)
		return nil, fmt.Errorf("saving source bed: %w", err)
	}

	if _, err := s.bookings.CloseActive(ctx, p.ID, sourceBedID); err != nil && !errors.Is(err, booking.ErrBookingNotFound) {
		s.log.Error("failed to close booking on transfer", zap.Error(err),
			zap.String("patient_id", p.ID.String()))
	}

	p.BedID = &target.ID
	if err := s.patients.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("saving patient: %w", err)
	}

	bk := &booking.Booking{
		PatientID: p.ID,
		BedID:     target.ID,
		StartDate: time.Now(),
		Status:    booking.StatusActive,
	}
	if err := s.bookings.Create(ctx, bk); err != nil {
		s.log.Error("failed to open booking at transfer target", zap.Error(err),
			zap.String("patient_id", p.ID.String()))
	}

	return &transferResult{patient: p, source: source, target: target}, nil
}

// UpdateCondition changes a patient's infection status in place. Existing
// placements are grandfathered: the patient's current neighbors are not
// re-validated. An alert is logged and the ward notified so viewers can
// recompute neighbor risk.
func (s *AllocationService) UpdateCondition(ctx context.Context, patientID uuid.UUID, newCondition patient.Condition) (*patient.Patient, error) {
	if !newCondition.IsValid() {
		return nil, patient.ErrInvalidCondition
	}

	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	p.Condition = newCondition
	if err := s.patients.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("saving patient: %w", err)
	}

	if p.IsBedded() {
		b, err := s.beds.GetByID(ctx, *p.BedID)
		if err != nil {
			// Condition change already persisted; only the broadcast is lost.
			s.log.Error("looking up bed for condition change",
				zap.String("patient_id", p.ID.String()),
				zap.String("bed_id", p.BedID.String()),
				zap.Error(err))
		} else {
			s.activity.Record(domain.ActivityAlert,
				fmt.Sprintf("Patient %s condition changed to %s in Bed %s", p.Name, newCondition, b.Slot()),
				&b.WardID)
			s.notifier.NotifyWardChanged(b.WardID)
		}
	} else {
		s.activity.Record(domain.ActivityAlert,
			fmt.Sprintf("Patient %s condition changed to %s", p.Name, newCondition), nil)
	}

	return p, nil
}

// AutoAdmit scans the ward's AVAILABLE beds in (row, col) order and admits
// the patient into the first one that passes the adjacency check.
func (s *AllocationService) AutoAdmit(ctx context.Context, wardID uuid.UUID, cmd *patient.AdmitPatientCommand) (*patient.Patient, *bed.Bed, error) {
	if err := validateAdmitCommand(cmd); err != nil {
		return nil, nil, err
	}

	if _, err := s.wards.GetByID(ctx, wardID); err != nil {
		return nil, nil, err
	}

	status := bed.StatusAvailable
	available, err := s.beds.ListByWard(ctx, wardID, &status)
	if err != nil {
		return nil, nil, fmt.Errorf("listing available beds: %w", err)
	}
	if len(available) == 0 {
		return nil, nil, ErrNoAvailableBeds
	}

	for _, candidate := range available {
		risky, err := s.risk.HasAdjacencyRisk(ctx, wardID, candidate.Row, candidate.Col, cmd.Condition.IsInfectious())
		if err != nil {
			return nil, nil, err
		}
		if risky {
			continue
		}

		p, placed, err := s.admit(ctx, candidate.ID, cmd, "auto")
		switch {
		case err == nil:
			return p, placed, nil
		case errors.Is(err, bed.ErrBedUnavailable), errors.Is(err, ErrAdjacencyRisk):
			// Lost the slot to a concurrent placement; keep scanning.
			continue
		default:
			return nil, nil, err
		}
	}

	return nil, nil, ErrNoSafeBed
}

// RecommendOptimalBed suggests the AVAILABLE bed maximizing the minimum
// Euclidean distance to any OCCUPIED bed in the ward. Ties and the
// empty-ward case resolve to the first bed in (row, col) scan order. The
// recommendation is advisory: nothing is mutated or risk-checked, and
// callers still go through Admit.
func (s *AllocationService) RecommendOptimalBed(ctx context.Context, wardID uuid.UUID) (*bed.Bed, error) {
	if _, err := s.wards.GetByID(ctx, wardID); err != nil {
		return nil, err
	}

	all, err := s.beds.ListByWard(ctx, wardID, nil)
	if err != nil {
		return nil, fmt.Errorf("listing beds: %w", err)
	}

	var available, occupied []*bed.Bed
	for _, b := range all {
		switch b.Status {
		case bed.StatusAvailable:
			available = append(available, b)
		case bed.StatusOccupied:
			occupied = append(occupied, b)
		}
	}

	if len(available) == 0 {
		return nil, ErrNoAvailableBeds
	}
	if len(occupied) == 0 {
		return available[0], nil
	}

	best := available[0]
	bestScore := -1.0
	for _, candidate := range available {
		score := math.Inf(1)
		for _, o := range occupied {
			dr := float64(candidate.Row - o.Row)
			dc := float64(candidate.Col - o.Col)
			if d := math.Sqrt(dr*dr + dc*dc); d < score {
				score = d
			}
		}
		// Strict > keeps the first (lowest row, col) bed on ties.
		if score > bestScore {
			bestScore = score
			best = candidate
		}
	}

	return best, nil
}

// SetMaintenance toggles a vacant bed between AVAILABLE and MAINTENANCE.
// Entering stamps the maintenance window start; leaving clears it.
func (s *AllocationService) SetMaintenance(ctx context.Context, bedID uuid.UUID, enter bool) (*bed.Bed, error) {
	release, err := s.lockBed(ctx, bedID)
	if err != nil {
		return nil, err
	}

	b, err := s.setMaintenanceLocked(ctx, bedID, enter)
	release()
	if err != nil {
		return nil, err
	}

	verb := "entered"
	if !enter {
		verb = "left"
	}
	s.activity.Record(domain.ActivityMaintenance,
		fmt.Sprintf("Bed %s %s maintenance", b.Slot(), verb),
		&b.WardID)
	s.notifier.NotifyWardChanged(b.WardID)

	return b, nil
}

func (s *AllocationService) setMaintenanceLocked(ctx context.Context, bedID uuid.UUID, enter bool) (*bed.Bed, error) {
	b, err := s.beds.GetByID(ctx, bedID)
	if err != nil {
		return nil, err
	}

	if enter {
		err = b.EnterMaintenance(time.Now())
	} else {
		err = b.ExitMaintenance()
	}
	if err != nil {
		return nil, err
	}

	if err := s.beds.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("saving bed: %w", err)
	}
	return b, nil
}

func (s *AllocationService) lockBed(ctx context.Context, bedID uuid.UUID) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	release, err := s.locks.Acquire(lockCtx, bedID.String())
	if err != nil {
		s.incLockConflict()
		return nil, ErrBedLockTimeout
	}
	return release, nil
}

func (s *AllocationService) lockBeds(ctx context.Context, bedIDs ...uuid.UUID) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	keys := make([]string, len(bedIDs))
	for i, id := range bedIDs {
		keys[i] = id.String()
	}

	release, err := s.locks.AcquireAll(lockCtx, keys...)
	if err != nil {
		s.incLockConflict()
		return nil, ErrBedLockTimeout
	}
	return release, nil
}

// revertBed is a best-effort compensation: put an occupied bed back to
// AVAILABLE after a later step of the same operation failed.
func (s *AllocationService) revertBed(ctx context.Context, b *bed.Bed) {
	if err := b.Release(); err == nil {
		if err := s.beds.Save(ctx, b); err != nil {
			s.log.Error("failed to revert bed status", zap.Error(err),
				zap.String("bed_id", b.ID.String()))
		}
	}
}

func validateAdmitCommand(cmd *patient.AdmitPatientCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.Name) == "" {
		errs = append(errs, "name is required")
	}
	if cmd.Age < 0 {
		errs = append(errs, "age must be non-negative")
	}
	if !cmd.Condition.IsValid() {
		errs = append(errs, "condition is invalid")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func (s *AllocationService) incAdmission(mode string) {
	if s.metrics != nil {
		s.metrics.AdmissionsTotal.WithLabelValues(mode).Inc()
	}
}

func (s *AllocationService) incDischarge() {
	if s.metrics != nil {
		s.metrics.DischargesTotal.Inc()
	}
}

func (s *AllocationService) incTransfer() {
	if s.metrics != nil {
		s.metrics.TransfersTotal.Inc()
	}
}

func (s *AllocationService) incAdjacencyRejection() {
	if s.metrics != nil {
		s.metrics.AdjacencyRejections.Inc()
	}
}

func (s *AllocationService) incLockConflict() {
	if s.metrics != nil {
		s.metrics.BedLockConflicts.Inc()
	}
}

func (s *AllocationService) bumpOccupied(delta float64) {
	if s.metrics != nil {
		s.metrics.OccupiedBeds.Add(delta)
	}
}
