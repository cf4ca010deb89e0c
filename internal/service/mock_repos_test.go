package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/isoward/isoward/internal/domain"
	"github.com/isoward/isoward/internal/domain/bed"
	"github.com/isoward/isoward/internal/domain/booking"
	"github.com/isoward/isoward/internal/domain/patient"
	"github.com/isoward/isoward/internal/domain/ward"
	"github.com/isoward/isoward/pkg/keylock"
)

// memStore is the shared backing map for the in-memory repository fakes.
// Entities are stored by value so a caller's mutations are invisible until
// the corresponding Save, matching the real persistence boundary.
type memStore struct {
	mu sync.Mutex

	wards     map[uuid.UUID]ward.Ward
	wardOrder []uuid.UUID

	beds map[uuid.UUID]bed.Bed

	patients     map[uuid.UUID]patient.Patient
	patientOrder []uuid.UUID

	bookings     map[uuid.UUID]booking.Booking
	bookingOrder []uuid.UUID

	activities []domain.ActivityLog
}

func newMemStore() *memStore {
	return &memStore{
		wards:    make(map[uuid.UUID]ward.Ward),
		beds:     make(map[uuid.UUID]bed.Bed),
		patients: make(map[uuid.UUID]patient.Patient),
		bookings: make(map[uuid.UUID]booking.Booking),
	}
}

type fakeWardRepo struct{ s *memStore }

func (r *fakeWardRepo) Create(_ context.Context, w *ward.Ward) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	w.CreatedAt = time.Now()
	r.s.wards[w.ID] = *w
	r.s.wardOrder = append(r.s.wardOrder, w.ID)
	return nil
}

func (r *fakeWardRepo) GetByID(_ context.Context, id uuid.UUID) (*ward.Ward, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.wards[id]
	if !ok {
		return nil, ward.ErrWardNotFound
	}
	return &w, nil
}

func (r *fakeWardRepo) List(_ context.Context) ([]*ward.Ward, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*ward.Ward, 0, len(r.s.wardOrder))
	for _, id := range r.s.wardOrder {
		if w, ok := r.s.wards[id]; ok {
			copied := w
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeWardRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.wards)), nil
}

func (r *fakeWardRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.wards[id]; !ok {
		return ward.ErrWardNotFound
	}
	delete(r.s.wards, id)
	for bedID, b := range r.s.beds {
		if b.WardID == id {
			delete(r.s.beds, bedID)
		}
	}
	return nil
}

type fakeBedRepo struct{ s *memStore }

func (r *fakeBedRepo) CreateBatch(_ context.Context, beds []*bed.Bed) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range beds {
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		r.s.beds[b.ID] = *b
	}
	return nil
}

func (r *fakeBedRepo) GetByID(_ context.Context, id uuid.UUID) (*bed.Bed, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.beds[id]
	if !ok {
		return nil, bed.ErrBedNotFound
	}
	return &b, nil
}

func (r *fakeBedRepo) GetBySlot(_ context.Context, wardID uuid.UUID, row, col int) (*bed.Bed, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.beds {
		if b.WardID == wardID && b.Row == row && b.Col == col {
			copied := b
			return &copied, nil
		}
	}
	return nil, bed.ErrBedNotFound
}

func (r *fakeBedRepo) ListByWard(_ context.Context, wardID uuid.UUID, status *bed.Status) ([]*bed.Bed, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*bed.Bed
	for _, b := range r.s.beds {
		if b.WardID != wardID {
			continue
		}
		if status != nil && b.Status != *status {
			continue
		}
		copied := b
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out, nil
}

func (r *fakeBedRepo) ListNeighbors(_ context.Context, wardID uuid.UUID, coords []bed.Coordinate, status bed.Status) ([]*bed.Bed, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*bed.Bed
	for _, b := range r.s.beds {
		if b.WardID != wardID || b.Status != status {
			continue
		}
		for _, c := range coords {
			if b.Row == c.Row && b.Col == c.Col {
				copied := b
				out = append(out, &copied)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeBedRepo) Save(_ context.Context, b *bed.Bed) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.beds[b.ID]
	if !ok {
		return bed.ErrBedNotFound
	}
	if stored.Version != b.Version {
		return bed.ErrVersionConflict
	}
	b.Version++
	r.s.beds[b.ID] = *b
	return nil
}

func (r *fakeBedRepo) CountByStatus(_ context.Context, wardID *uuid.UUID, status bed.Status) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, b := range r.s.beds {
		if wardID != nil && b.WardID != *wardID {
			continue
		}
		if b.Status == status {
			n++
		}
	}
	return n, nil
}

type fakePatientRepo struct{ s *memStore }

func (r *fakePatientRepo) Create(_ context.Context, p *patient.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	r.s.patients[p.ID] = *p
	r.s.patientOrder = append(r.s.patientOrder, p.ID)
	return nil
}

func (r *fakePatientRepo) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.patients[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	return &p, nil
}

func (r *fakePatientRepo) GetByBed(_ context.Context, bedID uuid.UUID) (*patient.Patient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.patients {
		if p.BedID != nil && *p.BedID == bedID {
			copied := p
			return &copied, nil
		}
	}
	return nil, patient.ErrPatientNotFound
}

func (r *fakePatientRepo) ListByWard(_ context.Context, wardID uuid.UUID) ([]*patient.Patient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*patient.Patient
	for _, id := range r.s.patientOrder {
		p, ok := r.s.patients[id]
		if !ok || p.BedID == nil {
			continue
		}
		if b, ok := r.s.beds[*p.BedID]; ok && b.WardID == wardID {
			copied := p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakePatientRepo) List(_ context.Context, q *patient.ListPatientsQuery) ([]*patient.Patient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*patient.Patient
	for i := len(r.s.patientOrder) - 1; i >= 0; i-- {
		p, ok := r.s.patients[r.s.patientOrder[i]]
		if !ok {
			continue
		}
		if q != nil {
			if q.BeddedOnly && p.BedID == nil {
				continue
			}
			if q.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Search)) {
				continue
			}
		}
		copied := p
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakePatientRepo) Save(_ context.Context, p *patient.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.patients[p.ID]; !ok {
		return patient.ErrPatientNotFound
	}
	r.s.patients[p.ID] = *p
	return nil
}

func (r *fakePatientRepo) CountBedded(_ context.Context, condition *patient.Condition) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, p := range r.s.patients {
		if p.BedID == nil {
			continue
		}
		if condition != nil && p.Condition != *condition {
			continue
		}
		n++
	}
	return n, nil
}

type fakeBookingRepo struct{ s *memStore }

func (r *fakeBookingRepo) Create(_ context.Context, b *booking.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if b.Status == booking.StatusActive {
		for _, existing := range r.s.bookings {
			if existing.Status != booking.StatusActive {
				continue
			}
			if existing.BedID == b.BedID || existing.PatientID == b.PatientID {
				return booking.ErrActiveBookingExists
			}
		}
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.CreatedAt = time.Now()
	r.s.bookings[b.ID] = *b
	r.s.bookingOrder = append(r.s.bookingOrder, b.ID)
	return nil
}

func (r *fakeBookingRepo) GetActive(_ context.Context, patientID, bedID uuid.UUID) (*booking.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bookings {
		if b.Status == booking.StatusActive && b.PatientID == patientID && b.BedID == bedID {
			copied := b
			return &copied, nil
		}
	}
	return nil, booking.ErrBookingNotFound
}

func (r *fakeBookingRepo) CloseActive(_ context.Context, patientID, bedID uuid.UUID) (*booking.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, b := range r.s.bookings {
		if b.Status == booking.StatusActive && b.PatientID == patientID && b.BedID == bedID {
			if err := b.Close(time.Now()); err != nil {
				return nil, err
			}
			r.s.bookings[id] = b
			copied := b
			return &copied, nil
		}
	}
	return nil, booking.ErrBookingNotFound
}

func (r *fakeBookingRepo) List(_ context.Context, patientID *uuid.UUID) ([]*booking.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*booking.Booking
	for i := len(r.s.bookingOrder) - 1; i >= 0; i-- {
		b, ok := r.s.bookings[r.s.bookingOrder[i]]
		if !ok {
			continue
		}
		if patientID != nil && b.PatientID != *patientID {
			continue
		}
		copied := b
		out = append(out, &copied)
	}
	return out, nil
}

type fakeActivityRepo struct{ s *memStore }

func (r *fakeActivityRepo) Create(_ context.Context, entry *domain.ActivityLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()
	r.s.activities = append(r.s.activities, *entry)
	return nil
}

func (r *fakeActivityRepo) Recent(_ context.Context, limit int) ([]*domain.ActivityLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.ActivityLog
	for i := len(r.s.activities) - 1; i >= 0 && len(out) < limit; i-- {
		copied := r.s.activities[i]
		out = append(out, &copied)
	}
	return out, nil
}

// fixture wires the services against the in-memory fakes.
type fixture struct {
	store    *memStore
	wards    *fakeWardRepo
	beds     *fakeBedRepo
	patients *fakePatientRepo
	bookings *fakeBookingRepo
	notifier *captureNotifier
	locks    *keylock.Locker
	activity *ActivityService
	alloc    *AllocationService
	wardSvc  *WardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newMemStore()
	f := &fixture{
		store:    store,
		wards:    &fakeWardRepo{s: store},
		beds:     &fakeBedRepo{s: store},
		patients: &fakePatientRepo{s: store},
		bookings: &fakeBookingRepo{s: store},
		notifier: &captureNotifier{},
	}

	log := zap.NewNop()
	f.activity = NewActivityService(&fakeActivityRepo{s: store}, 100, log)
	t.Cleanup(f.activity.Shutdown)

	f.locks = keylock.New()
	risk := NewRiskEvaluator(f.beds, f.patients)
	f.alloc = NewAllocationService(
		f.beds, f.patients, f.bookings, f.wards,
		risk, f.activity, f.notifier,
		f.locks, 500*time.Millisecond,
		nil, log,
	)
	f.wardSvc = NewWardService(f.wards, f.beds, f.patients, risk, f.activity, log)
	return f
}

func (f *fixture) createWard(t *testing.T, rows, cols int) *ward.Ward {
	t.Helper()
	w, err := f.wardSvc.CreateWard(context.Background(), &ward.CreateWardCommand{
		Name:     "Test Ward",
		RowCount: rows,
		ColCount: cols,
	})
	require.NoError(t, err)
	return w
}

func (f *fixture) bedAt(t *testing.T, wardID uuid.UUID, row, col int) *bed.Bed {
	t.Helper()
	b, err := f.beds.GetBySlot(context.Background(), wardID, row, col)
	require.NoError(t, err)
	return b
}

func (f *fixture) admitAt(t *testing.T, wardID uuid.UUID, row, col int, name string, cond patient.Condition) *patient.Patient {
	t.Helper()
	b := f.bedAt(t, wardID, row, col)
	p, err := f.alloc.Admit(context.Background(), b.ID, &patient.AdmitPatientCommand{
		Name:      name,
		Age:       40,
		Condition: cond,
	})
	require.NoError(t, err)
	return p
}

// captureNotifier records ward-changed notifications for assertions.
type captureNotifier struct {
	mu    sync.Mutex
	wards []uuid.UUID
}

func (n *captureNotifier) NotifyWardChanged(wardID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.wards = append(n.wards, wardID)
}

func (n *captureNotifier) count(wardID uuid.UUID) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, id := range n.wards {
		if id == wardID {
			c++
		}
	}
	return c
}
