package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/isoward/isoward/internal/domain/patient"
)

type patientRepo struct {
	db *gorm.DB
}

func NewPatientRepo(db *gorm.DB) patient.Repository {
	return &patientRepo{db: db}
}

func (r *patientRepo) Create(ctx context.Context, p *patient.Patient) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *patientRepo) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	var p patient.Patient
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, patient.ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *patientRepo) GetByBed(ctx context.Context, bedID uuid.UUID) (*patient.Patient, error) {
	var p patient.Patient
	err := r.db.WithContext(ctx).Where("bed_id = ?", bedID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, patient.ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *patientRepo) ListByWard(ctx context.Context, wardID uuid.UUID) ([]*patient.Patient, error) {
	var patients []*patient.Patient
	err := r.db.WithContext(ctx).
		Joins("JOIN beds ON beds.id = patients.bed_id").
		Where("beds.ward_id = ?", wardID).
		Find(&patients).Error
	return patients, err
}

func (r *patientRepo) List(ctx context.Context, q *patient.ListPatientsQuery) ([]*patient.Patient, error) {
	db := r.db.WithContext(ctx)

	if search := strings.TrimSpace(q.Search); search != "" {
		db = db.Where("name ILIKE ?", "%"+search+"%")
	}
	if q.BeddedOnly {
		db = db.Where("bed_id IS NOT NULL")
	}

	var patients []*patient.Patient
	err := db.Order("created_at DESC").Find(&patients).Error
	return patients, err
}

func (r *patientRepo) Save(ctx context.Context, p *patient.Patient) error {
	// Select forces bed_id to be written even when it is nil (discharge).
	return r.db.WithContext(ctx).Model(p).
		Select("name", "age", "condition", "bed_id").
		Updates(p).Error
}

func (r *patientRepo) CountBedded(ctx context.Context, condition *patient.Condition) (int64, error) {
	db := r.db.WithContext(ctx).Model(&patient.Patient{}).Where("bed_id IS NOT NULL")
	if condition != nil {
		db = db.Where("condition = ?", *condition)
	}

	var count int64
	err := db.Count(&count).Error
	return count, err
}
