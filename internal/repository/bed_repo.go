package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/isoward/isoward/internal/domain/bed"
)

type bedRepo struct {
	db *gorm.DB
}

func NewBedRepo(db *gorm.DB) bed.Repository {
	return &bedRepo{db: db}
}

func (r *bedRepo) CreateBatch(ctx context.Context, beds []*bed.Bed) error {
	if len(beds) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(beds, 500).Error
}

func (r *bedRepo) GetByID(ctx context.Context, id uuid.UUID) (*bed.Bed, error) {
	var b bed.Bed
	err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bed.ErrBedNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *bedRepo) GetBySlot(ctx context.Context, wardID uuid.UUID, row, col int) (*bed.Bed, error) {
	var b bed.Bed
	// "row" is a reserved word in Postgres; raw SQL must quote it.
	err := r.db.WithContext(ctx).
		Where(`ward_id = ? AND "row" = ? AND "col" = ?`, wardID, row, col).
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bed.ErrBedNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *bedRepo) ListByWard(ctx context.Context, wardID uuid.UUID, status *bed.Status) ([]*bed.Bed, error) {
	db := r.db.WithContext(ctx).Where("ward_id = ?", wardID)
	if status != nil {
		db = db.Where("status = ?", *status)
	}

	var beds []*bed.Bed
	err := db.Order(`"row" ASC, "col" ASC`).Find(&beds).Error
	return beds, err
}

func (r *bedRepo) ListNeighbors(ctx context.Context, wardID uuid.UUID, coords []bed.Coordinate, status bed.Status) ([]*bed.Bed, error) {
	if len(coords) == 0 {
		return nil, nil
	}

	slots := r.db.Where(`"row" = ? AND "col" = ?`, coords[0].Row, coords[0].Col)
	for _, c := range coords[1:] {
		slots = slots.Or(`"row" = ? AND "col" = ?`, c.Row, c.Col)
	}

	var beds []*bed.Bed
	err := r.db.WithContext(ctx).
		Where("ward_id = ? AND status = ?", wardID, status).
		Where(slots).
		Find(&beds).Error
	return beds, err
}

// Save writes status, maintenance window and version, guarded by an
// optimistic version check: the update only lands if the stored version
// still matches the one the caller read.
func (r *bedRepo) Save(ctx context.Context, b *bed.Bed) error {
	res := r.db.WithContext(ctx).Model(&bed.Bed{}).
		Where("id = ? AND version = ?", b.ID, b.Version).
		Updates(map[string]any{
			"status":                 b.Status,
			"maintenance_start_time": b.MaintenanceStartTime,
			"version":                b.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return bed.ErrVersionConflict
	}
	b.Version++
	return nil
}

func (r *bedRepo) CountByStatus(ctx context.Context, wardID *uuid.UUID, status bed.Status) (int64, error) {
	db := r.db.WithContext(ctx).Model(&bed.Bed{}).Where("status = ?", status)
	if wardID != nil {
		db = db.Where("ward_id = ?", *wardID)
	}

	var count int64
	err := db.Count(&count).Error
	return count, err
}
