package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/isoward/isoward/internal/domain/bed"
	"github.com/isoward/isoward/internal/domain/ward"
)

type wardRepo struct {
	db *gorm.DB
}

func NewWardRepo(db *gorm.DB) ward.Repository {
	return &wardRepo{db: db}
}

func (r *wardRepo) Create(ctx context.Context, w *ward.Ward) error {
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *wardRepo) GetByID(ctx context.Context, id uuid.UUID) (*ward.Ward, error) {
	var w ward.Ward
	err := r.db.WithContext(ctx).First(&w, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ward.ErrWardNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (r *wardRepo) List(ctx context.Context) ([]*ward.Ward, error) {
	var wards []*ward.Ward
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&wards).Error
	return wards, err
}

func (r *wardRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&ward.Ward{}).Count(&count).Error
	return count, err
}

func (r *wardRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ward_id = ?", id).Delete(&bed.Bed{}).Error; err != nil {
			return fmt.Errorf("deleting ward beds: %w", err)
		}
		res := tx.Delete(&ward.Ward{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ward.ErrWardNotFound
		}
		return nil
	})
}
