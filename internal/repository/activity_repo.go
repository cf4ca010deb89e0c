package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/isoward/isoward/internal/domain"
	"github.com/isoward/isoward/internal/service"
)

type activityRepo struct {
	db *gorm.DB
}

func NewActivityRepo(db *gorm.DB) service.ActivityRepository {
	return &activityRepo{db: db}
}

func (r *activityRepo) Create(ctx context.Context, entry *domain.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *activityRepo) Recent(ctx context.Context, limit int) ([]*domain.ActivityLog, error) {
	var entries []*domain.ActivityLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
