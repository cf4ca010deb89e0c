package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/isoward/isoward/internal/domain/booking"
)

type bookingRepo struct {
	db *gorm.DB
}

func NewBookingRepo(db *gorm.DB) booking.Repository {
	return &bookingRepo{db: db}
}

func (r *bookingRepo) Create(ctx context.Context, b *booking.Booking) error {
	err := r.db.WithContext(ctx).Create(b).Error
	if err != nil && isUniqueViolation(err) {
		// One of the partial unique indexes on ACTIVE bookings fired.
		return booking.ErrActiveBookingExists
	}
	return err
}

func (r *bookingRepo) GetActive(ctx context.Context, patientID, bedID uuid.UUID) (*booking.Booking, error) {
	var b booking.Booking
	err := r.db.WithContext(ctx).
		Where("patient_id = ? AND bed_id = ? AND status = ?", patientID, bedID, booking.StatusActive).
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepo) CloseActive(ctx context.Context, patientID, bedID uuid.UUID) (*booking.Booking, error) {
	b, err := r.GetActive(ctx, patientID, bedID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := b.Close(now); err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Model(b).
		Updates(map[string]any{"status": b.Status, "end_date": b.EndDate}).Error
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *bookingRepo) List(ctx context.Context, patientID *uuid.UUID) ([]*booking.Booking, error) {
	db := r.db.WithContext(ctx)
	if patientID != nil {
		db = db.Where("patient_id = ?", *patientID)
	}

	var bookings []*booking.Booking
	err := db.Order("created_at DESC").Find(&bookings).Error
	return bookings, err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// pgx surfaces SQLSTATE 23505 for unique violations.
	return strings.Contains(err.Error(), "23505")
}
