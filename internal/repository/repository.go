// Package repository provides the gorm-backed implementations of the domain
// repository interfaces. Storage errors are translated to domain sentinels
// at this boundary; nothing above it sees gorm.
package repository

import (
	"gorm.io/gorm"

	"github.com/isoward/isoward/internal/domain/bed"
	"github.com/isoward/isoward/internal/domain/booking"
	"github.com/isoward/isoward/internal/domain/patient"
	"github.com/isoward/isoward/internal/domain/ward"
	"github.com/isoward/isoward/internal/service"
)

// Repositories bundles every persistence implementation for wiring.
type Repositories struct {
	Ward     ward.Repository
	Bed      bed.Repository
	Patient  patient.Repository
	Booking  booking.Repository
	Activity service.ActivityRepository
}

func New(db *gorm.DB) *Repositories {
	return &Repositories{
		Ward:     NewWardRepo(db),
		Bed:      NewBedRepo(db),
		Patient:  NewPatientRepo(db),
		Booking:  NewBookingRepo(db),
		Activity: NewActivityRepo(db),
	}
}
