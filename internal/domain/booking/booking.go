package booking

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle of one occupancy episode.
//
//	ACTIVE → DISCHARGED (discharge or transfer-out closes the episode)
//	ACTIVE → CANCELLED  (administrative void)
type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusDischarged Status = "DISCHARGED"
	StatusCancelled  Status = "CANCELLED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusDischarged, StatusCancelled:
		return true
	}
	return false
}

// Booking records one patient's stay in one bed. At most one ACTIVE booking
// exists per bed and per patient at any time; the storage layer enforces
// this with partial unique indexes.
type Booking struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`
	BedID     uuid.UUID `gorm:"column:bed_id;type:uuid;not null;index"`

	StartDate time.Time  `gorm:"column:start_date;not null"`
	EndDate   *time.Time `gorm:"column:end_date"`
	Status    Status     `gorm:"column:status;type:varchar(20);not null;default:'ACTIVE';index"`
}

func (Booking) TableName() string {
	return "bookings"
}

// Close ends an active episode at the given instant.
func (b *Booking) Close(now time.Time) error {
	if b.Status != StatusActive {
		return ErrBookingNotActive
	}
	b.Status = StatusDischarged
	b.EndDate = &now
	return nil
}
