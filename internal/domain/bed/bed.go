package bed

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Status is a bed's lifecycle state. Persisted values are Available,
// Occupied and Maintenance. Blocked is a derived, view-only annotation for
// vacant beds that currently fail the adjacency check for a hypothetical
// candidate; it is never written to storage.
//
// State transitions:
//
//	AVAILABLE → OCCUPIED    (admission, transfer-in)
//	OCCUPIED  → AVAILABLE   (discharge, transfer-out)
//	AVAILABLE → MAINTENANCE (operator toggle, stamps MaintenanceStartTime)
//	MAINTENANCE → AVAILABLE (operator toggle, clears MaintenanceStartTime)
type Status string

const (
	StatusAvailable   Status = "AVAILABLE"
	StatusOccupied    Status = "OCCUPIED"
	StatusBlocked     Status = "BLOCKED"
	StatusMaintenance Status = "MAINTENANCE"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusOccupied, StatusBlocked, StatusMaintenance:
		return true
	}
	return false
}

// IsPersisted reports whether the status is a real stored state, as opposed
// to the derived Blocked annotation.
func (s Status) IsPersisted() bool {
	return s == StatusAvailable || s == StatusOccupied || s == StatusMaintenance
}

type BedType string

const (
	TypeRegular BedType = "REGULAR"
	TypeICU     BedType = "ICU"
)

func (t BedType) IsValid() bool {
	switch t {
	case TypeRegular, TypeICU:
		return true
	}
	return false
}

type Bed struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	// WardID is immutable after creation; beds never move between wards.
	WardID uuid.UUID `gorm:"column:ward_id;type:uuid;not null;index;uniqueIndex:idx_beds_ward_slot,priority:1"`
	Row    int       `gorm:"column:row;not null;uniqueIndex:idx_beds_ward_slot,priority:2"`
	Col    int       `gorm:"column:col;not null;uniqueIndex:idx_beds_ward_slot,priority:3"`

	Status Status  `gorm:"column:status;type:varchar(20);not null;default:'AVAILABLE';index"`
	Type   BedType `gorm:"column:type;type:varchar(20);not null;default:'REGULAR'"`

	// Set only while Status == Maintenance.
	MaintenanceStartTime *time.Time `gorm:"column:maintenance_start_time"`

	// Version backs optimistic concurrency on status writes; the repository
	// rejects a save whose version no longer matches the stored row.
	Version int64 `gorm:"column:version;not null;default:0"`
}

func (Bed) TableName() string {
	return "beds"
}

func (b *Bed) CanTransitionTo(newStatus Status) bool {
	allowed := map[Status][]Status{
		StatusAvailable:   {StatusOccupied, StatusMaintenance},
		StatusOccupied:    {StatusAvailable},
		StatusMaintenance: {StatusAvailable},
	}

	for _, s := range allowed[b.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

// Occupy moves an available bed to Occupied. Fails without mutating state if
// the bed is not available.
func (b *Bed) Occupy() error {
	if !b.CanTransitionTo(StatusOccupied) {
		return ErrBedUnavailable
	}
	b.Status = StatusOccupied
	return nil
}

// Release frees an occupied bed back to Available.
func (b *Bed) Release() error {
	if b.Status != StatusOccupied {
		return ErrBedNotOccupied
	}
	b.Status = StatusAvailable
	return nil
}

// EnterMaintenance takes a vacant bed out of service and stamps the
// maintenance window start. Occupied beds cannot enter maintenance.
func (b *Bed) EnterMaintenance(now time.Time) error {
	if b.Status == StatusOccupied {
		return ErrBedOccupied
	}
	if !b.CanTransitionTo(StatusMaintenance) {
		return ErrInvalidStatusTransition
	}
	b.Status = StatusMaintenance
	b.MaintenanceStartTime = &now
	return nil
}

// ExitMaintenance returns a bed to service and clears the maintenance window.
func (b *Bed) ExitMaintenance() error {
	if b.Status != StatusMaintenance {
		return ErrInvalidStatusTransition
	}
	b.Status = StatusAvailable
	b.MaintenanceStartTime = nil
	return nil
}

// Slot returns the bed's human-readable grid address, e.g. "2-3".
func (b *Bed) Slot() string {
	return strconv.Itoa(b.Row) + "-" + strconv.Itoa(b.Col)
}
