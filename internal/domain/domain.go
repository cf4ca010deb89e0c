package domain

import (
	"time"

	"github.com/google/uuid"
)

type ActivityType string

const (
	ActivityAdmission   ActivityType = "ADMISSION"
	ActivityDischarge   ActivityType = "DISCHARGE"
	ActivityMaintenance ActivityType = "MAINTENANCE"
	ActivityAlert       ActivityType = "ALERT"
	ActivitySystem      ActivityType = "SYSTEM"
)

func (t ActivityType) IsValid() bool {
	switch t {
	case ActivityAdmission, ActivityDischarge, ActivityMaintenance, ActivityAlert, ActivitySystem:
		return true
	}
	return false
}

// ActivityLog is one entry in the append-only audit trail consumed by
// dashboards. Entries are never mutated or deleted.
type ActivityLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	Message string       `gorm:"column:message;type:text;not null"`
	Type    ActivityType `gorm:"column:type;type:varchar(20);not null;default:'SYSTEM';index"`
	WardID  *uuid.UUID   `gorm:"column:ward_id;type:uuid;index"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
