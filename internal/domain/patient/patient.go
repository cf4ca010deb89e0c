package patient

import (
	"time"

	"github.com/google/uuid"
)

// Condition is a patient's infection status. It drives the adjacency rule:
// infectious and non-infectious occupants must never be orthogonal grid
// neighbors, while two infectious occupants may cohort.
type Condition string

const (
	ConditionInfectious    Condition = "INFECTIOUS"
	ConditionNonInfectious Condition = "NON_INFECTIOUS"
)

func (c Condition) IsValid() bool {
	switch c {
	case ConditionInfectious, ConditionNonInfectious:
		return true
	}
	return false
}

func (c Condition) IsInfectious() bool {
	return c == ConditionInfectious
}

type Patient struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Name      string    `gorm:"column:name;type:varchar(100);not null"`
	Age       int       `gorm:"column:age;not null"`
	Condition Condition `gorm:"column:condition;type:varchar(20);not null;index"`

	// BedID is nil when the patient is not occupying any bed (discharged or
	// not yet admitted). When set, the referenced bed is OCCUPIED and this
	// patient is its single active occupant. Discharge clears the pointer but
	// keeps the record for history.
	BedID *uuid.UUID `gorm:"column:bed_id;type:uuid;index"`
}

func (Patient) TableName() string {
	return "patients"
}

// IsBedded reports whether the patient currently occupies a bed.
func (p *Patient) IsBedded() bool {
	return p.BedID != nil
}

type AdmitPatientCommand struct {
	Name      string
	Age       int
	Condition Condition
}

// ListPatientsQuery filters the patient roster. An empty search matches all.
type ListPatientsQuery struct {
	Search     string
	BeddedOnly bool
}
