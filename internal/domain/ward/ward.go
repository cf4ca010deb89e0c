package ward

import (
	"time"

	"github.com/google/uuid"
)

// Ward is a rectangular grid of bed slots managed as one isolation unit.
// Its RowCount x ColCount beds are created in bulk when the ward is
// initialized and exactly tile the grid with no gaps.
type Ward struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Name     string `gorm:"column:name;type:varchar(100);not null"`
	Type     string `gorm:"column:type;type:varchar(50);not null;default:'general'"`
	RowCount int    `gorm:"column:row_count;not null"`
	ColCount int    `gorm:"column:col_count;not null"`
}

func (Ward) TableName() string {
	return "wards"
}

// Capacity returns the number of bed slots the ward's grid holds.
func (w *Ward) Capacity() int {
	return w.RowCount * w.ColCount
}

// Contains reports whether (row, col) addresses a slot inside the grid.
func (w *Ward) Contains(row, col int) bool {
	return row >= 0 && row < w.RowCount && col >= 0 && col < w.ColCount
}

type CreateWardCommand struct {
	Name     string
	Type     string
	RowCount int
	ColCount int
}
