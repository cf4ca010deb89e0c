package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/isoward/isoward/internal/config"
	"github.com/isoward/isoward/internal/domain"
	"github.com/isoward/isoward/internal/domain/bed"
	"github.com/isoward/isoward/internal/domain/booking"
	"github.com/isoward/isoward/internal/domain/patient"
	"github.com/isoward/isoward/internal/domain/ward"
)

func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:               gormlogger.Default.LogMode(gormlogger.Silent),
		PrepareStmt:          true,
		TranslateError:       true,
		DisableAutomaticPing: false,
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: false,
	}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()

	models := []any{
		&ward.Ward{},
		&bed.Bed{},
		&patient.Patient{},
		&booking.Booking{},
		&domain.ActivityLog{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []struct {
		name  string
		query string
	}{
		// One ACTIVE occupancy episode per bed and per patient at any time.
		{
			name:  "idx_bookings_active_bed",
			query: `CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_active_bed ON bookings (bed_id) WHERE status = 'ACTIVE'`,
		},
		{
			name:  "idx_bookings_active_patient",
			query: `CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_active_patient ON bookings (patient_id) WHERE status = 'ACTIVE'`,
		},
		// One active occupant per bed.
		{
			name:  "idx_patients_bed",
			query: `CREATE UNIQUE INDEX IF NOT EXISTS idx_patients_bed ON patients (bed_id) WHERE bed_id IS NOT NULL`,
		},
		{
			name:  "idx_activity_ward_time",
			query: `CREATE INDEX IF NOT EXISTS idx_activity_ward_time ON activity_logs (ward_id, created_at DESC)`,
		},
	}

	for _, idx := range indexes {
		if err := db.Exec(idx.query).Error; err != nil {
			return fmt.Errorf("creating index %s: %w", idx.name, err)
		}
	}

	return nil
}

// SeedDemoWard creates a demo ward grid when the database holds no wards.
// Used for local development and demos only.
func SeedDemoWard(db *gorm.DB, log *zap.Logger) error {
	var count int64
	if err := db.Model(&ward.Ward{}).Count(&count).Error; err != nil {
		return fmt.Errorf("counting wards: %w", err)
	}
	if count > 0 {
		return nil
	}

	w := &ward.Ward{Name: "Isolation Ward A", Type: "isolation", RowCount: 4, ColCount: 6}
	if err := db.Create(w).Error; err != nil {
		return fmt.Errorf("seeding ward: %w", err)
	}

	beds := make([]*bed.Bed, 0, w.Capacity())
	for r := 0; r < w.RowCount; r++ {
		for c := 0; c < w.ColCount; c++ {
			beds = append(beds, &bed.Bed{
				WardID: w.ID,
				Row:    r,
				Col:    c,
				Status: bed.StatusAvailable,
				Type:   bed.TypeRegular,
			})
		}
	}
	if err := db.CreateInBatches(beds, 500).Error; err != nil {
		return fmt.Errorf("seeding beds: %w", err)
	}

	log.Info("seeded demo ward",
		zap.String("ward_id", w.ID.String()),
		zap.Int("beds", len(beds)),
	)
	return nil
}
