package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/isoward/isoward/internal/domain/bed"
)

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, bed.Repository) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return mock, NewBedRepo(gdb)
}

func bedRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "ward_id", "row", "col", "status", "type", "version"})
}

// The slot columns are named after the Postgres reserved word "row"; every
// hand-written condition must quote them or the statement fails to parse.
// These expectations only match the quoted form.

func TestListByWardOrdersByQuotedSlotColumns(t *testing.T) {
	mock, repo := setupMockDB(t)
	wardID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "beds" WHERE ward_id = $1 ORDER BY "row" ASC, "col" ASC`)).
		WithArgs(wardID).
		WillReturnRows(bedRows().
			AddRow(uuid.New().String(), wardID.String(), 0, 0, "AVAILABLE", "REGULAR", 0).
			AddRow(uuid.New().String(), wardID.String(), 0, 1, "OCCUPIED", "REGULAR", 3))

	beds, err := repo.ListByWard(context.Background(), wardID, nil)
	require.NoError(t, err)
	require.Len(t, beds, 2)
	assert.Equal(t, 1, beds[1].Col)
	assert.Equal(t, bed.StatusOccupied, beds[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByWardWithStatusFilter(t *testing.T) {
	mock, repo := setupMockDB(t)
	wardID := uuid.New()
	status := bed.StatusAvailable

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "beds" WHERE ward_id = $1 AND status = $2 ORDER BY "row" ASC, "col" ASC`)).
		WithArgs(wardID, string(status)).
		WillReturnRows(bedRows().
			AddRow(uuid.New().String(), wardID.String(), 1, 2, "AVAILABLE", "REGULAR", 0))

	beds, err := repo.ListByWard(context.Background(), wardID, &status)
	require.NoError(t, err)
	require.Len(t, beds, 1)
	assert.Equal(t, bed.StatusAvailable, beds[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBySlotQuotesRowAndCol(t *testing.T) {
	mock, repo := setupMockDB(t)
	wardID := uuid.New()
	bedID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "beds" WHERE ward_id = $1 AND "row" = $2 AND "col" = $3 ORDER BY "beds"."id" LIMIT $4`)).
		WithArgs(wardID, 2, 3, 1).
		WillReturnRows(bedRows().
			AddRow(bedID.String(), wardID.String(), 2, 3, "AVAILABLE", "REGULAR", 1))

	b, err := repo.GetBySlot(context.Background(), wardID, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, bedID, b.ID)
	assert.Equal(t, 2, b.Row)
	assert.Equal(t, 3, b.Col)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBySlotNotFound(t *testing.T) {
	mock, repo := setupMockDB(t)
	wardID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "beds" WHERE ward_id = $1 AND "row" = $2 AND "col" = $3`)).
		WillReturnRows(bedRows())

	_, err := repo.GetBySlot(context.Background(), wardID, 9, 9)
	assert.ErrorIs(t, err, bed.ErrBedNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	mock, repo := setupMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "beds" WHERE id = $1`)).
		WillReturnRows(bedRows())

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, bed.ErrBedNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListNeighborsQuotesSlotConditions(t *testing.T) {
	mock, repo := setupMockDB(t)
	wardID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "beds" WHERE .*"row" = \$\d+ AND "col" = \$\d+.* OR .*"row" = \$\d+ AND "col" = \$\d+`).
		WillReturnRows(bedRows().
			AddRow(uuid.New().String(), wardID.String(), 0, 1, "OCCUPIED", "REGULAR", 0).
			AddRow(uuid.New().String(), wardID.String(), 1, 0, "OCCUPIED", "REGULAR", 0))

	coords := []bed.Coordinate{{Row: 0, Col: 1}, {Row: 1, Col: 0}}
	beds, err := repo.ListNeighbors(context.Background(), wardID, coords, bed.StatusOccupied)
	require.NoError(t, err)
	assert.Len(t, beds, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListNeighborsEmptyCoords(t *testing.T) {
	mock, repo := setupMockDB(t)

	beds, err := repo.ListNeighbors(context.Background(), uuid.New(), nil, bed.StatusOccupied)
	require.NoError(t, err)
	assert.Empty(t, beds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveIncrementsVersionOnMatch(t *testing.T) {
	mock, repo := setupMockDB(t)
	b := &bed.Bed{ID: uuid.New(), Status: bed.StatusOccupied, Version: 4}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "beds" SET .* WHERE id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Save(context.Background(), b))
	assert.Equal(t, int64(5), b.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveStaleVersionConflicts(t *testing.T) {
	mock, repo := setupMockDB(t)
	now := time.Now()
	b := &bed.Bed{ID: uuid.New(), Status: bed.StatusMaintenance, MaintenanceStartTime: &now, Version: 4}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "beds" SET .* WHERE id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Save(context.Background(), b)
	assert.ErrorIs(t, err, bed.ErrVersionConflict)
	assert.Equal(t, int64(4), b.Version, "stale save must not advance the in-memory version")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByStatusScopedToWard(t *testing.T) {
	mock, repo := setupMockDB(t)
	wardID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "beds" WHERE status = $1 AND ward_id = $2`)).
		WithArgs(string(bed.StatusAvailable), wardID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.CountByStatus(context.Background(), &wardID, bed.StatusAvailable)
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
