package bed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOccupyReleaseCycle(t *testing.T) {
	b := &Bed{Status: StatusAvailable}

	require.NoError(t, b.Occupy())
	assert.Equal(t, StatusOccupied, b.Status)

	require.NoError(t, b.Release())
	assert.Equal(t, StatusAvailable, b.Status)
}

func TestOccupyFailsUnlessAvailable(t *testing.T) {
	for _, status := range []Status{StatusOccupied, StatusMaintenance} {
		b := &Bed{Status: status}
		assert.ErrorIs(t, b.Occupy(), ErrBedUnavailable)
		assert.Equal(t, status, b.Status, "failed transition must not mutate")
	}
}

func TestReleaseFailsUnlessOccupied(t *testing.T) {
	b := &Bed{Status: StatusAvailable}
	assert.ErrorIs(t, b.Release(), ErrBedNotOccupied)
}

func TestMaintenanceWindowStamping(t *testing.T) {
	b := &Bed{Status: StatusAvailable}
	now := time.Now()

	require.NoError(t, b.EnterMaintenance(now))
	assert.Equal(t, StatusMaintenance, b.Status)
	require.NotNil(t, b.MaintenanceStartTime)
	assert.Equal(t, now, *b.MaintenanceStartTime)

	require.NoError(t, b.ExitMaintenance())
	assert.Equal(t, StatusAvailable, b.Status)
	assert.Nil(t, b.MaintenanceStartTime)
}

func TestOccupiedBedCannotEnterMaintenance(t *testing.T) {
	b := &Bed{Status: StatusOccupied}
	assert.ErrorIs(t, b.EnterMaintenance(time.Now()), ErrBedOccupied)
	assert.Equal(t, StatusOccupied, b.Status)
}

func TestExitMaintenanceRequiresMaintenance(t *testing.T) {
	b := &Bed{Status: StatusAvailable}
	assert.ErrorIs(t, b.ExitMaintenance(), ErrInvalidStatusTransition)
}

func TestBlockedIsNeverAValidTransition(t *testing.T) {
	for _, status := range []Status{StatusAvailable, StatusOccupied, StatusMaintenance} {
		b := &Bed{Status: status}
		assert.False(t, b.CanTransitionTo(StatusBlocked))
	}
}

func TestStatusIsPersisted(t *testing.T) {
	assert.True(t, StatusAvailable.IsPersisted())
	assert.True(t, StatusOccupied.IsPersisted())
	assert.True(t, StatusMaintenance.IsPersisted())
	assert.False(t, StatusBlocked.IsPersisted())
	assert.False(t, Status("bogus").IsPersisted())
}

func TestSlot(t *testing.T) {
	b := &Bed{Row: 2, Col: 3}
	assert.Equal(t, "2-3", b.Slot())
}
