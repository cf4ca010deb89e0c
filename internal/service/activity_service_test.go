package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/isoward/isoward/internal/domain"
)

func TestActivityRecordAndRecent(t *testing.T) {
	store := newMemStore()
	svc := NewActivityService(&fakeActivityRepo{s: store}, 100, zap.NewNop())

	svc.Record(domain.ActivityAdmission, "first", nil)
	svc.Record(domain.ActivityDischarge, "second", nil)
	svc.Record(domain.ActivityAlert, "third", nil)
	svc.Shutdown() // drains the buffer

	recent, err := svc.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "third", recent[0].Message)
	assert.Equal(t, "second", recent[1].Message)
}

func TestActivityRecentDefaultsLimit(t *testing.T) {
	store := newMemStore()
	svc := NewActivityService(&fakeActivityRepo{s: store}, 100, zap.NewNop())

	for i := 0; i < 30; i++ {
		svc.Record(domain.ActivitySystem, "entry", nil)
	}
	svc.Shutdown()

	recent, err := svc.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, recent, 20)
}

// blockingActivityRepo parks the worker inside Create until released.
type blockingActivityRepo struct {
	entered chan struct{}
	proceed chan struct{}
}

func (r *blockingActivityRepo) Create(context.Context, *domain.ActivityLog) error {
	r.entered <- struct{}{}
	<-r.proceed
	return nil
}

func (r *blockingActivityRepo) Recent(context.Context, int) ([]*domain.ActivityLog, error) {
	return nil, nil
}

func TestActivityDropsWhenBufferFull(t *testing.T) {
	repo := &blockingActivityRepo{
		entered: make(chan struct{}, 4),
		proceed: make(chan struct{}),
	}
	svc := NewActivityService(repo, 1, zap.NewNop())

	dropped := 0
	svc.SetDroppedHook(func() { dropped++ })

	svc.Record(domain.ActivitySystem, "consumed by worker", nil)
	<-repo.entered // worker is now stuck in Create

	svc.Record(domain.ActivitySystem, "fills the buffer", nil)
	svc.Record(domain.ActivitySystem, "overflows", nil)
	assert.Equal(t, 1, dropped)

	close(repo.proceed)
	svc.Shutdown()
}
