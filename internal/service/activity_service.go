package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/isoward/isoward/internal/domain"
)

type ActivityRepository interface {
	Create(ctx context.Context, entry *domain.ActivityLog) error
	Recent(ctx context.Context, limit int) ([]*domain.ActivityLog, error)
}

// ActivityService is the append-only activity ledger. Writes are buffered
// and persisted by a background worker so allocation operations never wait
// on ledger I/O.
type ActivityService struct {
	repo    ActivityRepository
	log     *zap.Logger
	entries chan *domain.ActivityLog
	done    chan struct{}

	onRecorded func() // metrics hooks, may be nil
	onDropped  func()
}

const defaultActivityBuffer = 10_000

func NewActivityService(repo ActivityRepository, bufferSize int, log *zap.Logger) *ActivityService {
	if bufferSize <= 0 {
		bufferSize = defaultActivityBuffer
	}
	svc := &ActivityService{
		repo:    repo,
		log:     log,
		entries: make(chan *domain.ActivityLog, bufferSize),
		done:    make(chan struct{}),
	}
	go svc.worker()
	return svc
}

// SetRecordedHook registers a callback invoked for every accepted entry.
// Must be called before concurrent use.
func (s *ActivityService) SetRecordedHook(fn func()) {
	s.onRecorded = fn
}

// SetDroppedHook registers a callback invoked whenever an entry is dropped
// because the buffer is full. Must be called before concurrent use.
func (s *ActivityService) SetDroppedHook(fn func()) {
	s.onDropped = fn
}

// Record enqueues a ledger entry for async persistence. If the buffer is
// full the entry is dropped and a warning is emitted.
func (s *ActivityService) Record(activityType domain.ActivityType, message string, wardID *uuid.UUID) {
	entry := &domain.ActivityLog{
		Message: message,
		Type:    activityType,
		WardID:  wardID,
	}

	select {
	case s.entries <- entry:
		if s.onRecorded != nil {
			s.onRecorded()
		}
	default:
		if s.onDropped != nil {
			s.onDropped()
		}
		s.log.Warn("activity buffer full, dropping entry",
			zap.String("type", string(activityType)),
			zap.String("message", message),
		)
	}
}

// Recent returns the most recent entries, newest first.
func (s *ActivityService) Recent(ctx context.Context, limit int) ([]*domain.ActivityLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.Recent(ctx, limit)
}

func (s *ActivityService) Shutdown() {
	close(s.entries)
	select {
	case <-s.done:
	case <-time.After(10 * time.Second):
		s.log.Warn("activity service shutdown timed out; some entries may be lost")
	}
}

func (s *ActivityService) worker() {
	defer close(s.done)
	for entry := range s.entries {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.repo.Create(ctx, entry); err != nil {
			s.log.Error("failed to persist activity entry", zap.Error(err))
		}
		cancel()
	}
}
