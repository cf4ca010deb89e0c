package service

import "github.com/google/uuid"

// Notifier publishes coarse "ward changed" invalidation signals to live
// viewers. Publication is best-effort: failures never roll back a committed
// mutation, and implementations must not block the caller.
//
// The allocation engine receives its Notifier at construction; nothing in
// the engine reaches for a process-wide broadcaster.
type Notifier interface {
	NotifyWardChanged(wardID uuid.UUID)
}

// NopNotifier discards all notifications. Used in tests and in tools that
// drive the engine without a realtime hub.
type NopNotifier struct{}

func (NopNotifier) NotifyWardChanged(uuid.UUID) {}
