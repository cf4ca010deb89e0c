// Package keylock provides per-key mutual exclusion with context-bounded
// acquisition. The allocation engine uses it to serialize read-check-write
// sequences on individual beds without one global lock.
package keylock

import (
	"context"
	"sort"
	"sync"
)

type entry struct {
	ch   chan struct{} // holds one token while locked
	refs int
}

type Locker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func New() *Locker {
	return &Locker{entries: make(map[string]*entry)}
}

// Acquire locks the given key, waiting until the lock is free or the context
// is done. On success it returns a release function that must be called
// exactly once. On context expiry it returns the context's error and the key
// remains untouched.
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		return func() {
			<-e.ch
			l.put(key, e)
		}, nil
	case <-ctx.Done():
		l.put(key, e)
		return nil, ctx.Err()
	}
}

// AcquireAll locks several keys in sorted order, so two callers crossing each
// other's keys cannot deadlock. Either all keys are held or none.
func (l *Locker) AcquireAll(ctx context.Context, keys ...string) (func(), error) {
	ordered := make([]string, len(keys))
	copy(ordered, keys)
	sort.Strings(ordered)

	releases := make([]func(), 0, len(ordered))
	for _, key := range ordered {
		release, err := l.Acquire(ctx, key)
		if err != nil {
			for i := len(releases) - 1; i >= 0; i-- {
				releases[i]()
			}
			return nil, err
		}
		releases = append(releases, release)
	}

	return func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}, nil
}

func (l *Locker) put(key string, e *entry) {
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
	l.mu.Unlock()
}

// Len returns the number of keys currently tracked (locked or contended).
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
