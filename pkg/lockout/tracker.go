// Package lockout implements a failure-counting lock keyed by an
// arbitrary string. The authenticator runs two independently
// parameterized instances: one keyed by account login and one keyed by
// source address.
package lockout

import (
	"sync"
	"time"
)

// entry is the per-key state: Clear (failures 0), Warning (failures
// below the threshold) or Locked (failures at the threshold with an
// unlock deadline).
type entry struct {
	failures int
	unlockAt time.Time
}

// Tracker counts failures per key and locks a key for a fixed duration
// once the failure threshold is reached. A lock clears lazily: the first
// check after the deadline resets the key to zero failures, whether or
// not a successful authentication ever happened.
type Tracker struct {
	maxFailures  int
	lockDuration time.Duration
	now          func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

// NewTracker creates a Tracker that locks a key for lockDuration after
// maxFailures failures
func NewTracker(maxFailures int, lockDuration time.Duration) *Tracker {
	return NewTrackerWithClock(maxFailures, lockDuration, time.Now)
}

// NewTrackerWithClock creates a Tracker with an injected time source
func NewTrackerWithClock(maxFailures int, lockDuration time.Duration, now func() time.Time) *Tracker {
	return &Tracker{
		maxFailures:  maxFailures,
		lockDuration: lockDuration,
		now:          now,
		entries:      make(map[string]*entry),
	}
}

// RecordFailure increments the failure count for key and reports whether
// this failure locked the key
func (t *Tracker) RecordFailure(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[key]
	if !ok {
		e = &entry{}
		t.entries[key] = e
	}
	t.expireLocked(e)

	e.failures++
	if e.failures >= t.maxFailures {
		e.unlockAt = t.now().Add(t.lockDuration)
		return true
	}
	return false
}

// IsLocked reports whether key is currently locked and, if so, the time
// remaining until it unlocks. Checking an expired lock resets the key.
func (t *Tracker) IsLocked(key string) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[key]
	if !ok {
		return false, 0
	}
	t.expireLocked(e)

	if e.failures >= t.maxFailures {
		return true, e.unlockAt.Sub(t.now())
	}
	return false, 0
}

// Failures returns the current failure count for key, after lazy expiry
func (t *Tracker) Failures(key string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[key]
	if !ok {
		return 0
	}
	t.expireLocked(e)
	return e.failures
}

// Reset zeroes the failure count for key
func (t *Tracker) Reset(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.entries[key]; ok {
		e.failures = 0
	}
}

// Clear removes all state for key
func (t *Tracker) Clear(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
}

// MaxFailures returns the configured failure threshold
func (t *Tracker) MaxFailures() int { return t.maxFailures }

// LockDuration returns the configured lock duration
func (t *Tracker) LockDuration() time.Duration { return t.lockDuration }

// expireLocked resets a locked entry whose deadline has passed. Time
// alone forgives the whole count, not just the lock.
func (t *Tracker) expireLocked(e *entry) {
	if e.failures >= t.maxFailures && !t.now().Before(e.unlockAt) {
		e.failures = 0
	}
}
