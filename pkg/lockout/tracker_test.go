package lockout

import (
	"testing"
	"time"
)

// fakeClock is a manually advanced time source
type fakeClock struct {
	current time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{current: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.current }
func (c *fakeClock) Advance(d time.Duration) { c.current = c.current.Add(d) }

func TestTracker_LocksAfterMaxFailures(t *testing.T) {
	clock := newFakeClock()
	tracker := NewTrackerWithClock(3, 30*time.Second, clock.Now)

	if tracker.RecordFailure("admin") {
		t.Error("first failure should not lock")
	}
	if tracker.RecordFailure("admin") {
		t.Error("second failure should not lock")
	}
	if !tracker.RecordFailure("admin") {
		t.Error("third failure should lock")
	}

	locked, remaining := tracker.IsLocked("admin")
	if !locked {
		t.Fatal("expected account to be locked")
	}
	if remaining != 30*time.Second {
		t.Errorf("remaining = %v, want 30s", remaining)
	}
}

func TestTracker_RemainingCountsDown(t *testing.T) {
	clock := newFakeClock()
	tracker := NewTrackerWithClock(3, 30*time.Second, clock.Now)

	for i := 0; i < 3; i++ {
		tracker.RecordFailure("admin")
	}

	clock.Advance(10 * time.Second)
	locked, remaining := tracker.IsLocked("admin")
	if !locked {
		t.Fatal("expected lock to still hold after 10s")
	}
	if remaining != 20*time.Second {
		t.Errorf("remaining = %v, want 20s", remaining)
	}
}

func TestTracker_LazyExpiryForgivesCount(t *testing.T) {
	clock := newFakeClock()
	tracker := NewTrackerWithClock(3, 30*time.Second, clock.Now)

	for i := 0; i < 3; i++ {
		tracker.RecordFailure("admin")
	}

	// Elapsed time alone clears the lock and the count, no success needed
	clock.Advance(30 * time.Second)
	if locked, _ := tracker.IsLocked("admin"); locked {
		t.Fatal("expected lock to clear once the deadline elapsed")
	}
	if got := tracker.Failures("admin"); got != 0 {
		t.Errorf("Failures = %d, want 0 immediately after expiry", got)
	}
}

func TestTracker_WarningStateKeepsCount(t *testing.T) {
	clock := newFakeClock()
	tracker := NewTrackerWithClock(3, 30*time.Second, clock.Now)

	tracker.RecordFailure("admin")
	tracker.RecordFailure("admin")

	// Below the threshold, time passing does not forgive anything
	clock.Advance(time.Hour)
	if got := tracker.Failures("admin"); got != 2 {
		t.Errorf("Failures = %d, want 2", got)
	}
	if locked, _ := tracker.IsLocked("admin"); locked {
		t.Error("two failures should not lock")
	}
}

func TestTracker_KeysAreIndependent(t *testing.T) {
	clock := newFakeClock()
	tracker := NewTrackerWithClock(3, 30*time.Second, clock.Now)

	for i := 0; i < 3; i++ {
		tracker.RecordFailure("alice")
	}
	tracker.RecordFailure("bob")

	if locked, _ := tracker.IsLocked("alice"); !locked {
		t.Error("expected alice to be locked")
	}
	if locked, _ := tracker.IsLocked("bob"); locked {
		t.Error("expected bob to be unlocked")
	}
	if got := tracker.Failures("bob"); got != 1 {
		t.Errorf("bob failures = %d, want 1", got)
	}
}

func TestTracker_ResetAndClear(t *testing.T) {
	clock := newFakeClock()
	tracker := NewTrackerWithClock(10, time.Minute, clock.Now)

	for i := 0; i < 4; i++ {
		tracker.RecordFailure("10.0.0.1")
	}

	tracker.Reset("10.0.0.1")
	if got := tracker.Failures("10.0.0.1"); got != 0 {
		t.Errorf("Failures after Reset = %d, want 0", got)
	}

	for i := 0; i < 4; i++ {
		tracker.RecordFailure("10.0.0.1")
	}
	tracker.Clear("10.0.0.1")
	if got := tracker.Failures("10.0.0.1"); got != 0 {
		t.Errorf("Failures after Clear = %d, want 0", got)
	}
}

func TestTracker_RelockAfterExpiry(t *testing.T) {
	clock := newFakeClock()
	tracker := NewTrackerWithClock(3, 30*time.Second, clock.Now)

	for i := 0; i < 3; i++ {
		tracker.RecordFailure("admin")
	}
	clock.Advance(31 * time.Second)

	// Expired lock resets the count, so locking again takes a full round
	if tracker.RecordFailure("admin") {
		t.Error("first failure after expiry should not lock")
	}
	tracker.RecordFailure("admin")
	if !tracker.RecordFailure("admin") {
		t.Error("third failure after expiry should lock again")
	}
}
