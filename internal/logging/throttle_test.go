package logging

import (
	"testing"
	"time"
)

func TestProgressThrottleBoundsByElapsedTime(t *testing.T) {
	clock := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
	throttle := NewProgressThrottle(time.Second)
	throttle.now = func() time.Time { return clock }

	// 200 events spaced 10ms apart span two seconds of wall time; only the
	// first event of each elapsed second may pass.
	allowed := 0
	for i := 0; i < 200; i++ {
		if throttle.Allow() {
			allowed++
		}
		clock = clock.Add(10 * time.Millisecond)
	}
	if allowed != 2 {
		t.Fatalf("expected 2 allowed events over 2s, got %d", allowed)
	}
}

func TestProgressThrottleFirstEventPasses(t *testing.T) {
	throttle := NewProgressThrottle(time.Second)
	if !throttle.Allow() {
		t.Fatal("expected first event to pass")
	}
	if throttle.Allow() {
		t.Fatal("expected immediate second event to be suppressed")
	}
}

func TestProgressThrottleReset(t *testing.T) {
	throttle := NewProgressThrottle(time.Minute)
	if !throttle.Allow() {
		t.Fatal("expected first event to pass")
	}
	throttle.Reset()
	if !throttle.Allow() {
		t.Fatal("expected event after reset to pass")
	}
}

func TestProgressThrottleNilAllowsEverything(t *testing.T) {
	var throttle *ProgressThrottle
	if !throttle.Allow() {
		t.Fatal("nil throttle should not suppress")
	}
}
