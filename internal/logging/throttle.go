package logging

import "time"

// ProgressThrottle rate-limits progress log events to one per interval of
// wall-clock time, independent of how many events arrive or how their percent
// values advance. Fast terminals can emit hundreds of progress lines per
// second; without this the run log becomes unreadable.
type ProgressThrottle struct {
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

// NewProgressThrottle constructs a throttle that allows at most one event per
// interval (default one second).
func NewProgressThrottle(interval time.Duration) *ProgressThrottle {
	if interval <= 0 {
		interval = time.Second
	}
	return &ProgressThrottle{interval: interval, now: time.Now}
}

// Allow reports whether a progress event arriving now should be logged.
func (t *ProgressThrottle) Allow() bool {
	if t == nil {
		return true
	}
	now := t.now()
	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}

// Reset clears the throttle state (e.g. when a new job starts).
func (t *ProgressThrottle) Reset() {
	if t == nil {
		return
	}
	t.last = time.Time{}
}
