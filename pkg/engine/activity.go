package engine

import "time"

// ActivityClock tracks the last time the loop observed a wake event, a
// recognized utterance, or an interruption. Written only by the control
// loop; pure bookkeeping with no concurrency hazards.
type ActivityClock struct {
	now  func() time.Time
	last time.Time
}

// NewActivityClock creates a clock touched at construction time.
func NewActivityClock() *ActivityClock {
	c := &ActivityClock{now: time.Now}
	c.Touch()
	return c
}

// newActivityClockAt injects a time source for tests.
func newActivityClockAt(now func() time.Time) *ActivityClock {
	c := &ActivityClock{now: now}
	c.Touch()
	return c
}

// Touch sets the activity timestamp to now.
func (c *ActivityClock) Touch() {
	c.last = c.now()
}

// Elapsed returns how long ago the clock was last touched.
func (c *ActivityClock) Elapsed() time.Duration {
	return c.now().Sub(c.last)
}
