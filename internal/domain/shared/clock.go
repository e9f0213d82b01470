package shared

import "time"

// Clock abstracts the current time so scheduling logic can be tested
// against virtual time instead of sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystemClock returns a clock backed by time.Now.
func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the instant it was created with. Tests advance
// it explicitly via Advance.
type FixedClock struct {
	now time.Time
}

// NewFixedClock returns a clock pinned to t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{now: t.UTC()}
}

// Now returns the pinned instant.
func (c *FixedClock) Now() time.Time {
	return c.now
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// Set pins the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.now = t.UTC()
}
