package testutil

import (
	"sync"
	"time"
)

// Epoch is the start time of clocks built by the constructors below.
var Epoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// FakeClock is a manually advanced clock for tests.
//
// Time only moves when Advance or Set is called, so a job driven by a
// FakeClock sees zero elapsed time inside one call.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a fake clock at Epoch.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: Epoch}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// StepClock advances by a fixed step on every reading.
//
// Every piece of work measured against a StepClock appears to take at least
// one step, which makes budget checks fail as soon as they are consulted.
type StepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewStepClock creates a step clock at Epoch.
func NewStepClock(step time.Duration) *StepClock {
	return &StepClock{now: Epoch, step: step}
}

// Now advances the clock by one step and returns the new time.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

// Readings returns how many steps the clock has taken.
func (c *StepClock) Readings() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int(c.now.Sub(Epoch) / c.step)
}
