package testutil

import "sync"

// TraceClock hands out addb2-style nanosecond timestamps for fixtures.
//
// Every call to Next advances the clock by a fixed step, so a fixture that
// records the same transitions in the same order always gets the same times.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type TraceClock struct {
	mu   sync.Mutex
	step int64
	now  int64
}

// NewTraceClock creates a clock at start that advances by step nanoseconds.
//
// The first call to Next() returns start+step.
func NewTraceClock(start, step int64) *TraceClock {
	return &TraceClock{step: step, now: start}
}

// Next advances the clock and returns the new time.
func (c *TraceClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += c.step
	return c.now
}
