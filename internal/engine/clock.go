package engine

import "sync/atomic"

// Clock is the logical clock that stamps applied actions.
//
// Every action the engine applies gets a strictly increasing seq. This
// gives:
//   - ordering by seq alone, never by wall time
//   - replay of the action log reproducing the same states in the same order
//   - a resume point for appending to an existing log
//
// Thread-safety: Clock is safe for concurrent use. In practice only the
// engine's writer goroutine calls Next.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming after start, so the first Next
// returns start+1. Used when appending to an existing action log, with
// start set to the log's last seq.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new sequence number.
// Each call returns a unique value greater than every earlier one.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number without advancing.
// Zero means nothing has been stamped.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
