// Package clock provides the millisecond time source and the single-slot
// cooperative timer that drives every animation and timeout of the light.
package clock

import "time"

// Clock is a monotonic millisecond counter. The counter is 32 bits wide and
// wraps; callers compare instants with Elapsed or Reached, never with <.
type Clock interface {
	NowMillis() uint32
}

// System is a Clock backed by the process monotonic clock.
type System struct {
	start time.Time
}

// NewSystem returns a System clock that reads zero now.
func NewSystem() *System {
	return &System{start: time.Now()}
}

// NowMillis returns the milliseconds since the clock was created, truncated
// to 32 bits.
func (s *System) NowMillis() uint32 {
	return uint32(time.Since(s.start).Milliseconds())
}

// Manual is a Clock that only moves when told to. Used by tests and by the
// simulator when stepping frames.
type Manual struct {
	now uint32
}

// NewManual returns a Manual clock reading start.
func NewManual(start uint32) *Manual {
	return &Manual{now: start}
}

// NowMillis returns the current reading.
func (m *Manual) NowMillis() uint32 {
	return m.now
}

// Set moves the clock to ms.
func (m *Manual) Set(ms uint32) {
	m.now = ms
}

// Advance moves the clock forward by ms and returns the new reading.
func (m *Manual) Advance(ms uint32) uint32 {
	m.now += ms
	return m.now
}

// Elapsed returns the milliseconds between since and now, correct across a
// single counter wrap.
func Elapsed(since, now uint32) uint32 {
	return now - since
}

// Reached reports whether now is at or past deadline. The comparison is done
// on the signed difference so it stays correct when the counter wraps between
// the two readings.
func Reached(now, deadline uint32) bool {
	return int32(now-deadline) >= 0
}
