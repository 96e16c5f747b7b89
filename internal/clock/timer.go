package clock

// TaskID names the work occupying a Timer. Identity checks compare ids by
// value.
type TaskID string

// Forever is the repeat count of a schedule that never runs out.
const Forever = -1

// Timer is a single-slot cooperative scheduler. It holds at most one pending
// schedule; starting a new one silently discards the previous. Nothing runs
// until Tick or Update is called.
type Timer struct {
	clock Clock

	active   bool
	interval uint32
	next     uint32
	task     TaskID
	fn       func()
	repeat   int

	// gen changes every time the slot is rewritten, so Tick can tell that a
	// callback replaced or cancelled its own schedule even when the new
	// schedule carries the same TaskID.
	gen uint64
}

// NewTimer creates an idle Timer reading time from c.
func NewTimer(c Clock) *Timer {
	return &Timer{clock: c}
}

// Every schedules fn under task to fire every interval milliseconds. A
// repeat of Forever never runs out; repeat N >= 0 fires exactly N+1 times.
// The first firing is one interval from now.
func (t *Timer) Every(interval uint32, task TaskID, fn func(), repeat int) {
	t.gen++
	t.active = true
	t.interval = interval
	t.next = t.clock.NowMillis() + interval
	t.task = task
	t.fn = fn
	t.repeat = repeat
}

// Once schedules fn to fire a single time after interval milliseconds.
func (t *Timer) Once(interval uint32, task TaskID, fn func()) {
	t.Every(interval, task, fn, 0)
}

// Cancel clears the slot. Safe to call from inside the running callback.
func (t *Timer) Cancel() {
	t.gen++
	t.active = false
	t.interval = 0
	t.next = 0
	t.task = ""
	t.fn = nil
	t.repeat = 0
}

// Tick fires the pending callback if now has reached its deadline. The next
// deadline is computed from now before the callback runs, so lateness is not
// compensated. If the callback rewrote the slot, repeat bookkeeping is
// skipped and the new schedule stands as written.
func (t *Timer) Tick(now uint32) {
	if !t.active || !Reached(now, t.next) {
		return
	}

	t.next = now + t.interval
	gen := t.gen
	if t.fn != nil {
		t.fn()
	}

	if gen != t.gen || t.repeat == Forever {
		return
	}

	t.repeat--
	if t.repeat < 0 {
		t.Cancel()
	}
}

// Update ticks the timer at the clock's current reading.
func (t *Timer) Update() {
	t.Tick(t.clock.NowMillis())
}

// Postpone pushes the pending deadline back by ms. Interval, callback and
// repeat counter are left alone.
func (t *Timer) Postpone(ms uint32) {
	t.next += ms
}

// Remaining returns the repeat counter. Inside a firing it still holds the
// value for the firing in progress.
func (t *Timer) Remaining() int {
	return t.repeat
}

// Active reports whether a schedule is pending.
func (t *Timer) Active() bool {
	return t.active
}

// Scheduled reports whether task currently owns the slot.
func (t *Timer) Scheduled(task TaskID) bool {
	return t.active && t.task == task
}

// Task returns the id occupying the slot, or "" when idle.
func (t *Timer) Task() TaskID {
	return t.task
}

// Deadline returns the next fire time and whether a schedule is pending.
func (t *Timer) Deadline() (uint32, bool) {
	return t.next, t.active
}

// Interval returns the interval of the pending schedule.
func (t *Timer) Interval() uint32 {
	return t.interval
}
