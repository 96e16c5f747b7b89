package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimer_RepeatCountFiresNPlusOne(t *testing.T) {
	clk := NewManual(0)
	timer := NewTimer(clk)

	var seen []int
	timer.Every(10, "count", func() {
		seen = append(seen, timer.Remaining())
	}, 2)

	for i := 0; i < 10; i++ {
		timer.Tick(clk.Advance(10))
	}

	assert.Equal(t, []int{2, 1, 0}, seen)
	assert.False(t, timer.Active())
	assert.Equal(t, TaskID(""), timer.Task())
}

func TestTimer_ForeverNeverDecrements(t *testing.T) {
	clk := NewManual(0)
	timer := NewTimer(clk)

	fired := 0
	timer.Every(5, "loop", func() { fired++ }, Forever)

	for i := 0; i < 100; i++ {
		timer.Tick(clk.Advance(5))
	}

	assert.Equal(t, 100, fired)
	assert.True(t, timer.Active())
	assert.Equal(t, Forever, timer.Remaining())
}

func TestTimer_OnceFiresExactlyOnce(t *testing.T) {
	clk := NewManual(100)
	timer := NewTimer(clk)

	fired := 0
	timer.Once(50, "once", func() { fired++ })

	timer.Tick(149)
	assert.Equal(t, 0, fired, "must not fire early")

	timer.Tick(150)
	timer.Tick(500)
	assert.Equal(t, 1, fired)
	assert.False(t, timer.Active())
}

func TestTimer_NextFireRelativeToActualFire(t *testing.T) {
	clk := NewManual(0)
	timer := NewTimer(clk)
	timer.Every(10, "drift", func() {}, Forever)

	timer.Tick(17)
	next, ok := timer.Deadline()
	require.True(t, ok)
	assert.Equal(t, uint32(27), next)
}

func TestTimer_NewScheduleDiscardsPrevious(t *testing.T) {
	clk := NewManual(0)
	timer := NewTimer(clk)

	var fired []string
	timer.Every(10, "a", func() { fired = append(fired, "a") }, Forever)
	timer.Every(10, "b", func() { fired = append(fired, "b") }, 0)

	timer.Tick(clk.Advance(10))
	timer.Tick(clk.Advance(10))

	assert.Equal(t, []string{"b"}, fired)
	assert.False(t, timer.Scheduled("a"))
}

func TestTimer_CancelInsideCallback(t *testing.T) {
	clk := NewManual(0)
	timer := NewTimer(clk)

	fired := 0
	timer.Every(10, "self-cancel", func() {
		fired++
		timer.Cancel()
	}, 5)

	timer.Tick(clk.Advance(10))
	timer.Tick(clk.Advance(10))

	assert.Equal(t, 1, fired)
	assert.False(t, timer.Active())
}

func TestTimer_RescheduleInsideCallbackSkipsBookkeeping(t *testing.T) {
	clk := NewManual(0)
	timer := NewTimer(clk)

	var chained []int
	timer.Once(10, "first", func() {
		timer.Every(20, "second", func() {
			chained = append(chained, timer.Remaining())
		}, 1)
	})

	timer.Tick(clk.Advance(10))
	require.True(t, timer.Scheduled("second"))
	assert.Equal(t, 1, timer.Remaining(), "replacement must not be decremented")

	timer.Tick(clk.Advance(20))
	timer.Tick(clk.Advance(20))
	assert.Equal(t, []int{1, 0}, chained)
	assert.False(t, timer.Active())
}

func TestTimer_RescheduleSameTaskSkipsBookkeeping(t *testing.T) {
	clk := NewManual(0)
	timer := NewTimer(clk)

	interval := uint32(10)
	var fn func()
	fn = func() {
		interval += 10
		timer.Every(interval, "grow", fn, 0)
	}
	timer.Every(interval, "grow", fn, 0)

	timer.Tick(clk.Advance(10))
	assert.True(t, timer.Scheduled("grow"))
	assert.Equal(t, uint32(20), timer.Interval())
	assert.Equal(t, 0, timer.Remaining())
}

func TestTimer_PostponeMovesDeadlineOnly(t *testing.T) {
	clk := NewManual(0)
	timer := NewTimer(clk)

	fired := 0
	timer.Every(10, "delayed", func() { fired++ }, 3)
	timer.Postpone(500)

	timer.Tick(clk.Advance(10))
	assert.Equal(t, 0, fired)

	clk.Set(510)
	timer.Update()
	assert.Equal(t, 1, fired)
	assert.Equal(t, uint32(10), timer.Interval())
	assert.Equal(t, 2, timer.Remaining())

	// later firings keep the original cadence from the postponed one
	clk.Set(519)
	timer.Update()
	assert.Equal(t, 1, fired)

	clk.Set(520)
	timer.Update()
	assert.Equal(t, 2, fired)
	assert.Equal(t, 1, timer.Remaining())
}

func TestTimer_WrapAround(t *testing.T) {
	clk := NewManual(0xFFFFFFF0)
	timer := NewTimer(clk)

	fired := 0
	timer.Once(0x20, "wrap", func() { fired++ })

	// deadline is 0x10 after the wrap; a reading just before the wrap is not due
	timer.Tick(0xFFFFFFFF)
	assert.Equal(t, 0, fired)

	timer.Tick(0x0F)
	assert.Equal(t, 0, fired)

	timer.Tick(0x10)
	assert.Equal(t, 1, fired)
}

func TestTimer_IdleTickIsNoop(t *testing.T) {
	timer := NewTimer(NewManual(0))
	assert.NotPanics(t, func() { timer.Tick(1000) })
	assert.False(t, timer.Active())
}

func TestTimer_Update(t *testing.T) {
	clk := NewManual(0)
	timer := NewTimer(clk)

	fired := 0
	timer.Once(10, "update", func() { fired++ })

	timer.Update()
	assert.Equal(t, 0, fired)

	clk.Advance(10)
	timer.Update()
	assert.Equal(t, 1, fired)
}
