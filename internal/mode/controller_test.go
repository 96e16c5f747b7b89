package mode

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smazurov/touchlight/internal/animation"
	"github.com/smazurov/touchlight/internal/clock"
	"github.com/smazurov/touchlight/internal/led"
)

type fakeDisplay struct {
	active    bool
	resets    int
	indicated []animation.Color
}

func (d *fakeDisplay) Reset() {
	d.resets++
	d.active = false
}

func (d *fakeDisplay) Active() bool { return d.active }

func (d *fakeDisplay) Indicate(c animation.Color) {
	d.indicated = append(d.indicated, c)
	d.active = true
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestController() (*Controller, *fakeDisplay, *clock.Manual) {
	d := &fakeDisplay{}
	clk := clock.NewManual(0)
	return New(d, clk, DefaultConfig(), discard()), d, clk
}

func TestSet_ShowsColorAndSchedulesRevert(t *testing.T) {
	c, d, clk := newTestController()

	c.Set(2)
	assert.Equal(t, 2, c.Current())
	assert.Equal(t, 1, d.resets)
	assert.Equal(t, []animation.Color{animation.Yellow}, d.indicated)

	clk.Set(4999)
	c.Update()
	assert.Equal(t, 2, c.Current())

	clk.Set(5000)
	c.Update()
	assert.Equal(t, 0, c.Current())
	assert.False(t, d.active, "revert blanks the display")
}

func TestSet_WrapsToOne(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"past max", 4, 1},
		{"far past max", 100, 1},
		{"negative", -1, 1},
		{"max", 3, 3},
		{"zero", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newTestController()
			c.Set(tt.in)
			assert.Equal(t, tt.want, c.Current())
		})
	}
}

func TestNext_CyclesWithoutIdle(t *testing.T) {
	c, d, _ := newTestController()

	var seen []int
	for i := 0; i < 5; i++ {
		c.Next()
		seen = append(seen, c.Current())
	}
	assert.Equal(t, []int{1, 2, 3, 1, 2}, seen)
	assert.Equal(t, animation.Magenta, d.indicated[0])
	assert.Equal(t, animation.Cyan, d.indicated[2])
}

func TestSetZero_CancelsRevert(t *testing.T) {
	c, d, clk := newTestController()
	var changes [][2]int
	c.OnChange(func(old, new int) { changes = append(changes, [2]int{old, new}) })

	c.Set(1)
	c.Set(0)
	clk.Set(10000)
	c.Update()

	assert.Equal(t, 0, c.Current())
	assert.Equal(t, [][2]int{{0, 1}, {1, 0}}, changes, "revert never fires a second change")
	assert.Len(t, d.indicated, 1)
}

func TestResetTimeout_PostponesRevert(t *testing.T) {
	c, d, clk := newTestController()
	c.Set(1)

	clk.Set(4000)
	c.ResetTimeout()
	c.Update()
	assert.Len(t, d.indicated, 1, "resetting the timeout does not redisplay")

	clk.Set(9999)
	c.Update()
	assert.Equal(t, 1, c.Current())

	clk.Set(10000)
	c.Update()
	assert.Equal(t, 0, c.Current())
}

func TestResetTimeout_IdleIsNoop(t *testing.T) {
	c, _, clk := newTestController()
	c.ResetTimeout()
	clk.Set(20000)
	c.Update()
	assert.Equal(t, 0, c.Current())
}

func TestUpdate_ReassertsIndicatorWhenSlotFree(t *testing.T) {
	c, d, _ := newTestController()
	c.Set(3)
	require.Len(t, d.indicated, 1)

	// a foreground animation holds the slot
	c.Update()
	assert.Len(t, d.indicated, 1)

	// and finishes
	d.active = false
	c.Update()
	assert.Len(t, d.indicated, 2)
	assert.Equal(t, animation.Cyan, d.indicated[1])
}

func TestUpdate_IdleModeLeavesDisplayAlone(t *testing.T) {
	c, d, _ := newTestController()
	c.Update()
	assert.Empty(t, d.indicated)
	assert.Zero(t, d.resets)
}

func TestDismiss_KeepsDisplay(t *testing.T) {
	c, d, clk := newTestController()
	c.Set(1)
	resets := d.resets

	c.Dismiss()
	assert.Equal(t, 0, c.Current())
	assert.Equal(t, resets, d.resets)

	clk.Set(6000)
	c.Update()
	assert.Equal(t, resets, d.resets, "no revert left to fire")
}

func TestSetTimeout(t *testing.T) {
	c, _, clk := newTestController()
	c.SetTimeout(100)
	c.Set(1)

	clk.Set(100)
	c.Update()
	assert.Equal(t, 0, c.Current())
}

func TestMissingColorFallsBackToBlue(t *testing.T) {
	d := &fakeDisplay{}
	c := New(d, clock.NewManual(0), Config{Max: 5, Timeout: 1000}, discard())
	c.Set(5)
	assert.Equal(t, []animation.Color{animation.Blue}, d.indicated)
	assert.Equal(t, 5, c.Max())
}

func TestWithEngine_ForegroundThenIdle(t *testing.T) {
	clk := clock.NewManual(0)
	leds := led.NewRecorder()
	engine := animation.NewEngine(leds, clock.NewTimer(clk), discard())
	c := New(engine, clk, DefaultConfig(), discard())

	c.Set(1)
	assert.True(t, engine.Scheduled(animation.KindMode))

	engine.InvalidTouch()
	clk.Set(100)
	engine.Update()
	c.Update()
	assert.Equal(t, animation.Red, engine.Color(), "foreground animation is left alone")

	clk.Set(500)
	engine.Update()
	c.Update()
	assert.True(t, engine.Scheduled(animation.KindMode))
	assert.Equal(t, animation.Magenta, engine.Color())
}
