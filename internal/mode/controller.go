// Package mode cycles the light through numbered modes. Mode 0 is idle;
// every other mode shows its indicator color and falls back to 0 after a
// period without touches.
package mode

import (
	"log/slog"

	"github.com/smazurov/touchlight/internal/animation"
	"github.com/smazurov/touchlight/internal/clock"
)

const revertTask clock.TaskID = "mode-revert"

// Display is the part of the animation engine the controller drives.
type Display interface {
	Reset()
	Active() bool
	Indicate(c animation.Color)
}

// Config bounds the controller.
type Config struct {
	Max     int
	Timeout uint32 // ms of inactivity before reverting to 0
	Colors  map[int]animation.Color
}

// DefaultConfig returns three modes with a five second revert.
func DefaultConfig() Config {
	return Config{
		Max:     3,
		Timeout: 5000,
		Colors: map[int]animation.Color{
			1: animation.Magenta,
			2: animation.Yellow,
			3: animation.Cyan,
		},
	}
}

// Controller owns the current mode and its revert timer. The revert timer
// is separate from the display's timer, so animations never discard it.
type Controller struct {
	display Display
	revert  *clock.Timer
	cfg     Config
	logger  *slog.Logger

	current  int
	onChange []func(old, new int)
}

// New creates a Controller in mode 0.
func New(display Display, clk clock.Clock, cfg Config, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Max < 1 {
		cfg.Max = 1
	}
	return &Controller{
		display: display,
		revert:  clock.NewTimer(clk),
		cfg:     cfg,
		logger:  logger,
	}
}

// OnChange registers fn to run after every mode change.
func (c *Controller) OnChange(fn func(old, new int)) {
	c.onChange = append(c.onChange, fn)
}

// Set switches to mode m. Values past Max, and negative values, wrap to 1;
// only an explicit 0 returns to idle.
func (c *Controller) Set(m int) {
	if m > c.cfg.Max || m < 0 {
		m = 1
	}

	c.display.Reset()
	if m == 0 {
		c.revert.Cancel()
	} else {
		c.display.Indicate(c.color(m))
		c.revert.Once(c.cfg.Timeout, revertTask, func() { c.Set(0) })
	}
	c.change(m)
}

// Next advances to the following mode.
func (c *Controller) Next() {
	c.Set(c.current + 1)
}

// Dismiss drops back to mode 0 without touching the display. It is used
// when a mode's action takes over the light.
func (c *Controller) Dismiss() {
	c.revert.Cancel()
	c.change(0)
}

// ResetTimeout pushes a pending revert back by the timeout without
// redisplaying the mode. Repeated calls accumulate.
func (c *Controller) ResetTimeout() {
	if c.revert.Active() {
		c.revert.Postpone(c.cfg.Timeout)
	}
}

// Update fires a due revert and re-shows the mode indicator whenever the
// display slot has been freed by a finished foreground animation.
func (c *Controller) Update() {
	c.revert.Update()
	if c.current != 0 && !c.display.Active() {
		c.display.Indicate(c.color(c.current))
	}
}

// SetTimeout changes the revert timeout used from the next Set on.
func (c *Controller) SetTimeout(ms uint32) {
	c.cfg.Timeout = ms
}

// Current returns the active mode.
func (c *Controller) Current() int {
	return c.current
}

// Max returns the highest mode.
func (c *Controller) Max() int {
	return c.cfg.Max
}

func (c *Controller) color(m int) animation.Color {
	if col, ok := c.cfg.Colors[m]; ok {
		return col
	}
	return animation.Blue
}

func (c *Controller) change(m int) {
	old := c.current
	c.current = m
	if old == m {
		return
	}
	c.logger.Info("Mode changed", "from", old, "to", m)
	for _, fn := range c.onChange {
		fn(old, m)
	}
}
