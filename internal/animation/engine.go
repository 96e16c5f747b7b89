// Package animation owns the light's color and plays timed color sequences
// on a single-slot clock.Timer.
//
// Every animation is a catalog entry: an enter routine that sets the first
// color synchronously, and a step routine run on each timer firing that
// mutates the color and returns a Transition. The engine applies the
// transition, so frames never touch the timer themselves.
package animation

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/smazurov/touchlight/internal/clock"
	"github.com/smazurov/touchlight/internal/led"
)

// Engine plays animations. It is not safe for concurrent use; the host loop
// owns it.
type Engine struct {
	driver   led.Driver
	timer    *clock.Timer
	logger   *slog.Logger
	routines map[Kind]routine

	color     Color
	indicator Color // color shown by KindMode

	rising        bool   // slow-pulse direction
	pulseInterval uint32 // slow-pulse frame interval

	onStart      []func(Kind)
	onWriteError func(error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithStartHook registers fn to run whenever an animation takes the slot,
// including chained hand-offs.
func WithStartHook(fn func(Kind)) Option {
	return func(e *Engine) {
		e.onStart = append(e.onStart, fn)
	}
}

// WithWriteErrorHook registers fn to receive LED driver errors. Errors are
// always logged; they never interrupt an animation.
func WithWriteErrorHook(fn func(error)) Option {
	return func(e *Engine) {
		e.onWriteError = fn
	}
}

// NewEngine creates an Engine drawing on drv and scheduling on timer. The
// light is blanked immediately.
func NewEngine(drv led.Driver, timer *clock.Timer, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		driver:   drv,
		timer:    timer,
		logger:   logger,
		routines: defaultCatalog(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.set(Off)
	return e
}

// Play starts the animation named kind, replacing whatever held the slot.
func (e *Engine) Play(kind Kind) error {
	r, ok := e.routines[kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAnimation, kind)
	}

	if r.enter != nil {
		r.enter(e)
	}
	e.schedule(kind, r, r.interval)
	if r.delay > 0 {
		e.timer.Postpone(r.delay)
	}

	e.logger.Debug("Animation started", "kind", string(kind))
	for _, fn := range e.onStart {
		fn(kind)
	}
	return nil
}

func (e *Engine) schedule(kind Kind, r routine, interval uint32) {
	e.timer.Every(interval, kind.task(), func() { e.advance(kind, r) }, r.repeat)
}

// advance runs one frame of kind and applies the transition it returns.
func (e *Engine) advance(kind Kind, r routine) {
	t := r.step(e)

	switch t.op {
	case opStop:
		e.Reset()
	case opChain:
		if err := e.Play(t.next); err != nil {
			e.logger.Error("Animation chain failed", "from", string(kind), "to", string(t.next), "error", err)
			e.Reset()
		}
	case opRetime:
		e.schedule(kind, r, t.interval)
	}
}

// TouchBegin fades in after a short delay and holds blue while touched.
func (e *Engine) TouchBegin() { e.mustPlay(KindTouchBegin) }

// TouchHold shows steady blue.
func (e *Engine) TouchHold() { e.mustPlay(KindTouchHold) }

// TouchRelease fades blue out to dark.
func (e *Engine) TouchRelease() { e.mustPlay(KindTouchRelease) }

// InvalidTouch flashes red once.
func (e *Engine) InvalidTouch() { e.mustPlay(KindInvalidTouch) }

// SlowPulse breathes white with a growing period until replaced.
func (e *Engine) SlowPulse() { e.mustPlay(KindSlowPulse) }

// Sunrise ramps to orange over about four minutes.
func (e *Engine) Sunrise() { e.mustPlay(KindSunrise) }

// ErrorFlash blinks red until cancelled.
func (e *Engine) ErrorFlash() { e.mustPlay(KindErrorFlash) }

// SuccessFlash fades green out to dark.
func (e *Engine) SuccessFlash() { e.mustPlay(KindSuccessFlash) }

// Indicate shows c as the idle mode indicator.
func (e *Engine) Indicate(c Color) {
	e.indicator = c
	e.mustPlay(KindMode)
}

func (e *Engine) mustPlay(kind Kind) {
	if err := e.Play(kind); err != nil {
		e.logger.Error("Animation missing from catalog", "kind", string(kind), "error", err)
	}
}

// Reset cancels whatever holds the slot and blanks the light.
func (e *Engine) Reset() {
	e.timer.Cancel()
	e.set(Off)
}

// Update advances the running animation if a frame is due.
func (e *Engine) Update() {
	e.timer.Update()
}

// Active reports whether any animation holds the slot.
func (e *Engine) Active() bool {
	return e.timer.Active()
}

// Scheduled reports whether kind holds the slot.
func (e *Engine) Scheduled(kind Kind) bool {
	return e.timer.Scheduled(kind.task())
}

// Current returns the kind holding the slot, or "" when idle.
func (e *Engine) Current() Kind {
	return Kind(e.timer.Task())
}

// Color returns the color last written.
func (e *Engine) Color() Color {
	return e.color
}

// Kinds returns every playable animation in name order.
func (e *Engine) Kinds() []Kind {
	kinds := make([]Kind, 0, len(e.routines))
	for k := range e.routines {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// set stores c and writes it out.
func (e *Engine) set(c Color) {
	e.color = c
	e.logger.Debug("color", "rgb", c.String(), "inverted", c.Inverted().String())

	if err := Write(e.driver, c); err != nil {
		e.logger.Warn("LED write failed", "rgb", c.String(), "error", err)
		if e.onWriteError != nil {
			e.onWriteError(err)
		}
	}
}
