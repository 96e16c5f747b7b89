package animation

import (
	"errors"
	"fmt"

	"github.com/smazurov/touchlight/internal/clock"
)

// Kind identifies an animation. It doubles as the timer task id, so
// "is this animation still running" is a value comparison.
type Kind string

const (
	KindTouchBegin   Kind = "touch-begin"
	KindTouchHold    Kind = "touch-hold"
	KindTouchRelease Kind = "touch-release"
	KindInvalidTouch Kind = "invalid-touch"
	KindSlowPulse    Kind = "slow-pulse"
	KindSunrise      Kind = "sunrise"
	KindErrorFlash   Kind = "error-flash"
	KindSuccessFlash Kind = "success-flash"
	KindMode         Kind = "mode"
)

// ErrUnknownAnimation is returned when playing a Kind with no routine.
var ErrUnknownAnimation = errors.New("unknown animation")

func (k Kind) task() clock.TaskID {
	return clock.TaskID(k)
}

type transitionOp uint8

const (
	opStay transitionOp = iota
	opStop
	opChain
	opRetime
)

// Transition is what a frame asks the engine to do after it ran.
type Transition struct {
	op       transitionOp
	next     Kind
	interval uint32
}

// Stay keeps the current schedule as it is.
func Stay() Transition { return Transition{op: opStay} }

// Stop cancels the schedule and blanks the light.
func Stop() Transition { return Transition{op: opStop} }

// Chain hands the slot to another animation.
func Chain(next Kind) Transition { return Transition{op: opChain, next: next} }

// Retime keeps the animation running with a new frame interval.
func Retime(interval uint32) Transition { return Transition{op: opRetime, interval: interval} }

// routine is one catalog entry: how to enter the animation and how each
// frame advances it.
type routine struct {
	interval uint32
	repeat   int
	delay    uint32 // extra wait before the first frame
	enter    func(e *Engine)
	step     func(e *Engine) Transition
}

// ParseKind returns the catalog animation named s.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := defaultCatalog()[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAnimation, s)
	}
	return k, nil
}
