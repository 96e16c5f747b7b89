package animation

import "github.com/smazurov/touchlight/internal/clock"

const (
	touchBeginInterval   = 10
	touchBeginDelay      = 500
	holdInterval         = 1000
	touchReleaseInterval = 8
	invalidTouchHold     = 500
	pulseInterval        = 10
	pulseStep            = 10
	sunriseInterval      = 1000
	sunriseFrames        = 254
	sunriseGreenEvery    = 15
	errorFlashInterval   = 250
	successInterval      = 10
)

func defaultCatalog() map[Kind]routine {
	return map[Kind]routine{
		// Fades everything up after a short delay so taps never light up,
		// then settles on blue while the finger stays down.
		KindTouchBegin: {
			interval: touchBeginInterval,
			repeat:   clock.Forever,
			delay:    touchBeginDelay,
			enter:    func(e *Engine) { e.set(Off) },
			step: func(e *Engine) Transition {
				if e.color.B == 255 {
					return Chain(KindTouchHold)
				}
				c := e.color
				e.set(Color{R: c.R + 1, G: c.G + 1, B: c.B + 1})
				return Stay()
			},
		},

		KindTouchHold: {
			interval: holdInterval,
			repeat:   clock.Forever,
			enter:    func(e *Engine) { e.set(Blue) },
			step: func(e *Engine) Transition {
				e.set(Blue)
				return Stay()
			},
		},

		// 255 steps from full blue to dark. A step fires on the first poll at
		// or past its deadline, so the fade lasts about two seconds with a 1ms
		// poll and stretches with coarser ones.
		KindTouchRelease: {
			interval: touchReleaseInterval,
			repeat:   clock.Forever,
			enter:    func(e *Engine) { e.set(Blue) },
			step: func(e *Engine) Transition {
				if e.color.B == 0 {
					return Stop()
				}
				c := e.color
				c.B--
				e.set(c)
				return Stay()
			},
		},

		KindInvalidTouch: {
			interval: invalidTouchHold,
			repeat:   0,
			enter:    func(e *Engine) { e.set(Red) },
			step:     func(*Engine) Transition { return Stop() },
		},

		// Breathes white, slowing down a little at every turn.
		KindSlowPulse: {
			interval: pulseInterval,
			repeat:   clock.Forever,
			enter: func(e *Engine) {
				e.rising = true
				e.pulseInterval = pulseInterval
				e.set(Off)
			},
			step: func(e *Engine) Transition {
				v := e.color.R
				if e.rising {
					v++
				} else {
					v--
				}
				e.set(Color{R: v, G: v, B: v})

				if v == 0 || v == 255 {
					e.rising = !e.rising
					e.pulseInterval += pulseStep
					return Retime(e.pulseInterval)
				}
				return Stay()
			},
		},

		// Ramps red over 255 seconds with a little green for an orange tint.
		// The color is held when the frames run out.
		KindSunrise: {
			interval: sunriseInterval,
			repeat:   sunriseFrames,
			enter:    func(e *Engine) { e.set(Off) },
			step: func(e *Engine) Transition {
				c := e.color
				if e.timer.Remaining()%sunriseGreenEvery == 0 {
					c.G++
				}
				c.R++
				e.set(c)
				return Stay()
			},
		},

		KindErrorFlash: {
			interval: errorFlashInterval,
			repeat:   clock.Forever,
			enter:    func(e *Engine) { e.set(Red) },
			step: func(e *Engine) Transition {
				if e.color == Red {
					e.set(Off)
				} else {
					e.set(Red)
				}
				return Stay()
			},
		},

		KindSuccessFlash: {
			interval: successInterval,
			repeat:   clock.Forever,
			enter:    func(e *Engine) { e.set(Green) },
			step: func(e *Engine) Transition {
				if e.color.G == 0 {
					return Stop()
				}
				e.set(Color{G: e.color.G - 1})
				return Stay()
			},
		},

		// Idle indicator for the active mode. It occupies the slot so the
		// mode controller can tell it apart from a free slot.
		KindMode: {
			interval: holdInterval,
			repeat:   clock.Forever,
			enter:    func(e *Engine) { e.set(e.indicator) },
			step: func(e *Engine) Transition {
				e.set(e.indicator)
				return Stay()
			},
		},
	}
}
