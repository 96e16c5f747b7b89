package animation

import (
	"errors"
	"fmt"

	"github.com/smazurov/touchlight/internal/led"
)

// Color is a requested intensity per channel, 0 dark and 255 full.
type Color struct {
	R, G, B uint8
}

// Named colors used by the catalog and the default mode palette.
var (
	Off     = Color{}
	Red     = Color{R: 255}
	Green   = Color{G: 255}
	Blue    = Color{B: 255}
	Magenta = Color{R: 255, B: 255}
	Yellow  = Color{R: 255, G: 255}
	Cyan    = Color{G: 255, B: 255}
)

// Channel returns the intensity of ch.
func (c Color) Channel(ch led.Channel) uint8 {
	switch ch {
	case led.Red:
		return c.R
	case led.Green:
		return c.G
	default:
		return c.B
	}
}

// Inverted returns the pin-level value of every channel.
func (c Color) Inverted() Color {
	return Color{R: ^c.R, G: ^c.G, B: ^c.B}
}

// String formats the color as #rrggbb.
func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Write drives all three channels of c through drv. The drive is
// inverting: intensity 0 is a digital high, 255 a digital low, and anything
// in between a proportional write of 255-v. Every channel is attempted even
// if an earlier one fails.
func Write(drv led.Driver, c Color) error {
	var errs []error
	for _, ch := range led.Channels {
		if err := writeChannel(drv, ch, c.Channel(ch)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func writeChannel(drv led.Driver, ch led.Channel, v uint8) error {
	switch v {
	case 0:
		return drv.WriteDigital(ch, true)
	case 255:
		return drv.WriteDigital(ch, false)
	default:
		return drv.WriteProportional(ch, 255-v)
	}
}
