// Package led drives the three color channels of the light.
//
// The channels sit behind P-channel MOSFETs, so the pin level is the
// inverse of the brightness: a high pin is a dark channel. Drivers deal in
// pin levels only; the brightness convention lives with the caller.
package led

import "fmt"

// Channel identifies one color channel.
type Channel uint8

const (
	Red Channel = iota
	Green
	Blue
)

// Channels lists every channel in write order.
var Channels = [3]Channel{Red, Green, Blue}

// String returns the channel name.
func (c Channel) String() string {
	switch c {
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	default:
		return fmt.Sprintf("Channel(%d)", c)
	}
}

// Driver writes pin levels for the color channels.
type Driver interface {
	// WriteDigital drives the channel pin fully high or fully low.
	WriteDigital(ch Channel, high bool) error
	// WriteProportional drives the channel pin with a duty cycle where 0 is
	// always low and 255 always high.
	WriteProportional(ch Channel, duty uint8) error
	// Close releases the pins.
	Close() error
}
