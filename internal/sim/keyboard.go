// Package sim runs a touch light in the terminal. Keys stand in for the
// touch pads and a swatch stands in for the RGB LED.
package sim

import (
	"sync"

	"github.com/smazurov/touchlight/internal/touch"
)

// Keyboard is a touch.Sensor whose pads are toggled from key presses.
type Keyboard struct {
	mu   sync.Mutex
	mask uint16
	err  error
}

var _ touch.Sensor = (*Keyboard)(nil)

// Toggle flips pad. Pads outside the status mask are ignored.
func (k *Keyboard) Toggle(pad int) {
	if pad < 0 || pad >= touch.MaxPads {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.mask ^= 1 << uint(pad)
}

// Release lifts every pad.
func (k *Keyboard) Release() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.mask = 0
}

// Fail makes reads return err until it is called again with nil.
func (k *Keyboard) Fail(err error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.err = err
}

// Failing reports whether reads currently fail.
func (k *Keyboard) Failing() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.err != nil
}

// Mask returns the pads held down.
func (k *Keyboard) Mask() uint16 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.mask
}

// Touched implements touch.Sensor.
func (k *Keyboard) Touched() (uint16, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.err != nil {
		return 0, k.err
	}
	return k.mask, nil
}
