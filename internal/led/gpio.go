package led

import (
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// DefaultFrequency is the PWM carrier used when none is configured.
const DefaultFrequency = 1 * physic.KiloHertz

// GPIO drives the channels through periph GPIO pins with hardware or
// software PWM.
type GPIO struct {
	pins   [3]gpio.PinIO
	freq   physic.Frequency
	logger *slog.Logger
}

// NewGPIO initializes the host drivers and looks up the red, green and blue
// pins by name (e.g. "GPIO12"). Channels start dark.
func NewGPIO(names [3]string, freq physic.Frequency, logger *slog.Logger) (*GPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	var pins [3]gpio.PinIO
	for i, name := range names {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("gpio pin %q for %s not found", name, Channels[i])
		}
		pins[i] = p
	}

	return newGPIO(pins, freq, logger)
}

func newGPIO(pins [3]gpio.PinIO, freq physic.Frequency, logger *slog.Logger) (*GPIO, error) {
	if freq == 0 {
		freq = DefaultFrequency
	}
	if logger == nil {
		logger = slog.Default()
	}

	g := &GPIO{pins: pins, freq: freq, logger: logger}
	for _, ch := range Channels {
		if err := g.WriteDigital(ch, true); err != nil {
			return nil, err
		}
	}

	logger.Info("GPIO LED driver ready",
		"red", pins[Red].Name(),
		"green", pins[Green].Name(),
		"blue", pins[Blue].Name(),
		"frequency", freq.String())
	return g, nil
}

// WriteDigital implements Driver.
func (g *GPIO) WriteDigital(ch Channel, high bool) error {
	level := gpio.Low
	if high {
		level = gpio.High
	}
	if err := g.pins[ch].Out(level); err != nil {
		return fmt.Errorf("failed to drive %s pin: %w", ch, err)
	}
	return nil
}

// WriteProportional implements Driver.
func (g *GPIO) WriteProportional(ch Channel, duty uint8) error {
	if err := g.pins[ch].PWM(scaleDuty(duty), g.freq); err != nil {
		return fmt.Errorf("failed to set %s duty: %w", ch, err)
	}
	return nil
}

// Close leaves every channel dark and halts the pins.
func (g *GPIO) Close() error {
	var first error
	for _, ch := range Channels {
		if err := g.WriteDigital(ch, true); err != nil && first == nil {
			first = err
		}
		if err := g.pins[ch].Halt(); err != nil && first == nil {
			first = fmt.Errorf("failed to halt %s pin: %w", ch, err)
		}
	}
	return first
}

// scaleDuty maps 0..255 onto 0..gpio.DutyMax.
func scaleDuty(duty uint8) gpio.Duty {
	return gpio.Duty(int64(duty) * int64(gpio.DutyMax) / 255)
}
