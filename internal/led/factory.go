package led

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/physic"
)

// ErrUnknownDriver is returned by Open for an unrecognized backend name.
var ErrUnknownDriver = errors.New("unknown LED driver")

// Config selects and configures a backend.
type Config struct {
	Driver      string // gpio, sysfs, serial or noop
	Pins        [3]string
	FrequencyHz int
	PWMChip     int
	PWMChannels [3]int
	SerialPort  string
	SerialBaud  int
}

// Backends lists the names accepted by Open.
func Backends() []string {
	return []string{"gpio", "sysfs", "serial", "noop"}
}

// Open creates the configured backend.
func Open(cfg Config, logger *slog.Logger) (Driver, error) {
	if logger == nil {
		logger = slog.Default()
	}

	freq := physic.Frequency(cfg.FrequencyHz) * physic.Hertz
	logger.Info("Opening LED driver", "driver", cfg.Driver)

	switch cfg.Driver {
	case "gpio", "periph":
		return NewGPIO(cfg.Pins, freq, logger)

	case "sysfs":
		period := time.Millisecond
		if cfg.FrequencyHz > 0 {
			period = time.Second / time.Duration(cfg.FrequencyHz)
		}
		return NewSysfsPWM(cfg.PWMChip, cfg.PWMChannels, period, logger)

	case "serial":
		baud := cfg.SerialBaud
		if baud == 0 {
			baud = 115200
		}
		return NewSerial(cfg.SerialPort, baud, logger)

	case "noop", "":
		logger.Info("No LED hardware configured, using no-op driver")
		return newNoop(logger), nil

	default:
		return nil, fmt.Errorf("%q: %w", cfg.Driver, ErrUnknownDriver)
	}
}
