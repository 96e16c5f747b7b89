// Package sensor talks to the MPR121 capacitive touch controller over I2C.
package sensor

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// DefaultAddress is the MPR121 address with ADDR tied to ground.
const DefaultAddress = 0x5A

// Electrodes is the number of sensing inputs; bit 12 of the status word is
// the proximity channel.
const Electrodes = 12

// ErrNotDetected is returned when the device does not answer like an MPR121
// after a soft reset.
var ErrNotDetected = errors.New("MPR121 not detected")

// Registers.
const (
	regTouchStatus = 0x00
	regFiltered    = 0x04
	regBaseline    = 0x1E
	regMHDR        = 0x2B
	regNHDR        = 0x2C
	regNCLR        = 0x2D
	regFDLR        = 0x2E
	regMHDF        = 0x2F
	regNHDF        = 0x30
	regNCLF        = 0x31
	regFDLF        = 0x32
	regNHDT        = 0x33
	regNCLT        = 0x34
	regFDLT        = 0x35
	regTouchTh0    = 0x41
	regReleaseTh0  = 0x42
	regDebounce    = 0x5B
	regConfig1     = 0x5C
	regConfig2     = 0x5D
	regECR         = 0x5E
	regAutoConfig0 = 0x7B
	regUpLimit     = 0x7D
	regLowLimit    = 0x7E
	regTargetLimit = 0x7F
	regSoftReset   = 0x80
)

const (
	softResetValue   = 0x63
	config2ResetVal  = 0x24
	statusMask       = 0x1FFF
	ecrRunAll        = 0x80 | Electrodes
	defaultTouchTh   = 12
	defaultReleaseTh = 6
)

type regWrite struct{ reg, val uint8 }

// Options tune the electrode thresholds written at Init.
type Options struct {
	TouchThreshold   uint8
	ReleaseThreshold uint8
	AutoConfig       bool
}

// DefaultOptions are the usual thresholds for a 3.3V supply.
func DefaultOptions() Options {
	return Options{TouchThreshold: defaultTouchTh, ReleaseThreshold: defaultReleaseTh, AutoConfig: true}
}

// MPR121 is a touch controller on an I2C bus.
type MPR121 struct {
	bus    i2c.Bus
	opts   Options
	logger *slog.Logger

	addr  uint16
	ready bool
}

// New wraps bus. Nothing is sent until Init.
func New(bus i2c.Bus, opts Options, logger *slog.Logger) *MPR121 {
	if logger == nil {
		logger = slog.Default()
	}
	return &MPR121{bus: bus, opts: opts, logger: logger, addr: DefaultAddress}
}

// Open initializes the host drivers and opens the named I2C bus ("" picks
// the first one available).
func Open(busName string, opts Options, logger *slog.Logger) (*MPR121, i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open i2c bus %q: %w", busName, err)
	}
	return New(bus, opts, logger), bus, nil
}

// Init resets and configures the device at address. It reports success as a
// boolean; the cause of a failure is logged. No retry is attempted.
func (m *MPR121) Init(address uint16) bool {
	if err := m.configure(address); err != nil {
		m.logger.Error("Touch sensor initialization failed", "address", address, "bus", m.bus.String(), "error", err)
		m.ready = false
		return false
	}
	m.logger.Info("Touch sensor ready", "address", address, "bus", m.bus.String())
	m.ready = true
	return true
}

func (m *MPR121) configure(address uint16) error {
	m.addr = address

	if err := m.write(regSoftReset, softResetValue); err != nil {
		return fmt.Errorf("soft reset: %w", err)
	}
	time.Sleep(time.Millisecond)

	if err := m.write(regECR, 0); err != nil {
		return fmt.Errorf("stop electrodes: %w", err)
	}

	c2, err := m.read8(regConfig2)
	if err != nil {
		return fmt.Errorf("read CONFIG2: %w", err)
	}
	if c2 != config2ResetVal {
		return fmt.Errorf("CONFIG2 reads %#02x: %w", c2, ErrNotDetected)
	}

	if err := m.SetThresholds(m.opts.TouchThreshold, m.opts.ReleaseThreshold); err != nil {
		return err
	}

	steps := []regWrite{
		{regMHDR, 0x01}, {regNHDR, 0x01}, {regNCLR, 0x0E}, {regFDLR, 0x00},
		{regMHDF, 0x01}, {regNHDF, 0x05}, {regNCLF, 0x01}, {regFDLF, 0x00},
		{regNHDT, 0x00}, {regNCLT, 0x00}, {regFDLT, 0x00},
		{regDebounce, 0},
		{regConfig1, 0x10}, // 16uA charge current
		{regConfig2, 0x20}, // 0.5us encoding, 1ms period
	}
	if m.opts.AutoConfig {
		// limits for Vdd = 3.3V
		steps = append(steps,
			regWrite{regAutoConfig0, 0x0B},
			regWrite{regUpLimit, 200},
			regWrite{regTargetLimit, 180},
			regWrite{regLowLimit, 130},
		)
	}
	for _, s := range steps {
		if err := m.write(s.reg, s.val); err != nil {
			return fmt.Errorf("write register %#02x: %w", s.reg, err)
		}
	}

	if err := m.write(regECR, ecrRunAll); err != nil {
		return fmt.Errorf("start electrodes: %w", err)
	}
	return nil
}

// SetThresholds writes the same touch and release thresholds to every
// electrode. The electrodes must be stopped.
func (m *MPR121) SetThresholds(touch, release uint8) error {
	for i := uint8(0); i <= Electrodes; i++ {
		if err := m.write(regTouchTh0+2*i, touch); err != nil {
			return fmt.Errorf("touch threshold %d: %w", i, err)
		}
		if err := m.write(regReleaseTh0+2*i, release); err != nil {
			return fmt.Errorf("release threshold %d: %w", i, err)
		}
	}
	return nil
}

// Touched returns the touch status word, one bit per electrode.
func (m *MPR121) Touched() (uint16, error) {
	v, err := m.read16(regTouchStatus)
	if err != nil {
		return 0, fmt.Errorf("read touch status: %w", err)
	}
	return v & statusMask, nil
}

// Reading is the raw signal of one electrode.
type Reading struct {
	Filtered uint16
	Baseline uint16
}

// Read returns the filtered signal and baseline of electrode pad.
func (m *MPR121) Read(pad int) (Reading, error) {
	if pad < 0 || pad > Electrodes {
		return Reading{}, fmt.Errorf("electrode %d out of range", pad)
	}
	filtered, err := m.read16(uint8(regFiltered + 2*pad))
	if err != nil {
		return Reading{}, fmt.Errorf("read filtered data %d: %w", pad, err)
	}
	base, err := m.read8(uint8(regBaseline + pad))
	if err != nil {
		return Reading{}, fmt.Errorf("read baseline %d: %w", pad, err)
	}
	// the baseline register holds the upper 8 of 10 bits
	return Reading{Filtered: filtered & 0x03FF, Baseline: uint16(base) << 2}, nil
}

// Ready reports whether the last Init succeeded.
func (m *MPR121) Ready() bool {
	return m.ready
}

func (m *MPR121) write(reg, val uint8) error {
	return m.bus.Tx(m.addr, []byte{reg, val}, nil)
}

func (m *MPR121) read8(reg uint8) (uint8, error) {
	var buf [1]byte
	if err := m.bus.Tx(m.addr, []byte{reg}, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (m *MPR121) read16(reg uint8) (uint16, error) {
	var buf [2]byte
	if err := m.bus.Tx(m.addr, []byte{reg}, buf[:]); err != nil {
		return 0, err
	}
	return uint16(buf[0]) | uint16(buf[1])<<8, nil
}
