package sensor

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
)

var errNack = errors.New("nack")

// regBus emulates the MPR121 register file.
type regBus struct {
	regs    [256]byte
	writes  []regWrite
	addrs   map[uint16]bool
	failAt  int // fail the n-th transaction, 1-based; 0 never
	txCount int
	absent  bool // CONFIG2 never resets to its default
}

func newRegBus() *regBus {
	return &regBus{addrs: map[uint16]bool{}}
}

func (b *regBus) String() string                  { return "fake-i2c" }
func (b *regBus) SetSpeed(physic.Frequency) error { return nil }

func (b *regBus) Tx(addr uint16, w, r []byte) error {
	b.txCount++
	b.addrs[addr] = true
	if b.failAt != 0 && b.txCount == b.failAt {
		return errNack
	}
	if len(w) == 2 {
		b.writes = append(b.writes, regWrite{w[0], w[1]})
		b.regs[w[0]] = w[1]
		if w[0] == regSoftReset && w[1] == softResetValue && !b.absent {
			b.regs[regConfig2] = config2ResetVal
		}
		return nil
	}
	copy(r, b.regs[w[0]:])
	return nil
}

func (b *regBus) wrote(reg uint8) (uint8, bool) {
	for i := len(b.writes) - 1; i >= 0; i-- {
		if b.writes[i].reg == reg {
			return b.writes[i].val, true
		}
	}
	return 0, false
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInit_ConfiguresDevice(t *testing.T) {
	bus := newRegBus()
	dev := New(bus, DefaultOptions(), discard())

	require.True(t, dev.Init(0x5B))
	assert.True(t, dev.Ready())
	assert.Equal(t, map[uint16]bool{0x5B: true}, bus.addrs)

	assert.Equal(t, regWrite{regSoftReset, softResetValue}, bus.writes[0])
	assert.Equal(t, regWrite{regECR, 0}, bus.writes[1])
	assert.Equal(t, regWrite{regECR, ecrRunAll}, bus.writes[len(bus.writes)-1])

	for i := uint8(0); i <= Electrodes; i++ {
		assert.Equal(t, byte(defaultTouchTh), bus.regs[regTouchTh0+2*i])
		assert.Equal(t, byte(defaultReleaseTh), bus.regs[regReleaseTh0+2*i])
	}

	v, ok := bus.wrote(regConfig2)
	require.True(t, ok)
	assert.Equal(t, uint8(0x20), v)
	v, ok = bus.wrote(regUpLimit)
	require.True(t, ok)
	assert.Equal(t, uint8(200), v)
}

func TestInit_WithoutAutoConfig(t *testing.T) {
	bus := newRegBus()
	dev := New(bus, Options{TouchThreshold: 20, ReleaseThreshold: 10}, discard())

	require.True(t, dev.Init(DefaultAddress))
	_, ok := bus.wrote(regAutoConfig0)
	assert.False(t, ok)
	assert.Equal(t, byte(20), bus.regs[regTouchTh0])
}

func TestInit_NotDetected(t *testing.T) {
	bus := newRegBus()
	bus.absent = true
	dev := New(bus, DefaultOptions(), discard())

	assert.False(t, dev.Init(DefaultAddress))
	assert.False(t, dev.Ready())
	_, started := bus.wrote(regMHDR)
	assert.False(t, started, "configuration stops at detection")

	err := dev.configure(DefaultAddress)
	assert.ErrorIs(t, err, ErrNotDetected)
}

func TestInit_BusFailure(t *testing.T) {
	for _, n := range []int{1, 2, 3, 10, 48} {
		bus := newRegBus()
		bus.failAt = n
		dev := New(bus, DefaultOptions(), discard())
		assert.False(t, dev.Init(DefaultAddress), "failing transaction %d", n)

		bus.txCount = 0
		err := dev.configure(DefaultAddress)
		assert.ErrorIs(t, err, errNack, "failing transaction %d", n)
	}
}

func TestTouched_Playback(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: DefaultAddress, W: []byte{regTouchStatus}, R: []byte{0x05, 0x10}},
			{Addr: DefaultAddress, W: []byte{regTouchStatus}, R: []byte{0xFF, 0xFF}},
		},
	}
	dev := New(bus, DefaultOptions(), discard())

	mask, err := dev.Touched()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1005), mask)

	mask, err = dev.Touched()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1FFF), mask, "reserved bits are masked off")

	require.NoError(t, bus.Close())
}

func TestTouched_Error(t *testing.T) {
	bus := newRegBus()
	bus.failAt = 1
	dev := New(bus, DefaultOptions(), discard())

	_, err := dev.Touched()
	assert.Error(t, err)
}

func TestRead(t *testing.T) {
	bus := newRegBus()
	bus.regs[regFiltered+4] = 0x34
	bus.regs[regFiltered+5] = 0xFE // upper bits outside the 10-bit range
	bus.regs[regBaseline+2] = 0x40
	dev := New(bus, DefaultOptions(), discard())

	r, err := dev.Read(2)
	require.NoError(t, err)
	assert.Equal(t, Reading{Filtered: 0x0234, Baseline: 0x100}, r)

	_, err = dev.Read(13)
	assert.Error(t, err)
}

func TestMissing(t *testing.T) {
	_, err := Missing{}.Touched()
	assert.ErrorIs(t, err, ErrNotDetected)

	cause := errors.New("no such bus")
	_, err = Missing{Err: cause}.Touched()
	assert.ErrorIs(t, err, cause)
}
