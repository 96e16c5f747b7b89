package led

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"log/slog"
	"sync"

	"go.bug.st/serial"
)

// Op is the operation carried by a bridge packet.
type Op uint8

const (
	OpDigital Op = iota
	OpProportional
	OpRelease
)

// String returns a string representation of the op.
func (o Op) String() string {
	switch o {
	case OpDigital:
		return "digital"
	case OpProportional:
		return "proportional"
	case OpRelease:
		return "release"
	default:
		return fmt.Sprintf("Op(%d)", o)
	}
}

// Serial forwards pin writes to a microcontroller over a serial link. Each
// write is one packet: op, channel, value, then the little-endian CRC-32 of
// those three bytes.
type Serial struct {
	mu     sync.Mutex
	port   io.WriteCloser
	logger *slog.Logger
}

// NewSerial opens the serial device at the given baud rate.
func NewSerial(device string, baud int, logger *slog.Logger) (*Serial, error) {
	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("serial LED bridge ready", "device", device, "baud", baud)
	return newSerial(port, logger), nil
}

func newSerial(port io.WriteCloser, logger *slog.Logger) *Serial {
	if logger == nil {
		logger = slog.Default()
	}
	return &Serial{port: port, logger: logger}
}

// WriteDigital implements Driver.
func (s *Serial) WriteDigital(ch Channel, high bool) error {
	var v uint8
	if high {
		v = 1
	}
	return s.send(OpDigital, ch, v)
}

// WriteProportional implements Driver.
func (s *Serial) WriteProportional(ch Channel, duty uint8) error {
	return s.send(OpProportional, ch, duty)
}

// Close asks the bridge to release the pins and closes the port.
func (s *Serial) Close() error {
	sendErr := s.send(OpRelease, 0, 0)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.port.Close(); err != nil {
		return fmt.Errorf("failed to close serial port: %w", err)
	}
	return sendErr
}

func (s *Serial) send(op Op, ch Channel, value uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.port.Write(EncodePacket(op, ch, value)); err != nil {
		return fmt.Errorf("failed to send %s packet: %w", op, err)
	}
	return nil
}

// EncodePacket frames a single bridge packet.
func EncodePacket(op Op, ch Channel, value uint8) []byte {
	buf := make([]byte, 3, 7)
	buf[0] = byte(op)
	buf[1] = byte(ch)
	buf[2] = value
	return binary.LittleEndian.AppendUint32(buf, crc32.ChecksumIEEE(buf))
}

// DecodePacket parses a packet produced by EncodePacket.
func DecodePacket(p []byte) (Op, Channel, uint8, error) {
	if len(p) != 7 {
		return 0, 0, 0, fmt.Errorf("packet length %d, want 7", len(p))
	}
	if crc32.ChecksumIEEE(p[:3]) != binary.LittleEndian.Uint32(p[3:]) {
		return 0, 0, 0, errors.New("checksum mismatch")
	}
	return Op(p[0]), Channel(p[1]), p[2], nil
}
