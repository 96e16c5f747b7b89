package led

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

)

const sysfsPWMPath = "/sys/class/pwm"

// SysfsPWM drives the channels through the Linux sysfs PWM interface, one
// PWM channel per color.
type SysfsPWM struct {
	chipPath string
	channels [3]int
	period   time.Duration
	logger   *slog.Logger
}

// NewSysfsPWM exports and enables the given channels of pwmchipN with the
// given carrier period. Channels start dark.
func NewSysfsPWM(chip int, channels [3]int, period time.Duration, logger *slog.Logger) (*SysfsPWM, error) {
	return newSysfsPWM(filepath.Join(sysfsPWMPath, fmt.Sprintf("pwmchip%d", chip)), channels, period, logger)
}

func newSysfsPWM(chipPath string, channels [3]int, period time.Duration, logger *slog.Logger) (*SysfsPWM, error) {
	if period <= 0 {
		period = time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := os.Stat(chipPath); err != nil {
		return nil, fmt.Errorf("PWM chip not found at %s: %w", chipPath, err)
	}

	s := &SysfsPWM{
		chipPath: chipPath,
		channels: channels,
		period:   period,
		logger:   logger,
	}

	for _, ch := range Channels {
		if err := s.export(ch); err != nil {
			return nil, err
		}
		if err := s.writeAttr(ch, "period", strconv.FormatInt(period.Nanoseconds(), 10)); err != nil {
			return nil, err
		}
		if err := s.WriteDigital(ch, true); err != nil {
			return nil, err
		}
		if err := s.writeAttr(ch, "enable", "1"); err != nil {
			return nil, err
		}
	}

	logger.Info("sysfs PWM LED driver ready", "chip", chipPath, "channels", channels, "period", period)
	return s, nil
}

// WriteDigital implements Driver.
func (s *SysfsPWM) WriteDigital(ch Channel, high bool) error {
	if high {
		return s.writeDuty(ch, s.period.Nanoseconds())
	}
	return s.writeDuty(ch, 0)
}

// WriteProportional implements Driver.
func (s *SysfsPWM) WriteProportional(ch Channel, duty uint8) error {
	return s.writeDuty(ch, s.period.Nanoseconds()*int64(duty)/255)
}

// Close leaves the channels dark and disables them.
func (s *SysfsPWM) Close() error {
	var first error
	for _, ch := range Channels {
		if err := s.WriteDigital(ch, true); err != nil && first == nil {
			first = err
		}
		if err := s.writeAttr(ch, "enable", "0"); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (s *SysfsPWM) writeDuty(ch Channel, ns int64) error {
	return s.writeAttr(ch, "duty_cycle", strconv.FormatInt(ns, 10))
}

// export makes the PWM channel directory appear if the kernel has not
// already exported it.
func (s *SysfsPWM) export(ch Channel) error {
	if _, err := os.Stat(s.channelPath(ch)); err == nil {
		return nil
	}

	exportPath := filepath.Join(s.chipPath, "export")
	if err := os.WriteFile(exportPath, []byte(strconv.Itoa(s.channels[ch])), 0o644); err != nil {
		return fmt.Errorf("failed to export PWM channel %d for %s: %w", s.channels[ch], ch, err)
	}
	return nil
}

func (s *SysfsPWM) writeAttr(ch Channel, attr, value string) error {
	path := filepath.Join(s.channelPath(ch), attr)
	if err := os.WriteFile(path, []byte(value), 0o644); err != nil {
		return fmt.Errorf("failed to write %s for %s: %w", attr, ch, err)
	}
	return nil
}

func (s *SysfsPWM) channelPath(ch Channel) string {
	return filepath.Join(s.chipPath, fmt.Sprintf("pwm%d", s.channels[ch]))
}
