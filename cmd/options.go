// Package cmd holds the touchlight subcommands.
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/smazurov/touchlight/internal/animation"
	"github.com/smazurov/touchlight/internal/config"
	"github.com/smazurov/touchlight/internal/led"
	"github.com/smazurov/touchlight/internal/light"
	"github.com/smazurov/touchlight/internal/logging"
	"github.com/smazurov/touchlight/internal/mode"
	"github.com/smazurov/touchlight/internal/sensor"
	"github.com/smazurov/touchlight/internal/touch"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `flag:"config"`

	// Touch sensor
	TouchBus          string   `flag:"touch-bus" toml:"touch.i2c_bus" env:"TOUCH_I2C_BUS"`
	TouchAddress      uint16   `flag:"touch-address" toml:"touch.address" env:"TOUCH_ADDRESS"`
	TouchPads         uint8    `flag:"touch-pads" toml:"touch.pads" env:"TOUCH_PADS"`
	TouchMinMs        uint32   `flag:"touch-min-ms" toml:"touch.min_ms" env:"TOUCH_MIN_MS"`
	TouchShortMs      uint32   `flag:"touch-short-ms" toml:"touch.short_ms" env:"TOUCH_SHORT_MS"`
	TouchLongMs       uint32   `flag:"touch-long-ms" toml:"touch.long_ms" env:"TOUCH_LONG_MS"`
	TouchThreshold    uint8    `flag:"touch-threshold" toml:"touch.touch_threshold" env:"TOUCH_THRESHOLD"`
	ReleaseThreshold  uint8    `flag:"release-threshold" toml:"touch.release_threshold" env:"TOUCH_RELEASE_THRESHOLD"`
	TouchAllowMissing bool     `flag:"allow-no-sensor" toml:"touch.allow_missing" env:"TOUCH_ALLOW_MISSING"`
	LEDDriver         string   `flag:"led-driver" toml:"led.driver" env:"LED_DRIVER"`
	LEDPins           []string `flag:"led-pins" toml:"led.pins" env:"LED_PINS"`
	LEDPWMChip        int      `flag:"led-pwm-chip" toml:"led.pwm_chip" env:"LED_PWM_CHIP"`
	LEDPWMChannels    []int    `flag:"led-pwm-channels" toml:"led.pwm_channels" env:"LED_PWM_CHANNELS"`
	LEDFrequencyHz    int      `flag:"led-frequency-hz" toml:"led.frequency_hz" env:"LED_FREQUENCY_HZ"`
	LEDSerialDevice   string   `flag:"led-serial-device" toml:"led.serial_device" env:"LED_SERIAL_DEVICE"`
	LEDSerialBaud     int      `flag:"led-serial-baud" toml:"led.serial_baud" env:"LED_SERIAL_BAUD"`

	// Modes
	ModeMax       int      `flag:"mode-max" toml:"mode.max" env:"MODE_MAX"`
	ModeTimeoutMs uint32   `flag:"mode-timeout-ms" toml:"mode.timeout_ms" env:"MODE_TIMEOUT_MS"`
	ModeActions   []string `flag:"mode-actions" toml:"mode.actions" env:"MODE_ACTIONS"`

	LoopIntervalMs int `flag:"loop-interval-ms" toml:"loop.interval_ms" env:"LOOP_INTERVAL_MS"`

	StatusEnabled bool `flag:"status-led" toml:"status.enabled" env:"STATUS_ENABLED"`

	MetricsTextfile string `flag:"metrics-textfile" toml:"metrics.textfile" env:"METRICS_TEXTFILE"`
	MetricsInterval string `flag:"metrics-interval" toml:"metrics.interval" env:"METRICS_INTERVAL"`

	// Logging settings
	LoggingLevel       string `flag:"logging-level" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat      string `flag:"logging-format" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingLight       string `flag:"logging-light" toml:"logging.light" env:"LOGGING_LIGHT"`
	LoggingSensor      string `flag:"logging-sensor" toml:"logging.sensor" env:"LOGGING_SENSOR"`
	LoggingLED         string `flag:"logging-led" toml:"logging.led" env:"LOGGING_LED"`
	LoggingConfigLevel string `flag:"logging-config" toml:"logging.config" env:"LOGGING_CONFIG"`
	LoggingMetrics     string `flag:"logging-metrics" toml:"logging.metrics" env:"LOGGING_METRICS"`
	LoggingSystemd     string `flag:"logging-systemd" toml:"logging.systemd" env:"LOGGING_SYSTEMD"`
	LoggingStatusLED   string `flag:"logging-status" toml:"logging.status" env:"LOGGING_STATUS"`
}

// DefaultOptions returns the stock configuration.
func DefaultOptions() Options {
	th := touch.DefaultThresholds()
	mc := mode.DefaultConfig()
	so := sensor.DefaultOptions()
	return Options{
		Config:           "touchlight.toml",
		TouchAddress:     sensor.DefaultAddress,
		TouchPads:        th.Pads,
		TouchMinMs:       th.Min,
		TouchShortMs:     th.Short,
		TouchLongMs:      th.Long,
		TouchThreshold:   so.TouchThreshold,
		ReleaseThreshold: so.ReleaseThreshold,
		LEDDriver:        "noop",
		LEDPins:          []string{"GPIO17", "GPIO27", "GPIO22"},
		LEDPWMChannels:   []int{0, 1, 2},
		LEDFrequencyHz:   1000,
		LEDSerialBaud:    115200,
		ModeMax:          mc.Max,
		ModeTimeoutMs:    mc.Timeout,
		ModeActions: []string{
			string(animation.KindSunrise),
			string(animation.KindSlowPulse),
			string(animation.KindSuccessFlash),
		},
		LoopIntervalMs:  5,
		StatusEnabled:   true,
		MetricsInterval: "15s",
		LoggingLevel:    "info",
		LoggingFormat:   "text",
	}
}

// BindFlags registers every option on fs, seeded with the values in o.
func (o *Options) BindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Config, "config", "c", o.Config, "Path to configuration file (.toml or .yaml)")

	fs.StringVar(&o.TouchBus, "touch-bus", o.TouchBus, "I2C bus of the touch sensor (empty picks the first)")
	fs.Uint16Var(&o.TouchAddress, "touch-address", o.TouchAddress, "I2C address of the touch sensor")
	fs.Uint8Var(&o.TouchPads, "touch-pads", o.TouchPads, "Number of pads reported as pad events")
	fs.Uint32Var(&o.TouchMinMs, "touch-min-ms", o.TouchMinMs, "Touches shorter than this are ignored")
	fs.Uint32Var(&o.TouchShortMs, "touch-short-ms", o.TouchShortMs, "Longest short touch")
	fs.Uint32Var(&o.TouchLongMs, "touch-long-ms", o.TouchLongMs, "Shortest long touch")
	fs.Uint8Var(&o.TouchThreshold, "touch-threshold", o.TouchThreshold, "Electrode touch threshold")
	fs.Uint8Var(&o.ReleaseThreshold, "release-threshold", o.ReleaseThreshold, "Electrode release threshold")
	fs.BoolVar(&o.TouchAllowMissing, "allow-no-sensor", o.TouchAllowMissing, "Keep running with an error indication when the sensor is missing")

	fs.StringVar(&o.LEDDriver, "led-driver", o.LEDDriver, fmt.Sprintf("LED backend %v", led.Backends()))
	fs.StringSliceVar(&o.LEDPins, "led-pins", o.LEDPins, "Red, green and blue pin names")
	fs.IntVar(&o.LEDPWMChip, "led-pwm-chip", o.LEDPWMChip, "sysfs PWM chip number")
	fs.IntSliceVar(&o.LEDPWMChannels, "led-pwm-channels", o.LEDPWMChannels, "sysfs PWM channels for red, green and blue")
	fs.IntVar(&o.LEDFrequencyHz, "led-frequency-hz", o.LEDFrequencyHz, "PWM frequency")
	fs.StringVar(&o.LEDSerialDevice, "led-serial-device", o.LEDSerialDevice, "Serial device of the LED bridge")
	fs.IntVar(&o.LEDSerialBaud, "led-serial-baud", o.LEDSerialBaud, "Serial baud rate of the LED bridge")

	fs.IntVar(&o.ModeMax, "mode-max", o.ModeMax, "Number of modes")
	fs.Uint32Var(&o.ModeTimeoutMs, "mode-timeout-ms", o.ModeTimeoutMs, "Idle time before the mode reverts to 0")
	fs.StringSliceVar(&o.ModeActions, "mode-actions", o.ModeActions, "Animation a long touch plays in mode 1, 2, ...")

	fs.IntVar(&o.LoopIntervalMs, "loop-interval-ms", o.LoopIntervalMs, "Sensor poll interval")
	fs.BoolVar(&o.StatusEnabled, "status-led", o.StatusEnabled, "Drive the board status LED")
	fs.StringVar(&o.MetricsTextfile, "metrics-textfile", o.MetricsTextfile, "Write Prometheus metrics to this file")
	fs.StringVar(&o.MetricsInterval, "metrics-interval", o.MetricsInterval, "Metrics textfile write interval")

	fs.StringVar(&o.LoggingLevel, "logging-level", o.LoggingLevel, "Global logging level (debug, info, warn, error)")
	fs.StringVar(&o.LoggingFormat, "logging-format", o.LoggingFormat, "Logging format (text, json)")
	fs.StringVar(&o.LoggingLight, "logging-light", o.LoggingLight, "Light loop logging level")
	fs.StringVar(&o.LoggingSensor, "logging-sensor", o.LoggingSensor, "Touch sensor logging level")
	fs.StringVar(&o.LoggingLED, "logging-led", o.LoggingLED, "LED driver logging level")
	fs.StringVar(&o.LoggingConfigLevel, "logging-config", o.LoggingConfigLevel, "Config watcher logging level")
	fs.StringVar(&o.LoggingMetrics, "logging-metrics", o.LoggingMetrics, "Metrics logging level")
	fs.StringVar(&o.LoggingSystemd, "logging-systemd", o.LoggingSystemd, "systemd notify logging level")
	fs.StringVar(&o.LoggingStatusLED, "logging-status", o.LoggingStatusLED, "Status LED logging level")
}

// Thresholds returns the touch classification thresholds.
func (o *Options) Thresholds() touch.Thresholds {
	return touch.Thresholds{Min: o.TouchMinMs, Short: o.TouchShortMs, Long: o.TouchLongMs, Pads: o.TouchPads}
}

// Settings returns the runtime-adjustable part of the options.
func (o *Options) Settings() (light.Settings, error) {
	s := light.DefaultSettings()
	s.Thresholds = o.Thresholds()
	s.Mode.Max = o.ModeMax
	s.Mode.Timeout = o.ModeTimeoutMs

	s.Actions = make(map[int]animation.Kind, len(o.ModeActions))
	for i, name := range o.ModeActions {
		kind, err := animation.ParseKind(name)
		if err != nil {
			return light.Settings{}, fmt.Errorf("mode %d action: %w", i+1, err)
		}
		s.Actions[i+1] = kind
	}
	return s, nil
}

// LEDConfig returns the LED backend configuration.
func (o *Options) LEDConfig() (led.Config, error) {
	cfg := led.Config{
		Driver:      o.LEDDriver,
		FrequencyHz: o.LEDFrequencyHz,
		PWMChip:     o.LEDPWMChip,
		SerialPort:  o.LEDSerialDevice,
		SerialBaud:  o.LEDSerialBaud,
	}
	if o.LEDDriver == "gpio" || o.LEDDriver == "periph" {
		if len(o.LEDPins) != len(cfg.Pins) {
			return led.Config{}, fmt.Errorf("led.pins needs %d pins, got %d", len(cfg.Pins), len(o.LEDPins))
		}
	}
	copy(cfg.Pins[:], o.LEDPins)
	if o.LEDDriver == "sysfs" && len(o.LEDPWMChannels) != len(cfg.PWMChannels) {
		return led.Config{}, fmt.Errorf("led.pwm_channels needs %d channels, got %d", len(cfg.PWMChannels), len(o.LEDPWMChannels))
	}
	copy(cfg.PWMChannels[:], o.LEDPWMChannels)
	return cfg, nil
}

// SensorOptions returns the MPR121 electrode settings.
func (o *Options) SensorOptions() sensor.Options {
	so := sensor.DefaultOptions()
	so.TouchThreshold = o.TouchThreshold
	so.ReleaseThreshold = o.ReleaseThreshold
	return so
}

// PollInterval returns the light loop interval.
func (o *Options) PollInterval() time.Duration {
	if o.LoopIntervalMs <= 0 {
		return 5 * time.Millisecond
	}
	return time.Duration(o.LoopIntervalMs) * time.Millisecond
}

// LoggingConfig builds the logging configuration. Module levels from the
// file's [logging.modules] table apply unless a named option sets them.
func (o *Options) LoggingConfig() logging.Config {
	cfg := config.LoadLoggingConfig(o.Config)
	cfg.Level = o.LoggingLevel
	cfg.Format = o.LoggingFormat
	for module, level := range map[string]string{
		"light":   o.LoggingLight,
		"sensor":  o.LoggingSensor,
		"led":     o.LoggingLED,
		"config":  o.LoggingConfigLevel,
		"metrics": o.LoggingMetrics,
		"systemd": o.LoggingSystemd,
		"status":  o.LoggingStatusLED,
	} {
		if level != "" {
			cfg.Modules[module] = level
		}
	}
	return cfg
}
