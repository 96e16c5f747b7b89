package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/i2c"

	"github.com/smazurov/touchlight/internal/clock"
	"github.com/smazurov/touchlight/internal/config"
	"github.com/smazurov/touchlight/internal/events"
	"github.com/smazurov/touchlight/internal/led"
	"github.com/smazurov/touchlight/internal/light"
	"github.com/smazurov/touchlight/internal/logging"
	"github.com/smazurov/touchlight/internal/metrics/collectors"
	"github.com/smazurov/touchlight/internal/metrics/exporters"
	"github.com/smazurov/touchlight/internal/sensor"
	"github.com/smazurov/touchlight/internal/status"
	"github.com/smazurov/touchlight/internal/systemd"
	"github.com/smazurov/touchlight/internal/touch"
)

// NewRunCmd creates the command that drives the light from the sensor.
func NewRunCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the touch light",
		Long:  `Polls the touch sensor, classifies touches and drives the RGB LED until interrupted.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Run(cmd, opts)
		},
	}
}

// Run loads configuration and runs the light until SIGINT or SIGTERM.
func Run(cmd *cobra.Command, opts *Options) error {
	flagsOnly := *opts
	if err := config.LoadConfig(opts, cmd); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Initialize(opts.LoggingConfig())
	logger := logging.GetLogger("main")

	settings, err := opts.Settings()
	if err != nil {
		return err
	}
	for _, w := range settings.Thresholds.Warnings() {
		logger.Warn("Questionable touch thresholds", "warning", w)
	}

	ledCfg, err := opts.LEDConfig()
	if err != nil {
		return err
	}
	drv, err := led.Open(ledCfg, logging.GetLogger("led"))
	if err != nil {
		return fmt.Errorf("open LED driver: %w", err)
	}
	defer func() {
		if closeErr := drv.Close(); closeErr != nil {
			logger.Warn("Failed to close LED driver", "error", closeErr)
		}
	}()

	touchSensor, closer, err := openSensor(opts, logging.GetLogger("sensor"))
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	bus := events.New()
	l := light.New(light.Deps{
		Sensor: touchSensor,
		Driver: drv,
		Clock:  clock.NewSystem(),
		Bus:    bus,
		Logger: logging.GetLogger("light"),
	}, settings)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := collectors.NewEventCollector(bus)
	if startErr := collector.Start(ctx); startErr != nil {
		logger.Warn("Failed to start metrics collection", "error", startErr)
	}
	defer collector.Stop()

	if opts.StatusEnabled {
		statusLogger := logging.GetLogger("status")
		statusManager := status.NewManager(status.New(statusLogger), bus, statusLogger)
		statusManager.Start()
		defer statusManager.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return l.Run(gctx, opts.PollInterval())
	})

	if watcher := watchConfig(opts, flagsOnly, cmd, l, bus); watcher != nil {
		defer watcher.Stop()
		g.Go(func() error {
			return reloadOnHangup(gctx, watcher)
		})
	}

	if opts.MetricsTextfile != "" {
		interval, parseErr := time.ParseDuration(opts.MetricsInterval)
		if parseErr != nil {
			logger.Warn("Invalid metrics interval, using default", "value", opts.MetricsInterval, "error", parseErr)
			interval = exporters.DefaultInterval
		}
		textfile := exporters.NewTextfile(opts.MetricsTextfile, interval)
		g.Go(func() error {
			return textfile.Run(gctx)
		})
	}

	notifier := systemd.NewNotifier(logging.GetLogger("systemd"))
	g.Go(func() error {
		return notifier.Watchdog(gctx, progressedFunc(l.Polls))
	})

	notifier.Ready()
	notifier.Status("polling every %s", opts.PollInterval())
	logger.Info("touchlight running", "led_driver", opts.LEDDriver, "config", opts.Config)

	err = g.Wait()
	notifier.Stopping()
	logger.Info("touchlight stopped")
	return err
}

// openSensor opens and initializes the MPR121. With allow-no-sensor set, a
// missing sensor is replaced by one whose reads always fail, so the light
// shows its error animation instead of the process exiting.
func openSensor(opts *Options, logger *slog.Logger) (touch.Sensor, i2c.BusCloser, error) {
	if logger == nil {
		logger = slog.Default()
	}
	mpr, closer, err := sensor.Open(opts.TouchBus, opts.SensorOptions(), logger)
	if err == nil && mpr.Init(opts.TouchAddress) {
		return mpr, closer, nil
	}

	if err == nil {
		err = fmt.Errorf("%w at 0x%02x", sensor.ErrNotDetected, opts.TouchAddress)
	}
	if !opts.TouchAllowMissing {
		if closer != nil {
			closer.Close()
		}
		return nil, nil, fmt.Errorf("touch sensor: %w", err)
	}

	logger.Warn("Running without a touch sensor", "error", err)
	return sensor.Missing{Err: err}, closer, nil
}

// reloaded is what a config file change can alter at runtime.
type reloaded struct {
	settings light.Settings
	logging  logging.Config
}

// watchConfig reloads thresholds, mode timeout, actions and log levels when
// the config file changes. Values given as flags keep winning over the file.
func watchConfig(opts *Options, flagsOnly Options, cmd *cobra.Command, l *light.Light, bus *events.Bus) *config.Watcher[reloaded] {
	if opts.Config == "" {
		return nil
	}
	if _, err := os.Stat(opts.Config); err != nil {
		return nil
	}

	logger := logging.GetLogger("config")
	loader := func(path string) (reloaded, error) {
		next := flagsOnly
		next.Config = path
		if err := config.LoadConfig(&next, cmd); err != nil {
			return reloaded{}, err
		}
		settings, err := next.Settings()
		if err != nil {
			return reloaded{}, err
		}
		return reloaded{settings: settings, logging: next.LoggingConfig()}, nil
	}

	watcher := config.NewConfigWatcher(opts.Config, loader, logger)
	watcher.OnReload(func(r reloaded) {
		logging.SetLevels(r.logging)
		for _, w := range r.settings.Thresholds.Warnings() {
			logger.Warn("Questionable touch thresholds", "warning", w)
		}
		l.Apply(r.settings)
		bus.Publish(events.ConfigReloadedEvent{Path: opts.Config, Timestamp: events.Stamp(time.Now())})
		logger.Info("Config reloaded", "path", opts.Config)
	})

	if err := watcher.Start(); err != nil {
		logger.Warn("Config watching disabled", "path", opts.Config, "error", err)
	}
	return watcher
}

func reloadOnHangup(ctx context.Context, watcher *config.Watcher[reloaded]) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			watcher.Reload()
		}
	}
}

// progressedFunc reports whether the poll counter moved since the last call.
func progressedFunc(polls func() uint64) func() bool {
	var last uint64
	return func() bool {
		n := polls()
		alive := n != last
		last = n
		return alive
	}
}
