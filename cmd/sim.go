package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smazurov/touchlight/internal/config"
	"github.com/smazurov/touchlight/internal/events"
	"github.com/smazurov/touchlight/internal/logging"
	"github.com/smazurov/touchlight/internal/metrics/collectors"
	"github.com/smazurov/touchlight/internal/sim"
)

// NewSimCmd creates the terminal simulator command.
func NewSimCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "sim",
		Short: "Simulate the light in the terminal",
		Long: `Runs the light against a keyboard instead of the touch sensor and renders
the LED as a color swatch. Hold a pad by toggling its key on, release it by
toggling it off.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadConfig(opts, cmd); err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logCfg := opts.LoggingConfig()
			logCfg.NoConsole = true
			logging.Initialize(logCfg)

			settings, err := opts.Settings()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			bus := events.New()
			collector := collectors.NewEventCollector(bus)
			if startErr := collector.Start(ctx); startErr != nil {
				return startErr
			}
			defer collector.Stop()

			return sim.Run(ctx, sim.Config{
				Settings: settings,
				Interval: opts.PollInterval(),
				Bus:      bus,
				Logger:   logging.GetLogger("light"),
			})
		},
	}
}
