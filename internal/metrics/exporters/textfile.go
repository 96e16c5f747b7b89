// Package exporters writes metrics out of the process.
package exporters

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/smazurov/touchlight/internal/logging"
)

// DefaultInterval is how often the textfile is rewritten.
const DefaultInterval = 15 * time.Second

// Textfile periodically writes every registered metric to a file in the
// Prometheus text format, for node_exporter's textfile collector.
type Textfile struct {
	path     string
	interval time.Duration
	gatherer prometheus.Gatherer
	logger   logging.Logger
}

// NewTextfile creates an exporter writing the default registry to path.
func NewTextfile(path string, interval time.Duration) *Textfile {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Textfile{
		path:     path,
		interval: interval,
		gatherer: prometheus.DefaultGatherer,
		logger:   logging.GetLogger("metrics"),
	}
}

// Run writes the file every interval until ctx is done, then writes it one
// last time.
func (e *Textfile) Run(ctx context.Context) error {
	e.logger.Info("Writing metrics textfile", "path", e.path, "interval", e.interval)
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.write()
	for {
		select {
		case <-ctx.Done():
			e.write()
			return nil
		case <-ticker.C:
			e.write()
		}
	}
}

// Write writes the file once.
func (e *Textfile) Write() error {
	return prometheus.WriteToTextfile(e.path, e.gatherer)
}

func (e *Textfile) write() {
	if err := e.Write(); err != nil {
		e.logger.Warn("Failed to write metrics textfile", "path", e.path, "error", err)
	}
}
