package led

import "log/slog"

// noop is the driver for hosts without an LED. Writes only show up at debug
// level.
type noop struct {
	logger *slog.Logger
}

func newNoop(logger *slog.Logger) *noop {
	return &noop{logger: logger.With("driver", "noop")}
}

func (n *noop) WriteDigital(ch Channel, high bool) error {
	n.logger.Debug("LED write skipped", "channel", ch.String(), "high", high)
	return nil
}

func (n *noop) WriteProportional(ch Channel, duty uint8) error {
	n.logger.Debug("LED write skipped", "channel", ch.String(), "duty", duty)
	return nil
}

func (n *noop) Close() error { return nil }
