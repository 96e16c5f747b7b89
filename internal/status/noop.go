package status

import "log/slog"

// noop stands in on boards whose status LED is unknown. The requested
// pattern is only logged.
type noop struct {
	logger *slog.Logger
}

func newNoop(logger *slog.Logger) *noop {
	return &noop{logger: logger}
}

func (n *noop) Set(name string, enabled bool, pattern Pattern) error {
	n.logger.Debug("Status LED skipped", "led", name, "enabled", enabled, "pattern", pattern)
	return nil
}

func (n *noop) Available() []string { return nil }
