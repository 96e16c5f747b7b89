// Package systemd reports service readiness and liveness to systemd.
package systemd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Notifier sends sd_notify messages. Outside systemd every call is a
// silent no-op.
type Notifier struct {
	notify   func(state string) (bool, error)
	watchdog func() (time.Duration, error)
	logger   *slog.Logger
}

// NewNotifier creates a notifier bound to $NOTIFY_SOCKET.
func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		notify: func(state string) (bool, error) {
			return daemon.SdNotify(false, state)
		},
		watchdog: func() (time.Duration, error) {
			return daemon.SdWatchdogEnabled(false)
		},
		logger: logger,
	}
}

// Ready tells systemd that startup finished.
func (n *Notifier) Ready() {
	n.send(daemon.SdNotifyReady)
}

// Stopping tells systemd that shutdown began.
func (n *Notifier) Stopping() {
	n.send(daemon.SdNotifyStopping)
}

// Status sets the free-form status line shown by systemctl.
func (n *Notifier) Status(format string, args ...any) {
	n.send("STATUS=" + fmt.Sprintf(format, args...))
}

func (n *Notifier) send(state string) bool {
	sent, err := n.notify(state)
	if err != nil {
		n.logger.Warn("sd_notify failed", "state", state, "error", err)
		return false
	}
	return sent
}

// Watchdog pings the systemd watchdog at half its timeout until ctx is
// done. It returns immediately when the watchdog is not enabled. alive is
// asked before every ping; a false answer skips it so systemd restarts a
// stuck service.
func (n *Notifier) Watchdog(ctx context.Context, alive func() bool) error {
	timeout, err := n.watchdog()
	if err != nil {
		return fmt.Errorf("watchdog settings: %w", err)
	}
	if timeout <= 0 {
		return nil
	}

	interval := timeout / 2
	n.logger.Info("systemd watchdog enabled", "timeout", timeout, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if alive != nil && !alive() {
				n.logger.Warn("Skipping watchdog ping, main loop stalled")
				continue
			}
			n.send(daemon.SdNotifyWatchdog)
		}
	}
}
