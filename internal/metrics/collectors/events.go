// Package collectors feeds the metrics package from the event bus.
package collectors

import (
	"context"

	"github.com/smazurov/touchlight/internal/events"
	"github.com/smazurov/touchlight/internal/logging"
	"github.com/smazurov/touchlight/internal/metrics"
)

// EventCollector turns bus events into metric updates.
type EventCollector struct {
	bus    *events.Bus
	logger logging.Logger
	unsubs []func()
	ctx    context.Context
	cancel context.CancelFunc
}

// NewEventCollector creates a collector for bus.
func NewEventCollector(bus *events.Bus) *EventCollector {
	return &EventCollector{
		bus:    bus,
		logger: logging.GetLogger("metrics"),
	}
}

// Start subscribes to the bus. Subscriptions end when ctx is done or Stop
// is called.
func (c *EventCollector) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)

	c.unsubs = append(c.unsubs,
		c.bus.Subscribe(func(e events.TouchEvent) {
			switch e.Outcome {
			case "start", "end":
				// episode edges, not outcomes
			default:
				metrics.RecordEpisode(e.Outcome, e.LengthMs)
			}
		}),
		c.bus.Subscribe(func(e events.AnimationStartedEvent) {
			metrics.RecordAnimation(e.Kind)
		}),
		c.bus.Subscribe(func(e events.ModeChangedEvent) {
			metrics.RecordModeChange(e.To)
		}),
		c.bus.Subscribe(func(e events.HealthChangedEvent) {
			metrics.SetHealthy(e.Component, e.Healthy)
			if !e.Healthy {
				c.logger.Warn("Component unhealthy", "component", e.Component, "reason", e.Reason)
			}
		}),
	)

	go func() {
		<-c.ctx.Done()
		c.unsubscribe()
	}()

	c.logger.Info("Event metrics collection started")
	return nil
}

// Stop ends collection.
func (c *EventCollector) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

func (c *EventCollector) unsubscribe() {
	for _, unsub := range c.unsubs {
		unsub()
	}
	c.unsubs = nil
}
