// Package touch turns raw per-poll pad bitmasks into touch episodes and
// per-pad edges.
package touch

import (
	"fmt"
	"log/slog"

	"github.com/smazurov/touchlight/internal/clock"
)

// Sensor reports which pads are touched, one bit per pad.
type Sensor interface {
	Touched() (uint16, error)
}

// Episode is a continuous span with at least one pad touched.
type Episode struct {
	Current uint16 // mask from the latest poll
	Pads    uint16 // union of every pad seen this episode
	Last    uint16 // mask from the poll before
	Start   uint32
	Length  uint32 // set when the episode ends
}

// Touching reports whether an episode is in progress.
func (e Episode) Touching() bool {
	return e.Current != 0
}

// Hooks are the optional callbacks a Classifier fires. Episode hooks receive
// the episode as it stood at classification time.
type Hooks struct {
	OnStart   func(Episode)
	OnEnd     func(Episode)
	OnLong    func(Episode)
	OnShort   func(Episode)
	OnIgnore  func(Episode)
	OnInvalid func(Episode)

	OnPadStart func(Episode, int)
	OnPadEnd   func(Episode, int)
}

func (h Hooks) padHooks() bool {
	return h.OnPadStart != nil || h.OnPadEnd != nil
}

// Classifier tracks one episode at a time. It is not safe for concurrent
// use.
type Classifier struct {
	sensor     Sensor
	clock      clock.Clock
	thresholds Thresholds
	hooks      Hooks
	logger     *slog.Logger

	episode Episode
}

// NewClassifier creates a Classifier polling sensor.
func NewClassifier(sensor Sensor, clk clock.Clock, t Thresholds, hooks Hooks, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		sensor:     sensor,
		clock:      clk,
		thresholds: t,
		hooks:      hooks,
		logger:     logger,
	}
}

// Poll reads the sensor once and steps the classifier with the result. A
// failed read leaves all state untouched.
func (c *Classifier) Poll() error {
	mask, err := c.sensor.Touched()
	if err != nil {
		return fmt.Errorf("read touch status: %w", err)
	}
	c.Step(c.clock.NowMillis(), mask)
	return nil
}

// Step feeds one mask observed at now.
func (c *Classifier) Step(now uint32, mask uint16) {
	prev := c.episode.Current
	c.episode.Last = prev
	c.episode.Current = mask
	c.episode.Pads |= mask

	switch {
	case prev == 0 && mask != 0:
		c.episode.Start = now
		c.logger.Debug("Touch started", "pads", fmt.Sprintf("%#04x", mask))
		fire(c.hooks.OnStart, c.episode)
	case prev != 0 && mask == 0:
		c.finish(now)
	}

	if c.hooks.padHooks() {
		c.scanPads(prev, mask)
	}
}

// finish classifies and dispatches the episode, then clears it whatever the
// outcome.
func (c *Classifier) finish(now uint32) {
	ep := c.episode
	ep.Length = clock.Elapsed(ep.Start, now)
	outcome := Classify(ep.Length, c.thresholds)

	c.logger.Debug("Touch ended",
		"outcome", outcome.String(),
		"length_ms", ep.Length,
		"pads", fmt.Sprintf("%#04x", ep.Pads))

	c.dispatch(outcome, ep)
	c.episode = Episode{Last: ep.Last}
}

func (c *Classifier) dispatch(outcome Outcome, ep Episode) {
	switch outcome {
	case Ignore:
		fire(c.hooks.OnIgnore, ep)
	case Long:
		fire(c.hooks.OnLong, ep)
		fire(c.hooks.OnEnd, ep)
	case Short:
		fire(c.hooks.OnShort, ep)
		fire(c.hooks.OnEnd, ep)
	case Invalid:
		fire(c.hooks.OnInvalid, ep)
	}
}

func (c *Classifier) scanPads(prev, mask uint16) {
	pads := int(c.thresholds.Pads)
	if pads > MaxPads {
		pads = MaxPads
	}
	for i := 0; i < pads; i++ {
		bit := uint16(1) << i
		was, is := prev&bit != 0, mask&bit != 0
		switch {
		case is && !was:
			if c.hooks.OnPadStart != nil {
				c.hooks.OnPadStart(c.episode, i)
			}
		case was && !is:
			if c.hooks.OnPadEnd != nil {
				c.hooks.OnPadEnd(c.episode, i)
			}
		}
	}
}

// SetThresholds replaces the thresholds. An episode in progress is
// classified with the new values when it ends.
func (c *Classifier) SetThresholds(t Thresholds) {
	c.thresholds = t
	c.logger.Info("Touch thresholds updated", "min_ms", t.Min, "short_ms", t.Short, "long_ms", t.Long, "pads", t.Pads)
}

// Thresholds returns the thresholds in use.
func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// Episode returns a copy of the episode in progress.
func (c *Classifier) Episode() Episode {
	return c.episode
}

func fire(fn func(Episode), ep Episode) {
	if fn != nil {
		fn(ep)
	}
}
