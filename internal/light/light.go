// Package light wires the touch classifier, animation engine and mode
// controller into the polling loop of one touch light.
package light

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/smazurov/touchlight/internal/animation"
	"github.com/smazurov/touchlight/internal/clock"
	"github.com/smazurov/touchlight/internal/events"
	"github.com/smazurov/touchlight/internal/led"
	"github.com/smazurov/touchlight/internal/metrics"
	"github.com/smazurov/touchlight/internal/mode"
	"github.com/smazurov/touchlight/internal/touch"
)

// SensorComponent is the component name used in health events.
const SensorComponent = "sensor"

// Deps are the collaborators of a Light. Bus and Logger are optional.
type Deps struct {
	Sensor touch.Sensor
	Driver led.Driver
	Clock  clock.Clock
	Bus    *events.Bus
	Logger *slog.Logger
}

// Settings are the tunables that may change at runtime.
type Settings struct {
	Thresholds touch.Thresholds
	Mode       mode.Config
	// Actions maps a mode to the animation a long touch plays in it.
	Actions map[int]animation.Kind
}

// DefaultSettings returns the stock thresholds, three modes and their
// long-touch actions.
func DefaultSettings() Settings {
	return Settings{
		Thresholds: touch.DefaultThresholds(),
		Mode:       mode.DefaultConfig(),
		Actions: map[int]animation.Kind{
			1: animation.KindSunrise,
			2: animation.KindSlowPulse,
			3: animation.KindSuccessFlash,
		},
	}
}

// Snapshot is the externally visible state of a Light.
type Snapshot struct {
	Mode          int
	Color         animation.Color
	Animation     animation.Kind
	Episode       touch.Episode
	SensorHealthy bool
}

// Light owns one timer, engine, classifier and mode controller. Poll, Run
// and every method except Apply must be called from a single goroutine.
type Light struct {
	clock  clock.Clock
	bus    *events.Bus
	logger *slog.Logger

	engine     *animation.Engine
	classifier *touch.Classifier
	mode       *mode.Controller
	actions    map[int]animation.Kind
	// modeSet marks an episode whose outcome already armed a fresh revert.
	modeSet bool

	pending       chan Settings
	sensorHealthy bool
	polls         atomic.Uint64
}

// New builds a Light. The LED is blanked immediately.
func New(deps Deps, settings Settings) *Light {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	l := &Light{
		clock:         deps.Clock,
		bus:           deps.Bus,
		logger:        logger,
		actions:       settings.Actions,
		pending:       make(chan Settings, 1),
		sensorHealthy: true,
	}

	l.engine = animation.NewEngine(deps.Driver, clock.NewTimer(deps.Clock), logger.With("component", "animation"),
		animation.WithStartHook(l.animationStarted),
		animation.WithWriteErrorHook(func(error) { metrics.RecordLEDWriteError() }),
	)
	l.mode = mode.New(l.engine, deps.Clock, settings.Mode, logger.With("component", "mode"))
	l.mode.OnChange(l.modeChanged)
	l.classifier = touch.NewClassifier(deps.Sensor, deps.Clock, settings.Thresholds, l.hooks(), logger.With("component", "touch"))

	return l
}

func (l *Light) hooks() touch.Hooks {
	return touch.Hooks{
		OnStart: func(ep touch.Episode) {
			l.engine.TouchBegin()
			l.mode.ResetTimeout()
			l.publishTouch("start", ep)
		},
		OnShort: func(ep touch.Episode) {
			l.mode.Next()
			l.modeSet = true
			l.publishTouch(touch.Short.String(), ep)
		},
		OnLong: func(ep touch.Episode) {
			l.longTouch()
			l.publishTouch(touch.Long.String(), ep)
		},
		OnEnd: func(ep touch.Episode) {
			if !l.modeSet {
				l.mode.ResetTimeout()
			}
			l.modeSet = false
			l.publishTouch("end", ep)
		},
		OnIgnore: func(ep touch.Episode) {
			l.engine.Reset()
			l.publishTouch(touch.Ignore.String(), ep)
		},
		OnInvalid: func(ep touch.Episode) {
			l.engine.InvalidTouch()
			l.publishTouch(touch.Invalid.String(), ep)
		},
		OnPadStart: func(_ touch.Episode, pad int) { l.publishPad(pad, true) },
		OnPadEnd:   func(_ touch.Episode, pad int) { l.publishPad(pad, false) },
	}
}

// longTouch fades out in idle mode and runs the mode's action otherwise.
// The action takes over the light, so the mode is dismissed rather than
// left to revert and blank it.
func (l *Light) longTouch() {
	m := l.mode.Current()
	kind, ok := l.actions[m]
	if m == 0 || !ok {
		l.engine.TouchRelease()
		return
	}

	l.mode.Dismiss()
	if err := l.engine.Play(kind); err != nil {
		l.logger.Warn("Mode action failed", "mode", m, "animation", string(kind), "error", err)
		l.engine.TouchRelease()
	}
}

// Poll runs one iteration: pending settings, a sensor read, then the
// animation and mode timers.
func (l *Light) Poll() {
	l.applyPending()

	if err := l.classifier.Poll(); err != nil {
		l.sensorFailed(err)
	} else if !l.sensorHealthy {
		l.sensorRecovered()
	}

	l.engine.Update()
	l.mode.Update()
	l.polls.Add(1)
}

// Polls counts finished iterations. Safe to read from any goroutine.
func (l *Light) Polls() uint64 {
	return l.polls.Load()
}

// Run polls every interval until ctx is done, then blanks the light.
func (l *Light) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", interval)
	}

	l.logger.Info("Light loop started", "interval", interval)
	l.publishHealth(l.sensorHealthy, "")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.engine.Reset()
			l.logger.Info("Light loop stopped")
			return nil
		case <-ticker.C:
			l.Poll()
		}
	}
}

// Apply queues new settings for the loop to pick up before its next poll.
// Safe to call from any goroutine; only the latest queued settings apply.
func (l *Light) Apply(s Settings) {
	for {
		select {
		case l.pending <- s:
			return
		default:
		}
		select {
		case <-l.pending:
		default:
		}
	}
}

func (l *Light) applyPending() {
	select {
	case s := <-l.pending:
		l.classifier.SetThresholds(s.Thresholds)
		l.mode.SetTimeout(s.Mode.Timeout)
		if s.Actions != nil {
			l.actions = s.Actions
		}
	default:
	}
}

func (l *Light) sensorFailed(err error) {
	metrics.RecordSensorError()
	if !l.sensorHealthy {
		return
	}
	l.sensorHealthy = false
	l.logger.Warn("Touch sensor read failed", "error", err)
	l.engine.ErrorFlash()
	l.publishHealth(false, err.Error())
}

func (l *Light) sensorRecovered() {
	l.sensorHealthy = true
	l.logger.Info("Touch sensor recovered")
	l.engine.Reset()
	l.publishHealth(true, "")
}

// NextMode advances the mode as a short touch would.
func (l *Light) NextMode() {
	l.mode.Next()
}

// Play starts an animation directly.
func (l *Light) Play(kind animation.Kind) error {
	return l.engine.Play(kind)
}

// Reset returns to mode 0 and blanks the light.
func (l *Light) Reset() {
	l.mode.Set(0)
	l.engine.Reset()
}

// Kinds lists the playable animations.
func (l *Light) Kinds() []animation.Kind {
	return l.engine.Kinds()
}

// Snapshot returns the current state.
func (l *Light) Snapshot() Snapshot {
	return Snapshot{
		Mode:          l.mode.Current(),
		Color:         l.engine.Color(),
		Animation:     l.engine.Current(),
		Episode:       l.classifier.Episode(),
		SensorHealthy: l.sensorHealthy,
	}
}

func (l *Light) animationStarted(kind animation.Kind) {
	l.publish(events.AnimationStartedEvent{Kind: string(kind), Timestamp: now()})
}

func (l *Light) modeChanged(from, to int) {
	l.publish(events.ModeChangedEvent{From: from, To: to, Timestamp: now()})
}

func (l *Light) publishTouch(outcome string, ep touch.Episode) {
	l.publish(events.TouchEvent{Outcome: outcome, Pads: ep.Pads, LengthMs: ep.Length, Timestamp: now()})
}

func (l *Light) publishPad(pad int, touched bool) {
	l.publish(events.PadEvent{Pad: pad, Touched: touched, Timestamp: now()})
}

func (l *Light) publishHealth(healthy bool, reason string) {
	l.publish(events.HealthChangedEvent{Component: SensorComponent, Healthy: healthy, Reason: reason, Timestamp: now()})
}

func (l *Light) publish(ev events.Event) {
	if l.bus != nil {
		l.bus.Publish(ev)
	}
}

func now() string {
	return events.Stamp(time.Now())
}
