// Package metrics provides Prometheus metrics for the touch light.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "touchlight"

var (
	touchEpisodes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "touch",
		Name:      "episodes_total",
		Help:      "Finished touch episodes by outcome",
	}, []string{"outcome"})

	touchLength = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "touch",
		Name:      "episode_length_seconds",
		Help:      "Length of finished touch episodes",
		Buckets:   []float64{0.05, 0.09, 0.25, 0.5, 1, 2, 3.1, 5, 10},
	})

	animationsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "animation",
		Name:      "started_total",
		Help:      "Animations that took the timer slot, by kind",
	}, []string{"kind"})

	modeChanges = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "mode",
		Name:      "changes_total",
		Help:      "Mode transitions, including timeout reverts",
	})

	modeCurrent = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "mode",
		Name:      "current",
		Help:      "Active mode, 0 when idle",
	})

	ledWriteErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "led",
		Name:      "write_errors_total",
		Help:      "Failed LED driver writes",
	})

	sensorErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sensor",
		Name:      "read_errors_total",
		Help:      "Failed touch sensor reads",
	})

	componentHealthy = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "component_healthy",
		Help:      "1 when the component is healthy",
	}, []string{"component"})

	// Local totals for the simulator's status line.
	totals   Totals
	totalsMu sync.RWMutex
)

// Totals mirrors the counters for display.
type Totals struct {
	Episodes       map[string]int
	Animations     map[string]int
	ModeChanges    int
	LEDWriteErrors int
	SensorErrors   int
}

// RecordEpisode counts a finished episode.
func RecordEpisode(outcome string, lengthMs uint32) {
	touchEpisodes.WithLabelValues(outcome).Inc()
	touchLength.Observe(float64(lengthMs) / 1000)
	update(func(t *Totals) {
		if t.Episodes == nil {
			t.Episodes = make(map[string]int)
		}
		t.Episodes[outcome]++
	})
}

// RecordAnimation counts an animation start.
func RecordAnimation(kind string) {
	animationsStarted.WithLabelValues(kind).Inc()
	update(func(t *Totals) {
		if t.Animations == nil {
			t.Animations = make(map[string]int)
		}
		t.Animations[kind]++
	})
}

// RecordModeChange counts a transition and sets the current mode.
func RecordModeChange(to int) {
	modeChanges.Inc()
	modeCurrent.Set(float64(to))
	update(func(t *Totals) { t.ModeChanges++ })
}

// RecordLEDWriteError counts a failed driver write.
func RecordLEDWriteError() {
	ledWriteErrors.Inc()
	update(func(t *Totals) { t.LEDWriteErrors++ })
}

// RecordSensorError counts a failed sensor read.
func RecordSensorError() {
	sensorErrors.Inc()
	update(func(t *Totals) { t.SensorErrors++ })
}

// SetHealthy records a component's health.
func SetHealthy(component string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1
	}
	componentHealthy.WithLabelValues(component).Set(v)
}

// GetTotals returns a copy of the local totals.
func GetTotals() Totals {
	totalsMu.RLock()
	defer totalsMu.RUnlock()

	dup := totals
	dup.Episodes = copyCounts(totals.Episodes)
	dup.Animations = copyCounts(totals.Animations)
	return dup
}

func copyCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func update(fn func(*Totals)) {
	totalsMu.Lock()
	defer totalsMu.Unlock()
	fn(&totals)
}
