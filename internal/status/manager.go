package status

import (
	"log/slog"
	"sync"

	"github.com/smazurov/touchlight/internal/events"
)

// Manager subscribes to health events and shows the aggregate state on the
// board status LED: solid when every reporting component is healthy, blinking
// otherwise or while nothing has reported yet.
type Manager struct {
	controller    Controller
	eventBus      *events.Bus
	unsubscribe   func()
	logger        *slog.Logger
	components    map[string]bool // component -> healthy
	componentsMux sync.RWMutex
}

// NewManager creates a new status LED manager
func NewManager(controller Controller, eventBus *events.Bus, logger *slog.Logger) *Manager {
	return &Manager{
		controller: controller,
		eventBus:   eventBus,
		logger:     logger,
		components: make(map[string]bool),
	}
}

// Start shows the starting pattern and begins listening for health events
func (m *Manager) Start() {
	m.updateStatusLED()
	m.unsubscribe = m.eventBus.Subscribe(func(e events.HealthChangedEvent) {
		m.handleEvent(e)
	})
	m.logger.Info("Status LED manager started")
}

// Stop unsubscribes and switches the status LED off
func (m *Manager) Stop() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	if err := m.controller.Set(LEDName, false, PatternOff); err != nil {
		m.logger.Warn("Failed to switch status LED off", "error", err)
	}
	m.logger.Info("Status LED manager stopped")
}

func (m *Manager) handleEvent(event events.HealthChangedEvent) {
	m.componentsMux.Lock()
	m.components[event.Component] = event.Healthy
	m.componentsMux.Unlock()

	m.logger.Debug("Component health changed",
		"component", event.Component,
		"healthy", event.Healthy,
		"reason", event.Reason)

	m.updateStatusLED()
}

// Healthy reports whether every component seen so far is healthy.
func (m *Manager) Healthy() bool {
	m.componentsMux.RLock()
	defer m.componentsMux.RUnlock()

	if len(m.components) == 0 {
		return false
	}
	for _, healthy := range m.components {
		if !healthy {
			return false
		}
	}
	return true
}

func (m *Manager) updateStatusLED() {
	pattern := PatternBlink
	if m.Healthy() {
		pattern = PatternSolid
	}

	if err := m.controller.Set(LEDName, true, pattern); err != nil {
		m.logger.Warn("Failed to set status LED", "pattern", string(pattern), "error", err)
		return
	}
	m.logger.Debug("Status LED updated", "pattern", string(pattern))
}
