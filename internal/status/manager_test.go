package status

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/touchlight/internal/events"
)

// Mock controller for testing
type mockController struct {
	mu       sync.Mutex
	setCalls []setCall
}

type setCall struct {
	name    string
	enabled bool
	pattern Pattern
}

func (m *mockController) Set(name string, enabled bool, pattern Pattern) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls = append(m.setCalls, setCall{name, enabled, pattern})
	return nil
}

func (m *mockController) Available() []string {
	return []string{LEDName}
}

func (m *mockController) last() (setCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.setCalls) == 0 {
		return setCall{}, false
	}
	return m.setCalls[len(m.setCalls)-1], true
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestManager_BlinksUntilHealthy(t *testing.T) {
	ctrl := &mockController{}
	mgr := NewManager(ctrl, events.New(), newTestLogger())
	mgr.Start()
	defer mgr.Stop()

	call, ok := ctrl.last()
	if !ok {
		t.Fatal("No LED control calls made on start")
	}
	if call.pattern != PatternBlink {
		t.Errorf("Expected blink before any component reports, got %q", call.pattern)
	}
}

func TestManager_AllComponentsHealthy(t *testing.T) {
	ctrl := &mockController{}
	eventBus := events.New()

	mgr := NewManager(ctrl, eventBus, newTestLogger())
	mgr.Start()
	defer mgr.Stop()

	eventBus.Publish(events.HealthChangedEvent{Component: "sensor", Healthy: true})
	eventBus.Publish(events.HealthChangedEvent{Component: "led", Healthy: true})

	// Give manager time to process
	time.Sleep(50 * time.Millisecond)

	call, _ := ctrl.last()
	if call.pattern != PatternSolid {
		t.Errorf("Expected solid pattern when all healthy, got %q", call.pattern)
	}
	if call.name != LEDName {
		t.Errorf("Expected LED %q, got %q", LEDName, call.name)
	}
	if !mgr.Healthy() {
		t.Error("Healthy() = false, want true")
	}
}

func TestManager_ComponentUnhealthy(t *testing.T) {
	ctrl := &mockController{}
	eventBus := events.New()

	mgr := NewManager(ctrl, eventBus, newTestLogger())
	mgr.Start()
	defer mgr.Stop()

	eventBus.Publish(events.HealthChangedEvent{Component: "sensor", Healthy: true})
	eventBus.Publish(events.HealthChangedEvent{Component: "led", Healthy: true})
	eventBus.Publish(events.HealthChangedEvent{Component: "sensor", Healthy: false, Reason: "i2c timeout"})

	time.Sleep(50 * time.Millisecond)

	call, _ := ctrl.last()
	if call.pattern != PatternBlink {
		t.Errorf("Expected blink pattern when a component is unhealthy, got %q", call.pattern)
	}
}

func TestManager_StopSwitchesOff(t *testing.T) {
	ctrl := &mockController{}
	mgr := NewManager(ctrl, events.New(), newTestLogger())
	mgr.Start()
	mgr.Stop()

	call, _ := ctrl.last()
	if call.enabled || call.pattern != PatternOff {
		t.Errorf("Expected off after Stop, got %+v", call)
	}
}
