package events

// Event type constants for kelindar/event.
const (
	TypeTouch uint32 = iota + 1
	TypePad
	TypeModeChanged
	TypeAnimationStarted
	TypeHealthChanged
	TypeConfigReloaded
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// TouchEvent reports a classified touch episode transition.
type TouchEvent struct {
	Outcome   string `json:"outcome"`
	Pads      uint16 `json:"pads"`
	LengthMs  uint32 `json:"length_ms"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for TouchEvent.
func (e TouchEvent) Type() uint32 { return TypeTouch }

// PadEvent reports a single pad being touched or released.
type PadEvent struct {
	Pad       int    `json:"pad"`
	Touched   bool   `json:"touched"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for PadEvent.
func (e PadEvent) Type() uint32 { return TypePad }

// ModeChangedEvent is published on every mode transition, including the
// timeout revert to mode 0.
type ModeChangedEvent struct {
	From      int    `json:"from"`
	To        int    `json:"to"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for ModeChangedEvent.
func (e ModeChangedEvent) Type() uint32 { return TypeModeChanged }

// AnimationStartedEvent is published when an animation takes the timer slot.
type AnimationStartedEvent struct {
	Kind      string `json:"kind"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for AnimationStartedEvent.
func (e AnimationStartedEvent) Type() uint32 { return TypeAnimationStarted }

// HealthChangedEvent reports a component going healthy or unhealthy.
// Used for status LED control and metrics.
type HealthChangedEvent struct {
	Component string `json:"component"`
	Healthy   bool   `json:"healthy"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for HealthChangedEvent.
func (e HealthChangedEvent) Type() uint32 { return TypeHealthChanged }

// ConfigReloadedEvent is published after a config file change was applied.
type ConfigReloadedEvent struct {
	Path      string `json:"path"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for ConfigReloadedEvent.
func (e ConfigReloadedEvent) Type() uint32 { return TypeConfigReloaded }
