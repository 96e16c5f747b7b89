// Package status drives the board's own status LED to show whether the
// touch light is healthy, independently of the RGB light itself.
package status

// Pattern is a status LED display pattern.
type Pattern string

const (
	PatternSolid Pattern = "solid"
	PatternBlink Pattern = "blink"
	PatternOff   Pattern = "off"
)

// Controller abstracts the board status LED across SBC boards.
type Controller interface {
	// Set shows pattern on the named board LED. An empty pattern leaves the
	// trigger unchanged and only switches the LED on or off.
	Set(name string, enabled bool, pattern Pattern) error

	// Available returns the board LED names this controller can drive.
	Available() []string
}
