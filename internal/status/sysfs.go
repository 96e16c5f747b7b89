package status

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const sysfsLEDPath = "/sys/class/leds"

// sysfs implements Controller using the Linux sysfs LED class
type sysfs struct {
	root string
	leds map[string]string // logical name -> sysfs directory
}

func newSysfs(root string, leds map[string]string) *sysfs {
	return &sysfs{root: root, leds: leds}
}

// Set writes the trigger for pattern and then the brightness
func (s *sysfs) Set(name string, enabled bool, pattern Pattern) error {
	dir, ok := s.leds[name]
	if !ok {
		return fmt.Errorf("status LED %q not supported on this board", name)
	}

	ledPath := filepath.Join(s.root, dir)
	if _, err := os.Stat(ledPath); os.IsNotExist(err) {
		return fmt.Errorf("status LED %q not found at %s", name, ledPath)
	}

	if pattern != "" {
		trigger := "none"
		switch pattern {
		case PatternBlink:
			trigger = "heartbeat"
		case PatternOff:
			enabled = false
		}

		if err := os.WriteFile(filepath.Join(ledPath, "trigger"), []byte(trigger), 0o644); err != nil {
			return fmt.Errorf("failed to set LED trigger: %w", err)
		}
	}

	brightness := "0"
	if enabled {
		brightness = "1"
	}
	if err := os.WriteFile(filepath.Join(ledPath, "brightness"), []byte(brightness), 0o644); err != nil {
		return fmt.Errorf("failed to set LED brightness: %w", err)
	}

	return nil
}

// Available returns the mapped LED names in sorted order
func (s *sysfs) Available() []string {
	names := make([]string, 0, len(s.leds))
	for name := range s.leds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
