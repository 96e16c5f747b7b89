package status

import (
	"log/slog"
	"os"
	"strings"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// LEDName is the logical name every board mapping exposes for the status LED.
const LEDName = "status"

// New picks a controller from the device tree model. Falls back to no-op
// when the board is not recognized.
func New(logger *slog.Logger) Controller {
	return newForModel(detectBoard(deviceTreeModelPath), sysfsLEDPath, logger)
}

func newForModel(model, root string, logger *slog.Logger) Controller {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Detecting board for status LED", "board_model", model)

	switch {
	case strings.Contains(model, "NanoPC-T6"):
		return newSysfs(root, map[string]string{LEDName: "sys_led"})
	case strings.Contains(model, "Orange Pi"):
		return newSysfs(root, map[string]string{LEDName: "green_led"})
	case strings.Contains(model, "Raspberry Pi"):
		return newSysfs(root, map[string]string{LEDName: "ACT"})
	default:
		logger.Info("No status LED support detected, using no-op controller", "board_model", model)
		return newNoop(logger)
	}
}

// detectBoard reads the device tree model to identify the board.
func detectBoard(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}

	// Device tree model contains null bytes, trim them
	return strings.TrimRight(string(data), "\x00")
}
