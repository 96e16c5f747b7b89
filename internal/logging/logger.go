package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

const defaultBufferSize = 1000

// Logger is the subset of *slog.Logger that packages depend on.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

var (
	mutex           sync.RWMutex
	isInitialized   bool
	globalConfig    Config
	globalLevelVar  = &slog.LevelVar{}
	moduleLoggers   = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	logBuffer       *RingBuffer
	logCallback     LogCallback
)

// Config is the [logging] table of the config file.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`

	// NoConsole keeps records off stdout, for when a terminal UI owns it.
	NoConsole bool `toml:"-"`
}

// levelFor resolves the level of module under cfg. An empty module means
// the global level.
func (cfg Config) levelFor(module string) slog.Level {
	level := slog.LevelInfo
	if parsed := parseLevel(cfg.Level); parsed != nil {
		level = *parsed
	}
	if module == "" {
		return level
	}
	if parsed := parseLevel(cfg.Modules[module]); parsed != nil {
		level = *parsed
	}
	return level
}

// Initialize sets up the handler chain and the log buffer. Loggers handed
// out earlier are rebuilt so they pick up the journal and the buffer.
func Initialize(cfg Config) {
	mutex.Lock()
	defer mutex.Unlock()

	globalConfig = cfg
	isInitialized = true
	logBuffer = NewRingBuffer(defaultBufferSize)

	globalLevelVar.Set(cfg.levelFor(""))
	for module, levelVar := range moduleLevelVars {
		levelVar.Set(cfg.levelFor(module))
		moduleLoggers[module] = slog.New(createHandler(cfg, levelVar)).With("module", module)
	}

	slog.SetDefault(slog.New(createHandler(cfg, globalLevelVar)))
}

// SetLevels applies the levels of cfg to every logger without touching the
// handler chain. The run command calls it when the config file is reloaded.
func SetLevels(cfg Config) {
	mutex.Lock()
	defer mutex.Unlock()

	globalConfig.Level = cfg.Level
	globalConfig.Modules = cfg.Modules

	globalLevelVar.Set(globalConfig.levelFor(""))
	for module, levelVar := range moduleLevelVars {
		levelVar.Set(globalConfig.levelFor(module))
	}
}

// GetBuffer returns the ring buffer of recent records, or nil before
// Initialize.
func GetBuffer() *RingBuffer {
	mutex.RLock()
	defer mutex.RUnlock()
	return logBuffer
}

// SetLogCallback sets a function called with every buffered record.
func SetLogCallback(callback LogCallback) {
	mutex.Lock()
	defer mutex.Unlock()
	logCallback = callback
}

// GetLogger returns the logger of module, creating it on first use. Every
// record it emits carries a module attribute.
func GetLogger(module string) *slog.Logger {
	mutex.RLock()
	logger, ok := moduleLoggers[module]
	mutex.RUnlock()
	if ok {
		return logger
	}

	mutex.Lock()
	defer mutex.Unlock()
	if logger, ok := moduleLoggers[module]; ok {
		return logger
	}

	cfg := globalConfig
	if !isInitialized {
		cfg = Config{Format: "text"}
	}

	levelVar := &slog.LevelVar{}
	levelVar.Set(cfg.levelFor(module))

	logger = slog.New(createHandler(cfg, levelVar)).With("module", module)
	moduleLoggers[module] = logger
	moduleLevelVars[module] = levelVar
	return logger
}

// createHandler builds the chain for one level: stdout unless disabled or
// discarded, the journal when it is reachable, and always the buffer.
func createHandler(cfg Config, level slog.Leveler) slog.Handler {
	var console slog.Handler
	if !cfg.NoConsole && isStdoutAvailable() {
		opts := &slog.HandlerOptions{Level: level}
		if cfg.Format == "json" {
			console = slog.NewJSONHandler(os.Stdout, opts)
		} else {
			console = slog.NewTextHandler(os.Stdout, opts)
		}
	}

	var journal slog.Handler
	if IsJournalAvailable() {
		journal = NewJournalHandler(level)
	}

	buffer := newSharedBufferHandler(level)
	if console == nil && journal == nil {
		return buffer
	}
	return NewMultiHandler(console, journal, buffer)
}

// isStdoutAvailable reports whether stdout goes somewhere: a terminal, a
// pipe, a socket or a file. /dev/null is a device and does not count.
func isStdoutAvailable() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return mode&(os.ModeCharDevice|os.ModeNamedPipe|os.ModeSocket) != 0 || mode.IsRegular()
}

// parseLevel converts a level name to a slog.Level, or nil if the name is
// unknown or empty.
func parseLevel(name string) *slog.Level {
	var level slog.Level
	switch strings.ToLower(name) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil
	}
	return &level
}
