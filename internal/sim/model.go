package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smazurov/touchlight/internal/animation"
	"github.com/smazurov/touchlight/internal/clock"
	"github.com/smazurov/touchlight/internal/events"
	"github.com/smazurov/touchlight/internal/led"
	"github.com/smazurov/touchlight/internal/light"
	"github.com/smazurov/touchlight/internal/logging"
	"github.com/smazurov/touchlight/internal/metrics"
)

const logLines = 8

var errSimulatedFault = errors.New("simulated sensor fault")

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#fff"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888")).Width(11)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#555"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#fff")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f55"))
	frameStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444"))
)

// Config configures a simulator.
type Config struct {
	Settings light.Settings
	Interval time.Duration
	Bus      *events.Bus
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Model is the bubbletea model of the simulator.
type Model struct {
	light    *light.Light
	keyboard *Keyboard
	leds     *led.Recorder
	interval time.Duration

	feed     chan any
	unsub    []func()
	event    string

	kinds    []animation.Kind
	next     int
	status   string
	quitting bool
}

type tickMsg time.Time

// New builds a light backed by a keyboard sensor and a recording driver.
func New(cfg Config) Model {
	if cfg.Clock == nil {
		cfg.Clock = clock.NewSystem()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Millisecond
	}

	kb := &Keyboard{}
	leds := led.NewRecorder()
	l := light.New(light.Deps{
		Sensor: kb,
		Driver: leds,
		Clock:  cfg.Clock,
		Bus:    cfg.Bus,
		Logger: cfg.Logger,
	}, cfg.Settings)

	m := Model{
		light:    l,
		keyboard: kb,
		leds:     leds,
		interval: cfg.Interval,
		kinds:    l.Kinds(),
	}
	if cfg.Bus != nil {
		m.feed = make(chan any, 32)
		m.unsub = []func(){
			events.SubscribeToChannel[events.TouchEvent](cfg.Bus, m.feed),
			events.SubscribeToChannel[events.ModeChangedEvent](cfg.Bus, m.feed),
			events.SubscribeToChannel[events.HealthChangedEvent](cfg.Bus, m.feed),
		}
	}
	return m
}

// Close unsubscribes the model from the bus.
func (m Model) Close() {
	for _, u := range m.unsub {
		u()
	}
}

// Run starts the terminal program and blocks until it quits or ctx is done.
func Run(ctx context.Context, cfg Config) error {
	m := New(cfg)
	defer m.Close()
	_, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	m.light.Reset()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init starts the poll loop.
func (m Model) Init() tea.Cmd {
	return tick(m.interval)
}

// Update handles keys and poll ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case tickMsg:
		m.light.Poll()
		m.drainFeed()
		return m, tick(m.interval)
	}
	return m, nil
}

// drainFeed keeps the description of the newest bus event.
func (m *Model) drainFeed() {
	for {
		select {
		case ev := <-m.feed:
			m.event = describe(ev)
		default:
			return
		}
	}
}

func describe(ev any) string {
	switch e := ev.(type) {
	case events.TouchEvent:
		return fmt.Sprintf("touch %s pads %013b %dms", e.Outcome, e.Pads, e.LengthMs)
	case events.ModeChangedEvent:
		return fmt.Sprintf("mode %d -> %d", e.From, e.To)
	case events.HealthChangedEvent:
		if e.Healthy {
			return e.Component + " healthy"
		}
		return fmt.Sprintf("%s unhealthy: %s", e.Component, e.Reason)
	default:
		return fmt.Sprintf("%T", ev)
	}
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case " ", "space":
		m.keyboard.Toggle(0)

	case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9":
		m.keyboard.Toggle(int(key[0] - '0'))

	case "a", "b", "c":
		m.keyboard.Toggle(10 + int(key[0]-'a'))

	case "x":
		m.keyboard.Release()

	case "m":
		m.light.NextMode()

	case "p":
		if len(m.kinds) == 0 {
			break
		}
		kind := m.kinds[m.next%len(m.kinds)]
		m.next++
		if err := m.light.Play(kind); err != nil {
			m.status = err.Error()
		} else {
			m.status = "played " + string(kind)
		}

	case "r":
		m.light.Reset()
		m.status = "reset"

	case "e":
		if m.keyboard.Failing() {
			m.keyboard.Fail(nil)
			m.status = "sensor restored"
		} else {
			m.keyboard.Fail(errSimulatedFault)
			m.status = "sensor fault injected"
		}
	}
	return m, nil
}

// View renders the swatch, state and recent log lines.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	snap := m.light.Snapshot()
	var b strings.Builder

	b.WriteString(titleStyle.Render("touchlight simulator"))
	b.WriteString("\n\n")

	swatch := lipgloss.NewStyle().
		Background(lipgloss.Color(snap.Color.String())).
		Width(14).
		Height(3).
		Render("")
	b.WriteString(frameStyle.Render(swatch))
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	row("color", fmt.Sprintf("%s  r%3d g%3d b%3d", snap.Color, snap.Color.R, snap.Color.G, snap.Color.B))
	row("mode", fmt.Sprintf("%d", snap.Mode))
	anim := string(snap.Animation)
	if anim == "" {
		anim = dimStyle.Render("idle")
	}
	row("animation", anim)
	row("pads", padRow(m.keyboard.Mask()))
	row("episode", fmt.Sprintf("pads %013b", snap.Episode.Pads))
	if snap.SensorHealthy {
		row("sensor", "ok")
	} else {
		row("sensor", errorStyle.Render("failing"))
	}

	totals := metrics.GetTotals()
	row("episodes", fmt.Sprintf("short %d  long %d  invalid %d  ignored %d",
		totals.Episodes["short"], totals.Episodes["long"], totals.Episodes["invalid"], totals.Episodes["ignore"]))

	if m.event != "" {
		row("event", m.event)
	}
	if m.status != "" {
		row("last", m.status)
	}

	b.WriteString("\n")
	for _, line := range recentLogs(logLines) {
		b.WriteString(dimStyle.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("0-9 a b c: pads  space: pad 0  x: release  m: mode  p: play  r: reset  e: fault  q: quit"))
	return b.String()
}

func padRow(mask uint16) string {
	labels := "0123456789abc"
	var b strings.Builder
	for i := 0; i < len(labels); i++ {
		s := string(labels[i])
		if mask&(1<<uint(i)) != 0 {
			b.WriteString(activeStyle.Render(s))
		} else {
			b.WriteString(dimStyle.Render(s))
		}
		b.WriteString(" ")
	}
	return b.String()
}

func recentLogs(n int) []string {
	buf := logging.GetBuffer()
	if buf == nil {
		return nil
	}
	entries := buf.Tail(n)
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = logging.FormatLogLine(e)
	}
	return lines
}
