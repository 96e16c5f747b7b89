package touch

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smazurov/touchlight/internal/clock"
)

type fakeSensor struct {
	mask uint16
	err  error
}

func (s *fakeSensor) Touched() (uint16, error) {
	return s.mask, s.err
}

type recorder struct {
	calls    []string
	episodes []Episode
	pads     []string
}

func (r *recorder) hooks() Hooks {
	on := func(name string) func(Episode) {
		return func(ep Episode) {
			r.calls = append(r.calls, name)
			r.episodes = append(r.episodes, ep)
		}
	}
	return Hooks{
		OnStart:   on("start"),
		OnEnd:     on("end"),
		OnLong:    on("long"),
		OnShort:   on("short"),
		OnIgnore:  on("ignore"),
		OnInvalid: on("invalid"),
	}
}

func newTestClassifier(t Thresholds, hooks Hooks) (*Classifier, *fakeSensor, *clock.Manual) {
	sensor := &fakeSensor{}
	clk := clock.NewManual(1000)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClassifier(sensor, clk, t, hooks, logger), sensor, clk
}

func TestClassify(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name   string
		length uint32
		want   Outcome
	}{
		{"noise", 50, Ignore},
		{"just below min", 89, Ignore},
		{"at min", 90, Short},
		{"at short", 500, Short},
		{"between", 1000, Invalid},
		{"just below long", 3099, Invalid},
		{"at long", 3100, Long},
		{"way past long", 60000, Long},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.length, th))
		})
	}
}

func TestClassify_OverlappingThresholdsFavorLong(t *testing.T) {
	th := Thresholds{Min: 10, Short: 800, Long: 600}
	assert.Equal(t, Long, Classify(700, th))
	assert.Equal(t, Short, Classify(500, th))
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "ignore", Ignore.String())
	assert.Equal(t, "long", Long.String())
	assert.Equal(t, "short", Short.String())
	assert.Equal(t, "invalid", Invalid.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}

func TestThresholds_Warnings(t *testing.T) {
	assert.Empty(t, DefaultThresholds().Warnings())

	bad := Thresholds{Min: 600, Short: 500, Long: 400, Pads: 0}
	assert.Len(t, bad.Warnings(), 4)
}

func TestClassifier_EpisodeDispatch(t *testing.T) {
	tests := []struct {
		name   string
		length uint32
		want   []string
	}{
		{"ignore only", 50, []string{"start", "ignore"}},
		{"short then end", 500, []string{"start", "short", "end"}},
		{"long then end", 3100, []string{"start", "long", "end"}},
		{"invalid only", 1000, []string{"start", "invalid"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			c, _, _ := newTestClassifier(DefaultThresholds(), rec.hooks())

			c.Step(1000, 0b1)
			c.Step(1000+tt.length, 0)

			assert.Equal(t, tt.want, rec.calls)
			assert.Equal(t, Episode{Last: 0b1}, c.Episode(), "episode cleared whatever the outcome")

			last := rec.episodes[len(rec.episodes)-1]
			assert.Equal(t, tt.length, last.Length)
			assert.Equal(t, uint32(1000), last.Start)
		})
	}
}

func TestClassifier_CumulativePads(t *testing.T) {
	rec := &recorder{}
	c, _, _ := newTestClassifier(DefaultThresholds(), rec.hooks())

	c.Step(0, 0b0001)
	c.Step(100, 0b0011)
	c.Step(200, 0b0010)
	assert.Equal(t, uint16(0b0011), c.Episode().Pads)
	assert.Equal(t, uint16(0b0010), c.Episode().Current)
	assert.Equal(t, uint16(0b0011), c.Episode().Last)

	c.Step(300, 0)
	require.Equal(t, []string{"start", "short", "end"}, rec.calls)
	assert.Equal(t, uint16(0b0011), rec.episodes[1].Pads)
	assert.Equal(t, []string{"start"}, rec.calls[:1], "moving between pads does not restart the episode")
}

func TestClassifier_NoHooksIsSafe(t *testing.T) {
	c, _, _ := newTestClassifier(DefaultThresholds(), Hooks{})
	assert.NotPanics(t, func() {
		c.Step(0, 1)
		c.Step(4000, 0)
	})
}

func TestClassifier_LengthAcrossWrap(t *testing.T) {
	rec := &recorder{}
	c, _, _ := newTestClassifier(DefaultThresholds(), rec.hooks())

	c.Step(0xFFFFFF00, 1)
	c.Step(0x00000100, 0) // 512ms later, after the counter wrapped

	assert.Equal(t, []string{"start", "invalid"}, rec.calls)
	assert.Equal(t, uint32(512), rec.episodes[1].Length)
}

func TestClassifier_PadEdges(t *testing.T) {
	var edges []string
	hooks := Hooks{
		OnPadStart: func(_ Episode, pad int) { edges = append(edges, "+"+string(rune('0'+pad))) },
		OnPadEnd:   func(_ Episode, pad int) { edges = append(edges, "-"+string(rune('0'+pad))) },
	}
	c, _, _ := newTestClassifier(Thresholds{Min: 90, Short: 500, Long: 3100, Pads: 4}, hooks)

	c.Step(0, 0b0001)
	c.Step(10, 0b0101)
	c.Step(20, 0b0100)
	c.Step(30, 0b10000) // pad 4 is outside the scanned range
	c.Step(40, 0)

	assert.Equal(t, []string{"+0", "+2", "-0", "-2"}, edges)
}

func TestClassifier_PadEdgeSeesEpisode(t *testing.T) {
	var seen []Episode
	hooks := Hooks{
		OnPadEnd: func(ep Episode, _ int) { seen = append(seen, ep) },
	}
	c, _, _ := newTestClassifier(DefaultThresholds(), hooks)

	c.Step(0, 0b1)
	c.Step(200, 0)

	require.Len(t, seen, 1)
	assert.Equal(t, uint16(0b1), seen[0].Last)
	assert.False(t, seen[0].Touching())
}

func TestClassifier_Poll(t *testing.T) {
	rec := &recorder{}
	c, sensor, clk := newTestClassifier(DefaultThresholds(), rec.hooks())

	sensor.mask = 0b100
	require.NoError(t, c.Poll())
	assert.True(t, c.Episode().Touching())
	assert.Equal(t, uint32(1000), c.Episode().Start)

	clk.Advance(3200)
	sensor.mask = 0
	require.NoError(t, c.Poll())
	assert.Equal(t, []string{"start", "long", "end"}, rec.calls)
}

func TestClassifier_PollErrorKeepsState(t *testing.T) {
	rec := &recorder{}
	c, sensor, clk := newTestClassifier(DefaultThresholds(), rec.hooks())

	sensor.mask = 1
	require.NoError(t, c.Poll())
	before := c.Episode()

	sensor.err = errors.New("i2c nack")
	clk.Advance(200)
	err := c.Poll()
	require.Error(t, err)
	assert.ErrorIs(t, err, sensor.err)
	assert.Equal(t, before, c.Episode())
	assert.Equal(t, []string{"start"}, rec.calls)
}

func TestClassifier_SetThresholds(t *testing.T) {
	rec := &recorder{}
	c, _, _ := newTestClassifier(DefaultThresholds(), rec.hooks())

	c.Step(0, 1)
	c.SetThresholds(Thresholds{Min: 10, Short: 2000, Long: 5000, Pads: 13})
	c.Step(1000, 0)

	assert.Equal(t, []string{"start", "short", "end"}, rec.calls)
	assert.Equal(t, uint32(2000), c.Thresholds().Short)
}
