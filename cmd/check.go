package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/smazurov/touchlight/internal/config"
	"github.com/smazurov/touchlight/internal/sensor"
)

// errCheckFailed is returned by check --strict when warnings were printed.
var errCheckFailed = errors.New("configuration check failed")

// NewCheckCmd creates the command that validates the configuration.
func NewCheckCmd(opts *Options) *cobra.Command {
	var strict, readPads bool

	c := &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration",
		Long: `Loads the configuration the way run does, prints the effective touch and
mode settings and warns about threshold orderings that make an outcome
unreachable. With --read-sensor the sensor is initialized and its electrode
readings are printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadConfig(opts, cmd); err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()

			warnings, err := checkOptions(out, opts)
			if err != nil {
				return err
			}

			if readPads {
				if err := readSensor(out, opts); err != nil {
					return err
				}
			}

			if strict && warnings > 0 {
				return errCheckFailed
			}
			return nil
		},
	}

	c.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when there are warnings")
	c.Flags().BoolVar(&readPads, "read-sensor", false, "Initialize the sensor and print electrode readings")
	return c
}

// checkOptions prints the effective settings and returns the warning count.
func checkOptions(out io.Writer, opts *Options) (int, error) {
	settings, err := opts.Settings()
	if err != nil {
		return 0, err
	}
	if _, err := opts.LEDConfig(); err != nil {
		return 0, err
	}

	th := settings.Thresholds
	rows := [][]string{
		{"config", opts.Config},
		{"ignore below", fmt.Sprintf("%dms", th.Min)},
		{"short up to", fmt.Sprintf("%dms", th.Short)},
		{"long from", fmt.Sprintf("%dms", th.Long)},
		{"pads", strconv.Itoa(int(th.Pads))},
		{"modes", fmt.Sprintf("%d, revert after %dms", settings.Mode.Max, settings.Mode.Timeout)},
	}
	for m := 1; m <= settings.Mode.Max; m++ {
		action := "touch-release"
		if kind, ok := settings.Actions[m]; ok {
			action = string(kind)
		}
		rows = append(rows, []string{fmt.Sprintf("mode %d long touch", m), action})
	}
	rows = append(rows, []string{"led driver", opts.LEDDriver})
	fmt.Fprintln(out, report(nil, rows))

	warnings := th.Warnings()
	for _, w := range warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	if len(warnings) == 0 {
		fmt.Fprintln(out, "ok")
	}
	return len(warnings), nil
}

func readSensor(out io.Writer, opts *Options) error {
	mpr, closer, err := sensor.Open(opts.TouchBus, opts.SensorOptions(), nil)
	if err != nil {
		return err
	}
	defer closer.Close()

	if !mpr.Init(opts.TouchAddress) {
		return fmt.Errorf("%w at 0x%02x", sensor.ErrNotDetected, opts.TouchAddress)
	}

	mask, err := mpr.Touched()
	if err != nil {
		return err
	}

	var rows [][]string
	for pad := 0; pad < sensor.Electrodes && pad < int(opts.TouchPads); pad++ {
		r, readErr := mpr.Read(pad)
		if readErr != nil {
			return readErr
		}
		rows = append(rows, []string{
			strconv.Itoa(pad),
			strconv.Itoa(int(r.Filtered)),
			strconv.Itoa(int(r.Baseline)),
			strconv.FormatBool(mask&(1<<uint(pad)) != 0),
		})
	}
	_, err = fmt.Fprintln(out, report([]string{"pad", "filtered", "baseline", "touched"}, rows))
	return err
}

var cellStyle = lipgloss.NewStyle().PaddingRight(2)

// report renders rows as borderless aligned columns.
func report(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(false).
		StyleFunc(func(_, _ int) lipgloss.Style { return cellStyle }).
		Rows(rows...)
	if len(headers) > 0 {
		t = t.Headers(headers...)
	}
	return t.String()
}
