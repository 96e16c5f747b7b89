package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/smazurov/touchlight/internal/logging"
)

// lampOptions is a cut-down run options struct: one field per value kind
// the loader has to handle.
type lampOptions struct {
	Config       string   `flag:"config"`
	LongMs       uint32   `flag:"long-ms" toml:"touch.long_ms" env:"TOUCH_LONG_MS"`
	Address      uint16   `flag:"address" toml:"touch.address" env:"TOUCH_ADDRESS"`
	AllowMissing bool     `toml:"touch.allow_missing" env:"TOUCH_ALLOW_MISSING"`
	Driver       string   `toml:"led.driver" env:"LED_DRIVER"`
	Pins         []string `toml:"led.pins" env:"LED_PINS"`
	Channels     []int    `toml:"led.pwm_channels" env:"LED_PWM_CHANNELS"`
	ModeMax      int      `toml:"mode.max" env:"MODE_MAX"`
	Actions      []string `toml:"mode.actions" env:"MODE_ACTIONS"`
}

func defaultLamp(path string) lampOptions {
	return lampOptions{Config: path, LongMs: 3100, Address: 0x5a, Driver: "noop", ModeMax: 3}
}

func newLampCommand(o *lampOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "run"}
	cmd.Flags().StringVar(&o.Config, "config", o.Config, "")
	cmd.Flags().Uint32Var(&o.LongMs, "long-ms", o.LongMs, "")
	cmd.Flags().Uint16Var(&o.Address, "address", o.Address, "")
	return cmd
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_Precedence(t *testing.T) {
	file := writeFile(t, "touchlight.toml", "[touch]\nlong_ms = 4000\naddress = 0x5b\n")

	tests := []struct {
		name     string
		path     string
		env      map[string]string
		flags    []string
		wantLong uint32
		wantAddr uint16
	}{
		{"defaults without a file", "", nil, nil, 3100, 0x5a},
		{"missing file keeps defaults", filepath.Join(t.TempDir(), "absent.toml"), nil, nil, 3100, 0x5a},
		{"file over defaults", file, nil, nil, 4000, 0x5b},
		{"env over file", file, map[string]string{"TOUCH_LONG_MS": "3500"}, nil, 3500, 0x5b},
		{
			"flag over env",
			file,
			map[string]string{"TOUCH_LONG_MS": "3500", "TOUCH_ADDRESS": "0x5d"},
			[]string{"--long-ms", "2500"},
			2500, 0x5d,
		},
		{"flag equal to the default still wins", file, nil, []string{"--long-ms", "3100"}, 3100, 0x5b},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(EnvPrefix+k, v)
			}
			opts := defaultLamp(tt.path)
			cmd := newLampCommand(&opts)
			if err := cmd.ParseFlags(tt.flags); err != nil {
				t.Fatal(err)
			}

			if err := LoadConfig(&opts, cmd); err != nil {
				t.Fatalf("LoadConfig: %v", err)
			}
			if opts.LongMs != tt.wantLong {
				t.Errorf("LongMs = %d, want %d", opts.LongMs, tt.wantLong)
			}
			if opts.Address != tt.wantAddr {
				t.Errorf("Address = %#x, want %#x", opts.Address, tt.wantAddr)
			}
		})
	}
}

func TestLoadConfig_FileFormats(t *testing.T) {
	want := lampOptions{
		LongMs:       2800,
		Address:      0x5b,
		AllowMissing: true,
		Driver:       "sysfs",
		Pins:         []string{"GPIO17", "GPIO27", "GPIO22"},
		Channels:     []int{0, 1, 2},
		ModeMax:      2,
		Actions:      []string{"sunrise", "slow-pulse"},
	}

	tests := []struct {
		name    string
		content string
	}{
		{"touchlight.toml", `
[touch]
long_ms = 2800
address = 0x5b
allow_missing = true

[led]
driver = "sysfs"
pins = ["GPIO17", "GPIO27", "GPIO22"]
pwm_channels = [0, 1, 2]

[mode]
max = 2
actions = ["sunrise", "slow-pulse"]
`},
		{"touchlight.yaml", `
touch:
  long_ms: 2800
  address: 0x5b
  allow_missing: true
led:
  driver: sysfs
  pins: [GPIO17, GPIO27, GPIO22]
  pwm_channels: [0, 1, 2]
mode:
  max: 2
  actions: [sunrise, slow-pulse]
`},
		{"touchlight.yml", `
touch: {long_ms: 2800, address: 91, allow_missing: true}
led: {driver: sysfs, pins: [GPIO17, GPIO27, GPIO22], pwm_channels: [0, 1, 2]}
mode: {max: 2, actions: [sunrise, slow-pulse]}
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.name, tt.content)
			opts := defaultLamp(path)
			if err := LoadConfig(&opts, nil); err != nil {
				t.Fatalf("LoadConfig: %v", err)
			}

			expected := want
			expected.Config = path
			if !reflect.DeepEqual(opts, expected) {
				t.Errorf("got  %+v\nwant %+v", opts, expected)
			}
		})
	}
}

func TestLoadConfig_EnvLists(t *testing.T) {
	t.Setenv(EnvPrefix+"LED_PINS", "PWM0, PWM1 ,PWM2")
	t.Setenv(EnvPrefix+"LED_PWM_CHANNELS", "2,1, 0")
	t.Setenv(EnvPrefix+"TOUCH_ALLOW_MISSING", "true")

	opts := defaultLamp("")
	if err := LoadConfig(&opts, nil); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !reflect.DeepEqual(opts.Pins, []string{"PWM0", "PWM1", "PWM2"}) {
		t.Errorf("Pins = %q", opts.Pins)
	}
	if !reflect.DeepEqual(opts.Channels, []int{2, 1, 0}) {
		t.Errorf("Channels = %v", opts.Channels)
	}
	if !opts.AllowMissing {
		t.Error("AllowMissing not set from env")
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		env     map[string]string
		wantIn  string
	}{
		{"text for a number", "a.toml", "[touch]\nlong_ms = \"long\"\n", nil, "touch.long_ms"},
		{"negative unsigned", "a.toml", "[touch]\nlong_ms = -1\n", nil, "touch.long_ms"},
		{"mixed pin list", "a.toml", "[led]\npins = [\"GPIO17\", 27]\n", nil, "element 1"},
		{"broken toml", "a.toml", "[touch\nlong_ms = 1\n", nil, "TOML"},
		{"broken yaml", "a.yaml", "touch: [\n", nil, "YAML"},
		{"address overflows", "", "", map[string]string{"TOUCH_ADDRESS": "0x10000"}, EnvPrefix + "TOUCH_ADDRESS"},
		{"mode count not a number", "", "", map[string]string{"MODE_MAX": "many"}, EnvPrefix + "MODE_MAX"},
		{"channel list", "", "", map[string]string{"LED_PWM_CHANNELS": "0,x"}, EnvPrefix + "LED_PWM_CHANNELS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(EnvPrefix+k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeFile(t, tt.file, tt.content)
			}

			opts := defaultLamp(path)
			err := LoadConfig(&opts, nil)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantIn) {
				t.Errorf("error %q does not mention %q", err, tt.wantIn)
			}
		})
	}
}

func TestLoadLoggingConfig(t *testing.T) {
	defaults := logging.Config{Level: "info", Format: "text", Modules: map[string]string{}}

	tests := []struct {
		name    string
		content string
		want    logging.Config
	}{
		{
			"flat module keys",
			"[logging]\nlevel = \"warn\"\nsensor = \"debug\"\nled = \"error\"\n",
			logging.Config{Level: "warn", Format: "text", Modules: map[string]string{"sensor": "debug", "led": "error"}},
		},
		{
			"modules table",
			"[logging]\nformat = \"json\"\n\n[logging.modules]\nlight = \"debug\"\n",
			logging.Config{Level: "info", Format: "json", Modules: map[string]string{"light": "debug"}},
		},
		{"no logging table", "[touch]\nlong_ms = 4000\n", defaults},
		{"unparseable", "[logging\n", defaults},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LoadLoggingConfig(writeFile(t, "touchlight.toml", tt.content))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}

	if got := LoadLoggingConfig(""); !reflect.DeepEqual(got, defaults) {
		t.Errorf("empty path: got %+v", got)
	}
	if got := LoadLoggingConfig(filepath.Join(t.TempDir(), "absent.toml")); !reflect.DeepEqual(got, defaults) {
		t.Errorf("missing file: got %+v", got)
	}
}

func TestFlagName(t *testing.T) {
	typ := reflect.TypeOf(lampOptions{})
	tests := []struct {
		field string
		want  string
	}{
		{"LongMs", "long-ms"},
		{"Config", "config"},
		{"AllowMissing", "allow-missing"},
		{"ModeMax", "mode-max"},
	}
	for _, tt := range tests {
		f, ok := typ.FieldByName(tt.field)
		if !ok {
			t.Fatalf("no field %s", tt.field)
		}
		if got := flagName(f); got != tt.want {
			t.Errorf("flagName(%s) = %q, want %q", tt.field, got, tt.want)
		}
	}
}
