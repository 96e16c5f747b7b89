// Package config loads flat option structs from a TOML or YAML file, the
// environment and command-line flags, and watches the file for changes.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/touchlight/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every `env` tag.
const EnvPrefix = "TOUCHLIGHT_"

// LoadConfig loads configuration with proper precedence: CLI args > env vars > config file.
// If cmd is provided, flags explicitly set via CLI will not be overwritten.
func LoadConfig(opts any, cmd *cobra.Command) error {
	v := reflect.ValueOf(opts).Elem()
	t := v.Type()

	// Build set of flags explicitly changed via CLI
	changedFlags := make(map[string]bool)
	if cmd != nil {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Changed {
				changedFlags[f.Name] = true
			}
		})
	}

	// Get config file path
	var configPath string
	for i := 0; i < v.NumField(); i++ {
		if t.Field(i).Name == "Config" {
			configPath = v.Field(i).String()
			break
		}
	}

	if configPath != "" {
		config, err := ReadFile(configPath)
		if err != nil && !os.IsNotExist(err) {
			return err
		}

		for i := 0; config != nil && i < v.NumField(); i++ {
			field := v.Field(i)
			fieldType := t.Field(i)

			if changedFlags[flagName(fieldType)] {
				continue
			}

			if path := fieldType.Tag.Get("toml"); path != "" && path != "-" {
				if value := getNestedValue(config, path); value != nil {
					if err := setFieldValue(field, value); err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
				}
			}
		}
	}

	// Apply environment variable overrides (skip CLI-set flags)
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if changedFlags[flagName(fieldType)] {
			continue
		}

		if envKey := fieldType.Tag.Get("env"); envKey != "" {
			if envValue := os.Getenv(EnvPrefix + envKey); envValue != "" {
				if err := setFieldValueFromString(field, envValue); err != nil {
					return fmt.Errorf("%s%s: %w", EnvPrefix, envKey, err)
				}
			}
		}
	}

	return nil
}

// ReadFile parses a config file into a generic map. Files ending in .yaml
// or .yml are read as YAML, everything else as TOML.
func ReadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := make(map[string]any)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	}
	return config, nil
}

// flagName returns the CLI flag bound to a field: its `flag` tag, or the
// field name in kebab case.
func flagName(f reflect.StructField) string {
	if name := f.Tag.Get("flag"); name != "" {
		return name
	}
	return fieldNameToFlag(f.Name)
}

// fieldNameToFlag converts a struct field name to a CLI flag name.
// Example: "LoggingLevel" -> "logging-level", "Pads" -> "pads".
func fieldNameToFlag(fieldName string) string {
	var result []rune
	for i, r := range fieldName {
		if i > 0 && unicode.IsUpper(r) {
			result = append(result, '-')
		}
		result = append(result, unicode.ToLower(r))
	}
	return string(result)
}

// getNestedValue retrieves a value from nested map using dot notation.
func getNestedValue(data map[string]any, path string) any {
	parts := strings.Split(path, ".")
	current := data

	for i, part := range parts {
		if i == len(parts)-1 {
			return current[part]
		}
		if next, ok := current[part].(map[string]any); ok {
			current = next
		} else {
			return nil
		}
	}
	return nil
}

// toInt accepts the integer shapes TOML and YAML decoders produce.
func toInt(value any) (int64, bool) {
	switch n := value.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}

// setFieldValue sets a field value using reflection.
func setFieldValue(field reflect.Value, value any) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		if s, ok := value.(string); ok {
			field.SetString(s)
			return nil
		}
	case reflect.Bool:
		if b, ok := value.(bool); ok {
			field.SetBool(b)
			return nil
		}
	case reflect.Int, reflect.Int64, reflect.Int32:
		if i, ok := toInt(value); ok {
			field.SetInt(i)
			return nil
		}
	case reflect.Uint, reflect.Uint32, reflect.Uint16, reflect.Uint8:
		if i, ok := toInt(value); ok && i >= 0 {
			field.SetUint(uint64(i))
			return nil
		}
	case reflect.Slice:
		arr, ok := value.([]any)
		if !ok {
			break
		}
		switch field.Type().Elem().Kind() {
		case reflect.String:
			slice := make([]string, len(arr))
			for i, v := range arr {
				s, strOk := v.(string)
				if !strOk {
					return fmt.Errorf("element %d: expected string, got %T", i, v)
				}
				slice[i] = s
			}
			field.Set(reflect.ValueOf(slice))
			return nil
		case reflect.Int:
			slice := make([]int, len(arr))
			for i, v := range arr {
				n, intOk := toInt(v)
				if !intOk {
					return fmt.Errorf("element %d: expected integer, got %T", i, v)
				}
				slice[i] = int(n)
			}
			field.Set(reflect.ValueOf(slice))
			return nil
		}
	default:
		return nil
	}
	return fmt.Errorf("cannot use %T as %s", value, field.Type())
}

// setFieldValueFromString sets a field value from string (for env vars).
// Slices are comma separated.
func setFieldValueFromString(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int64, reflect.Int32:
		i, err := strconv.ParseInt(value, 0, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)
	case reflect.Uint, reflect.Uint32, reflect.Uint16, reflect.Uint8:
		i, err := strconv.ParseUint(value, 0, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(i)
	case reflect.Slice:
		parts := strings.Split(value, ",")
		switch field.Type().Elem().Kind() {
		case reflect.String:
			slice := make([]string, len(parts))
			for i, part := range parts {
				slice[i] = strings.TrimSpace(part)
			}
			field.Set(reflect.ValueOf(slice))
		case reflect.Int:
			slice := make([]int, len(parts))
			for i, part := range parts {
				n, err := strconv.Atoi(strings.TrimSpace(part))
				if err != nil {
					return err
				}
				slice[i] = n
			}
			field.Set(reflect.ValueOf(slice))
		}
	}
	return nil
}

// LoadLoggingConfig loads the [logging] table from a config file. Module
// levels may sit directly in the table or under [logging.modules].
// Returns default config if file doesn't exist or can't be parsed.
func LoadLoggingConfig(configPath string) logging.Config {
	cfg := logging.Config{
		Level:   "info",
		Format:  "text",
		Modules: make(map[string]string),
	}

	if configPath == "" {
		return cfg
	}

	raw, err := ReadFile(configPath)
	if err != nil {
		return cfg
	}

	table, ok := raw["logging"].(map[string]any)
	if !ok {
		return cfg
	}

	for key, value := range table {
		switch v := value.(type) {
		case string:
			switch key {
			case "level":
				cfg.Level = v
			case "format":
				cfg.Format = v
			default:
				cfg.Modules[key] = v
			}
		case map[string]any:
			if key != "modules" {
				continue
			}
			for module, level := range v {
				if s, isString := level.(string); isString {
					cfg.Modules[module] = s
				}
			}
		}
	}

	return cfg
}
