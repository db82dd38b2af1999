package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is read when present and no -config flag is given.
const DefaultConfigPath = "spectest.yaml"

// Config holds the harness settings.
type Config struct {
	Binary        string        `yaml:"binary"`
	TestDir       string        `yaml:"test_dir"`
	BuildDir      string        `yaml:"build_dir"`
	Timeout       time.Duration `yaml:"timeout"`
	SkipSuites    []string      `yaml:"skip_suites"`
	HideSuccesses bool          `yaml:"hide_successes"`
	Color         string        `yaml:"color"`
	Jobs          int           `yaml:"jobs"`
	Strict        bool          `yaml:"strict"`
	NaNMode       NaNMode       `yaml:"nan_mode"`
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() Config {
	return Config{
		Binary:        "cmake-build-debug/wasm_interpreter",
		TestDir:       "test/",
		BuildDir:      "test/build/",
		Timeout:       time.Second,
		SkipSuites:    []string{"names"},
		HideSuccesses: true,
		Color:         ColorAuto,
		Jobs:          1,
		NaNMode:       NaNModeStrict,
	}
}

// LoadConfig overlays the YAML file at path onto the defaults. A missing file
// is an error only when explicit is set.
func LoadConfig(path string, explicit bool) (Config, error) {
	cfg := DefaultConfig()

	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Binary == "" {
		return errors.New("config: binary must be set")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive, got %s", c.Timeout)
	}
	if c.Jobs < 1 {
		return fmt.Errorf("config: jobs must be at least 1, got %d", c.Jobs)
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("config: color must be auto, always or never, got %q", c.Color)
	}
	switch c.NaNMode {
	case NaNModeStrict, NaNModeLoose:
	default:
		return fmt.Errorf("config: nan_mode must be strict or loose, got %q", c.NaNMode)
	}
	return nil
}

// skipSet indexes SkipSuites.
func (c Config) skipSet() map[string]bool {
	set := make(map[string]bool, len(c.SkipSuites))
	for _, name := range c.SkipSuites {
		set[name] = true
	}
	return set
}
