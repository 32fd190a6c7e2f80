// Package config loads the optional opzoom configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/opzoom/internal/timeline"
)

// Config holds defaults for command flags. Flags given on the command line
// take precedence over values from the file.
type Config struct {
	Database    string `yaml:"db"`
	TimeUnit    string `yaml:"time_unit"`
	OutputDir   string `yaml:"output_dir"`
	GraphFormat string `yaml:"graph_format"`
	Schema      string `yaml:"schema"`
	MetricsFile string `yaml:"metrics_file"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Database:    "m0play.db",
		TimeUnit:    string(timeline.Microseconds),
		OutputDir:   ".",
		GraphFormat: "png",
	}
}

// Load reads path over the defaults. Unknown keys are rejected so that typos
// do not silently fall back to defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks field values.
func (c Config) Validate() error {
	if _, err := timeline.ParseUnit(c.TimeUnit); err != nil {
		return err
	}
	if c.Database == "" {
		return errors.New("db must not be empty")
	}
	return nil
}
