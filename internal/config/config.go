// Package config loads gridyield's YAML configuration. Struct-tag defaults are
// applied first and values present in the file take priority over them.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration document.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Economy  EconomyConfig  `yaml:"economy"`
	Audit    AuditConfig    `yaml:"audit"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Simulate SimulateConfig `yaml:"simulate"`
	Log      LogConfig      `yaml:"log"`
}

type DatabaseConfig struct {
	// Path of the SQLite database file. ":memory:" keeps everything in RAM.
	Path string `default:"gridyield.db" yaml:"path"`
}

type CatalogConfig struct {
	// Dir holds the module catalog as CUE files. A single file also works.
	Dir string `default:"catalog" yaml:"dir"`
}

type EconomyConfig struct {
	// DailyVotes is each regular user's click allowance, restored on refresh.
	DailyVotes int64 `default:"10" yaml:"daily_votes"`

	GridWidth  int `default:"3" yaml:"grid_width"`
	GridHeight int `default:"4" yaml:"grid_height"`

	// Seed fixes the random source. 0 seeds from the runtime.
	Seed uint64 `default:"0" yaml:"seed"`
}

type AuditConfig struct {
	Enabled bool   `default:"false" yaml:"enabled"`
	Dir     string `default:"audit" yaml:"dir"`
}

type ScheduleConfig struct {
	// AllowanceCron is a five-field cron expression for the allowance refresh.
	AllowanceCron string `default:"0 0 * * *" yaml:"allowance_cron"`

	// Timezone the cron expression is evaluated in.
	Timezone string `default:"UTC" yaml:"timezone"`
}

type SimulateConfig struct {
	Workers int `default:"4" yaml:"workers"`
}

type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `default:"info" yaml:"level"`
}

// Default returns a configuration holding only the tag defaults.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Load reads the YAML file at path over the defaults. A missing file is not
// an error when allowMissing is set; the defaults are returned instead.
func Load(path string, allowMissing bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && allowMissing {
		return Default()
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is empty"))
	}
	if c.Economy.DailyVotes < 0 {
		errs = append(errs, fmt.Errorf("economy.daily_votes must be >= 0, got %d", c.Economy.DailyVotes))
	}
	if c.Economy.GridWidth <= 0 || c.Economy.GridHeight <= 0 {
		errs = append(errs, fmt.Errorf("economy grid must be positive, got %dx%d", c.Economy.GridWidth, c.Economy.GridHeight))
	}
	if c.Simulate.Workers <= 0 {
		errs = append(errs, fmt.Errorf("simulate.workers must be positive, got %d", c.Simulate.Workers))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(name)))); err != nil {
		return 0, fmt.Errorf("log.level: unknown level %q", name)
	}
	return l, nil
}
