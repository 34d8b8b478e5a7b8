// Package config binds the model, training, and data sections of a
// YAML run file, with named presets for common setups.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/fordyn/internal/train"
	"github.com/san-kum/fordyn/internal/vehicle"
)

const (
	DefaultDataDir = "logs"
	DefaultDelim   = ","
)

// DefaultColumns is the log schema: a time column followed by the six
// model signals. The time column is carried for plots but never fed to
// the model.
var DefaultColumns = []string{"time", "vx", "vy", "r", "delta", "throttle", "brake"}

type Config struct {
	Model vehicle.Config `yaml:"model"`
	Train train.Options  `yaml:"train"`
	Data  DataConfig     `yaml:"data"`
}

// DataConfig names the log folder and its column layout.
type DataConfig struct {
	Dir     string   `yaml:"dir"`
	Columns []string `yaml:"columns"`
	Delim   string   `yaml:"delim"`
}

// Delimiter returns the field separator as a rune, falling back to a
// comma when unset.
func (d DataConfig) Delimiter() rune {
	r := []rune(d.Delim)
	if len(r) == 0 {
		return ','
	}
	return r[0]
}

func DefaultConfig() *Config {
	return &Config{
		Model: vehicle.DefaultConfig(),
		Train: train.Options{
			Epochs:    train.DefaultEpochs,
			BatchSize: train.DefaultBatchSize,
			LR:        train.DefaultLR,
			Optimizer: "adam",
			ValSplit:  train.DefaultValSplit,
		},
		Data: defaultData(),
	}
}

func defaultData() DataConfig {
	cols := make([]string, len(DefaultColumns))
	copy(cols, DefaultColumns)
	return DataConfig{
		Dir:     DefaultDataDir,
		Columns: cols,
		Delim:   DefaultDelim,
	}
}

// Load reads a YAML run file over the defaults, so a partial file only
// overrides the fields it names.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects configurations no command could run with. Zero
// training values are left alone; the trainer fills those with its own
// defaults.
func (c *Config) Validate() error {
	if err := c.Model.Validate(); err != nil {
		return fmt.Errorf("model: %w", err)
	}

	if c.Train.Epochs < 0 {
		return fmt.Errorf("train: epochs must not be negative, got %d", c.Train.Epochs)
	}
	if c.Train.BatchSize < 0 {
		return fmt.Errorf("train: batch size must not be negative, got %d", c.Train.BatchSize)
	}
	if c.Train.LR < 0 {
		return fmt.Errorf("train: learning rate must not be negative, got %f", c.Train.LR)
	}
	if c.Train.ValSplit < 0 || c.Train.ValSplit >= 1 {
		return fmt.Errorf("train: val split must lie in [0, 1), got %f", c.Train.ValSplit)
	}
	switch c.Train.Optimizer {
	case "", "adam", "sgd":
	default:
		return fmt.Errorf("train: unknown optimizer %q", c.Train.Optimizer)
	}

	if len(c.Data.Columns) == 0 {
		return fmt.Errorf("data: empty column schema")
	}
	have := make(map[string]bool, len(c.Data.Columns))
	for _, col := range c.Data.Columns {
		have[col] = true
	}
	for _, sig := range vehicle.SignalNames {
		if !have[sig] {
			return fmt.Errorf("data: schema missing signal %q", sig)
		}
	}
	if len([]rune(c.Data.Delim)) > 1 {
		return fmt.Errorf("data: delimiter must be a single character, got %q", c.Data.Delim)
	}
	return nil
}
