package config

import (
	"sort"

	"github.com/san-kum/fordyn/internal/train"
	"github.com/san-kum/fordyn/internal/vehicle"
)

// Presets are complete run files for common situations. "standard" is
// the plain default; "quick" trades accuracy for a fast smoke fit;
// "thorough" runs long with learning-rate decay; "wet" narrows the
// grip bounds for low-friction logs.
var Presets = map[string]Config{
	"quick": {
		Model: vehicle.DefaultConfig(),
		Train: train.Options{
			Epochs:    20,
			BatchSize: 64,
			LR:        0.002,
			Optimizer: "adam",
			ValSplit:  train.DefaultValSplit,
		},
		Data: defaultData(),
	},
	"standard": {
		Model: vehicle.DefaultConfig(),
		Train: train.Options{
			Epochs:    train.DefaultEpochs,
			BatchSize: train.DefaultBatchSize,
			LR:        train.DefaultLR,
			Optimizer: "adam",
			ValSplit:  train.DefaultValSplit,
		},
		Data: defaultData(),
	},
	"thorough": {
		Model: vehicle.DefaultConfig(),
		Train: train.Options{
			Epochs:    400,
			BatchSize: train.DefaultBatchSize,
			LR:        train.DefaultLR,
			Optimizer: "adam",
			ValSplit:  train.DefaultValSplit,
			LRDecay:   true,
		},
		Data: defaultData(),
	},
	"wet": {
		Model: vehicle.Config{
			Ts:      vehicle.DefaultTs,
			TwU:     vehicle.DefaultTwU,
			TwDelta: vehicle.DefaultTwDelta,
			TwState: vehicle.DefaultTwState,
			G:       vehicle.DefaultG,
			MuMin:   0.25,
			MuMax:   0.9,
			Eps:     vehicle.DefaultEps,
		},
		Train: train.Options{
			Epochs:    train.DefaultEpochs,
			BatchSize: train.DefaultBatchSize,
			LR:        train.DefaultLR,
			Optimizer: "adam",
			ValSplit:  train.DefaultValSplit,
		},
		Data: defaultData(),
	},
}

// GetPreset returns a copy of the named preset, or nil when it does
// not exist. Mutating the result never touches the preset table.
func GetPreset(name string) *Config {
	preset, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := preset
	cfg.Data.Columns = make([]string, len(preset.Data.Columns))
	copy(cfg.Data.Columns, preset.Data.Columns)
	return &cfg
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
