package vehicle

import "fmt"

// Default model parameters. Windows are in seconds and must divide evenly
// by the sample time.
const (
	DefaultTs      = 0.01
	DefaultTwU     = 0.10
	DefaultTwDelta = 0.10
	DefaultTwState = 0.20
	DefaultG       = 9.81
	DefaultMuMin   = 0.6
	DefaultMuMax   = 2.0
	DefaultEps     = 1e-6
)

// Config carries everything Build needs to assemble the model. It is a
// plain value; Build never mutates it and the compiled model keeps its own
// copy.
type Config struct {
	Ts      float64 `yaml:"ts" json:"ts"`             // sample time, s
	TwU     float64 `yaml:"tw_u" json:"tw_u"`         // throttle/brake tap window, s
	TwDelta float64 `yaml:"tw_delta" json:"tw_delta"` // steering tap window, s
	TwState float64 `yaml:"tw_state" json:"tw_state"` // body-state tap window, s
	G       float64 `yaml:"g" json:"g"`               // gravitational acceleration, m/s^2
	MuMin   float64 `yaml:"mu_min" json:"mu_min"`     // friction lower bound
	MuMax   float64 `yaml:"mu_max" json:"mu_max"`     // friction upper bound
	Eps     float64 `yaml:"eps" json:"eps"`           // numerical guard in the ellipse
}

func DefaultConfig() Config {
	return Config{
		Ts:      DefaultTs,
		TwU:     DefaultTwU,
		TwDelta: DefaultTwDelta,
		TwState: DefaultTwState,
		G:       DefaultG,
		MuMin:   DefaultMuMin,
		MuMax:   DefaultMuMax,
		Eps:     DefaultEps,
	}
}

func (c Config) Validate() error {
	if c.Ts <= 0 {
		return fmt.Errorf("ts must be positive, got %f", c.Ts)
	}
	if c.TwU <= 0 || c.TwDelta <= 0 || c.TwState <= 0 {
		return fmt.Errorf("tap windows must be positive, got %f/%f/%f", c.TwU, c.TwDelta, c.TwState)
	}
	if c.G <= 0 {
		return fmt.Errorf("g must be positive, got %f", c.G)
	}
	if c.MuMin <= 0 {
		return fmt.Errorf("mu_min must be positive, got %f", c.MuMin)
	}
	if c.MuMax <= c.MuMin {
		return fmt.Errorf("mu_max must exceed mu_min, got %f <= %f", c.MuMax, c.MuMin)
	}
	if c.Eps <= 0 {
		return fmt.Errorf("eps must be positive, got %g", c.Eps)
	}
	return nil
}
