package vehicle

// Signal names in canonical column order. States first, then driver inputs.
var (
	SignalNames  = []string{"vx", "vy", "r", "delta", "throttle", "brake"}
	StateNames   = []string{"vx", "vy", "r"}
	ControlNames = []string{"delta", "throttle", "brake"}
)

// Contribution is one signed FIR term feeding an acceleration channel.
type Contribution struct {
	Signal string
	Window float64
	Sign   float64
}

// Channel is one acceleration channel with its full contribution list.
// The builder folds the terms with a signed sum; braking always enters
// negatively.
type Channel struct {
	Name  string
	Terms []Contribution
}

// Channels returns the three acceleration channels for the given windows.
// Every signal feeds every channel; only the tap windows and the brake
// sign distinguish them.
func Channels(c Config) []Channel {
	lateral := []Contribution{
		{Signal: "delta", Window: c.TwDelta, Sign: 1},
		{Signal: "vx", Window: c.TwState, Sign: 1},
		{Signal: "vy", Window: c.TwState, Sign: 1},
		{Signal: "r", Window: c.TwState, Sign: 1},
		{Signal: "throttle", Window: c.TwU, Sign: 1},
		{Signal: "brake", Window: c.TwU, Sign: -1},
	}
	return []Channel{
		{
			Name: "ax",
			Terms: []Contribution{
				{Signal: "throttle", Window: c.TwU, Sign: 1},
				{Signal: "brake", Window: c.TwU, Sign: -1},
				{Signal: "vx", Window: c.TwState, Sign: 1},
				{Signal: "delta", Window: c.TwDelta, Sign: 1},
				{Signal: "r", Window: c.TwState, Sign: 1},
				{Signal: "vy", Window: c.TwState, Sign: 1},
			},
		},
		{Name: "ay", Terms: lateral},
		{Name: "rdot", Terms: lateral},
	}
}
